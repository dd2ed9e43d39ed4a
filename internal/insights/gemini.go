package insights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"medscan/internal/logger"
	"medscan/pkg/models"
)

// contentGenerator is the part of the genai client used here. *genai.Models implements it.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey      string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	Temperature float32
}

// GeminiProvider implements Provider with Google Gemini.
type GeminiProvider struct {
	models contentGenerator
	config GeminiConfig
	log    zerolog.Logger
}

// NewGeminiProvider creates the provider. Without an API key it is created in a
// not-configured state and answers every request with an error insight.
func NewGeminiProvider(ctx context.Context, config GeminiConfig) (*GeminiProvider, error) {
	const op = "NewGeminiProvider"

	if config.Model == "" {
		config.Model = "gemini-2.5-flash"
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}

	p := &GeminiProvider{
		config: config,
		log:    logger.WithComponent("gemini"),
	}

	if config.APIKey == "" {
		p.log.Warn().Msg("GEMINI_API_KEY not found. Gemini insights disabled.")
		return p, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, WrapInsightError("gemini", op, fmt.Errorf("failed to create Gemini client: %w", err))
	}
	p.models = client.Models

	p.log.Info().Str("model", config.Model).Msg("Gemini provider initialized")
	return p, nil
}

// Name implements Provider.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Insights implements Provider.
func (p *GeminiProvider) Insights(ctx context.Context, text string, analysis *models.AnalysisResult) (*models.Insight, error) {
	const op = "Insights"

	if p.models == nil {
		return notConfigured("Gemini AI", p.config.Model), nil
	}

	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: BuildPrompt(text, analysis)}},
		},
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		Temperature:       genai.Ptr(p.config.Temperature),
	}

	var lastErr error
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, p.config.RetryDelay); err != nil {
				return nil, WrapInsightError(p.Name(), op, err)
			}
		}

		resp, err := p.models.GenerateContent(ctx, p.config.Model, contents, cfg)
		if err != nil {
			lastErr = err
			p.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", p.config.MaxRetries).
				Msg("Gemini request failed, retrying")
			continue
		}

		answer := strings.TrimSpace(resp.Text())
		if answer == "" {
			lastErr = ErrEmptyResponse
			continue
		}

		p.log.Info().
			Int("attempt", attempt).
			Int("response_length", len(answer)).
			Msg("Gemini insights generated successfully")

		return &models.Insight{Source: p.config.Model, RawResponse: answer}, nil
	}

	return nil, WrapInsightError(p.Name(), op, fmt.Errorf("all %d attempts failed, last error: %w", p.config.MaxRetries, lastErr))
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
