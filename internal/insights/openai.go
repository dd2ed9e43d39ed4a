package insights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"medscan/internal/logger"
	"medscan/pkg/models"
)

// chatCompleter is the part of the go-openai client used here.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIConfig configures an OpenAI-compatible chat provider. With BaseURL set
// to the Hugging Face router it serves hosted open models.
type OpenAIConfig struct {
	Name        string // provider name used in events, e.g. "hf"
	APIKey      string
	BaseURL     string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	Temperature float32
	MaxTokens   int
}

// OpenAIProvider implements Provider over the chat completions API.
type OpenAIProvider struct {
	client chatCompleter
	config OpenAIConfig
	log    zerolog.Logger
}

// NewOpenAIProvider creates the provider. Without an API key it is created in
// a not-configured state.
func NewOpenAIProvider(config OpenAIConfig) *OpenAIProvider {
	if config.Name == "" {
		config.Name = "hf"
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 1000
	}

	p := &OpenAIProvider{
		config: config,
		log:    logger.WithComponent(config.Name),
	}

	if config.APIKey == "" {
		p.log.Warn().Str("provider", config.Name).Msg("API token missing. Insights disabled.")
		return p
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	p.client = openai.NewClientWithConfig(clientConfig)

	p.log.Info().
		Str("model", config.Model).
		Str("base_url", clientConfig.BaseURL).
		Msg("Chat provider initialized")
	return p
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string {
	return p.config.Name
}

// Insights implements Provider.
func (p *OpenAIProvider) Insights(ctx context.Context, text string, analysis *models.AnalysisResult) (*models.Insight, error) {
	const op = "Insights"

	if p.client == nil {
		return notConfigured(p.config.Name, p.config.Model), nil
	}

	prompt := BuildPrompt(text, analysis)
	p.log.Debug().
		Int("prompt_length", len(prompt)).
		Str("model", p.config.Model).
		Msg("Sending insight request")

	var lastErr error
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, p.config.RetryDelay); err != nil {
				return nil, WrapInsightError(p.Name(), op, err)
			}
		}

		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       p.config.Model,
			Temperature: p.config.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens: p.config.MaxTokens,
		})
		if err != nil {
			lastErr = err
			p.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", p.config.MaxRetries).
				Msg("Chat request failed, retrying")
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no response choices from %s", p.config.Name)
			continue
		}

		answer := strings.TrimSpace(resp.Choices[0].Message.Content)
		if answer == "" {
			lastErr = ErrEmptyResponse
			continue
		}

		p.log.Info().
			Int("attempt", attempt).
			Int("response_length", len(answer)).
			Msg("Insights generated successfully")

		return &models.Insight{Source: p.config.Model, RawResponse: answer}, nil
	}

	return nil, WrapInsightError(p.Name(), op, fmt.Errorf("all %d attempts failed, last error: %w", p.config.MaxRetries, lastErr))
}
