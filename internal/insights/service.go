// Package insights asks generative-AI providers for narrative commentary on a
// lab report. The commentary is displayed as-is; it never feeds back into the
// local analysis.
package insights

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"medscan/internal/logger"
	"medscan/pkg/models"
)

// Provider returns commentary for a report and its local analysis.
type Provider interface {
	// Name is the short identifier used in progress events ("gemini", "hf").
	Name() string

	// Insights returns commentary. A provider that is not configured returns an
	// Insight whose Error says so, and a nil error.
	Insights(ctx context.Context, text string, analysis *models.AnalysisResult) (*models.Insight, error)
}

// Result pairs a provider with its insight.
type Result struct {
	Provider string         `json:"provider"`
	Insight  models.Insight `json:"insight"`
}

// Service fans a report out to several providers.
type Service struct {
	providers []Provider
	log       zerolog.Logger
}

// NewService creates a service over providers, queried in the given order.
func NewService(providers ...Provider) *Service {
	return &Service{
		providers: providers,
		log:       logger.WithComponent("insights"),
	}
}

// Providers returns the provider names in order.
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}

// Collect queries every provider concurrently and returns one result per
// provider, in provider order. Provider failures become Insight.Error.
func (s *Service) Collect(ctx context.Context, text string, analysis *models.AnalysisResult) []Result {
	results := make([]Result, len(s.providers))

	var wg sync.WaitGroup
	for i, p := range s.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			results[i] = Result{Provider: p.Name(), Insight: s.query(ctx, p, text, analysis)}
		}(i, p)
	}
	wg.Wait()

	return results
}

// Query asks a single provider, converting failures into Insight.Error.
func (s *Service) Query(ctx context.Context, name, text string, analysis *models.AnalysisResult) (Result, error) {
	for _, p := range s.providers {
		if p.Name() == name {
			return Result{Provider: name, Insight: s.query(ctx, p, text, analysis)}, nil
		}
	}
	return Result{}, fmt.Errorf("unknown insight provider %q", name)
}

func (s *Service) query(ctx context.Context, p Provider, text string, analysis *models.AnalysisResult) models.Insight {
	insight, err := p.Insights(ctx, text, analysis)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("provider", p.Name()).
			Msg("Insight provider failed")
		return models.Insight{Source: p.Name(), Error: errorMessage(p.Name(), err)}
	}
	if insight == nil {
		return models.Insight{Source: p.Name(), Error: errorMessage(p.Name(), ErrEmptyResponse)}
	}

	s.log.Debug().
		Str("provider", p.Name()).
		Bool("cached", insight.Cached).
		Bool("ok", insight.OK()).
		Msg("Insight received")
	return *insight
}

func errorMessage(provider string, err error) string {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return fmt.Sprintf("%s not configured", provider)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("%s timed out", provider)
	default:
		return fmt.Sprintf("Failed to get %s insights: %v", provider, err)
	}
}

// notConfigured is the insight returned by providers without credentials.
func notConfigured(provider, source string) *models.Insight {
	return &models.Insight{Source: source, Error: fmt.Sprintf("%s not configured", provider)}
}
