// Package analysis extracts clinical parameters from report text and assesses them.
//
// The pipeline is:
//
//	text -> Extractor -> Classifier -> CollectAbnormalities -> AssessRisk
//	     -> GenerateRecommendations -> ComposeSummary
//
// Reference ranges and extraction patterns are immutable values built once and
// shared, so one Analyzer can serve concurrent callers without locking.
package analysis

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"medscan/internal/logger"
	"medscan/pkg/models"
)

const (
	// DefaultLanguage is used when Analyze is called without a language.
	DefaultLanguage = "en"

	// DegradedSummary is the summary of an analysis that could not be completed.
	DegradedSummary = "Analysis could not be completed"

	// TimestampLayout renders analysis dates as ISO-8601 UTC with a trailing Z.
	TimestampLayout = "2006-01-02T15:04:05.000000Z"
)

// Analyzer runs the full extraction and assessment pipeline.
type Analyzer struct {
	extractor  *Extractor
	classifier *Classifier
	now        func() time.Time
	log        zerolog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock overrides the time source used for analysis dates.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// NewAnalyzer creates an analyzer over the given tables.
func NewAnalyzer(ranges ReferenceTable, patterns PatternDictionary, opts ...Option) *Analyzer {
	a := &Analyzer{
		extractor:  NewExtractor(patterns),
		classifier: NewClassifier(ranges),
		now:        time.Now,
		log:        logger.WithComponent("medical-analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Default returns an analyzer over the default reference ranges and patterns.
func Default(opts ...Option) *Analyzer {
	return NewAnalyzer(DefaultReferenceTable(), DefaultPatterns(), opts...)
}

// Analyze assesses the medical content of text. It never fails: if any step
// fails the returned result is degraded, with no partial findings and Error set.
func (a *Analyzer) Analyze(text, language string) models.AnalysisResult {
	if language == "" {
		language = DefaultLanguage
	}

	a.log.Debug().
		Str("language", language).
		Int("text_length", len(text)).
		Msg("Analyzing medical content")

	result, err := a.run(text, language)
	if err != nil {
		a.log.Error().
			Err(err).
			Msg("Medical analysis failed")
		return Degraded(err)
	}

	a.log.Info().
		Int("parameters", len(result.Parameters)).
		Int("abnormalities", len(result.Abnormalities)).
		Str("risk_level", string(result.RiskLevel)).
		Msg("Medical analysis completed")

	return result
}

// Degraded builds the result returned when the analysis cannot be completed.
func Degraded(err error) models.AnalysisResult {
	return models.AnalysisResult{
		Parameters:      []models.ParameterReading{},
		Abnormalities:   []models.Abnormality{},
		Summary:         DegradedSummary,
		RiskLevel:       models.RiskUnknown,
		Recommendations: []string{},
		Error:           fmt.Sprintf("Analysis failed: %v", err),
	}
}

// run executes every step and converts panics into errors so Analyze can degrade.
func (a *Analyzer) run(text, language string) (result models.AnalysisResult, err error) {
	const op = "Analyze"

	defer func() {
		if r := recover(); r != nil {
			err = WrapAnalysisError(op, ErrPanic, fmt.Sprint(r))
		}
	}()

	drafts, err := a.extractor.Extract(text)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	parameters := make([]models.ParameterReading, 0, len(drafts))
	for _, d := range drafts {
		parameters = append(parameters, a.classifier.Reading(d))
	}

	abnormalities := CollectAbnormalities(parameters)
	a.log.Debug().Int("abnormalities", len(abnormalities)).Msg("Identified abnormalities")

	return models.AnalysisResult{
		Parameters:      parameters,
		Abnormalities:   abnormalities,
		Summary:         ComposeSummary(parameters),
		RiskLevel:       AssessRisk(abnormalities),
		Recommendations: GenerateRecommendations(abnormalities, language),
		AnalysisDate:    a.now().UTC().Format(TimestampLayout),
	}, nil
}
