package analysis

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"medscan/internal/logger"
)

// Draft is a reading before classification: name, value and unit only.
type Draft struct {
	Key   string // Reference range key
	Name  string
	Value float64
	Unit  string
}

// Extractor applies a PatternDictionary to free text.
type Extractor struct {
	patterns PatternDictionary
	log      zerolog.Logger
}

// NewExtractor creates an extractor over patterns.
func NewExtractor(patterns PatternDictionary) *Extractor {
	return &Extractor{
		patterns: patterns,
		log:      logger.WithComponent("parameter-extractor"),
	}
}

// Extract returns drafts ordered by rule declaration order, then match position.
// Matches whose captures do not parse as numbers are logged and skipped; a rule
// that cannot be applied at all fails the whole extraction.
func (e *Extractor) Extract(text string) ([]Draft, error) {
	const op = "Extract"

	lower := strings.ToLower(text)
	drafts := make([]Draft, 0)

	for _, rule := range e.patterns.Rules() {
		if err := rule.Validate(); err != nil {
			return nil, WrapAnalysisError(op, err, "")
		}

		for _, loc := range rule.Pattern.FindAllStringSubmatchIndex(lower, -1) {
			matched, err := e.readMatch(rule, lower, loc)
			if err != nil {
				e.log.Warn().
					Err(err).
					Str("parameter", rule.Key).
					Msg("Skipping unparseable match")
				continue
			}
			drafts = append(drafts, matched...)
		}
	}

	e.log.Debug().
		Int("drafts", len(drafts)).
		Int("rules", e.patterns.Len()).
		Msg("Extracted medical parameters")

	return drafts, nil
}

// readMatch converts one match into one draft per target. Either every capture
// parses or the match yields nothing, so paired readings stay paired.
func (e *Extractor) readMatch(rule ExtractionRule, text string, loc []int) ([]Draft, error) {
	drafts := make([]Draft, 0, rule.Arity())

	for i := 0; i < rule.Arity(); i++ {
		target := rule.Targets[i]
		start, end := loc[2*(i+1)], loc[2*(i+1)+1]
		if start < 0 {
			return nil, &ExtractionMatchError{Key: rule.Key, Match: text[loc[0]:loc[1]], Err: ErrInvalidNumber}
		}

		value, err := strconv.ParseFloat(text[start:end], 64)
		if err != nil {
			return nil, &ExtractionMatchError{Key: rule.Key, Match: text[loc[0]:loc[1]], Err: ErrInvalidNumber}
		}

		drafts = append(drafts, Draft{
			Key:   target.Key,
			Name:  target.Name,
			Value: value,
			Unit:  target.Unit,
		})
	}

	return drafts, nil
}
