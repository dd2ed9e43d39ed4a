package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Target names the reading produced by one capture group of a rule.
type Target struct {
	Key  string // Reference range key used for classification
	Name string // Display name of the reading
	Unit string // Display unit; empty means "take it from the reference range"
}

// ExtractionRule is one text pattern for a parameter. Each capture group of Pattern
// yields one reading, in the order of Targets.
type ExtractionRule struct {
	Key     string
	Pattern *regexp.Regexp
	Targets []Target
}

// Arity returns the number of readings one match produces.
func (r ExtractionRule) Arity() int {
	return len(r.Targets)
}

// Validate checks that the rule can be applied.
func (r ExtractionRule) Validate() error {
	if r.Pattern == nil {
		return fmt.Errorf("%w: %s has no pattern", ErrMalformedRule, r.Key)
	}
	if r.Arity() == 0 {
		return fmt.Errorf("%w: %s has no targets", ErrMalformedRule, r.Key)
	}
	if groups := r.Pattern.NumSubexp(); groups != r.Arity() {
		return fmt.Errorf("%w: %s captures %d groups for %d targets", ErrMalformedRule, r.Key, groups, r.Arity())
	}
	return nil
}

// PatternDictionary is the ordered list of extraction rules. Rules are applied in
// declaration order and are not mutually exclusive.
type PatternDictionary struct {
	rules []ExtractionRule
}

// NewPatternDictionary copies rules into an immutable dictionary.
func NewPatternDictionary(rules ...ExtractionRule) PatternDictionary {
	copied := make([]ExtractionRule, len(rules))
	copy(copied, rules)
	return PatternDictionary{rules: copied}
}

// Rules returns a copy of the rules in declaration order.
func (d PatternDictionary) Rules() []ExtractionRule {
	rules := make([]ExtractionRule, len(d.rules))
	copy(rules, d.rules)
	return rules
}

// Len returns the number of rules.
func (d PatternDictionary) Len() int {
	return len(d.rules)
}

// Validate checks every rule and returns the first problem found.
func (d PatternDictionary) Validate() error {
	for _, rule := range d.rules {
		if err := rule.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultPatterns returns the lab report patterns. Keys are declared in the order
// hemoglobin, glucose, cholesterol, blood_pressure, creatinine, urea, bilirubin.
func DefaultPatterns() PatternDictionary {
	var rules []ExtractionRule

	single := func(key string, patterns ...string) {
		for _, p := range patterns {
			rules = append(rules, ExtractionRule{
				Key:     key,
				Pattern: regexp.MustCompile(`(?i)` + p),
				Targets: []Target{{Key: key, Name: DisplayName(key)}},
			})
		}
	}

	bloodPressure := []Target{
		{Key: "systolic_bp", Name: "Systolic BP", Unit: "mmHg"},
		{Key: "diastolic_bp", Name: "Diastolic BP", Unit: "mmHg"},
	}
	paired := func(key string, patterns ...string) {
		for _, p := range patterns {
			rules = append(rules, ExtractionRule{
				Key:     key,
				Pattern: regexp.MustCompile(`(?i)` + p),
				Targets: bloodPressure,
			})
		}
	}

	single("hemoglobin",
		`h[ae]moglobin[:\s]*(\d+\.?\d*)\s*g/dl`,
		`hb[:\s]*(\d+\.?\d*)\s*g/dl`,
	)
	single("glucose",
		`glucose[:\s]*(\d+\.?\d*)\s*mg/dl`,
		`sugar[:\s]*(\d+\.?\d*)\s*mg/dl`,
		`blood\s+sugar[:\s]*(\d+\.?\d*)\s*mg/dl`,
	)
	single("cholesterol",
		`cholesterol[:\s]*(\d+\.?\d*)\s*mg/dl`,
		`total\s+cholesterol[:\s]*(\d+\.?\d*)\s*mg/dl`,
	)
	paired("blood_pressure",
		`bp[:\s]*(\d+)/(\d+)\s*mmhg`,
		`blood\s+pressure[:\s]*(\d+)/(\d+)\s*mmhg`,
	)
	single("creatinine",
		`creatinine[:\s]*(\d+\.?\d*)\s*mg/dl`,
		`serum\s+creatinine[:\s]*(\d+\.?\d*)\s*mg/dl`,
	)
	single("urea",
		`urea[:\s]*(\d+\.?\d*)\s*mg/dl`,
		`blood\s+urea[:\s]*(\d+\.?\d*)\s*mg/dl`,
	)
	single("bilirubin",
		`bilirubin[:\s]*(\d+\.?\d*)\s*mg/dl`,
		`total\s+bilirubin[:\s]*(\d+\.?\d*)\s*mg/dl`,
	)

	return NewPatternDictionary(rules...)
}

// DisplayName turns a parameter key into its display name ("serum_iron" -> "Serum Iron").
func DisplayName(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}
