package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRule is returned when an extraction rule cannot be applied,
	// e.g. a missing pattern or a capture count that does not match its targets.
	ErrMalformedRule = errors.New("malformed extraction rule")

	// ErrInvalidNumber is returned when a captured group does not parse as a number.
	ErrInvalidNumber = errors.New("captured value is not a number")

	// ErrPanic is returned when a step of the analysis panicked.
	ErrPanic = errors.New("analysis step panicked")
)

// AnalysisError wraps a failure of one analysis step.
type AnalysisError struct {
	// Op is the step that failed (e.g. "Extract", "Classify").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("analysis: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("analysis: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Is implements error matching.
func (e *AnalysisError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapAnalysisError wraps err as an AnalysisError unless it already is one.
func WrapAnalysisError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var analysisErr *AnalysisError
	if errors.As(err, &analysisErr) {
		return err
	}

	return &AnalysisError{Op: op, Err: err, Details: details}
}

// ExtractionMatchError describes a single match that was skipped during extraction.
// It is logged, never returned to callers of Analyze.
type ExtractionMatchError struct {
	Key   string
	Match string
	Err   error
}

// Error implements the error interface.
func (e *ExtractionMatchError) Error() string {
	return fmt.Sprintf("invalid value for %s in %q: %v", e.Key, e.Match, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExtractionMatchError) Unwrap() error {
	return e.Err
}
