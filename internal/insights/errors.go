package insights

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when a provider has no credentials.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrEmptyResponse is returned when a provider answers without text.
	ErrEmptyResponse = errors.New("provider returned an empty response")
)

// InsightError wraps a provider failure.
type InsightError struct {
	// Provider is the provider that failed (e.g. "gemini").
	Provider string

	// Op is the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *InsightError) Error() string {
	return fmt.Sprintf("insights: %s %s failed: %v", e.Provider, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *InsightError) Unwrap() error {
	return e.Err
}

// Is implements error matching.
func (e *InsightError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapInsightError wraps err as an InsightError unless it already is one.
func WrapInsightError(provider, op string, err error) error {
	if err == nil {
		return nil
	}

	var insightErr *InsightError
	if errors.As(err, &insightErr) {
		return err
	}

	return &InsightError{Provider: provider, Op: op, Err: err}
}
