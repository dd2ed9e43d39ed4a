package speech

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when no TTS credentials are set.
	ErrNotConfigured = errors.New("speech synthesis not configured")

	// ErrEmptyText is returned when there is nothing to speak.
	ErrEmptyText = errors.New("no text to synthesize")

	// ErrStorageFailed is returned when rendered audio cannot be stored.
	ErrStorageFailed = errors.New("failed to store audio")
)

// SpeechError wraps a synthesis failure.
type SpeechError struct {
	Op      string
	Err     error
	Details string
}

// Error implements the error interface.
func (e *SpeechError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("speech: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("speech: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *SpeechError) Unwrap() error {
	return e.Err
}

// Is implements error matching.
func (e *SpeechError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapSpeechError wraps err as a SpeechError unless it already is one.
func WrapSpeechError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var speechErr *SpeechError
	if errors.As(err, &speechErr) {
		return err
	}

	return &SpeechError{Op: op, Err: err, Details: details}
}
