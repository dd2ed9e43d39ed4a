package ocr

import (
	"errors"
	"fmt"
)

// Common OCR processing errors
var (
	// ErrFileTooLarge is returned when the document exceeds the maximum file size limit.
	// Google Cloud Vision API has a 20MB limit for synchronous processing.
	ErrFileTooLarge = errors.New("file size exceeds the maximum limit (20MB)")

	// ErrUnsupportedFormat is returned for documents that are neither a PDF nor a supported image.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyFile is returned when the document has no content.
	ErrEmptyFile = errors.New("document is empty")

	// ErrInvalidPDF is returned when the provided data is not a valid PDF document.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrInvalidImage is returned when image data cannot be decoded.
	ErrInvalidImage = errors.New("invalid or corrupted image")

	// ErrNoTextLayer is returned by the PDF text extractor when a PDF has no usable embedded text.
	ErrNoTextLayer = errors.New("PDF has no embedded text layer")

	// ErrOCRFailed is returned when the OCR engine fails to process the document.
	ErrOCRFailed = errors.New("OCR processing failed")

	// ErrMissingCredentials is returned when neither GOOGLE_APPLICATION_CREDENTIALS
	// nor GOOGLE_CREDENTIALS environment variables are configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")

	// ErrInvalidConfiguration is returned when an engine is missing required settings.
	ErrInvalidConfiguration = errors.New("invalid OCR configuration")

	// ErrTooManyPages is returned when more pages are requested than synchronous processing allows.
	ErrTooManyPages = errors.New("too many pages requested (maximum 5 pages for synchronous processing)")
)

// OCRError wraps errors with additional context about the OCR processing failure.
type OCRError struct {
	// Op is the operation that failed (e.g., "ExtractText", "RecognizePDF").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *OCRError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *OCRError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewOCRError creates a new OCRError with the specified operation and underlying error.
func NewOCRError(op string, err error, details string) *OCRError {
	return &OCRError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapOCRError wraps an error as an OCRError if it isn't already one.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err // Already wrapped
	}

	return NewOCRError(op, err, details)
}
