// Package ocr turns scanned medical reports into plain text.
//
// Documents are routed by kind:
//   - PDF: the embedded text layer is read first (unipdf). When it is missing or
//     too short, the first pages are sent to the configured OCR engine.
//   - Image (PNG, JPEG, BMP, TIFF): the image is resized, converted to grayscale,
//     denoised, contrast-boosted and sharpened, then sent to the engine as PNG.
//
// Engines:
//   - GoogleVisionOCRService: Cloud Vision DOCUMENT_TEXT_DETECTION
//   - DocumentAIOCRService: a Document AI OCR processor
//
// Required Environment Variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_CLOUD_PROJECT / DOCUMENT_AI_PROCESSOR_ID when the Document AI engine is used
//
// Limits:
//   - Maximum file size: 20MB for synchronous processing
//   - Maximum PDF pages sent to an engine: 5
package ocr

import (
	"context"
	"time"
)

// Service extracts text from a document.
type Service interface {
	// ExtractText returns the text of doc. A document without readable text
	// yields an empty Text, not an error.
	ExtractText(ctx context.Context, doc Document) (*OCRResult, error)
}

// Engine is a remote OCR backend.
type Engine interface {
	// Name identifies the engine in results and logs.
	Name() string

	// RecognizeImage reads text from a single encoded image.
	RecognizeImage(ctx context.Context, image []byte, mimeType string) (*OCRResult, error)

	// RecognizePDF reads text from the first maxPages pages of a PDF.
	RecognizePDF(ctx context.Context, pdf []byte, maxPages int) (*OCRResult, error)

	// Close releases the underlying client.
	Close() error
}

// OCRResult contains the results of OCR processing with metadata.
type OCRResult struct {
	// Text is the extracted text content from all pages, concatenated in reading order.
	Text string `json:"text"`

	// Source names what produced the text: "pdf-text", "vision" or "documentai".
	Source string `json:"source"`

	// PageCount is the number of pages that were processed.
	PageCount int `json:"page_count"`

	// Confidence is the average confidence score across all detected text (0.0 to 1.0).
	Confidence float32 `json:"confidence"`

	// ProcessedAt is the timestamp when the OCR processing completed.
	ProcessedAt time.Time `json:"processed_at"`

	// LanguageCodes contains the detected languages in the document.
	LanguageCodes []string `json:"language_codes,omitempty"`

	// ProcessingDuration is how long the OCR processing took.
	ProcessingDuration time.Duration `json:"processing_duration"`
}
