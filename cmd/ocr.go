package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"medscan/internal/logger"
	"medscan/internal/ocr"
	"medscan/internal/validation"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [file]",
	Short: "Extract text from a scanned report",
	Long: `Extract the text of a PDF or image report.

Images (png, jpg, jpeg, bmp, tiff) are resized, converted to grayscale,
denoised and sharpened before they are sent to the OCR engine. PDFs use the
embedded text layer when UNIDOC_LICENSE_API_KEY is set and fall back to OCR
for the first OCR_PDF_MAX_PAGES pages.

The engine is chosen with OCR_PROVIDER (vision or documentai).

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  # Extract text from a scan to stdout
  medscan ocr blood_test.jpg

  # Save extracted text to file
  medscan ocr report.pdf -o extracted.txt

  # Include metadata and output as JSON
  medscan ocr report.pdf --metadata --json -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	Text               string    `json:"text"`
	Source             string    `json:"source"`
	PageCount          int       `json:"page_count,omitempty"`
	Confidence         float32   `json:"confidence,omitempty"`
	LanguageCodes      []string  `json:"language_codes,omitempty"`
	ProcessedAt        time.Time `json:"processed_at,omitempty"`
	ProcessingDuration string    `json:"processing_duration,omitempty"`
	FileName           string    `json:"file_name"`
	FileSize           int       `json:"file_size"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().BoolP("metadata", "m", false, "Include metadata in output")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	outputPath, _ := cmd.Flags().GetString("output")
	includeMetadata, _ := cmd.Flags().GetBool("metadata")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	path := args[0]

	log.Info().
		Str("file", path).
		Str("output", outputPath).
		Bool("json", jsonOutput).
		Int("timeout", timeoutSecs).
		Msg("Starting OCR processing")

	doc, err := loadDocument(path, log)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	service, err := createOCRService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := service.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close OCR service")
		}
	}()

	result, err := service.ExtractText(ctx, doc)
	if err != nil {
		return handleOCRError(err, log)
	}

	log.Info().
		Str("source", result.Source).
		Int("page_count", result.PageCount).
		Float32("confidence", result.Confidence).
		Dur("duration", result.ProcessingDuration).
		Int("text_length", len(result.Text)).
		Msg("OCR processing completed successfully")

	return writeOutput(formatOCRResult(result, doc, jsonOutput, includeMetadata), outputPath, log)
}

// loadDocument checks the file exists and is a supported report.
func loadDocument(path string, log zerolog.Logger) (ocr.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().Str("file", path).Msg("File not found")
			return ocr.Document{}, fmt.Errorf("file not found: %s", path)
		}
		if os.IsPermission(err) {
			log.Error().Str("file", path).Msg("Permission denied accessing file")
			return ocr.Document{}, fmt.Errorf("permission denied accessing file: %s", path)
		}
		return ocr.Document{}, fmt.Errorf("error accessing file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return ocr.Document{}, fmt.Errorf("path is not a regular file: %s", path)
	}

	doc, err := ocr.LoadDocument(path)
	if err != nil {
		return ocr.Document{}, fmt.Errorf("failed to read file: %w", err)
	}
	if err := doc.Check(); err != nil {
		return ocr.Document{}, handleOCRError(err, log)
	}
	return doc, nil
}

// handleOCRError provides user-friendly error messages for OCR failures
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout or processing a smaller file")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, ocr.ErrFileTooLarge):
		return fmt.Errorf("file is too large (maximum 20MB). Try compressing or splitting the file")
	case errors.Is(err, ocr.ErrEmptyFile):
		return fmt.Errorf("file is empty")
	case errors.Is(err, ocr.ErrUnsupportedFormat):
		return fmt.Errorf("unsupported file format. Use a PDF or a png, jpg, jpeg, bmp or tiff image")
	case errors.Is(err, ocr.ErrTooManyPages):
		return fmt.Errorf("too many PDF pages requested (maximum 5 pages). Lower OCR_PDF_MAX_PAGES")
	case errors.Is(err, ocr.ErrInvalidPDF):
		return fmt.Errorf("invalid or corrupted PDF file. Please check the file integrity")
	case errors.Is(err, ocr.ErrInvalidImage):
		return fmt.Errorf("invalid or corrupted image file. Please check the file integrity")
	case errors.Is(err, ocr.ErrInvalidConfiguration):
		return fmt.Errorf("OCR engine misconfigured: %w", err)
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "auth:") ||
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return fmt.Errorf("Google Cloud authentication failed. Please check GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.\n\nOriginal error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED") ||
		strings.Contains(errStr, "forbidden"):
		return fmt.Errorf("permission denied. Please ensure your Google Cloud service account can use the OCR API")
	case strings.Contains(errStr, "QUOTA_EXCEEDED") ||
		strings.Contains(errStr, "quota"):
		return fmt.Errorf("Google Cloud OCR quota exceeded. Check your project quotas in the Google Cloud Console")
	case errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Errorf("OCR processing failed. This may be due to network issues, API quota limits, or service unavailability: %w", err)
	default:
		return fmt.Errorf("OCR processing failed: %w", err)
	}
}

// formatOCRResult renders the result as text or JSON.
func formatOCRResult(result *ocr.OCRResult, doc ocr.Document, jsonOutput, includeMetadata bool) []byte {
	name := filepath.Base(doc.Name)

	if jsonOutput {
		data, err := marshalJSON(OCROutput{
			Text:               result.Text,
			Source:             result.Source,
			PageCount:          result.PageCount,
			Confidence:         result.Confidence,
			LanguageCodes:      result.LanguageCodes,
			ProcessedAt:        result.ProcessedAt,
			ProcessingDuration: result.ProcessingDuration.String(),
			FileName:           name,
			FileSize:           doc.Size(),
		})
		if err == nil {
			return data
		}
	}

	var output strings.Builder
	if includeMetadata {
		fmt.Fprintf(&output, "=== OCR Results for %s ===\n", name)
		fmt.Fprintf(&output, "File size: %s\n", validation.FormatFileSize(int64(doc.Size())))
		fmt.Fprintf(&output, "Source: %s\n", result.Source)
		if result.PageCount > 0 {
			fmt.Fprintf(&output, "Pages processed: %d\n", result.PageCount)
		}
		if result.Confidence > 0 {
			fmt.Fprintf(&output, "Confidence: %.1f%%\n", result.Confidence*100)
		}
		if len(result.LanguageCodes) > 0 {
			fmt.Fprintf(&output, "Languages: %s\n", strings.Join(result.LanguageCodes, ", "))
		}
		fmt.Fprintf(&output, "Processing time: %v\n", result.ProcessingDuration)
		fmt.Fprintf(&output, "Processed at: %s\n", result.ProcessedAt.Format(time.RFC3339))
		output.WriteString("\n=== Extracted Text ===\n\n")
	}
	output.WriteString(result.Text)
	output.WriteString("\n")
	return []byte(output.String())
}

// isOCRError reports whether err came from the OCR stage.
func isOCRError(err error) bool {
	var ocrErr *ocr.OCRError
	return errors.As(err, &ocrErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
