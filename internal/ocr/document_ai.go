package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"medscan/internal/logger"
)

// DocumentAIConfig selects the OCR processor.
type DocumentAIConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// documentProcessor is the part of the Document AI client used here.
type documentProcessor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	Close() error
}

// DocumentAIOCRService implements Engine with a Document AI OCR processor.
type DocumentAIOCRService struct {
	client documentProcessor
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIOCRService creates an engine with credentials from environment.
// Expects: GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS
func NewDocumentAIOCRService(ctx context.Context, config DocumentAIConfig) (*DocumentAIOCRService, error) {
	const op = "NewDocumentAIOCRService"

	if config.ProjectID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT is required")
	}
	if config.ProcessorID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	var clientOptions []option.ClientOption

	// Regional endpoint for everything outside the default location
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return newDocumentAIOCRService(client, config), nil
}

func newDocumentAIOCRService(client documentProcessor, config DocumentAIConfig) *DocumentAIOCRService {
	return &DocumentAIOCRService{
		client: client,
		config: config,
		log:    logger.WithComponent("document-ai"),
	}
}

// Name implements Engine.
func (p *DocumentAIOCRService) Name() string {
	return "documentai"
}

// RecognizeImage processes a single image.
func (p *DocumentAIOCRService) RecognizeImage(ctx context.Context, image []byte, mimeType string) (*OCRResult, error) {
	return p.process(ctx, "RecognizeImage", image, mimeType, 0)
}

// RecognizePDF processes the first maxPages pages of a PDF.
func (p *DocumentAIOCRService) RecognizePDF(ctx context.Context, pdf []byte, maxPages int) (*OCRResult, error) {
	if maxPages > MaxPagesSync {
		return nil, WrapOCRError("RecognizePDF", ErrTooManyPages, fmt.Sprintf("%d pages requested", maxPages))
	}
	return p.process(ctx, "RecognizePDF", pdf, "application/pdf", maxPages)
}

func (p *DocumentAIOCRService) process(ctx context.Context, op string, content []byte, mimeType string, maxPages int) (*OCRResult, error) {
	startTime := time.Now()

	processCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: p.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mimeType,
			},
		},
	}
	if maxPages > 0 {
		pages := make([]int32, 0, maxPages)
		for i := 1; i <= maxPages; i++ {
			pages = append(pages, int32(i))
		}
		req.ProcessOptions = &documentaipb.ProcessOptions{
			PageRange: &documentaipb.ProcessOptions_IndividualPageSelector_{
				IndividualPageSelector: &documentaipb.ProcessOptions_IndividualPageSelector{Pages: pages},
			},
		}
	}

	resp, err := p.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, p.handleProcessingError(op, err)
	}
	if resp.Document == nil {
		return nil, WrapOCRError(op, ErrOCRFailed, "no document in response")
	}

	result := documentResult(resp.Document)
	result.Source = p.Name()
	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	p.log.Debug().
		Int("pages", result.PageCount).
		Int("text_length", len(result.Text)).
		Float32("confidence", result.Confidence).
		Msg("Document AI OCR completed")

	return result, nil
}

func documentResult(doc *documentaipb.Document) *OCRResult {
	var confidenceSum float32
	var confidenceCount int
	languageSet := make(map[string]bool)

	for _, page := range doc.Pages {
		if page.Layout != nil && page.Layout.Confidence > 0 {
			confidenceSum += page.Layout.Confidence
			confidenceCount++
		}
		for _, lang := range page.DetectedLanguages {
			if lang.LanguageCode != "" {
				languageSet[lang.LanguageCode] = true
			}
		}
	}

	result := &OCRResult{
		Text:      doc.Text,
		PageCount: len(doc.Pages),
	}
	if confidenceCount > 0 {
		result.Confidence = confidenceSum / float32(confidenceCount)
	}
	for lang := range languageSet {
		result.LanguageCodes = append(result.LanguageCodes, lang)
	}
	return result
}

// processorName constructs the full processor name for Document AI API.
func (p *DocumentAIOCRService) processorName() string {
	if p.config.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			p.config.ProjectID, p.config.Location, p.config.ProcessorID, p.config.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		p.config.ProjectID, p.config.Location, p.config.ProcessorID)
}

// handleProcessingError converts Document AI errors to OCR errors.
func (p *DocumentAIOCRService) handleProcessingError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return WrapOCRError(op, ErrMissingCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "NOT_FOUND"):
		return WrapOCRError(op, ErrInvalidConfiguration, fmt.Sprintf("processor not found: %s", p.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"):
		return WrapOCRError(op, ErrUnsupportedFormat, "document format not supported or corrupted")
	case strings.Contains(errStr, "context deadline exceeded"):
		return WrapOCRError(op, context.DeadlineExceeded, "processing timeout")
	case strings.Contains(errStr, "context canceled"):
		return WrapOCRError(op, context.Canceled, "processing was canceled")
	default:
		return WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// Close closes the underlying Document AI client.
func (p *DocumentAIOCRService) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
