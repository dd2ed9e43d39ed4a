package ocr

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"medscan/internal/logger"
)

// TextLayerReader reads embedded PDF text. *PDFTextExtractor implements it.
type TextLayerReader interface {
	Extract(data []byte) (text string, pages int, err error)
}

// DocumentService routes documents to the text layer or an OCR engine.
type DocumentService struct {
	engine     Engine
	textLayer  TextLayerReader
	preprocess PreprocessOptions
	maxPages   int
	log        zerolog.Logger
}

// DocumentServiceOption configures a DocumentService.
type DocumentServiceOption func(*DocumentService)

// WithTextLayer enables the PDF text-layer fast path.
func WithTextLayer(r TextLayerReader) DocumentServiceOption {
	return func(s *DocumentService) {
		s.textLayer = r
	}
}

// WithPreprocessing overrides the image cleanup settings.
func WithPreprocessing(opts PreprocessOptions) DocumentServiceOption {
	return func(s *DocumentService) {
		s.preprocess = opts
	}
}

// WithMaxPDFPages limits the PDF pages sent to the engine.
func WithMaxPDFPages(n int) DocumentServiceOption {
	return func(s *DocumentService) {
		s.maxPages = n
	}
}

// NewDocumentService creates a service over engine. By default only the first
// PDF page is recognized.
func NewDocumentService(engine Engine, opts ...DocumentServiceOption) *DocumentService {
	s := &DocumentService{
		engine:     engine,
		preprocess: DefaultPreprocessOptions(),
		maxPages:   1,
		log:        logger.WithComponent("ocr"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExtractText implements Service.
func (s *DocumentService) ExtractText(ctx context.Context, doc Document) (*OCRResult, error) {
	const op = "ExtractText"

	if err := doc.Check(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapOCRError(op, err, doc.Name)
	}

	s.log.Info().
		Str("file", doc.Name).
		Str("kind", doc.Kind().String()).
		Int("size", doc.Size()).
		Msg("Extracting text")

	var result *OCRResult
	var err error
	switch doc.Kind() {
	case KindPDF:
		result, err = s.extractPDF(ctx, doc)
	default:
		result, err = s.extractImage(ctx, doc)
	}
	if err != nil {
		return nil, WrapOCRError(op, err, doc.Name)
	}

	s.log.Info().
		Str("file", doc.Name).
		Str("source", result.Source).
		Int("page_count", result.PageCount).
		Int("text_length", len(result.Text)).
		Dur("duration", result.ProcessingDuration).
		Msg("Text extraction completed")

	return result, nil
}

func (s *DocumentService) extractPDF(ctx context.Context, doc Document) (*OCRResult, error) {
	if s.textLayer != nil {
		start := time.Now()
		text, pages, err := s.textLayer.Extract(doc.Data)
		if err == nil {
			now := time.Now()
			return &OCRResult{
				Text:               text,
				Source:             "pdf-text",
				PageCount:          pages,
				Confidence:         1,
				ProcessedAt:        now,
				ProcessingDuration: now.Sub(start),
			}, nil
		}
		if !errors.Is(err, ErrNoTextLayer) {
			s.log.Warn().Err(err).Str("file", doc.Name).Msg("Text layer unreadable, falling back to OCR")
		} else {
			s.log.Debug().Str("file", doc.Name).Msg("No text layer, falling back to OCR")
		}
	}

	if s.engine == nil {
		return nil, ErrInvalidConfiguration
	}
	return s.engine.RecognizePDF(ctx, doc.Data, s.maxPages)
}

func (s *DocumentService) extractImage(ctx context.Context, doc Document) (*OCRResult, error) {
	if s.engine == nil {
		return nil, ErrInvalidConfiguration
	}

	cleaned, err := Preprocess(doc.Data, s.preprocess)
	if err != nil {
		return nil, err
	}
	return s.engine.RecognizeImage(ctx, cleaned, "image/png")
}

// Close releases the engine.
func (s *DocumentService) Close() error {
	if s.engine == nil {
		return nil
	}
	return s.engine.Close()
}
