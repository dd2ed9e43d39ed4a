package ocr

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// MaxPagesSync is the maximum number of pages for synchronous processing
const MaxPagesSync = 5

// imageAnnotator is the part of the Vision client used here.
type imageAnnotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	BatchAnnotateFiles(ctx context.Context, req *visionpb.BatchAnnotateFilesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateFilesResponse, error)
	Close() error
}

// GoogleVisionOCRService implements Engine using Google Cloud Vision API.
type GoogleVisionOCRService struct {
	client imageAnnotator
}

// NewGoogleVisionOCRService creates a new OCR engine with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewGoogleVisionOCRService(ctx context.Context) (*GoogleVisionOCRService, error) {
	const op = "NewGoogleVisionOCRService"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &GoogleVisionOCRService{client: client}, nil
}

// Name implements Engine.
func (g *GoogleVisionOCRService) Name() string {
	return "vision"
}

// RecognizeImage runs document text detection on one image.
func (g *GoogleVisionOCRService) RecognizeImage(ctx context.Context, image []byte, mimeType string) (*OCRResult, error) {
	const op = "RecognizeImage"
	startTime := time.Now()

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return nil, WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	result, err := collectPages(resp.Responses)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to process Vision API response")
	}

	result.Source = g.Name()
	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)
	return result, nil
}

// RecognizePDF runs document text detection on the first maxPages pages of a PDF.
func (g *GoogleVisionOCRService) RecognizePDF(ctx context.Context, pdf []byte, maxPages int) (*OCRResult, error) {
	const op = "RecognizePDF"
	startTime := time.Now()

	if maxPages > MaxPagesSync {
		return nil, WrapOCRError(op, ErrTooManyPages, fmt.Sprintf("%d pages requested", maxPages))
	}
	if maxPages < 1 {
		maxPages = 1
	}

	pages := make([]int32, 0, maxPages)
	for i := 1; i <= maxPages; i++ {
		pages = append(pages, int32(i))
	}

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  pdf,
					MimeType: "application/pdf",
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				Pages: pages,
			},
		},
	}

	resp, err := g.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return nil, WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", fileResp.Error.Message))
	}

	result, err := collectPages(fileResp.Responses)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to process Vision API response")
	}

	result.Source = g.Name()
	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)
	return result, nil
}

// collectPages concatenates page text in order and averages confidence.
func collectPages(pages []*visionpb.AnnotateImageResponse) (*OCRResult, error) {
	var allText strings.Builder
	var confidenceSum float32
	var confidenceCount int
	languageSet := make(map[string]bool)

	for pageIdx, page := range pages {
		if page.Error != nil {
			return nil, fmt.Errorf("%w: page %d: %s", ErrOCRFailed, pageIdx+1, page.Error.Message)
		}
		if page.FullTextAnnotation == nil {
			continue
		}

		if pageIdx > 0 {
			allText.WriteString(fmt.Sprintf("\n\n--- Page %d ---\n\n", pageIdx+1))
		}
		allText.WriteString(page.FullTextAnnotation.Text)

		for _, p := range page.FullTextAnnotation.Pages {
			if p.Confidence > 0 {
				confidenceSum += p.Confidence
				confidenceCount++
			}
			if p.Property == nil {
				continue
			}
			for _, lang := range p.Property.DetectedLanguages {
				if lang.LanguageCode != "" {
					languageSet[lang.LanguageCode] = true
				}
			}
		}
	}

	var avgConfidence float32
	if confidenceCount > 0 {
		avgConfidence = confidenceSum / float32(confidenceCount)
	}

	languages := make([]string, 0, len(languageSet))
	for lang := range languageSet {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	return &OCRResult{
		Text:          allText.String(),
		PageCount:     len(pages),
		Confidence:    avgConfidence,
		LanguageCodes: languages,
	}, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionOCRService) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
