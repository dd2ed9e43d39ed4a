package ocr

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// minTextLayerChars is the shortest embedded text accepted instead of OCR.
// Scanned PDFs often carry a few stray characters in their text layer.
const minTextLayerChars = 20

var licenseOnce sync.Once

// PDFTextExtractor reads the embedded text layer of digital PDFs.
type PDFTextExtractor struct {
	maxPages int
}

// NewPDFTextExtractor registers the unidoc metered key and returns an extractor
// limited to the first maxPages pages (0 means all).
func NewPDFTextExtractor(licenseKey string, maxPages int) (*PDFTextExtractor, error) {
	const op = "NewPDFTextExtractor"

	if licenseKey == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "UNIDOC_LICENSE_API_KEY is required for the PDF text layer")
	}

	var err error
	licenseOnce.Do(func() {
		err = license.SetMeteredKey(licenseKey)
	})
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to register unidoc license")
	}

	return &PDFTextExtractor{maxPages: maxPages}, nil
}

// Extract returns the text layer, or ErrNoTextLayer when it is too short to use.
func (p *PDFTextExtractor) Extract(data []byte) (string, int, error) {
	const op = "ExtractTextLayer"

	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", 0, WrapOCRError(op, ErrInvalidPDF, err.Error())
	}

	encrypted, err := reader.IsEncrypted()
	if err != nil {
		return "", 0, WrapOCRError(op, ErrInvalidPDF, "failed checking encryption")
	}
	if encrypted {
		ok, err := reader.Decrypt([]byte(""))
		if err != nil || !ok {
			return "", 0, WrapOCRError(op, ErrInvalidPDF, "PDF is password-protected")
		}
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", 0, WrapOCRError(op, ErrInvalidPDF, "failed to get page count")
	}
	if p.maxPages > 0 && numPages > p.maxPages {
		numPages = p.maxPages
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		text, err := ex.ExtractText()
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	text := sb.String()
	if len(strings.TrimSpace(text)) < minTextLayerChars {
		return "", numPages, WrapOCRError(op, ErrNoTextLayer, fmt.Sprintf("%d characters on %d pages", len(strings.TrimSpace(text)), numPages))
	}
	return text, numPages, nil
}
