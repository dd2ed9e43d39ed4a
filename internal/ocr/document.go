package ocr

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileSizeBytes is the maximum file size for synchronous processing (20MB)
const MaxFileSizeBytes = 20 * 1024 * 1024

// Kind is the broad document type used for routing.
type Kind int

const (
	KindUnknown Kind = iota
	KindPDF
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Document is an uploaded report.
type Document struct {
	Name        string
	ContentType string // optional; detected from name and content when empty
	Data        []byte
}

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
}

// LoadDocument reads a document from disk.
func LoadDocument(path string) (Document, error) {
	const op = "LoadDocument"

	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, WrapOCRError(op, err, path)
	}
	return Document{Name: filepath.Base(path), Data: data}, nil
}

// Size returns the document size in bytes.
func (d Document) Size() int {
	return len(d.Data)
}

// MimeType returns the declared content type, or the one implied by the file
// extension, or the one sniffed from the content.
func (d Document) MimeType() string {
	if d.ContentType != "" {
		return strings.ToLower(d.ContentType)
	}
	ext := strings.ToLower(filepath.Ext(d.Name))
	if ext == ".pdf" {
		return "application/pdf"
	}
	if mime, ok := imageTypes[ext]; ok {
		return mime
	}
	return http.DetectContentType(d.Data)
}

// Kind classifies the document for routing.
func (d Document) Kind() Kind {
	mime := d.MimeType()
	switch {
	case strings.HasPrefix(mime, "application/pdf"):
		return KindPDF
	case mime == "image/png", mime == "image/jpeg", mime == "image/bmp", mime == "image/tiff":
		return KindImage
	default:
		return KindUnknown
	}
}

// Check validates size and format before any processing.
func (d Document) Check() error {
	const op = "Check"

	if len(d.Data) == 0 {
		return WrapOCRError(op, ErrEmptyFile, d.Name)
	}
	if len(d.Data) > MaxFileSizeBytes {
		return WrapOCRError(op, ErrFileTooLarge, fmt.Sprintf("file size: %d bytes", len(d.Data)))
	}

	switch d.Kind() {
	case KindPDF:
		if !bytes.HasPrefix(d.Data, []byte("%PDF")) {
			return WrapOCRError(op, ErrInvalidPDF, "missing PDF header")
		}
	case KindImage:
	default:
		return WrapOCRError(op, ErrUnsupportedFormat, fmt.Sprintf("%s (%s)", d.Name, d.MimeType()))
	}
	return nil
}
