package ocr

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// PreprocessOptions controls image cleanup before OCR.
type PreprocessOptions struct {
	MaxHeight int     // images taller than this are scaled down, keeping aspect ratio
	Blur      float64 // gaussian sigma used for denoising; 0 disables
	Contrast  float64 // percentage in [-100, 100]
	Sharpen   float64 // sigma; 0 disables
}

// DefaultPreprocessOptions returns the settings used for scanned lab reports.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		MaxHeight: 1000,
		Blur:      0.6,
		Contrast:  25,
		Sharpen:   1.0,
	}
}

// Preprocess decodes an image and returns a cleaned grayscale PNG.
func Preprocess(data []byte, opts PreprocessOptions) ([]byte, error) {
	const op = "Preprocess"

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, WrapOCRError(op, ErrInvalidImage, err.Error())
	}

	if opts.MaxHeight > 0 && img.Bounds().Dy() > opts.MaxHeight {
		img = imaging.Resize(img, 0, opts.MaxHeight, imaging.Lanczos)
	}

	gray := imaging.Grayscale(img)
	if opts.Blur > 0 {
		gray = imaging.Blur(gray, opts.Blur)
	}
	if opts.Contrast != 0 {
		gray = imaging.AdjustContrast(gray, opts.Contrast)
	}
	if opts.Sharpen > 0 {
		gray = imaging.Sharpen(gray, opts.Sharpen)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to encode %dx%d image", gray.Bounds().Dx(), gray.Bounds().Dy()))
	}
	return buf.Bytes(), nil
}
