// Package ocr extracts plain text from answer images. Recognition itself is
// delegated to a Reader; this package owns preprocessing, the retry on the
// original image and the never-fail contract of Extractor.
package ocr

import (
	"context"
	"errors"
	"strings"
)

// FailurePlaceholder is returned in place of text whenever extraction fails.
const FailurePlaceholder = "Text extraction failed. Please enter text manually."

var (
	ErrOCRUnavailable   = errors.New("OCR engine is not available")
	ErrUndecodableImage = errors.New("could not read image")
)

// Region is a detected text box in pixel coordinates.
type Region struct {
	X, Y, Width, Height int
}

type Detection struct {
	Region     Region
	Text       string
	Confidence float64
}

// Reader recognizes text in the image stored at imagePath. Detections are
// returned in the engine's reading order.
type Reader interface {
	Name() string
	ReadText(ctx context.Context, imagePath string) ([]Detection, error)
}

// JoinDetections concatenates detection texts with single spaces and trims
// the result.
func JoinDetections(detections []Detection) string {
	parts := make([]string, 0, len(detections))
	for _, d := range detections {
		parts = append(parts, d.Text)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Extraction is the detailed outcome of one extraction. Err is nil for
// genuine results, including genuinely empty ones.
type Extraction struct {
	Text string
	Err  error
}

func (e Extraction) Failed() bool { return e.Err != nil }

// Value is the text callers see: the recognized text, or the placeholder.
func (e Extraction) Value() string {
	if e.Err != nil {
		return FailurePlaceholder
	}
	return e.Text
}
