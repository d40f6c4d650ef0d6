// Package tesseract provides the Tesseract-backed ocr.Reader.
package tesseract

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/pkg/errors"

	"Answer-Evaluation-Backend/internal/ocr"
)

// Reader runs Tesseract through gosseract. A fresh client is created per call
// so concurrent requests never share engine state.
type Reader struct {
	language      string
	clientFactory func() *gosseract.Client
}

// NewReader checks that Tesseract is installed with the requested language
// data. The returned error wraps ocr.ErrOCRUnavailable.
func NewReader(language string) (*Reader, error) {
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil, errors.Wrapf(ocr.ErrOCRUnavailable, "list tesseract languages: %v", err)
	}
	found := false
	for _, l := range langs {
		if l == language {
			found = true
			break
		}
	}
	if !found {
		return nil, errors.Wrapf(ocr.ErrOCRUnavailable, "tesseract language %q not installed (have %s)",
			language, strings.Join(langs, ","))
	}
	return &Reader{language: language, clientFactory: gosseract.NewClient}, nil
}

func (r *Reader) Name() string { return "tesseract" }

// ReadText returns one detection per recognized text line.
func (r *Reader) ReadText(ctx context.Context, imagePath string) ([]ocr.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := r.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(r.language); err != nil {
		return nil, errors.Wrap(err, "set language")
	}
	if err := c.SetImage(imagePath); err != nil {
		return nil, errors.Wrap(err, "set image")
	}
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, errors.Wrap(err, "recognize text")
	}

	detections := make([]ocr.Detection, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		detections = append(detections, ocr.Detection{
			Region: ocr.Region{
				X:      b.Box.Min.X,
				Y:      b.Box.Min.Y,
				Width:  b.Box.Dx(),
				Height: b.Box.Dy(),
			},
			Text:       text,
			Confidence: b.Confidence / 100.0,
		})
	}
	return detections, nil
}
