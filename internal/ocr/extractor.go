package ocr

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

const tempProcessedPrefix = "temp_processed_"

// DefaultMaxPixels bounds the decoded size of an upload. Preprocessing holds
// roughly a dozen bytes per pixel.
const DefaultMaxPixels int64 = 1 << 25

// Extractor turns an image file into text. Extract never fails: every error
// and panic is logged and reported as FailurePlaceholder.
type Extractor struct {
	reader    Reader
	maxPixels int64
	logger    *zap.Logger
}

type Option func(*Extractor)

// WithMaxPixels caps width×height of images the extractor will decode.
// Values below 1 keep DefaultMaxPixels.
func WithMaxPixels(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxPixels = n
		}
	}
}

// NewExtractor wraps reader. A nil reader is allowed and makes every
// extraction fail with ErrOCRUnavailable.
func NewExtractor(reader Reader, logger *zap.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		reader:    reader,
		maxPixels: DefaultMaxPixels,
		logger:    logger.With(zap.String("component", "ocr")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Extractor) Available() bool { return e.reader != nil }

// Extract returns the text found in the image at imagePath or the failure
// placeholder.
func (e *Extractor) Extract(ctx context.Context, imagePath string) string {
	return e.ExtractDetailed(ctx, imagePath).Value()
}

// ExtractDetailed is Extract with the failure cause kept.
func (e *Extractor) ExtractDetailed(ctx context.Context, imagePath string) Extraction {
	var (
		text string
		err  error
	)
	var catcher panics.Catcher
	catcher.Try(func() {
		text, err = e.extract(ctx, imagePath)
	})
	if r := catcher.Recovered(); r != nil {
		err = errors.Wrap(r.AsError(), "ocr panicked")
	}

	if err != nil {
		e.logger.Warn("[OCR] text extraction failed", zap.String("path", imagePath), zap.Error(err))
		return Extraction{Err: err}
	}
	return Extraction{Text: text}
}

func (e *Extractor) extract(ctx context.Context, imagePath string) (string, error) {
	if e.reader == nil {
		return "", ErrOCRUnavailable
	}

	mtype, err := mimetype.DetectFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("%w at %s: %v", ErrUndecodableImage, imagePath, err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%w at %s: content is %s", ErrUndecodableImage, imagePath, mtype.String())
	}

	if err := e.checkDimensions(imagePath); err != nil {
		return "", err
	}

	img, err := imaging.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("%w at %s: %v", ErrUndecodableImage, imagePath, err)
	}
	processed := Preprocess(img)

	tempPath := filepath.Join(filepath.Dir(imagePath), tempProcessedPrefix+filepath.Base(imagePath))
	detections, err := e.readPreprocessed(ctx, processed, tempPath)
	if err != nil {
		return "", errors.Wrapf(err, "%s: read preprocessed image", e.reader.Name())
	}

	text := JoinDetections(detections)
	if text != "" {
		return text, nil
	}

	e.logger.Debug("[OCR] nothing found after preprocessing, retrying on original image",
		zap.String("path", imagePath))
	detections, err = e.reader.ReadText(ctx, imagePath)
	if err != nil {
		return "", errors.Wrapf(err, "%s: read original image", e.reader.Name())
	}
	return JoinDetections(detections), nil
}

// checkDimensions reads only the image header, so oversized images are
// rejected before any pixel buffer is allocated.
func (e *Extractor) checkDimensions(imagePath string) error {
	f, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("%w at %s: %v", ErrUndecodableImage, imagePath, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("%w at %s: %v", ErrUndecodableImage, imagePath, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w at %s: empty image %dx%d", ErrUndecodableImage, imagePath, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > e.maxPixels {
		return fmt.Errorf("%w at %s: %dx%d exceeds %d pixels",
			ErrUndecodableImage, imagePath, cfg.Width, cfg.Height, e.maxPixels)
	}
	return nil
}

func (e *Extractor) readPreprocessed(ctx context.Context, img *image.Gray, tempPath string) ([]Detection, error) {
	if err := saveTempPNG(img, tempPath); err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(tempPath) }()
	return e.reader.ReadText(ctx, tempPath)
}

// saveTempPNG always encodes PNG so the temp file does not depend on the
// upload's extension.
func saveTempPNG(img *image.Gray, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create preprocessed image")
	}
	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return errors.Wrap(err, "encode preprocessed image")
	}
	return errors.Wrap(f.Close(), "close preprocessed image")
}
