package ocr

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedReader answers ReadText calls from a queue and records the paths it
// was given.
type scriptedReader struct {
	responses [][]Detection
	err       error
	panicMsg  string
	paths     []string
	tempSeen  []bool
}

func (r *scriptedReader) Name() string { return "scripted" }

func (r *scriptedReader) ReadText(_ context.Context, imagePath string) ([]Detection, error) {
	r.paths = append(r.paths, imagePath)
	_, statErr := os.Stat(imagePath)
	r.tempSeen = append(r.tempSeen, statErr == nil)
	if r.panicMsg != "" {
		panic(r.panicMsg)
	}
	if r.err != nil {
		return nil, r.err
	}
	if len(r.responses) == 0 {
		return nil, nil
	}
	next := r.responses[0]
	r.responses = r.responses[1:]
	return next, nil
}

func writeTestPNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, whitePageWithStroke(32, 24)))
	require.NoError(t, f.Close())
	return path
}

func TestExtractJoinsDetections(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "question.png")
	reader := &scriptedReader{responses: [][]Detection{{
		{Text: "What is"},
		{Text: "2+2 ?"},
	}}}

	text := NewExtractor(reader, zap.NewNop()).Extract(context.Background(), path)
	assert.Equal(t, "What is 2+2 ?", text)

	require.Len(t, reader.paths, 1)
	assert.Equal(t, filepath.Join(dir, "temp_processed_question.png"), reader.paths[0])
	assert.True(t, reader.tempSeen[0], "preprocessed image exists during recognition")
	_, err := os.Stat(reader.paths[0])
	assert.True(t, os.IsNotExist(err), "preprocessed image is removed afterwards")
}

func TestExtractRetriesOriginalWhenEmpty(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), "faint.png")
	reader := &scriptedReader{responses: [][]Detection{
		{{Text: "   "}},
		{{Text: "faint"}, {Text: "strokes"}},
	}}

	text := NewExtractor(reader, zap.NewNop()).Extract(context.Background(), path)
	assert.Equal(t, "faint strokes", text)
	require.Len(t, reader.paths, 2)
	assert.Equal(t, path, reader.paths[1])
}

func TestExtractGenuinelyEmpty(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), "blank.png")
	res := NewExtractor(&scriptedReader{}, zap.NewNop()).ExtractDetailed(context.Background(), path)
	assert.False(t, res.Failed())
	assert.Equal(t, "", res.Value())
}

func TestExtractNeverFails(t *testing.T) {
	dir := t.TempDir()
	good := writeTestPNG(t, dir, "good.png")
	corrupt := filepath.Join(dir, "corrupt.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("definitely not a png"), 0o644))
	truncated := filepath.Join(dir, "truncated.png")
	raw, err := os.ReadFile(good)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(truncated, raw[:len(raw)/2], 0o644))

	cases := []struct {
		name    string
		reader  Reader
		path    string
		wantErr error
	}{
		{"missing file", &scriptedReader{}, filepath.Join(dir, "nope.png"), ErrUndecodableImage},
		{"corrupt file", &scriptedReader{}, corrupt, ErrUndecodableImage},
		{"truncated png", &scriptedReader{}, truncated, ErrUndecodableImage},
		{"no OCR engine", nil, good, ErrOCRUnavailable},
		{"engine error", &scriptedReader{err: errors.New("engine crashed")}, good, nil},
		{"engine panic", &scriptedReader{panicMsg: "segfault-ish"}, good, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewExtractor(tc.reader, zap.NewNop())
			var res Extraction
			assert.NotPanics(t, func() {
				res = e.ExtractDetailed(context.Background(), tc.path)
			})
			assert.True(t, res.Failed())
			assert.Equal(t, FailurePlaceholder, res.Value())
			assert.Equal(t, FailurePlaceholder, e.Extract(context.Background(), tc.path))
			if tc.wantErr != nil {
				assert.ErrorIs(t, res.Err, tc.wantErr)
			}
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), tempProcessedPrefix), "leftover %s", e.Name())
	}
}

// writeHugeHeaderPNG writes a few hundred bytes whose IHDR claims a
// width×height image, so only a header read can size it cheaply.
func writeHugeHeaderPNG(t *testing.T, dir, name string, width, height uint32) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	raw := buf.Bytes()

	// signature(8) | length(4) | "IHDR"(4) | width(4) | height(4) | ... | crc
	binary.BigEndian.PutUint32(raw[16:20], width)
	binary.BigEndian.PutUint32(raw[20:24], height)
	binary.BigEndian.PutUint32(raw[29:33], crc32.ChecksumIEEE(raw[12:29]))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestExtractRejectsOversizedImages(t *testing.T) {
	dir := t.TempDir()

	t.Run("header declares huge dimensions", func(t *testing.T) {
		path := writeHugeHeaderPNG(t, dir, "bomb.png", 100000, 100000)
		reader := &scriptedReader{}

		res := NewExtractor(reader, zap.NewNop()).ExtractDetailed(context.Background(), path)
		assert.True(t, res.Failed())
		assert.ErrorIs(t, res.Err, ErrUndecodableImage)
		assert.Equal(t, FailurePlaceholder, res.Value())
		assert.Empty(t, reader.paths, "engine never sees the image")
	})

	t.Run("configured cap", func(t *testing.T) {
		path := writeTestPNG(t, dir, "page.png") // 32x24
		reader := &scriptedReader{responses: [][]Detection{{{Text: "ok"}}}}

		capped := NewExtractor(reader, zap.NewNop(), WithMaxPixels(32*24-1))
		assert.Equal(t, FailurePlaceholder, capped.Extract(context.Background(), path))
		assert.Empty(t, reader.paths)

		exact := NewExtractor(reader, zap.NewNop(), WithMaxPixels(32*24))
		assert.Equal(t, "ok", exact.Extract(context.Background(), path))
	})

	t.Run("non-positive cap keeps default", func(t *testing.T) {
		e := NewExtractor(nil, zap.NewNop(), WithMaxPixels(0))
		assert.Equal(t, DefaultMaxPixels, e.maxPixels)
	})
}

func TestJoinDetections(t *testing.T) {
	assert.Equal(t, "", JoinDetections(nil))
	assert.Equal(t, "a b", JoinDetections([]Detection{{Text: " a"}, {Text: "b "}}))
}
