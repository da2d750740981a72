package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/spf13/afero"
)

// SolidImage returns a w by h image filled with one color.
func SolidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// PNGBytes encodes img as PNG.
func PNGBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

// JPEGBytes encodes img as JPEG at the given quality. Two encodings of
// the same image at the same quality are byte-identical, so tests can
// build exact duplicates too.
func JPEGBytes(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("encoding jpeg: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes content to path on fsys, creating parent directories.
func WriteFile(t *testing.T, fsys afero.Fs, path string, content []byte) {
	t.Helper()
	if err := afero.WriteFile(fsys, path, content, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
