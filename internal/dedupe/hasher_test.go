package dedupe

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strconv"
	"testing"

	"github.com/spf13/afero"

	"dedupe-go/internal/model"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// A gradient, so perceptual hashing has structure to work with.
			img.Set(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("encoding jpeg: %v", err)
	}
	return buf.Bytes()
}

func writeTestFile(t *testing.T, fsys afero.Fs, path string, content []byte) {
	t.Helper()
	if err := afero.WriteFile(fsys, path, content, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func hashByType(set *HashSet, hashType string) (string, bool) {
	for _, h := range set.Hashes {
		if h.HashType == hashType {
			return h.HashValue, true
		}
	}
	return "", false
}

func TestHasher_WholeFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	content := []byte("some document content")
	writeTestFile(t, fsys, "/vol/doc.pdf", content)

	h := NewHasher(fsys)
	set, err := h.Compute("/vol/doc.pdf", StrategyWholeFile)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	sum := md5.Sum(content)
	want := hex.EncodeToString(sum[:])
	got, ok := hashByType(set, model.HashExactMD5)
	if !ok || got != want {
		t.Errorf("exact_md5 = %q, want %q", got, want)
	}
	if len(set.Hashes) != 1 {
		t.Errorf("got %d hashes, want 1", len(set.Hashes))
	}
	if set.Width != 0 || set.Height != 0 {
		t.Errorf("dimensions = %dx%d, want 0x0", set.Width, set.Height)
	}
}

func TestHasher_PixelExact(t *testing.T) {
	fsys := afero.NewMemMapFs()
	img := testImage(64, 48)
	writeTestFile(t, fsys, "/vol/a.png", encodePNG(t, img))

	h := NewHasher(fsys)
	set, err := h.Compute("/vol/a.png", StrategyPixelExact)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if _, ok := hashByType(set, model.HashPixelMD5); !ok {
		t.Error("missing pixel_md5 hash")
	}
	if _, ok := hashByType(set, model.HashPerceptualPHash); ok {
		t.Error("pixel-exact strategy produced a perceptual hash")
	}
	if set.Width != 64 || set.Height != 48 {
		t.Errorf("dimensions = %dx%d, want 64x48", set.Width, set.Height)
	}
}

func TestHasher_Perceptual(t *testing.T) {
	fsys := afero.NewMemMapFs()
	img := testImage(64, 64)
	writeTestFile(t, fsys, "/vol/a.jpg", encodeJPEG(t, img, 90))

	h := NewHasher(fsys)
	set, err := h.Compute("/vol/a.jpg", StrategyPerceptual)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if _, ok := hashByType(set, model.HashPixelMD5); !ok {
		t.Error("missing pixel_md5 hash")
	}
	ph, ok := hashByType(set, model.HashPerceptualPHash)
	if !ok {
		t.Fatal("missing perceptual_phash hash")
	}
	if len(ph) != 16 {
		t.Errorf("perceptual hash %q is not 16 hex digits", ph)
	}
}

func TestHasher_PixelHashIgnoresContainer(t *testing.T) {
	// The same decoded pixels through two different byte streams must
	// produce the same pixel hash. Encoding the identical image twice as
	// PNG with different ancillary data simulates a metadata-only edit.
	fsys := afero.NewMemMapFs()
	img := testImage(32, 32)

	plain := encodePNG(t, img)
	writeTestFile(t, fsys, "/vol/plain.png", plain)

	// A tEXt chunk inserted after IHDR changes the bytes, not the pixels.
	withText := insertPNGTextChunk(t, plain)
	writeTestFile(t, fsys, "/vol/tagged.png", withText)

	if bytes.Equal(plain, withText) {
		t.Fatal("test files are byte-identical, nothing is being tested")
	}

	h := NewHasher(fsys)
	setA, err := h.Compute("/vol/plain.png", StrategyPixelExact)
	if err != nil {
		t.Fatalf("Compute(plain) error = %v", err)
	}
	setB, err := h.Compute("/vol/tagged.png", StrategyPixelExact)
	if err != nil {
		t.Fatalf("Compute(tagged) error = %v", err)
	}

	a, _ := hashByType(setA, model.HashPixelMD5)
	b, _ := hashByType(setB, model.HashPixelMD5)
	if a != b {
		t.Errorf("pixel hashes differ for identical pixels: %q vs %q", a, b)
	}
}

// insertPNGTextChunk adds a tEXt chunk right after the IHDR chunk.
func insertPNGTextChunk(t *testing.T, data []byte) []byte {
	t.Helper()
	// 8-byte signature + IHDR: 4 length + 4 type + 13 data + 4 CRC.
	const ihdrEnd = 8 + 25
	if len(data) < ihdrEnd {
		t.Fatal("png too short")
	}

	payload := []byte("Comment\x00edited")
	chunk := make([]byte, 0, 12+len(payload))
	chunk = append(chunk, byte(len(payload)>>24), byte(len(payload)>>16), byte(len(payload)>>8), byte(len(payload)))
	chunk = append(chunk, 't', 'E', 'X', 't')
	chunk = append(chunk, payload...)
	crc := crc32PNG(append([]byte("tEXt"), payload...))
	chunk = append(chunk, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:ihdrEnd]...)
	out = append(out, chunk...)
	out = append(out, data[ihdrEnd:]...)
	return out
}

func crc32PNG(data []byte) uint32 {
	crc := ^uint32(0)
	for _, b := range data {
		crc ^= uint32(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0xedb88320
			} else {
				crc >>= 1
			}
		}
	}
	return ^crc
}

func TestHasher_PerceptualHashIgnoresContainer(t *testing.T) {
	// The perceptual hash is a function of the decoded pixels. Inserting
	// a comment segment changes the byte stream without touching them.
	fsys := afero.NewMemMapFs()
	plain := encodeJPEG(t, testImage(128, 128), 90)
	writeTestFile(t, fsys, "/vol/plain.jpg", plain)

	tagged := insertJPEGComment(t, plain)
	writeTestFile(t, fsys, "/vol/tagged.jpg", tagged)

	if bytes.Equal(plain, tagged) {
		t.Fatal("test files are byte-identical, nothing is being tested")
	}

	h := NewHasher(fsys)
	setA, err := h.Compute("/vol/plain.jpg", StrategyPerceptual)
	if err != nil {
		t.Fatalf("Compute(plain) error = %v", err)
	}
	setB, err := h.Compute("/vol/tagged.jpg", StrategyPerceptual)
	if err != nil {
		t.Fatalf("Compute(tagged) error = %v", err)
	}

	a, ok := hashByType(setA, model.HashPerceptualPHash)
	if !ok {
		t.Fatal("missing perceptual hash")
	}
	if _, err := strconv.ParseUint(a, 16, 64); err != nil || len(a) != 16 {
		t.Fatalf("perceptual hash %q is not 16 hex digits", a)
	}
	b, _ := hashByType(setB, model.HashPerceptualPHash)
	if a != b {
		t.Errorf("perceptual hashes differ for identical pixels: %q vs %q", a, b)
	}
}

// insertJPEGComment adds a COM segment right after the SOI marker.
func insertJPEGComment(t *testing.T, data []byte) []byte {
	t.Helper()
	if len(data) < 2 || data[0] != 0xff || data[1] != 0xd8 {
		t.Fatal("not a jpeg stream")
	}

	payload := []byte("edited")
	seg := []byte{0xff, 0xfe, byte((len(payload) + 2) >> 8), byte(len(payload) + 2)}
	seg = append(seg, payload...)

	out := make([]byte, 0, len(data)+len(seg))
	out = append(out, data[:2]...)
	out = append(out, seg...)
	out = append(out, data[2:]...)
	return out
}

func TestHasher_UndecodableImageFallsBackToExactHash(t *testing.T) {
	// RAW files classify as pixel-exact but have no decoder; the hasher
	// degrades to a whole-file hash instead of failing the file.
	fsys := afero.NewMemMapFs()
	content := []byte("II*\x00 not actually a decodable image")
	writeTestFile(t, fsys, "/vol/shot.cr2", content)

	h := NewHasher(fsys)
	set, err := h.Compute("/vol/shot.cr2", StrategyPixelExact)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	sum := md5.Sum(content)
	want := hex.EncodeToString(sum[:])
	got, ok := hashByType(set, model.HashExactMD5)
	if !ok || got != want {
		t.Errorf("fallback exact_md5 = %q, want %q", got, want)
	}
	if _, ok := hashByType(set, model.HashPixelMD5); ok {
		t.Error("undecodable file produced a pixel hash")
	}
}

func TestHasher_MissingFile(t *testing.T) {
	h := NewHasher(afero.NewMemMapFs())

	_, err := h.Compute("/vol/missing.jpg", StrategyPerceptual)
	if err == nil {
		t.Fatal("Compute() expected error for missing file")
	}
	var readErr *FileReadError
	if !errors.As(err, &readErr) {
		t.Errorf("error = %v, want FileReadError", err)
	}
}
