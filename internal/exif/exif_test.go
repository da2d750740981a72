package exif

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"testing"
	"time"

	"github.com/spf13/afero"

	"dedupe-go/internal/testutil"
)

// tiffWithDateTime builds a minimal little-endian TIFF whose IFD0 holds
// a single ASCII DateTime tag (0x0132).
func tiffWithDateTime(raw string) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian

	buf.WriteString("II")
	binary.Write(&buf, le, uint16(42))
	binary.Write(&buf, le, uint32(8)) // IFD0 offset

	value := append([]byte(raw), 0)
	binary.Write(&buf, le, uint16(1)) // one entry
	binary.Write(&buf, le, uint16(0x0132))
	binary.Write(&buf, le, uint16(2)) // ASCII
	binary.Write(&buf, le, uint32(len(value)))
	binary.Write(&buf, le, uint32(26)) // value offset: 8 + 2 + 12 + 4
	binary.Write(&buf, le, uint32(0))  // no next IFD
	buf.Write(value)

	return buf.Bytes()
}

func TestExtractor_Taken(t *testing.T) {
	fsys := afero.NewMemMapFs()
	testutil.WriteFile(t, fsys, "/photos/a.tif", tiffWithDateTime("2023:05:03 14:22:09"))
	ex := NewExtractor(fsys)

	taken, ok := ex.Taken("/photos/a.tif")
	if !ok {
		t.Fatal("Taken() found no capture date")
	}
	want := time.Date(2023, 5, 3, 14, 22, 9, 0, time.Local)
	if !taken.Equal(want) {
		t.Errorf("Taken() = %v, want %v", taken, want)
	}
}

func TestExtractor_NoMetadata(t *testing.T) {
	fsys := afero.NewMemMapFs()
	ex := NewExtractor(fsys)

	testutil.WriteFile(t, fsys, "/photos/plain.jpg", testutil.JPEGBytes(t, testutil.SolidImage(8, 8, color.Gray{Y: 128}), 80))
	if _, ok := ex.Taken("/photos/plain.jpg"); ok {
		t.Error("Taken() reported a date for a JPEG without metadata")
	}

	if _, ok := ex.Taken("/photos/missing.jpg"); ok {
		t.Error("Taken() reported a date for a missing file")
	}

	testutil.WriteFile(t, fsys, "/photos/garbage.tif", []byte("not a tiff at all"))
	if _, ok := ex.Taken("/photos/garbage.tif"); ok {
		t.Error("Taken() reported a date for garbage bytes")
	}
}
