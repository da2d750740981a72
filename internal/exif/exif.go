package exif

import (
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/spf13/afero"

	"dedupe-go/internal/dedupe"
)

// Extractor reads the capture date from embedded EXIF metadata.
type Extractor struct {
	fs afero.Fs
}

func NewExtractor(fs afero.Fs) *Extractor {
	return &Extractor{fs: fs}
}

// Taken returns the EXIF capture time of the image at path. The second
// return is false when the file has no parseable capture date, in which
// case callers fall back to the filesystem modification time.
func (e *Extractor) Taken(path string) (time.Time, bool) {
	f, err := e.fs.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	meta, err := goexif.Decode(f)
	if err != nil {
		return time.Time{}, false
	}

	for _, field := range []goexif.FieldName{goexif.DateTimeOriginal, goexif.DateTimeDigitized, goexif.DateTime} {
		tag, err := meta.Get(field)
		if err != nil {
			continue
		}
		raw, err := tag.StringVal()
		if err != nil {
			continue
		}
		if ts, err := time.ParseInLocation("2006:01:02 15:04:05", raw, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Compile-time check that Extractor implements the DateExtractor interface
var _ dedupe.DateExtractor = (*Extractor)(nil)
