package dedupe

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	"github.com/spf13/afero"

	// Registers the webp decoder with image.Decode, which imaging
	// falls back to for formats it has no native support for.
	_ "golang.org/x/image/webp"

	"dedupe-go/internal/model"
)

// HashSet is the result of fingerprinting one file.
type HashSet struct {
	Hashes []model.Hash // ComputedAt and FileID are filled in by the caller
	Width  int64        // pixel dimensions when the file was decoded as an image
	Height int64
}

// Hasher computes content fingerprints. It reads through an afero
// filesystem so tests can run against an in-memory tree.
type Hasher struct {
	fs afero.Fs
}

func NewHasher(fs afero.Fs) *Hasher {
	return &Hasher{fs: fs}
}

// Compute fingerprints the file at path according to strategy.
//
// Pixel strategies hash the decoded pixel data, so two files that differ
// only in metadata (EXIF, color profile blobs) produce equal hashes.
// When an image cannot be decoded, Compute falls back to a whole-file
// hash rather than failing: RAW formats in particular have no decoder
// here, and an exact hash still catches byte-identical copies.
func (h *Hasher) Compute(path string, strategy HashStrategy) (*HashSet, error) {
	switch strategy {
	case StrategyWholeFile:
		sum, err := h.fileMD5(path)
		if err != nil {
			return nil, err
		}
		return &HashSet{Hashes: []model.Hash{{HashType: model.HashExactMD5, HashValue: sum}}}, nil

	case StrategyPixelExact, StrategyPerceptual:
		return h.imageHashes(path, strategy == StrategyPerceptual)

	default:
		return nil, fmt.Errorf("no hash strategy for %s", path)
	}
}

// imageHashes decodes the image once and derives all pixel-based hashes
// from the same decode.
func (h *Hasher) imageHashes(path string, perceptual bool) (*HashSet, error) {
	f, err := h.fs.Open(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		// Not decodable: fall back to an exact hash of the raw bytes.
		sum, err := h.fileMD5(path)
		if err != nil {
			return nil, err
		}
		return &HashSet{Hashes: []model.Hash{{HashType: model.HashExactMD5, HashValue: sum}}}, nil
	}

	// Clone normalizes any decoded image to NRGBA, so the pixel hash is
	// independent of the source format's in-memory representation.
	nrgba := imaging.Clone(img)
	pixelSum := md5.Sum(nrgba.Pix)

	bounds := img.Bounds()
	set := &HashSet{
		Hashes: []model.Hash{
			{HashType: model.HashPixelMD5, HashValue: hex.EncodeToString(pixelSum[:])},
		},
		Width:  int64(bounds.Dx()),
		Height: int64(bounds.Dy()),
	}

	if perceptual {
		ph, err := goimagehash.PerceptionHash(img)
		if err != nil {
			return nil, &FileReadError{Path: path, Err: fmt.Errorf("perceptual hash: %w", err)}
		}
		set.Hashes = append(set.Hashes, model.Hash{
			HashType:  model.HashPerceptualPHash,
			HashValue: fmt.Sprintf("%016x", ph.GetHash()),
		})
	}

	return set, nil
}

// fileMD5 computes the MD5 of the raw file bytes, streaming.
func (h *Hasher) fileMD5(path string) (string, error) {
	f, err := h.fs.Open(path)
	if err != nil {
		return "", &FileReadError{Path: path, Err: err}
	}
	defer f.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", &FileReadError{Path: path, Err: err}
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
