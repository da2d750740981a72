package dedupe

import "dedupe-go/internal/model"

// HashStrategy selects the fingerprints computed for a file. The set is
// closed: adding a strategy means touching every switch over it.
type HashStrategy int

const (
	// StrategyNone: the file is not fingerprinted (excluded or unknown).
	StrategyNone HashStrategy = iota
	// StrategyWholeFile: a single exact_md5 over the raw bytes.
	StrategyWholeFile
	// StrategyPixelExact: pixel_md5 over decoded pixel data, so files
	// differing only in metadata match.
	StrategyPixelExact
	// StrategyPerceptual: pixel_md5 plus perceptual_phash for visual
	// near-duplicate matching of lossy formats.
	StrategyPerceptual
)

func (s HashStrategy) String() string {
	switch s {
	case StrategyWholeFile:
		return "whole_file"
	case StrategyPixelExact:
		return "pixel_exact"
	case StrategyPerceptual:
		return "perceptual"
	default:
		return "none"
	}
}

// Classification is the classifier's verdict for one extension.
type Classification struct {
	Disposition string // include, exclude, unknown
	Category    string
	Strategy    HashStrategy
}

// Classifier maps file extensions to categories and hash strategies
// under a given extension policy.
type Classifier struct {
	policy *ExtensionPolicy
}

func NewClassifier(policy *ExtensionPolicy) *Classifier {
	return &Classifier{policy: policy}
}

// Policy returns the policy this classifier runs under.
func (c *Classifier) Policy() *ExtensionPolicy { return c.policy }

// Classify determines how a file with the given extension is handled.
// The strategy depends on the extension, not the category: a custom
// included extension that happens to be an image name still gets a
// whole-file hash because nothing guarantees it is decodable.
func (c *Classifier) Classify(ext string) Classification {
	ext = NormalizeExt(ext)
	category, disposition := c.policy.Lookup(ext)
	if disposition != model.DispositionInclude {
		return Classification{Disposition: disposition}
	}

	strategy := StrategyWholeFile
	switch {
	case perceptualImageExts[ext]:
		strategy = StrategyPerceptual
	case exactImageExts[ext]:
		strategy = StrategyPixelExact
	}

	return Classification{
		Disposition: model.DispositionInclude,
		Category:    category,
		Strategy:    strategy,
	}
}

// FamilyOf normalizes an extension to its comparison family. Duplicate
// matching never crosses families: a jpg and a png with equal pixel
// hashes are still distinct files.
func FamilyOf(ext string) string {
	ext = NormalizeExt(ext)
	switch ext {
	case "jpg", "jpeg":
		return "jpg"
	case "tif", "tiff":
		return "tiff"
	case "cr2", "crw", "cr3", "raw":
		return "raw"
	}
	return ext
}
