package dedupe

import (
	"fmt"
	"sort"
	"strings"

	"dedupe-go/internal/model"
)

// File categories.
const (
	CategoryImage    = "image"
	CategoryVideo    = "video"
	CategoryAudio    = "audio"
	CategoryDocument = "document"
	CategoryArchive  = "archive"
	CategoryOther    = "other"
)

// Images hashed perceptually: lossy formats benefit from visual matching.
var perceptualImageExts = map[string]bool{
	"jpg": true, "jpeg": true, "gif": true,
}

// Images hashed on exact pixel content: lossless, high-efficiency and RAW.
var exactImageExts = map[string]bool{
	"png": true, "bmp": true, "webp": true, "tiff": true, "tif": true,
	"heic": true, "heif": true, "avif": true,
	"raw": true, "cr2": true, "crw": true, "cr3": true,
	"nef": true, "nrw": true,
	"arw": true, "srf": true, "sr2": true,
	"raf": true, "orf": true, "rw2": true,
	"pef": true, "ptx": true,
	"dng": true, "x3f": true, "3fr": true, "fff": true,
	"mef": true, "mrw": true,
	"kdc": true, "dcr": true,
	"rwl": true, "iiq": true, "erf": true,
}

var videoExts = map[string]bool{
	"mp4": true, "m4v": true, "mov": true, "avi": true, "mkv": true,
	"wmv": true, "flv": true, "webm": true,
	"mpg": true, "mpeg": true, "m2v": true, "mpe": true,
	"3gp": true, "3g2": true,
	"mts": true, "m2ts": true, "ts": true,
	"vob": true, "ogv": true,
	"rm": true, "rmvb": true, "asf": true, "divx": true, "xvid": true,
}

var audioExts = map[string]bool{
	"mp3": true, "wav": true, "flac": true, "aac": true, "m4a": true,
	"wma": true, "ogg": true, "oga": true,
	"aiff": true, "aif": true, "aifc": true,
	"ape": true, "alac": true, "opus": true,
	"mid": true, "midi": true, "mka": true,
	"ra": true, "ram": true, "wv": true,
}

var documentExts = map[string]bool{
	"pdf": true,
	"doc": true, "docx": true, "docm": true,
	"xls": true, "xlsx": true, "xlsm": true, "xlsb": true,
	"ppt": true, "pptx": true, "pptm": true,
	"odt": true, "ods": true, "odp": true, "odg": true,
	"pages": true, "numbers": true, "keynote": true,
	"txt": true, "rtf": true, "md": true, "markdown": true, "rst": true,
	"csv": true, "tsv": true,
	"json": true, "xml": true, "yaml": true, "yml": true,
	"html": true, "htm": true, "xhtml": true,
	"epub": true, "mobi": true, "azw": true, "azw3": true,
	"tex": true, "latex": true, "ps": true, "eps": true, "xps": true,
}

var archiveExts = map[string]bool{
	"zip": true, "rar": true, "7z": true, "tar": true, "gz": true,
	"bz2": true, "xz": true, "lz": true, "lzma": true,
	"tgz": true, "tbz2": true, "txz": true,
	"cab": true, "arj": true, "lzh": true,
	"iso": true, "dmg": true, "img": true,
}

// Extensions never worth fingerprinting: executables, bytecode,
// databases, locks, temp files.
var excludedExts = map[string]bool{
	"exe": true, "msi": true, "dll": true, "sys": true, "drv": true,
	"ocx": true, "cpl": true, "scr": true,
	"app": true, "pkg": true, "framework": true, "bundle": true,
	"kext": true, "dylib": true,
	"so": true, "a": true, "o": true, "ko": true,
	"deb": true, "rpm": true, "snap": true, "flatpak": true, "appimage": true,
	"pyc": true, "pyo": true, "pyd": true,
	"class": true, "jar": true, "war": true, "ear": true, "beam": true,
	"db": true, "sqlite": true, "sqlite3": true, "db-shm": true, "db-wal": true,
	"mdb": true, "accdb": true, "frm": true, "myd": true, "myi": true,
	"log": true,
	"lock": true, "lck": true,
	"lnk": true, "url": true, "ini": true, "inf": true, "reg": true,
	"tmp": true, "temp": true, "bak": true, "swp": true, "swo": true,
	"map": true,
}

// ExtensionPolicy decides which extensions participate in indexing and
// what category they belong to. It is an explicit, immutable value:
// callers that need different rules build a new policy rather than
// mutating shared state. Version changes whenever the rule set changes,
// so scan sessions can record which rules they ran under.
type ExtensionPolicy struct {
	version string
	byExt   map[string]string // extension -> category
}

// DefaultPolicy returns the built-in extension policy.
func DefaultPolicy() *ExtensionPolicy {
	byExt := make(map[string]string)
	for ext := range perceptualImageExts {
		byExt[ext] = CategoryImage
	}
	for ext := range exactImageExts {
		byExt[ext] = CategoryImage
	}
	for ext := range videoExts {
		byExt[ext] = CategoryVideo
	}
	for ext := range audioExts {
		byExt[ext] = CategoryAudio
	}
	for ext := range documentExts {
		byExt[ext] = CategoryDocument
	}
	for ext := range archiveExts {
		byExt[ext] = CategoryArchive
	}
	return &ExtensionPolicy{version: "builtin-1", byExt: byExt}
}

// WithOverrides layers user-managed include/exclude rules over the policy
// and returns a new policy. Includes with no category are guessed from
// the extension name, defaulting to document.
func (p *ExtensionPolicy) WithOverrides(overrides []model.CustomExtension) *ExtensionPolicy {
	if len(overrides) == 0 {
		return p
	}

	byExt := make(map[string]string, len(p.byExt))
	for ext, cat := range p.byExt {
		byExt[ext] = cat
	}

	// Sort for a stable version string.
	sorted := append([]model.CustomExtension(nil), overrides...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Extension < sorted[j].Extension })

	var tags []string
	for _, o := range sorted {
		ext := NormalizeExt(o.Extension)
		switch o.Disposition {
		case model.DispositionExclude:
			delete(byExt, ext)
			tags = append(tags, "-"+ext)
		case model.DispositionInclude:
			cat := o.Category
			if cat == "" {
				cat = guessCategory(ext)
			}
			byExt[ext] = cat
			tags = append(tags, "+"+ext)
		}
	}

	return &ExtensionPolicy{
		version: fmt.Sprintf("%s(%s)", p.version, strings.Join(tags, ",")),
		byExt:   byExt,
	}
}

// Version identifies the rule set, including any overrides.
func (p *ExtensionPolicy) Version() string { return p.version }

// Lookup returns the category for an extension and whether the policy
// includes it. Extensions on the built-in exclusion list are reported
// as excluded; anything else the policy has no entry for is unknown.
func (p *ExtensionPolicy) Lookup(ext string) (category string, disposition string) {
	ext = NormalizeExt(ext)
	if cat, ok := p.byExt[ext]; ok {
		return cat, model.DispositionInclude
	}
	if excludedExts[ext] {
		return "", model.DispositionExclude
	}
	return "", model.DispositionUnknown
}

// NormalizeExt lowercases an extension and strips a leading dot.
func NormalizeExt(ext string) string {
	return strings.TrimPrefix(strings.ToLower(ext), ".")
}

// guessCategory infers a category for a custom included extension from
// naming hints.
func guessCategory(ext string) string {
	for _, hint := range []string{"img", "pic", "photo", "image"} {
		if strings.Contains(ext, hint) {
			return CategoryImage
		}
	}
	for _, hint := range []string{"vid", "movie", "clip"} {
		if strings.Contains(ext, hint) {
			return CategoryVideo
		}
	}
	for _, hint := range []string{"aud", "sound", "music"} {
		if strings.Contains(ext, hint) {
			return CategoryAudio
		}
	}
	return CategoryDocument
}
