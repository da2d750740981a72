package dedupe

import (
	"regexp"
	"strings"
)

// Directory names never worth descending into, regardless of volume.
var excludedDirNames = map[string]bool{
	// Version control
	".git": true, ".svn": true, ".hg": true, ".bzr": true,
	// Package managers / dependencies
	"node_modules": true, "__pycache__": true, ".pytest_cache": true,
	".mypy_cache": true, ".tox": true, ".nox": true, ".eggs": true,
	"bower_components": true, "vendor": true,
	// Virtual environments
	"venv": true, ".venv": true, "env": true, ".env": true, "virtualenv": true,
	// OS metadata
	".Trash": true, ".Trashes": true, ".Spotlight-V100": true,
	".fseventsd": true, ".DocumentRevisions-V100": true, ".TemporaryItems": true,
	"$RECYCLE.BIN": true, "System Volume Information": true,
	"lost+found": true,
	// Caches
	".cache": true, "Cache": true, "Caches": true, ".thumbnails": true,
}

// Filename patterns excluded from indexing: hidden files, OS metadata,
// editor and office temp files.
var excludedNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\.`),
	regexp.MustCompile(`(?i)^~\$`),
	regexp.MustCompile(`(?i)\.(tmp|temp|cache|bak|swp|swo)$`),
	regexp.MustCompile(`(?i)^Thumbs\.db$`),
	regexp.MustCompile(`(?i)^desktop\.ini$`),
	regexp.MustCompile(`(?i)^~.*\.tmp$`),
}

// Minimum sizes by category. Smaller files are thumbnails, previews or
// system sounds, not user content.
var minSizeByCategory = map[string]int64{
	CategoryImage:    1024,
	CategoryVideo:    10240,
	CategoryAudio:    1024,
	CategoryDocument: 100,
	CategoryOther:    100,
}

// PathFilter decides which directories are walked and which files are
// considered for indexing. User-managed per-volume exclusions are
// layered on top of the built-in rules.
type PathFilter struct {
	userExcluded map[string]bool // volume-relative directory paths
}

// NewPathFilter builds a filter with the given user-excluded
// volume-relative directories.
func NewPathFilter(userExcluded []string) *PathFilter {
	m := make(map[string]bool, len(userExcluded))
	for _, p := range userExcluded {
		m[strings.Trim(p, "/")] = true
	}
	return &PathFilter{userExcluded: m}
}

// IncludeDir reports whether a directory should be traversed.
// relPath is slash-separated and volume-relative; name is its base name.
func (f *PathFilter) IncludeDir(relPath, name string) bool {
	if excludedDirNames[name] {
		return false
	}
	if strings.HasPrefix(name, ".") && relPath != "" {
		return false
	}
	// App bundles hold application internals, not user files.
	if strings.HasSuffix(name, ".app") || strings.HasSuffix(name, ".egg-info") {
		return false
	}
	if f.userExcluded[strings.Trim(relPath, "/")] {
		return false
	}
	return true
}

// IncludeFile reports whether a file should be considered for indexing.
// The size check uses the category's minimum; files below it are noise.
func (f *PathFilter) IncludeFile(name string, category string, size int64) bool {
	for _, p := range excludedNamePatterns {
		if p.MatchString(name) {
			return false
		}
	}
	min, ok := minSizeByCategory[category]
	if !ok {
		min = minSizeByCategory[CategoryOther]
	}
	return size >= min
}
