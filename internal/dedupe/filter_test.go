package dedupe

import "testing"

func TestPathFilter_IncludeDir(t *testing.T) {
	f := NewPathFilter([]string{"backups/old", "/node_staging/"})

	tests := []struct {
		name    string
		relPath string
		dirName string
		want    bool
	}{
		{"plain directory", "photos", "photos", true},
		{"nested directory", "photos/2024", "2024", true},
		{"version control", "project/.git", ".git", false},
		{"node_modules anywhere", "www/node_modules", "node_modules", false},
		{"recycle bin", "$RECYCLE.BIN", "$RECYCLE.BIN", false},
		{"system volume information", "System Volume Information", "System Volume Information", false},
		{"hidden directory", "photos/.thumbcache", ".thumbcache", false},
		{"mac app bundle", "Applications/Foo.app", "Foo.app", false},
		{"user exclusion", "backups/old", "old", false},
		{"user exclusion with slashes trimmed", "node_staging", "node_staging", false},
		{"sibling of user exclusion", "backups/new", "new", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.IncludeDir(tt.relPath, tt.dirName); got != tt.want {
				t.Errorf("IncludeDir(%q, %q) = %v, want %v", tt.relPath, tt.dirName, got, tt.want)
			}
		})
	}
}

func TestPathFilter_IncludeFile(t *testing.T) {
	f := NewPathFilter(nil)

	tests := []struct {
		name     string
		fileName string
		category string
		size     int64
		want     bool
	}{
		{"normal image", "a.jpg", CategoryImage, 2048, true},
		{"image at minimum size", "a.jpg", CategoryImage, 1024, true},
		{"tiny image is a thumbnail", "thumb.jpg", CategoryImage, 512, false},
		{"tiny video", "clip.mp4", CategoryVideo, 4096, false},
		{"video above minimum", "clip.mp4", CategoryVideo, 20480, true},
		{"small document", "note.txt", CategoryDocument, 150, true},
		{"hidden file", ".DS_Store", CategoryOther, 5000, false},
		{"office temp file", "~$report.docx", CategoryDocument, 5000, false},
		{"windows thumbnail db", "Thumbs.db", CategoryOther, 5000, false},
		{"thumbs.db case-insensitive", "thumbs.DB", CategoryOther, 5000, false},
		{"backup suffix", "photo.jpg.bak", CategoryImage, 5000, false},
		{"unknown category uses other minimum", "blob.xyz", "mystery", 150, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.IncludeFile(tt.fileName, tt.category, tt.size); got != tt.want {
				t.Errorf("IncludeFile(%q, %q, %d) = %v, want %v", tt.fileName, tt.category, tt.size, got, tt.want)
			}
		})
	}
}
