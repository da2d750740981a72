package dedupe

import "testing"

func TestRelativePath(t *testing.T) {
	tests := []struct {
		name       string
		mountPoint string
		absPath    string
		want       string
		wantErr    bool
	}{
		{"file under mount", "/media/photos", "/media/photos/2024/a.jpg", "2024/a.jpg", false},
		{"mount point itself", "/media/photos", "/media/photos", "", false},
		{"trailing slash on mount", "/media/photos/", "/media/photos/a.jpg", "a.jpg", false},
		{"outside mount", "/media/photos", "/media/other/a.jpg", "", true},
		{"parent of mount", "/media/photos", "/media", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RelativePath(tt.mountPoint, tt.absPath)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("RelativePath() = %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("RelativePath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RelativePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAbsolutePath(t *testing.T) {
	tests := []struct {
		mountPoint string
		relPath    string
		want       string
	}{
		{"/media/photos", "2024/a.jpg", "/media/photos/2024/a.jpg"},
		{"/media/photos", "", "/media/photos"},
		{"/media/photos/", "a.jpg", "/media/photos/a.jpg"},
	}

	for _, tt := range tests {
		if got := AbsolutePath(tt.mountPoint, tt.relPath); got != tt.want {
			t.Errorf("AbsolutePath(%q, %q) = %q, want %q", tt.mountPoint, tt.relPath, got, tt.want)
		}
	}
}

func TestRelativePath_RoundTrip(t *testing.T) {
	mount := "/media/photos"
	for _, rel := range []string{"", "a.jpg", "2024/05-03 wedding/a.jpg"} {
		abs := AbsolutePath(mount, rel)
		got, err := RelativePath(mount, abs)
		if err != nil {
			t.Fatalf("RelativePath(%q) error = %v", abs, err)
		}
		if got != rel {
			t.Errorf("round trip of %q = %q", rel, got)
		}
	}
}
