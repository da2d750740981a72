package dedupe

import (
	"testing"

	"dedupe-go/internal/model"
)

func TestDefaultPolicy_Lookup(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		ext             string
		wantCategory    string
		wantDisposition string
	}{
		{"jpg", CategoryImage, model.DispositionInclude},
		{"JPG", CategoryImage, model.DispositionInclude},
		{".jpeg", CategoryImage, model.DispositionInclude},
		{"cr2", CategoryImage, model.DispositionInclude},
		{"mp4", CategoryVideo, model.DispositionInclude},
		{"flac", CategoryAudio, model.DispositionInclude},
		{"pdf", CategoryDocument, model.DispositionInclude},
		{"zip", CategoryArchive, model.DispositionInclude},
		{"exe", "", model.DispositionExclude},
		{"pyc", "", model.DispositionExclude},
		{"log", "", model.DispositionExclude},
		{"xyz", "", model.DispositionUnknown},
		{"", "", model.DispositionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			category, disposition := policy.Lookup(tt.ext)
			if category != tt.wantCategory {
				t.Errorf("category = %q, want %q", category, tt.wantCategory)
			}
			if disposition != tt.wantDisposition {
				t.Errorf("disposition = %q, want %q", disposition, tt.wantDisposition)
			}
		})
	}
}

func TestExtensionPolicy_WithOverrides(t *testing.T) {
	t.Run("include promotes unknown extension", func(t *testing.T) {
		policy := DefaultPolicy().WithOverrides([]model.CustomExtension{
			{Extension: "xcf", Disposition: model.DispositionInclude, Category: CategoryImage},
		})

		category, disposition := policy.Lookup("xcf")
		if disposition != model.DispositionInclude {
			t.Errorf("disposition = %q, want include", disposition)
		}
		if category != CategoryImage {
			t.Errorf("category = %q, want image", category)
		}
	})

	t.Run("include without category guesses from name", func(t *testing.T) {
		policy := DefaultPolicy().WithOverrides([]model.CustomExtension{
			{Extension: "myimg", Disposition: model.DispositionInclude},
			{Extension: "oldvid", Disposition: model.DispositionInclude},
			{Extension: "notes2", Disposition: model.DispositionInclude},
		})

		if cat, _ := policy.Lookup("myimg"); cat != CategoryImage {
			t.Errorf("myimg category = %q, want image", cat)
		}
		if cat, _ := policy.Lookup("oldvid"); cat != CategoryVideo {
			t.Errorf("oldvid category = %q, want video", cat)
		}
		if cat, _ := policy.Lookup("notes2"); cat != CategoryDocument {
			t.Errorf("notes2 category = %q, want document", cat)
		}
	})

	t.Run("exclude demotes builtin extension", func(t *testing.T) {
		policy := DefaultPolicy().WithOverrides([]model.CustomExtension{
			{Extension: "gif", Disposition: model.DispositionExclude},
		})

		_, disposition := policy.Lookup("gif")
		if disposition == model.DispositionInclude {
			t.Error("excluded gif still included")
		}
	})

	t.Run("original policy is untouched", func(t *testing.T) {
		base := DefaultPolicy()
		base.WithOverrides([]model.CustomExtension{
			{Extension: "jpg", Disposition: model.DispositionExclude},
		})

		if _, disposition := base.Lookup("jpg"); disposition != model.DispositionInclude {
			t.Error("override mutated the base policy")
		}
	})

	t.Run("version records overrides", func(t *testing.T) {
		policy := DefaultPolicy().WithOverrides([]model.CustomExtension{
			{Extension: "xcf", Disposition: model.DispositionInclude},
			{Extension: "gif", Disposition: model.DispositionExclude},
		})

		want := "builtin-1(-gif,+xcf)"
		if policy.Version() != want {
			t.Errorf("Version() = %q, want %q", policy.Version(), want)
		}
	})

	t.Run("no overrides returns same policy", func(t *testing.T) {
		base := DefaultPolicy()
		if base.WithOverrides(nil) != base {
			t.Error("empty overrides should return the policy unchanged")
		}
	})
}

func TestNormalizeExt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"JPG", "jpg"},
		{".png", "png"},
		{".TIFF", "tiff"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeExt(tt.in); got != tt.want {
			t.Errorf("NormalizeExt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
