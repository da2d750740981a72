package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"dedupe-go/internal/dedupe"
)

// XDGTrash moves files into the freedesktop.org trash layout:
// files/ holds the payload, info/ holds a .trashinfo sidecar with the
// original path and deletion time, so desktop environments can restore.
type XDGTrash struct {
	fs    afero.Fs
	root  string
	clock dedupe.Clock
}

func NewXDGTrash(fs afero.Fs, clock dedupe.Clock) (*XDGTrash, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("locating home directory: %w", err)
	}
	return NewXDGTrashAt(fs, filepath.Join(home, ".local", "share", "Trash"), clock), nil
}

func NewXDGTrashAt(fs afero.Fs, root string, clock dedupe.Clock) *XDGTrash {
	return &XDGTrash{fs: fs, root: root, clock: clock}
}

// MoveToTrash relocates path into the trash, never overwriting an
// earlier trashed file of the same name.
func (t *XDGTrash) MoveToTrash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if _, err := t.fs.Stat(abs); err != nil {
		return fmt.Errorf("trashing %s: %w", path, err)
	}

	filesDir := filepath.Join(t.root, "files")
	infoDir := filepath.Join(t.root, "info")
	for _, dir := range []string{filesDir, infoDir} {
		if err := t.fs.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating trash directory: %w", err)
		}
	}

	name := t.uniqueName(filesDir, infoDir, filepath.Base(abs))

	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		abs, t.clock.Now().Format("2006-01-02T15:04:05"))
	infoPath := filepath.Join(infoDir, name+".trashinfo")
	if err := afero.WriteFile(t.fs, infoPath, []byte(info), 0o600); err != nil {
		return fmt.Errorf("writing trash info for %s: %w", path, err)
	}

	target := filepath.Join(filesDir, name)
	if err := t.relocate(abs, target); err != nil {
		t.fs.Remove(infoPath)
		return fmt.Errorf("trashing %s: %w", path, err)
	}
	return nil
}

// uniqueName picks a file name unused by both the payload and the info
// sidecar, appending a numeric suffix before the extension on collision.
func (t *XDGTrash) uniqueName(filesDir, infoDir, base string) string {
	taken := func(name string) bool {
		if _, err := t.fs.Stat(filepath.Join(filesDir, name)); err == nil {
			return true
		}
		if _, err := t.fs.Stat(filepath.Join(infoDir, name+".trashinfo")); err == nil {
			return true
		}
		return false
	}
	if !taken(base) {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s.%d%s", stem, i, ext)
		if !taken(name) {
			return name
		}
	}
}

func (t *XDGTrash) relocate(source, target string) error {
	if err := t.fs.Rename(source, target); err == nil {
		return nil
	}
	// Cross-device rename fails; fall back to copy and remove.
	in, err := t.fs.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()
	stat, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := t.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, stat.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		t.fs.Remove(target)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	t.fs.Chtimes(target, time.Now(), stat.ModTime())
	return t.fs.Remove(source)
}

// Compile-time check that XDGTrash implements the TrashService interface
var _ dedupe.TrashService = (*XDGTrash)(nil)
