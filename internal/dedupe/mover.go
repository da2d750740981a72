package dedupe

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"

	"dedupe-go/internal/model"
)

// DateExtractor reads a capture date embedded in a file (EXIF for
// photos). ok is false when the file carries no usable date.
type DateExtractor interface {
	Taken(path string) (t time.Time, ok bool)
}

// MoveRequest asks for a set of indexed files to be relocated onto a
// destination volume, sorted into date directories.
type MoveRequest struct {
	Files      []*FileFingerprint
	SrcMount   string
	DestVolume *model.Volume
	DestMount  string
	DestRoot   string // volume-relative root for the YYYY/MM-DD layout
}

// MoveOutcome is the per-file result of a move.
type MoveOutcome struct {
	FileID int64
	Source string // volume-relative path on the source volume
	Target string // volume-relative path on the destination volume
	Err    error
}

// MoveResult aggregates per-file outcomes. A failed file never stops
// the rest of the batch.
type MoveResult struct {
	Moved  []MoveOutcome
	Failed []MoveOutcome
}

// FileMover relocates files onto a volume's date-directory layout:
// <root>/YYYY/MM-DD, where an existing directory whose name starts with
// "MM-DD" is reused. A year directory that already has "05-03 England
// wedding" receives that day's files there instead of a bare "05-03".
//
// The index rows move with the files: volume and path are updated in
// place, so fingerprints survive the move without rehashing.
type FileMover struct {
	store  Store
	fs     afero.Fs
	dates  DateExtractor
	logger Logger
	clock  Clock
}

func NewFileMover(store Store, fsys afero.Fs, dates DateExtractor, logger Logger, clock Clock) *FileMover {
	return &FileMover{store: store, fs: fsys, dates: dates, logger: logger, clock: clock}
}

func (m *FileMover) MoveToVolume(req MoveRequest) (*MoveResult, error) {
	if req.DestVolume == nil {
		return nil, fmt.Errorf("destination volume required")
	}

	result := &MoveResult{}
	// Date-directory lookups repeat per day; cache the resolution.
	dirCache := make(map[string]string)

	for _, fp := range req.Files {
		outcome := m.moveOne(fp, req, dirCache)
		if outcome.Err != nil {
			m.logger.Warn("move failed", "path", outcome.Source, "error", outcome.Err)
			result.Failed = append(result.Failed, outcome)
		} else {
			m.logger.Info("file moved", "from", outcome.Source, "to", outcome.Target)
			result.Moved = append(result.Moved, outcome)
		}
	}
	return result, nil
}

func (m *FileMover) moveOne(fp *FileFingerprint, req MoveRequest, dirCache map[string]string) MoveOutcome {
	outcome := MoveOutcome{FileID: fp.FileID, Source: fp.RelativePath}

	srcAbs := AbsolutePath(req.SrcMount, fp.RelativePath)

	taken, ok := m.dates.Taken(srcAbs)
	if !ok {
		info, err := m.fs.Stat(srcAbs)
		if err != nil {
			outcome.Err = &FileReadError{Path: srcAbs, Err: err}
			return outcome
		}
		taken = info.ModTime()
	}

	targetDirRel, err := m.resolveDateDir(req, taken, dirCache)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	targetRel := path.Join(targetDirRel, fp.FileName)
	targetAbs := AbsolutePath(req.DestMount, targetRel)
	outcome.Target = targetRel

	if _, err := m.fs.Stat(targetAbs); err == nil {
		outcome.Err = &MoveConflictError{Source: srcAbs, Target: targetAbs}
		return outcome
	}

	if err := m.fs.MkdirAll(AbsolutePath(req.DestMount, targetDirRel), 0755); err != nil {
		outcome.Err = fmt.Errorf("creating %s: %w", targetDirRel, err)
		return outcome
	}

	if err := m.relocate(srcAbs, targetAbs); err != nil {
		outcome.Err = err
		return outcome
	}

	if err := m.store.UpdateFileLocation(fp.FileID, req.DestVolume.ID, targetRel); err != nil {
		outcome.Err = fmt.Errorf("updating index for %s: %w", targetRel, err)
		return outcome
	}
	return outcome
}

// resolveDateDir maps a timestamp to <root>/YYYY/<day dir>, reusing an
// existing directory with the MM-DD prefix when the year directory has
// one.
func (m *FileMover) resolveDateDir(req MoveRequest, taken time.Time, cache map[string]string) (string, error) {
	yearRel := path.Join(req.DestRoot, taken.Format("2006"))
	dayPrefix := taken.Format("01-02")
	cacheKey := yearRel + "/" + dayPrefix

	if dir, ok := cache[cacheKey]; ok {
		return dir, nil
	}

	resolved := path.Join(yearRel, dayPrefix)
	entries, err := afero.ReadDir(m.fs, AbsolutePath(req.DestMount, yearRel))
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() && strings.HasPrefix(entry.Name(), dayPrefix) {
				resolved = path.Join(yearRel, entry.Name())
				break
			}
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("reading %s: %w", yearRel, err)
	}

	cache[cacheKey] = resolved
	return resolved, nil
}

// relocate moves a file, falling back to copy-and-remove when rename
// fails (cross-device moves).
func (m *FileMover) relocate(src, dst string) error {
	if err := m.fs.Rename(src, dst); err == nil {
		return nil
	}

	in, err := m.fs.Open(src)
	if err != nil {
		return &FileReadError{Path: src, Err: err}
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return &FileReadError{Path: src, Err: err}
	}

	out, err := m.fs.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		m.fs.Remove(dst)
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		m.fs.Remove(dst)
		return fmt.Errorf("closing %s: %w", dst, err)
	}

	// Preserve the modification time across the copy.
	if err := m.fs.Chtimes(dst, m.clock.Now(), info.ModTime()); err != nil {
		m.logger.Warn("preserving mtime failed", "path", dst, "error", err)
	}

	if err := m.fs.Remove(src); err != nil {
		return fmt.Errorf("removing %s after copy: %w", src, err)
	}
	return nil
}
