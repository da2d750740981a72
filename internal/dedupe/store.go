package dedupe

import (
	"time"

	"dedupe-go/internal/model"
)

// FileFingerprint is one file joined with one of its hashes, as used by
// duplicate grouping and set queries.
type FileFingerprint struct {
	FileID       int64
	VolumeID     int64
	RelativePath string
	FileName     string
	Extension    string
	SizeBytes    int64
	Width        int64
	Height       int64
	IndexedAt    time.Time
	HashType     string
	HashValue    string
}

// ScanResult is one hashed file ready to commit. File and its hashes are
// written atomically: a file never appears with a stale size but an
// updated hash.
type ScanResult struct {
	File     model.File
	Hashes   []model.Hash // FileID is filled in by the store
	Existing bool         // true when replacing a row that was already indexed
}

// UnknownSample records one observation of an extension the policy has
// no opinion on.
type UnknownSample struct {
	Extension string
	VolumeID  int64
	Directory string
	Count     int64
}

// SessionProgress carries counter deltas applied together with a batch.
type SessionProgress struct {
	FilesSeen    int64
	FilesHashed  int64
	FilesAdded   int64
	FilesUpdated int64
	FilesFailed  int64
}

// ScanBatch is the unit of store writes during a scan. A batch commits
// in a single transaction; on failure the whole batch is retried once.
type ScanBatch struct {
	SessionID int64
	Results   []ScanResult
	Failures  []model.ScanFailure
	Unknown   []UnknownSample
	// DeletedPaths are indexed files that vanished from disk; their rows
	// are soft-deleted, fingerprints retained.
	DeletedPaths []string
	// CompletedDirs replaces the session checkpoint when non-nil.
	// A directory is listed only once every result from it has been
	// committed, so resume never leaves gaps.
	CompletedDirs []string
	Progress      SessionProgress
}

// Store is the persistent fingerprint store. All writes during a scan go
// through ApplyScanBatch from a single goroutine; reads may happen
// concurrently from the walk.
type Store interface {
	// Volume identity
	RegisterVolume(identity *VolumeIdentity, seenAt time.Time) (*model.Volume, error)
	FindVolumeByUUID(uuid string) (*model.Volume, error)
	GetVolume(id int64) (*model.Volume, error)
	ListVolumes() ([]*model.Volume, error)
	DeleteVolume(id int64) error

	// Indexed files
	FindFileByPath(volumeID int64, relativePath string) (*model.File, error)
	ListFilesInDir(volumeID int64, dir string) ([]*model.File, error)
	ListFilePaths(volumeID int64, pathPrefix string) ([]string, error)
	MarkFilesDeleted(volumeID int64, relativePaths []string) error
	UpdateFileLocation(fileID int64, volumeID int64, relativePath string) error

	// Fingerprints (volumeID 0 means all volumes)
	ListFingerprints(volumeID int64, hashType string, pathPrefix string) ([]*FileFingerprint, error)

	// Scan sessions
	CreateScanSession(volumeID int64, rootPath string, startedAt time.Time) (*model.ScanSession, error)
	GetScanSession(id int64) (*model.ScanSession, error)
	FindResumableSession(volumeID int64, rootPath string) (*model.ScanSession, error)
	ListScanSessions(volumeID int64, limit int) ([]*model.ScanSession, error)
	FinishScanSession(id int64, status string, errorMessage string, finishedAt time.Time) error
	LoadCheckpoint(sessionID int64) ([]string, error)
	ListScanFailures(sessionID int64) ([]*model.ScanFailure, error)
	ApplyScanBatch(batch *ScanBatch) error

	// Extension bookkeeping
	ListCustomExtensions() ([]*model.CustomExtension, error)
	SetCustomExtension(ext model.CustomExtension) error
	RemoveCustomExtension(extension string) error
	ListUnknownExtensions() ([]*model.UnknownExtension, error)
	ListExtensionSamples(extension string) ([]*model.ExtensionSample, error)

	// User-managed directory exclusions
	AddExcludedPath(volumeID int64, relativePath string, addedAt time.Time) error
	RemoveExcludedPath(volumeID int64, relativePath string) error
	ListExcludedPaths(volumeID int64) ([]*model.ExcludedPath, error)

	CheckMigrations() error
	Close() error
}
