package model

import "time"

// Volume represents a physical storage device known to the index.
// Identity is the filesystem UUID, never the mount point.
type Volume struct {
	ID             int64
	UUID           string // filesystem UUID (stable across remounts)
	Label          string // human-readable name, informational only
	Filesystem     string // e.g. "ext4", "exfat"
	TotalSizeBytes int64
	IsInternal     bool
	LastMountPoint string // where the volume was mounted when last seen, advisory
	FirstSeenAt    time.Time
	LastSeenAt     time.Time
}

// File represents an indexed file, addressed by volume plus
// volume-relative path.
type File struct {
	ID           int64
	VolumeID     int64  // Foreign key to Volume
	RelativePath string // Slash-separated path relative to the volume mount point
	FileName     string // Base name, kept denormalized for name-based policies
	Extension    string // Lowercase, without leading dot
	SizeBytes    int64
	ModifiedAt   time.Time
	Width        int64 // Pixel width for decoded images, 0 otherwise
	Height       int64 // Pixel height for decoded images, 0 otherwise
	IsDeleted    bool  // Soft delete: row retained, file gone from disk
	IndexedAt    time.Time
}

// Hash is one fingerprint of a file's content. A file carries one row
// per hash type.
type Hash struct {
	ID         int64
	FileID     int64 // Foreign key to File
	HashType   string
	HashValue  string
	ComputedAt time.Time
}

// Hash types. The set is closed: every fingerprint in the store carries
// one of these.
const (
	HashExactMD5        = "exact_md5"        // MD5 over the raw file bytes
	HashPixelMD5        = "pixel_md5"        // MD5 over decoded RGBA pixel data
	HashPerceptualPHash = "perceptual_phash" // 64-bit DCT perceptual hash, hex-encoded
)

// Scan session statuses.
const (
	ScanInProgress = "in_progress"
	ScanCompleted  = "completed"
	ScanFailed     = "failed"
	ScanCancelled  = "cancelled"
)

// ScanSession records one indexing run over a volume (or a subtree of it).
type ScanSession struct {
	ID           int64
	VolumeID     int64
	RootPath     string // Volume-relative subtree root, "" for the whole volume
	Status       string
	StartedAt    time.Time
	FinishedAt   *time.Time
	FilesSeen    int64
	FilesHashed  int64
	FilesAdded   int64
	FilesUpdated int64
	FilesFailed  int64
	ErrorMessage string
}

// ScanFailure is one per-file failure recorded during a session.
// Failures never abort a scan.
type ScanFailure struct {
	ID           int64
	SessionID    int64
	RelativePath string
	Error        string
	FailedAt     time.Time
}

// Extension dispositions.
const (
	DispositionInclude = "include"
	DispositionExclude = "exclude"
	DispositionUnknown = "unknown"
)

// CustomExtension is a user override layered over the built-in
// extension policy.
type CustomExtension struct {
	Extension   string
	Disposition string // "include" or "exclude"
	Category    string // only meaningful for includes
	AddedAt     time.Time
}

// UnknownExtension tracks extensions the policy has no opinion on,
// so the user can review and promote them.
type UnknownExtension struct {
	Extension   string
	Occurrences int64
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

// ExtensionSample records where an unknown extension was observed.
type ExtensionSample struct {
	ID        int64
	Extension string
	VolumeID  int64
	Directory string // Volume-relative directory
	FileCount int64
}

// ExcludedPath is a user-managed per-volume directory exclusion
// honoured by the scan walk.
type ExcludedPath struct {
	ID           int64
	VolumeID     int64
	RelativePath string
	AddedAt      time.Time
}
