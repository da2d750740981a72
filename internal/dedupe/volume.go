package dedupe

import (
	"fmt"
	"path/filepath"
	"strings"
)

// VolumeIdentity describes a physical volume as observed at a mount point.
// UUID is the filesystem UUID and is the only field used for identity;
// everything else is informational.
type VolumeIdentity struct {
	UUID           string
	Label          string
	Filesystem     string
	TotalSizeBytes int64
	IsInternal     bool
	MountPoint     string // where the probe found the volume
}

// VolumeProbe resolves the identity of the volume backing a mount point.
type VolumeProbe interface {
	Identify(mountPoint string) (*VolumeIdentity, error)
}

// RelativePath converts an absolute path to a slash-separated path
// relative to the volume mount point. Paths outside the mount point
// are rejected.
func RelativePath(mountPoint, absPath string) (string, error) {
	rel, err := filepath.Rel(mountPoint, absPath)
	if err != nil {
		return "", fmt.Errorf("computing path relative to %s: %w", mountPoint, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("path %s is outside volume mount %s", absPath, mountPoint)
	}
	if rel == "." {
		return "", nil
	}
	return rel, nil
}

// AbsolutePath is the inverse of RelativePath for the same mount point.
func AbsolutePath(mountPoint, relPath string) string {
	if relPath == "" {
		return filepath.Clean(mountPoint)
	}
	return filepath.Join(mountPoint, filepath.FromSlash(relPath))
}
