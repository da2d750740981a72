//go:build unix

package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"dedupe-go/internal/dedupe"
)

// UnixProbe resolves volume identity by matching the mount table against
// the kernel's by-uuid device registry. It never invents an identity:
// a device without a filesystem UUID is an error.
type UnixProbe struct {
	// Overridable for tests.
	MountsPath string
	ByUUIDDir  string
	ByLabelDir string
}

func NewUnixProbe() *UnixProbe {
	return &UnixProbe{
		MountsPath: "/proc/self/mounts",
		ByUUIDDir:  "/dev/disk/by-uuid",
		ByLabelDir: "/dev/disk/by-label",
	}
}

type mountEntry struct {
	device     string
	mountPoint string
	filesystem string
}

// Identify returns the identity of the volume backing mountPoint.
func (p *UnixProbe) Identify(mountPoint string) (*dedupe.VolumeIdentity, error) {
	abs, err := filepath.Abs(mountPoint)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", mountPoint, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	entry, err := p.findMount(abs)
	if err != nil {
		return nil, err
	}

	uuid, err := p.deviceUUID(entry.device)
	if err != nil {
		return nil, err
	}

	identity := &dedupe.VolumeIdentity{
		UUID:       uuid,
		Label:      p.deviceLabel(entry.device),
		Filesystem: entry.filesystem,
		IsInternal: isInternalMount(entry.mountPoint),
		MountPoint: entry.mountPoint,
	}
	if identity.Label == "" {
		identity.Label = filepath.Base(entry.mountPoint)
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(abs, &stat); err == nil {
		identity.TotalSizeBytes = int64(stat.Blocks) * stat.Bsize
	}

	return identity, nil
}

// findMount returns the mount table entry whose mount point is the
// longest prefix of path.
func (p *UnixProbe) findMount(path string) (*mountEntry, error) {
	f, err := os.Open(p.MountsPath)
	if err != nil {
		return nil, fmt.Errorf("reading mount table: %w", err)
	}
	defer f.Close()

	var best *mountEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		entry := &mountEntry{
			device:     unescapeMountField(fields[0]),
			mountPoint: unescapeMountField(fields[1]),
			filesystem: fields[2],
		}
		if !strings.HasPrefix(entry.device, "/dev/") {
			continue // tmpfs, proc, overlay and friends
		}
		if path != entry.mountPoint && !strings.HasPrefix(path, strings.TrimSuffix(entry.mountPoint, "/")+"/") {
			continue
		}
		if best == nil || len(entry.mountPoint) > len(best.mountPoint) {
			best = entry
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading mount table: %w", err)
	}
	if best == nil {
		return nil, fmt.Errorf("no block device mounted at or above %s", path)
	}
	return best, nil
}

// deviceUUID finds the filesystem UUID whose by-uuid symlink resolves to
// the same device node.
func (p *UnixProbe) deviceUUID(device string) (string, error) {
	target, err := filepath.EvalSymlinks(device)
	if err != nil {
		target = device
	}

	entries, err := os.ReadDir(p.ByUUIDDir)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", p.ByUUIDDir, err)
	}
	for _, entry := range entries {
		link := filepath.Join(p.ByUUIDDir, entry.Name())
		resolved, err := filepath.EvalSymlinks(link)
		if err != nil {
			continue
		}
		if resolved == target {
			return entry.Name(), nil
		}
	}
	return "", fmt.Errorf("device %s has no filesystem UUID", device)
}

func (p *UnixProbe) deviceLabel(device string) string {
	target, err := filepath.EvalSymlinks(device)
	if err != nil {
		target = device
	}

	entries, err := os.ReadDir(p.ByLabelDir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		link := filepath.Join(p.ByLabelDir, entry.Name())
		resolved, err := filepath.EvalSymlinks(link)
		if err != nil {
			continue
		}
		if resolved == target {
			return unescapeMountField(entry.Name())
		}
	}
	return ""
}

// isInternalMount distinguishes fixed disks from removable media by
// mount location. Removable volumes land under /media, /run/media
// or /mnt.
func isInternalMount(mountPoint string) bool {
	for _, prefix := range []string{"/media/", "/run/media/", "/mnt/"} {
		if strings.HasPrefix(mountPoint, prefix) {
			return false
		}
	}
	return mountPoint != "/media" && mountPoint != "/mnt"
}

// unescapeMountField decodes the octal escapes /proc/self/mounts uses
// for spaces and other special characters (e.g. \040).
func unescapeMountField(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) {
			if code, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(code))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Compile-time check that UnixProbe implements the VolumeProbe interface
var _ dedupe.VolumeProbe = (*UnixProbe)(nil)
