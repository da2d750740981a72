package testutil

import (
	"fmt"

	"dedupe-go/internal/dedupe"
)

// StubProbe maps mount points to fixed volume identities.
type StubProbe struct {
	Volumes map[string]*dedupe.VolumeIdentity
}

// NewStubProbe creates a probe answering for a single mount point.
func NewStubProbe(mountPoint, uuid, label string) *StubProbe {
	return &StubProbe{
		Volumes: map[string]*dedupe.VolumeIdentity{
			mountPoint: {
				UUID:           uuid,
				Label:          label,
				Filesystem:     "ext4",
				TotalSizeBytes: 1 << 30,
				IsInternal:     true,
				MountPoint:     mountPoint,
			},
		},
	}
}

// Add registers another mount point.
func (p *StubProbe) Add(mountPoint, uuid, label string) *StubProbe {
	p.Volumes[mountPoint] = &dedupe.VolumeIdentity{
		UUID:           uuid,
		Label:          label,
		Filesystem:     "exfat",
		TotalSizeBytes: 1 << 30,
		MountPoint:     mountPoint,
	}
	return p
}

func (p *StubProbe) Identify(mountPoint string) (*dedupe.VolumeIdentity, error) {
	identity, ok := p.Volumes[mountPoint]
	if !ok {
		return nil, fmt.Errorf("no volume mounted at %s", mountPoint)
	}
	return identity, nil
}
