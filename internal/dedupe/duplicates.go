package dedupe

import (
	"fmt"
	"sort"

	"dedupe-go/internal/model"
)

// KeepPolicy selects which member of a duplicate group is kept.
// The verdict is advisory: nothing is deleted by the finder.
type KeepPolicy string

const (
	// KeepLargest keeps the largest file; ties break on pixel count,
	// then earliest indexing time, then path.
	KeepLargest KeepPolicy = "keep_largest"
	// KeepShortestName keeps the file with the shortest name, on the
	// theory that copies accrete suffixes ("photo (1).jpg"). Ties break
	// via KeepLargest.
	KeepShortestName KeepPolicy = "keep_shortest_name"
)

// DuplicateMember is one file in a duplicate group.
type DuplicateMember struct {
	FileFingerprint
	Keep bool
}

// DuplicateGroup is a set of files sharing a fingerprint within one
// extension family. The keeper sorts first.
type DuplicateGroup struct {
	HashType  string
	HashValue string
	Family    string
	Members   []*DuplicateMember
}

// DuplicateStats summarizes a finder run.
type DuplicateStats struct {
	Groups         int
	DuplicateFiles int   // members not kept
	WastedBytes    int64 // reclaimable by removing members not kept
}

// FindOptions scope a duplicate search.
type FindOptions struct {
	HashType        string
	VolumeIDs       []int64 // empty means every volume
	CrossVolumeOnly bool    // only groups spanning at least two volumes
	Policy          KeepPolicy
	PathPrefix      string
}

// DuplicateFinder groups indexed files by fingerprint. Matching never
// crosses hash types or extension families.
type DuplicateFinder struct {
	store Store
}

func NewDuplicateFinder(store Store) *DuplicateFinder {
	return &DuplicateFinder{store: store}
}

func (f *DuplicateFinder) Find(opts FindOptions) ([]*DuplicateGroup, *DuplicateStats, error) {
	if err := validateHashType(opts.HashType); err != nil {
		return nil, nil, err
	}
	policy := opts.Policy
	if policy == "" {
		policy = KeepLargest
	}
	if policy != KeepLargest && policy != KeepShortestName {
		return nil, nil, fmt.Errorf("unknown keep policy %q", policy)
	}

	fingerprints, err := f.collect(opts)
	if err != nil {
		return nil, nil, err
	}

	type groupKey struct {
		value  string
		family string
	}
	byKey := make(map[groupKey][]*FileFingerprint)
	for _, fp := range fingerprints {
		key := groupKey{value: fp.HashValue, family: FamilyOf(fp.Extension)}
		byKey[key] = append(byKey[key], fp)
	}

	var groups []*DuplicateGroup
	stats := &DuplicateStats{}

	for key, members := range byKey {
		if len(members) < 2 {
			continue
		}
		if opts.CrossVolumeOnly && !spansVolumes(members) {
			continue
		}

		sortForKeep(members, policy)

		g := &DuplicateGroup{
			HashType:  opts.HashType,
			HashValue: key.value,
			Family:    key.family,
		}
		for i, fp := range members {
			g.Members = append(g.Members, &DuplicateMember{FileFingerprint: *fp, Keep: i == 0})
			if i > 0 {
				stats.DuplicateFiles++
				stats.WastedBytes += fp.SizeBytes
			}
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Family != groups[j].Family {
			return groups[i].Family < groups[j].Family
		}
		return groups[i].HashValue < groups[j].HashValue
	})
	stats.Groups = len(groups)
	return groups, stats, nil
}

func (f *DuplicateFinder) collect(opts FindOptions) ([]*FileFingerprint, error) {
	if len(opts.VolumeIDs) == 0 {
		fps, err := f.store.ListFingerprints(0, opts.HashType, opts.PathPrefix)
		if err != nil {
			return nil, fmt.Errorf("listing fingerprints: %w", err)
		}
		return fps, nil
	}

	var all []*FileFingerprint
	for _, id := range opts.VolumeIDs {
		fps, err := f.store.ListFingerprints(id, opts.HashType, opts.PathPrefix)
		if err != nil {
			return nil, fmt.Errorf("listing fingerprints for volume %d: %w", id, err)
		}
		all = append(all, fps...)
	}
	return all, nil
}

func spansVolumes(members []*FileFingerprint) bool {
	first := members[0].VolumeID
	for _, m := range members[1:] {
		if m.VolumeID != first {
			return true
		}
	}
	return false
}

// sortForKeep orders members so the keeper is first. Every comparison
// ends in a path tiebreak, so the order is total and deterministic.
func sortForKeep(members []*FileFingerprint, policy KeepPolicy) {
	sort.Slice(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if policy == KeepShortestName && len(a.FileName) != len(b.FileName) {
			return len(a.FileName) < len(b.FileName)
		}
		if a.SizeBytes != b.SizeBytes {
			return a.SizeBytes > b.SizeBytes
		}
		if pa, pb := a.Width*a.Height, b.Width*b.Height; pa != pb {
			return pa > pb
		}
		if !a.IndexedAt.Equal(b.IndexedAt) {
			return a.IndexedAt.Before(b.IndexedAt)
		}
		if a.VolumeID != b.VolumeID {
			return a.VolumeID < b.VolumeID
		}
		return a.RelativePath < b.RelativePath
	})
}

func validateHashType(hashType string) error {
	switch hashType {
	case model.HashExactMD5, model.HashPixelMD5, model.HashPerceptualPHash:
		return nil
	case "":
		return fmt.Errorf("hash type required")
	default:
		return fmt.Errorf("unknown hash type %q", hashType)
	}
}
