package dedupe

import (
	"fmt"
	"sort"
)

// SetOperator answers set-algebra questions between two volumes'
// indexes: which files on B are missing from A, and which are already
// present. Matching is by (hash value, extension family) under a single
// hash type; paths play no part in it.
type SetOperator struct {
	store Store
}

func NewSetOperator(store Store) *SetOperator {
	return &SetOperator{store: store}
}

// Difference returns the files indexed on volume B whose content does
// not occur anywhere on volume A. pathPrefix, when non-empty, restricts
// both sides to that volume-relative subtree.
func (o *SetOperator) Difference(volumeA, volumeB int64, hashType, pathPrefix string) ([]*FileFingerprint, error) {
	inA, filesB, err := o.load(volumeA, volumeB, hashType, pathPrefix)
	if err != nil {
		return nil, err
	}

	var missing []*FileFingerprint
	for _, fp := range filesB {
		if !inA[contentKey(fp)] {
			missing = append(missing, fp)
		}
	}
	sortByPath(missing)
	return missing, nil
}

// Intersection returns the files indexed on volume B whose content also
// occurs on volume A.
func (o *SetOperator) Intersection(volumeA, volumeB int64, hashType, pathPrefix string) ([]*FileFingerprint, error) {
	inA, filesB, err := o.load(volumeA, volumeB, hashType, pathPrefix)
	if err != nil {
		return nil, err
	}

	var present []*FileFingerprint
	for _, fp := range filesB {
		if inA[contentKey(fp)] {
			present = append(present, fp)
		}
	}
	sortByPath(present)
	return present, nil
}

func (o *SetOperator) load(volumeA, volumeB int64, hashType, pathPrefix string) (map[string]bool, []*FileFingerprint, error) {
	if err := validateHashType(hashType); err != nil {
		return nil, nil, err
	}
	if volumeA == volumeB {
		return nil, nil, fmt.Errorf("set operations need two distinct volumes")
	}

	filesA, err := o.store.ListFingerprints(volumeA, hashType, pathPrefix)
	if err != nil {
		return nil, nil, fmt.Errorf("listing fingerprints for volume %d: %w", volumeA, err)
	}
	filesB, err := o.store.ListFingerprints(volumeB, hashType, pathPrefix)
	if err != nil {
		return nil, nil, fmt.Errorf("listing fingerprints for volume %d: %w", volumeB, err)
	}

	inA := make(map[string]bool, len(filesA))
	for _, fp := range filesA {
		inA[contentKey(fp)] = true
	}
	return inA, filesB, nil
}

func contentKey(fp *FileFingerprint) string {
	return fp.HashValue + "\x00" + FamilyOf(fp.Extension)
}

func sortByPath(fps []*FileFingerprint) {
	sort.Slice(fps, func(i, j int) bool {
		return fps[i].RelativePath < fps[j].RelativePath
	})
}
