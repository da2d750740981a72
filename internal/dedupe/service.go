package dedupe

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"dedupe-go/internal/model"
)

// Service is the orchestration layer that coordinates the scan engine,
// duplicate finder, set operator and mover for the operations the CLI
// needs. All dependencies come in through interfaces so tests can stub
// the store, probe and filesystem.
type Service struct {
	store  Store
	engine *ScanEngine
	finder *DuplicateFinder
	sets   *SetOperator
	mover  *FileMover
	trash  TrashService
	probe  VolumeProbe
	fs     afero.Fs
	logger Logger
	clock  Clock
}

func NewService(store Store, engine *ScanEngine, finder *DuplicateFinder, sets *SetOperator, mover *FileMover, trash TrashService, probe VolumeProbe, fsys afero.Fs, logger Logger, clock Clock) *Service {
	return &Service{
		store:  store,
		engine: engine,
		finder: finder,
		sets:   sets,
		mover:  mover,
		trash:  trash,
		probe:  probe,
		fs:     fsys,
		logger: logger,
		clock:  clock,
	}
}

// Scan indexes the volume mounted at mountPoint, optionally restricted
// to a volume-relative subtree.
func (s *Service) Scan(ctx context.Context, mountPoint, subPath string) (*ScanReport, error) {
	return s.engine.Scan(ctx, mountPoint, ScanOptions{SubPath: subPath})
}

// ResumeSession continues an interrupted scan session.
func (s *Service) ResumeSession(ctx context.Context, sessionID int64, mountPoint string) (*ScanReport, error) {
	return s.engine.Resume(ctx, sessionID, mountPoint)
}

// ResolveVolume turns a user-supplied reference into a known volume.
// The reference is either a volume UUID or a mount point, which is
// probed for its identity.
func (s *Service) ResolveVolume(ref string) (*model.Volume, error) {
	vol, err := s.store.FindVolumeByUUID(ref)
	if err != nil {
		return nil, fmt.Errorf("looking up volume: %w", err)
	}
	if vol != nil {
		return vol, nil
	}

	if info, err := s.fs.Stat(ref); err == nil && info.IsDir() {
		identity, err := s.probe.Identify(ref)
		if err != nil {
			return nil, &VolumeIdentityError{MountPoint: ref, Err: err}
		}
		vol, err = s.store.FindVolumeByUUID(identity.UUID)
		if err != nil {
			return nil, fmt.Errorf("looking up volume: %w", err)
		}
		if vol != nil {
			return vol, nil
		}
		return nil, fmt.Errorf("volume %s at %s has never been scanned", identity.UUID, ref)
	}

	return nil, fmt.Errorf("unknown volume %q (not a UUID in the index, not a mount point)", ref)
}

// ListVolumes returns every volume known to the index.
func (s *Service) ListVolumes() ([]*model.Volume, error) {
	return s.store.ListVolumes()
}

// ForgetVolume removes a volume and everything indexed on it.
func (s *Service) ForgetVolume(ref string) error {
	vol, err := s.ResolveVolume(ref)
	if err != nil {
		return err
	}
	if err := s.store.DeleteVolume(vol.ID); err != nil {
		return fmt.Errorf("deleting volume %s: %w", vol.UUID, err)
	}
	s.logger.Info("volume forgotten", "uuid", vol.UUID)
	return nil
}

// ListSessions returns recent scan sessions, newest first. volumeRef may
// be empty for all volumes.
func (s *Service) ListSessions(volumeRef string, limit int) ([]*model.ScanSession, error) {
	var volumeID int64
	if volumeRef != "" {
		vol, err := s.ResolveVolume(volumeRef)
		if err != nil {
			return nil, err
		}
		volumeID = vol.ID
	}
	return s.store.ListScanSessions(volumeID, limit)
}

// SessionFailures returns the per-file failure log of a session.
func (s *Service) SessionFailures(sessionID int64) ([]*model.ScanFailure, error) {
	return s.store.ListScanFailures(sessionID)
}

// FindDuplicates runs the duplicate finder over the given volume
// references (all volumes when empty).
func (s *Service) FindDuplicates(volumeRefs []string, hashType string, policy KeepPolicy, crossVolumeOnly bool) ([]*DuplicateGroup, *DuplicateStats, error) {
	var ids []int64
	for _, ref := range volumeRefs {
		vol, err := s.ResolveVolume(ref)
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, vol.ID)
	}
	return s.finder.Find(FindOptions{
		HashType:        hashType,
		VolumeIDs:       ids,
		CrossVolumeOnly: crossVolumeOnly,
		Policy:          policy,
	})
}

// TrashFiles moves the given indexed files to the trash and soft-deletes
// their rows. Only files on the volume mounted at mountPoint are
// touched: paths from other volumes would resolve to unrelated files
// under this mount, so they are skipped. Failures are per-file.
func (s *Service) TrashFiles(mountPoint string, files []*FileFingerprint) (int, error) {
	if s.trash == nil {
		return 0, fmt.Errorf("no trash service configured")
	}

	identity, err := s.probe.Identify(mountPoint)
	if err != nil {
		return 0, &VolumeIdentityError{MountPoint: mountPoint, Err: err}
	}
	vol, err := s.store.FindVolumeByUUID(identity.UUID)
	if err != nil {
		return 0, fmt.Errorf("looking up volume: %w", err)
	}
	if vol == nil {
		return 0, fmt.Errorf("volume %s at %s has never been scanned", identity.UUID, mountPoint)
	}

	var trashed []string
	for _, fp := range files {
		if fp.VolumeID != vol.ID {
			s.logger.Warn("skipping file on another volume",
				"path", fp.RelativePath, "volume", fp.VolumeID, "mounted", vol.ID)
			continue
		}
		abs := AbsolutePath(mountPoint, fp.RelativePath)
		if err := s.trash.MoveToTrash(abs); err != nil {
			s.logger.Warn("trashing failed", "path", abs, "error", err)
			continue
		}
		trashed = append(trashed, fp.RelativePath)
	}

	if len(trashed) > 0 {
		if err := s.store.MarkFilesDeleted(vol.ID, trashed); err != nil {
			return len(trashed), fmt.Errorf("marking trashed files deleted: %w", err)
		}
	}
	return len(trashed), nil
}

// Difference returns files on volume B missing from volume A.
func (s *Service) Difference(refA, refB, hashType, pathPrefix string) ([]*FileFingerprint, error) {
	volA, volB, err := s.resolvePair(refA, refB)
	if err != nil {
		return nil, err
	}
	return s.sets.Difference(volA.ID, volB.ID, hashType, pathPrefix)
}

// Intersection returns files on volume B whose content also exists on
// volume A.
func (s *Service) Intersection(refA, refB, hashType, pathPrefix string) ([]*FileFingerprint, error) {
	volA, volB, err := s.resolvePair(refA, refB)
	if err != nil {
		return nil, err
	}
	return s.sets.Intersection(volA.ID, volB.ID, hashType, pathPrefix)
}

// MoveNewFiles moves the files present on the source volume but missing
// from the destination onto the destination's date-directory layout.
// Both volumes must be mounted.
func (s *Service) MoveNewFiles(srcMount, destMount, hashType, pathPrefix, destRoot string) (*MoveResult, error) {
	srcIdentity, err := s.probe.Identify(srcMount)
	if err != nil {
		return nil, &VolumeIdentityError{MountPoint: srcMount, Err: err}
	}
	destIdentity, err := s.probe.Identify(destMount)
	if err != nil {
		return nil, &VolumeIdentityError{MountPoint: destMount, Err: err}
	}

	srcVol, destVol, err := s.resolvePair(srcIdentity.UUID, destIdentity.UUID)
	if err != nil {
		return nil, err
	}

	missing, err := s.sets.Difference(destVol.ID, srcVol.ID, hashType, pathPrefix)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return &MoveResult{}, nil
	}

	return s.mover.MoveToVolume(MoveRequest{
		Files:      missing,
		SrcMount:   srcMount,
		DestVolume: destVol,
		DestMount:  destMount,
		DestRoot:   destRoot,
	})
}

func (s *Service) resolvePair(refA, refB string) (*model.Volume, *model.Volume, error) {
	volA, err := s.ResolveVolume(refA)
	if err != nil {
		return nil, nil, err
	}
	volB, err := s.ResolveVolume(refB)
	if err != nil {
		return nil, nil, err
	}
	if volA.ID == volB.ID {
		return nil, nil, fmt.Errorf("both references resolve to volume %s", volA.UUID)
	}
	return volA, volB, nil
}

// Extension policy management

func (s *Service) ListCustomExtensions() ([]*model.CustomExtension, error) {
	return s.store.ListCustomExtensions()
}

// IncludeExtension promotes an extension to included, optionally with an
// explicit category.
func (s *Service) IncludeExtension(ext, category string) error {
	return s.store.SetCustomExtension(model.CustomExtension{
		Extension:   NormalizeExt(ext),
		Disposition: model.DispositionInclude,
		Category:    category,
		AddedAt:     s.clock.Now(),
	})
}

// ExcludeExtension removes an extension from indexing.
func (s *Service) ExcludeExtension(ext string) error {
	return s.store.SetCustomExtension(model.CustomExtension{
		Extension:   NormalizeExt(ext),
		Disposition: model.DispositionExclude,
		AddedAt:     s.clock.Now(),
	})
}

// ResetExtension drops a user override, restoring built-in behavior.
func (s *Service) ResetExtension(ext string) error {
	return s.store.RemoveCustomExtension(NormalizeExt(ext))
}

func (s *Service) ListUnknownExtensions() ([]*model.UnknownExtension, error) {
	return s.store.ListUnknownExtensions()
}

func (s *Service) ExtensionSamples(ext string) ([]*model.ExtensionSample, error) {
	return s.store.ListExtensionSamples(NormalizeExt(ext))
}

// Excluded path management

func (s *Service) ExcludePath(volumeRef, relativePath string) error {
	vol, err := s.ResolveVolume(volumeRef)
	if err != nil {
		return err
	}
	return s.store.AddExcludedPath(vol.ID, relativePath, s.clock.Now())
}

func (s *Service) IncludePath(volumeRef, relativePath string) error {
	vol, err := s.ResolveVolume(volumeRef)
	if err != nil {
		return err
	}
	return s.store.RemoveExcludedPath(vol.ID, relativePath)
}

func (s *Service) ListExcludedPaths(volumeRef string) ([]*model.ExcludedPath, error) {
	vol, err := s.ResolveVolume(volumeRef)
	if err != nil {
		return nil, err
	}
	return s.store.ListExcludedPaths(vol.ID)
}
