package dedupe

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/afero"

	"dedupe-go/internal/model"
)

// ScanConfig bounds the resources a scan uses.
type ScanConfig struct {
	Workers            int // hash workers; the walk itself is single-threaded
	BatchSize          int // results per store transaction
	CheckpointInterval int // completed directories between checkpoint writes
}

// DefaultScanConfig returns sensible bounds for interactive use.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{Workers: 4, BatchSize: 50, CheckpointInterval: 100}
}

// ScanOptions select what to scan within a volume.
type ScanOptions struct {
	SubPath string // volume-relative subtree, "" for the whole volume
}

// ScanReport summarizes a finished (or interrupted) scan.
type ScanReport struct {
	Session   *model.ScanSession
	Volume    *model.Volume
	Resumed   bool
	Cancelled bool
}

// ScanEngine walks a volume, fingerprints eligible files and commits
// them to the store. One engine handles full scans, subtree scans and
// resumption of interrupted sessions; there is no separate legacy path.
//
// Concurrency model: a single walk goroutine enumerates directories and
// feeds a bounded worker pool; workers compute hashes; a single writer
// goroutine applies results in transactional batches. The store is never
// written from more than one goroutine.
type ScanEngine struct {
	store      Store
	fs         afero.Fs
	probe      VolumeProbe
	classifier *Classifier
	hasher     *Hasher
	logger     Logger
	clock      Clock
	cfg        ScanConfig
}

func NewScanEngine(store Store, fsys afero.Fs, probe VolumeProbe, classifier *Classifier, logger Logger, clock Clock, cfg ScanConfig) *ScanEngine {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultScanConfig().Workers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultScanConfig().BatchSize
	}
	if cfg.CheckpointInterval <= 0 {
		cfg.CheckpointInterval = DefaultScanConfig().CheckpointInterval
	}
	return &ScanEngine{
		store:      store,
		fs:         fsys,
		probe:      probe,
		classifier: classifier,
		hasher:     NewHasher(fsys),
		logger:     logger,
		clock:      clock,
		cfg:        cfg,
	}
}

// Scan indexes the volume mounted at mountPoint. If an interrupted
// session exists for the same volume and subtree it is resumed instead
// of starting over.
func (e *ScanEngine) Scan(ctx context.Context, mountPoint string, opts ScanOptions) (*ScanReport, error) {
	identity, err := e.probe.Identify(mountPoint)
	if err != nil {
		return nil, &VolumeIdentityError{MountPoint: mountPoint, Err: err}
	}

	vol, err := e.store.RegisterVolume(identity, e.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("registering volume: %w", err)
	}

	session, err := e.store.FindResumableSession(vol.ID, opts.SubPath)
	if err != nil {
		return nil, fmt.Errorf("looking up resumable session: %w", err)
	}
	resumed := session != nil
	if !resumed {
		session, err = e.store.CreateScanSession(vol.ID, opts.SubPath, e.clock.Now())
		if err != nil {
			return nil, fmt.Errorf("creating scan session: %w", err)
		}
	}

	return e.run(ctx, mountPoint, vol, session, resumed)
}

// Resume continues the given interrupted session. The volume must be
// mounted at mountPoint; its identity is re-probed and verified so a
// session can never be replayed against the wrong device.
func (e *ScanEngine) Resume(ctx context.Context, sessionID int64, mountPoint string) (*ScanReport, error) {
	session, err := e.store.GetScanSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %d: %w", sessionID, err)
	}
	if session == nil {
		return nil, fmt.Errorf("no scan session with id %d", sessionID)
	}
	if session.Status != model.ScanInProgress && session.Status != model.ScanCancelled {
		return nil, fmt.Errorf("session %d is %s, not resumable", sessionID, session.Status)
	}

	vol, err := e.store.GetVolume(session.VolumeID)
	if err != nil {
		return nil, fmt.Errorf("loading volume: %w", err)
	}

	identity, err := e.probe.Identify(mountPoint)
	if err != nil {
		return nil, &VolumeIdentityError{MountPoint: mountPoint, Err: err}
	}
	if identity.UUID != vol.UUID {
		return nil, &VolumeIdentityError{
			MountPoint: mountPoint,
			Err:        fmt.Errorf("mounted volume is %s, session belongs to %s", identity.UUID, vol.UUID),
		}
	}

	return e.run(ctx, mountPoint, vol, session, true)
}

var errScanCancelled = errors.New("scan cancelled")

func (e *ScanEngine) run(ctx context.Context, mountPoint string, vol *model.Volume, session *model.ScanSession, resumed bool) (*ScanReport, error) {
	completed, err := e.store.LoadCheckpoint(session.ID)
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}
	completedSet := make(map[string]bool, len(completed))
	for _, d := range completed {
		completedSet[d] = true
	}

	excluded, err := e.store.ListExcludedPaths(vol.ID)
	if err != nil {
		return nil, fmt.Errorf("listing excluded paths: %w", err)
	}
	userExcluded := make([]string, 0, len(excluded))
	for _, ex := range excluded {
		userExcluded = append(userExcluded, ex.RelativePath)
	}

	e.logger.Info("scan started",
		"volume", vol.UUID, "session", session.ID,
		"root", session.RootPath, "resumed", resumed)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := ants.NewPool(e.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	events := make(chan scanEvent, e.cfg.BatchSize*2)

	writer := newBatchWriter(e.store, session.ID, completed, e.cfg, cancel, e.logger)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writer.run(events)
	}()

	walker := &scanWalker{
		engine:     e,
		ctx:        ctx,
		mountPoint: mountPoint,
		volume:     vol,
		filter:     NewPathFilter(userExcluded),
		completed:  completedSet,
		pool:       pool,
		events:     events,
	}
	walkErr := walker.walk(session.RootPath)

	walker.wg.Wait() // drain in-flight hash jobs
	close(events)
	<-writerDone

	now := e.clock.Now()
	report := &ScanReport{Volume: vol, Resumed: resumed}

	switch {
	case writer.storeErr != nil:
		// Everything committed before the failure is checkpointed, so
		// the session stays resumable once the store recovers.
		msg := writer.storeErr.Error()
		if err := e.store.FinishScanSession(session.ID, model.ScanCancelled, msg, now); err != nil {
			e.logger.Error("finishing interrupted session", "session", session.ID, "error", err)
		}
		report.Session, _ = e.store.GetScanSession(session.ID)
		return report, writer.storeErr

	case errors.Is(walkErr, errScanCancelled) || ctx.Err() != nil:
		// Interrupted: everything committed so far is checkpointed and
		// the session stays resumable.
		if err := e.store.FinishScanSession(session.ID, model.ScanCancelled, "", now); err != nil {
			return nil, fmt.Errorf("marking session cancelled: %w", err)
		}
		report.Cancelled = true
		e.logger.Info("scan cancelled", "session", session.ID)

	case walkErr != nil:
		if err := e.store.FinishScanSession(session.ID, model.ScanFailed, walkErr.Error(), now); err != nil {
			e.logger.Error("finishing failed session", "session", session.ID, "error", err)
		}
		report.Session, _ = e.store.GetScanSession(session.ID)
		return report, walkErr

	default:
		if err := e.store.FinishScanSession(session.ID, model.ScanCompleted, "", now); err != nil {
			return nil, fmt.Errorf("marking session completed: %w", err)
		}
		e.logger.Info("scan completed", "session", session.ID)
	}

	report.Session, err = e.store.GetScanSession(session.ID)
	if err != nil {
		return nil, fmt.Errorf("reloading session: %w", err)
	}
	return report, nil
}

// scanEvent is the single message type flowing from the walk and the
// hash workers to the batch writer.
type scanEvent struct {
	dir     string
	result  *ScanResult
	failure *model.ScanFailure
	unknown *UnknownSample

	// dirDone closes a directory: jobCount hash jobs were enqueued for
	// it, seen files were observed, deleted paths vanished from disk.
	dirDone  bool
	jobCount int
	seen     int64
	deleted  []string
}

// scanWalker enumerates directories depth-first, decides per file
// whether hashing is needed, and feeds the worker pool.
type scanWalker struct {
	engine     *ScanEngine
	ctx        context.Context
	mountPoint string
	volume     *model.Volume
	filter     *PathFilter
	completed  map[string]bool
	pool       *ants.Pool
	events     chan<- scanEvent
	wg         sync.WaitGroup
}

func (w *scanWalker) walk(relDir string) error {
	if w.ctx.Err() != nil {
		return errScanCancelled
	}

	e := w.engine
	absDir := AbsolutePath(w.mountPoint, relDir)

	entries, err := afero.ReadDir(e.fs, absDir)
	if err != nil {
		if relDir == "" {
			return fmt.Errorf("reading scan root %s: %w", absDir, err)
		}
		w.events <- scanEvent{dir: relDir, failure: &model.ScanFailure{
			RelativePath: relDir,
			Error:        fmt.Sprintf("reading directory: %v", err),
		}}
		return nil
	}

	var subdirs []string
	alreadyDone := w.completed[relDir]

	if !alreadyDone {
		// One store read per directory: the incremental check compares
		// size and mtime against what is already indexed.
		existing := make(map[string]*model.File)
		files, err := e.store.ListFilesInDir(w.volume.ID, relDir)
		if err != nil {
			return fmt.Errorf("listing indexed files for %s: %w", relDir, err)
		}
		for _, f := range files {
			existing[f.RelativePath] = f
		}

		jobCount := 0
		var seen int64
		observed := make(map[string]bool)

		for _, entry := range entries {
			if w.ctx.Err() != nil {
				return errScanCancelled
			}
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			rel := path.Join(relDir, name)
			seen++

			ext := NormalizeExt(path.Ext(name))
			cls := e.classifier.Classify(ext)
			switch cls.Disposition {
			case model.DispositionUnknown:
				if ext != "" {
					w.events <- scanEvent{dir: relDir, unknown: &UnknownSample{
						Extension: ext,
						VolumeID:  w.volume.ID,
						Directory: relDir,
					}}
				}
				continue
			case model.DispositionExclude:
				continue
			}

			if !w.filter.IncludeFile(name, cls.Category, entry.Size()) {
				continue
			}
			observed[rel] = true

			if prev, ok := existing[rel]; ok &&
				prev.SizeBytes == entry.Size() &&
				prev.ModifiedAt.Unix() == entry.ModTime().Unix() &&
				!prev.IsDeleted {
				// Unchanged: no hashing, no store write.
				continue
			}

			jobCount++
			w.submit(scanJob{
				volume:   w.volume,
				dir:      relDir,
				relPath:  rel,
				absPath:  AbsolutePath(w.mountPoint, rel),
				name:     name,
				ext:      ext,
				size:     entry.Size(),
				modTime:  entry.ModTime(),
				strategy: cls.Strategy,
				existing: existing[rel] != nil,
			})
		}

		// Indexed files that were not observed on disk are gone.
		var deleted []string
		for rel, f := range existing {
			if !observed[rel] && !f.IsDeleted {
				deleted = append(deleted, rel)
			}
		}
		sort.Strings(deleted)

		w.events <- scanEvent{dir: relDir, dirDone: true, jobCount: jobCount, seen: seen, deleted: deleted}
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rel := path.Join(relDir, entry.Name())
		if !w.filter.IncludeDir(rel, entry.Name()) {
			continue
		}
		subdirs = append(subdirs, rel)
	}

	for _, sub := range subdirs {
		if err := w.walk(sub); err != nil {
			return err
		}
	}
	return nil
}

type scanJob struct {
	volume   *model.Volume
	dir      string
	relPath  string
	absPath  string
	name     string
	ext      string
	size     int64
	modTime  time.Time
	strategy HashStrategy
	existing bool
}

func (w *scanWalker) submit(job scanJob) {
	w.wg.Add(1)
	err := w.pool.Submit(func() {
		defer w.wg.Done()
		w.runJob(job)
	})
	if err != nil {
		// Pool rejected the job (released or overloaded beyond the
		// blocking limit): run it inline rather than losing the file.
		w.runJob(job)
		w.wg.Done()
	}
}

func (w *scanWalker) runJob(job scanJob) {
	e := w.engine

	set, err := e.hasher.Compute(job.absPath, job.strategy)
	if err != nil {
		w.events <- scanEvent{dir: job.dir, failure: &model.ScanFailure{
			RelativePath: job.relPath,
			Error:        err.Error(),
		}}
		return
	}

	now := e.clock.Now()
	hashes := make([]model.Hash, len(set.Hashes))
	for i, h := range set.Hashes {
		h.ComputedAt = now
		hashes[i] = h
	}

	w.events <- scanEvent{dir: job.dir, result: &ScanResult{
		File: model.File{
			VolumeID:     job.volume.ID,
			RelativePath: job.relPath,
			FileName:     job.name,
			Extension:    job.ext,
			SizeBytes:    job.size,
			ModifiedAt:   job.modTime,
			Width:        set.Width,
			Height:       set.Height,
			IndexedAt:    now,
		},
		Hashes:   hashes,
		Existing: job.existing,
	}}
}
