package dedupe

import (
	"context"

	"dedupe-go/internal/model"
)

// batchWriter is the single consumer of scan events. It accumulates
// results into transactional batches, tracks directory completion for
// the resume checkpoint, and is the only goroutine writing to the store
// while a scan runs.
//
// A directory joins the checkpoint only once every hash result from it
// has been committed, so resuming from the checkpoint never skips work
// that was still in flight.
type batchWriter struct {
	store     Store
	sessionID int64
	cfg       ScanConfig
	cancel    context.CancelFunc
	logger    Logger

	results  []ScanResult
	failures []model.ScanFailure
	deleted  []string
	unknown  map[string]*UnknownSample // keyed extension+dir
	progress SessionProgress

	pending   map[string]int  // outstanding results per directory
	closed    map[string]bool // directory fully enumerated
	completed []string        // checkpoint state, oldest first

	checkpointDirty bool
	dirsSinceFlush  int

	storeErr error
}

func newBatchWriter(store Store, sessionID int64, completed []string, cfg ScanConfig, cancel context.CancelFunc, logger Logger) *batchWriter {
	return &batchWriter{
		store:     store,
		sessionID: sessionID,
		cfg:       cfg,
		cancel:    cancel,
		logger:    logger,
		unknown:   make(map[string]*UnknownSample),
		pending:   make(map[string]int),
		closed:    make(map[string]bool),
		completed: append([]string(nil), completed...),
	}
}

func (w *batchWriter) run(events <-chan scanEvent) {
	for ev := range events {
		if w.storeErr != nil {
			continue // drain: the walk is being cancelled
		}
		w.handle(ev)
	}
	if w.storeErr == nil {
		w.flush()
	}
}

func (w *batchWriter) handle(ev scanEvent) {
	switch {
	case ev.result != nil:
		w.results = append(w.results, *ev.result)
		w.progress.FilesHashed++
		if ev.result.Existing {
			w.progress.FilesUpdated++
		} else {
			w.progress.FilesAdded++
		}
		w.settle(ev.dir, -1)

	case ev.failure != nil:
		f := *ev.failure
		f.SessionID = w.sessionID
		w.failures = append(w.failures, f)
		w.progress.FilesFailed++
		w.settle(ev.dir, -1)

	case ev.unknown != nil:
		key := ev.unknown.Extension + "\x00" + ev.unknown.Directory
		if agg, ok := w.unknown[key]; ok {
			agg.Count++
		} else {
			s := *ev.unknown
			s.Count = 1
			w.unknown[key] = &s
		}

	case ev.dirDone:
		w.progress.FilesSeen += ev.seen
		w.deleted = append(w.deleted, ev.deleted...)
		w.closed[ev.dir] = true
		w.settle(ev.dir, ev.jobCount)
	}

	if len(w.results)+len(w.failures) >= w.cfg.BatchSize {
		w.flush()
	}
}

// settle adjusts a directory's outstanding-result count and completes
// the directory when it reaches zero after enumeration closed. Results
// may arrive before the dirDone event, so the count can go negative in
// between.
func (w *batchWriter) settle(dir string, delta int) {
	w.pending[dir] += delta
	if w.closed[dir] && w.pending[dir] == 0 {
		delete(w.pending, dir)
		delete(w.closed, dir)
		w.completed = append(w.completed, dir)
		w.checkpointDirty = true
		w.dirsSinceFlush++
		if w.dirsSinceFlush >= w.cfg.CheckpointInterval {
			w.flush()
		}
	}
}

func (w *batchWriter) flush() {
	if len(w.results) == 0 && len(w.failures) == 0 && len(w.deleted) == 0 &&
		len(w.unknown) == 0 && !w.checkpointDirty && w.progress == (SessionProgress{}) {
		return
	}

	batch := &ScanBatch{
		SessionID:    w.sessionID,
		Results:      w.results,
		Failures:     w.failures,
		DeletedPaths: w.deleted,
		Progress:     w.progress,
	}
	for _, s := range w.unknown {
		batch.Unknown = append(batch.Unknown, *s)
	}
	if w.checkpointDirty {
		batch.CompletedDirs = append([]string(nil), w.completed...)
	}

	err := w.store.ApplyScanBatch(batch)
	if err != nil {
		w.logger.Warn("batch commit failed, retrying", "session", w.sessionID, "error", err)
		err = w.store.ApplyScanBatch(batch)
	}
	if err != nil {
		w.storeErr = &StoreWriteError{Err: err}
		w.logger.Error("batch commit failed twice, aborting scan", "session", w.sessionID, "error", err)
		w.cancel()
		return
	}

	w.results = nil
	w.failures = nil
	w.deleted = nil
	w.unknown = make(map[string]*UnknownSample)
	w.progress = SessionProgress{}
	w.checkpointDirty = false
	w.dirsSinceFlush = 0
}
