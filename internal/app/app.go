package app

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"

	"dedupe-go/internal/config"
	"dedupe-go/internal/database"
	"dedupe-go/internal/dedupe"
	"dedupe-go/internal/exif"
	"dedupe-go/internal/fs"
	"dedupe-go/internal/model"
)

// App is the application layer between the CLI and the dedupe service.
// It constructs all dependencies from config and manages the store
// lifecycle on Close.
type App struct {
	cfg     *config.Config
	store   dedupe.Store
	service *dedupe.Service
	logFile *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Scan", "Dupes");
// it tags every log line of the run. The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	if err := store.CheckMigrations(); err != nil {
		store.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	policy, err := buildPolicy(store, cfg.Extensions)
	if err != nil {
		store.Close()
		return nil, err
	}

	opID := fmt.Sprintf("%s-%s", operation, time.Now().UTC().Format("20060102T150405Z"))
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	fsys := afero.NewOsFs()
	clock := dedupe.RealClock{}
	probe := fs.NewUnixProbe()
	classifier := dedupe.NewClassifier(policy)

	engine := dedupe.NewScanEngine(store, fsys, probe, classifier, log, clock, dedupe.ScanConfig{
		Workers:            cfg.Scan.Workers,
		BatchSize:          cfg.Scan.BatchSize,
		CheckpointInterval: cfg.Scan.CheckpointInterval,
	})
	finder := dedupe.NewDuplicateFinder(store)
	sets := dedupe.NewSetOperator(store)
	mover := dedupe.NewFileMover(store, fsys, exif.NewExtractor(fsys), log, clock)

	trash, err := fs.NewXDGTrash(fsys, clock)
	if err != nil {
		logFile.Close()
		store.Close()
		return nil, fmt.Errorf("creating trash: %w", err)
	}

	svc := dedupe.NewService(store, engine, finder, sets, mover, trash, probe, fsys, log, clock)

	return &App{
		cfg:     cfg,
		store:   store,
		service: svc,
		logFile: logFile,
	}, nil
}

// Service returns the wired dedupe service.
func (a *App) Service() *dedupe.Service { return a.service }

// buildPolicy layers the stored extension overrides and the config
// file's one-off overrides on top of the builtin policy. Config entries
// win over stored entries for the same extension.
func buildPolicy(store dedupe.Store, extra config.ExtensionsConfig) (*dedupe.ExtensionPolicy, error) {
	stored, err := store.ListCustomExtensions()
	if err != nil {
		return nil, fmt.Errorf("loading extension overrides: %w", err)
	}
	overrides := make([]model.CustomExtension, 0, len(stored))
	for _, ext := range stored {
		overrides = append(overrides, *ext)
	}
	policy := dedupe.DefaultPolicy().WithOverrides(overrides)
	return policy.WithOverrides(configOverrides(extra)), nil
}

func configOverrides(extra config.ExtensionsConfig) []model.CustomExtension {
	var overrides []model.CustomExtension
	for _, ext := range extra.Include {
		overrides = append(overrides, model.CustomExtension{
			Extension:   dedupe.NormalizeExt(ext),
			Disposition: model.DispositionInclude,
		})
	}
	for _, ext := range extra.Exclude {
		overrides = append(overrides, model.CustomExtension{
			Extension:   dedupe.NormalizeExt(ext),
			Disposition: model.DispositionExclude,
		})
	}
	return overrides
}

// Close closes the store and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
