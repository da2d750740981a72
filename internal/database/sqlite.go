package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dedupe-go/internal/database/migrations"
	"dedupe-go/internal/dedupe"
	"dedupe-go/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite-backed store.
// path can be a file path or ":memory:" for an in-memory store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenConnection opens and configures a SQLite connection with the PRAGMAs
// the store relies on. Exported for tools and tests that need a properly
// configured connection. path can be a file path or ":memory:".
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes all access. This matters twice over:
	// ":memory:" gives every connection its own database, and the scan's
	// reader/writer goroutines must not race on the file.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}

	return db, nil
}

// Volume operations

func (s *SQLiteStore) RegisterVolume(identity *dedupe.VolumeIdentity, seenAt time.Time) (*model.Volume, error) {
	_, err := s.db.Exec(`
		INSERT INTO volumes (uuid, label, filesystem, total_size_bytes, is_internal, last_mount_point, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			label = excluded.label,
			filesystem = excluded.filesystem,
			total_size_bytes = excluded.total_size_bytes,
			is_internal = excluded.is_internal,
			last_mount_point = excluded.last_mount_point,
			last_seen_at = excluded.last_seen_at`,
		identity.UUID, identity.Label, identity.Filesystem,
		identity.TotalSizeBytes, identity.IsInternal, identity.MountPoint, seenAt, seenAt)
	if err != nil {
		return nil, fmt.Errorf("registering volume: %w", err)
	}
	return s.FindVolumeByUUID(identity.UUID)
}

func (s *SQLiteStore) FindVolumeByUUID(uuid string) (*model.Volume, error) {
	vol, err := scanVolume(s.db.QueryRow(volumeColumns+" WHERE uuid = ?", uuid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("finding volume by uuid: %w", err)
	}
	return vol, nil
}

func (s *SQLiteStore) GetVolume(id int64) (*model.Volume, error) {
	vol, err := scanVolume(s.db.QueryRow(volumeColumns+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting volume %d: %w", id, err)
	}
	return vol, nil
}

func (s *SQLiteStore) ListVolumes() ([]*model.Volume, error) {
	rows, err := s.db.Query(volumeColumns + " ORDER BY first_seen_at, id")
	if err != nil {
		return nil, fmt.Errorf("listing volumes: %w", err)
	}
	defer rows.Close()

	var result []*model.Volume
	for rows.Next() {
		vol, err := scanVolume(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning volume: %w", err)
		}
		result = append(result, vol)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) DeleteVolume(id int64) error {
	if _, err := s.db.Exec("DELETE FROM volumes WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting volume: %w", err)
	}
	return nil
}

const volumeColumns = `SELECT id, uuid, label, filesystem, total_size_bytes, is_internal, last_mount_point, first_seen_at, last_seen_at FROM volumes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVolume(r rowScanner) (*model.Volume, error) {
	var v model.Volume
	err := r.Scan(&v.ID, &v.UUID, &v.Label, &v.Filesystem, &v.TotalSizeBytes, &v.IsInternal, &v.LastMountPoint, &v.FirstSeenAt, &v.LastSeenAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// File operations

const fileColumns = `SELECT id, volume_id, relative_path, file_name, extension, size_bytes, modified_at, width, height, is_deleted, indexed_at FROM files`

func scanFile(r rowScanner) (*model.File, error) {
	var f model.File
	err := r.Scan(&f.ID, &f.VolumeID, &f.RelativePath, &f.FileName, &f.Extension,
		&f.SizeBytes, &f.ModifiedAt, &f.Width, &f.Height, &f.IsDeleted, &f.IndexedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *SQLiteStore) FindFileByPath(volumeID int64, relativePath string) (*model.File, error) {
	f, err := scanFile(s.db.QueryRow(fileColumns+" WHERE volume_id = ? AND relative_path = ?", volumeID, relativePath))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("finding file by path: %w", err)
	}
	return f, nil
}

// ListFilesInDir returns the files directly inside dir (no recursion).
// dir is volume-relative; "" means the volume root.
func (s *SQLiteStore) ListFilesInDir(volumeID int64, dir string) ([]*model.File, error) {
	var rows *sql.Rows
	var err error
	if dir == "" {
		rows, err = s.db.Query(fileColumns+" WHERE volume_id = ? AND relative_path NOT LIKE '%/%'", volumeID)
	} else {
		rows, err = s.db.Query(
			fileColumns+" WHERE volume_id = ? AND relative_path LIKE ? || '/%' AND relative_path NOT LIKE ? || '/%/%'",
			volumeID, dir, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("listing files in %q: %w", dir, err)
	}
	defer rows.Close()

	var result []*model.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) ListFilePaths(volumeID int64, pathPrefix string) ([]string, error) {
	query := "SELECT relative_path FROM files WHERE volume_id = ? AND is_deleted = 0"
	args := []any{volumeID}
	if pathPrefix != "" {
		query += " AND (relative_path = ? OR relative_path LIKE ? || '/%')"
		args = append(args, pathPrefix, pathPrefix)
	}
	query += " ORDER BY relative_path"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing file paths: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning path: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) MarkFilesDeleted(volumeID int64, relativePaths []string) error {
	if len(relativePaths) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("UPDATE files SET is_deleted = 1 WHERE volume_id = ? AND relative_path = ?")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range relativePaths {
		if _, err := stmt.Exec(volumeID, p); err != nil {
			return fmt.Errorf("marking %s deleted: %w", p, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// UpdateFileLocation repoints a file row at a new volume and path.
// The row id is stable, so the file's fingerprints survive the move.
func (s *SQLiteStore) UpdateFileLocation(fileID int64, volumeID int64, relativePath string) error {
	name := relativePath
	if i := strings.LastIndex(relativePath, "/"); i >= 0 {
		name = relativePath[i+1:]
	}
	_, err := s.db.Exec(
		"UPDATE files SET volume_id = ?, relative_path = ?, file_name = ?, is_deleted = 0 WHERE id = ?",
		volumeID, relativePath, name, fileID)
	if err != nil {
		return fmt.Errorf("updating file location: %w", err)
	}
	return nil
}

// Fingerprint queries

func (s *SQLiteStore) ListFingerprints(volumeID int64, hashType string, pathPrefix string) ([]*dedupe.FileFingerprint, error) {
	query := `
		SELECT f.id, f.volume_id, f.relative_path, f.file_name, f.extension,
		       f.size_bytes, f.width, f.height, f.indexed_at, h.hash_type, h.hash_value
		FROM files f
		JOIN hashes h ON h.file_id = f.id
		WHERE f.is_deleted = 0 AND h.hash_type = ?`
	args := []any{hashType}
	if volumeID != 0 {
		query += " AND f.volume_id = ?"
		args = append(args, volumeID)
	}
	if pathPrefix != "" {
		query += " AND (f.relative_path = ? OR f.relative_path LIKE ? || '/%')"
		args = append(args, pathPrefix, pathPrefix)
	}
	query += " ORDER BY f.volume_id, f.relative_path"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing fingerprints: %w", err)
	}
	defer rows.Close()

	var result []*dedupe.FileFingerprint
	for rows.Next() {
		var fp dedupe.FileFingerprint
		err := rows.Scan(&fp.FileID, &fp.VolumeID, &fp.RelativePath, &fp.FileName, &fp.Extension,
			&fp.SizeBytes, &fp.Width, &fp.Height, &fp.IndexedAt, &fp.HashType, &fp.HashValue)
		if err != nil {
			return nil, fmt.Errorf("scanning fingerprint: %w", err)
		}
		result = append(result, &fp)
	}
	return result, rows.Err()
}

// Scan session operations

const sessionColumns = `SELECT id, volume_id, root_path, status, started_at, finished_at,
	files_seen, files_hashed, files_added, files_updated, files_failed, error_message FROM scan_sessions`

func scanSession(r rowScanner) (*model.ScanSession, error) {
	var sess model.ScanSession
	var finished sql.NullTime
	err := r.Scan(&sess.ID, &sess.VolumeID, &sess.RootPath, &sess.Status, &sess.StartedAt, &finished,
		&sess.FilesSeen, &sess.FilesHashed, &sess.FilesAdded, &sess.FilesUpdated, &sess.FilesFailed,
		&sess.ErrorMessage)
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		sess.FinishedAt = &t
	}
	return &sess, nil
}

func (s *SQLiteStore) CreateScanSession(volumeID int64, rootPath string, startedAt time.Time) (*model.ScanSession, error) {
	res, err := s.db.Exec(
		"INSERT INTO scan_sessions (volume_id, root_path, status, started_at) VALUES (?, ?, ?, ?)",
		volumeID, rootPath, model.ScanInProgress, startedAt)
	if err != nil {
		return nil, fmt.Errorf("creating scan session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading session id: %w", err)
	}
	return s.GetScanSession(id)
}

func (s *SQLiteStore) GetScanSession(id int64) (*model.ScanSession, error) {
	sess, err := scanSession(s.db.QueryRow(sessionColumns+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting scan session %d: %w", id, err)
	}
	return sess, nil
}

func (s *SQLiteStore) FindResumableSession(volumeID int64, rootPath string) (*model.ScanSession, error) {
	sess, err := scanSession(s.db.QueryRow(
		sessionColumns+` WHERE volume_id = ? AND root_path = ? AND status IN (?, ?)
		ORDER BY started_at DESC, id DESC LIMIT 1`,
		volumeID, rootPath, model.ScanInProgress, model.ScanCancelled))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding resumable session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) ListScanSessions(volumeID int64, limit int) ([]*model.ScanSession, error) {
	query := sessionColumns
	var args []any
	if volumeID != 0 {
		query += " WHERE volume_id = ?"
		args = append(args, volumeID)
	}
	query += " ORDER BY started_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing scan sessions: %w", err)
	}
	defer rows.Close()

	var result []*model.ScanSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, sess)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) FinishScanSession(id int64, status string, errorMessage string, finishedAt time.Time) error {
	_, err := s.db.Exec(
		"UPDATE scan_sessions SET status = ?, error_message = ?, finished_at = ? WHERE id = ?",
		status, errorMessage, finishedAt, id)
	if err != nil {
		return fmt.Errorf("finishing scan session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadCheckpoint(sessionID int64) ([]string, error) {
	var raw string
	err := s.db.QueryRow("SELECT completed_dirs FROM scan_checkpoints WHERE session_id = ?", sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // No checkpoint yet
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}

	var dirs []string
	if err := json.Unmarshal([]byte(raw), &dirs); err != nil {
		return nil, fmt.Errorf("decoding checkpoint: %w", err)
	}
	return dirs, nil
}

func (s *SQLiteStore) ListScanFailures(sessionID int64) ([]*model.ScanFailure, error) {
	rows, err := s.db.Query(
		"SELECT id, session_id, relative_path, error, failed_at FROM scan_failures WHERE session_id = ? ORDER BY id",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing scan failures: %w", err)
	}
	defer rows.Close()

	var result []*model.ScanFailure
	for rows.Next() {
		var f model.ScanFailure
		if err := rows.Scan(&f.ID, &f.SessionID, &f.RelativePath, &f.Error, &f.FailedAt); err != nil {
			return nil, fmt.Errorf("scanning failure: %w", err)
		}
		result = append(result, &f)
	}
	return result, rows.Err()
}

// ApplyScanBatch commits one scan batch in a single transaction:
// 1. Upserts each file row together with all its hashes, so a file never
//    appears with a stale size but an updated hash.
// 2. Records per-file failures and unknown-extension observations.
// 3. Soft-deletes files that vanished from disk.
// 4. Adds the progress deltas to the session counters.
// 5. Replaces the resume checkpoint when the batch carries one.
func (s *SQLiteStore) ApplyScanBatch(batch *dedupe.ScanBatch) error {
	now := time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var volumeID int64
	err = tx.QueryRow("SELECT volume_id FROM scan_sessions WHERE id = ?", batch.SessionID).Scan(&volumeID)
	if err != nil {
		return fmt.Errorf("resolving session %d: %w", batch.SessionID, err)
	}

	for i := range batch.Results {
		if err := applyResult(tx, &batch.Results[i]); err != nil {
			return err
		}
	}

	for _, f := range batch.Failures {
		_, err := tx.Exec(
			"INSERT INTO scan_failures (session_id, relative_path, error, failed_at) VALUES (?, ?, ?, ?)",
			batch.SessionID, f.RelativePath, f.Error, now)
		if err != nil {
			return fmt.Errorf("recording failure for %s: %w", f.RelativePath, err)
		}
	}

	for _, u := range batch.Unknown {
		_, err := tx.Exec(`
			INSERT INTO unknown_extensions (extension, occurrences, first_seen_at, last_seen_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(extension) DO UPDATE SET
				occurrences = occurrences + excluded.occurrences,
				last_seen_at = excluded.last_seen_at`,
			u.Extension, u.Count, now, now)
		if err != nil {
			return fmt.Errorf("recording unknown extension %s: %w", u.Extension, err)
		}
		_, err = tx.Exec(`
			INSERT INTO extension_samples (extension, volume_id, directory, file_count)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(extension, volume_id, directory) DO UPDATE SET
				file_count = file_count + excluded.file_count`,
			u.Extension, u.VolumeID, u.Directory, u.Count)
		if err != nil {
			return fmt.Errorf("recording extension sample %s: %w", u.Extension, err)
		}
	}

	for _, p := range batch.DeletedPaths {
		_, err := tx.Exec("UPDATE files SET is_deleted = 1 WHERE volume_id = ? AND relative_path = ?", volumeID, p)
		if err != nil {
			return fmt.Errorf("marking %s deleted: %w", p, err)
		}
	}

	_, err = tx.Exec(`
		UPDATE scan_sessions SET
			files_seen = files_seen + ?,
			files_hashed = files_hashed + ?,
			files_added = files_added + ?,
			files_updated = files_updated + ?,
			files_failed = files_failed + ?
		WHERE id = ?`,
		batch.Progress.FilesSeen, batch.Progress.FilesHashed, batch.Progress.FilesAdded,
		batch.Progress.FilesUpdated, batch.Progress.FilesFailed, batch.SessionID)
	if err != nil {
		return fmt.Errorf("updating session counters: %w", err)
	}

	if batch.CompletedDirs != nil {
		encoded, err := json.Marshal(batch.CompletedDirs)
		if err != nil {
			return fmt.Errorf("encoding checkpoint: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO scan_checkpoints (session_id, completed_dirs, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(session_id) DO UPDATE SET
				completed_dirs = excluded.completed_dirs,
				updated_at = excluded.updated_at`,
			batch.SessionID, string(encoded), now)
		if err != nil {
			return fmt.Errorf("writing checkpoint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// applyResult upserts one file row and replaces its hashes.
func applyResult(tx *sql.Tx, r *dedupe.ScanResult) error {
	f := &r.File
	_, err := tx.Exec(`
		INSERT INTO files (volume_id, relative_path, file_name, extension, size_bytes, modified_at, width, height, is_deleted, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(volume_id, relative_path) DO UPDATE SET
			file_name = excluded.file_name,
			extension = excluded.extension,
			size_bytes = excluded.size_bytes,
			modified_at = excluded.modified_at,
			width = excluded.width,
			height = excluded.height,
			is_deleted = 0,
			indexed_at = excluded.indexed_at`,
		f.VolumeID, f.RelativePath, f.FileName, f.Extension, f.SizeBytes,
		f.ModifiedAt, f.Width, f.Height, f.IndexedAt)
	if err != nil {
		return fmt.Errorf("upserting file %s: %w", f.RelativePath, err)
	}

	var fileID int64
	err = tx.QueryRow("SELECT id FROM files WHERE volume_id = ? AND relative_path = ?",
		f.VolumeID, f.RelativePath).Scan(&fileID)
	if err != nil {
		return fmt.Errorf("resolving file id for %s: %w", f.RelativePath, err)
	}

	// A changed file's old hashes are stale in every type, including
	// types the new strategy no longer computes.
	if r.Existing {
		if _, err := tx.Exec("DELETE FROM hashes WHERE file_id = ?", fileID); err != nil {
			return fmt.Errorf("clearing stale hashes for %s: %w", f.RelativePath, err)
		}
	}

	for _, h := range r.Hashes {
		_, err := tx.Exec(`
			INSERT INTO hashes (file_id, hash_type, hash_value, computed_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(file_id, hash_type) DO UPDATE SET
				hash_value = excluded.hash_value,
				computed_at = excluded.computed_at`,
			fileID, h.HashType, h.HashValue, h.ComputedAt)
		if err != nil {
			return fmt.Errorf("upserting %s hash for %s: %w", h.HashType, f.RelativePath, err)
		}
	}
	return nil
}

// Extension bookkeeping

func (s *SQLiteStore) ListCustomExtensions() ([]*model.CustomExtension, error) {
	rows, err := s.db.Query("SELECT extension, disposition, category, added_at FROM custom_extensions ORDER BY extension")
	if err != nil {
		return nil, fmt.Errorf("listing custom extensions: %w", err)
	}
	defer rows.Close()

	var result []*model.CustomExtension
	for rows.Next() {
		var e model.CustomExtension
		if err := rows.Scan(&e.Extension, &e.Disposition, &e.Category, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("scanning custom extension: %w", err)
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) SetCustomExtension(ext model.CustomExtension) error {
	_, err := s.db.Exec(`
		INSERT INTO custom_extensions (extension, disposition, category, added_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(extension) DO UPDATE SET
			disposition = excluded.disposition,
			category = excluded.category,
			added_at = excluded.added_at`,
		ext.Extension, ext.Disposition, ext.Category, ext.AddedAt)
	if err != nil {
		return fmt.Errorf("setting custom extension %s: %w", ext.Extension, err)
	}
	return nil
}

func (s *SQLiteStore) RemoveCustomExtension(extension string) error {
	if _, err := s.db.Exec("DELETE FROM custom_extensions WHERE extension = ?", extension); err != nil {
		return fmt.Errorf("removing custom extension %s: %w", extension, err)
	}
	return nil
}

func (s *SQLiteStore) ListUnknownExtensions() ([]*model.UnknownExtension, error) {
	rows, err := s.db.Query(
		"SELECT extension, occurrences, first_seen_at, last_seen_at FROM unknown_extensions ORDER BY occurrences DESC, extension")
	if err != nil {
		return nil, fmt.Errorf("listing unknown extensions: %w", err)
	}
	defer rows.Close()

	var result []*model.UnknownExtension
	for rows.Next() {
		var u model.UnknownExtension
		if err := rows.Scan(&u.Extension, &u.Occurrences, &u.FirstSeenAt, &u.LastSeenAt); err != nil {
			return nil, fmt.Errorf("scanning unknown extension: %w", err)
		}
		result = append(result, &u)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) ListExtensionSamples(extension string) ([]*model.ExtensionSample, error) {
	rows, err := s.db.Query(
		"SELECT id, extension, volume_id, directory, file_count FROM extension_samples WHERE extension = ? ORDER BY file_count DESC, directory",
		extension)
	if err != nil {
		return nil, fmt.Errorf("listing extension samples: %w", err)
	}
	defer rows.Close()

	var result []*model.ExtensionSample
	for rows.Next() {
		var sample model.ExtensionSample
		if err := rows.Scan(&sample.ID, &sample.Extension, &sample.VolumeID, &sample.Directory, &sample.FileCount); err != nil {
			return nil, fmt.Errorf("scanning extension sample: %w", err)
		}
		result = append(result, &sample)
	}
	return result, rows.Err()
}

// Excluded path operations

func (s *SQLiteStore) AddExcludedPath(volumeID int64, relativePath string, addedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO excluded_paths (volume_id, relative_path, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT(volume_id, relative_path) DO NOTHING`,
		volumeID, relativePath, addedAt)
	if err != nil {
		return fmt.Errorf("adding excluded path %s: %w", relativePath, err)
	}
	return nil
}

func (s *SQLiteStore) RemoveExcludedPath(volumeID int64, relativePath string) error {
	_, err := s.db.Exec("DELETE FROM excluded_paths WHERE volume_id = ? AND relative_path = ?", volumeID, relativePath)
	if err != nil {
		return fmt.Errorf("removing excluded path %s: %w", relativePath, err)
	}
	return nil
}

func (s *SQLiteStore) ListExcludedPaths(volumeID int64) ([]*model.ExcludedPath, error) {
	rows, err := s.db.Query(
		"SELECT id, volume_id, relative_path, added_at FROM excluded_paths WHERE volume_id = ? ORDER BY relative_path",
		volumeID)
	if err != nil {
		return nil, fmt.Errorf("listing excluded paths: %w", err)
	}
	defer rows.Close()

	var result []*model.ExcludedPath
	for rows.Next() {
		var p model.ExcludedPath
		if err := rows.Scan(&p.ID, &p.VolumeID, &p.RelativePath, &p.AddedAt); err != nil {
			return nil, fmt.Errorf("scanning excluded path: %w", err)
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

// Path returns the database file path (or ":memory:" for in-memory stores).
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteStore implements the Store interface
var _ dedupe.Store = (*SQLiteStore)(nil)
