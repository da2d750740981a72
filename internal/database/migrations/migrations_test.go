package migrations

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tables := []string{
		"volumes", "files", "hashes",
		"scan_sessions", "scan_checkpoints", "scan_failures",
		"custom_extensions", "unknown_extensions", "extension_samples",
		"excluded_paths", "schema_migrations",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	err := CheckStatus(db)
	if err == nil {
		t.Fatal("CheckStatus() expected error for fresh database, got nil")
	}
	if err.Error() != "database has no schema version (needs migration)" {
		t.Errorf("CheckStatus() error = %q, want error about needing migration", err.Error())
	}
}

func TestCheckStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}
	if err := CheckStatus(db); err != nil {
		t.Errorf("CheckStatus() after migration returned error: %v", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}
	if err := CheckStatus(db); err != nil {
		t.Errorf("CheckStatus() after double migration returned error: %v", err)
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// A file pointing at a non-existent volume must be rejected.
	_, err := db.Exec(`
		INSERT INTO files (volume_id, relative_path, file_name, extension, size_bytes, modified_at, indexed_at)
		VALUES (999, 'a/b.jpg', 'b.jpg', 'jpg', 10, datetime('now'), datetime('now'))
	`)
	if err == nil {
		t.Error("Expected foreign key constraint violation, but insert succeeded")
	}
}

func TestSchema_FilePathUniquePerVolume(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	_, err := db.Exec(`INSERT INTO volumes (uuid, first_seen_at, last_seen_at) VALUES ('vol-1', datetime('now'), datetime('now'))`)
	if err != nil {
		t.Fatalf("Failed to insert volume: %v", err)
	}

	insert := `
		INSERT INTO files (volume_id, relative_path, file_name, extension, size_bytes, modified_at, indexed_at)
		VALUES (1, 'pics/a.jpg', 'a.jpg', 'jpg', 10, datetime('now'), datetime('now'))
	`
	if _, err := db.Exec(insert); err != nil {
		t.Fatalf("Failed to insert first file: %v", err)
	}
	if _, err := db.Exec(insert); err == nil {
		t.Error("Expected unique constraint violation for duplicate (volume_id, relative_path), but insert succeeded")
	}
}

func TestSchema_HashTypeUniquePerFile(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	if _, err := db.Exec(`INSERT INTO volumes (uuid, first_seen_at, last_seen_at) VALUES ('vol-1', datetime('now'), datetime('now'))`); err != nil {
		t.Fatalf("Failed to insert volume: %v", err)
	}
	if _, err := db.Exec(`
		INSERT INTO files (volume_id, relative_path, file_name, extension, size_bytes, modified_at, indexed_at)
		VALUES (1, 'pics/a.jpg', 'a.jpg', 'jpg', 10, datetime('now'), datetime('now'))
	`); err != nil {
		t.Fatalf("Failed to insert file: %v", err)
	}

	insert := `INSERT INTO hashes (file_id, hash_type, hash_value, computed_at) VALUES (1, 'exact_md5', 'aaaa', datetime('now'))`
	if _, err := db.Exec(insert); err != nil {
		t.Fatalf("Failed to insert first hash: %v", err)
	}
	if _, err := db.Exec(insert); err == nil {
		t.Error("Expected unique constraint violation for duplicate (file_id, hash_type), but insert succeeded")
	}
}

// openTestDB opens an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}
	return db
}
