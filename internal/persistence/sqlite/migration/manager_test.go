package migration

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := OpenDB(InMemoryTestSQLiteConfig())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMigrationManager_RunMigrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("applies pending migrations once", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		fsys := fstest.MapFS{
			"001_create_notes.sql": {Data: []byte("CREATE TABLE notes (id TEXT PRIMARY KEY);")},
			"002_add_body.sql":     {Data: []byte("ALTER TABLE notes ADD COLUMN body TEXT;")},
		}
		manager := NewMigrationManager(NewFileScanner(fsys), NewSQLiteExecutor(db), discardLogger())

		if err := manager.RunMigrations(ctx); err != nil {
			t.Fatalf("RunMigrations returned error: %v", err)
		}
		if err := manager.RunMigrations(ctx); err != nil {
			t.Fatalf("second RunMigrations returned error: %v", err)
		}

		status, err := manager.GetMigrationStatus(ctx)
		if err != nil {
			t.Fatalf("GetMigrationStatus returned error: %v", err)
		}
		if status.CurrentVersion != "002" || status.PendingCount != 0 || len(status.AppliedMigrations) != 2 {
			t.Fatalf("unexpected status %+v", status)
		}

		if _, err := db.ExecContext(ctx, "INSERT INTO notes (id, body) VALUES ('a', 'b')"); err != nil {
			t.Fatalf("expected migrated schema, got %v", err)
		}
	})

	t.Run("failed migration is rolled back", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		fsys := fstest.MapFS{
			"001_broken.sql": {Data: []byte("CREATE TABLE ok (id TEXT);\nCREATE TABLE broken (;")},
		}
		manager := NewMigrationManager(NewFileScanner(fsys), NewSQLiteExecutor(db), discardLogger())

		err := manager.RunMigrations(ctx)
		if !errors.Is(err, ErrMigrationFailed) {
			t.Fatalf("expected ErrMigrationFailed, got %v", err)
		}

		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE name = 'ok'").Scan(&count); err != nil {
			t.Fatalf("query sqlite_master: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected partial migration to be rolled back")
		}

		pending, err := manager.GetPendingMigrations(ctx)
		if err != nil || len(pending) != 1 {
			t.Fatalf("expected migration to remain pending, got %v (%v)", pending, err)
		}
	})

	t.Run("detects edited migrations", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		original := fstest.MapFS{"001_create.sql": {Data: []byte("CREATE TABLE a (id TEXT);")}}
		if err := NewMigrationManager(NewFileScanner(original), NewSQLiteExecutor(db), discardLogger()).RunMigrations(ctx); err != nil {
			t.Fatalf("RunMigrations returned error: %v", err)
		}

		edited := fstest.MapFS{"001_create.sql": {Data: []byte("CREATE TABLE a (id TEXT, extra TEXT);")}}
		err := NewMigrationManager(NewFileScanner(edited), NewSQLiteExecutor(db), discardLogger()).RunMigrations(ctx)
		if !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("expected ErrChecksumMismatch, got %v", err)
		}
	})
}

func TestOpenDB(t *testing.T) {
	t.Parallel()

	t.Run("creates file database with pragmas", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "calendar.db")
		db, err := OpenDB(DefaultSQLiteConfig(path))
		if err != nil {
			t.Fatalf("OpenDB returned error: %v", err)
		}
		defer db.Close()

		var mode string
		if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
			t.Fatalf("query journal_mode: %v", err)
		}
		if mode != "wal" {
			t.Fatalf("expected wal journal mode, got %q", mode)
		}
	})

	t.Run("rejects invalid configuration", func(t *testing.T) {
		t.Parallel()

		cases := map[string]SQLiteConfig{
			"empty dsn":      {},
			"query in dsn":   {DSN: "x.db?mode=ro"},
			"journal mode":   {DSN: "x.db", JournalMode: "FAST"},
			"synchronous":    {DSN: "x.db", Synchronous: "SOMETIMES"},
			"negative busy":  {DSN: "x.db", BusyTimeout: -1},
			"negative conns": {DSN: "x.db", MaxOpenConns: -1},
		}
		for name, cfg := range cases {
			if err := cfg.Validate(); err == nil {
				t.Fatalf("%s: expected validation error", name)
			}
		}
	})
}
