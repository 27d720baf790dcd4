package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const memoryDSN = ":memory:"

var (
	journalModes     = []string{"DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF"}
	synchronousModes = []string{"OFF", "NORMAL", "FULL", "EXTRA"}
)

// SQLiteConfig describes how the calendar database is opened.
type SQLiteConfig struct {
	// DSN is a plain file path or ":memory:". Pragmas come from the fields
	// below, never from query parameters.
	DSN string

	BusyTimeout time.Duration
	JournalMode string
	Synchronous string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultSQLiteConfig returns the settings used for the calendar file. One
// connection serialises writers, which is all a single user needs.
func DefaultSQLiteConfig(databasePath string) SQLiteConfig {
	return SQLiteConfig{
		DSN:          databasePath,
		BusyTimeout:  5 * time.Second,
		JournalMode:  "WAL",
		Synchronous:  "NORMAL",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
}

// InMemoryTestSQLiteConfig returns a private in-memory database. The single
// connection must never be recycled or the database disappears with it.
func InMemoryTestSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{DSN: memoryDSN, MaxOpenConns: 1, MaxIdleConns: 1}
}

// Validate reports the first problem with the configuration.
func (c SQLiteConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.DSN) == "":
		return errors.New("DSN cannot be empty")
	case strings.ContainsAny(c.DSN, "?#"):
		return fmt.Errorf("DSN must be a plain file path, got %q", c.DSN)
	case c.JournalMode != "" && !slices.Contains(journalModes, c.JournalMode):
		return fmt.Errorf("invalid journal mode: %s", c.JournalMode)
	case c.Synchronous != "" && !slices.Contains(synchronousModes, c.Synchronous):
		return fmt.Errorf("invalid synchronous mode: %s", c.Synchronous)
	case c.BusyTimeout < 0, c.ConnMaxLifetime < 0:
		return errors.New("durations cannot be negative")
	case c.MaxOpenConns < 0, c.MaxIdleConns < 0:
		return errors.New("connection limits cannot be negative")
	}
	return nil
}

// driverDSN renders the pragmas as modernc _pragma parameters so that every
// pooled connection is configured, not only the first one.
func (c SQLiteConfig) driverDSN() string {
	var pragmas []string
	if c.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	}
	if c.JournalMode != "" {
		pragmas = append(pragmas, "journal_mode("+c.JournalMode+")")
	}
	if c.Synchronous != "" {
		pragmas = append(pragmas, "synchronous("+c.Synchronous+")")
	}
	if len(pragmas) == 0 {
		return c.DSN
	}
	return "file:" + c.DSN + "?" + url.Values{"_pragma": pragmas}.Encode()
}

// OpenDB validates config, creates the database directory and returns a
// pinged handle.
func OpenDB(config SQLiteConfig) (*sql.DB, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite configuration: %w", err)
	}

	if config.DSN != memoryDSN {
		dir := filepath.Dir(config.DSN)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", config.driverDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return db, nil
}
