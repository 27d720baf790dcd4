package migration

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMigrationFailed      = errors.New("migration execution failed")
	ErrInvalidMigrationFile = errors.New("invalid migration file format")
	ErrInvalidVersion       = errors.New("invalid migration version")
	ErrDuplicateVersion     = errors.New("duplicate migration version")
	// ErrChecksumMismatch means an applied migration file was edited afterwards.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
)

// MigrationError records which migration step failed. Source is the file
// for scanning problems and empty for database work.
type MigrationError struct {
	Version string
	Source  string
	Step    string
	Err     error
}

func (e *MigrationError) Error() string {
	var b strings.Builder
	b.WriteString("migration")
	if e.Version != "" {
		b.WriteString(" " + e.Version)
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " (%s)", e.Source)
	}
	fmt.Fprintf(&b, ": %s: %v", e.Step, e.Err)
	return b.String()
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// NewMigrationError wraps a failure tied to a migration file.
func NewMigrationError(version, source, step string, err error) *MigrationError {
	return &MigrationError{Version: version, Source: source, Step: step, Err: err}
}

// NewDatabaseError wraps a failure reported by the database itself.
func NewDatabaseError(version, step string, err error) *MigrationError {
	return &MigrationError{Version: version, Step: step, Err: err}
}
