package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/example/personal-calendar/internal/persistence/sqlite/migration"
)

// ConnectionPool wraps the configured *sql.DB with transaction support.
type ConnectionPool struct {
	db     *sql.DB
	config migration.SQLiteConfig
}

// NewConnectionPool opens the database described by config.
func NewConnectionPool(config migration.SQLiteConfig) (*ConnectionPool, error) {
	db, err := migration.OpenDB(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return &ConnectionPool{db: db, config: config}, nil
}

// DB returns the underlying database handle.
func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

// Close closes the pool.
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Ping checks that the database answers.
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// TransactionFunc runs inside a transaction.
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction executes fn within a database transaction. The transaction
// is rolled back when fn returns an error or panics, and committed otherwise.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := cp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var (
	errDuplicateRecord = errors.New("duplicate record")
	errConstraint      = errors.New("constraint violation")
	errDatabaseLocked  = errors.New("database locked")
)

// ErrorMapper classifies driver errors so callers can match them with
// errors.Is. The original error stays in the chain.
type ErrorMapper struct{}

// NewErrorMapper creates a new error mapper
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// MapError wraps err with the matching sentinel, if any.
func (em *ErrorMapper) MapError(err error) error {
	if err == nil {
		return nil
	}
	if kind := classify(err); kind != nil {
		if errors.Is(err, kind) {
			return err
		}
		return fmt.Errorf("%w: %w", kind, err)
	}
	return err
}

// classify prefers the driver's extended result code and falls back to the
// message for errors that lost their type on the way up.
func classify(err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		switch code {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return errDuplicateRecord
		}
		switch code & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			return errConstraint
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return errDatabaseLocked
		}
		return nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"), strings.Contains(msg, "PRIMARY KEY constraint failed"):
		return errDuplicateRecord
	case strings.Contains(msg, "constraint failed"):
		return errConstraint
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "SQLITE_BUSY"):
		return errDatabaseLocked
	}
	return nil
}

// RetryConfig configures retry behavior for database operations
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns a retry configuration with sensible defaults
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

// delay returns the wait before retry number attempt (1-based).
func (c RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= c.BackoffFactor
	}
	if max := float64(c.MaxDelay); c.MaxDelay > 0 && d > max {
		d = max
	}
	return time.Duration(d)
}

// RetryHelper reruns operations that fail because another connection holds
// the database lock. Other failures return immediately.
type RetryHelper struct {
	config RetryConfig
	mapper *ErrorMapper
	logger *slog.Logger
}

// NewRetryHelper creates a retry helper that logs each retry to logger.
func NewRetryHelper(config RetryConfig, logger *slog.Logger) *RetryHelper {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryHelper{config: config, mapper: NewErrorMapper(), logger: logger}
}

// WithRetry executes fn until it succeeds, fails with something other than
// a locked database, or runs out of retries.
func (rh *RetryHelper) WithRetry(ctx context.Context, fn func() error) error {
	err := rh.mapper.MapError(fn())
	for attempt := 1; err != nil && errors.Is(err, errDatabaseLocked); attempt++ {
		if attempt > rh.config.MaxRetries {
			return fmt.Errorf("operation failed after %d retries: %w", rh.config.MaxRetries, err)
		}

		wait := rh.config.delay(attempt)
		rh.logger.WarnContext(ctx, "database locked, retrying", "attempt", attempt, "wait", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		err = rh.mapper.MapError(fn())
	}
	return err
}
