package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/example/personal-calendar/internal/persistence"
	"github.com/example/personal-calendar/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// EventStore keeps event records in a SQLite database. The whole list is
// replaced on every Save, in one transaction.
type EventStore struct {
	pool   *ConnectionPool
	retry  *RetryHelper
	mapper *ErrorMapper
}

var _ persistence.EventStore = (*EventStore)(nil)

// Open connects to the database described by config and applies any
// pending schema migrations.
func Open(ctx context.Context, config migration.SQLiteConfig, logger *slog.Logger) (*EventStore, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}

	if err := Migrate(ctx, pool.DB(), logger); err != nil {
		pool.Close()
		return nil, err
	}

	return &EventStore{
		pool:   pool,
		retry:  NewRetryHelper(DefaultRetryConfig(), logger),
		mapper: NewErrorMapper(),
	}, nil
}

// Migrate applies the embedded schema migrations to db.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	manager, err := newMigrationManager(db, logger)
	if err != nil {
		return err
	}
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrate events schema: %w", err)
	}
	return nil
}

// MigrationStatus reports the applied and pending schema migrations.
func (s *EventStore) MigrationStatus(ctx context.Context) (*migration.MigrationStatus, error) {
	manager, err := newMigrationManager(s.pool.DB(), nil)
	if err != nil {
		return nil, err
	}
	return manager.GetMigrationStatus(ctx)
}

func newMigrationManager(db *sql.DB, logger *slog.Logger) (migration.MigrationManager, error) {
	files, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return migration.NewMigrationManager(migration.NewFileScanner(files), migration.NewSQLiteExecutor(db), logger), nil
}

// Close releases the underlying connection pool.
func (s *EventStore) Close() error {
	return s.pool.Close()
}

// Ping reports whether the database is reachable.
func (s *EventStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Load returns every stored record in saved order.
func (s *EventStore) Load(ctx context.Context) ([]persistence.EventRecord, error) {
	rows, err := s.pool.DB().QueryContext(ctx, `
		SELECT id, title, description, time, date, repeat, week_days, custom_interval
		FROM events
		ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", s.mapper.MapError(err))
	}
	defer rows.Close()

	var records []persistence.EventRecord
	for rows.Next() {
		var (
			record persistence.EventRecord
			mask   int64
		)
		if err := rows.Scan(
			&record.ID,
			&record.Title,
			&record.Description,
			&record.Time,
			&record.Date,
			&record.Repeat,
			&mask,
			&record.CustomInterval,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		record.WeekDays = decodeWeekdays(mask)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return records, nil
}

// Save replaces the stored list with records.
func (s *EventStore) Save(ctx context.Context, records []persistence.EventRecord) error {
	err := s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
				return err
			}

			stmt, err := tx.PrepareContext(ctx, `
				INSERT INTO events (id, position, title, description, time, date, repeat, week_days, custom_interval)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
			if err != nil {
				return err
			}
			defer stmt.Close()

			for i, record := range records {
				if _, err := stmt.ExecContext(ctx,
					record.ID,
					i,
					record.Title,
					record.Description,
					record.Time,
					record.Date,
					record.Repeat,
					encodeWeekdays(record.WeekDays),
					record.CustomInterval,
				); err != nil {
					return fmt.Errorf("insert event %s: %w", record.ID, err)
				}
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("save events: %w", s.mapper.MapError(err))
	}
	return nil
}

// encodeWeekdays encodes weekdays as a bitmask for storage
func encodeWeekdays(weekdays []int) int64 {
	var mask int64
	for _, day := range weekdays {
		if day >= int(time.Sunday) && day <= int(time.Saturday) {
			mask |= 1 << uint(day)
		}
	}
	return mask
}

// decodeWeekdays decodes weekdays from a bitmask
func decodeWeekdays(mask int64) []int {
	var weekdays []int
	for day := int(time.Sunday); day <= int(time.Saturday); day++ {
		if mask&(1<<uint(day)) != 0 {
			weekdays = append(weekdays, day)
		}
	}
	return weekdays
}
