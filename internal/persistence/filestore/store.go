// Package filestore keeps event records as a single JSON array in a file,
// the same blob the browser front-end keeps under its "events" key.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/example/personal-calendar/internal/logging"
	"github.com/example/personal-calendar/internal/persistence"
)

// Store is a persistence.EventStore backed by one JSON file.
type Store struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

var _ persistence.EventStore = (*Store)(nil)

// New returns a store reading and writing path. The file is created on the
// first Save.
func New(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the stored array. A missing or empty file yields no records.
// Array elements that are not objects of the expected shape are logged and
// skipped; a file that is not an array at all wraps persistence.ErrCorruptRecord.
func (s *Store) Load(ctx context.Context) ([]persistence.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read events file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: events file %s: %v", persistence.ErrCorruptRecord, s.path, err)
	}

	logger := logging.FromContextOr(ctx, s.logger)
	records := make([]persistence.EventRecord, 0, len(raw))
	for i, element := range raw {
		var record persistence.EventRecord
		if err := json.Unmarshal(element, &record); err != nil {
			logger.WarnContext(ctx, "skipping unreadable event record",
				"path", s.path,
				"index", i,
				"error", err,
			)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Save writes records to a temporary file next to the target and renames
// it into place.
func (s *Store) Save(ctx context.Context, records []persistence.EventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []persistence.EventRecord{}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create events directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp events file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp events file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp events file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp events file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace events file: %w", err)
	}
	return nil
}
