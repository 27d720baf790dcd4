package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/example/personal-calendar/internal/persistence"
	"github.com/example/personal-calendar/internal/persistence/filestore"
	"github.com/example/personal-calendar/internal/persistence/sqlite"
	"github.com/example/personal-calendar/internal/persistence/sqlite/migration"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MemoryStore is an in-memory persistence.EventStore that records saves and
// can be told to fail.
type MemoryStore struct {
	mu      sync.Mutex
	records []persistence.EventRecord
	saves   int

	LoadErr error
	SaveErr error
}

var _ persistence.EventStore = (*MemoryStore)(nil)

// NewMemoryStore returns a store preloaded with records.
func NewMemoryStore(records ...persistence.EventRecord) *MemoryStore {
	return &MemoryStore{records: persistence.CloneRecords(records)}
}

// Load returns a copy of the stored records.
func (m *MemoryStore) Load(ctx context.Context) ([]persistence.EventRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return persistence.CloneRecords(m.records), nil
}

// Save replaces the stored records unless SaveErr is set.
func (m *MemoryStore) Save(ctx context.Context, records []persistence.EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.records = persistence.CloneRecords(records)
	m.saves++
	return nil
}

// Records returns what was last saved.
func (m *MemoryStore) Records() []persistence.EventRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return persistence.CloneRecords(m.records)
}

// Saves returns how many successful saves happened.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// StoreHarness pairs a real store with the name used in subtests.
type StoreHarness struct {
	Name  string
	Store persistence.EventStore
}

// NewSQLiteStore opens a migrated SQLite store in a temporary directory and
// closes it when the test ends.
func NewSQLiteStore(tb testing.TB) *sqlite.EventStore {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "calendar.db")
	store, err := sqlite.Open(context.Background(), migration.DefaultSQLiteConfig(path), DiscardLogger())
	if err != nil {
		tb.Fatalf("failed to open sqlite store: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })
	return store
}

// NewFileStore returns a JSON file store in a temporary directory.
func NewFileStore(tb testing.TB) *filestore.Store {
	tb.Helper()
	return filestore.New(filepath.Join(tb.TempDir(), "events.json"), DiscardLogger())
}

// StoreHarnesses returns one of every durable store, for contract tests.
func StoreHarnesses(tb testing.TB) []StoreHarness {
	tb.Helper()
	return []StoreHarness{
		{Name: "sqlite", Store: NewSQLiteStore(tb)},
		{Name: "file", Store: NewFileStore(tb)},
	}
}
