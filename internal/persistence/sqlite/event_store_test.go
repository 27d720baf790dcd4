package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"testing"

	"github.com/example/personal-calendar/internal/persistence"
	"github.com/example/personal-calendar/internal/persistence/sqlite/migration"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openMemoryStore(t *testing.T) *EventStore {
	t.Helper()

	store, err := Open(context.Background(), migration.InMemoryTestSQLiteConfig(), quietLogger())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecords() []persistence.EventRecord {
	return []persistence.EventRecord{
		{ID: "b", Title: "Gym", Time: "18:30", Date: "2024-03-04T18:30:00Z", Repeat: "weekly", WeekDays: []int{1, 3, 5}, CustomInterval: 1},
		{ID: "a", Title: "Dentist", Description: "Bring x-rays", Date: "2024-03-12T00:00:00Z", Repeat: "none", CustomInterval: 1},
		{ID: "c", Title: "Water plants", Date: "2024-03-01T00:00:00Z", Repeat: "custom", CustomInterval: 3},
	}
}

func TestEventStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty database loads no records", func(t *testing.T) {
		t.Parallel()

		records, err := openMemoryStore(t).Load(ctx)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if len(records) != 0 {
			t.Fatalf("expected no records, got %d", len(records))
		}
	})

	t.Run("round-trips records in saved order", func(t *testing.T) {
		t.Parallel()

		store := openMemoryStore(t)
		want := sampleRecords()
		if err := store.Save(ctx, want); err != nil {
			t.Fatalf("Save returned error: %v", err)
		}

		got, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("expected %d records, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i].ID != want[i].ID || got[i].Title != want[i].Title || got[i].Date != want[i].Date {
				t.Fatalf("record %d mismatch: got %+v want %+v", i, got[i], want[i])
			}
			if got[i].Repeat != want[i].Repeat || got[i].CustomInterval != want[i].CustomInterval {
				t.Fatalf("record %d recurrence mismatch: got %+v want %+v", i, got[i], want[i])
			}
			if !slices.Equal(got[i].WeekDays, want[i].WeekDays) {
				t.Fatalf("record %d weekdays mismatch: got %v want %v", i, got[i].WeekDays, want[i].WeekDays)
			}
		}
		if got[1].Description != "Bring x-rays" {
			t.Fatalf("expected description to survive, got %q", got[1].Description)
		}
	})

	t.Run("save replaces the previous list", func(t *testing.T) {
		t.Parallel()

		store := openMemoryStore(t)
		if err := store.Save(ctx, sampleRecords()); err != nil {
			t.Fatalf("Save returned error: %v", err)
		}
		if err := store.Save(ctx, sampleRecords()[:1]); err != nil {
			t.Fatalf("Save returned error: %v", err)
		}

		got, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if len(got) != 1 || got[0].ID != "b" {
			t.Fatalf("expected only record b, got %+v", got)
		}
	})

	t.Run("duplicate ids roll back the whole save", func(t *testing.T) {
		t.Parallel()

		store := openMemoryStore(t)
		if err := store.Save(ctx, sampleRecords()); err != nil {
			t.Fatalf("Save returned error: %v", err)
		}

		dup := []persistence.EventRecord{
			{ID: "x", Title: "One", Date: "2024-03-01T00:00:00Z"},
			{ID: "x", Title: "Two", Date: "2024-03-02T00:00:00Z"},
		}
		if err := store.Save(ctx, dup); err == nil {
			t.Fatalf("expected duplicate id to fail")
		}

		got, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected previous list to survive, got %d records", len(got))
		}
	})

	t.Run("file database survives reopen", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "calendar.db")
		store, err := Open(ctx, migration.DefaultSQLiteConfig(path), quietLogger())
		if err != nil {
			t.Fatalf("Open returned error: %v", err)
		}
		if err := store.Save(ctx, sampleRecords()); err != nil {
			t.Fatalf("Save returned error: %v", err)
		}
		store.Close()

		reopened, err := Open(ctx, migration.DefaultSQLiteConfig(path), quietLogger())
		if err != nil {
			t.Fatalf("reopen returned error: %v", err)
		}
		defer reopened.Close()

		got, err := reopened.Load(ctx)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if len(got) != 3 || got[2].ID != "c" {
			t.Fatalf("expected persisted records, got %+v", got)
		}
	})
}

func TestWeekdayMask(t *testing.T) {
	t.Parallel()

	mask := encodeWeekdays([]int{5, 1, 1, 9, -1, 0})
	if mask != 0b100011 {
		t.Fatalf("unexpected mask %b", mask)
	}
	if got := decodeWeekdays(mask); !slices.Equal(got, []int{0, 1, 5}) {
		t.Fatalf("unexpected weekdays %v", got)
	}
	if got := decodeWeekdays(0); got != nil {
		t.Fatalf("expected nil weekdays for empty mask, got %v", got)
	}
}

func TestEventStoreMigrationStatus(t *testing.T) {
	t.Parallel()

	status, err := openMemoryStore(t).MigrationStatus(context.Background())
	if err != nil {
		t.Fatalf("MigrationStatus returned error: %v", err)
	}
	if status.CurrentVersion != "001" || status.PendingCount != 0 || len(status.AppliedMigrations) != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
}
