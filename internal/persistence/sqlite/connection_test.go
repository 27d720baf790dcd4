package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestErrorMapper_MapError(t *testing.T) {
	t.Parallel()

	mapper := NewErrorMapper()

	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "unique", err: errors.New("UNIQUE constraint failed: events.id"), want: errDuplicateRecord},
		{name: "not null", err: errors.New("NOT NULL constraint failed: events.title"), want: errConstraint},
		{name: "locked", err: errors.New("database is locked (5) (SQLITE_BUSY)"), want: errDatabaseLocked},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := mapper.MapError(tc.err); !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	t.Run("already classified errors are not wrapped twice", func(t *testing.T) {
		t.Parallel()
		mapped := mapper.MapError(errors.New("database is locked"))
		if again := mapper.MapError(mapped); again != mapped {
			t.Fatalf("expected mapped error to pass through, got %v", again)
		}
	})

	t.Run("unknown errors pass through", func(t *testing.T) {
		t.Parallel()
		original := errors.New("disk I/O error")
		if got := mapper.MapError(original); got != original {
			t.Fatalf("expected original error, got %v", got)
		}
	})
}

func TestRetryConfig_Delay(t *testing.T) {
	t.Parallel()

	config := RetryConfig{InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, BackoffFactor: 2}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond, 50 * time.Millisecond}
	for i, expected := range want {
		if got := config.delay(i + 1); got != expected {
			t.Fatalf("delay(%d) = %s, want %s", i+1, got, expected)
		}
	}
}

func TestRetryHelper_WithRetry(t *testing.T) {
	t.Parallel()

	config := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 2}

	t.Run("retries locked database until success", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		err := NewRetryHelper(config, quietLogger()).WithRetry(context.Background(), func() error {
			attempts++
			if attempts < 3 {
				return errors.New("database is locked")
			}
			return nil
		})
		if err != nil || attempts != 3 {
			t.Fatalf("expected success on third attempt, got %v after %d attempts", err, attempts)
		}
	})

	t.Run("does not retry other failures", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		err := NewRetryHelper(config, quietLogger()).WithRetry(context.Background(), func() error {
			attempts++
			return errors.New("UNIQUE constraint failed: events.id")
		})
		if !errors.Is(err, errDuplicateRecord) || attempts != 1 {
			t.Fatalf("expected single failed attempt, got %v after %d attempts", err, attempts)
		}
	})

	t.Run("stops when the context ends", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		slow := RetryConfig{MaxRetries: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, BackoffFactor: 1}
		err := NewRetryHelper(slow, quietLogger()).WithRetry(ctx, func() error {
			cancel()
			return errors.New("database is locked")
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		err := NewRetryHelper(config, quietLogger()).WithRetry(context.Background(), func() error {
			attempts++
			return errors.New("database is locked")
		})
		if !errors.Is(err, errDatabaseLocked) || attempts != 3 {
			t.Fatalf("expected locked error after 3 attempts, got %v after %d attempts", err, attempts)
		}
	})
}
