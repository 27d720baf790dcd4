package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextLogger(t *testing.T) {
	t.Parallel()

	base := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	t.Run("round-trips through context", func(t *testing.T) {
		t.Parallel()

		ctx := ContextWithLogger(context.Background(), base)
		if FromContext(ctx) != base {
			t.Fatalf("expected stored logger")
		}
	})

	t.Run("fallbacks", func(t *testing.T) {
		t.Parallel()

		if FromContext(context.Background()) != nil {
			t.Fatalf("expected nil logger on bare context")
		}
		if FromContextOr(context.Background(), base) != base {
			t.Fatalf("expected base logger")
		}
		if FromContextOr(context.Background(), nil) != slog.Default() {
			t.Fatalf("expected default logger")
		}
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json output honours level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger, err := New(&buf, "json", "warn")
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		logger.Info("hidden")
		logger.Warn("shown", "key", "value")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Fatalf("expected info to be filtered, got %s", out)
		}
		if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"key":"value"`) {
			t.Fatalf("expected json record, got %s", out)
		}
	})

	t.Run("rejects unknown settings", func(t *testing.T) {
		t.Parallel()

		if _, err := New(&bytes.Buffer{}, "xml", "info"); err == nil {
			t.Fatalf("expected error for unknown format")
		}
		if _, err := New(&bytes.Buffer{}, "text", "loud"); err == nil {
			t.Fatalf("expected error for unknown level")
		}
	})
}

func TestScoped(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	Scoped(context.Background(), base, "service", "EventService", "Create", "event_id", "e1").Info("hello")
	Scoped(context.Background(), base, "handler", "Health", "").Info("bye")

	out := buf.String()
	for _, want := range []string{"service=EventService operation=Create event_id=e1", "msg=bye handler=Health"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %s", want, out)
		}
	}
	if strings.Count(out, "operation=") != 1 {
		t.Fatalf("expected empty operation to be omitted: %s", out)
	}
}
