package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/personal-calendar/internal/application"
)

var allKeys = []string{
	"CALENDAR_CONFIG_FILE",
	"CALENDAR_HTTP_PORT",
	"CALENDAR_STORE",
	"CALENDAR_SQLITE_DSN",
	"CALENDAR_FILE_PATH",
	"CALENDAR_TIMEZONE",
	"CALENDAR_ALLOWED_ORIGINS",
	"CALENDAR_BASIC_AUTH_USER",
	"CALENDAR_BASIC_AUTH_HASH",
	"CALENDAR_LOG_LEVEL",
	"CALENDAR_LOG_FORMAT",
	"CALENDAR_SHUTDOWN_TIMEOUT",
}

// clearEnv blanks every key; Load treats empty values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func testHash(t *testing.T) string {
	t.Helper()
	hash, err := application.CreatePasswordHash("pw", application.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16})
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}
	return hash
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.Store != StoreSQLite || cfg.SQLiteDSN != "calendar.db" {
			t.Fatalf("unexpected default store: %q %q", cfg.Store, cfg.SQLiteDSN)
		}
		if cfg.Location != time.Local {
			t.Fatalf("expected local time zone, got %v", cfg.Location)
		}
		if cfg.AuthEnabled() {
			t.Fatalf("expected auth to be disabled by default")
		}
		if cfg.ShutdownTimeout != 10*time.Second {
			t.Fatalf("expected 10s shutdown timeout, got %s", cfg.ShutdownTimeout)
		}
	})

	t.Run("parses every field", func(t *testing.T) {
		clearEnv(t)
		hash := testHash(t)
		t.Setenv("CALENDAR_HTTP_PORT", "9090")
		t.Setenv("CALENDAR_STORE", "FILE")
		t.Setenv("CALENDAR_FILE_PATH", "/tmp/events.json")
		t.Setenv("CALENDAR_TIMEZONE", "Asia/Tokyo")
		t.Setenv("CALENDAR_ALLOWED_ORIGINS", "http://localhost:5173, https://cal.example.com,")
		t.Setenv("CALENDAR_BASIC_AUTH_USER", "me")
		t.Setenv("CALENDAR_BASIC_AUTH_HASH", hash)
		t.Setenv("CALENDAR_LOG_LEVEL", "debug")
		t.Setenv("CALENDAR_LOG_FORMAT", "text")
		t.Setenv("CALENDAR_SHUTDOWN_TIMEOUT", "3s")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 || cfg.Store != StoreFile || cfg.FilePath != "/tmp/events.json" {
			t.Fatalf("unexpected config %+v", cfg)
		}
		if cfg.Location == nil || cfg.Location.String() != "Asia/Tokyo" {
			t.Fatalf("expected Asia/Tokyo, got %v", cfg.Location)
		}
		if strings.Join(cfg.AllowedOrigins, "|") != "http://localhost:5173|https://cal.example.com" {
			t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
		}
		if !cfg.AuthEnabled() || cfg.BasicAuthHash != hash {
			t.Fatalf("expected auth to be configured")
		}
		if cfg.ShutdownTimeout != 3*time.Second || cfg.LogFormat != "text" {
			t.Fatalf("unexpected config %+v", cfg)
		}
	})

	t.Run("reports missing values together", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CALENDAR_BASIC_AUTH_USER", "me")
		t.Setenv("CALENDAR_HTTP_PORT", "abc")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "必須の環境変数が設定されていません: CALENDAR_BASIC_AUTH_HASH"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("reports invalid values together", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CALENDAR_HTTP_PORT", "70000")
		t.Setenv("CALENDAR_STORE", "postgres")
		t.Setenv("CALENDAR_TIMEZONE", "Mars/Olympus")
		t.Setenv("CALENDAR_BASIC_AUTH_USER", "me")
		t.Setenv("CALENDAR_BASIC_AUTH_HASH", "plaintext")
		t.Setenv("CALENDAR_LOG_LEVEL", "loud")
		t.Setenv("CALENDAR_LOG_FORMAT", "xml")
		t.Setenv("CALENDAR_SHUTDOWN_TIMEOUT", "-1s")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		expected := "環境変数の値が不正です: CALENDAR_HTTP_PORT, CALENDAR_STORE, CALENDAR_TIMEZONE, " +
			"CALENDAR_BASIC_AUTH_HASH, CALENDAR_LOG_LEVEL, CALENDAR_LOG_FORMAT, CALENDAR_SHUTDOWN_TIMEOUT"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})
}

func TestLoader_ConfigFile(t *testing.T) {

	t.Run("file values apply and environment wins", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "calendar.yaml")
		content := strings.Join([]string{
			"http_port: 7070",
			"store: file",
			"file_path: /var/lib/calendar/events.json",
			"timezone: UTC",
			"allowed_origins:",
			"  - https://a.example.com",
			"shutdown_timeout: 30s",
		}, "\n")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}
		t.Setenv("CALENDAR_CONFIG_FILE", path)
		t.Setenv("CALENDAR_HTTP_PORT", "6060")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 6060 {
			t.Fatalf("expected environment port to win, got %d", cfg.HTTPPort)
		}
		if cfg.Store != StoreFile || cfg.FilePath != "/var/lib/calendar/events.json" {
			t.Fatalf("expected file store from config file, got %+v", cfg)
		}
		if len(cfg.AllowedOrigins) != 1 || cfg.ShutdownTimeout != 30*time.Second {
			t.Fatalf("unexpected config %+v", cfg)
		}
	})

	t.Run("unreadable file fails", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CALENDAR_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

		if _, err := Load(); err == nil {
			t.Fatalf("expected error for missing config file")
		}
	})

	t.Run("malformed file fails", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "calendar.yaml")
		if err := os.WriteFile(path, []byte("http_port: [1, 2"), 0o600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}
		t.Setenv("CALENDAR_CONFIG_FILE", path)

		if _, err := Load(); err == nil {
			t.Fatalf("expected error for malformed config file")
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CALENDAR_LOG_LEVEL=warn\n"), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	// godotenv only fills variables that are unset, so drop the blank one.
	if err := os.Unsetenv("CALENDAR_LOG_LEVEL"); err != nil {
		t.Fatalf("failed to unset: %v", err)
	}
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv returned error: %v", err)
	}
	if got := os.Getenv("CALENDAR_LOG_LEVEL"); got != "warn" {
		t.Fatalf("expected warn from .env, got %q", got)
	}
}
