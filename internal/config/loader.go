package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/example/personal-calendar/internal/application"
	"github.com/example/personal-calendar/internal/logging"
)

// Supported event stores.
const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"
)

// Config captures environment driven configuration values for the calendar service.
type Config struct {
	HTTPPort        int           `yaml:"http_port"`
	Store           string        `yaml:"store"`
	SQLiteDSN       string        `yaml:"sqlite_dsn"`
	FilePath        string        `yaml:"file_path"`
	Timezone        string        `yaml:"timezone"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	BasicAuthUser   string        `yaml:"basic_auth_user"`
	BasicAuthHash   string        `yaml:"basic_auth_hash"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Location is resolved from Timezone by Load.
	Location *time.Location `yaml:"-"`
}

// AuthEnabled reports whether HTTP basic authentication is configured.
func (c Config) AuthEnabled() bool {
	return c.BasicAuthUser != ""
}

func defaults() Config {
	return Config{
		HTTPPort:        8080,
		Store:           StoreSQLite,
		SQLiteDSN:       "calendar.db",
		FilePath:        "events.json",
		Timezone:        "Local",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,
	}
}

// LoadDotEnv copies entries from a .env file into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf(".env ファイルを読み込めません: %w", err)
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// When CALENDAR_CONFIG_FILE names a YAML file its values replace the
// defaults; environment variables win over both. Missing and invalid
// entries are reported together.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CALENDAR_CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if portValue := strings.TrimSpace(os.Getenv("CALENDAR_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil {
			invalid = append(invalid, "CALENDAR_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = appendOnce(invalid, "CALENDAR_HTTP_PORT")
	}

	setString(&cfg.Store, "CALENDAR_STORE")
	cfg.Store = strings.ToLower(cfg.Store)
	switch cfg.Store {
	case StoreSQLite:
		setString(&cfg.SQLiteDSN, "CALENDAR_SQLITE_DSN")
		if cfg.SQLiteDSN == "" {
			missing = append(missing, "CALENDAR_SQLITE_DSN")
		}
	case StoreFile:
		setString(&cfg.FilePath, "CALENDAR_FILE_PATH")
		if cfg.FilePath == "" {
			missing = append(missing, "CALENDAR_FILE_PATH")
		}
	default:
		invalid = append(invalid, "CALENDAR_STORE")
	}

	setString(&cfg.Timezone, "CALENDAR_TIMEZONE")
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		invalid = append(invalid, "CALENDAR_TIMEZONE")
	} else {
		cfg.Location = loc
	}

	if origins := strings.TrimSpace(os.Getenv("CALENDAR_ALLOWED_ORIGINS")); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	setString(&cfg.BasicAuthUser, "CALENDAR_BASIC_AUTH_USER")
	setString(&cfg.BasicAuthHash, "CALENDAR_BASIC_AUTH_HASH")
	switch {
	case cfg.BasicAuthUser != "" && cfg.BasicAuthHash == "":
		missing = append(missing, "CALENDAR_BASIC_AUTH_HASH")
	case cfg.BasicAuthUser == "" && cfg.BasicAuthHash != "":
		missing = append(missing, "CALENDAR_BASIC_AUTH_USER")
	case cfg.BasicAuthHash != "":
		if err := application.ValidatePasswordHash(cfg.BasicAuthHash); err != nil {
			invalid = append(invalid, "CALENDAR_BASIC_AUTH_HASH")
		}
	}

	setString(&cfg.LogLevel, "CALENDAR_LOG_LEVEL")
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		invalid = append(invalid, "CALENDAR_LOG_LEVEL")
	}
	setString(&cfg.LogFormat, "CALENDAR_LOG_FORMAT")
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		invalid = append(invalid, "CALENDAR_LOG_FORMAT")
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("CALENDAR_SHUTDOWN_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "CALENDAR_SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	} else if cfg.ShutdownTimeout <= 0 {
		invalid = append(invalid, "CALENDAR_SHUTDOWN_TIMEOUT")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルを読み込めません: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("設定ファイルの形式が不正です: %s: %w", path, err)
	}
	return nil
}

func setString(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func appendOnce(list []string, key string) []string {
	for _, existing := range list {
		if existing == key {
			return list
		}
	}
	return append(list, key)
}
