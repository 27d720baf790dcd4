package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/personal-calendar/internal/application"
	"github.com/example/personal-calendar/internal/config"
	httptransport "github.com/example/personal-calendar/internal/http"
	"github.com/example/personal-calendar/internal/logging"
	"github.com/example/personal-calendar/internal/persistence"
	"github.com/example/personal-calendar/internal/persistence/filestore"
	"github.com/example/personal-calendar/internal/persistence/sqlite"
	"github.com/example/personal-calendar/internal/persistence/sqlite/migration"
	"github.com/example/personal-calendar/internal/recurrence"
)

const usage = `usage: calendar [serve | migrate | hash-password [password]]`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("calendar exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	command := "serve"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "hash-password":
		return hashPassword(args, stdin, stdout)
	case "serve", "migrate":
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}

	if err := config.LoadDotEnv(os.Getenv("CALENDAR_ENV_FILE")); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(stdout, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}

	if command == "migrate" {
		return migrate(ctx, cfg, logger, stdout)
	}
	return serve(ctx, cfg, logger)
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	engine := recurrence.NewEngine(cfg.Location)
	service := application.NewEventServiceWithLogger(store, engine, uuid.NewString, time.Now, logger)
	if _, err := service.Load(ctx); err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           newHandler(cfg, service, store.Ping, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("calendar API listening",
		"addr", server.Addr,
		"store", cfg.Store,
		"timezone", engine.Location().String(),
		"auth", cfg.AuthEnabled(),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server encountered error: %w", err)
	}
	logger.Info("calendar API stopped")
	return nil
}

func newHandler(cfg config.Config, service *application.EventService, health httptransport.HealthChecker, logger *slog.Logger) http.Handler {
	middleware := []func(http.Handler) http.Handler{
		httptransport.RequestLogger(logger),
		httptransport.CORS(cfg.AllowedOrigins),
	}
	if cfg.AuthEnabled() {
		middleware = append(middleware, httptransport.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthHash, logger))
	}

	return httptransport.NewRouter(httptransport.RouterConfig{
		Calendar:   httptransport.NewCalendarHandler(service, logger),
		Events:     httptransport.NewEventHandler(service, logger),
		Health:     health,
		Middleware: middleware,
	})
}

// calendarStore is an event store the process owns and must close.
type calendarStore interface {
	persistence.EventStore
	Ping(ctx context.Context) error
	Close() error
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (calendarStore, error) {
	switch cfg.Store {
	case config.StoreFile:
		return fileStore{filestore.New(cfg.FilePath, logger)}, nil
	default:
		store, err := sqlite.Open(ctx, migration.DefaultSQLiteConfig(cfg.SQLiteDSN), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		return store, nil
	}
}

// fileStore adapts the JSON file store, which holds no open resources.
type fileStore struct {
	*filestore.Store
}

func (f fileStore) Ping(ctx context.Context) error {
	if _, err := os.Stat(f.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (fileStore) Close() error { return nil }

func migrate(ctx context.Context, cfg config.Config, logger *slog.Logger, stdout io.Writer) error {
	if cfg.Store != config.StoreSQLite {
		return fmt.Errorf("migrate requires CALENDAR_STORE=%s, got %q", config.StoreSQLite, cfg.Store)
	}

	store, err := sqlite.Open(ctx, migration.DefaultSQLiteConfig(cfg.SQLiteDSN), logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	status, err := store.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	for _, applied := range status.AppliedMigrations {
		fmt.Fprintf(stdout, "applied %s at %s (%s)\n", applied.Version, applied.AppliedAt.Format(time.RFC3339), applied.ExecutionTime)
	}
	fmt.Fprintf(stdout, "schema version %s, %d pending\n", status.CurrentVersion, status.PendingCount)
	return nil
}

// hashPassword prints an argon2id hash for CALENDAR_BASIC_AUTH_HASH. The
// password comes from the argument or the first line of stdin.
func hashPassword(args []string, stdin io.Reader, stdout io.Writer) error {
	var password string
	if len(args) > 0 {
		password = args[0]
	} else {
		scanner := bufio.NewScanner(stdin)
		if scanner.Scan() {
			password = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}
	password = strings.TrimRight(password, "\r\n")
	if password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := application.CreatePasswordHash(password, application.DefaultArgon2idParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	_, err = fmt.Fprintln(stdout, hash)
	return err
}
