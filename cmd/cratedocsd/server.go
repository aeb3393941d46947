package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/euphemism/cratedocs/internal/config"
	"github.com/euphemism/cratedocs/internal/migrations"
	"github.com/euphemism/cratedocs/internal/registry"
	"github.com/euphemism/cratedocs/internal/search"
	"github.com/euphemism/cratedocs/internal/server"
	"github.com/euphemism/cratedocs/internal/web"
	"github.com/euphemism/cratedocs/internal/web/page"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 200 { // Only capture first WriteHeader call
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func runServer(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Database.Path+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	// Run migrations
	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	store := registry.NewStore(db)
	pool := registry.NewPool(cfg.Pool.Size, cfg.Pool.AcquireTimeout.Duration())
	searcher := search.NewSearcher(store, logger.With("component", "search"))

	renderer, err := page.NewRenderer()
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}

	webServer := web.NewServer(store, pool, searcher, renderer, web.Config{
		SearchLimit: cfg.Search.Limit,
	}, logger.With("component", "web"))

	mux := http.NewServeMux()
	webServer.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting",
		"addr", addr,
		"database", cfg.Database.Path,
		"pool_size", cfg.Pool.Size,
		"log_level", cfg.Server.LogLevel,
	)

	runner := server.NewRunner(store, logRequests(mux, logger), server.Config{
		Addr:            addr,
		BuildTimeout:    cfg.Builds.Timeout.Duration(),
		JanitorInterval: cfg.Builds.JanitorInterval.Duration(),
	}, logger.With("component", "runner"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
