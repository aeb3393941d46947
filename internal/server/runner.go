// Package server manages the long-running components of the daemon.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/euphemism/cratedocs/internal/registry"
)

// Config for the daemon runner.
type Config struct {
	Addr            string
	BuildTimeout    time.Duration
	JanitorInterval time.Duration
	ShutdownTimeout time.Duration
}

// Runner owns the HTTP server and the background build janitor.
type Runner struct {
	store   *registry.Store
	handler http.Handler
	config  Config
	logger  *slog.Logger
}

// NewRunner creates a new runner serving the given handler.
func NewRunner(store *registry.Store, handler http.Handler, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BuildTimeout == 0 {
		cfg.BuildTimeout = 2 * time.Hour
	}
	if cfg.JanitorInterval == 0 {
		cfg.JanitorInterval = 10 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Runner{
		store:   store,
		handler: handler,
		config:  cfg,
		logger:  logger,
	}
}

// Run starts the HTTP server and the janitor. It blocks until the context
// is canceled or a component fails. Cancellation is a clean shutdown and
// returns nil.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    r.config.Addr,
		Handler: r.handler,
	}

	g.Go(func() error {
		r.logger.Info("http server listening", "addr", r.config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), r.config.ShutdownTimeout)
		defer cancel()
		r.logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return r.runJanitor(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runJanitor periodically fails builds stuck past the build timeout.
func (r *Runner) runJanitor(ctx context.Context) error {
	log := r.logger.With("component", "janitor")
	ticker := time.NewTicker(r.config.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := r.store.FailStaleBuilds(time.Now().Add(-r.config.BuildTimeout))
			if err != nil {
				log.Error("stale build sweep failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("failed stale builds", "count", n)
			}
		}
	}
}
