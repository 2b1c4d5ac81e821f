// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/starford/laguz/internal/api"
	"github.com/starford/laguz/internal/cycle"
	"github.com/starford/laguz/internal/engine"
	"github.com/starford/laguz/internal/journal"
	"github.com/starford/laguz/internal/locator"
	"github.com/starford/laguz/internal/mcpserver"
	"github.com/starford/laguz/internal/storage"
)

// Run starts the webhook server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_backend", cfg.Vault.Backend),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	eng, db, err := buildEngine(app, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	clock, err := buildClock(cfg)
	if err != nil {
		return err
	}
	h := api.NewHandler(eng, db, clock, cfg.Cycle.RolloverHour)
	webhooks := api.NewRouter(h, api.Secrets{
		Todoist:  cfg.Webhooks.TodoistSecret,
		Telegram: cfg.Webhooks.TelegramSecret,
		Linear:   cfg.Webhooks.LinearSecret,
		Github:   cfg.Webhooks.GithubSecret,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/", webhooks)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP server on stdin/stdout. Logs go to stderr since
// stdout carries the protocol.
func RunMCP(opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store, err := buildStore(app, cfg, logger)
	if err != nil {
		return err
	}
	eng, db, err := buildEngineWithStore(store, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return mcpserver.New(eng, store).ServeStdio()
}

// buildEngine wires the store, journal, and engine from the configuration.
func buildEngine(app *application, cfg *Config, logger *slog.Logger) (*engine.Engine, *journal.DB, error) {
	store, err := buildStore(app, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return buildEngineWithStore(store, cfg, logger)
}

func buildEngineWithStore(store storage.Provider, cfg *Config, logger *slog.Logger) (*engine.Engine, *journal.DB, error) {
	db, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init journal: %w", err)
	}

	clock, err := buildClock(cfg)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	anchor, err := cfg.Cycle.Weekday()
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	eng := engine.New(store, locator.New(store), db, clock, logger, engine.Options{
		RolloverHour:  cfg.Cycle.RolloverHour,
		AnchorWeekday: anchor,
	})
	return eng, db, nil
}

func buildClock(cfg *Config) (cycle.Clock, error) {
	loc, err := cfg.Cycle.Location()
	if err != nil {
		return nil, err
	}
	return cycle.SystemClock{Loc: loc}, nil
}

// buildStore selects the document store backend.
func buildStore(app *application, cfg *Config, logger *slog.Logger) (storage.Provider, error) {
	if app.store != nil {
		return app.store, nil
	}
	switch cfg.Vault.Backend {
	case VaultBackendDropbox:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return storage.NewDropbox(storage.DropboxConfig{
			AppKey:       cfg.Vault.Dropbox.AppKey,
			AppSecret:    cfg.Vault.Dropbox.AppSecret,
			RefreshToken: cfg.Vault.Dropbox.RefreshToken,
			VaultRoot:    cfg.Vault.Dropbox.Root,
			MaxRetries:   cfg.Vault.Dropbox.MaxRetries,
		}, rdb, logger), nil
	default:
		if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create vault dir: %w", err)
		}
		fs, err := storage.NewFS(cfg.Vault.Path)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		return fs, nil
	}
}
