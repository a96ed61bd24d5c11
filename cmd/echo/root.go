package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoLSC/echo-emergent/internal/api"
	"github.com/MarcoLSC/echo-emergent/internal/config"
	"github.com/MarcoLSC/echo-emergent/internal/interpret"
	"github.com/MarcoLSC/echo-emergent/internal/session"
	"github.com/MarcoLSC/echo-emergent/internal/store"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "echo",
	Short: "Echo - Interactive Text Interpretation Service",
	RunE:  run,
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(newLogHandler(cfg.Log))
	slog.SetDefault(logger)
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	prefs, err := store.NewSQLiteStore(cfg.Database.Path, store.DefaultRecordName)
	if err != nil {
		return err
	}
	slog.Info("preference store initialized", "path", cfg.Database.Path)

	backend := newBackend(cfg, prefs)
	slog.Info("backend initialized", "backend", backend.Name())

	interpreter := interpret.New(backend,
		interpret.WithDebounce(time.Duration(cfg.Interpreter.Debounce)),
		interpret.WithMinGrowth(cfg.Interpreter.MinGrowth),
		interpret.WithCacheSize(cfg.Interpreter.CacheSize),
	)

	sessionLog := session.NewLog()
	hub := api.NewHub()
	handler := api.NewHandler(sessionLog, interpreter, prefs, hub, cfg.Auth.APIKey, Version)
	router := api.NewRouter(handler)
	slog.Info("router initialized")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called
		// gracefully. Anything else is a real failure.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// Drain in-flight requests, stop the debounce timer, then close the
	// store last so late interpretations can still read preferences.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	interpreter.Close()

	if err := prefs.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newBackend builds the interpretation backend from config. The pattern
// matcher is always present; the remote model wraps it as a fallback chain
// when enabled.
func newBackend(cfg *config.Config, prefs store.Store) interpret.Backend {
	pattern := interpret.NewPatternBackend(prefs,
		interpret.WithFailureRate(cfg.Interpreter.FailureRate),
		interpret.WithLatency(
			time.Duration(cfg.Interpreter.LatencyMin),
			time.Duration(cfg.Interpreter.LatencyMax)),
	)
	if cfg.AI.Enabled {
		return interpret.NewOpenAIBackend(cfg.AI.APIKey, cfg.AI.Model, pattern)
	}
	return pattern
}

func newLogHandler(cfg config.LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}

func parseLogLevel(level string) slog.Level {
	switch level {
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
