package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/config"
	"github.com/felixgeelhaar/promptcraft/internal/daemon"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Version is set at build time via ldflags
var Version = "dev"

const pidFileName = "promptcraftd.pid"

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	dir, err := config.EnsureDir()
	if err != nil {
		return fmt.Errorf("ensure promptcraft dir: %w", err)
	}

	// .env first, then config.yaml, then PROMPTCRAFT_* overrides
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile := setupLogging(cfg, dir)
	defer logFile.Close()

	pidPath := filepath.Join(dir, pidFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := daemon.NewServer(ctx, daemon.ServerConfig{
		Config:  cfg,
		DataDir: dir,
		Version: Version,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		slog.Info("received signal, shutting down", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		close(done)
	}()

	if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("daemon stopped")
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// setupLogging logs JSON to a rotating file and text to stderr
func setupLogging(cfg *config.LocalConfig, dir string) io.Closer {
	level := parseLogLevel(cfg.Daemon.LogLevel)

	logFile := &lumberjack.Logger{
		Filename:   cfg.LogFile(dir),
		MaxSize:    cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAgeDays,
		Compress:   true,
	}

	slog.SetDefault(slog.New(&multiHandler{
		handlers: []slog.Handler{
			slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level}),
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
		},
	}))

	return logFile
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644)
}

// multiHandler logs to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
