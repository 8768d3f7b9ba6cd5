// Package app wires configuration into a running bridge.
package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joelklabo/codic-slack/internal/codic"
	"github.com/joelklabo/codic-slack/internal/config"
	"github.com/joelklabo/codic-slack/internal/core"
	"github.com/joelklabo/codic-slack/internal/server"
	"github.com/joelklabo/codic-slack/internal/slackhook"
	"github.com/joelklabo/codic-slack/internal/store"
)

// DispatcherFunc picks how accepted commands run once acknowledged.
type DispatcherFunc func(r *core.Runner) core.Dispatcher

// App is a fully wired bridge.
type App struct {
	Runner     *core.Runner
	Dispatcher core.Dispatcher
	Server     *server.Server
	Store      *store.Store
}

// Close releases the registry, if one was opened.
func (a *App) Close() error {
	return a.Store.Close()
}

// Build constructs the Codic client, Slack sink, optional registry, runner,
// dispatcher and HTTP server from cfg. A nil dispatch runs jobs on local
// goroutines.
func Build(cfg *config.Config, logger *slog.Logger, dispatch DispatcherFunc) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	translator := codic.New(codic.Config{
		BaseURL:       cfg.Codic.BaseURL,
		Token:         cfg.Codic.Token,
		Timeout:       cfg.CodicTimeout(),
		RatePerSecond: cfg.Codic.RatePerSecond,
		Burst:         cfg.Codic.Burst,
	})
	sink := slackhook.New(slackhook.Config{Timeout: cfg.SlackTimeout()})

	var (
		opts []core.RunnerOption
		st   *store.Store
	)
	if cfg.Registry.Enable {
		var err error
		st, err = store.New(cfg.Registry.Path)
		if err != nil {
			return nil, fmt.Errorf("open registry: %w", err)
		}
		opts = append(opts, core.WithResolver(st))
	}

	runner := core.NewRunner(translator, sink, logger, opts...)
	var d core.Dispatcher
	if dispatch != nil {
		d = dispatch(runner)
	} else {
		d = core.NewGoDispatcher(runner, cfg.JobTimeout())
	}

	srv := server.New(d, server.Options{
		Listen:            cfg.Server.Listen,
		SigningSecret:     cfg.Server.SigningSecret,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout(),
		Metrics:           cfg.Metrics.Enable,
		Logger:            logger,
	})
	return &App{Runner: runner, Dispatcher: d, Server: srv, Store: st}, nil
}

// NewLogger builds the process logger from the logging section. The
// returned closer releases the log file, if any.
func NewLogger(cfg config.LoggingConfig, stdout io.Writer) (*slog.Logger, io.Closer, error) {
	var (
		out    = stdout
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}
	if out == nil {
		return nil, nil, errors.New("no log destination")
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var h slog.Handler
	switch cfg.Format {
	case "json":
		h = slog.NewJSONHandler(out, opts)
	default:
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(h), closer, nil
}

func parseLevel(s string) slog.Level {
	switch s {
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

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
