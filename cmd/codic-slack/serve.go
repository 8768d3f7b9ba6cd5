package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joelklabo/codic-slack/internal/app"
	"github.com/joelklabo/codic-slack/internal/check"
	"github.com/joelklabo/codic-slack/internal/config"
	"github.com/joelklabo/codic-slack/internal/core"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var skipCheck bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the slash command server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !skipCheck {
				if err := runPreflight(cmd, cfg); err != nil {
					return err
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "skip dependency preflight")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, closer, err := app.NewLogger(cfg.Logging, os.Stdout)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	a, err := app.Build(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	printBanner(cfg)
	logger.Info("codic-slack starting",
		slog.String("listen", cfg.Server.Listen),
		slog.Bool("verify_signatures", cfg.Server.SigningSecret != ""),
		slog.Bool("registry", cfg.Registry.Enable),
		slog.String("version", version),
	)

	d, _ := a.Dispatcher.(*core.GoDispatcher)
	err = serveAndDrain(ctx, a.Server.Start, d, cfg.JobTimeout(), logger)
	logger.Info("shutdown complete")
	return err
}

// serveAndDrain runs start until it returns and only then waits for
// dispatched jobs. Handlers still finishing during graceful shutdown can
// dispatch, so the drain must not begin before start is done.
func serveAndDrain(ctx context.Context, start func(context.Context) error, d *core.GoDispatcher, drain time.Duration, logger *slog.Logger) error {
	err := start(ctx)
	if d == nil {
		return err
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()
	if werr := d.Wait(drainCtx); werr != nil {
		logger.Warn("shutdown with jobs still running", slog.String("err", werr.Error()))
	}
	return err
}

// runPreflight prints failed checks and refuses to start when a required
// one is missing.
func runPreflight(cmd *cobra.Command, cfg *config.Config) error {
	results := check.Run(check.ForConfig(cfg, true))
	out := cmd.ErrOrStderr()
	for _, r := range results {
		switch r.Status {
		case "MISSING":
			_, _ = fmt.Fprintf(out, "❌ %s (%s): %s\n", r.Name, r.Type, r.Details)
		case "WARN":
			_, _ = fmt.Fprintf(out, "⚠️  %s (%s): %s\n", r.Name, r.Type, r.Details)
		}
	}
	if check.Failed(results) {
		return fmt.Errorf("required dependencies missing; rerun with --skip-check to bypass")
	}
	return nil
}

func printBanner(cfg *config.Config) {
	if !isTTY() {
		return
	}

	cyan := "\033[36m"
	mag := "\033[35m"
	reset := "\033[0m"

	verify := "off"
	if cfg.Server.SigningSecret != "" {
		verify = "on"
	}
	registry := "off"
	if cfg.Registry.Enable {
		registry = cfg.Registry.Path
	}
	fmt.Printf("%s╔══════════════════════════════════════════════════════╗%s\n", mag, reset)
	fmt.Printf("%s║%s  codic-slack %s\n", mag, reset, version)
	fmt.Printf("%s╠══════════════════════════════════════════════════════╣%s\n", mag, reset)
	fmt.Printf("%s║%s listen    %s%s%s\n", mag, reset, cyan, cfg.Server.Listen, reset)
	fmt.Printf("%s║%s codic     %s%s%s\n", mag, reset, cyan, cfg.Codic.BaseURL, reset)
	fmt.Printf("%s║%s signature %s%s%s\n", mag, reset, cyan, verify, reset)
	fmt.Printf("%s║%s registry  %s%s%s\n", mag, reset, cyan, registry, reset)
	fmt.Printf("%s╚══════════════════════════════════════════════════════╝%s\n", mag, reset)
}

func isTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
