package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joelklabo/codic-slack/internal/compose"
	"github.com/joelklabo/codic-slack/internal/format"
	"github.com/joelklabo/codic-slack/internal/metrics"
)

// Runner turns one invocation into one Slack message.
type Runner struct {
	translator Translator
	sink       Sink
	resolver   Resolver
	logger     *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithResolver enables the legacy team registry as a fallback delivery
// target for invocations without a response_url.
func WithResolver(res Resolver) RunnerOption {
	return func(r *Runner) { r.resolver = res }
}

// NewRunner constructs a Runner. If logger is nil, slog.Default is used.
func NewRunner(translator Translator, sink Sink, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		translator: translator,
		sink:       sink,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the pipeline for inv: resolve target, translate, format,
// compose, deliver. Failures are logged and returned; callers running after
// the acknowledgement ignore the error.
func (r *Runner) Run(ctx context.Context, inv Invocation) error {
	log := r.logger.With(
		slog.String("invocation", inv.ID),
		slog.String("team", inv.TeamID),
		slog.String("casing", inv.Casing.Label()),
	)

	target, ok, err := r.target(ctx, inv)
	if err != nil {
		log.Error("resolve target", slog.String("err", err.Error()))
		return err
	}
	if !ok {
		metrics.IncUnregistered()
		log.Info("team not registered; dropping command")
		return nil
	}

	if inv.Text == "" {
		return r.deliver(ctx, log, "apology", compose.Apology(), target)
	}

	start := time.Now()
	tr, err := r.translator.Translate(ctx, inv.Text, inv.Casing)
	if err != nil {
		metrics.IncTranslation("error")
		log.Error("codic translate failed", slog.String("err", err.Error()))
		return fmt.Errorf("translate: %w", err)
	}
	metrics.IncTranslation("ok")
	log.Debug("codic translate", slog.Duration("took", time.Since(start)), slog.Int("words", len(tr.Words)))

	msg := compose.Result(tr, format.Words(tr.Words), inv.Casing, compose.Meta{
		Text:     inv.Text,
		Command:  inv.Command,
		UserName: inv.UserName,
	})
	return r.deliver(ctx, log, "result", msg, target)
}

func (r *Runner) target(ctx context.Context, inv Invocation) (string, bool, error) {
	if inv.ResponseURL != "" {
		return inv.ResponseURL, true, nil
	}
	if r.resolver == nil {
		return "", false, nil
	}
	return r.resolver.Resolve(ctx, inv.TeamID)
}

func (r *Runner) deliver(ctx context.Context, log *slog.Logger, kind string, msg compose.Message, target string) error {
	if err := r.sink.Deliver(ctx, msg, target); err != nil {
		metrics.IncDelivery(kind, "error")
		log.Error("slack delivery failed", slog.String("kind", kind), slog.String("err", err.Error()))
		return fmt.Errorf("deliver %s: %w", kind, err)
	}
	metrics.IncDelivery(kind, "ok")
	log.Info("delivered", slog.String("kind", kind))
	return nil
}
