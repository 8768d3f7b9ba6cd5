// Package server exposes the slash command endpoints Slack calls.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/slack-go/slack"

	"github.com/joelklabo/codic-slack/internal/casing"
	"github.com/joelklabo/codic-slack/internal/core"
	"github.com/joelklabo/codic-slack/internal/metrics"
)

// Options configures a Server.
type Options struct {
	Listen            string
	SigningSecret     string
	ReadHeaderTimeout time.Duration
	Metrics           bool
	Logger            *slog.Logger
	// NewID overrides invocation id generation (tests).
	NewID func() string
}

// Server hosts the slash command routes.
type Server struct {
	opts       Options
	dispatcher core.Dispatcher
	logger     *slog.Logger
	handler    http.Handler
}

// New constructs a Server that hands accepted commands to d.
func New(d core.Dispatcher, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 5 * time.Second
	}
	s := &Server{opts: opts, dispatcher: d, logger: opts.Logger}

	mux := http.NewServeMux()
	for _, c := range casing.All() {
		mux.Handle("/"+c.Route(), s.command(c))
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	if opts.Metrics {
		mux.Handle("/metrics", metrics.Handler())
	}
	s.handler = s.withAccessLog(withCORS(mux))
	return s
}

// Handler returns the full middleware chain. Lambda serves it directly.
func (s *Server) Handler() http.Handler { return s.handler }

// Start listens on the configured address until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs on an existing listener until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) command(c casing.Casing) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var verifier *slack.SecretsVerifier
		if s.opts.SigningSecret != "" {
			sv, err := slack.NewSecretsVerifier(r.Header, s.opts.SigningSecret)
			if err != nil {
				s.logger.Warn("rejecting unsigned request", "path", r.URL.Path, "err", err)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			verifier = &sv
			r.Body = io.NopCloser(io.TeeReader(r.Body, verifier))
		}

		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if verifier != nil {
			if err := verifier.Ensure(); err != nil {
				s.logger.Warn("signature mismatch", "path", r.URL.Path, "team", cmd.TeamID)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		inv := core.Invocation{
			ID:          s.opts.NewID(),
			Text:        cmd.Text,
			Casing:      c,
			Command:     cmd.Command,
			UserName:    cmd.UserName,
			TeamID:      cmd.TeamID,
			ResponseURL: cmd.ResponseURL,
		}
		metrics.IncCommand(c.Route())
		s.logger.Info("command accepted",
			"invocation", inv.ID,
			"casing", c.Label(),
			"team", inv.TeamID,
			"user", inv.UserName,
		)
		if err := s.dispatcher.Dispatch(r.Context(), inv); err != nil {
			s.logger.Error("dispatch failed", "invocation", inv.ID, "err", err)
		}
		w.WriteHeader(http.StatusOK)
	})
}

// withCORS lets browser callers reach every route and answers preflights
// on any path.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", r.Header.Get("Origin"))
		h.Set("Access-Control-Allow-Headers", "access-control-allow-origin")
		h.Set("Access-Control-Allow-Methods", "POST, GET, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Max-Age", "86400")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if strings.HasPrefix(r.URL.Path, "/healthz") {
			return
		}
		s.logger.Debug("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"took", time.Since(start),
		)
	})
}
