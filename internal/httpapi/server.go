// Package httpapi exposes a running engine over HTTP: a health check,
// a JSON stats snapshot and the Prometheus metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	engine "github.com/Chadha-Bhavya/ProducerConsumerEngine"
)

const shutdownGrace = 5 * time.Second

// StatsSource is satisfied by *engine.Engine.
type StatsSource interface {
	Snapshot() engine.Snapshot
}

// Server is the status HTTP server.
type Server struct {
	stats    StatsSource
	gatherer prometheus.Gatherer
	logger   lg.ZLogger
}

// NewServer creates a server reading from stats. A nil gatherer leaves
// /metrics unmounted.
func NewServer(stats StatsSource, gatherer prometheus.Gatherer, logger lg.ZLogger) *Server {
	if logger == nil {
		logger = lg.Discard
	}
	return &Server{stats: stats, gatherer: gatherer, logger: logger}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"running": s.stats.Snapshot().Running,
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("status server listening", lg.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	<-errCh
	s.logger.Info("status server stopped")
	return err
}

// writeJSON encodes v as the response body. The status line is already
// sent when encoding fails, so the failure can only be logged.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response failed", lg.Int("status", status), lg.Error("error", err))
	}
}
