package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/meteo-vigilance/vigilance"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LevelSource returns the per-zone levels of the last successful poll.
type LevelSource interface {
	Levels() (table vigilance.TimelapseTable, polledAt time.Time, ok bool)
}

// Server exposes health, readiness, metrics, and current level endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and /levels routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, levels LevelSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /levels", handleLevels(levels))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type levelsResponse struct {
	PolledAt time.Time          `json:"polled_at"`
	Columns  []string           `json:"columns"`
	Levels   []vigilance.Record `json:"levels"`
}

func handleLevels(source LevelSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		table, polledAt, ok := source.Levels()
		if !ok {
			sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "no poll completed yet",
			})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, levelsResponse{
			PolledAt: polledAt,
			Columns:  table.Columns(),
			Levels:   table.Records(),
		})
	}
}
