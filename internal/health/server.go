// ABOUTME: HTTP liveness server for hosting platform probes
// ABOUTME: Serves a banner, a health check, and a readiness check over session status

package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Banner is the body served on the root path.
const Banner = "Giveaway watcher is active"

const shutdownTimeout = 5 * time.Second

// StatusSource reports how many sessions exist and how many are logged in.
type StatusSource interface {
	Status() (ready, total int)
}

// Server is the liveness HTTP server.
type Server struct {
	logger     *slog.Logger
	status     StatusSource
	httpServer *http.Server
}

// New creates a server listening on addr. status may be nil, in which case
// readiness always reports unavailable.
func New(addr string, status StatusSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{logger: logger, status: status}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/ready", s.handleReady)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens and serves until ctx is canceled, then shuts down gracefully.
// Returns nil on graceful shutdown, or an error if the listener fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on health address: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("health server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("health server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		s.logger.Error("server error", "error", serveErr)
	}

	// ctx is already canceled here, so shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := s.httpServer.Shutdown(shutdownCtx)

	if serveErr != nil {
		return serveErr
	}
	return shutdownErr
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(Banner))
}

// handleHealth returns 200 OK if the process is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if at least one session is logged in.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	var ready, total int
	if s.status != nil {
		ready, total = s.status.Status()
	}
	if ready == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "no sessions ready (0/%d)", total)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%d/%d sessions)", ready, total)
}
