package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/metrics"
)

const shutdownTimeout = 5 * time.Second

// Server is the observation server: router, rate limiter and websocket hub.
// Nothing runs until Run is called.
type Server struct {
	addr    string
	router  *chi.Mux
	hub     *Hub
	limiter *IPRateLimiter
}

// New builds a server from the server config section.
func New(source Source, rec *metrics.Recorder, cfg config.ServerConfig) *Server {
	limiter := NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit,
		Burst:             cfg.RateBurst,
	}, rec)
	hub := NewHub(source, cfg.StreamHz, cfg.AllowedOrigins, rec)

	return &Server{
		addr: cfg.Listen,
		router: NewRouter(RouterConfig{
			Source:         source,
			Metrics:        rec,
			Hub:            hub,
			RateLimiter:    limiter,
			AllowedOrigins: cfg.AllowedOrigins,
		}),
		hub:     hub,
		limiter: limiter,
	}
}

// Router returns the HTTP handler, for httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.limiter.Run(ctx)
	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("server listening", "addr", s.addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
