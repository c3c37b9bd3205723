// Package server exposes a running simulation over HTTP: health, metrics,
// published snapshots, a websocket stream and the card queue.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pthm-cable/ecosim/game"
	"github.com/pthm-cable/ecosim/metrics"
	"github.com/pthm-cable/ecosim/telemetry"
)

// Source is the part of a simulation the server reads from. Both methods
// must be safe to call while the step loop runs.
type Source interface {
	// Published returns the latest immutable snapshot, or nil before the first one.
	Published() *telemetry.Snapshot
	// Enqueue queues a card for the next step.
	Enqueue(c game.Card) error
}

// RouterConfig contains the dependencies of the HTTP router.
type RouterConfig struct {
	// Source is the simulation (required).
	Source Source

	// Metrics serves /metrics and counts rejected requests. May be nil.
	Metrics *metrics.Recorder

	// Hub serves /ws. Nil disables the stream.
	Hub *Hub

	// RateLimiter is an optional pre-configured limiter. If nil, one is
	// created from RateLimit.
	RateLimiter *IPRateLimiter
	RateLimit   RateLimitConfig

	// AllowedOrigins for CORS. Nil allows any origin.
	AllowedOrigins []string

	// DisableLogging drops the request logger (tests, benchmarks).
	DisableLogging bool
}

// NewRouter builds the HTTP router. It starts no goroutines and opens no
// listeners, so it can be mounted on httptest.NewServer directly.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting before CORS so floods are rejected early
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = NewIPRateLimiter(cfg.RateLimit, cfg.Metrics)
	}
	r.Use(limiter.Middleware)

	origins := cfg.AllowedOrigins
	if origins == nil {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	h := &handlers{source: cfg.Source, metrics: cfg.Metrics}

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", cfg.Metrics.Handler())
	r.Get("/snapshot", h.handleSnapshot)
	r.Get("/entities/{id}", h.handleEntity)
	r.Post("/cards/{card}", h.handleCard)

	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.ServeHTTP)
	}

	return r
}
