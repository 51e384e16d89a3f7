// Package http is the HTTP surface: the JSON:API item endpoints generated from
// the list registry, sign-in and bootstrap routes, the admin routing state
// machine, GraphQL, health and metrics.
package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/artpar/contentgate/adapters/metrics"
	"github.com/artpar/contentgate/adapters/session"
	"github.com/artpar/contentgate/app"
	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/runtime"
)

// CORSConfig configures cross-origin requests. CORS is off without origins.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

// Config configures the channel. Runtime, Auth and Sessions are required.
type Config struct {
	Runtime  *runtime.Runtime
	Auth     *app.AuthService
	Sessions *session.Stateless

	// GraphQL serves /api/graphql when set.
	GraphQL http.Handler

	// NodeAPI enables the JSON:API item endpoints under /api.
	NodeAPI bool

	// Metrics records request metrics and serves MetricsPath when set.
	Metrics     *metrics.Collector
	MetricsPath string

	CORS   CORSConfig
	Logger zerolog.Logger
}

// Channel serves the HTTP surface.
type Channel struct {
	router   chi.Router
	rt       *runtime.Runtime
	auth     *app.AuthService
	sessions *session.Stateless
	metrics  *metrics.Collector
	lists    map[string]convention.Derived
	logger   zerolog.Logger
}

// New creates the channel and its routes.
func New(cfg Config) (*Channel, error) {
	switch {
	case cfg.Runtime == nil:
		return nil, errors.New("http: runtime is required")
	case cfg.Auth == nil:
		return nil, errors.New("http: auth is required")
	case cfg.Sessions == nil:
		return nil, errors.New("http: sessions are required")
	}

	c := &Channel{
		router:   chi.NewRouter(),
		rt:       cfg.Runtime,
		auth:     cfg.Auth,
		sessions: cfg.Sessions,
		metrics:  cfg.Metrics,
		lists:    make(map[string]convention.Derived),
		logger:   cfg.Logger.With().Str("component", "http").Logger(),
	}
	for _, d := range cfg.Runtime.Registry().List() {
		c.lists[d.Names.RESTCollection] = d
	}

	r := c.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(c.logger))
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
	}
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Location"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           300,
		}))
	}
	r.Use(c.loadSession)

	r.Get("/health", c.handleHealth)
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.Metrics.Handler())
	}

	r.Route("/auth", c.authRoutes)
	r.Route("/admin", c.adminRoutes)
	r.Get("/api/admin/meta", c.handleMeta)

	if cfg.GraphQL != nil {
		r.Handle("/api/graphql", cfg.GraphQL)
	}
	if cfg.NodeAPI {
		r.Route("/api/{collection}", c.itemRoutes)
	}

	return c, nil
}

// Handler returns the HTTP handler.
func (c *Channel) Handler() http.Handler {
	return c.router
}

func (c *Channel) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
