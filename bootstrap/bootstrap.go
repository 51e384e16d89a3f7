// Package bootstrap wires all dependencies and starts the application.
// Everything is built once from a config.Config; nothing is kept in package
// state.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/contentgate/adapters/clock"
	"github.com/artpar/contentgate/adapters/hasher"
	"github.com/artpar/contentgate/adapters/idgen"
	"github.com/artpar/contentgate/adapters/metrics"
	"github.com/artpar/contentgate/adapters/session"
	"github.com/artpar/contentgate/app"
	"github.com/artpar/contentgate/blog"
	"github.com/artpar/contentgate/config"
	"github.com/artpar/contentgate/core/channel/gql"
	httpchannel "github.com/artpar/contentgate/core/channel/http"
	"github.com/artpar/contentgate/core/events"
	"github.com/artpar/contentgate/core/registry"
	"github.com/artpar/contentgate/core/runtime"
	"github.com/artpar/contentgate/core/schema"
	"github.com/artpar/contentgate/core/storage"
	"github.com/artpar/contentgate/ports"
)

// App represents the running application.
type App struct {
	Logger   zerolog.Logger
	Config   *config.Config
	System   schema.System
	Store    *storage.SQLStore
	Registry *registry.Registry
	Runtime  *runtime.Runtime
	Auth     *app.AuthService
	Sessions *session.Stateless

	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Collector

	HTTPServer *http.Server
}

// Options overrides pieces of the application for tools and tests.
type Options struct {
	// LogOutput defaults to os.Stdout.
	LogOutput io.Writer

	// Hasher defaults to bcrypt at auth.bcrypt_cost.
	Hasher ports.Hasher
}

// New creates and initializes the application.
func New(cfg *config.Config) (*App, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates and initializes the application. The database is
// migrated before the HTTP server is built.
func NewWithOptions(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stdout
	}

	logger := NewLogger(cfg.Logging, opts.LogOutput)
	logger.Info().Msg("initializing contentgate")

	a := &App{
		Logger: logger,
		Config: cfg,
	}

	sys, reg, err := LoadRegistry(cfg)
	if err != nil {
		return nil, err
	}
	a.System = sys
	a.Registry = reg

	if err := a.initDatabase(); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	if err := a.initRuntime(opts.Hasher); err != nil {
		a.Store.Close()
		return nil, fmt.Errorf("init runtime: %w", err)
	}

	if err := a.initHTTPServer(); err != nil {
		a.Store.Close()
		return nil, fmt.Errorf("init http server: %w", err)
	}

	return a, nil
}

// LoadRegistry builds the system value and resolves its lists into a
// registry. The auth configuration is checked against the registry.
func LoadRegistry(cfg *config.Config) (schema.System, *registry.Registry, error) {
	sys, err := blog.System(cfg)
	if err != nil {
		return schema.System{}, nil, err
	}
	reg, err := registry.Build(sys.Lists...)
	if err != nil {
		return schema.System{}, nil, fmt.Errorf("build registry: %w", err)
	}
	if sys.Auth != nil {
		if err := app.ValidateAuth(*sys.Auth, reg); err != nil {
			return schema.System{}, nil, err
		}
	}
	return sys, reg, nil
}

func (a *App) initDatabase() error {
	db := a.System.DB
	store, err := storage.Open(db.Provider, db.URL, a.Registry, a.Logger)
	if err != nil {
		return err
	}
	if err := store.Migrate(context.Background()); err != nil {
		store.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	a.Store = store
	a.Logger.Info().Str("provider", db.Provider).Msg("database ready")
	return nil
}

func (a *App) initRuntime(h ports.Hasher) error {
	if h == nil {
		h = hasher.NewBcrypt(a.Config.Auth.BcryptCost)
	}

	var m ports.Metrics = metrics.Nop{}
	if a.Metrics != nil {
		m = a.Metrics
	}

	bus := events.NewBus(a.Logger)
	bus.Subscribe("*", func(ctx context.Context, e events.Event) error {
		a.Logger.Debug().
			Str("event", e.Name).
			Str("item_id", fmt.Sprint(e.Item["id"])).
			Str("actor", e.Actor).
			Msg("item event")
		return nil
	})

	rt, err := runtime.New(runtime.Config{
		Registry: a.Registry,
		Store:    a.Store,
		Hasher:   h,
		Clock:    clock.Real{},
		IDs:      idgen.UUID{},
		Events:   bus,
		Metrics:  m,
		Logger:   a.Logger,
	})
	if err != nil {
		return err
	}
	a.Runtime = rt

	if a.System.Auth == nil {
		return errors.New("auth configuration is required")
	}
	a.Auth, err = app.NewAuthService(*a.System.Auth, rt, m, a.Logger)
	if err != nil {
		return err
	}

	a.Sessions, err = session.New(session.Config{
		Secret:     a.System.Session.Secret,
		MaxAge:     a.System.Session.MaxAge,
		CookieName: a.System.Session.CookieName,
		Secure:     a.System.Session.Secure,
	}, clock.Real{})
	return err
}

func (a *App) initHTTPServer() error {
	cfg := a.Config

	var graphQL http.Handler
	if a.System.Experimental.GenerateGraphQLAPI {
		s, err := gql.NewSchema(gql.Config{
			Runtime: a.Runtime,
			Auth:    a.Auth,
			Logger:  a.Logger,
		})
		if err != nil {
			return fmt.Errorf("graphql schema: %w", err)
		}
		graphQL = gql.NewHandler(s, a.Logger)
	}

	ch, err := httpchannel.New(httpchannel.Config{
		Runtime:     a.Runtime,
		Auth:        a.Auth,
		Sessions:    a.Sessions,
		GraphQL:     graphQL,
		NodeAPI:     a.System.Experimental.GenerateNodeAPI,
		Metrics:     a.Metrics,
		MetricsPath: cfg.Metrics.Path,
		CORS: httpchannel.CORSConfig{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowCredentials: cfg.CORS.AllowCredentials,
		},
		Logger: a.Logger,
	})
	if err != nil {
		return err
	}

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      ch.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return nil
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Bool("graphql", a.System.Experimental.GenerateGraphQLAPI).
			Bool("node_api", a.System.Experimental.GenerateNodeAPI).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the HTTP server and closes the database.
func (a *App) Shutdown() error {
	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
			errs = append(errs, err)
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
			errs = append(errs, err)
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return errors.Join(errs...)
}

// NewLogger builds the root logger. Unknown levels fall back to info.
func NewLogger(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
