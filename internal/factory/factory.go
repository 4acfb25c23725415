package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/mcoot/mpcoord/internal/config"
	"github.com/mcoot/mpcoord/internal/coordinator"
	"github.com/mcoot/mpcoord/internal/dependencies/clock"
	"github.com/mcoot/mpcoord/internal/dependencies/random"
	"github.com/mcoot/mpcoord/internal/metrics"
	"github.com/mcoot/mpcoord/internal/realtime"
	"github.com/mcoot/mpcoord/internal/services/auth"
	"github.com/mcoot/mpcoord/internal/services/chat"
	"github.com/mcoot/mpcoord/internal/services/economy"
	"github.com/mcoot/mpcoord/internal/services/events"
	"github.com/mcoot/mpcoord/internal/services/session"
	"github.com/mcoot/mpcoord/internal/storage"
	"github.com/mcoot/mpcoord/internal/storage/file"
	"github.com/mcoot/mpcoord/internal/storage/memory"
	redisstorage "github.com/mcoot/mpcoord/internal/storage/redis"
)

// App contains all wired application components
type App struct {
	Config config.Config
	Logger *slog.Logger

	// Storage
	Store storage.CredentialStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Observability
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	// Services
	Auth        *auth.Service
	Sessions    *session.Registry
	Economy     *economy.Aggregator
	Chat        *chat.Log
	Hub         *realtime.Hub
	Bus         *events.Bus
	Coordinator *coordinator.Coordinator

	closers []io.Closer
}

// New creates a new application with all dependencies wired and the
// persisted credentials loaded. A nil logger discards all output.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var (
		store   storage.CredentialStore
		closers []io.Closer
	)
	switch cfg.Storage.Type {
	case config.StorageMemory, "":
		store = memory.New()
	case config.StorageFile:
		store = file.New(cfg.Storage.Path)
	case config.StorageRedis:
		redisStore, err := redisstorage.New(redisConfig(cfg))
		if err != nil {
			return nil, err
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, oops.Code("CONFIG_INVALID").
			With("storage", cfg.Storage.Type).
			Errorf("invalid storage type: must be memory, file or redis")
	}

	app := newWithDependencies(store, clock.New(), random.New(), cfg, auth.DefaultConfig().BcryptCost, logger)
	app.closers = closers

	if err := app.Auth.Load(ctx); err != nil {
		_ = app.Close()
		return nil, oops.Code("CREDENTIALS_LOAD_FAILED").Wrap(err)
	}
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.CredentialStore,
	clk clock.Clock,
	rnd random.Random,
	cfg config.Config,
	bcryptCost int,
	logger *slog.Logger,
) *App {
	m := metrics.New()
	registry := metrics.NewRegistry(m)

	authService := auth.New(store, clk, rnd, authConfig(cfg, bcryptCost), logger)
	sessions := session.New(clk, sessionConfig(cfg), logger)
	aggregator := economy.New(clk)
	chatLog := chat.New(clk, chat.Config{MaxMessages: cfg.Chat.MaxMessages, DefaultLimit: cfg.Chat.DefaultLimit})
	hub := realtime.NewHub(authService, clk, m, logger)
	bus := events.New(hub, clk, events.Config{
		QueueSize:        cfg.Events.QueueSize,
		DispatchInterval: cfg.Events.DispatchInterval,
	}, m, logger)

	coord := coordinator.New(
		coordinator.Components{
			Auth:     authService,
			Sessions: sessions,
			Economy:  aggregator,
			Chat:     chatLog,
			Bus:      bus,
		},
		hub,
		coordinatorConfig(cfg),
		clk,
		coordinator.NewSlogSecurityLogger(logger, m),
		m,
		logger,
	)

	return &App{
		Config:      cfg,
		Logger:      logger,
		Store:       store,
		Clock:       clk,
		Random:      rnd,
		Metrics:     m,
		Registry:    registry,
		Auth:        authService,
		Sessions:    sessions,
		Economy:     aggregator,
		Chat:        chatLog,
		Hub:         hub,
		Bus:         bus,
		Coordinator: coord,
	}
}

// Close stops the coordinator and releases storage connections
func (a *App) Close() error {
	a.Coordinator.Stop()

	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return oops.Code("CLOSE_FAILED").Wrap(errors.Join(errs...))
	}
	return nil
}
