// Package coordinator composes the multiplayer services behind one owned
// instance: access control, login lockout, session lifecycle, economy,
// chat, event publication and the background workers.
package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/mpcoord/internal/dependencies/clock"
	"github.com/mcoot/mpcoord/internal/metrics"
	"github.com/mcoot/mpcoord/internal/model"
	"github.com/mcoot/mpcoord/internal/services/auth"
	"github.com/mcoot/mpcoord/internal/services/chat"
	"github.com/mcoot/mpcoord/internal/services/economy"
	"github.com/mcoot/mpcoord/internal/services/events"
	"github.com/mcoot/mpcoord/internal/services/session"
)

// Features toggles optional subsystems. A disabled feature answers model.ErrFeatureDisabled.
type Features struct {
	Chat           bool
	EconomySync    bool
	PlayerTracking bool
}

// Config holds coordinator configuration
type Config struct {
	ServerName        string
	Version           string
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	SweepInterval     time.Duration
	Features          Features
}

// DefaultConfig returns default coordinator configuration
func DefaultConfig() Config {
	return Config{
		ServerName:        "X4 Multiplayer Server",
		Version:           "1.0.0",
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		SweepInterval:     30 * time.Second,
		Features: Features{
			Chat:           true,
			EconomySync:    true,
			PlayerTracking: true,
		},
	}
}

// Components are the services a Coordinator owns
type Components struct {
	Auth     *auth.Service
	Sessions *session.Registry
	Economy  *economy.Aggregator
	Chat     *chat.Log
	Bus      *events.Bus
}

// Connections is the live real-time connection set
type Connections interface {
	Count() int
	AuthenticatedCount() int
	Open()
	Close()
}

// Coordinator is the single owner of the multiplayer state
type Coordinator struct {
	auth     *auth.Service
	sessions *session.Registry
	economy  *economy.Aggregator
	chat     *chat.Log
	bus      *events.Bus
	conns    Connections

	lockout  *LockoutTracker
	security SecurityLogger
	clock    clock.Clock
	metrics  *metrics.Metrics
	logger   *slog.Logger
	cfg      Config

	runMu     sync.Mutex
	running   bool
	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a stopped Coordinator. Call Start to run the background workers.
func New(
	components Components,
	conns Connections,
	cfg Config,
	clk clock.Clock,
	security SecurityLogger,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Coordinator {
	defaults := DefaultConfig()
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = defaults.MaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = defaults.LockoutDuration
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaults.SweepInterval
	}
	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	return &Coordinator{
		auth:     components.Auth,
		sessions: components.Sessions,
		economy:  components.Economy,
		chat:     components.Chat,
		bus:      components.Bus,
		conns:    conns,
		lockout:  NewLockoutTracker(clk, cfg.MaxFailedAttempts, cfg.LockoutDuration),
		security: security,
		clock:    clk,
		metrics:  m,
		logger:   logger.With(slog.String("component", "coordinator")),
		cfg:      cfg,
	}
}

// Start launches the liveness sweep and the event dispatcher and opens the
// real-time connection set. Starting a running coordinator does nothing.
// A stopped coordinator can be started again.
func (c *Coordinator) Start(ctx context.Context) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true
	c.startedAt = c.clock.Now()
	c.conns.Open()

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.runSweep(ctx)
	}()
	go func() {
		defer c.wg.Done()
		c.bus.Run(ctx)
	}()

	c.logger.Info("coordinator started",
		slog.String("server_name", c.cfg.ServerName),
		slog.Duration("sweep_interval", c.cfg.SweepInterval),
		slog.Duration("session_timeout", c.sessions.Timeout()))
}

// Stop cancels the background workers, waits for them to exit and closes
// every real-time connection. Stopping a stopped coordinator does nothing.
func (c *Coordinator) Stop() {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if !c.running {
		return
	}

	c.cancel()
	c.wg.Wait()
	c.conns.Close()
	c.running = false

	c.logger.Info("coordinator stopped")
}

// Running reports whether the background workers are running
func (c *Coordinator) Running() bool {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	return c.running
}

// Features returns the enabled subsystems
func (c *Coordinator) Features() Features {
	return c.cfg.Features
}

func (c *Coordinator) runSweep(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.SweepSessions()
		}
	}
}

// SweepSessions runs one liveness sweep and announces every evicted player
func (c *Coordinator) SweepSessions() int {
	evicted := c.sessions.Sweep()
	c.metrics.SessionsEvicted.Add(float64(len(evicted)))
	c.metrics.ActiveSessions.Set(float64(c.sessions.Count()))

	for _, s := range evicted {
		c.publishSystem(model.Event{
			Type:       model.EventPlayerTimeout,
			FromPlayer: string(s.PlayerID),
			Data: model.PlayerEventPayload{
				PlayerID:    s.PlayerID,
				DisplayName: s.DisplayName,
				Sector:      s.Sector,
			},
		})
	}
	return len(evicted)
}

// publishSystem enqueues an event raised by the coordinator itself.
// A full queue is logged by the bus and otherwise ignored.
func (c *Coordinator) publishSystem(evt model.Event) {
	_ = c.bus.Publish(evt)
}

// saveCredentials persists the credential store. A failure is logged, never returned.
func (c *Coordinator) saveCredentials(ctx context.Context) {
	if err := c.auth.Save(ctx); err != nil {
		c.logger.Error("failed to save credential store", slog.String("error", err.Error()))
	}
}
