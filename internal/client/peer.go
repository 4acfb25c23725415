package client

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/mpcoord/internal/api/request"
	"github.com/mcoot/mpcoord/internal/api/response"
	"github.com/mcoot/mpcoord/internal/dependencies/clock"
	"github.com/mcoot/mpcoord/internal/gamestate"
)

var (
	// ErrNotConnected is returned by operations that need a joined session
	ErrNotConnected = errors.New("not connected to coordinator")
	// ErrSessionLost is returned when the coordinator no longer knows the session
	ErrSessionLost = errors.New("coordinator dropped the session")
	// ErrDisabled is returned when the operation is switched off in PeerConfig
	ErrDisabled = errors.New("feature disabled on this peer")
	// ErrAlreadyRunning is returned by Start on a running peer
	ErrAlreadyRunning = errors.New("peer already running")
)

// PeerConfig holds configuration for a peer
type PeerConfig struct {
	ServerURL string
	// Token is optional; economy snapshots are only submitted with one
	Token string
	// PlayerName overrides the in-game name
	PlayerName        string
	HeartbeatInterval time.Duration
	SyncInterval      time.Duration
	Timeout           time.Duration

	EnableChat           bool
	EnableEconomySync    bool
	EnablePlayerTracking bool
}

// DefaultPeerConfig returns default peer configuration
func DefaultPeerConfig() PeerConfig {
	return PeerConfig{
		ServerURL:            "http://localhost:3003",
		HeartbeatInterval:    30 * time.Second,
		SyncInterval:         60 * time.Second,
		Timeout:              DefaultTimeout,
		EnableChat:           true,
		EnableEconomySync:    true,
		EnablePlayerTracking: true,
	}
}

// Peer represents one game instance in a shared universe. It joins the
// coordinator, keeps its session alive and pushes game facts. Any failed
// request marks the peer disconnected; the workers then stop.
type Peer struct {
	api      *API
	gatherer *gamestate.Gatherer
	clock    clock.Clock
	logger   *slog.Logger
	cfg      PeerConfig
	playerID string

	connected atomic.Bool

	mu     sync.Mutex
	name   string
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewPeer creates a disconnected peer with a fresh player id
func NewPeer(cfg PeerConfig, provider gamestate.Provider, clk clock.Clock, logger *slog.Logger) *Peer {
	defaults := DefaultPeerConfig()
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaults.HeartbeatInterval
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = defaults.SyncInterval
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = defaults.ServerURL
	}

	logger = logger.With(slog.String("component", "peer"))
	return &Peer{
		api:      NewAPI(cfg.ServerURL, cfg.Token, cfg.Timeout),
		gatherer: gamestate.NewGatherer(provider, clk.Now, logger),
		clock:    clk,
		logger:   logger,
		cfg:      cfg,
		playerID: ulid.MustNew(ulid.Timestamp(clk.Now()), ulid.DefaultEntropy()).String(),
		name:     cfg.PlayerName,
	}
}

// PlayerID returns the session id this peer joins with
func (p *Peer) PlayerID() string {
	return p.playerID
}

// Connected reports whether the last request to the coordinator succeeded
func (p *Peer) Connected() bool {
	return p.connected.Load()
}

// PlayerName returns the name the peer reports
func (p *Peer) PlayerName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

// Join registers the session with the coordinator
func (p *Peer) Join(ctx context.Context) error {
	facts := p.gatherer.Player(ctx)
	name := p.resolveName(facts)

	playerData, err := json.Marshal(facts)
	if err != nil {
		return err
	}

	_, err = p.api.Join(ctx, request.JoinRequest{
		PlayerID:      p.playerID,
		PlayerName:    name,
		CurrentSector: facts.Sector(),
		Position:      json.RawMessage(`{}`),
		PlayerData:    playerData,
	})
	if err != nil {
		p.fail("join", err)
		return err
	}

	p.connected.Store(true)
	p.logger.Info("joined coordinator",
		slog.String("server", p.api.BaseURL()),
		slog.String("player_id", p.playerID),
		slog.String("player_name", name))
	return nil
}

// Leave removes the session. Leaving while disconnected does nothing.
func (p *Peer) Leave(ctx context.Context) error {
	if !p.Connected() {
		return nil
	}
	p.connected.Store(false)

	if _, err := p.api.Leave(ctx, p.playerID); err != nil {
		p.logger.Warn("leave failed", slog.Any("error", err))
		return err
	}
	p.logger.Info("left coordinator", slog.String("player_id", p.playerID))
	return nil
}

// Heartbeat refreshes the session with the current sector
func (p *Peer) Heartbeat(ctx context.Context) error {
	if !p.Connected() {
		return ErrNotConnected
	}

	facts := p.gatherer.Player(ctx)
	req := request.HeartbeatRequest{PlayerID: p.playerID}
	if sector := facts.Sector(); sector != "" {
		req.CurrentSector = &sector
	}

	resp, err := p.api.Heartbeat(ctx, req)
	if err != nil {
		p.fail("heartbeat", err)
		return err
	}
	if !resp.Known {
		p.fail("heartbeat", ErrSessionLost)
		return ErrSessionLost
	}
	return nil
}

// SyncPlayer pushes the gathered player facts into the session
func (p *Peer) SyncPlayer(ctx context.Context) error {
	if !p.cfg.EnablePlayerTracking {
		return ErrDisabled
	}
	if !p.Connected() {
		return ErrNotConnected
	}

	facts := p.gatherer.Player(ctx)
	name := p.resolveName(facts)
	playerData, err := json.Marshal(facts)
	if err != nil {
		return err
	}

	req := request.UpdatePlayerRequest{
		PlayerID:   p.playerID,
		PlayerName: &name,
		PlayerData: playerData,
	}
	if sector := facts.Sector(); sector != "" {
		req.CurrentSector = &sector
	}

	resp, err := p.api.UpdatePlayer(ctx, req)
	if err != nil {
		p.fail("player sync", err)
		return err
	}
	if !resp.Updated {
		p.fail("player sync", ErrSessionLost)
		return ErrSessionLost
	}
	return nil
}

// SyncEconomy pushes the gathered economy facts as shared universe state
func (p *Peer) SyncEconomy(ctx context.Context) error {
	if !p.cfg.EnableEconomySync {
		return ErrDisabled
	}
	if !p.Connected() {
		return ErrNotConnected
	}

	facts := p.gatherer.Economy(ctx)
	data, err := json.Marshal(facts)
	if err != nil {
		return err
	}

	_, err = p.api.UpdateSharedState(ctx, request.SharedStateRequest{
		PlayerID:     p.playerID,
		EconomyData:  data,
		UniverseTime: facts.GameTime,
	})
	if err != nil {
		p.fail("economy sync", err)
		return err
	}
	return nil
}

// SendChat posts a chat message under the peer's name
func (p *Peer) SendChat(ctx context.Context, message string) error {
	if !p.cfg.EnableChat {
		return ErrDisabled
	}
	if !p.Connected() {
		return ErrNotConnected
	}

	_, err := p.api.SendChat(ctx, request.ChatRequest{
		PlayerID:   p.playerID,
		PlayerName: p.PlayerName(),
		Message:    message,
	})
	if err != nil {
		p.fail("chat", err)
	}
	return err
}

// Chat returns recent chat messages
func (p *Peer) Chat(ctx context.Context, limit int) ([]response.ChatMessage, error) {
	if !p.Connected() {
		return nil, ErrNotConnected
	}
	resp, err := p.api.Chat(ctx, limit)
	if err != nil {
		p.fail("chat read", err)
		return nil, err
	}
	return resp.Messages, nil
}

// Players lists every session, this peer's included
func (p *Peer) Players(ctx context.Context) ([]response.Player, error) {
	if !p.Connected() {
		return nil, ErrNotConnected
	}
	resp, err := p.api.Players(ctx)
	if err != nil {
		p.fail("player list", err)
		return nil, err
	}
	return resp.Players, nil
}

// Universe returns the shared universe state
func (p *Peer) Universe(ctx context.Context) (response.UniverseResponse, error) {
	if !p.Connected() {
		return response.UniverseResponse{}, ErrNotConnected
	}
	resp, err := p.api.Universe(ctx)
	if err != nil {
		p.fail("universe read", err)
		return response.UniverseResponse{}, err
	}
	return resp, nil
}

// Start joins and launches the heartbeat and sync workers
func (p *Peer) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.group != nil {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	p.mu.Unlock()

	if err := p.Join(ctx); err != nil {
		return err
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	group, workerCtx := errgroup.WithContext(workerCtx)

	group.Go(func() error {
		p.runEvery(workerCtx, p.cfg.HeartbeatInterval, "heartbeat", func(ctx context.Context) error {
			return p.Heartbeat(ctx)
		})
		return nil
	})
	group.Go(func() error {
		p.runEvery(workerCtx, p.cfg.SyncInterval, "sync", p.sync)
		return nil
	})

	p.mu.Lock()
	p.cancel = cancel
	p.group = group
	p.mu.Unlock()
	return nil
}

// Stop halts the workers, waits for them and leaves the session.
// Stopping a peer that is not running only leaves.
func (p *Peer) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, group := p.cancel, p.group
	p.cancel, p.group = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		_ = group.Wait()
	}
	return p.Leave(ctx)
}

// Done is closed when both workers have exited, e.g. after the peer lost its connection
func (p *Peer) Done() <-chan struct{} {
	p.mu.Lock()
	group := p.group
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		if group != nil {
			_ = group.Wait()
		}
		close(done)
	}()
	return done
}

func (p *Peer) sync(ctx context.Context) error {
	if p.cfg.EnablePlayerTracking {
		if err := p.SyncPlayer(ctx); err != nil {
			return err
		}
	}
	if p.cfg.EnableEconomySync {
		return p.SyncEconomy(ctx)
	}
	return nil
}

// runEvery calls fn immediately and then every interval until ctx ends or the peer disconnects
func (p *Peer) runEvery(ctx context.Context, interval time.Duration, name string, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if !p.Connected() {
			p.logger.Info("worker stopping: disconnected", slog.String("worker", name))
			return
		}
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			p.logger.Debug("worker iteration failed", slog.String("worker", name), slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Peer) resolveName(facts gamestate.PlayerFacts) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.name == "" {
		p.name = facts.Name()
	}
	if p.name == "" {
		p.name = "Player_" + p.playerID[len(p.playerID)-8:]
	}
	return p.name
}

func (p *Peer) fail(op string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if p.connected.Swap(false) {
		p.logger.Warn("lost coordinator connection", slog.String("op", op), slog.Any("error", err))
	}
}
