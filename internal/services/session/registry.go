package session

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/mpcoord/internal/dependencies/clock"
	"github.com/mcoot/mpcoord/internal/model"
)

// Config holds configuration for the session registry
type Config struct {
	// Timeout is how long a session survives without a heartbeat
	Timeout time.Duration
	// MaxPlayers caps concurrent sessions; 0 disables the cap
	MaxPlayers int
}

// DefaultConfig returns default registry configuration
func DefaultConfig() Config {
	return Config{
		Timeout:    5 * time.Minute,
		MaxPlayers: 10,
	}
}

// Registry tracks the players currently present
type Registry struct {
	clock  clock.Clock
	logger *slog.Logger

	mu         sync.RWMutex
	sessions   map[model.PlayerID]*model.Session
	timeout    time.Duration
	maxPlayers int
}

// New creates an empty Registry
func New(clk clock.Clock, cfg Config, logger *slog.Logger) *Registry {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Registry{
		clock:      clk,
		logger:     logger.With(slog.String("component", "sessions")),
		sessions:   make(map[model.PlayerID]*model.Session),
		timeout:    cfg.Timeout,
		maxPlayers: cfg.MaxPlayers,
	}
}

// Join creates or replaces the session for id. Rejoining never counts
// against the player cap; a new id is refused once the cap is reached.
func (r *Registry) Join(id model.PlayerID, displayName, sector string, position, playerData json.RawMessage) (model.Session, error) {
	if id == "" {
		return model.Session{}, model.ErrInvalidPlayerID
	}
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; !exists && r.maxPlayers > 0 && len(r.sessions) >= r.maxPlayers {
		return model.Session{}, model.ErrServerFull
	}

	session := &model.Session{
		PlayerID:      id,
		DisplayName:   displayName,
		Sector:        sector,
		JoinedAt:      now,
		LastHeartbeat: now,
	}
	session.Position = cloneRaw(position)
	session.PlayerData = cloneRaw(playerData)
	r.sessions[id] = session

	return session.Clone(), nil
}

// Heartbeat refreshes liveness and optionally the position fields.
// It reports false, without error, if the player is unknown.
func (r *Registry) Heartbeat(id model.PlayerID, sector *string, position json.RawMessage) bool {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return false
	}
	session.LastHeartbeat = now
	if sector != nil {
		session.Sector = *sector
	}
	if position != nil {
		session.Position = cloneRaw(position)
	}
	return true
}

// Update merges the provided fields into an existing session.
// It reports false if the player is unknown.
func (r *Registry) Update(id model.PlayerID, upd model.SessionUpdate) (model.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return model.Session{}, false
	}
	if upd.DisplayName != nil {
		session.DisplayName = *upd.DisplayName
	}
	if upd.Sector != nil {
		session.Sector = *upd.Sector
	}
	if upd.Position != nil {
		session.Position = cloneRaw(upd.Position)
	}
	if upd.PlayerData != nil {
		session.PlayerData = cloneRaw(upd.PlayerData)
	}
	return session.Clone(), true
}

// Leave removes the session and returns it if it was present
func (r *Registry) Leave(id model.PlayerID) (model.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return model.Session{}, false
	}
	delete(r.sessions, id)
	return *session, true
}

// Get returns a copy of one session
func (r *Registry) Get(id model.PlayerID) (model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return model.Session{}, false
	}
	return session.Clone(), true
}

// List returns copies of all sessions ordered by join time, then id
func (r *Registry) List() []model.Session {
	r.mu.RLock()
	out := make([]model.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		out = append(out, session.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

// Count returns the number of sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes every session whose last heartbeat is strictly older than
// the timeout and returns the removed sessions
func (r *Registry) Sweep() []model.Session {
	now := r.clock.Now()

	r.mu.Lock()
	var evicted []model.Session
	for id, session := range r.sessions {
		if now.Sub(session.LastHeartbeat) > r.timeout {
			evicted = append(evicted, *session)
			delete(r.sessions, id)
		}
	}
	remaining := len(r.sessions)
	r.mu.Unlock()

	for _, session := range evicted {
		r.logger.Info("session timed out",
			slog.String("player_id", string(session.PlayerID)),
			slog.Duration("since_heartbeat", now.Sub(session.LastHeartbeat)))
	}
	if len(evicted) > 0 {
		r.logger.Info("liveness sweep evicted sessions",
			slog.Int("evicted", len(evicted)),
			slog.Int("remaining", remaining))
	}
	return evicted
}

// MaxPlayers returns the session cap (0 means unlimited)
func (r *Registry) MaxPlayers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maxPlayers
}

// SetMaxPlayers changes the session cap. Existing sessions are never evicted by a lower cap.
func (r *Registry) SetMaxPlayers(n int) {
	if n < 0 {
		n = 0
	}
	r.mu.Lock()
	r.maxPlayers = n
	r.mu.Unlock()
}

// Timeout returns the heartbeat timeout
func (r *Registry) Timeout() time.Duration {
	return r.timeout
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
