package coordinator

import (
	"time"

	"github.com/mcoot/mpcoord/internal/model"
)

// ServerStats is the moderator view of server load
type ServerStats struct {
	ActivePlayers            int
	MaxPlayers               int
	RegisteredUsers          int
	ActiveTokens             int
	UsersByLevel             map[model.PermissionLevel]int
	Connections              int
	AuthenticatedConnections int
	LockedAccounts           int
	PendingEvents            int
	ChatMessages             int
	StartedAt                time.Time
	Uptime                   time.Duration
}

// ServerInfo is the public description of the server
type ServerInfo struct {
	Name          string
	Version       string
	ActivePlayers int
	MaxPlayers    int
	UniverseTime  float64
	Uptime        time.Duration
	Features      Features
}

// Stats returns counts across every owned component
func (c *Coordinator) Stats() ServerStats {
	authStats := c.auth.Stats()
	startedAt, uptime := c.uptime()

	return ServerStats{
		ActivePlayers:            c.sessions.Count(),
		MaxPlayers:               c.sessions.MaxPlayers(),
		RegisteredUsers:          authStats.RegisteredUsers,
		ActiveTokens:             authStats.ActiveTokens,
		UsersByLevel:             authStats.UsersByLevel,
		Connections:              c.conns.Count(),
		AuthenticatedConnections: c.conns.AuthenticatedCount(),
		LockedAccounts:           c.lockout.LockedCount(),
		PendingEvents:            c.bus.Pending(),
		ChatMessages:             c.chat.Len(),
		StartedAt:                startedAt,
		Uptime:                   uptime,
	}
}

// Info returns the public server description
func (c *Coordinator) Info() ServerInfo {
	_, uptime := c.uptime()
	return ServerInfo{
		Name:          c.cfg.ServerName,
		Version:       c.cfg.Version,
		ActivePlayers: c.sessions.Count(),
		MaxPlayers:    c.sessions.MaxPlayers(),
		UniverseTime:  c.economy.UniverseTime(),
		Uptime:        uptime,
		Features:      c.cfg.Features,
	}
}

func (c *Coordinator) uptime() (time.Time, time.Duration) {
	c.runMu.Lock()
	startedAt, running := c.startedAt, c.running
	c.runMu.Unlock()

	if !running {
		return startedAt, 0
	}
	return startedAt, c.clock.Now().Sub(startedAt)
}
