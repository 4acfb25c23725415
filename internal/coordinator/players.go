package coordinator

import (
	"encoding/json"

	"github.com/mcoot/mpcoord/internal/model"
)

// JoinParams describes a player entering the shared universe
type JoinParams struct {
	PlayerID    model.PlayerID
	DisplayName string
	Sector      string
	Position    json.RawMessage
	PlayerData  json.RawMessage
}

// Join creates or replaces the player's session and announces it
func (c *Coordinator) Join(p JoinParams) (model.Session, error) {
	s, err := c.sessions.Join(p.PlayerID, p.DisplayName, p.Sector, p.Position, p.PlayerData)
	if err != nil {
		return model.Session{}, err
	}
	c.metrics.ActiveSessions.Set(float64(c.sessions.Count()))

	c.publishSystem(model.Event{
		Type:       model.EventPlayerJoined,
		FromPlayer: string(s.PlayerID),
		Data:       playerPayload(s),
	})
	return s, nil
}

// Leave removes the player's session. Leaving twice is not an error; the
// second call reports false.
func (c *Coordinator) Leave(id model.PlayerID) bool {
	s, ok := c.sessions.Leave(id)
	if !ok {
		return false
	}
	c.metrics.ActiveSessions.Set(float64(c.sessions.Count()))

	c.publishSystem(model.Event{
		Type:       model.EventPlayerLeft,
		FromPlayer: string(s.PlayerID),
		Data:       playerPayload(s),
	})
	return true
}

// Heartbeat refreshes the player's liveness. It reports false for an unknown player.
func (c *Coordinator) Heartbeat(id model.PlayerID, sector *string, position json.RawMessage) bool {
	return c.sessions.Heartbeat(id, sector, position)
}

// UpdateSession merges the fields of upd into the player's session.
// It reports false for an unknown player.
func (c *Coordinator) UpdateSession(id model.PlayerID, upd model.SessionUpdate) (model.Session, bool, error) {
	if !c.cfg.Features.PlayerTracking {
		return model.Session{}, false, model.ErrFeatureDisabled
	}

	s, ok := c.sessions.Update(id, upd)
	if !ok {
		return model.Session{}, false, nil
	}
	c.publishSystem(model.Event{
		Type:       model.EventPlayerUpdated,
		FromPlayer: string(s.PlayerID),
		Data:       playerPayload(s),
	})
	return s, true, nil
}

// ListSessions returns every present player
func (c *Coordinator) ListSessions() ([]model.Session, error) {
	if !c.cfg.Features.PlayerTracking {
		return nil, model.ErrFeatureDisabled
	}
	return c.sessions.List(), nil
}

// Session returns one present player
func (c *Coordinator) Session(id model.PlayerID) (model.Session, bool) {
	return c.sessions.Get(id)
}

func playerPayload(s model.Session) model.PlayerEventPayload {
	return model.PlayerEventPayload{
		PlayerID:    s.PlayerID,
		DisplayName: s.DisplayName,
		Sector:      s.Sector,
	}
}
