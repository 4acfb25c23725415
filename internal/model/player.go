package model

import (
	"encoding/json"
	"time"
)

// PlayerID identifies a player session. It is chosen by the client, not the server.
type PlayerID string

// Session is a player currently present in the shared universe
type Session struct {
	PlayerID      PlayerID
	DisplayName   string
	Sector        string
	Position      json.RawMessage // free-form, nil when never reported
	PlayerData    json.RawMessage // free-form, nil when never reported
	JoinedAt      time.Time
	LastHeartbeat time.Time
}

// Clone returns a copy that shares no mutable state with s
func (s Session) Clone() Session {
	s.Position = cloneRaw(s.Position)
	s.PlayerData = cloneRaw(s.PlayerData)
	return s
}

// SessionUpdate carries the optional fields of an update. Nil fields are left untouched.
type SessionUpdate struct {
	DisplayName *string
	Sector      *string
	Position    json.RawMessage
	PlayerData  json.RawMessage
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
