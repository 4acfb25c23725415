package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Session events
	EventPlayerJoined  EventType = "player_joined"
	EventPlayerLeft    EventType = "player_left"
	EventPlayerTimeout EventType = "player_timeout"
	EventPlayerUpdated EventType = "player_updated"

	// Economy events
	EventEconomyUpdate EventType = "economy_update"

	// Chat events
	EventChatMessage EventType = "chat_message"
)

// IsSystem reports whether the type is emitted only by the coordinator
func (t EventType) IsSystem() bool {
	switch t {
	case EventPlayerJoined, EventPlayerLeft, EventPlayerTimeout, EventPlayerUpdated,
		EventEconomyUpdate, EventChatMessage:
		return true
	}
	return false
}

// Event is a transient notification fanned out to real-time connections
type Event struct {
	Type       EventType
	FromPlayer string // empty for system events
	Data       any
	Timestamp  time.Time
	Targets    []string // usernames; empty means broadcast
}

// IsBroadcast reports whether the event goes to every connection
func (e *Event) IsBroadcast() bool {
	return len(e.Targets) == 0
}

// TargetsUser reports whether username is one of the event's targets
func (e *Event) TargetsUser(username string) bool {
	if username == "" {
		return false
	}
	for _, t := range e.Targets {
		if t == username {
			return true
		}
	}
	return false
}

// PlayerEventPayload is the data of session lifecycle events
type PlayerEventPayload struct {
	PlayerID    PlayerID `json:"playerId"`
	DisplayName string   `json:"playerName,omitempty"`
	Sector      string   `json:"currentSector,omitempty"`
}

// EconomyEventPayload is the data of economy update events
type EconomyEventPayload struct {
	PlayerID   PlayerID `json:"playerId"`
	UpdateType string   `json:"updateType"`
	Sections   []string `json:"sections"`
	Timestamp  int64    `json:"timestamp"`
}

// ChatEventPayload is the data of chat events
type ChatEventPayload struct {
	PlayerID   PlayerID `json:"playerId"`
	PlayerName string   `json:"playerName"`
	Message    string   `json:"message"`
}
