package realtime

import "github.com/mcoot/mpcoord/internal/model"

// Frame types
const (
	FrameAuth         = "auth"
	FrameAuthResponse = "auth_response"
	FrameEvent        = "event"
	FramePing         = "ping"
	FramePong         = "pong"
	FrameError        = "error"
)

// InboundFrame is any client-to-server message
type InboundFrame struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

// AuthResponseFrame answers an auth frame
type AuthResponseFrame struct {
	Type     string `json:"type"`
	Success  bool   `json:"success"`
	Username string `json:"username,omitempty"`
	Error    string `json:"error,omitempty"`
}

// EventFrame carries one event notification. Timestamp is unix seconds.
type EventFrame struct {
	Type       string `json:"type"`
	EventType  string `json:"eventType"`
	FromPlayer string `json:"fromPlayer"`
	Data       any    `json:"data"`
	Timestamp  int64  `json:"timestamp"`
}

// ErrorFrame reports a malformed or unsupported client message
type ErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// EventFrameFromModel converts an event to its wire form
func EventFrameFromModel(evt model.Event) EventFrame {
	data := evt.Data
	if data == nil {
		data = map[string]any{}
	}
	return EventFrame{
		Type:       FrameEvent,
		EventType:  string(evt.Type),
		FromPlayer: evt.FromPlayer,
		Data:       data,
		Timestamp:  evt.Timestamp.Unix(),
	}
}
