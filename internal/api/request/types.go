package request

import "encoding/json"

// RegisterRequest is the request body for registering a user
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SetPermissionRequest is the request body for changing a user's level
type SetPermissionRequest struct {
	PermissionLevel int `json:"permissionLevel" validate:"required,min=1,max=3"`
}

// JoinRequest is the request body for joining the shared universe
type JoinRequest struct {
	PlayerID      string          `json:"playerId" validate:"required,max=128"`
	PlayerName    string          `json:"playerName" validate:"required,max=64"`
	CurrentSector string          `json:"currentSector,omitempty"`
	Position      json.RawMessage `json:"position,omitempty"`
	PlayerData    json.RawMessage `json:"playerData,omitempty"`
}

// LeaveRequest is the request body for leaving
type LeaveRequest struct {
	PlayerID string `json:"playerId" validate:"required"`
}

// HeartbeatRequest is the request body for a liveness heartbeat
type HeartbeatRequest struct {
	PlayerID      string          `json:"playerId" validate:"required"`
	CurrentSector *string         `json:"currentSector,omitempty"`
	Position      json.RawMessage `json:"position,omitempty"`
}

// UpdatePlayerRequest is the request body for a partial session update
type UpdatePlayerRequest struct {
	PlayerID      string          `json:"playerId" validate:"required"`
	PlayerName    *string         `json:"playerName,omitempty" validate:"omitempty,max=64"`
	CurrentSector *string         `json:"currentSector,omitempty"`
	Position      json.RawMessage `json:"position,omitempty"`
	PlayerData    json.RawMessage `json:"playerData,omitempty"`
}

// SharedStateRequest is the request body for a universe-wide update
type SharedStateRequest struct {
	PlayerID         string          `json:"playerId,omitempty"`
	EconomyData      json.RawMessage `json:"economyData,omitempty"`
	FactionRelations json.RawMessage `json:"factionRelations,omitempty"`
	UniverseTime     *float64        `json:"universeTime,omitempty" validate:"omitempty,min=0"`
}

// DetailedEconomyRequest is the request body for a per-player economy submission.
// The slot is always the caller's username.
type DetailedEconomyRequest struct {
	Stations     json.RawMessage `json:"stations,omitempty"`
	Prices       json.RawMessage `json:"prices,omitempty"`
	SupplyDemand json.RawMessage `json:"supply_demand,omitempty"`
}

// ChatRequest is the request body for sending a chat message
type ChatRequest struct {
	PlayerID   string `json:"playerId" validate:"required"`
	PlayerName string `json:"playerName" validate:"required,max=64"`
	Message    string `json:"message" validate:"required,max=500"`
}

// BroadcastEventRequest is the request body for publishing an event
type BroadcastEventRequest struct {
	EventType string          `json:"eventType" validate:"required,max=64"`
	Data      json.RawMessage `json:"data,omitempty"`
	Targets   []string        `json:"targets,omitempty" validate:"omitempty,dive,required"`
}

// UpdateConfigRequest is the request body for changing runtime settings
type UpdateConfigRequest struct {
	TokenExpirationMinutes *int  `json:"tokenExpirationMinutes,omitempty" validate:"omitempty,min=1"`
	AllowGuests            *bool `json:"allowGuests,omitempty"`
	MaxPlayers             *int  `json:"maxPlayers,omitempty" validate:"omitempty,min=0"`
}
