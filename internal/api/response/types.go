package response

import (
	"encoding/json"

	"github.com/mcoot/mpcoord/internal/coordinator"
	"github.com/mcoot/mpcoord/internal/model"
	"github.com/mcoot/mpcoord/internal/services/auth"
)

// Envelope marks a successful response
type Envelope struct {
	Success bool `json:"success"`
}

// OK is the envelope of every successful response
var OK = Envelope{Success: true}

// MessageResponse is a success with a human-readable note
type MessageResponse struct {
	Envelope
	Message string `json:"message"`
}

// NewMessage creates a MessageResponse
func NewMessage(message string) MessageResponse {
	return MessageResponse{Envelope: OK, Message: message}
}

// LoginResponse is the response for a successful login
type LoginResponse struct {
	Envelope
	Token           string `json:"token"`
	Username        string `json:"username"`
	PermissionLevel int    `json:"permissionLevel"`
	ExpiresAt       int64  `json:"expiresAt"`
}

// LoginResponseFromToken converts an issued token
func LoginResponseFromToken(t model.Token) LoginResponse {
	return LoginResponse{
		Envelope:        OK,
		Token:           t.Value,
		Username:        t.Username,
		PermissionLevel: int(t.PermissionLevel),
		ExpiresAt:       t.ExpiresAt.Unix(),
	}
}

// RegisterResponse is the response for a registration
type RegisterResponse struct {
	Envelope
	Username string `json:"username"`
	Message  string `json:"message"`
}

// ValidateResponse reports whether a token is live
type ValidateResponse struct {
	Envelope
	Valid           bool   `json:"valid"`
	Username        string `json:"username,omitempty"`
	PermissionLevel int    `json:"permissionLevel,omitempty"`
	ExpiresAt       int64  `json:"expiresAt,omitempty"`
}

// User represents a registered user. The password hash is never exposed.
type User struct {
	Username        string `json:"username"`
	Email           string `json:"email,omitempty"`
	CreatedAt       int64  `json:"createdAt"`
	IsActive        bool   `json:"isActive"`
	PermissionLevel int    `json:"permissionLevel"`
	FailedLogins    int    `json:"failedLogins"`
}

// UserFromModel converts a model.User
func UserFromModel(u model.User, failedLogins int) User {
	return User{
		Username:        u.Username,
		Email:           u.Email,
		CreatedAt:       u.CreatedAt.Unix(),
		IsActive:        u.IsActive,
		PermissionLevel: int(u.PermissionLevel),
		FailedLogins:    failedLogins,
	}
}

// AuthStats summarises users and tokens
type AuthStats struct {
	RegisteredUsers        int  `json:"registeredUsers"`
	ActiveTokens           int  `json:"activeTokens"`
	TokenExpirationMinutes int  `json:"tokenExpirationMinutes"`
	AllowGuests            bool `json:"allowGuests"`
	ActivePlayers          int  `json:"activePlayers"`
	ActiveModerators       int  `json:"activeModerators"`
	ActiveAdmins           int  `json:"activeAdmins"`
}

// AuthStatsFromService converts auth.Stats
func AuthStatsFromService(s auth.Stats) AuthStats {
	return AuthStats{
		RegisteredUsers:        s.RegisteredUsers,
		ActiveTokens:           s.ActiveTokens,
		TokenExpirationMinutes: int(s.TokenTTL.Minutes()),
		AllowGuests:            s.AllowGuests,
		ActivePlayers:          s.UsersByLevel[model.PermissionPlayer],
		ActiveModerators:       s.UsersByLevel[model.PermissionModerator],
		ActiveAdmins:           s.UsersByLevel[model.PermissionAdmin],
	}
}

// UsersResponse lists registered users
type UsersResponse struct {
	Envelope
	Users []User    `json:"users"`
	Stats AuthStats `json:"stats"`
}

// UserResponse wraps one user
type UserResponse struct {
	Envelope
	User User `json:"user"`
}

// Player represents a present player
type Player struct {
	PlayerID      string          `json:"playerId"`
	PlayerName    string          `json:"playerName"`
	CurrentSector string          `json:"currentSector"`
	Position      json.RawMessage `json:"position,omitempty"`
	PlayerData    json.RawMessage `json:"playerData,omitempty"`
	JoinedAt      int64           `json:"joinedAt"`
	LastHeartbeat int64           `json:"lastHeartbeat"`
}

// PlayerFromModel converts a model.Session
func PlayerFromModel(s model.Session) Player {
	return Player{
		PlayerID:      string(s.PlayerID),
		PlayerName:    s.DisplayName,
		CurrentSector: s.Sector,
		Position:      s.Position,
		PlayerData:    s.PlayerData,
		JoinedAt:      s.JoinedAt.Unix(),
		LastHeartbeat: s.LastHeartbeat.Unix(),
	}
}

// PlayersFromModel converts a list of sessions
func PlayersFromModel(sessions []model.Session) []Player {
	out := make([]Player, len(sessions))
	for i, s := range sessions {
		out[i] = PlayerFromModel(s)
	}
	return out
}

// JoinResponse is the response for a join
type JoinResponse struct {
	Envelope
	Player       Player  `json:"player"`
	UniverseTime float64 `json:"universeTime"`
}

// LeaveResponse is the response for a leave
type LeaveResponse struct {
	Envelope
	Removed bool `json:"removed"`
}

// HeartbeatResponse is the response for a heartbeat. Known is false when
// the session no longer exists and the client should join again.
type HeartbeatResponse struct {
	Envelope
	Known        bool    `json:"known"`
	UniverseTime float64 `json:"universeTime"`
}

// UpdatePlayerResponse is the response for a session update
type UpdatePlayerResponse struct {
	Envelope
	Updated bool    `json:"updated"`
	Player  *Player `json:"player,omitempty"`
}

// PlayersResponse lists present players
type PlayersResponse struct {
	Envelope
	Players []Player `json:"players"`
	Count   int      `json:"count"`
}

// UniverseResponse is the shared universe state
type UniverseResponse struct {
	Envelope
	UniverseTime     float64         `json:"universeTime"`
	GlobalEconomy    json.RawMessage `json:"economyData"`
	FactionRelations json.RawMessage `json:"factionRelations"`
	ActivePlayers    int             `json:"activePlayers"`
	LastUpdate       int64           `json:"lastUpdate"`
}

// UniverseFromModel converts a model.SharedState
func UniverseFromModel(s model.SharedState) UniverseResponse {
	return UniverseResponse{
		Envelope:         OK,
		UniverseTime:     s.UniverseTime,
		GlobalEconomy:    s.GlobalEconomy,
		FactionRelations: s.FactionRelations,
		ActivePlayers:    s.ActivePlayers,
		LastUpdate:       unixOrZero(s.LastUpdate.Unix(), s.LastUpdate.IsZero()),
	}
}

// EconomyResponse is the merged economy view keyed by player id
type EconomyResponse struct {
	Envelope
	Stations         map[string]json.RawMessage `json:"stations"`
	Prices           map[string]json.RawMessage `json:"prices"`
	SupplyDemand     map[string]json.RawMessage `json:"supply_demand"`
	FactionRelations json.RawMessage            `json:"factionRelations"`
	LastUpdate       int64                      `json:"lastUpdate"`
}

// EconomyFromModel converts a model.EconomyView
func EconomyFromModel(v model.EconomyView) EconomyResponse {
	return EconomyResponse{
		Envelope:         OK,
		Stations:         sectionMap(v.Stations),
		Prices:           sectionMap(v.Prices),
		SupplyDemand:     sectionMap(v.SupplyDemand),
		FactionRelations: v.FactionRelations,
		LastUpdate:       unixOrZero(v.LastUpdate.Unix(), v.LastUpdate.IsZero()),
	}
}

// ChatMessage represents one chat entry
type ChatMessage struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}

// ChatMessageFromModel converts a model.ChatMessage
func ChatMessageFromModel(m model.ChatMessage) ChatMessage {
	return ChatMessage{
		PlayerID:   string(m.PlayerID),
		PlayerName: m.PlayerName,
		Message:    m.Message,
		Timestamp:  m.Timestamp.Unix(),
	}
}

// ChatResponse lists recent chat messages, oldest first
type ChatResponse struct {
	Envelope
	Messages []ChatMessage `json:"messages"`
	Count    int           `json:"count"`
}

// ChatSentResponse echoes a stored chat message
type ChatSentResponse struct {
	Envelope
	ChatMessage ChatMessage `json:"chatMessage"`
}

// EventQueuedResponse acknowledges a published event
type EventQueuedResponse struct {
	Envelope
	EventType string `json:"eventType"`
	Targets   int    `json:"targets"`
}

// Features lists the optional subsystems
type Features struct {
	EnableChat           bool `json:"enableChat"`
	EnableEconomySync    bool `json:"enableEconomySync"`
	EnablePlayerTracking bool `json:"enablePlayerTracking"`
}

// FeaturesFromCoordinator converts coordinator.Features
func FeaturesFromCoordinator(f coordinator.Features) Features {
	return Features{
		EnableChat:           f.Chat,
		EnableEconomySync:    f.EconomySync,
		EnablePlayerTracking: f.PlayerTracking,
	}
}

// ServerInfoResponse is the public server description
type ServerInfoResponse struct {
	Envelope
	ServerName    string   `json:"serverName"`
	Version       string   `json:"version"`
	ActivePlayers int      `json:"activePlayers"`
	MaxPlayers    int      `json:"maxPlayers"`
	UniverseTime  float64  `json:"universeTime"`
	Uptime        int64    `json:"uptime"`
	Features      Features `json:"features"`
}

// ServerInfoFromCoordinator converts coordinator.ServerInfo
func ServerInfoFromCoordinator(i coordinator.ServerInfo) ServerInfoResponse {
	return ServerInfoResponse{
		Envelope:      OK,
		ServerName:    i.Name,
		Version:       i.Version,
		ActivePlayers: i.ActivePlayers,
		MaxPlayers:    i.MaxPlayers,
		UniverseTime:  i.UniverseTime,
		Uptime:        int64(i.Uptime.Seconds()),
		Features:      FeaturesFromCoordinator(i.Features),
	}
}

// StatsResponse is the moderator view of server load
type StatsResponse struct {
	Envelope
	ActivePlayers            int   `json:"activePlayers"`
	MaxPlayers               int   `json:"maxPlayers"`
	RegisteredUsers          int   `json:"registeredUsers"`
	ActiveTokens             int   `json:"activeTokens"`
	WSConnections            int   `json:"wsConnections"`
	AuthenticatedConnections int   `json:"authenticatedConnections"`
	LockedAccounts           int   `json:"lockedAccounts"`
	PendingEvents            int   `json:"pendingEvents"`
	ChatMessages             int   `json:"chatMessages"`
	StartedAt                int64 `json:"startedAt"`
	Uptime                   int64 `json:"uptime"`
}

// StatsFromCoordinator converts coordinator.ServerStats
func StatsFromCoordinator(s coordinator.ServerStats) StatsResponse {
	return StatsResponse{
		Envelope:                 OK,
		ActivePlayers:            s.ActivePlayers,
		MaxPlayers:               s.MaxPlayers,
		RegisteredUsers:          s.RegisteredUsers,
		ActiveTokens:             s.ActiveTokens,
		WSConnections:            s.Connections,
		AuthenticatedConnections: s.AuthenticatedConnections,
		LockedAccounts:           s.LockedAccounts,
		PendingEvents:            s.PendingEvents,
		ChatMessages:             s.ChatMessages,
		StartedAt:                unixOrZero(s.StartedAt.Unix(), s.StartedAt.IsZero()),
		Uptime:                   int64(s.Uptime.Seconds()),
	}
}

// ConfigResponse is the runtime configuration
type ConfigResponse struct {
	Envelope
	ServerName             string   `json:"serverName"`
	TokenExpirationMinutes int      `json:"tokenExpirationMinutes"`
	AllowGuests            bool     `json:"allowGuests"`
	MaxPlayers             int      `json:"maxPlayers"`
	Features               Features `json:"features"`
}

// ConfigFromSettings converts coordinator.Settings
func ConfigFromSettings(s coordinator.Settings) ConfigResponse {
	return ConfigResponse{
		Envelope:               OK,
		ServerName:             s.ServerName,
		TokenExpirationMinutes: int(s.TokenTTL.Minutes()),
		AllowGuests:            s.AllowGuests,
		MaxPlayers:             s.MaxPlayers,
		Features:               FeaturesFromCoordinator(s.Features),
	}
}

func sectionMap(in map[model.PlayerID]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(in))
	for id, raw := range in {
		out[string(id)] = raw
	}
	return out
}

func unixOrZero(unix int64, zero bool) int64 {
	if zero {
		return 0
	}
	return unix
}
