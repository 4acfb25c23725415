package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mcoot/mpcoord/internal/api/request"
	"github.com/mcoot/mpcoord/internal/api/response"
)

const apiPrefix = "/api/v1"

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	response.Envelope
	Status string `json:"status"`
}

// Register creates an account
func (c *API) Register(ctx context.Context, req request.RegisterRequest) (response.RegisterResponse, error) {
	var resp response.RegisterResponse
	err := c.Post(ctx, apiPrefix+"/auth/register", req, &resp)
	return resp, err
}

// Login exchanges credentials for a token. The client keeps using the new token.
func (c *API) Login(ctx context.Context, username, password string) (response.LoginResponse, error) {
	var resp response.LoginResponse
	err := c.Post(ctx, apiPrefix+"/auth/login", request.LoginRequest{Username: username, Password: password}, &resp)
	if err == nil {
		c.SetToken(resp.Token)
	}
	return resp, err
}

// Logout revokes the client's token
func (c *API) Logout(ctx context.Context) error {
	return c.Post(ctx, apiPrefix+"/auth/logout", nil, nil)
}

// Validate reports whether the client's token is live
func (c *API) Validate(ctx context.Context) (response.ValidateResponse, error) {
	var resp response.ValidateResponse
	err := c.Get(ctx, apiPrefix+"/auth/validate", &resp)
	return resp, err
}

// Join registers a session
func (c *API) Join(ctx context.Context, req request.JoinRequest) (response.JoinResponse, error) {
	var resp response.JoinResponse
	err := c.Post(ctx, apiPrefix+"/mp/join", req, &resp)
	return resp, err
}

// Leave removes a session
func (c *API) Leave(ctx context.Context, playerID string) (response.LeaveResponse, error) {
	var resp response.LeaveResponse
	err := c.Post(ctx, apiPrefix+"/mp/leave", request.LeaveRequest{PlayerID: playerID}, &resp)
	return resp, err
}

// Heartbeat refreshes a session
func (c *API) Heartbeat(ctx context.Context, req request.HeartbeatRequest) (response.HeartbeatResponse, error) {
	var resp response.HeartbeatResponse
	err := c.Post(ctx, apiPrefix+"/mp/heartbeat", req, &resp)
	return resp, err
}

// UpdatePlayer changes session fields
func (c *API) UpdatePlayer(ctx context.Context, req request.UpdatePlayerRequest) (response.UpdatePlayerResponse, error) {
	var resp response.UpdatePlayerResponse
	err := c.Put(ctx, apiPrefix+"/mp/player/update", req, &resp)
	return resp, err
}

// Players lists the sessions
func (c *API) Players(ctx context.Context) (response.PlayersResponse, error) {
	var resp response.PlayersResponse
	err := c.Get(ctx, apiPrefix+"/mp/players", &resp)
	return resp, err
}

// Universe returns the shared universe state
func (c *API) Universe(ctx context.Context) (response.UniverseResponse, error) {
	var resp response.UniverseResponse
	err := c.Get(ctx, apiPrefix+"/mp/universe", &resp)
	return resp, err
}

// UpdateSharedState submits universe-wide state
func (c *API) UpdateSharedState(ctx context.Context, req request.SharedStateRequest) (response.UniverseResponse, error) {
	var resp response.UniverseResponse
	err := c.Put(ctx, apiPrefix+"/mp/economy", req, &resp)
	return resp, err
}

// SubmitEconomy submits a per-player economy snapshot. Requires a player token.
func (c *API) SubmitEconomy(ctx context.Context, req request.DetailedEconomyRequest) error {
	return c.Post(ctx, apiPrefix+"/mp/economy/detailed-update", req, nil)
}

// Economy returns the merged economy view
func (c *API) Economy(ctx context.Context) (response.EconomyResponse, error) {
	var resp response.EconomyResponse
	err := c.Get(ctx, apiPrefix+"/mp/economy/query", &resp)
	return resp, err
}

// SendChat appends a chat message
func (c *API) SendChat(ctx context.Context, req request.ChatRequest) (response.ChatSentResponse, error) {
	var resp response.ChatSentResponse
	err := c.Post(ctx, apiPrefix+"/mp/chat", req, &resp)
	return resp, err
}

// Chat returns recent chat messages. A zero limit means the server default.
func (c *API) Chat(ctx context.Context, limit int) (response.ChatResponse, error) {
	path := apiPrefix + "/mp/chat"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var resp response.ChatResponse
	err := c.Get(ctx, path, &resp)
	return resp, err
}

// PublishEvent queues a custom event. Requires a player token.
func (c *API) PublishEvent(ctx context.Context, req request.BroadcastEventRequest) (response.EventQueuedResponse, error) {
	var resp response.EventQueuedResponse
	err := c.Post(ctx, apiPrefix+"/mp/events/broadcast", req, &resp)
	return resp, err
}

// Info describes the server
func (c *API) Info(ctx context.Context) (response.ServerInfoResponse, error) {
	var resp response.ServerInfoResponse
	err := c.Get(ctx, apiPrefix+"/mp/info", &resp)
	return resp, err
}

// Health checks the API is serving
func (c *API) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	err := c.Get(ctx, apiPrefix+"/health", &resp)
	return resp, err
}

// Users lists accounts. Requires an admin token.
func (c *API) Users(ctx context.Context) (response.UsersResponse, error) {
	var resp response.UsersResponse
	err := c.Get(ctx, apiPrefix+"/admin/users", &resp)
	return resp, err
}

// SetPermission changes a user's level. Requires an admin token.
func (c *API) SetPermission(ctx context.Context, username string, level int) (response.UserResponse, error) {
	var resp response.UserResponse
	err := c.Patch(ctx, apiPrefix+"/admin/users/"+url.PathEscape(username)+"/permission",
		request.SetPermissionRequest{PermissionLevel: level}, &resp)
	return resp, err
}

// DeleteUser removes an account. Requires an admin token.
func (c *API) DeleteUser(ctx context.Context, username string) error {
	return c.Delete(ctx, apiPrefix+"/admin/users/"+url.PathEscape(username), nil)
}

// UnlockUser clears a login lockout. Requires an admin token.
func (c *API) UnlockUser(ctx context.Context, username string) (response.UserResponse, error) {
	var resp response.UserResponse
	err := c.Post(ctx, apiPrefix+"/admin/users/"+url.PathEscape(username)+"/unlock", nil, &resp)
	return resp, err
}

// AdminPlayers lists the sessions. Requires a moderator token.
func (c *API) AdminPlayers(ctx context.Context) (response.PlayersResponse, error) {
	var resp response.PlayersResponse
	err := c.Get(ctx, apiPrefix+"/admin/players", &resp)
	return resp, err
}

// Stats returns server statistics. Requires a moderator token.
func (c *API) Stats(ctx context.Context) (response.StatsResponse, error) {
	var resp response.StatsResponse
	err := c.Get(ctx, apiPrefix+"/admin/stats", &resp)
	return resp, err
}

// Config returns the runtime settings. Requires an admin token.
func (c *API) Config(ctx context.Context) (response.ConfigResponse, error) {
	var resp response.ConfigResponse
	err := c.Get(ctx, apiPrefix+"/admin/config", &resp)
	return resp, err
}

// UpdateConfig changes runtime settings. Requires an admin token.
func (c *API) UpdateConfig(ctx context.Context, req request.UpdateConfigRequest) (response.ConfigResponse, error) {
	var resp response.ConfigResponse
	err := c.Patch(ctx, apiPrefix+"/admin/config", req, &resp)
	return resp, err
}
