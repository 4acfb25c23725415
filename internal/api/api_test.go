package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/mpcoord/internal/api"
	"github.com/mcoot/mpcoord/internal/api/apierr"
	"github.com/mcoot/mpcoord/internal/api/response"
	"github.com/mcoot/mpcoord/internal/config"
	"github.com/mcoot/mpcoord/internal/factory"
	"github.com/mcoot/mpcoord/internal/metrics"
	"github.com/mcoot/mpcoord/internal/model"
	"github.com/mcoot/mpcoord/internal/testutil"
)

// testServer creates a test server with all dependencies
type testServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithConfig(t, factory.TestConfig())
}

func newTestServerWithConfig(t *testing.T, cfg config.Config) *testServer {
	t.Helper()

	app := factory.NewTestAppWithConfig(cfg)
	app.Coordinator.Start(t.Context())
	t.Cleanup(app.Coordinator.Stop)

	router := api.NewRouter(api.RouterConfig{
		Logger:        testutil.NopLogger(),
		Coordinator:   app.Coordinator,
		Metrics:       metrics.Handler(app.Registry),
		AuthRateLimit: cfg.Server.AuthRateLimit,
	})

	return &testServer{t: t, handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// userToken registers username at level and returns a fresh login token
func (ts *testServer) userToken(username string, level model.PermissionLevel) string {
	ts.t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": username,
		"password": "secret123",
	}, "")
	require.Equal(ts.t, http.StatusCreated, rr.Code, rr.Body.String())
	if level != model.PermissionPlayer {
		require.NoError(ts.t, ts.app.Auth.UpdatePermissionLevel(username, level))
	}

	rr = ts.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": "secret123",
	}, "")
	require.Equal(ts.t, http.StatusOK, rr.Code, rr.Body.String())
	var resp response.LoginResponse
	require.NoError(ts.t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rr.Code, rr.Body.String())
	resp := decode[apierr.ErrorResponse](t, rr)
	assert.False(t, resp.Success)
	assert.Equal(t, code, resp.Error.Code)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	ts := newTestServer(t)

	assertError(t, ts.request(http.MethodGet, "/api/v1/nothing-here", nil, ""), http.StatusNotFound, apierr.CodeNotFound)
	assertError(t, ts.request(http.MethodGet, "/elsewhere", nil, ""), http.StatusNotFound, apierr.CodeNotFound)
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "alice",
		"password": "secret123",
		"email":    "alice@example.com",
	}, "")
	assert.Equal(t, http.StatusCreated, rr.Code)
	registered := decode[response.RegisterResponse](t, rr)
	assert.True(t, registered.Success)
	assert.Equal(t, "alice", registered.Username)

	rr = ts.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "alice",
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	login := decode[response.LoginResponse](t, rr)
	assert.True(t, login.Success)
	assert.Equal(t, "alice", login.Username)
	assert.Equal(t, 1, login.PermissionLevel)
	assert.Len(t, login.Token, 64)
	assert.Equal(t, ts.app.MockClock.Now().Add(ts.app.Config.Auth.TokenTTL).Unix(), login.ExpiresAt)
}

func TestRegisterErrors(t *testing.T) {
	ts := newTestServer(t)
	ts.userToken("alice", model.PermissionPlayer)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"duplicate", map[string]string{"username": "alice", "password": "secret123"}, http.StatusConflict, apierr.CodeUsernameExists},
		{"weak password", map[string]string{"username": "bob", "password": "abc"}, http.StatusBadRequest, apierr.CodeWeakPassword},
		{"password over 72 bytes", map[string]string{"username": "dave", "password": strings.Repeat("p", 80)}, http.StatusBadRequest, apierr.CodeValidationFailed},
		{"missing username", map[string]string{"password": "secret123"}, http.StatusBadRequest, apierr.CodeValidationFailed},
		{"bad email", map[string]string{"username": "carol", "password": "secret123", "email": "nope"}, http.StatusBadRequest, apierr.CodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertError(t, ts.request(http.MethodPost, "/api/v1/auth/register", tt.body, ""), tt.status, tt.code)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assertError(t, rr, http.StatusBadRequest, apierr.CodeInvalidRequest)
}

func TestLoginLockout(t *testing.T) {
	ts := newTestServer(t)
	ts.userToken("alice", model.PermissionPlayer)

	bad := map[string]string{"username": "alice", "password": "wrong-password"}
	for i := 0; i < ts.app.Config.Auth.MaxFailedAttempts; i++ {
		assertError(t, ts.request(http.MethodPost, "/api/v1/auth/login", bad, ""), http.StatusUnauthorized, apierr.CodeInvalidCredentials)
	}

	good := map[string]string{"username": "alice", "password": "secret123"}
	assertError(t, ts.request(http.MethodPost, "/api/v1/auth/login", good, ""), http.StatusTooManyRequests, apierr.CodeAccountLocked)

	// the lockout lapses after the configured window
	ts.app.MockClock.Advance(ts.app.Config.Auth.LockoutDuration)
	rr := ts.request(http.MethodPost, "/api/v1/auth/login", good, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdminUnlock(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.userToken("root", model.PermissionAdmin)
	ts.userToken("alice", model.PermissionPlayer)

	bad := map[string]string{"username": "alice", "password": "wrong-password"}
	for i := 0; i < ts.app.Config.Auth.MaxFailedAttempts; i++ {
		ts.request(http.MethodPost, "/api/v1/auth/login", bad, "")
	}

	rr := ts.request(http.MethodPost, "/api/v1/admin/users/alice/unlock", nil, admin)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 0, decode[response.UserResponse](t, rr).User.FailedLogins)

	good := map[string]string{"username": "alice", "password": "secret123"}
	assert.Equal(t, http.StatusOK, ts.request(http.MethodPost, "/api/v1/auth/login", good, "").Code)

	assertError(t, ts.request(http.MethodPost, "/api/v1/admin/users/ghost/unlock", nil, admin), http.StatusNotFound, apierr.CodeUserNotFound)
}

func TestLogoutAndValidate(t *testing.T) {
	ts := newTestServer(t)
	token := ts.userToken("alice", model.PermissionPlayer)

	rr := ts.request(http.MethodGet, "/api/v1/auth/validate", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	valid := decode[response.ValidateResponse](t, rr)
	assert.True(t, valid.Valid)
	assert.Equal(t, "alice", valid.Username)

	// query parameter fallback
	rr = ts.request(http.MethodGet, "/api/v1/auth/validate?token="+token, nil, "")
	assert.True(t, decode[response.ValidateResponse](t, rr).Valid)

	assert.Equal(t, http.StatusOK, ts.request(http.MethodPost, "/api/v1/auth/logout", nil, token).Code)

	rr = ts.request(http.MethodGet, "/api/v1/auth/validate", nil, token)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decode[response.ValidateResponse](t, rr).Valid)

	assertError(t, ts.request(http.MethodPost, "/api/v1/auth/logout", nil, token), http.StatusUnauthorized, apierr.CodeUnauthorized)
	assertError(t, ts.request(http.MethodPost, "/api/v1/auth/logout", nil, ""), http.StatusUnauthorized, apierr.CodeUnauthorized)
}

func TestPermissionTiers(t *testing.T) {
	ts := newTestServer(t)
	player := ts.userToken("player", model.PermissionPlayer)
	moderator := ts.userToken("moderator", model.PermissionModerator)
	admin := ts.userToken("admin", model.PermissionAdmin)

	tests := []struct {
		method string
		path   string
		token  string
		status int
	}{
		{http.MethodGet, "/api/v1/admin/stats", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/admin/stats", "bogus", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/admin/stats", player, http.StatusForbidden},
		{http.MethodGet, "/api/v1/admin/stats", moderator, http.StatusOK},
		{http.MethodGet, "/api/v1/admin/players", moderator, http.StatusOK},
		{http.MethodGet, "/api/v1/admin/users", moderator, http.StatusForbidden},
		{http.MethodGet, "/api/v1/admin/users", admin, http.StatusOK},
		{http.MethodGet, "/api/v1/admin/config", moderator, http.StatusForbidden},
		{http.MethodGet, "/api/v1/admin/config", admin, http.StatusOK},
		{http.MethodGet, "/api/v1/admin/stats", admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s %d", tt.method, tt.path, tt.status), func(t *testing.T) {
			rr := ts.request(tt.method, tt.path, nil, tt.token)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}

func TestAdminUserManagement(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.userToken("root", model.PermissionAdmin)
	alice := ts.userToken("alice", model.PermissionPlayer)

	rr := ts.request(http.MethodGet, "/api/v1/admin/users", nil, admin)
	require.Equal(t, http.StatusOK, rr.Code)
	users := decode[response.UsersResponse](t, rr)
	assert.Len(t, users.Users, 2)
	assert.Equal(t, 2, users.Stats.RegisteredUsers)
	assert.Equal(t, 1, users.Stats.ActiveAdmins)

	// promotion reaches alice's live token
	rr = ts.request(http.MethodPatch, "/api/v1/admin/users/alice/permission", map[string]int{"permissionLevel": 2}, admin)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 2, decode[response.UserResponse](t, rr).User.PermissionLevel)
	assert.Equal(t, http.StatusOK, ts.request(http.MethodGet, "/api/v1/admin/stats", nil, alice).Code)

	assertError(t, ts.request(http.MethodPatch, "/api/v1/admin/users/alice/permission", map[string]int{"permissionLevel": 7}, admin),
		http.StatusBadRequest, apierr.CodeValidationFailed)
	assertError(t, ts.request(http.MethodPatch, "/api/v1/admin/users/ghost/permission", map[string]int{"permissionLevel": 1}, admin),
		http.StatusNotFound, apierr.CodeUserNotFound)

	// admins cannot delete themselves
	assertError(t, ts.request(http.MethodDelete, "/api/v1/admin/users/root", nil, admin), http.StatusBadRequest, apierr.CodeInvalidRequest)

	// deletion revokes alice's tokens
	assert.Equal(t, http.StatusOK, ts.request(http.MethodDelete, "/api/v1/admin/users/alice", nil, admin).Code)
	assertError(t, ts.request(http.MethodGet, "/api/v1/admin/stats", nil, alice), http.StatusUnauthorized, apierr.CodeUnauthorized)
	assertError(t, ts.request(http.MethodDelete, "/api/v1/admin/users/alice", nil, admin), http.StatusNotFound, apierr.CodeUserNotFound)
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/mp/join", map[string]any{
		"playerId":      "p1",
		"playerName":    "Alice",
		"currentSector": "Argon Prime",
		"position":      map[string]float64{"x": 1, "y": 2, "z": 3},
	}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	joined := decode[response.JoinResponse](t, rr)
	assert.Equal(t, "p1", joined.Player.PlayerID)
	assert.Equal(t, "Argon Prime", joined.Player.CurrentSector)

	rr = ts.request(http.MethodPost, "/api/v1/mp/heartbeat", map[string]any{"playerId": "p1", "currentSector": "Home of Light"}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[response.HeartbeatResponse](t, rr).Known)

	rr = ts.request(http.MethodPost, "/api/v1/mp/heartbeat", map[string]any{"playerId": "ghost"}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decode[response.HeartbeatResponse](t, rr).Known)

	rr = ts.request(http.MethodPut, "/api/v1/mp/player/update", map[string]any{"playerId": "p1", "playerName": "Alice II"}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[response.UpdatePlayerResponse](t, rr)
	assert.True(t, updated.Updated)
	require.NotNil(t, updated.Player)
	assert.Equal(t, "Alice II", updated.Player.PlayerName)

	rr = ts.request(http.MethodGet, "/api/v1/mp/players", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	players := decode[response.PlayersResponse](t, rr)
	require.Equal(t, 1, players.Count)
	assert.Equal(t, "Home of Light", players.Players[0].CurrentSector)

	rr = ts.request(http.MethodPost, "/api/v1/mp/leave", map[string]string{"playerId": "p1"}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[response.LeaveResponse](t, rr).Removed)

	rr = ts.request(http.MethodPost, "/api/v1/mp/leave", map[string]string{"playerId": "p1"}, "")
	assert.False(t, decode[response.LeaveResponse](t, rr).Removed)

	assertError(t, ts.request(http.MethodPost, "/api/v1/mp/join", map[string]string{"playerName": "NoID"}, ""),
		http.StatusBadRequest, apierr.CodeValidationFailed)
}

func TestServerFull(t *testing.T) {
	cfg := factory.TestConfig()
	cfg.Session.MaxPlayers = 1
	ts := newTestServerWithConfig(t, cfg)

	join := func(id string) *httptest.ResponseRecorder {
		return ts.request(http.MethodPost, "/api/v1/mp/join", map[string]string{"playerId": id, "playerName": id}, "")
	}
	assert.Equal(t, http.StatusOK, join("p1").Code)
	assertError(t, join("p2"), http.StatusServiceUnavailable, apierr.CodeServerFull)
	// rejoin never counts against the cap
	assert.Equal(t, http.StatusOK, join("p1").Code)
}

func TestGuestsDisabledRequireToken(t *testing.T) {
	cfg := factory.TestConfig()
	cfg.Auth.AllowGuests = false
	ts := newTestServerWithConfig(t, cfg)
	token := ts.userToken("alice", model.PermissionPlayer)

	assertError(t, ts.request(http.MethodGet, "/api/v1/mp/players", nil, ""), http.StatusUnauthorized, apierr.CodeUnauthorized)
	assert.Equal(t, http.StatusOK, ts.request(http.MethodGet, "/api/v1/mp/players", nil, token).Code)

	// info stays public
	assert.Equal(t, http.StatusOK, ts.request(http.MethodGet, "/api/v1/mp/info", nil, "").Code)
}

func TestChat(t *testing.T) {
	ts := newTestServer(t)

	for i := 1; i <= 3; i++ {
		rr := ts.request(http.MethodPost, "/api/v1/mp/chat", map[string]string{
			"playerId":   "p1",
			"playerName": "Alice",
			"message":    fmt.Sprintf("message %d", i),
		}, "")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr := ts.request(http.MethodGet, "/api/v1/mp/chat?limit=2", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	chat := decode[response.ChatResponse](t, rr)
	require.Equal(t, 2, chat.Count)
	assert.Equal(t, "message 2", chat.Messages[0].Message)
	assert.Equal(t, "message 3", chat.Messages[1].Message)

	rr = ts.request(http.MethodGet, "/api/v1/mp/chat", nil, "")
	assert.Equal(t, 3, decode[response.ChatResponse](t, rr).Count)

	assertError(t, ts.request(http.MethodGet, "/api/v1/mp/chat?limit=-1", nil, ""), http.StatusBadRequest, apierr.CodeInvalidRequest)
	assertError(t, ts.request(http.MethodGet, "/api/v1/mp/chat?limit=many", nil, ""), http.StatusBadRequest, apierr.CodeInvalidRequest)
	assertError(t, ts.request(http.MethodPost, "/api/v1/mp/chat", map[string]string{"playerId": "p1", "playerName": "Alice"}, ""),
		http.StatusBadRequest, apierr.CodeValidationFailed)
}

func TestFeatureDisabled(t *testing.T) {
	cfg := factory.TestConfig()
	cfg.Features.EnableChat = false
	cfg.Features.EnableEconomySync = false
	ts := newTestServerWithConfig(t, cfg)

	assertError(t, ts.request(http.MethodGet, "/api/v1/mp/chat", nil, ""), http.StatusServiceUnavailable, apierr.CodeFeatureDisabled)
	assertError(t, ts.request(http.MethodGet, "/api/v1/mp/economy/query", nil, ""), http.StatusServiceUnavailable, apierr.CodeFeatureDisabled)

	rr := ts.request(http.MethodGet, "/api/v1/mp/info", nil, "")
	info := decode[response.ServerInfoResponse](t, rr)
	assert.False(t, info.Features.EnableChat)
	assert.True(t, info.Features.EnablePlayerTracking)
}

func TestEconomy(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.userToken("alice", model.PermissionPlayer)
	bob := ts.userToken("bob", model.PermissionPlayer)

	rr := ts.request(http.MethodPost, "/api/v1/mp/economy/detailed-update", map[string]any{
		"stations": map[string]any{"st-1": map[string]string{"owner": "argon"}},
	}, alice)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodPost, "/api/v1/mp/economy/detailed-update", map[string]any{
		"prices": map[string]int{"energycells": 16},
	}, bob)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodGet, "/api/v1/mp/economy/query", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	economy := decode[response.EconomyResponse](t, rr)
	assert.Contains(t, economy.Stations, "alice")
	assert.Contains(t, economy.Prices, "bob")
	assert.Empty(t, economy.SupplyDemand)

	assertError(t, ts.request(http.MethodPost, "/api/v1/mp/economy/detailed-update", map[string]any{}, alice),
		http.StatusBadRequest, apierr.CodeEmptyUpdate)
	assertError(t, ts.request(http.MethodPost, "/api/v1/mp/economy/detailed-update", map[string]any{"prices": map[string]int{}}, ""),
		http.StatusUnauthorized, apierr.CodeUnauthorized)
}

func TestEconomySlotIsCallersOwn(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.userToken("alice", model.PermissionPlayer)
	mallory := ts.userToken("mallory", model.PermissionPlayer)

	rr := ts.request(http.MethodPost, "/api/v1/mp/economy/detailed-update", map[string]any{
		"prices": map[string]int{"energycells": 16},
	}, alice)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// A foreign playerId in the body is ignored
	rr = ts.request(http.MethodPost, "/api/v1/mp/economy/detailed-update", map[string]any{
		"playerId": "alice",
		"prices":   map[string]int{"energycells": 9999},
	}, mallory)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodGet, "/api/v1/mp/economy/query", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	economy := decode[response.EconomyResponse](t, rr)
	assert.JSONEq(t, `{"energycells":16}`, string(economy.Prices["alice"]))
	assert.JSONEq(t, `{"energycells":9999}`, string(economy.Prices["mallory"]))
}

func TestSharedUniverseState(t *testing.T) {
	ts := newTestServer(t)
	ts.request(http.MethodPost, "/api/v1/mp/join", map[string]string{"playerId": "p1", "playerName": "Alice"}, "")

	rr := ts.request(http.MethodPut, "/api/v1/mp/economy", map[string]any{
		"playerId":         "p1",
		"universeTime":     1234.5,
		"factionRelations": map[string]int{"argon-teladi": 10},
	}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodGet, "/api/v1/mp/universe", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	universe := decode[response.UniverseResponse](t, rr)
	assert.InDelta(t, 1234.5, universe.UniverseTime, 0.001)
	assert.Equal(t, 1, universe.ActivePlayers)
	assert.JSONEq(t, `{"argon-teladi":10}`, string(universe.FactionRelations))

	assertError(t, ts.request(http.MethodPut, "/api/v1/mp/economy", map[string]any{"universeTime": -1}, ""),
		http.StatusBadRequest, apierr.CodeValidationFailed)
}

func TestBroadcastEvent(t *testing.T) {
	ts := newTestServer(t)
	token := ts.userToken("alice", model.PermissionPlayer)

	rr := ts.request(http.MethodPost, "/api/v1/mp/events/broadcast", map[string]any{
		"eventType": "fleet_moved",
		"data":      map[string]string{"sector": "Argon Prime"},
		"targets":   []string{"bob"},
	}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	queued := decode[response.EventQueuedResponse](t, rr)
	assert.Equal(t, "fleet_moved", queued.EventType)
	assert.Equal(t, 1, queued.Targets)

	assertError(t, ts.request(http.MethodPost, "/api/v1/mp/events/broadcast", map[string]any{"data": 1}, token),
		http.StatusBadRequest, apierr.CodeValidationFailed)
	for _, typ := range []model.EventType{model.EventPlayerJoined, model.EventPlayerTimeout, model.EventEconomyUpdate, model.EventChatMessage} {
		assertError(t, ts.request(http.MethodPost, "/api/v1/mp/events/broadcast", map[string]any{"eventType": typ}, token),
			http.StatusBadRequest, apierr.CodeReservedEventType)
	}
	assertError(t, ts.request(http.MethodPost, "/api/v1/mp/events/broadcast", map[string]any{"eventType": "x"}, ""),
		http.StatusUnauthorized, apierr.CodeUnauthorized)
}

func TestBroadcastWhileStopped(t *testing.T) {
	ts := newTestServer(t)
	token := ts.userToken("alice", model.PermissionPlayer)
	ts.app.Coordinator.Stop()

	assertError(t, ts.request(http.MethodPost, "/api/v1/mp/events/broadcast", map[string]any{"eventType": "x"}, token),
		http.StatusServiceUnavailable, apierr.CodeServiceUnavailable)
}

func TestConfigUpdate(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.userToken("root", model.PermissionAdmin)

	rr := ts.request(http.MethodPatch, "/api/v1/admin/config", map[string]any{
		"tokenExpirationMinutes": 30,
		"allowGuests":            false,
		"maxPlayers":             4,
	}, admin)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	cfg := decode[response.ConfigResponse](t, rr)
	assert.Equal(t, 30, cfg.TokenExpirationMinutes)
	assert.False(t, cfg.AllowGuests)
	assert.Equal(t, 4, cfg.MaxPlayers)

	// guests are now refused
	assertError(t, ts.request(http.MethodGet, "/api/v1/mp/players", nil, ""), http.StatusUnauthorized, apierr.CodeUnauthorized)

	// the change was persisted
	doc, err := ts.app.Store.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 30, doc.Config.TokenExpirationMinutes)

	assertError(t, ts.request(http.MethodPatch, "/api/v1/admin/config", map[string]any{"tokenExpirationMinutes": 0}, admin),
		http.StatusBadRequest, apierr.CodeValidationFailed)
}

func TestStatsAndInfo(t *testing.T) {
	ts := newTestServer(t)
	moderator := ts.userToken("mod", model.PermissionModerator)
	ts.request(http.MethodPost, "/api/v1/mp/join", map[string]string{"playerId": "p1", "playerName": "Alice"}, "")

	rr := ts.request(http.MethodGet, "/api/v1/admin/stats", nil, moderator)
	require.Equal(t, http.StatusOK, rr.Code)
	stats := decode[response.StatsResponse](t, rr)
	assert.Equal(t, 1, stats.ActivePlayers)
	assert.Equal(t, 1, stats.RegisteredUsers)
	assert.Equal(t, 1, stats.ActiveTokens)
	assert.Equal(t, 10, stats.MaxPlayers)

	rr = ts.request(http.MethodGet, "/api/v1/mp/info", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	info := decode[response.ServerInfoResponse](t, rr)
	assert.Equal(t, "X4 Multiplayer Server", info.ServerName)
	assert.Equal(t, 1, info.ActivePlayers)
}

func TestAuthRateLimit(t *testing.T) {
	cfg := factory.TestConfig()
	cfg.Server.AuthRateLimit = 2
	ts := newTestServerWithConfig(t, cfg)

	body := map[string]string{"username": "nobody", "password": "wrong-password"}
	assert.Equal(t, http.StatusUnauthorized, ts.request(http.MethodPost, "/api/v1/auth/login", body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, ts.request(http.MethodPost, "/api/v1/auth/login", body, "").Code)
	assertError(t, ts.request(http.MethodPost, "/api/v1/auth/login", body, ""), http.StatusTooManyRequests, apierr.CodeRateLimited)

	// validate is not limited
	assert.Equal(t, http.StatusOK, ts.request(http.MethodGet, "/api/v1/auth/validate", nil, "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.request(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "x", "password": "y"}, "")

	rr := ts.request(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "mpcoord_login_attempts_total")
}
