package factory

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/mpcoord/internal/config"
	"github.com/mcoot/mpcoord/internal/coordinator"
	"github.com/mcoot/mpcoord/internal/model"
)

type IntegrationSuite struct {
	suite.Suite
	app    *TestApp
	ctx    context.Context
	server *httptest.Server
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
	s.server = httptest.NewServer(s.app.Hub)
	s.app.Coordinator.Start(s.ctx)
}

func (s *IntegrationSuite) TearDownTest() {
	s.app.Coordinator.Stop()
	s.server.Close()
}

func (s *IntegrationSuite) login(username string) model.Token {
	s.Require().NoError(s.app.Coordinator.Register(s.ctx, username, "secret-pass", ""))
	token, err := s.app.Coordinator.Login(username, "secret-pass")
	s.Require().NoError(err)
	return token
}

func (s *IntegrationSuite) connect(token string) *websocket.Conn {
	before := s.app.Hub.Count()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = ws.Close() })
	s.Require().Eventually(func() bool { return s.app.Hub.Count() > before }, time.Second, 5*time.Millisecond)

	if token != "" {
		s.Require().NoError(ws.WriteJSON(map[string]string{"type": "auth", "token": token}))
		frame := s.read(ws)
		s.Require().Equal("auth_response", frame["type"])
		s.Require().Equal(true, frame["success"])
	}
	return ws
}

func (s *IntegrationSuite) read(ws *websocket.Conn) map[string]any {
	s.Require().NoError(ws.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, data, err := ws.ReadMessage()
	s.Require().NoError(err)
	var frame map[string]any
	s.Require().NoError(json.Unmarshal(data, &frame))
	return frame
}

// Test: a joining player is announced to every live connection
func (s *IntegrationSuite) TestJoinIsBroadcast() {
	alice := s.login("alice")
	aliceWS := s.connect(alice.Value)
	anonWS := s.connect("")

	_, err := s.app.Coordinator.Join(coordinator.JoinParams{
		PlayerID:    "p-alice",
		DisplayName: "Alice",
		Sector:      "Argon Prime",
	})
	s.Require().NoError(err)

	for _, ws := range []*websocket.Conn{aliceWS, anonWS} {
		frame := s.read(ws)
		s.Equal("event", frame["type"])
		s.Equal("player_joined", frame["eventType"])
		data := frame["data"].(map[string]any)
		s.Equal("p-alice", data["playerId"])
		s.Equal("Argon Prime", data["currentSector"])
	}
}

// Test: a direct event reaches only the named user
func (s *IntegrationSuite) TestDirectEvent() {
	alice := s.login("alice")
	bob := s.login("bob")
	aliceWS := s.connect(alice.Value)
	bobWS := s.connect(bob.Value)

	s.Require().NoError(s.app.Coordinator.SendEventToPlayer("bob", "trade_offer", map[string]any{"ware": "energycells"}))
	_, err := s.app.Coordinator.SendChat("p-alice", "Alice", "hello")
	s.Require().NoError(err)

	frame := s.read(bobWS)
	s.Equal("trade_offer", frame["eventType"])
	s.Equal("energycells", frame["data"].(map[string]any)["ware"])
	s.Equal("chat_message", s.read(bobWS)["eventType"])

	// alice skips the direct event and sees only the chat
	s.Equal("chat_message", s.read(aliceWS)["eventType"])
}

// Test: the session sweep evicts silent players and announces the timeout
func (s *IntegrationSuite) TestSessionTimeout() {
	ws := s.connect("")
	_, err := s.app.Coordinator.Join(coordinator.JoinParams{PlayerID: "p1", DisplayName: "One"})
	s.Require().NoError(err)
	s.Equal("player_joined", s.read(ws)["eventType"])

	s.app.MockClock.Advance(s.app.Config.Session.HeartbeatTimeout + time.Second)
	s.Equal(1, s.app.Coordinator.SweepSessions())

	frame := s.read(ws)
	s.Equal("player_timeout", frame["eventType"])
	s.Equal("p1", frame["data"].(map[string]any)["playerId"])
	s.Equal(0, s.app.Sessions.Count())
}

// Test: economy submissions from several players merge into one view
func (s *IntegrationSuite) TestEconomyMerge() {
	s.Require().NoError(s.app.Coordinator.SubmitEconomy("p1", model.EconomySnapshot{
		Stations: json.RawMessage(`{"st-1":{"owner":"argon"}}`),
	}))
	s.Require().NoError(s.app.Coordinator.SubmitEconomy("p2", model.EconomySnapshot{
		Prices: json.RawMessage(`{"energycells":16}`),
	}))

	view, err := s.app.Coordinator.Economy()
	s.Require().NoError(err)
	s.Len(view.Stations, 1)
	s.Len(view.Prices, 1)
	s.Contains(view.Stations, model.PlayerID("p1"))
	s.Contains(view.Prices, model.PlayerID("p2"))
}

// Test: settings changes are saved to the credential store
func (s *IntegrationSuite) TestSettingsPersist() {
	s.login("admin")
	ttl := 2 * time.Hour
	allow := false
	_, err := s.app.Coordinator.UpdateSettings(s.ctx, "admin", coordinator.SettingsUpdate{TokenTTL: &ttl, AllowGuests: &allow})
	s.Require().NoError(err)

	doc, err := s.app.Store.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal(120, doc.Config.TokenExpirationMinutes)
	s.False(doc.Config.AllowGuests)
	s.Contains(doc.Users, "admin")
}

func TestNewWithFileStorageRestoresUsers(t *testing.T) {
	ctx := context.Background()
	cfg := TestConfig()
	cfg.Storage.Type = config.StorageFile
	cfg.Storage.Path = filepath.Join(t.TempDir(), "auth_data.json")

	first, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, first.Coordinator.Register(ctx, "alice", "secret-pass", "alice@example.com"))
	require.NoError(t, first.Close())

	second, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, second.Close()) }()

	user, err := second.Coordinator.User("alice")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email)
	_, err = second.Coordinator.Login("alice", "secret-pass")
	require.NoError(t, err)
}

func TestNewWithRedisStorage(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cfg := TestConfig()
	cfg.Storage.Type = config.StorageRedis
	cfg.Redis.URL = "redis://" + mr.Addr()

	app, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, app.Coordinator.Register(ctx, "alice", "secret-pass", ""))
	require.NoError(t, app.Close())

	restored, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, restored.Close()) }()
	_, err = restored.Coordinator.User("alice")
	require.NoError(t, err)
}

func TestNewRejectsUnknownStorage(t *testing.T) {
	cfg := TestConfig()
	cfg.Storage.Type = "postgres"
	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
}

func TestNewRedisUnreachable(t *testing.T) {
	cfg := TestConfig()
	cfg.Storage.Type = config.StorageRedis
	cfg.Redis.URL = "redis://127.0.0.1:1"
	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
}
