// Package realtime serves the WebSocket channel that pushes events to game clients.
package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mcoot/mpcoord/internal/dependencies/clock"
	"github.com/mcoot/mpcoord/internal/metrics"
	"github.com/mcoot/mpcoord/internal/model"
)

// TokenResolver resolves an access token to its live record
type TokenResolver interface {
	Lookup(token string) (model.Token, bool)
}

// Hub owns the set of live connections
type Hub struct {
	resolver TokenResolver
	clock    clock.Clock
	metrics  *metrics.Metrics
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	conns  map[*Conn]struct{}
	closed bool
}

// NewHub creates a Hub that authenticates connections against resolver
func NewHub(resolver TokenResolver, clk clock.Clock, m *metrics.Metrics, logger *slog.Logger) *Hub {
	return &Hub{
		resolver: resolver,
		clock:    clk,
		metrics:  m,
		logger:   logger.With(slog.String("component", "realtime")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game clients are not browsers; there is no origin to check
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		h.logger.Warn("realtime upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()))
		return
	}

	conn := newConn(h, ws, r.RemoteAddr)
	if !h.register(conn) {
		_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "shutting down"))
		_ = ws.Close()
		return
	}

	go conn.writePump()
	conn.readPump()
}

// Deliver queues the event frame on every eligible connection without blocking.
// Broadcasts reach every connection; targeted events reach only authenticated
// connections whose username is a target. A connection whose buffer is full
// misses the frame and is left for its own pumps to clean up.
func (h *Hub) Deliver(evt model.Event) (delivered, failed int) {
	frame, err := json.Marshal(EventFrameFromModel(evt))
	if err != nil {
		h.logger.Error("event frame encode failed",
			slog.String("event_type", string(evt.Type)),
			slog.String("error", err.Error()))
		return 0, 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.conns {
		if !evt.IsBroadcast() && !evt.TargetsUser(conn.Username()) {
			continue
		}
		select {
		case conn.send <- frame:
			delivered++
		default:
			failed++
			h.logger.Warn("realtime frame dropped - client buffer full",
				slog.String("username", conn.Username()),
				slog.String("remote_addr", conn.remoteAddr))
		}
	}
	return delivered, failed
}

// Count returns the number of live connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// AuthenticatedCount returns the number of connections bound to a user
func (h *Hub) AuthenticatedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for conn := range h.conns {
		if conn.Username() != "" {
			n++
		}
	}
	return n
}

// Close disconnects every connection and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	count := len(h.conns)
	for conn := range h.conns {
		close(conn.send)
		delete(h.conns, conn)
	}
	h.closed = true
	h.mu.Unlock()

	h.metrics.ActiveConnections.Set(0)
	h.logger.Info("realtime hub closed", slog.Int("disconnected_clients", count))
}

// Open lets a closed hub accept connections again
func (h *Hub) Open() {
	h.mu.Lock()
	h.closed = false
	h.mu.Unlock()
}

func (h *Hub) register(conn *Conn) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.conns[conn] = struct{}{}
	count := len(h.conns)
	h.mu.Unlock()

	h.metrics.ActiveConnections.Set(float64(count))
	h.logger.Info("realtime client connected",
		slog.String("remote_addr", conn.remoteAddr),
		slog.Int("total_clients", count))
	return true
}

func (h *Hub) unregister(conn *Conn) {
	h.mu.Lock()
	if _, ok := h.conns[conn]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, conn)
	close(conn.send)
	count := len(h.conns)
	h.mu.Unlock()

	h.metrics.ActiveConnections.Set(float64(count))
	h.logger.Info("realtime client disconnected",
		slog.String("username", conn.Username()),
		slog.String("remote_addr", conn.remoteAddr),
		slog.Duration("connection_duration", h.clock.Now().Sub(conn.connectedAt)),
		slog.Int("total_clients", count))
}

// reply queues a control frame for one connection if it is still registered
func (h *Hub) reply(conn *Conn, frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.conns[conn]; !ok {
		return
	}
	select {
	case conn.send <- data:
	default:
		h.logger.Warn("realtime reply dropped - client buffer full", slog.String("remote_addr", conn.remoteAddr))
	}
}

func (h *Hub) handleFrame(conn *Conn, data []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.reply(conn, ErrorFrame{Type: FrameError, Error: "invalid message"})
		return
	}

	switch frame.Type {
	case FrameAuth:
		h.authenticate(conn, frame.Token)
	case FramePing:
		h.reply(conn, map[string]string{"type": FramePong})
	default:
		h.reply(conn, ErrorFrame{Type: FrameError, Error: "unknown message type"})
	}
}

// authenticate handles the one auth frame a connection may send.
// A failed attempt leaves the connection open for broadcasts.
func (h *Hub) authenticate(conn *Conn, token string) {
	if !conn.beginAuth() {
		h.reply(conn, AuthResponseFrame{Type: FrameAuthResponse, Success: false, Error: "authentication already attempted"})
		return
	}

	record, ok := h.resolver.Lookup(token)
	if token == "" || !ok {
		h.logger.Warn("realtime authentication failed", slog.String("remote_addr", conn.remoteAddr))
		h.reply(conn, AuthResponseFrame{Type: FrameAuthResponse, Success: false, Error: "invalid or expired token"})
		return
	}

	conn.setUsername(record.Username)
	h.logger.Info("realtime client authenticated",
		slog.String("username", record.Username),
		slog.String("remote_addr", conn.remoteAddr))
	h.reply(conn, AuthResponseFrame{Type: FrameAuthResponse, Success: true, Username: record.Username})
}
