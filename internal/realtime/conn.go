package realtime

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Ping period, must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Largest accepted client frame
	maxMessageSize = 4096

	// Buffer size for outgoing frames
	sendBufferSize = 64
)

// Conn is one live real-time connection
type Conn struct {
	hub         *Hub
	ws          *websocket.Conn
	send        chan []byte
	connectedAt time.Time
	remoteAddr  string

	mu            sync.RWMutex
	username      string
	authAttempted bool
}

func newConn(hub *Hub, ws *websocket.Conn, remoteAddr string) *Conn {
	return &Conn{
		hub:         hub,
		ws:          ws,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: hub.clock.Now(),
		remoteAddr:  remoteAddr,
	}
}

// Username returns the authenticated username, or "" before authentication
func (c *Conn) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

// beginAuth marks the single authentication attempt. It reports false if one was already made.
func (c *Conn) beginAuth() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authAttempted {
		return false
	}
	c.authAttempted = true
	return true
}

func (c *Conn) setUsername(username string) {
	c.mu.Lock()
	c.username = username
	c.mu.Unlock()
}

// readPump processes client frames until the connection fails, then unregisters
func (c *Conn) readPump() {
	defer c.hub.unregister(c)

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
				!errors.Is(err, websocket.ErrCloseSent) {
				c.hub.logger.Debug("realtime read failed",
					slog.String("remote_addr", c.remoteAddr),
					slog.String("error", err.Error()))
			}
			return
		}
		c.hub.handleFrame(c, data)
	}
}

// writePump writes queued frames and keepalive pings. It owns all writes to ws.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
