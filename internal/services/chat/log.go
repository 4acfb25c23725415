package chat

import (
	"sync"

	"github.com/mcoot/mpcoord/internal/dependencies/clock"
	"github.com/mcoot/mpcoord/internal/model"
)

// Config holds configuration for the chat log
type Config struct {
	// MaxMessages is the ring capacity
	MaxMessages int
	// DefaultLimit is used when a reader asks for no particular count
	DefaultLimit int
}

// DefaultConfig returns default chat configuration
func DefaultConfig() Config {
	return Config{
		MaxMessages:  100,
		DefaultLimit: 50,
	}
}

// Log is a bounded chat history. Once full, each append drops the oldest message.
type Log struct {
	clock        clock.Clock
	defaultLimit int

	mu    sync.RWMutex
	ring  []model.ChatMessage
	start int // index of the oldest message
	count int
}

// New creates an empty Log
func New(clk clock.Clock, cfg Config) *Log {
	defaults := DefaultConfig()
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = defaults.MaxMessages
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaults.DefaultLimit
	}
	return &Log{
		clock:        clk,
		defaultLimit: cfg.DefaultLimit,
		ring:         make([]model.ChatMessage, cfg.MaxMessages),
	}
}

// Append stamps and stores a message, returning the stored copy
func (l *Log) Append(playerID model.PlayerID, playerName, text string) model.ChatMessage {
	msg := model.ChatMessage{
		PlayerID:   playerID,
		PlayerName: playerName,
		Message:    text,
		Timestamp:  l.clock.Now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	capacity := len(l.ring)
	if l.count < capacity {
		l.ring[(l.start+l.count)%capacity] = msg
		l.count++
	} else {
		l.ring[l.start] = msg
		l.start = (l.start + 1) % capacity
	}
	return msg
}

// Recent returns up to limit of the newest messages, oldest first.
// A non-positive limit means the default; limits above capacity are clamped.
func (l *Log) Recent(limit int) []model.ChatMessage {
	if limit <= 0 {
		limit = l.defaultLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit > l.count {
		limit = l.count
	}
	capacity := len(l.ring)
	out := make([]model.ChatMessage, limit)
	first := l.count - limit
	for i := 0; i < limit; i++ {
		out[i] = l.ring[(l.start+first+i)%capacity]
	}
	return out
}

// Len returns the number of stored messages
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Capacity returns the maximum number of stored messages
func (l *Log) Capacity() int {
	return len(l.ring)
}
