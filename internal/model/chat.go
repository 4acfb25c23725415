package model

import "time"

// ChatMessage is one entry of the shared chat log
type ChatMessage struct {
	PlayerID   PlayerID
	PlayerName string
	Message    string
	Timestamp  time.Time
}
