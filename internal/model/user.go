package model

import "time"

// PermissionLevel is the access tier of a user or token
type PermissionLevel int

const (
	PermissionNone      PermissionLevel = 0
	PermissionPlayer    PermissionLevel = 1
	PermissionModerator PermissionLevel = 2
	PermissionAdmin     PermissionLevel = 3
)

// Valid reports whether l is one of the assignable levels
func (l PermissionLevel) Valid() bool {
	return l >= PermissionPlayer && l <= PermissionAdmin
}

func (l PermissionLevel) String() string {
	switch l {
	case PermissionPlayer:
		return "player"
	case PermissionModerator:
		return "moderator"
	case PermissionAdmin:
		return "admin"
	default:
		return "none"
	}
}

// User is a registered account
type User struct {
	Username        string
	PasswordHash    string // bcrypt hash, never the plaintext
	Email           string
	CreatedAt       time.Time
	IsActive        bool
	PermissionLevel PermissionLevel
}

// Token is an issued access token
type Token struct {
	Value           string
	Username        string
	IssuedAt        time.Time
	ExpiresAt       time.Time
	LastUsed        time.Time
	PermissionLevel PermissionLevel // snapshot, refreshed when an admin changes the user's level
}

// Expired reports whether the token is past its expiry at now
func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
