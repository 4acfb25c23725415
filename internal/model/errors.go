package model

import "errors"

// Common errors used across the application
var (
	// Credential errors
	ErrUserNotFound           = errors.New("user not found")
	ErrUsernameExists         = errors.New("username already exists")
	ErrInvalidUsername        = errors.New("username must not be empty")
	ErrWeakPassword           = errors.New("password is too short")
	ErrPasswordTooLong        = errors.New("password exceeds 72 bytes")
	ErrUserInactive           = errors.New("user account is inactive")
	ErrInvalidPermissionLevel = errors.New("invalid permission level")

	// Token and access errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked after repeated failed logins")
	ErrUnauthorized       = errors.New("missing or invalid token")
	ErrForbidden          = errors.New("insufficient permission level")
	ErrTokenGeneration    = errors.New("could not generate a unique token")

	// Session errors
	ErrServerFull      = errors.New("server is full")
	ErrInvalidPlayerID = errors.New("player id must not be empty")

	// Economy errors
	ErrEmptySnapshot = errors.New("economy update carries no sections")

	// Event errors
	ErrQueueFull         = errors.New("event queue is full")
	ErrReservedEventType = errors.New("event type is reserved for the server")

	// Coordinator errors
	ErrFeatureDisabled = errors.New("feature is disabled")
	ErrNotRunning      = errors.New("coordinator is not running")
	ErrInvalidSetting  = errors.New("invalid setting value")

	// Storage errors
	ErrCredentialStoreNotFound = errors.New("credential store not found")
)
