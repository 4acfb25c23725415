package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mcoot/mpcoord/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the error envelope
type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeValidationFailed       = "VALIDATION_FAILED"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeAccountLocked          = "ACCOUNT_LOCKED"
	CodeRateLimited            = "RATE_LIMITED"
	CodeUsernameExists         = "USERNAME_EXISTS"
	CodeInvalidUsername        = "INVALID_USERNAME"
	CodeWeakPassword           = "WEAK_PASSWORD"
	CodePasswordTooLong        = "PASSWORD_TOO_LONG"
	CodeUserNotFound           = "USER_NOT_FOUND"
	CodeUserInactive           = "USER_INACTIVE"
	CodeInvalidPermissionLevel = "INVALID_PERMISSION_LEVEL"
	CodeInvalidPlayerID        = "INVALID_PLAYER_ID"
	CodeInvalidSetting         = "INVALID_SETTING"
	CodeEmptyUpdate            = "EMPTY_UPDATE"
	CodeServerFull             = "SERVER_FULL"
	CodeFeatureDisabled        = "FEATURE_DISABLED"
	CodeQueueFull              = "QUEUE_FULL"
	CodeReservedEventType      = "RESERVED_EVENT_TYPE"
	CodeServiceUnavailable     = "SERVICE_UNAVAILABLE"
	CodeNotFound               = "NOT_FOUND"
	CodeInternalError          = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Success: false, Error: he.apiError})
}

// Status returns the HTTP status an error is reported with
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Validation
	case errors.Is(err, model.ErrInvalidUsername):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidUsername, "Username must not be empty"}}
	case errors.Is(err, model.ErrWeakPassword):
		return &httpError{http.StatusBadRequest, APIError{CodeWeakPassword, "Password must be at least 6 characters"}}
	case errors.Is(err, model.ErrPasswordTooLong):
		return &httpError{http.StatusBadRequest, APIError{CodePasswordTooLong, "Password must be at most 72 bytes"}}
	case errors.Is(err, model.ErrReservedEventType):
		return &httpError{http.StatusBadRequest, APIError{CodeReservedEventType, "Event type is reserved for the server"}}
	case errors.Is(err, model.ErrInvalidPermissionLevel):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPermissionLevel, "Permission level must be 1, 2 or 3"}}
	case errors.Is(err, model.ErrInvalidPlayerID):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPlayerID, "Player id is required"}}
	case errors.Is(err, model.ErrInvalidSetting):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidSetting, "Invalid setting value"}}
	case errors.Is(err, model.ErrEmptySnapshot):
		return &httpError{http.StatusBadRequest, APIError{CodeEmptyUpdate, "Update carries no economy sections"}}

	// Authentication and authorization
	case errors.Is(err, model.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, model.ErrUnauthorized):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired token"}}
	case errors.Is(err, model.ErrForbidden):
		return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Insufficient permission level"}}
	case errors.Is(err, model.ErrUserInactive):
		return &httpError{http.StatusForbidden, APIError{CodeUserInactive, "User account is inactive"}}
	case errors.Is(err, model.ErrAccountLocked):
		return &httpError{http.StatusTooManyRequests, APIError{CodeAccountLocked, "Account temporarily locked after repeated failed logins"}}

	// Users
	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeUserNotFound, "User not found"}}
	case errors.Is(err, model.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}

	// Availability
	case errors.Is(err, model.ErrServerFull):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeServerFull, "Server is full"}}
	case errors.Is(err, model.ErrFeatureDisabled):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeFeatureDisabled, "Feature is disabled on this server"}}
	case errors.Is(err, model.ErrQueueFull):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeQueueFull, "Event queue is full"}}
	case errors.Is(err, model.ErrNotRunning):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeServiceUnavailable, "Service is not running"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewValidationError reports the failed fields of a validator error
func NewValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewInvalidRequestError("invalid request body")
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describeFieldError(fe))
	}
	return &httpError{http.StatusBadRequest, APIError{CodeValidationFailed, strings.Join(problems, "; ")}}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewNotFoundError creates a not found error for unknown routes
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{CodeNotFound, "Resource not found"}}
}

// NewRateLimitedError creates a too many requests error
func NewRateLimitedError() error {
	return &httpError{http.StatusTooManyRequests, APIError{CodeRateLimited, "Too many requests, try again later"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
