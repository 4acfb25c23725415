package coordinator

import (
	"context"
	"log/slog"

	"github.com/mcoot/mpcoord/internal/metrics"
)

// SecurityEvent identifies a security-relevant occurrence
type SecurityEvent string

const (
	SecurityLoginSuccess      SecurityEvent = "login_success"
	SecurityLoginFailed       SecurityEvent = "login_failed"
	SecurityLoginLocked       SecurityEvent = "login_locked"
	SecurityLogout            SecurityEvent = "logout"
	SecurityUserDeleted       SecurityEvent = "user_deleted"
	SecurityPermissionChanged SecurityEvent = "permission_changed"
	SecurityLockoutReset      SecurityEvent = "lockout_reset"
)

// SecurityLogger is the sink for security events
type SecurityLogger interface {
	Record(event SecurityEvent, username string, attrs ...slog.Attr)
}

// SlogSecurityLogger writes security events to a structured logger and counts them
type SlogSecurityLogger struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewSlogSecurityLogger creates a SecurityLogger backed by logger
func NewSlogSecurityLogger(logger *slog.Logger, m *metrics.Metrics) *SlogSecurityLogger {
	return &SlogSecurityLogger{
		logger:  logger.With(slog.String("component", "security")),
		metrics: m,
	}
}

// Record logs the event. Failures and lockouts are logged at WARN.
func (s *SlogSecurityLogger) Record(event SecurityEvent, username string, attrs ...slog.Attr) {
	s.metrics.SecurityEvents.WithLabelValues(string(event)).Inc()

	level := slog.LevelInfo
	if event == SecurityLoginFailed || event == SecurityLoginLocked {
		level = slog.LevelWarn
	}

	args := make([]any, 0, len(attrs)+2)
	args = append(args, slog.String("event", string(event)), slog.String("username", username))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	s.logger.Log(context.Background(), level, "security event", args...)
}
