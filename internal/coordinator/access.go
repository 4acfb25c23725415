package coordinator

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/mpcoord/internal/metrics"
	"github.com/mcoot/mpcoord/internal/model"
)

// TokenQueryParam is the query parameter accepted when no Authorization header is sent
const TokenQueryParam = "token"

// ExtractToken returns the bearer token of the request, falling back to the token query parameter
func ExtractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get(TokenQueryParam)
}

// Authorize resolves the request's token and checks it against minLevel.
// It returns model.ErrUnauthorized for a missing, unknown or expired token
// and model.ErrForbidden when the token's level is too low.
func (c *Coordinator) Authorize(r *http.Request, minLevel model.PermissionLevel) (model.Token, error) {
	return c.AuthorizeToken(ExtractToken(r), minLevel)
}

// AuthorizeToken is Authorize for an already extracted token
func (c *Coordinator) AuthorizeToken(value string, minLevel model.PermissionLevel) (model.Token, error) {
	if value == "" {
		return model.Token{}, model.ErrUnauthorized
	}
	token, ok := c.auth.Lookup(value)
	if !ok {
		return model.Token{}, model.ErrUnauthorized
	}
	if token.PermissionLevel < minLevel {
		return model.Token{}, model.ErrForbidden
	}
	return token, nil
}

// Register creates a player account and persists the credential store
func (c *Coordinator) Register(ctx context.Context, username, password, email string) error {
	if err := c.auth.Register(username, password, email); err != nil {
		return err
	}
	c.saveCredentials(ctx)
	return nil
}

// Login checks the credentials and issues a token. A locked username is
// refused with model.ErrAccountLocked whatever the password.
func (c *Coordinator) Login(username, password string) (model.Token, error) {
	if c.lockout.Locked(username) {
		c.metrics.LoginAttempts.WithLabelValues(metrics.LoginLocked).Inc()
		c.security.Record(SecurityLoginLocked, username)
		return model.Token{}, model.ErrAccountLocked
	}

	if !c.auth.Authenticate(username, password) {
		failures, locked := c.lockout.RecordFailure(username)
		c.metrics.LoginAttempts.WithLabelValues(metrics.LoginInvalidCredentials).Inc()
		c.security.Record(SecurityLoginFailed, username,
			slog.Int("consecutive_failures", failures),
			slog.Bool("now_locked", locked))
		return model.Token{}, model.ErrInvalidCredentials
	}

	token, err := c.auth.IssueToken(username)
	if err != nil {
		return model.Token{}, err
	}

	c.lockout.Reset(username)
	c.metrics.LoginAttempts.WithLabelValues(metrics.LoginSuccess).Inc()
	c.security.Record(SecurityLoginSuccess, username,
		slog.String("permission_level", token.PermissionLevel.String()))
	return token, nil
}

// Logout revokes the token
func (c *Coordinator) Logout(value string) error {
	username := c.auth.UsernameFor(value)
	if username == "" || !c.auth.RevokeToken(value) {
		return model.ErrUnauthorized
	}
	c.security.Record(SecurityLogout, username)
	return nil
}

// Validate reports whether the token is live and returns its record
func (c *Coordinator) Validate(value string) (model.Token, bool) {
	if value == "" {
		return model.Token{}, false
	}
	return c.auth.Lookup(value)
}

// GuestsAllowed reports whether session operations are open to unauthenticated callers
func (c *Coordinator) GuestsAllowed() bool {
	return c.auth.AllowGuests()
}
