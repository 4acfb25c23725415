package coordinator

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/mpcoord/internal/model"
	"github.com/mcoot/mpcoord/internal/services/auth"
)

// Settings are the runtime-adjustable server settings
type Settings struct {
	ServerName  string
	TokenTTL    time.Duration
	AllowGuests bool
	MaxPlayers  int
	Features    Features
}

// SettingsUpdate carries the settings to change. Nil fields are left untouched.
type SettingsUpdate struct {
	TokenTTL    *time.Duration
	AllowGuests *bool
	MaxPlayers  *int
}

// Users returns every registered user
func (c *Coordinator) Users() []model.User {
	return c.auth.Users()
}

// AuthStats returns counts over users and tokens
func (c *Coordinator) AuthStats() auth.Stats {
	return c.auth.Stats()
}

// SetPermissionLevel changes a user's level, live tokens included
func (c *Coordinator) SetPermissionLevel(ctx context.Context, actor, username string, level model.PermissionLevel) error {
	if err := c.auth.UpdatePermissionLevel(username, level); err != nil {
		return err
	}
	c.security.Record(SecurityPermissionChanged, username,
		slog.String("actor", actor),
		slog.String("permission_level", level.String()))
	c.saveCredentials(ctx)
	return nil
}

// DeleteUser removes a user, revoking their tokens and clearing their lockout
// state and the economy sections submitted under their username
func (c *Coordinator) DeleteUser(ctx context.Context, actor, username string) error {
	if err := c.auth.DeleteUser(username); err != nil {
		return err
	}
	c.lockout.Reset(username)
	c.economy.Forget(model.PlayerID(username))
	c.security.Record(SecurityUserDeleted, username, slog.String("actor", actor))
	c.saveCredentials(ctx)
	return nil
}

// UnlockUser clears the failed-login counter of an existing user
func (c *Coordinator) UnlockUser(actor, username string) error {
	if _, err := c.auth.User(username); err != nil {
		return err
	}
	cleared := c.lockout.Reset(username)
	c.security.Record(SecurityLockoutReset, username,
		slog.String("actor", actor),
		slog.Bool("had_failures", cleared))
	return nil
}

// FailedLogins returns the consecutive failed-login count of a username
func (c *Coordinator) FailedLogins(username string) int {
	return c.lockout.Failures(username)
}

// Settings returns the current runtime settings
func (c *Coordinator) Settings() Settings {
	return Settings{
		ServerName:  c.cfg.ServerName,
		TokenTTL:    c.auth.TokenTTL(),
		AllowGuests: c.auth.AllowGuests(),
		MaxPlayers:  c.sessions.MaxPlayers(),
		Features:    c.cfg.Features,
	}
}

// UpdateSettings validates and applies upd, then persists the credential store.
// Nothing is applied if any field is invalid.
func (c *Coordinator) UpdateSettings(ctx context.Context, actor string, upd SettingsUpdate) (Settings, error) {
	if upd.TokenTTL != nil && *upd.TokenTTL <= 0 {
		return Settings{}, model.ErrInvalidSetting
	}
	if upd.MaxPlayers != nil && *upd.MaxPlayers < 0 {
		return Settings{}, model.ErrInvalidSetting
	}

	if upd.TokenTTL != nil {
		if err := c.auth.SetTokenTTL(*upd.TokenTTL); err != nil {
			return Settings{}, err
		}
	}
	if upd.AllowGuests != nil {
		c.auth.SetAllowGuests(*upd.AllowGuests)
	}
	if upd.MaxPlayers != nil {
		c.sessions.SetMaxPlayers(*upd.MaxPlayers)
	}

	settings := c.Settings()
	c.logger.Info("settings updated",
		slog.String("actor", actor),
		slog.Duration("token_ttl", settings.TokenTTL),
		slog.Bool("allow_guests", settings.AllowGuests),
		slog.Int("max_players", settings.MaxPlayers))
	c.saveCredentials(ctx)
	return settings, nil
}

// User returns one registered user
func (c *Coordinator) User(username string) (model.User, error) {
	return c.auth.User(username)
}
