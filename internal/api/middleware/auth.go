package middleware

import (
	"context"
	"net/http"

	"github.com/mcoot/mpcoord/internal/api/apierr"
	"github.com/mcoot/mpcoord/internal/coordinator"
	"github.com/mcoot/mpcoord/internal/model"
)

type contextKey string

const tokenContextKey contextKey = "token"

// Authorizer resolves tokens to their permission level
type Authorizer interface {
	AuthorizeToken(value string, minLevel model.PermissionLevel) (model.Token, error)
	GuestsAllowed() bool
}

// RequireLevel rejects requests whose token is missing, invalid or below level
func RequireLevel(authz Authorizer, level model.PermissionLevel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := authz.AuthorizeToken(coordinator.ExtractToken(r), level)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tokenContextKey, token)))
		})
	}
}

// GuestOrPlayer lets anyone through while guests are allowed and otherwise
// requires a player-level token. A valid token is attached either way.
func GuestOrPlayer(authz Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		required := RequireLevel(authz, model.PermissionPlayer)(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authz.GuestsAllowed() {
				required.ServeHTTP(w, r)
				return
			}

			if value := coordinator.ExtractToken(r); value != "" {
				if token, err := authz.AuthorizeToken(value, model.PermissionPlayer); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), tokenContextKey, token))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetToken returns the authorized token from the request context
func GetToken(ctx context.Context) (model.Token, bool) {
	token, ok := ctx.Value(tokenContextKey).(model.Token)
	return token, ok
}

// MustGetToken returns the authorized token or panics
func MustGetToken(ctx context.Context) model.Token {
	token, ok := GetToken(ctx)
	if !ok {
		panic("no token in context - auth middleware not applied?")
	}
	return token
}
