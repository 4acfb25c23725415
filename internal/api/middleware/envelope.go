package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/mcoot/mpcoord/internal/api/apierr"
	"github.com/mcoot/mpcoord/internal/middleware"
)

// Recovery turns a handler panic into a 500 error envelope
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}

// RateLimitByIP allows at most limit requests per window from one client
// address and answers the rest with a 429 RATE_LIMITED envelope
func RateLimitByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			apierr.WriteError(w, apierr.NewRateLimitedError())
		}),
	)
}
