package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/mpcoord/internal/api/apierr"
	"github.com/mcoot/mpcoord/internal/api/handler"
	"github.com/mcoot/mpcoord/internal/api/middleware"
	"github.com/mcoot/mpcoord/internal/coordinator"
	genericmw "github.com/mcoot/mpcoord/internal/middleware"
	"github.com/mcoot/mpcoord/internal/model"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Coordinator *coordinator.Coordinator
	// Metrics serves /metrics when set
	Metrics http.Handler
	// AuthRateLimit caps login and register requests per client address per minute; 0 disables it
	AuthRateLimit int
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.Coordinator)
	adminHandler := handler.NewAdminHandler(cfg.Coordinator)
	mpHandler := handler.NewMultiplayerHandler(cfg.Coordinator)
	eventHandler := handler.NewEventHandler(cfg.Coordinator)

	// Create middleware
	requirePlayer := middleware.RequireLevel(cfg.Coordinator, model.PermissionPlayer)
	requireModerator := middleware.RequireLevel(cfg.Coordinator, model.PermissionModerator)
	requireAdmin := middleware.RequireLevel(cfg.Coordinator, model.PermissionAdmin)
	guestOrPlayer := middleware.GuestOrPlayer(cfg.Coordinator)
	loggingMiddleware := genericmw.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	api.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	// Auth routes (no token required, rate limited per address)
	credentials := api.PathPrefix("/auth").Subrouter()
	if cfg.AuthRateLimit > 0 {
		limited := middleware.RateLimitByIP(cfg.AuthRateLimit, time.Minute)
		credentials.Handle("/register", limited(http.HandlerFunc(authHandler.Register))).Methods(http.MethodPost)
		credentials.Handle("/login", limited(http.HandlerFunc(authHandler.Login))).Methods(http.MethodPost)
	} else {
		credentials.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
		credentials.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	}
	credentials.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)
	credentials.HandleFunc("/validate", authHandler.Validate).Methods(http.MethodGet)

	// Session routes (open while guests are allowed)
	mp := api.PathPrefix("/mp").Subrouter()
	sessions := mp.NewRoute().Subrouter()
	sessions.Use(guestOrPlayer)
	sessions.HandleFunc("/join", mpHandler.Join).Methods(http.MethodPost)
	sessions.HandleFunc("/leave", mpHandler.Leave).Methods(http.MethodPost)
	sessions.HandleFunc("/heartbeat", mpHandler.Heartbeat).Methods(http.MethodPost)
	sessions.HandleFunc("/player/update", mpHandler.UpdatePlayer).Methods(http.MethodPut)
	sessions.HandleFunc("/players", mpHandler.Players).Methods(http.MethodGet)
	sessions.HandleFunc("/universe", mpHandler.Universe).Methods(http.MethodGet)
	sessions.HandleFunc("/economy", mpHandler.UpdateEconomy).Methods(http.MethodPut)
	sessions.HandleFunc("/economy/query", mpHandler.QueryEconomy).Methods(http.MethodGet)
	sessions.HandleFunc("/chat", mpHandler.SendChat).Methods(http.MethodPost)
	sessions.HandleFunc("/chat", mpHandler.GetChat).Methods(http.MethodGet)

	// Player-level routes
	players := mp.NewRoute().Subrouter()
	players.Use(requirePlayer)
	players.HandleFunc("/economy/detailed-update", mpHandler.DetailedEconomyUpdate).Methods(http.MethodPost)
	players.HandleFunc("/events/broadcast", eventHandler.Broadcast).Methods(http.MethodPost)

	// Public server description
	mp.HandleFunc("/info", mpHandler.Info).Methods(http.MethodGet)

	// Moderator routes
	moderator := api.PathPrefix("/admin").Subrouter()
	moderator.Use(requireModerator)
	moderator.HandleFunc("/players", adminHandler.Players).Methods(http.MethodGet)
	moderator.HandleFunc("/stats", adminHandler.Stats).Methods(http.MethodGet)

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(requireAdmin)
	admin.HandleFunc("/users", adminHandler.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{username}/permission", adminHandler.SetPermission).Methods(http.MethodPatch)
	admin.HandleFunc("/users/{username}", adminHandler.DeleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/users/{username}/unlock", adminHandler.UnlockUser).Methods(http.MethodPost)
	admin.HandleFunc("/config", adminHandler.GetConfig).Methods(http.MethodGet)
	admin.HandleFunc("/config", adminHandler.UpdateConfig).Methods(http.MethodPatch)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}

	return r
}

// NewRealtimeRouter serves the WebSocket endpoint on its own listener
func NewRealtimeRouter(ws http.Handler, logger *slog.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(genericmw.Recovery(logger, genericmw.DefaultPanicHandler))
	r.Use(genericmw.Logging(logger))

	r.Handle("/ws", ws).Methods(http.MethodGet)
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"success":true,"status":"ok"}`))
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	apierr.WriteError(w, apierr.NewNotFoundError())
}
