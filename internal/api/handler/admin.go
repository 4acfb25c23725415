package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/mpcoord/internal/api/middleware"
	"github.com/mcoot/mpcoord/internal/api/request"
	"github.com/mcoot/mpcoord/internal/api/response"
	"github.com/mcoot/mpcoord/internal/coordinator"
	"github.com/mcoot/mpcoord/internal/model"
)

// AdminHandler handles moderator and admin endpoints
type AdminHandler struct {
	coord *coordinator.Coordinator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(coord *coordinator.Coordinator) *AdminHandler {
	return &AdminHandler{coord: coord}
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users := h.coord.Users()
	out := make([]response.User, len(users))
	for i, u := range users {
		out[i] = response.UserFromModel(u, h.coord.FailedLogins(u.Username))
	}

	response.JSON(w, http.StatusOK, response.UsersResponse{
		Envelope: response.OK,
		Users:    out,
		Stats:    response.AuthStatsFromService(h.coord.AuthStats()),
	})
}

// SetPermission handles PATCH /api/v1/admin/users/{username}/permission
func (h *AdminHandler) SetPermission(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetToken(r.Context())
	username := mux.Vars(r)["username"]

	var req request.SetPermissionRequest
	if err := request.Decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	level := model.PermissionLevel(req.PermissionLevel)
	if err := h.coord.SetPermissionLevel(r.Context(), actor.Username, username, level); err != nil {
		WriteError(w, err)
		return
	}

	h.writeUser(w, username)
}

// DeleteUser handles DELETE /api/v1/admin/users/{username}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetToken(r.Context())
	username := mux.Vars(r)["username"]

	if username == actor.Username {
		WriteError(w, NewInvalidRequestError("cannot delete your own account"))
		return
	}

	if err := h.coord.DeleteUser(r.Context(), actor.Username, username); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NewMessage("user deleted"))
}

// UnlockUser handles POST /api/v1/admin/users/{username}/unlock
func (h *AdminHandler) UnlockUser(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetToken(r.Context())
	username := mux.Vars(r)["username"]

	if err := h.coord.UnlockUser(actor.Username, username); err != nil {
		WriteError(w, err)
		return
	}

	h.writeUser(w, username)
}

// Players handles GET /api/v1/admin/players
func (h *AdminHandler) Players(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.coord.ListSessions()
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayersResponse{
		Envelope: response.OK,
		Players:  response.PlayersFromModel(sessions),
		Count:    len(sessions),
	})
}

// Stats handles GET /api/v1/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.StatsFromCoordinator(h.coord.Stats()))
}

// GetConfig handles GET /api/v1/admin/config
func (h *AdminHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.ConfigFromSettings(h.coord.Settings()))
}

// UpdateConfig handles PATCH /api/v1/admin/config
func (h *AdminHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetToken(r.Context())

	var req request.UpdateConfigRequest
	if err := request.Decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	upd := coordinator.SettingsUpdate{
		AllowGuests: req.AllowGuests,
		MaxPlayers:  req.MaxPlayers,
	}
	if req.TokenExpirationMinutes != nil {
		ttl := time.Duration(*req.TokenExpirationMinutes) * time.Minute
		upd.TokenTTL = &ttl
	}

	settings, err := h.coord.UpdateSettings(r.Context(), actor.Username, upd)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ConfigFromSettings(settings))
}

func (h *AdminHandler) writeUser(w http.ResponseWriter, username string) {
	user, err := h.coord.User(username)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.UserResponse{
		Envelope: response.OK,
		User:     response.UserFromModel(user, h.coord.FailedLogins(username)),
	})
}
