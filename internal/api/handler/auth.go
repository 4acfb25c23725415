package handler

import (
	"net/http"

	"github.com/mcoot/mpcoord/internal/api/request"
	"github.com/mcoot/mpcoord/internal/api/response"
	"github.com/mcoot/mpcoord/internal/coordinator"
	"github.com/mcoot/mpcoord/internal/model"
)

// AuthHandler handles registration, login and token endpoints
type AuthHandler struct {
	coord *coordinator.Coordinator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(coord *coordinator.Coordinator) *AuthHandler {
	return &AuthHandler{coord: coord}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := request.Decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.coord.Register(r.Context(), req.Username, req.Password, req.Email); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RegisterResponse{
		Envelope: response.OK,
		Username: req.Username,
		Message:  "user registered",
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := request.Decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	token, err := h.coord.Login(req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LoginResponseFromToken(token))
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	value := coordinator.ExtractToken(r)
	if value == "" {
		WriteError(w, model.ErrUnauthorized)
		return
	}

	if err := h.coord.Logout(value); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NewMessage("logged out"))
}

// Validate handles GET /api/v1/auth/validate
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	token, ok := h.coord.Validate(coordinator.ExtractToken(r))
	if !ok {
		response.JSON(w, http.StatusOK, response.ValidateResponse{Envelope: response.OK, Valid: false})
		return
	}

	response.JSON(w, http.StatusOK, response.ValidateResponse{
		Envelope:        response.OK,
		Valid:           true,
		Username:        token.Username,
		PermissionLevel: int(token.PermissionLevel),
		ExpiresAt:       token.ExpiresAt.Unix(),
	})
}
