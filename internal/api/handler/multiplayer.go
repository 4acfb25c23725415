package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/mpcoord/internal/api/middleware"
	"github.com/mcoot/mpcoord/internal/api/request"
	"github.com/mcoot/mpcoord/internal/api/response"
	"github.com/mcoot/mpcoord/internal/coordinator"
	"github.com/mcoot/mpcoord/internal/model"
)

// MultiplayerHandler handles session, universe, economy and chat endpoints
type MultiplayerHandler struct {
	coord *coordinator.Coordinator
}

// NewMultiplayerHandler creates a new multiplayer handler
func NewMultiplayerHandler(coord *coordinator.Coordinator) *MultiplayerHandler {
	return &MultiplayerHandler{coord: coord}
}

// Join handles POST /api/v1/mp/join
func (h *MultiplayerHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinRequest
	if err := request.Decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	session, err := h.coord.Join(coordinator.JoinParams{
		PlayerID:    model.PlayerID(req.PlayerID),
		DisplayName: req.PlayerName,
		Sector:      req.CurrentSector,
		Position:    req.Position,
		PlayerData:  req.PlayerData,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.JoinResponse{
		Envelope:     response.OK,
		Player:       response.PlayerFromModel(session),
		UniverseTime: h.coord.UniverseTime(),
	})
}

// Leave handles POST /api/v1/mp/leave
func (h *MultiplayerHandler) Leave(w http.ResponseWriter, r *http.Request) {
	var req request.LeaveRequest
	if err := request.Decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	removed := h.coord.Leave(model.PlayerID(req.PlayerID))
	response.JSON(w, http.StatusOK, response.LeaveResponse{Envelope: response.OK, Removed: removed})
}

// Heartbeat handles POST /api/v1/mp/heartbeat
func (h *MultiplayerHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req request.HeartbeatRequest
	if err := request.Decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	known := h.coord.Heartbeat(model.PlayerID(req.PlayerID), req.CurrentSector, req.Position)
	response.JSON(w, http.StatusOK, response.HeartbeatResponse{
		Envelope:     response.OK,
		Known:        known,
		UniverseTime: h.coord.UniverseTime(),
	})
}

// UpdatePlayer handles PUT /api/v1/mp/player/update
func (h *MultiplayerHandler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	var req request.UpdatePlayerRequest
	if err := request.Decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	session, updated, err := h.coord.UpdateSession(model.PlayerID(req.PlayerID), model.SessionUpdate{
		DisplayName: req.PlayerName,
		Sector:      req.CurrentSector,
		Position:    req.Position,
		PlayerData:  req.PlayerData,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.UpdatePlayerResponse{Envelope: response.OK, Updated: updated}
	if updated {
		player := response.PlayerFromModel(session)
		resp.Player = &player
	}
	response.JSON(w, http.StatusOK, resp)
}

// Players handles GET /api/v1/mp/players
func (h *MultiplayerHandler) Players(w http.ResponseWriter, r *http.Request) {
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

// Universe handles GET /api/v1/mp/universe
func (h *MultiplayerHandler) Universe(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.UniverseFromModel(h.coord.SharedState()))
}

// UpdateEconomy handles PUT /api/v1/mp/economy
func (h *MultiplayerHandler) UpdateEconomy(w http.ResponseWriter, r *http.Request) {
	var req request.SharedStateRequest
	if err := request.Decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	state, err := h.coord.UpdateSharedState(model.PlayerID(req.PlayerID), model.SharedStateUpdate{
		UniverseTime:     req.UniverseTime,
		GlobalEconomy:    req.EconomyData,
		FactionRelations: req.FactionRelations,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UniverseFromModel(state))
}

// DetailedEconomyUpdate handles POST /api/v1/mp/economy/detailed-update
func (h *MultiplayerHandler) DetailedEconomyUpdate(w http.ResponseWriter, r *http.Request) {
	token := middleware.MustGetToken(r.Context())

	var req request.DetailedEconomyRequest
	if err := request.Decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	snap := model.EconomySnapshot{
		Stations:     req.Stations,
		Prices:       req.Prices,
		SupplyDemand: req.SupplyDemand,
	}
	if err := h.coord.SubmitEconomy(model.PlayerID(token.Username), snap); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NewMessage("economy updated"))
}

// QueryEconomy handles GET /api/v1/mp/economy/query
func (h *MultiplayerHandler) QueryEconomy(w http.ResponseWriter, r *http.Request) {
	view, err := h.coord.Economy()
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.EconomyFromModel(view))
}

// SendChat handles POST /api/v1/mp/chat
func (h *MultiplayerHandler) SendChat(w http.ResponseWriter, r *http.Request) {
	var req request.ChatRequest
	if err := request.Decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	msg, err := h.coord.SendChat(model.PlayerID(req.PlayerID), req.PlayerName, req.Message)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ChatSentResponse{
		Envelope:    response.OK,
		ChatMessage: response.ChatMessageFromModel(msg),
	})
}

// GetChat handles GET /api/v1/mp/chat?limit=N
func (h *MultiplayerHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteError(w, NewInvalidRequestError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	messages, err := h.coord.Chat(limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]response.ChatMessage, len(messages))
	for i, m := range messages {
		out[i] = response.ChatMessageFromModel(m)
	}
	response.JSON(w, http.StatusOK, response.ChatResponse{
		Envelope: response.OK,
		Messages: out,
		Count:    len(out),
	})
}

// Info handles GET /api/v1/mp/info
func (h *MultiplayerHandler) Info(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.ServerInfoFromCoordinator(h.coord.Info()))
}
