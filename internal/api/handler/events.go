package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/mpcoord/internal/api/middleware"
	"github.com/mcoot/mpcoord/internal/api/request"
	"github.com/mcoot/mpcoord/internal/api/response"
	"github.com/mcoot/mpcoord/internal/coordinator"
	"github.com/mcoot/mpcoord/internal/model"
)

// EventHandler handles event publication
type EventHandler struct {
	coord *coordinator.Coordinator
}

// NewEventHandler creates a new event handler
func NewEventHandler(coord *coordinator.Coordinator) *EventHandler {
	return &EventHandler{coord: coord}
}

// Broadcast handles POST /api/v1/mp/events/broadcast
func (h *EventHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	token := middleware.MustGetToken(r.Context())

	var req request.BroadcastEventRequest
	if err := request.Decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	var data any
	if len(req.Data) > 0 {
		data = json.RawMessage(req.Data)
	}
	err := h.coord.Publish(token.Username, model.EventType(req.EventType), data, req.Targets)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.EventQueuedResponse{
		Envelope:  response.OK,
		EventType: req.EventType,
		Targets:   len(req.Targets),
	})
}
