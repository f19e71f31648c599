package handler

import (
	"net/http"
	"strconv"

	"github.com/warbots/server/internal/auth"
	"github.com/warbots/server/internal/repository"
	"github.com/warbots/server/internal/service"
)

// StateHandler serves board projections and turn logs.
type StateHandler struct {
	orderSvc *service.OrderService
	turnRepo repository.TurnRepository
}

// NewStateHandler creates a StateHandler.
func NewStateHandler(orderSvc *service.OrderService, turnRepo repository.TurnRepository) *StateHandler {
	return &StateHandler{orderSvc: orderSvc, turnRepo: turnRepo}
}

// GetState handles GET /api/v1/games/{id}/state — the fog-of-war
// filtered projection for the requesting player.
func (h *StateHandler) GetState(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	view, err := h.orderSvc.StateView(r.Context(), gameID, userID)
	if err != nil {
		writeError(w, orderErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// TurnLogs handles GET /api/v1/games/{id}/turns/{n}/logs
func (h *StateHandler) TurnLogs(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "invalid turn number")
		return
	}

	logs, err := h.turnRepo.LogsByTurn(r.Context(), gameID, n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if logs == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
