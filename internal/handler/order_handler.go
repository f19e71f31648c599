package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/warbots/server/internal/auth"
	"github.com/warbots/server/internal/service"
	"github.com/warbots/server/pkg/warbots"
)

// OrderHandler handles turn submission and draft endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
	turnSvc  *service.TurnService
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService, turnSvc *service.TurnService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc, turnSvc: turnSvc}
}

func orderErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotInGame):
		return http.StatusForbidden
	case errors.Is(err, service.ErrGameNotActive),
		errors.Is(err, service.ErrNoActiveTurn),
		errors.Is(err, service.ErrAlreadySubmitted),
		errors.Is(err, warbots.ErrInvalidOrder):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// SubmitTurn handles POST /api/v1/games/{id}/turns
func (h *OrderHandler) SubmitTurn(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	var orders warbots.Orders
	if err := decodeJSON(r, &orders); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	allSubmitted, err := h.orderSvc.SubmitTurn(r.Context(), gameID, userID, orders)
	if err != nil {
		writeError(w, orderErrorStatus(err), err.Error())
		return
	}

	// All players in: resolve early. Detached context since the request
	// context is cancelled on handler return.
	if allSubmitted {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := h.turnSvc.ResolveTurnEarly(ctx, gameID); err != nil {
				log.Error().Err(err).Str("gameId", gameID).Msg("Early resolution failed")
			}
		}()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "submitted",
		"allSubmitted": allSubmitted,
	})
}

// SaveDraft handles PUT /api/v1/games/{id}/orders
func (h *OrderHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	var orders warbots.Orders
	if err := decodeJSON(r, &orders); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.orderSvc.SaveDraft(r.Context(), gameID, userID, orders); err != nil {
		writeError(w, orderErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "draft saved"})
}
