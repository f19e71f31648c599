package handler

import (
	"errors"
	"net/http"

	"github.com/warbots/server/internal/auth"
	"github.com/warbots/server/internal/service"
)

// GameHandler handles game lobby and lifecycle endpoints.
type GameHandler struct {
	gameSvc *service.GameService
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService) *GameHandler {
	return &GameHandler{gameSvc: gameSvc}
}

// gameErrorStatus maps service sentinel errors to HTTP statuses.
func gameErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotHost), errors.Is(err, service.ErrNotInGame):
		return http.StatusForbidden
	case errors.Is(err, service.ErrGameNotWaiting),
		errors.Is(err, service.ErrGameNotActive),
		errors.Is(err, service.ErrGameFull),
		errors.Is(err, service.ErrNotEnough),
		errors.Is(err, service.ErrAlreadyJoined),
		errors.Is(err, service.ErrColorTaken),
		errors.Is(err, service.ErrInvalidColor),
		errors.Is(err, service.ErrInvalidGridSize),
		errors.Is(err, service.ErrInvalidPlayerCount),
		errors.Is(err, service.ErrInvalidTurnTimer),
		errors.Is(err, service.ErrInvalidStrategy):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CreateGame handles POST /api/v1/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var req struct {
		Name         string   `json:"name"`
		GridSize     int      `json:"gridSize"`
		MaxPlayers   int      `json:"maxPlayers"`
		TurnTimer    int      `json:"turnTimer"`
		EmpireName   string   `json:"empireName"`
		EmpireColor  string   `json:"empireColor"`
		AIStrategies []string `json:"aiStrategies,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	game, err := h.gameSvc.CreateGame(r.Context(), req.Name, userID,
		req.GridSize, req.MaxPlayers, req.TurnTimer,
		req.EmpireName, req.EmpireColor, req.AIStrategies)
	if err != nil {
		writeError(w, gameErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

// ListGames handles GET /api/v1/games
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.gameSvc.ListOpenGames(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if games == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// ListMyGames handles GET /api/v1/games/mine
func (h *GameHandler) ListMyGames(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	games, err := h.gameSvc.ListMyGames(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if games == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGame handles GET /api/v1/games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.gameSvc.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, gameErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// JoinGame handles POST /api/v1/games/{id}/join
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	var req struct {
		EmpireName  string `json:"empireName"`
		EmpireColor string `json:"empireColor"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	game, err := h.gameSvc.JoinGame(r.Context(), gameID, userID, req.EmpireName, req.EmpireColor)
	if err != nil {
		writeError(w, gameErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// AddAI handles POST /api/v1/games/{id}/ai
func (h *GameHandler) AddAI(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	var req struct {
		Strategy string `json:"strategy,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	game, err := h.gameSvc.AddAI(r.Context(), gameID, userID, req.Strategy)
	if err != nil {
		writeError(w, gameErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// AvailableColors handles GET /api/v1/games/{id}/colors
func (h *GameHandler) AvailableColors(w http.ResponseWriter, r *http.Request) {
	available, all, err := h.gameSvc.AvailableColors(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, gameErrorStatus(err), err.Error())
		return
	}
	if available == nil {
		available = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"available": available,
		"all":       all,
	})
}

// StartGame handles POST /api/v1/games/{id}/start
func (h *GameHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	game, err := h.gameSvc.StartGame(r.Context(), gameID, userID)
	if err != nil {
		writeError(w, gameErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// DeleteGame handles DELETE /api/v1/games/{id}
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	if err := h.gameSvc.DeleteGame(r.Context(), gameID, userID); err != nil {
		writeError(w, gameErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
