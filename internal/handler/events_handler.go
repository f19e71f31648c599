package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/warbots/server/internal/auth"
	"github.com/warbots/server/internal/service"
)

const heartbeatInterval = 30 * time.Second

// EventsHandler serves the per-game server-sent event stream.
type EventsHandler struct {
	hub     *Hub
	gameSvc *service.GameService
	jwtMgr  *auth.JWTManager
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(hub *Hub, gameSvc *service.GameService, jwtMgr *auth.JWTManager) *EventsHandler {
	return &EventsHandler{hub: hub, gameSvc: gameSvc, jwtMgr: jwtMgr}
}

// ServeEvents handles GET /api/v1/games/{id}/events.
// Auth via ?token= query parameter (EventSource can't send headers).
// Streams `data: <json>` frames with `: heartbeat` keepalives; a write
// failure drops the subscriber.
func (h *EventsHandler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")

	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		writeError(w, http.StatusUnauthorized, "missing token parameter")
		return
	}
	claims, err := h.jwtMgr.ValidateToken(tokenStr)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	if _, err := h.gameSvc.GetGame(r.Context(), gameID); err != nil {
		writeError(w, gameErrorStatus(err), err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// The stream outlives the server's write timeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Warn().Err(err).Msg("Failed to clear SSE write deadline")
	}

	sub := h.hub.SubscribeSSE(gameID, claims.UserID)
	defer h.hub.UnsubscribeSSE(sub)

	connected, _ := json.Marshal(WSEvent{Type: EventConnected, GameID: gameID, Data: map[string]any{}})
	if _, err := fmt.Fprintf(w, "data: %s\n\n", connected); err != nil {
		return
	}
	flusher.Flush()

	log.Info().Str("gameId", gameID).Str("userId", claims.UserID).Msg("SSE client connected")
	defer log.Info().Str("gameId", gameID).Str("userId", claims.UserID).Msg("SSE client disconnected")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-sub.Events():
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", msg); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
