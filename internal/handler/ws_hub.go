package handler

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event types sent to clients.
const (
	EventConnected    = "connected"
	EventPlayerJoined = "player_joined"
	EventGameStarted  = "game_started"
	EventTurnResolved = "turn_resolved"
	EventGameFinished = "game_finished"
)

// WSEvent is the envelope for all pushed events, on both the WebSocket
// and the SSE channel.
type WSEvent struct {
	Type   string `json:"type"`
	GameID string `json:"game_id"`
	Data   any    `json:"data"`
}

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	GameID string `json:"game_id"`
}

// WSConn wraps a WebSocket connection with its user and subscriptions.
type WSConn struct {
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

// SSESub is one server-sent-events subscriber for a single game.
type SSESub struct {
	gameID string
	userID string
	ch     chan []byte
}

// Events returns the subscriber's event channel.
func (s *SSESub) Events() <-chan []byte { return s.ch }

// Hub manages WebSocket connections, SSE subscribers, and game-channel
// fan-out.
type Hub struct {
	mu          sync.RWMutex
	connections map[*WSConn]bool
	games       map[string]map[*WSConn]bool // gameID -> set of connections
	sse         map[string]map[*SSESub]bool // gameID -> set of subscribers
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*WSConn]bool),
		games:       make(map[string]map[*WSConn]bool),
		sse:         make(map[string]map[*SSESub]bool),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

// Unregister removes a connection from the hub and all its subscriptions.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, c)
	for gameID, conns := range h.games {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.games, gameID)
		}
	}
	close(c.send)
}

// Subscribe adds a connection to a game channel.
func (h *Hub) Subscribe(c *WSConn, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.games[gameID] == nil {
		h.games[gameID] = make(map[*WSConn]bool)
	}
	h.games[gameID][c] = true
}

// Unsubscribe removes a connection from a game channel.
func (h *Hub) Unsubscribe(c *WSConn, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.games[gameID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.games, gameID)
		}
	}
}

// SubscribeSSE registers a server-sent-events subscriber for a game.
func (h *Hub) SubscribeSSE(gameID, userID string) *SSESub {
	sub := &SSESub{gameID: gameID, userID: userID, ch: make(chan []byte, sendBufSize)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sse[gameID] == nil {
		h.sse[gameID] = make(map[*SSESub]bool)
	}
	h.sse[gameID][sub] = true
	return sub
}

// UnsubscribeSSE removes an SSE subscriber and closes its channel.
func (h *Hub) UnsubscribeSSE(sub *SSESub) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.sse[sub.gameID]
	if !ok || !subs[sub] {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.sse, sub.gameID)
	}
	close(sub.ch)
}

// BroadcastToGame sends an event to every WebSocket connection and SSE
// subscriber on a game channel. Slow consumers are skipped rather than
// blocking the dispatcher.
func (h *Hub) BroadcastToGame(gameID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.games[gameID] {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("userId", c.userID).Str("gameId", gameID).Msg("Dropping WebSocket message, buffer full")
		}
	}
	for s := range h.sse[gameID] {
		select {
		case s.ch <- data:
		default:
			log.Warn().Str("userId", s.userID).Str("gameId", gameID).Msg("Dropping SSE message, buffer full")
		}
	}
}

// BroadcastToUser sends an event to a specific user across all their connections.
func (h *Hub) BroadcastToUser(userID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("Failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.connections {
		if c.userID == userID {
			select {
			case c.send <- data:
			default:
			}
		}
	}
}

// ConnectionCount returns the total number of active WebSocket connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// GameSubscriberCount returns the number of consumers subscribed to a game.
func (h *Hub) GameSubscriberCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID]) + len(h.sse[gameID])
}
