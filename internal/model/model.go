package model

import (
	"encoding/json"
	"time"
)

// User represents a registered user.
type User struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"provider_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Game represents a Warbots game.
type Game struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	CreatorID   string       `json:"creator_id"`
	Status      string       `json:"status"` // waiting, active, finished
	GridSize    int          `json:"grid_size"`
	MaxPlayers  int          `json:"max_players"`
	TurnTimer   int          `json:"turn_timer"` // seconds
	CurrentTurn int          `json:"current_turn"`
	Winner      int          `json:"winner,omitempty"` // player number
	CreatedAt   time.Time    `json:"created_at"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
	Players     []GamePlayer `json:"players,omitempty"`
	PlayerCount int          `json:"player_count,omitempty"`
}

// GamePlayer represents a player's membership in a game.
type GamePlayer struct {
	GameID      string    `json:"game_id"`
	UserID      string    `json:"user_id,omitempty"` // empty for AI players
	PlayerNum   int       `json:"player_num"`
	EmpireName  string    `json:"empire_name"`
	EmpireColor string    `json:"empire_color"`
	IsAI        bool      `json:"is_ai"`
	AIStrategy  string    `json:"ai_strategy,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Turn represents one resolved or in-flight game turn. StateBefore is
// the board at the start of the turn; StateAfter is filled in when the
// turn resolves.
type Turn struct {
	ID          string          `json:"id"`
	GameID      string          `json:"game_id"`
	Number      int             `json:"number"`
	StateBefore json.RawMessage `json:"state_before"`
	StateAfter  json.RawMessage `json:"state_after,omitempty"`
	Deadline    time.Time       `json:"deadline"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TurnSubmission is the audit copy of one player's orders for a turn.
type TurnSubmission struct {
	ID        string          `json:"id"`
	TurnID    string          `json:"turn_id"`
	PlayerNum int             `json:"player_num"`
	Orders    json.RawMessage `json:"orders"`
	CreatedAt time.Time       `json:"created_at"`
}

// CombatLog is one structured event emitted during turn resolution,
// kept for spectators and replay.
type CombatLog struct {
	ID        string          `json:"id"`
	GameID    string          `json:"game_id"`
	Turn      int             `json:"turn"`
	Type      string          `json:"type"`
	PlayerNum int             `json:"player_num,omitempty"`
	X         int             `json:"x"`
	Y         int             `json:"y"`
	Message   string          `json:"message"`
	Amount    int             `json:"amount,omitempty"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
