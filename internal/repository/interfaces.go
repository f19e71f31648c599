package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/warbots/server/internal/model"
)

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// GameRepository defines game and player data operations.
type GameRepository interface {
	Create(ctx context.Context, name, creatorID string, gridSize, maxPlayers, turnTimer int) (*model.Game, error)
	FindByID(ctx context.Context, id string) (*model.Game, error)
	ListOpen(ctx context.Context) ([]model.Game, error)
	ListByUser(ctx context.Context, userID string) ([]model.Game, error)
	ListActive(ctx context.Context) ([]model.Game, error)
	Join(ctx context.Context, gameID, userID, empireName, empireColor string, playerNum int) error
	JoinAsAI(ctx context.Context, gameID, empireName, empireColor, strategy string, playerNum int) error
	SetActive(ctx context.Context, gameID string) error
	SetFinished(ctx context.Context, gameID string, winner int) error
	UpdateCurrentTurn(ctx context.Context, gameID string, turn int) error
	Delete(ctx context.Context, gameID string) error
}

// TurnRepository defines turn, submission and combat log operations.
type TurnRepository interface {
	CreateTurn(ctx context.Context, gameID string, number int, stateBefore json.RawMessage, deadline time.Time) (*model.Turn, error)
	CurrentTurn(ctx context.Context, gameID string) (*model.Turn, error)
	ResolveTurn(ctx context.Context, turnID string, stateAfter json.RawMessage) error
	SaveSubmissions(ctx context.Context, subs []model.TurnSubmission) error
	SaveCombatLogs(ctx context.Context, logs []model.CombatLog) error
	LogsByTurn(ctx context.Context, gameID string, turn int) ([]model.CombatLog, error)
	ListExpired(ctx context.Context) ([]model.Turn, error)
}

// GameCache defines live game state operations (Redis).
type GameCache interface {
	SetGameState(ctx context.Context, gameID string, state json.RawMessage) error
	GetGameState(ctx context.Context, gameID string) (json.RawMessage, error)
	SetOrders(ctx context.Context, gameID string, playerNum int, orders json.RawMessage) error
	GetOrders(ctx context.Context, gameID string, playerNum int) (json.RawMessage, error)
	SetDraft(ctx context.Context, gameID string, playerNum int, orders json.RawMessage) error
	GetDraft(ctx context.Context, gameID string, playerNum int) (json.RawMessage, error)
	MarkSubmitted(ctx context.Context, gameID string, playerNum int) error
	SubmittedCount(ctx context.Context, gameID string) (int64, error)
	SubmittedPlayers(ctx context.Context, gameID string) ([]int, error)
	SetTimer(ctx context.Context, gameID string, deadline time.Time) error
	ClearTimer(ctx context.Context, gameID string) error
	ClearTurnData(ctx context.Context, gameID string, playerNums []int) error
	DeleteGameData(ctx context.Context, gameID string, playerNums []int) error
}
