package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/warbots/server/internal/model"
	"github.com/warbots/server/internal/repository"
	"github.com/warbots/server/pkg/warbots"
)

var (
	ErrNoActiveTurn     = errors.New("no active turn")
	ErrAlreadySubmitted = errors.New("orders already submitted for this turn")
)

// OrderService handles order submission and draft storage. Human
// submissions go through strict validation: the first invalid order
// rejects the whole batch and nothing is stored.
type OrderService struct {
	gameRepo repository.GameRepository
	turnRepo repository.TurnRepository
	cache    repository.GameCache
}

// NewOrderService creates an OrderService.
func NewOrderService(gameRepo repository.GameRepository, turnRepo repository.TurnRepository, cache repository.GameCache) *OrderService {
	return &OrderService{gameRepo: gameRepo, turnRepo: turnRepo, cache: cache}
}

// GameRepo returns the game repository for use by handlers.
func (s *OrderService) GameRepo() repository.GameRepository {
	return s.gameRepo
}

// SubmitTurn validates and records a player's orders for the current
// turn. Returns whether every non-eliminated player has now submitted,
// in which case the caller should trigger early resolution.
func (s *OrderService) SubmitTurn(ctx context.Context, gameID, userID string, orders warbots.Orders) (allSubmitted bool, err error) {
	_, player, gs, err := s.loadForPlayer(ctx, gameID, userID)
	if err != nil {
		return false, err
	}

	submitted, err := s.cache.SubmittedPlayers(ctx, gameID)
	if err != nil {
		return false, fmt.Errorf("submitted players: %w", err)
	}
	for _, num := range submitted {
		if num == player.PlayerNum {
			return false, ErrAlreadySubmitted
		}
	}

	if err := warbots.ValidateOrders(gs, player.PlayerNum, orders); err != nil {
		return false, err
	}

	ordersJSON, err := json.Marshal(orders)
	if err != nil {
		return false, fmt.Errorf("marshal orders: %w", err)
	}
	if err := s.cache.SetOrders(ctx, gameID, player.PlayerNum, ordersJSON); err != nil {
		return false, fmt.Errorf("cache orders: %w", err)
	}
	if err := s.cache.MarkSubmitted(ctx, gameID, player.PlayerNum); err != nil {
		return false, fmt.Errorf("mark submitted: %w", err)
	}

	log.Debug().Str("gameId", gameID).Int("playerNum", player.PlayerNum).
		Int("moves", len(orders.Moves)).Int("builds", len(orders.Builds)).
		Msg("Orders submitted")

	return s.allSubmitted(ctx, gameID, gs)
}

// SaveDraft stores a player's working order set without submitting it.
// Drafts are adopted at the deadline if the player never submits.
func (s *OrderService) SaveDraft(ctx context.Context, gameID, userID string, orders warbots.Orders) error {
	_, player, _, err := s.loadForPlayer(ctx, gameID, userID)
	if err != nil {
		return err
	}
	ordersJSON, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	return s.cache.SetDraft(ctx, gameID, player.PlayerNum, ordersJSON)
}

// StateView returns the fog-of-war filtered board projection for the
// seat a user holds in a game.
func (s *OrderService) StateView(ctx context.Context, gameID, userID string) (*warbots.PlayerView, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "active" {
		return nil, ErrGameNotActive
	}
	player := playerOf(game, userID)
	if player == nil {
		return nil, ErrNotInGame
	}
	gs, err := s.loadState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	view := warbots.BuildView(gs, player.PlayerNum)
	return &view, nil
}

// loadForPlayer resolves the common submission preconditions: game
// exists and is active, the user is seated, and a current board
// snapshot is available.
func (s *OrderService) loadForPlayer(ctx context.Context, gameID, userID string) (*model.Game, *model.GamePlayer, *warbots.GameState, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, nil, nil, err
	}
	if game == nil {
		return nil, nil, nil, ErrGameNotFound
	}
	if game.Status != "active" {
		return nil, nil, nil, ErrGameNotActive
	}

	player := playerOf(game, userID)
	if player == nil {
		return nil, nil, nil, ErrNotInGame
	}

	gs, err := s.loadState(ctx, gameID)
	if err != nil {
		return nil, nil, nil, err
	}
	return game, player, gs, nil
}

// loadState reads the live snapshot from the cache, falling back to the
// current turn's state_before in Postgres.
func (s *OrderService) loadState(ctx context.Context, gameID string) (*warbots.GameState, error) {
	stateJSON, err := s.cache.GetGameState(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("get cached state: %w", err)
	}
	if stateJSON == nil {
		turn, err := s.turnRepo.CurrentTurn(ctx, gameID)
		if err != nil {
			return nil, fmt.Errorf("current turn: %w", err)
		}
		if turn == nil {
			return nil, ErrNoActiveTurn
		}
		stateJSON = turn.StateBefore
	}

	var gs warbots.GameState
	if err := json.Unmarshal(stateJSON, &gs); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &gs, nil
}

// allSubmitted reports whether every non-eliminated player has a
// submission flag set.
func (s *OrderService) allSubmitted(ctx context.Context, gameID string, gs *warbots.GameState) (bool, error) {
	submitted, err := s.cache.SubmittedPlayers(ctx, gameID)
	if err != nil {
		return false, err
	}
	have := make(map[int]bool, len(submitted))
	for _, num := range submitted {
		have[num] = true
	}
	for _, num := range gs.ActivePlayers() {
		if !have[num] {
			return false, nil
		}
	}
	return true, nil
}

// playerOf finds the seat a user holds in a game, nil if absent.
func playerOf(game *model.Game, userID string) *model.GamePlayer {
	for i := range game.Players {
		p := &game.Players[i]
		if !p.IsAI && p.UserID == userID {
			return p
		}
	}
	return nil
}
