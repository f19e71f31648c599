package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/warbots/server/internal/ai"
	"github.com/warbots/server/internal/model"
	"github.com/warbots/server/internal/repository"
	"github.com/warbots/server/pkg/warbots"
)

// aiDelay is how long after a turn opens the AI players wait before
// submitting, so humans watching the board see the turn land first.
const aiDelay = 20 * time.Second

// TurnService is the per-game dispatcher: it owns the turn clock,
// collects submissions, schedules AI order generation, runs the
// resolution pipeline when gated, and publishes change events.
type TurnService struct {
	gameRepo    repository.GameRepository
	turnRepo    repository.TurnRepository
	cache       repository.GameCache
	broadcaster Broadcaster

	aiDelay time.Duration

	// gameLocks serializes resolution per game. The keyspace listener,
	// the poller, early resolution and AI timers can all fire at once;
	// without the lock two of them would resolve the same turn.
	gameLocks sync.Map

	mu       sync.Mutex
	aiTimers map[string][]*time.Timer
}

// NewTurnService creates a TurnService.
func NewTurnService(
	gameRepo repository.GameRepository,
	turnRepo repository.TurnRepository,
	cache repository.GameCache,
	broadcaster Broadcaster,
) *TurnService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &TurnService{
		gameRepo:    gameRepo,
		turnRepo:    turnRepo,
		cache:       cache,
		broadcaster: broadcaster,
		aiDelay:     aiDelay,
		aiTimers:    make(map[string][]*time.Timer),
	}
}

// gameLock returns the mutex for a given game ID.
func (s *TurnService) gameLock(gameID string) *sync.Mutex {
	v, _ := s.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// InitializeGame seeds Redis state and the deadline timer when a game
// starts, and arms the AI submission timers for turn 1.
func (s *TurnService) InitializeGame(ctx context.Context, gameID string, state json.RawMessage, deadline time.Time) error {
	if err := s.cache.SetGameState(ctx, gameID, state); err != nil {
		return fmt.Errorf("set game state: %w", err)
	}
	if err := s.cache.SetTimer(ctx, gameID, deadline); err != nil {
		return fmt.Errorf("set timer: %w", err)
	}
	s.armAITimers(ctx, gameID)
	return nil
}

// RecoverActiveGames rehydrates Redis state and timers for all active
// games from Postgres. Called on server startup.
func (s *TurnService) RecoverActiveGames(ctx context.Context) error {
	games, err := s.gameRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active games: %w", err)
	}
	if len(games) == 0 {
		log.Info().Msg("No active games to recover")
		return nil
	}

	log.Info().Int("count", len(games)).Msg("Recovering active games after restart")

	for _, game := range games {
		turn, err := s.turnRepo.CurrentTurn(ctx, game.ID)
		if err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to get current turn during recovery")
			continue
		}
		if turn == nil {
			log.Warn().Str("gameId", game.ID).Msg("Active game has no current turn, skipping")
			continue
		}

		if err := s.cache.SetGameState(ctx, game.ID, turn.StateBefore); err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore game state")
			continue
		}
		if time.Now().Before(turn.Deadline) {
			if err := s.cache.SetTimer(ctx, game.ID, turn.Deadline); err != nil {
				log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore timer")
			}
		}

		s.armAITimers(ctx, game.ID)

		log.Info().Str("gameId", game.ID).Int("turn", turn.Number).
			Time("deadline", turn.Deadline).Msg("Recovered game state")
	}

	return nil
}

// ResolveTurn runs the resolution pipeline if the current turn's
// deadline has passed. Called from the timer listener and poller.
func (s *TurnService) ResolveTurn(ctx context.Context, gameID string) error {
	return s.resolveInternal(ctx, gameID, false)
}

// ResolveTurnEarly runs the pipeline when all players have submitted
// before the deadline. Re-checks the gate under the game lock.
func (s *TurnService) ResolveTurnEarly(ctx context.Context, gameID string) error {
	return s.resolveInternal(ctx, gameID, true)
}

func (s *TurnService) resolveInternal(ctx context.Context, gameID string, early bool) error {
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return fmt.Errorf("find game: %w", err)
	}
	if game.Status != "active" {
		log.Info().Str("gameId", gameID).Str("status", game.Status).Msg("Skipping resolution for non-active game")
		return nil
	}

	turn, err := s.turnRepo.CurrentTurn(ctx, gameID)
	if err != nil || turn == nil {
		return fmt.Errorf("get current turn: %w", err)
	}
	if turn.ResolvedAt != nil {
		return nil
	}
	if !early && time.Now().Before(turn.Deadline) {
		log.Debug().Str("gameId", gameID).Time("deadline", turn.Deadline).Msg("Turn deadline not yet reached, skipping")
		return nil
	}

	gs, err := s.loadState(ctx, gameID, turn)
	if err != nil {
		return err
	}

	// The early path re-verifies the gate: a concurrent resolution may
	// already have cleared the submission flags for the next turn.
	if early {
		ready, err := s.gateSatisfied(ctx, gameID, gs)
		if err != nil {
			return err
		}
		if !ready {
			log.Debug().Str("gameId", gameID).Msg("Early resolution requested but not all players submitted, skipping")
			return nil
		}
	}

	submittedCount, _ := s.cache.SubmittedCount(ctx, gameID)
	log.Info().Str("gameId", gameID).Int("turn", turn.Number).Bool("early", early).
		Int64("submitted", submittedCount).Msg("Resolving turn")

	orders, ordersJSON := s.collectOrders(ctx, game, gs)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	result := warbots.ResolveTurn(gs, orders, rng)

	stateAfter, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("marshal state after: %w", err)
	}
	if err := s.turnRepo.ResolveTurn(ctx, turn.ID, stateAfter); err != nil {
		return fmt.Errorf("resolve turn: %w", err)
	}

	if err := s.turnRepo.SaveSubmissions(ctx, submissionRows(turn.ID, ordersJSON)); err != nil {
		return fmt.Errorf("save submissions: %w", err)
	}
	if err := s.turnRepo.SaveCombatLogs(ctx, combatLogRows(gameID, turn.Number, result.Logs)); err != nil {
		return fmt.Errorf("save combat logs: %w", err)
	}

	playerNums := seatNumbers(game)

	if result.Finished {
		log.Info().Str("gameId", gameID).Int("winner", result.Winner).Msg("Game finished")
		if err := s.gameRepo.SetFinished(ctx, gameID, result.Winner); err != nil {
			return fmt.Errorf("set finished: %w", err)
		}
		s.cancelAITimers(gameID)
		s.broadcaster.BroadcastGameEvent(gameID, "game_finished", map[string]any{
			"winner": result.Winner,
			"turn":   turn.Number,
		})
		return s.cache.DeleteGameData(ctx, gameID, playerNums)
	}

	next := turn.Number + 1
	deadline := time.Now().Add(time.Duration(game.TurnTimer) * time.Second)

	if _, err := s.turnRepo.CreateTurn(ctx, gameID, next, stateAfter, deadline); err != nil {
		return fmt.Errorf("create next turn: %w", err)
	}
	if err := s.gameRepo.UpdateCurrentTurn(ctx, gameID, next); err != nil {
		return fmt.Errorf("update current turn: %w", err)
	}

	if err := s.cache.ClearTurnData(ctx, gameID, playerNums); err != nil {
		return fmt.Errorf("clear turn data: %w", err)
	}
	if err := s.cache.SetGameState(ctx, gameID, stateAfter); err != nil {
		return fmt.Errorf("set new state: %w", err)
	}
	if err := s.cache.SetTimer(ctx, gameID, deadline); err != nil {
		return fmt.Errorf("set timer: %w", err)
	}

	log.Info().Str("gameId", gameID).Int("turn", next).
		Time("deadline", deadline).Msg("Game advanced to next turn")

	s.broadcaster.BroadcastGameEvent(gameID, "turn_resolved", map[string]any{
		"turn":     next,
		"deadline": deadline.Format(time.RFC3339),
	})

	s.armAITimers(ctx, gameID)
	return nil
}

// CancelGame drops a game's timers and cached data. Called on delete.
func (s *TurnService) CancelGame(ctx context.Context, game *model.Game) error {
	s.cancelAITimers(game.ID)
	if err := s.cache.ClearTimer(ctx, game.ID); err != nil {
		return err
	}
	return s.cache.DeleteGameData(ctx, game.ID, seatNumbers(game))
}

// gateSatisfied reports whether every non-eliminated player has submitted.
func (s *TurnService) gateSatisfied(ctx context.Context, gameID string, gs *warbots.GameState) (bool, error) {
	submitted, err := s.cache.SubmittedPlayers(ctx, gameID)
	if err != nil {
		return false, fmt.Errorf("submitted players: %w", err)
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

// collectOrders gathers every active player's orders for resolution.
// Humans who never submitted contribute their pending draft if one
// exists, otherwise an empty turn. AI seats that missed their timer
// window generate orders inline.
func (s *TurnService) collectOrders(ctx context.Context, game *model.Game, gs *warbots.GameState) (map[int]warbots.Orders, map[int]json.RawMessage) {
	orders := make(map[int]warbots.Orders)
	raws := make(map[int]json.RawMessage)

	seats := make(map[int]*model.GamePlayer, len(game.Players))
	for i := range game.Players {
		seats[game.Players[i].PlayerNum] = &game.Players[i]
	}

	for _, num := range gs.ActivePlayers() {
		raw, err := s.cache.GetOrders(ctx, game.ID, num)
		if err != nil {
			log.Warn().Err(err).Str("gameId", game.ID).Int("playerNum", num).Msg("Failed to read orders, defaulting to empty")
		}
		if raw == nil {
			if draft, err := s.cache.GetDraft(ctx, game.ID, num); err == nil && draft != nil {
				log.Info().Str("gameId", game.ID).Int("playerNum", num).Msg("Adopting pending draft at deadline")
				raw = draft
			}
		}
		if raw == nil {
			if seat := seats[num]; seat != nil && seat.IsAI {
				o := generateAIOrders(gs, num, seat.AIStrategy)
				orders[num] = o
				if b, err := json.Marshal(o); err == nil {
					raws[num] = b
				}
				continue
			}
		}

		var o warbots.Orders
		if raw != nil {
			if err := json.Unmarshal(raw, &o); err != nil {
				log.Warn().Str("gameId", game.ID).Int("playerNum", num).Msg("Invalid cached orders, using empty turn")
				o = warbots.Orders{}
			}
		}
		// Drafts skipped strict validation, and submitted orders can go
		// stale against the resolved snapshot; keep whatever still applies.
		kept, dropped := warbots.FilterOrders(gs, num, o)
		if len(dropped) > 0 {
			log.Debug().Str("gameId", game.ID).Int("playerNum", num).
				Strs("dropped", dropped).Msg("Dropped stale orders at resolution")
		}
		orders[num] = kept
		if b, err := json.Marshal(kept); err == nil {
			raws[num] = b
		}
	}

	return orders, raws
}

// armAITimers schedules delayed order generation for every AI seat in a
// game, replacing any timers from the previous turn.
func (s *TurnService) armAITimers(ctx context.Context, gameID string) {
	s.cancelAITimers(gameID)

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Failed to load game for AI timers")
		return
	}

	var timers []*time.Timer
	for _, p := range game.Players {
		if !p.IsAI {
			continue
		}
		num, strategy := p.PlayerNum, p.AIStrategy
		timers = append(timers, time.AfterFunc(s.aiDelay, func() {
			s.runAI(gameID, num, strategy)
		}))
	}
	if len(timers) == 0 {
		return
	}

	s.mu.Lock()
	s.aiTimers[gameID] = timers
	s.mu.Unlock()
}

func (s *TurnService) cancelAITimers(gameID string) {
	s.mu.Lock()
	timers := s.aiTimers[gameID]
	delete(s.aiTimers, gameID)
	s.mu.Unlock()
	for _, t := range timers {
		t.Stop()
	}
}

// runAI generates and submits one AI player's orders. Idempotent: if
// the seat already submitted this turn (or the game moved on), it does
// nothing.
func (s *TurnService) runAI(gameID string, playerNum int, strategy string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil || game.Status != "active" {
		return
	}

	submitted, err := s.cache.SubmittedPlayers(ctx, gameID)
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("AI submission check failed")
		return
	}
	for _, num := range submitted {
		if num == playerNum {
			return
		}
	}

	turn, err := s.turnRepo.CurrentTurn(ctx, gameID)
	if err != nil || turn == nil {
		return
	}
	gs, err := s.loadState(ctx, gameID, turn)
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("AI failed to load state")
		return
	}
	if pl := gs.PlayerByNum(playerNum); pl == nil || pl.Eliminated {
		return
	}

	orders := generateAIOrders(gs, playerNum, strategy)
	ordersJSON, err := json.Marshal(orders)
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Int("playerNum", playerNum).Msg("AI failed to marshal orders")
		return
	}
	if err := s.cache.SetOrders(ctx, gameID, playerNum, ordersJSON); err != nil {
		log.Error().Err(err).Str("gameId", gameID).Int("playerNum", playerNum).Msg("AI failed to cache orders")
		return
	}
	if err := s.cache.MarkSubmitted(ctx, gameID, playerNum); err != nil {
		log.Error().Err(err).Str("gameId", gameID).Int("playerNum", playerNum).Msg("AI failed to mark submitted")
		return
	}

	log.Debug().Str("gameId", gameID).Int("playerNum", playerNum).
		Str("strategy", strategy).Int("moves", len(orders.Moves)).
		Int("builds", len(orders.Builds)).Msg("AI orders submitted")

	ready, err := s.gateSatisfied(ctx, gameID, gs)
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("AI gate check failed")
		return
	}
	if ready {
		if err := s.ResolveTurnEarly(ctx, gameID); err != nil {
			log.Error().Err(err).Str("gameId", gameID).Msg("Auto-resolve after AI orders failed")
		}
	}
}

// generateAIOrders runs a strategy against the player's fogged view
// and filters the result. A panicking strategy degrades to an empty
// turn so the game keeps running.
func generateAIOrders(gs *warbots.GameState, playerNum int, strategy string) (out warbots.Orders) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int("playerNum", playerNum).
				Str("strategy", strategy).Msg("AI strategy panicked, submitting empty orders")
			out = warbots.Orders{}
		}
	}()

	view := warbots.BuildView(gs, playerNum)
	raw := ai.ForName(strategy).ProduceOrders(&view)
	kept, dropped := warbots.FilterOrders(gs, playerNum, raw)
	if len(dropped) > 0 {
		log.Debug().Int("playerNum", playerNum).Str("strategy", strategy).
			Strs("dropped", dropped).Msg("Filtered AI orders")
	}
	return kept
}

func (s *TurnService) loadState(ctx context.Context, gameID string, turn *model.Turn) (*warbots.GameState, error) {
	stateJSON, err := s.cache.GetGameState(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("get cached state: %w", err)
	}
	if stateJSON == nil {
		stateJSON = turn.StateBefore
	}
	var gs warbots.GameState
	if err := json.Unmarshal(stateJSON, &gs); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &gs, nil
}

func submissionRows(turnID string, ordersJSON map[int]json.RawMessage) []model.TurnSubmission {
	var subs []model.TurnSubmission
	for _, num := range sortedKeys(ordersJSON) {
		subs = append(subs, model.TurnSubmission{
			TurnID:    turnID,
			PlayerNum: num,
			Orders:    ordersJSON[num],
		})
	}
	return subs
}

func combatLogRows(gameID string, turn int, logs []warbots.Log) []model.CombatLog {
	var rows []model.CombatLog
	for _, l := range logs {
		row := model.CombatLog{
			GameID:    gameID,
			Turn:      l.Turn,
			Type:      string(l.Type),
			PlayerNum: l.Player,
			X:         l.X,
			Y:         l.Y,
			Message:   l.Message,
			Amount:    l.Amount,
		}
		if row.Turn == 0 {
			row.Turn = turn
		}
		if l.Detail != nil {
			if b, err := json.Marshal(l.Detail); err == nil {
				row.Detail = b
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func seatNumbers(game *model.Game) []int {
	nums := make([]int, 0, len(game.Players))
	for _, p := range game.Players {
		nums = append(nums, p.PlayerNum)
	}
	return nums
}

func sortedKeys(m map[int]json.RawMessage) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
