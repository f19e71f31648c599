package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/warbots/server/internal/ai"
	"github.com/warbots/server/internal/model"
	"github.com/warbots/server/internal/repository"
	"github.com/warbots/server/pkg/warbots"
)

var (
	ErrGameNotFound       = errors.New("game not found")
	ErrGameNotWaiting     = errors.New("game is not in waiting status")
	ErrGameNotActive      = errors.New("game is not active")
	ErrGameFull           = errors.New("game is full")
	ErrNotEnough          = errors.New("need at least 2 players to start")
	ErrNotHost            = errors.New("only the host can do this")
	ErrAlreadyJoined      = errors.New("already joined this game")
	ErrNotInGame          = errors.New("you are not in this game")
	ErrColorTaken         = errors.New("empire color already taken")
	ErrInvalidColor       = errors.New("invalid empire color")
	ErrInvalidGridSize    = errors.New("grid size must be 25, 50 or 100")
	ErrInvalidPlayerCount = errors.New("max players must be between 2 and 8")
	ErrInvalidTurnTimer   = errors.New("turn timer must be between 30 seconds and 7 days")
	ErrInvalidStrategy    = errors.New("unknown ai strategy")
)

// EmpireColors is the palette a game's players pick from. Eight colors,
// one per possible seat.
var EmpireColors = []string{"red", "blue", "green", "yellow", "purple", "orange", "cyan", "pink"}

var aiEmpireNames = map[string]string{
	"balanced":     "Equilibrium Combine",
	"expansionist": "Manifest Collective",
	"infestor":     "The Swarm",
	"defensive":    "Bulwark Concordat",
	"generic":      "Automata Prime",
}

// GameService handles game lifecycle operations: lobby creation, joins,
// AI seats, start and delete.
type GameService struct {
	gameRepo    repository.GameRepository
	turnRepo    repository.TurnRepository
	broadcaster Broadcaster
	turns       *TurnService
}

// NewGameService creates a GameService.
func NewGameService(gameRepo repository.GameRepository, turnRepo repository.TurnRepository, broadcaster Broadcaster) *GameService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &GameService{gameRepo: gameRepo, turnRepo: turnRepo, broadcaster: broadcaster}
}

// SetTurnService wires in the dispatcher so StartGame and DeleteGame can
// hand off timer management. Set once at startup.
func (s *GameService) SetTurnService(turns *TurnService) {
	s.turns = turns
}

// CreateGame creates a game in "waiting" status with the creator seated
// as player 1. Each entry in aiStrategies adds one AI opponent.
func (s *GameService) CreateGame(ctx context.Context, name, creatorID string, gridSize, maxPlayers, turnTimer int, empireName, empireColor string, aiStrategies []string) (*model.Game, error) {
	if gridSize != 25 && gridSize != 50 && gridSize != 100 {
		return nil, ErrInvalidGridSize
	}
	if maxPlayers < 2 || maxPlayers > 8 {
		return nil, ErrInvalidPlayerCount
	}
	if turnTimer < 30 || turnTimer > 7*24*3600 {
		return nil, ErrInvalidTurnTimer
	}
	if !validColor(empireColor) {
		return nil, ErrInvalidColor
	}
	if len(aiStrategies) > maxPlayers-1 {
		return nil, ErrGameFull
	}
	for _, tag := range aiStrategies {
		if !validStrategy(tag) {
			return nil, ErrInvalidStrategy
		}
	}
	if name == "" {
		name = fmt.Sprintf("%s's game", empireName)
	}

	game, err := s.gameRepo.Create(ctx, name, creatorID, gridSize, maxPlayers, turnTimer)
	if err != nil {
		return nil, err
	}

	if empireName == "" {
		empireName = "Empire 1"
	}
	if err := s.gameRepo.Join(ctx, game.ID, creatorID, empireName, empireColor, 1); err != nil {
		return nil, err
	}

	taken := map[string]bool{empireColor: true}
	for i, tag := range aiStrategies {
		num := i + 2
		color, ok := freeColor(taken)
		if !ok {
			return nil, ErrGameFull
		}
		taken[color] = true
		if err := s.gameRepo.JoinAsAI(ctx, game.ID, aiName(tag, num), color, tag, num); err != nil {
			return nil, fmt.Errorf("seat ai %d: %w", num, err)
		}
	}

	return s.gameRepo.FindByID(ctx, game.ID)
}

// JoinGame seats a user in a waiting game.
func (s *GameService) JoinGame(ctx context.Context, gameID, userID, empireName, empireColor string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "waiting" {
		return nil, ErrGameNotWaiting
	}
	if !validColor(empireColor) {
		return nil, ErrInvalidColor
	}

	nextNum := 0
	for _, p := range game.Players {
		if p.UserID == userID {
			return nil, ErrAlreadyJoined
		}
		if p.EmpireColor == empireColor {
			return nil, ErrColorTaken
		}
		if p.PlayerNum > nextNum {
			nextNum = p.PlayerNum
		}
	}
	if len(game.Players) >= game.MaxPlayers {
		return nil, ErrGameFull
	}
	if empireName == "" {
		empireName = fmt.Sprintf("Empire %d", nextNum+1)
	}

	if err := s.gameRepo.Join(ctx, gameID, userID, empireName, empireColor, nextNum+1); err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastGameEvent(gameID, "player_joined", map[string]any{
		"playerNum":  nextNum + 1,
		"empireName": empireName,
		"color":      empireColor,
	})
	return s.gameRepo.FindByID(ctx, gameID)
}

// AddAI seats an AI opponent in a waiting game. Host only.
func (s *GameService) AddAI(ctx context.Context, gameID, userID, strategy string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "waiting" {
		return nil, ErrGameNotWaiting
	}
	if game.CreatorID != userID {
		return nil, ErrNotHost
	}
	if strategy == "" {
		strategy = "generic"
	}
	if !validStrategy(strategy) {
		return nil, ErrInvalidStrategy
	}
	if len(game.Players) >= game.MaxPlayers {
		return nil, ErrGameFull
	}

	taken := make(map[string]bool)
	nextNum := 0
	for _, p := range game.Players {
		taken[p.EmpireColor] = true
		if p.PlayerNum > nextNum {
			nextNum = p.PlayerNum
		}
	}
	color, ok := freeColor(taken)
	if !ok {
		return nil, ErrGameFull
	}

	num := nextNum + 1
	if err := s.gameRepo.JoinAsAI(ctx, gameID, aiName(strategy, num), color, strategy, num); err != nil {
		return nil, err
	}
	return s.gameRepo.FindByID(ctx, gameID)
}

// AvailableColors returns the colors not yet taken in a game, plus the
// full palette.
func (s *GameService) AvailableColors(ctx context.Context, gameID string) (available, all []string, err error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	if game == nil {
		return nil, nil, ErrGameNotFound
	}
	taken := make(map[string]bool)
	for _, p := range game.Players {
		taken[p.EmpireColor] = true
	}
	for _, c := range EmpireColors {
		if !taken[c] {
			available = append(available, c)
		}
	}
	return available, EmpireColors, nil
}

// StartGame generates the map, creates turn 1 with its deadline, and
// flips the game active. Host only, needs at least two seated players.
func (s *GameService) StartGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "waiting" {
		return nil, ErrGameNotWaiting
	}
	if game.CreatorID != userID {
		return nil, ErrNotHost
	}
	if len(game.Players) < 2 {
		return nil, ErrNotEnough
	}

	playerNums := make([]int, len(game.Players))
	for i, p := range game.Players {
		playerNums[i] = p.PlayerNum
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	state, err := warbots.GenerateMap(game.GridSize, playerNums, rng)
	if err != nil {
		return nil, fmt.Errorf("generate map: %w", err)
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal initial state: %w", err)
	}

	deadline := time.Now().Add(time.Duration(game.TurnTimer) * time.Second)
	if _, err := s.turnRepo.CreateTurn(ctx, gameID, 1, stateJSON, deadline); err != nil {
		return nil, fmt.Errorf("create first turn: %w", err)
	}
	if err := s.gameRepo.SetActive(ctx, gameID); err != nil {
		return nil, fmt.Errorf("set active: %w", err)
	}

	if s.turns != nil {
		if err := s.turns.InitializeGame(ctx, gameID, stateJSON, deadline); err != nil {
			return nil, fmt.Errorf("initialize game: %w", err)
		}
	}
	s.broadcaster.BroadcastGameEvent(gameID, "game_started", map[string]any{
		"turn":     1,
		"deadline": deadline.Format(time.RFC3339),
	})

	log.Info().Str("gameId", gameID).Int("players", len(game.Players)).
		Int("gridSize", game.GridSize).Time("deadline", deadline).Msg("Game started")

	return s.gameRepo.FindByID(ctx, gameID)
}

// DeleteGame removes a game and all its data. Host only. Active games
// have their timers cancelled and cached state dropped first.
func (s *GameService) DeleteGame(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.CreatorID != userID {
		return ErrNotHost
	}

	if s.turns != nil {
		if err := s.turns.CancelGame(ctx, game); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to clear cached game data on delete")
		}
	}
	return s.gameRepo.Delete(ctx, gameID)
}

// GetGame returns a game with its players.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// ListOpenGames returns joinable games.
func (s *GameService) ListOpenGames(ctx context.Context) ([]model.Game, error) {
	return s.gameRepo.ListOpen(ctx)
}

// ListMyGames returns the games a user is seated in.
func (s *GameService) ListMyGames(ctx context.Context, userID string) ([]model.Game, error) {
	return s.gameRepo.ListByUser(ctx, userID)
}

func validColor(color string) bool {
	for _, c := range EmpireColors {
		if c == color {
			return true
		}
	}
	return false
}

func validStrategy(tag string) bool {
	for _, n := range ai.Names() {
		if n == tag {
			return true
		}
	}
	return false
}

func freeColor(taken map[string]bool) (string, bool) {
	for _, c := range EmpireColors {
		if !taken[c] {
			return c, true
		}
	}
	return "", false
}

func aiName(strategy string, num int) string {
	base, ok := aiEmpireNames[strategy]
	if !ok {
		base = "Automata"
	}
	return fmt.Sprintf("%s %d", base, num)
}
