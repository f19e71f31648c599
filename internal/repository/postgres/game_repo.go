package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/warbots/server/internal/model"
)

// GameRepo handles game and game_player database operations.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Create inserts a new game in "waiting" status.
func (r *GameRepo) Create(ctx context.Context, name, creatorID string, gridSize, maxPlayers, turnTimer int) (*model.Game, error) {
	var g model.Game
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO games (name, creator_id, grid_size, max_players, turn_timer)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, name, creator_id, status, grid_size, max_players, turn_timer, current_turn, created_at`,
		name, creatorID, gridSize, maxPlayers, turnTimer,
	).Scan(&g.ID, &g.Name, &g.CreatorID, &g.Status, &g.GridSize, &g.MaxPlayers, &g.TurnTimer, &g.CurrentTurn, &g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return &g, nil
}

// FindByID returns a game by ID with its players.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	var g model.Game
	var winner sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, creator_id, status, winner, grid_size, max_players, turn_timer, current_turn,
		        created_at, started_at, finished_at
		 FROM games WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.CreatorID, &g.Status, &winner, &g.GridSize, &g.MaxPlayers, &g.TurnTimer,
		&g.CurrentTurn, &g.CreatedAt, &g.StartedAt, &g.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	g.Winner = int(winner.Int64)

	players, err := r.ListPlayers(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Players = players
	g.PlayerCount = len(players)
	return &g, nil
}

// ListOpen returns games in "waiting" status with their player counts.
func (r *GameRepo) ListOpen(ctx context.Context) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.creator_id, g.status, g.grid_size, g.max_players, g.turn_timer, g.current_turn, g.created_at,
		        (SELECT COUNT(*) FROM game_players gp WHERE gp.game_id = g.id)
		 FROM games g WHERE g.status = 'waiting' ORDER BY g.created_at DESC LIMIT 50`)
	if err != nil {
		return nil, fmt.Errorf("list open games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatorID, &g.Status, &g.GridSize, &g.MaxPlayers, &g.TurnTimer, &g.CurrentTurn, &g.CreatedAt, &g.PlayerCount); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// ListByUser returns all games a user is part of (as player or creator).
func (r *GameRepo) ListByUser(ctx context.Context, userID string) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT g.id, g.name, g.creator_id, g.status, g.winner, g.grid_size, g.max_players, g.turn_timer,
		        g.current_turn, g.created_at, g.started_at, g.finished_at
		 FROM games g LEFT JOIN game_players gp ON g.id = gp.game_id AND gp.user_id = $1
		 WHERE gp.user_id = $1 OR g.creator_id = $1
		 ORDER BY g.created_at DESC LIMIT 50`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		var winner sql.NullInt64
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatorID, &g.Status, &winner, &g.GridSize, &g.MaxPlayers, &g.TurnTimer,
			&g.CurrentTurn, &g.CreatedAt, &g.StartedAt, &g.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.Winner = int(winner.Int64)
		games = append(games, g)
	}
	return games, rows.Err()
}

// ListActive returns all games with status 'active', including their players.
func (r *GameRepo) ListActive(ctx context.Context) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, creator_id, status, grid_size, max_players, turn_timer, current_turn, created_at
		 FROM games WHERE status = 'active' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list active games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatorID, &g.Status, &g.GridSize, &g.MaxPlayers, &g.TurnTimer, &g.CurrentTurn, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range games {
		players, err := r.ListPlayers(ctx, games[i].ID)
		if err != nil {
			return nil, err
		}
		games[i].Players = players
	}
	return games, nil
}

// ListPlayers returns all players in a game ordered by player number.
func (r *GameRepo) ListPlayers(ctx context.Context, gameID string) ([]model.GamePlayer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT game_id, user_id, player_num, empire_name, empire_color, is_ai, ai_strategy, joined_at
		 FROM game_players WHERE game_id = $1 ORDER BY player_num`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []model.GamePlayer
	for rows.Next() {
		var p model.GamePlayer
		var userID, strategy sql.NullString
		if err := rows.Scan(&p.GameID, &userID, &p.PlayerNum, &p.EmpireName, &p.EmpireColor, &p.IsAI, &strategy, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.UserID = userID.String
		p.AIStrategy = strategy.String
		players = append(players, p)
	}
	return players, rows.Err()
}

// Join adds a human player to a game.
func (r *GameRepo) Join(ctx context.Context, gameID, userID, empireName, empireColor string, playerNum int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO game_players (game_id, user_id, player_num, empire_name, empire_color)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT DO NOTHING`,
		gameID, userID, playerNum, empireName, empireColor,
	)
	if err != nil {
		return fmt.Errorf("join game: %w", err)
	}
	return nil
}

// JoinAsAI adds an AI player running the given strategy.
func (r *GameRepo) JoinAsAI(ctx context.Context, gameID, empireName, empireColor, strategy string, playerNum int) error {
	if strategy == "" {
		strategy = "balanced"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO game_players (game_id, player_num, empire_name, empire_color, is_ai, ai_strategy)
		 VALUES ($1, $2, $3, $4, true, $5)
		 ON CONFLICT DO NOTHING`,
		gameID, playerNum, empireName, empireColor, strategy,
	)
	if err != nil {
		return fmt.Errorf("join game as ai: %w", err)
	}
	return nil
}

// SetActive marks a game as started.
func (r *GameRepo) SetActive(ctx context.Context, gameID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = 'active', current_turn = 1, started_at = now() WHERE id = $1`, gameID,
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	return nil
}

// SetFinished marks a game as finished with the winning player number.
func (r *GameRepo) SetFinished(ctx context.Context, gameID string, winner int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = 'finished', winner = $1, finished_at = now() WHERE id = $2`,
		winner, gameID,
	)
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	return nil
}

// UpdateCurrentTurn records the game's current turn number.
func (r *GameRepo) UpdateCurrentTurn(ctx context.Context, gameID string, turn int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET current_turn = $1 WHERE id = $2`,
		turn, gameID,
	)
	if err != nil {
		return fmt.Errorf("update current turn: %w", err)
	}
	return nil
}

// Delete removes a game and all associated data (cascades to players, turns, logs).
func (r *GameRepo) Delete(ctx context.Context, gameID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}
