package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/warbots/server/internal/model"
)

// TurnRepo handles turn, submission and combat log database operations.
type TurnRepo struct {
	db *sql.DB
}

// NewTurnRepo creates a TurnRepo.
func NewTurnRepo(db *sql.DB) *TurnRepo {
	return &TurnRepo{db: db}
}

// CreateTurn inserts a new unresolved turn.
func (r *TurnRepo) CreateTurn(ctx context.Context, gameID string, number int, stateBefore json.RawMessage, deadline time.Time) (*model.Turn, error) {
	var t model.Turn
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO turns (game_id, number, state_before, deadline)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, game_id, number, state_before, deadline, created_at`,
		gameID, number, stateBefore, deadline,
	).Scan(&t.ID, &t.GameID, &t.Number, &t.StateBefore, &t.Deadline, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create turn: %w", err)
	}
	return &t, nil
}

// CurrentTurn returns the latest unresolved turn for a game.
func (r *TurnRepo) CurrentTurn(ctx context.Context, gameID string) (*model.Turn, error) {
	var t model.Turn
	var stateAfter sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, game_id, number, state_before, state_after, deadline, resolved_at, created_at
		 FROM turns WHERE game_id = $1 AND resolved_at IS NULL
		 ORDER BY number DESC LIMIT 1`, gameID,
	).Scan(&t.ID, &t.GameID, &t.Number, &t.StateBefore, &stateAfter, &t.Deadline, &t.ResolvedAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current turn: %w", err)
	}
	if stateAfter.Valid {
		t.StateAfter = json.RawMessage(stateAfter.String)
	}
	return &t, nil
}

// ResolveTurn marks a turn as resolved and stores the resulting state.
func (r *TurnRepo) ResolveTurn(ctx context.Context, turnID string, stateAfter json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE turns SET state_after = $1, resolved_at = now() WHERE id = $2`,
		stateAfter, turnID,
	)
	if err != nil {
		return fmt.Errorf("resolve turn: %w", err)
	}
	return nil
}

// SaveSubmissions inserts the audit copies of each player's orders.
func (r *TurnRepo) SaveSubmissions(ctx context.Context, subs []model.TurnSubmission) error {
	if len(subs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO turn_submissions (turn_id, player_num, orders) VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("prepare insert submission: %w", err)
	}
	defer stmt.Close()

	for _, s := range subs {
		if _, err := stmt.ExecContext(ctx, s.TurnID, s.PlayerNum, s.Orders); err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}
	}
	return tx.Commit()
}

// SaveCombatLogs inserts a batch of resolution log records.
func (r *TurnRepo) SaveCombatLogs(ctx context.Context, logs []model.CombatLog) error {
	if len(logs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO combat_logs (game_id, turn, type, player_num, x, y, message, amount, detail)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return fmt.Errorf("prepare insert log: %w", err)
	}
	defer stmt.Close()

	for _, l := range logs {
		var detail interface{}
		if len(l.Detail) > 0 {
			detail = []byte(l.Detail)
		}
		if _, err := stmt.ExecContext(ctx, l.GameID, l.Turn, l.Type, l.PlayerNum, l.X, l.Y, l.Message, l.Amount, detail); err != nil {
			return fmt.Errorf("insert log: %w", err)
		}
	}
	return tx.Commit()
}

// LogsByTurn returns all resolution logs for one turn of a game.
func (r *TurnRepo) LogsByTurn(ctx context.Context, gameID string, turn int) ([]model.CombatLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, turn, type, player_num, x, y, message, amount, detail, created_at
		 FROM combat_logs WHERE game_id = $1 AND turn = $2 ORDER BY created_at, id`, gameID, turn,
	)
	if err != nil {
		return nil, fmt.Errorf("logs by turn: %w", err)
	}
	defer rows.Close()

	var logs []model.CombatLog
	for rows.Next() {
		var l model.CombatLog
		var detail sql.NullString
		if err := rows.Scan(&l.ID, &l.GameID, &l.Turn, &l.Type, &l.PlayerNum, &l.X, &l.Y, &l.Message, &l.Amount, &detail, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		if detail.Valid {
			l.Detail = json.RawMessage(detail.String)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// ListExpired returns the latest unresolved turn per game where the deadline has passed.
// Uses DISTINCT ON to avoid returning orphaned old turns from previous race conditions.
func (r *TurnRepo) ListExpired(ctx context.Context) ([]model.Turn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT ON (t.game_id) t.id, t.game_id, t.number, t.state_before, t.deadline, t.created_at
		 FROM turns t
		 JOIN games g ON g.id = t.game_id
		 WHERE t.resolved_at IS NULL AND t.deadline < now() AND g.status = 'active'
		 ORDER BY t.game_id, t.number DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expired turns: %w", err)
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		var t model.Turn
		if err := rows.Scan(&t.ID, &t.GameID, &t.Number, &t.StateBefore, &t.Deadline, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expired turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
