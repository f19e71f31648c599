package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/warbots/server/internal/model"
	"github.com/warbots/server/internal/repository"
	"github.com/warbots/server/pkg/warbots"
)

type mockGameRepo struct {
	mu      sync.Mutex
	games   map[string]*model.Game
	players map[string][]model.GamePlayer
	seq     int
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{
		games:   make(map[string]*model.Game),
		players: make(map[string][]model.GamePlayer),
	}
}

func (m *mockGameRepo) Create(_ context.Context, name, creatorID string, gridSize, maxPlayers, turnTimer int) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	g := &model.Game{
		ID:         fmt.Sprintf("game-%d", m.seq),
		Name:       name,
		CreatorID:  creatorID,
		Status:     "waiting",
		GridSize:   gridSize,
		MaxPlayers: maxPlayers,
		TurnTimer:  turnTimer,
		CreatedAt:  time.Now(),
	}
	m.games[g.ID] = g
	return g, nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	cp.Players = append([]model.GamePlayer(nil), m.players[id]...)
	return &cp, nil
}

func (m *mockGameRepo) ListOpen(_ context.Context) ([]model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "waiting" {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGameRepo) ListByUser(_ context.Context, userID string) ([]model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Game
	for gameID, players := range m.players {
		for _, p := range players {
			if p.UserID == userID {
				if g, ok := m.games[gameID]; ok {
					result = append(result, *g)
				}
			}
		}
	}
	return result, nil
}

func (m *mockGameRepo) ListActive(_ context.Context) ([]model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "active" {
			cp := *g
			cp.Players = append([]model.GamePlayer(nil), m.players[g.ID]...)
			result = append(result, cp)
		}
	}
	return result, nil
}

func (m *mockGameRepo) Join(_ context.Context, gameID, userID, empireName, empireColor string, playerNum int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[gameID] = append(m.players[gameID], model.GamePlayer{
		GameID:      gameID,
		UserID:      userID,
		PlayerNum:   playerNum,
		EmpireName:  empireName,
		EmpireColor: empireColor,
		JoinedAt:    time.Now(),
	})
	return nil
}

func (m *mockGameRepo) JoinAsAI(_ context.Context, gameID, empireName, empireColor, strategy string, playerNum int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[gameID] = append(m.players[gameID], model.GamePlayer{
		GameID:      gameID,
		PlayerNum:   playerNum,
		EmpireName:  empireName,
		EmpireColor: empireColor,
		IsAI:        true,
		AIStrategy:  strategy,
		JoinedAt:    time.Now(),
	})
	return nil
}

func (m *mockGameRepo) SetActive(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.games[gameID]; ok {
		g.Status = "active"
		g.CurrentTurn = 1
		now := time.Now()
		g.StartedAt = &now
	}
	return nil
}

func (m *mockGameRepo) SetFinished(_ context.Context, gameID string, winner int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.games[gameID]; ok {
		g.Status = "finished"
		g.Winner = winner
		now := time.Now()
		g.FinishedAt = &now
	}
	return nil
}

func (m *mockGameRepo) UpdateCurrentTurn(_ context.Context, gameID string, turn int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.games[gameID]; ok {
		g.CurrentTurn = turn
	}
	return nil
}

func (m *mockGameRepo) Delete(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, gameID)
	delete(m.players, gameID)
	return nil
}

type mockTurnRepo struct {
	mu    sync.Mutex
	turns map[string]*model.Turn
	subs  []model.TurnSubmission
	logs  []model.CombatLog
	seq   int
}

func newMockTurnRepo() *mockTurnRepo {
	return &mockTurnRepo{turns: make(map[string]*model.Turn)}
}

func (m *mockTurnRepo) CreateTurn(_ context.Context, gameID string, number int, stateBefore json.RawMessage, deadline time.Time) (*model.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &model.Turn{
		ID:          fmt.Sprintf("turn-%d", m.seq),
		GameID:      gameID,
		Number:      number,
		StateBefore: stateBefore,
		Deadline:    deadline,
		CreatedAt:   time.Now(),
	}
	m.turns[t.ID] = t
	return t, nil
}

func (m *mockTurnRepo) CurrentTurn(_ context.Context, gameID string) (*model.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.Turn
	for _, t := range m.turns {
		if t.GameID == gameID && t.ResolvedAt == nil {
			if latest == nil || t.Number > latest.Number {
				latest = t
			}
		}
	}
	return latest, nil
}

func (m *mockTurnRepo) ResolveTurn(_ context.Context, turnID string, stateAfter json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.turns[turnID]; ok {
		t.StateAfter = stateAfter
		now := time.Now()
		t.ResolvedAt = &now
	}
	return nil
}

func (m *mockTurnRepo) SaveSubmissions(_ context.Context, subs []model.TurnSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, subs...)
	return nil
}

func (m *mockTurnRepo) SaveCombatLogs(_ context.Context, logs []model.CombatLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, logs...)
	return nil
}

func (m *mockTurnRepo) LogsByTurn(_ context.Context, gameID string, turn int) ([]model.CombatLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.CombatLog
	for _, l := range m.logs {
		if l.GameID == gameID && l.Turn == turn {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *mockTurnRepo) ListExpired(_ context.Context) ([]model.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Turn
	for _, t := range m.turns {
		if t.ResolvedAt == nil && time.Now().After(t.Deadline) {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockTurnRepo) turnByNumber(gameID string, number int) *model.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.turns {
		if t.GameID == gameID && t.Number == number {
			return t
		}
	}
	return nil
}

func (m *mockTurnRepo) submissionFor(playerNum int) *model.TurnSubmission {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.subs {
		if m.subs[i].PlayerNum == playerNum {
			return &m.subs[i]
		}
	}
	return nil
}

type mockCache struct {
	mu        sync.Mutex
	states    map[string]json.RawMessage
	orders    map[string]json.RawMessage
	drafts    map[string]json.RawMessage
	submitted map[string]map[int]bool
	timers    map[string]time.Time
}

func newMockCache() *mockCache {
	return &mockCache{
		states:    make(map[string]json.RawMessage),
		orders:    make(map[string]json.RawMessage),
		drafts:    make(map[string]json.RawMessage),
		submitted: make(map[string]map[int]bool),
		timers:    make(map[string]time.Time),
	}
}

func playerKey(gameID string, playerNum int) string {
	return fmt.Sprintf("%s:%d", gameID, playerNum)
}

func (m *mockCache) SetGameState(_ context.Context, gameID string, state json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[gameID] = state
	return nil
}

func (m *mockCache) GetGameState(_ context.Context, gameID string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[gameID], nil
}

func (m *mockCache) SetOrders(_ context.Context, gameID string, playerNum int, orders json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[playerKey(gameID, playerNum)] = orders
	return nil
}

func (m *mockCache) GetOrders(_ context.Context, gameID string, playerNum int) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[playerKey(gameID, playerNum)], nil
}

func (m *mockCache) SetDraft(_ context.Context, gameID string, playerNum int, orders json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[playerKey(gameID, playerNum)] = orders
	return nil
}

func (m *mockCache) GetDraft(_ context.Context, gameID string, playerNum int) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drafts[playerKey(gameID, playerNum)], nil
}

func (m *mockCache) MarkSubmitted(_ context.Context, gameID string, playerNum int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitted[gameID] == nil {
		m.submitted[gameID] = make(map[int]bool)
	}
	m.submitted[gameID][playerNum] = true
	return nil
}

func (m *mockCache) SubmittedCount(_ context.Context, gameID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.submitted[gameID])), nil
}

func (m *mockCache) SubmittedPlayers(_ context.Context, gameID string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var nums []int
	for n := range m.submitted[gameID] {
		nums = append(nums, n)
	}
	return nums, nil
}

func (m *mockCache) SetTimer(_ context.Context, gameID string, deadline time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timers[gameID] = deadline
	return nil
}

func (m *mockCache) ClearTimer(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.timers, gameID)
	return nil
}

func (m *mockCache) ClearTurnData(_ context.Context, gameID string, playerNums []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range playerNums {
		delete(m.orders, playerKey(gameID, n))
		delete(m.drafts, playerKey(gameID, n))
	}
	delete(m.submitted, gameID)
	return nil
}

func (m *mockCache) DeleteGameData(_ context.Context, gameID string, playerNums []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range playerNums {
		delete(m.orders, playerKey(gameID, n))
		delete(m.drafts, playerKey(gameID, n))
	}
	delete(m.submitted, gameID)
	delete(m.states, gameID)
	delete(m.timers, gameID)
	return nil
}

var (
	_ repository.GameRepository = (*mockGameRepo)(nil)
	_ repository.TurnRepository = (*mockTurnRepo)(nil)
	_ repository.GameCache      = (*mockCache)(nil)
)

// recordingBroadcaster captures events for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	GameID string
	Type   string
	Data   any
}

func (b *recordingBroadcaster) BroadcastGameEvent(gameID string, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{GameID: gameID, Type: eventType, Data: data})
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

func (b *recordingBroadcaster) has(eventType string) bool {
	for _, t := range b.types() {
		if t == eventType {
			return true
		}
	}
	return false
}

// twoPlayerState builds a small board: two homeworlds in opposite
// corners, one medium mech each, far outside each other's sight.
func twoPlayerState() *warbots.GameState {
	return &warbots.GameState{
		GridSize: 25,
		Turn:     1,
		Players: []warbots.PlayerState{
			{Num: 1, Credits: 20},
			{Num: 2, Credits: 20},
		},
		Planets: []warbots.Planet{
			{ID: 1, Name: "Vesta", X: 2, Y: 2, BaseIncome: 5, Owner: 1, Homeworld: true, OriginalOwner: 1},
			{ID: 2, Name: "Pallas", X: 22, Y: 22, BaseIncome: 5, Owner: 2, Homeworld: true, OriginalOwner: 2},
		},
		Mechs: []warbots.Mech{
			{ID: 1, Owner: 1, Type: warbots.MechMedium, HP: 10, X: 2, Y: 2, Designation: "Medium-0001"},
			{ID: 2, Owner: 2, Type: warbots.MechMedium, HP: 10, X: 22, Y: 22, Designation: "Medium-0001"},
		},
		NextMechID: 2,
	}
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
