package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/warbots/server/internal/auth"
	"github.com/warbots/server/internal/model"
	"github.com/warbots/server/internal/repository"
	"github.com/warbots/server/internal/service"
)

// --- Mock repositories ---

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (m *mockUserRepo) FindByProviderID(_ context.Context, provider, providerID string) (*model.User, error) {
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Upsert(_ context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error) {
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			u.DisplayName = displayName
			return u, nil
		}
	}
	m.seq++
	u := &model.User{
		ID:          fmt.Sprintf("user-%d", m.seq),
		Provider:    provider,
		ProviderID:  providerID,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserRepo) UpdateDisplayName(_ context.Context, id, displayName string) error {
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.DisplayName = displayName
	return nil
}

type mockGameRepo struct {
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
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	cp.Players = m.players[id]
	return &cp, nil
}

func (m *mockGameRepo) ListOpen(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "waiting" {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGameRepo) ListByUser(_ context.Context, userID string) ([]model.Game, error) {
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
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "active" {
			cp := *g
			cp.Players = m.players[g.ID]
			result = append(result, cp)
		}
	}
	return result, nil
}

func (m *mockGameRepo) Join(_ context.Context, gameID, userID, empireName, empireColor string, playerNum int) error {
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
	if g, ok := m.games[gameID]; ok {
		g.Status = "active"
		g.CurrentTurn = 1
		now := time.Now()
		g.StartedAt = &now
	}
	return nil
}

func (m *mockGameRepo) SetFinished(_ context.Context, gameID string, winner int) error {
	if g, ok := m.games[gameID]; ok {
		g.Status = "finished"
		g.Winner = winner
	}
	return nil
}

func (m *mockGameRepo) UpdateCurrentTurn(_ context.Context, gameID string, turn int) error {
	if g, ok := m.games[gameID]; ok {
		g.CurrentTurn = turn
	}
	return nil
}

func (m *mockGameRepo) Delete(_ context.Context, gameID string) error {
	delete(m.games, gameID)
	delete(m.players, gameID)
	return nil
}

type mockTurnRepo struct {
	turns map[string]*model.Turn
	logs  []model.CombatLog
	seq   int
}

func newMockTurnRepo() *mockTurnRepo {
	return &mockTurnRepo{turns: make(map[string]*model.Turn)}
}

func (m *mockTurnRepo) CreateTurn(_ context.Context, gameID string, number int, stateBefore json.RawMessage, deadline time.Time) (*model.Turn, error) {
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
	if t, ok := m.turns[turnID]; ok {
		t.StateAfter = stateAfter
		now := time.Now()
		t.ResolvedAt = &now
	}
	return nil
}

func (m *mockTurnRepo) SaveSubmissions(_ context.Context, _ []model.TurnSubmission) error {
	return nil
}

func (m *mockTurnRepo) SaveCombatLogs(_ context.Context, logs []model.CombatLog) error {
	m.logs = append(m.logs, logs...)
	return nil
}

func (m *mockTurnRepo) LogsByTurn(_ context.Context, gameID string, turn int) ([]model.CombatLog, error) {
	var result []model.CombatLog
	for _, l := range m.logs {
		if l.GameID == gameID && l.Turn == turn {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *mockTurnRepo) ListExpired(_ context.Context) ([]model.Turn, error) {
	return nil, nil
}

type mockCache struct {
	states    map[string]json.RawMessage
	orders    map[string]json.RawMessage
	drafts    map[string]json.RawMessage
	submitted map[string]map[int]bool
}

func newMockCache() *mockCache {
	return &mockCache{
		states:    make(map[string]json.RawMessage),
		orders:    make(map[string]json.RawMessage),
		drafts:    make(map[string]json.RawMessage),
		submitted: make(map[string]map[int]bool),
	}
}

func (m *mockCache) SetGameState(_ context.Context, gameID string, state json.RawMessage) error {
	m.states[gameID] = state
	return nil
}

func (m *mockCache) GetGameState(_ context.Context, gameID string) (json.RawMessage, error) {
	return m.states[gameID], nil
}

func (m *mockCache) SetOrders(_ context.Context, gameID string, playerNum int, orders json.RawMessage) error {
	m.orders[fmt.Sprintf("%s:%d", gameID, playerNum)] = orders
	return nil
}

func (m *mockCache) GetOrders(_ context.Context, gameID string, playerNum int) (json.RawMessage, error) {
	return m.orders[fmt.Sprintf("%s:%d", gameID, playerNum)], nil
}

func (m *mockCache) SetDraft(_ context.Context, gameID string, playerNum int, orders json.RawMessage) error {
	m.drafts[fmt.Sprintf("%s:%d", gameID, playerNum)] = orders
	return nil
}

func (m *mockCache) GetDraft(_ context.Context, gameID string, playerNum int) (json.RawMessage, error) {
	return m.drafts[fmt.Sprintf("%s:%d", gameID, playerNum)], nil
}

func (m *mockCache) MarkSubmitted(_ context.Context, gameID string, playerNum int) error {
	if m.submitted[gameID] == nil {
		m.submitted[gameID] = make(map[int]bool)
	}
	m.submitted[gameID][playerNum] = true
	return nil
}

func (m *mockCache) SubmittedCount(_ context.Context, gameID string) (int64, error) {
	return int64(len(m.submitted[gameID])), nil
}

func (m *mockCache) SubmittedPlayers(_ context.Context, gameID string) ([]int, error) {
	var nums []int
	for n := range m.submitted[gameID] {
		nums = append(nums, n)
	}
	return nums, nil
}

func (m *mockCache) SetTimer(_ context.Context, _ string, _ time.Time) error { return nil }
func (m *mockCache) ClearTimer(_ context.Context, _ string) error           { return nil }

func (m *mockCache) ClearTurnData(_ context.Context, gameID string, playerNums []int) error {
	for _, n := range playerNums {
		delete(m.orders, fmt.Sprintf("%s:%d", gameID, n))
		delete(m.drafts, fmt.Sprintf("%s:%d", gameID, n))
	}
	delete(m.submitted, gameID)
	return nil
}

func (m *mockCache) DeleteGameData(ctx context.Context, gameID string, playerNums []int) error {
	delete(m.states, gameID)
	return m.ClearTurnData(ctx, gameID, playerNums)
}

var _ repository.GameCache = (*mockCache)(nil)

// --- Helpers ---

func newGameHandler() (*GameHandler, *mockGameRepo) {
	gameRepo := newMockGameRepo()
	gameSvc := service.NewGameService(gameRepo, newMockTurnRepo(), nil)
	return NewGameHandler(gameSvc), gameRepo
}

func reqWithUserID(method, path string, body string, userID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	ctx := auth.SetUserIDForTest(req.Context(), userID)
	return req.WithContext(ctx)
}

// --- User handler tests ---

func TestGetMe(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["user-1"] = &model.User{
		ID:          "user-1",
		DisplayName: "Alice",
		Provider:    "google",
	}
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodGet, "/users/me", "", "user-1")
	rec := httptest.NewRecorder()
	h.GetMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var user model.User
	json.Unmarshal(rec.Body.Bytes(), &user)
	if user.DisplayName != "Alice" {
		t.Errorf("expected Alice, got %s", user.DisplayName)
	}
}

func TestGetMeNotFound(t *testing.T) {
	h := NewUserHandler(newMockUserRepo())

	req := reqWithUserID(http.MethodGet, "/users/me", "", "nonexistent")
	rec := httptest.NewRecorder()
	h.GetMe(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateMe(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["user-1"] = &model.User{
		ID:          "user-1",
		DisplayName: "Alice",
	}
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodPatch, "/users/me", `{"display_name":"Bob"}`, "user-1")
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var user model.User
	json.Unmarshal(rec.Body.Bytes(), &user)
	if user.DisplayName != "Bob" {
		t.Errorf("expected Bob, got %s", user.DisplayName)
	}
}

func TestUpdateMeInvalidJSON(t *testing.T) {
	h := NewUserHandler(newMockUserRepo())

	req := reqWithUserID(http.MethodPatch, "/users/me", "not json", "user-1")
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// --- Game handler tests ---

func TestCreateGame(t *testing.T) {
	h, _ := newGameHandler()

	body := `{"name":"First Contact","gridSize":25,"maxPlayers":4,"turnTimer":3600,"empireName":"Terrans","empireColor":"red"}`
	req := reqWithUserID(http.MethodPost, "/games", body, "user-1")
	rec := httptest.NewRecorder()
	h.CreateGame(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var game model.Game
	json.Unmarshal(rec.Body.Bytes(), &game)
	if game.Name != "First Contact" {
		t.Errorf("expected 'First Contact', got %s", game.Name)
	}
	if len(game.Players) != 1 || game.Players[0].PlayerNum != 1 {
		t.Errorf("creator should be seated as player 1: %+v", game.Players)
	}
}

func TestCreateGameWithAIOpponents(t *testing.T) {
	h, _ := newGameHandler()

	body := `{"name":"Solo Run","gridSize":50,"maxPlayers":4,"turnTimer":120,"empireName":"Terrans","empireColor":"blue","aiStrategies":["balanced","infestor","generic"]}`
	req := reqWithUserID(http.MethodPost, "/games", body, "user-1")
	rec := httptest.NewRecorder()
	h.CreateGame(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var game model.Game
	json.Unmarshal(rec.Body.Bytes(), &game)
	if len(game.Players) != 4 {
		t.Fatalf("expected 4 players, got %d", len(game.Players))
	}
	ais := 0
	for _, p := range game.Players {
		if p.IsAI {
			ais++
		}
	}
	if ais != 3 {
		t.Errorf("expected 3 AI seats, got %d", ais)
	}
}

func TestCreateGameBadGridSize(t *testing.T) {
	h, _ := newGameHandler()

	body := `{"name":"Nope","gridSize":30,"maxPlayers":4,"turnTimer":3600,"empireName":"Terrans","empireColor":"red"}`
	req := reqWithUserID(http.MethodPost, "/games", body, "user-1")
	rec := httptest.NewRecorder()
	h.CreateGame(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListGamesEmpty(t *testing.T) {
	h, _ := newGameHandler()

	req := reqWithUserID(http.MethodGet, "/games", "", "user-1")
	rec := httptest.NewRecorder()
	h.ListGames(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := strings.TrimSpace(rec.Body.String())
	if body != "[]" {
		t.Errorf("expected [], got %s", body)
	}
}

func TestGetGameNotFound(t *testing.T) {
	h, _ := newGameHandler()

	req := reqWithUserID(http.MethodGet, "/games/nonexistent", "", "user-1")
	req.SetPathValue("id", "nonexistent")
	rec := httptest.NewRecorder()
	h.GetGame(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestJoinGameColorTaken(t *testing.T) {
	h, gameRepo := newGameHandler()
	gameRepo.Create(context.Background(), "g", "host", 25, 4, 3600)
	gameRepo.Join(context.Background(), "game-1", "host", "Terrans", "red", 1)

	req := reqWithUserID(http.MethodPost, "/games/game-1/join", `{"empireName":"Rivals","empireColor":"red"}`, "user-2")
	req.SetPathValue("id", "game-1")
	rec := httptest.NewRecorder()
	h.JoinGame(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for taken color, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAvailableColors(t *testing.T) {
	h, gameRepo := newGameHandler()
	gameRepo.Create(context.Background(), "g", "host", 25, 4, 3600)
	gameRepo.Join(context.Background(), "game-1", "host", "Terrans", "red", 1)

	req := reqWithUserID(http.MethodGet, "/games/game-1/colors", "", "user-2")
	req.SetPathValue("id", "game-1")
	rec := httptest.NewRecorder()
	h.AvailableColors(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Available []string `json:"available"`
		All       []string `json:"all"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.All) != len(service.EmpireColors) {
		t.Errorf("expected full palette, got %d colors", len(resp.All))
	}
	if len(resp.Available) != len(service.EmpireColors)-1 {
		t.Errorf("expected one color taken, got %d available", len(resp.Available))
	}
	for _, c := range resp.Available {
		if c == "red" {
			t.Error("taken color should not be listed as available")
		}
	}
}

func TestStartGameNotHost(t *testing.T) {
	h, gameRepo := newGameHandler()
	gameRepo.Create(context.Background(), "g", "host", 25, 4, 3600)
	gameRepo.Join(context.Background(), "game-1", "host", "Terrans", "red", 1)
	gameRepo.Join(context.Background(), "game-1", "user-2", "Rivals", "blue", 2)

	req := reqWithUserID(http.MethodPost, "/games/game-1/start", "", "user-2")
	req.SetPathValue("id", "game-1")
	rec := httptest.NewRecorder()
	h.StartGame(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

// --- Turn log endpoint ---

func TestTurnLogs(t *testing.T) {
	turnRepo := newMockTurnRepo()
	turnRepo.logs = []model.CombatLog{
		{GameID: "game-1", Turn: 3, Type: "battle", X: 4, Y: 5, Message: "battle at Vesta"},
		{GameID: "game-1", Turn: 4, Type: "income", Message: "collected 12 credits"},
	}
	h := NewStateHandler(service.NewOrderService(newMockGameRepo(), turnRepo, newMockCache()), turnRepo)

	req := reqWithUserID(http.MethodGet, "/games/game-1/turns/3/logs", "", "user-1")
	req.SetPathValue("id", "game-1")
	req.SetPathValue("n", "3")
	rec := httptest.NewRecorder()
	h.TurnLogs(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var logs []model.CombatLog
	json.Unmarshal(rec.Body.Bytes(), &logs)
	if len(logs) != 1 || logs[0].Type != "battle" {
		t.Errorf("expected the one battle log for turn 3, got %+v", logs)
	}
}

func TestTurnLogsBadNumber(t *testing.T) {
	turnRepo := newMockTurnRepo()
	h := NewStateHandler(service.NewOrderService(newMockGameRepo(), turnRepo, newMockCache()), turnRepo)

	req := reqWithUserID(http.MethodGet, "/games/game-1/turns/zero/logs", "", "user-1")
	req.SetPathValue("id", "game-1")
	req.SetPathValue("n", "zero")
	rec := httptest.NewRecorder()
	h.TurnLogs(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// --- State endpoint ---

func TestGetStateNotInGame(t *testing.T) {
	gameRepo := newMockGameRepo()
	gameRepo.Create(context.Background(), "g", "host", 25, 2, 3600)
	gameRepo.Join(context.Background(), "game-1", "host", "Terrans", "red", 1)
	gameRepo.SetActive(context.Background(), "game-1")

	h := NewStateHandler(service.NewOrderService(gameRepo, newMockTurnRepo(), newMockCache()), newMockTurnRepo())

	req := reqWithUserID(http.MethodGet, "/games/game-1/state", "", "stranger")
	req.SetPathValue("id", "game-1")
	rec := httptest.NewRecorder()
	h.GetState(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

// --- Auth handler tests ---

func TestRefreshTokenValid(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	h := NewAuthHandler(nil, jwtMgr, newMockUserRepo())

	refresh, _ := jwtMgr.GenerateRefreshToken("user-1")
	body := fmt.Sprintf(`{"refresh_token":"%s"}`, refresh)
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var tokens auth.TokenPair
	json.Unmarshal(rec.Body.Bytes(), &tokens)
	if tokens.AccessToken == "" {
		t.Error("expected non-empty access token")
	}
}

func TestRefreshTokenInvalid(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	h := NewAuthHandler(nil, jwtMgr, newMockUserRepo())

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"invalid"}`))
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
