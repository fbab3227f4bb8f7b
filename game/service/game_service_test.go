package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/wricardo/tile2048/game/engine"
	"github.com/wricardo/tile2048/game/service"
	"github.com/wricardo/tile2048/observability"

	dto "github.com/prometheus/client_model/go"
)

var errMockNotFound = errors.New("session not found")

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	seed     int64
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	m.seed++
	session := &service.Session{
		ID:             id,
		Engine:         engine.NewEngine(engine.NewSeededSpawner(m.seed)),
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, errMockNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errMockNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return errMockNotFound
}

func (m *MockSessionManager) Count() int {
	return len(m.sessions)
}

// setGrid puts a known board into a session
func setGrid(t *testing.T, m *MockSessionManager, id string, rows [engine.GridSize][engine.GridSize]int) {
	t.Helper()
	sess, err := m.Get(id)
	if err != nil {
		t.Fatalf("Session %s missing: %v", id, err)
	}
	if err := sess.Engine.SetState(&engine.GameState{Tiles: engine.GridFromRows(rows)}); err != nil {
		t.Fatalf("Failed to set grid: %v", err)
	}
}

var finishedRows = [engine.GridSize][engine.GridSize]int{
	{2, 4, 2, 4},
	{4, 2, 4, 2},
	{2, 4, 2, 4},
	{4, 2, 4, 2},
}

func newTestService(t *testing.T) (service.GameService, *MockSessionManager, string) {
	t.Helper()
	mgr := NewMockSessionManager()
	svc := service.NewGameService(mgr)
	info, err := svc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return svc, mgr, info.ID
}

func TestGameService_CreateSession(t *testing.T) {
	svc := service.NewGameService(NewMockSessionManager())
	ctx := context.Background()

	t.Run("generated ID", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "")
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if info.ID == "" {
			t.Error("Expected session ID")
		}
		if info.GameState == nil {
			t.Fatal("Expected game state")
		}
		if engine.GridCells-info.GameState.EmptyCells != engine.InitialTileCount {
			t.Errorf("Expected %d starting tiles, got %d", engine.InitialTileCount, engine.GridCells-info.GameState.EmptyCells)
		}
	})

	t.Run("custom ID", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "mine")
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if info.ID != "mine" {
			t.Errorf("Expected ID 'mine', got %q", info.ID)
		}
	})

	t.Run("duplicate ID", func(t *testing.T) {
		if _, err := svc.CreateSession(ctx, "mine"); err == nil {
			t.Error("Expected error for duplicate ID")
		}
	})
}

func TestGameService_Move(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted move", func(t *testing.T) {
		svc, mgr, id := newTestService(t)
		setGrid(t, mgr, id, [engine.GridSize][engine.GridSize]int{{2, 2, 0, 0}})

		result, err := svc.Move(ctx, id, "left", false)
		if err != nil {
			t.Fatalf("Move failed: %v", err)
		}
		if !result.Success {
			t.Error("Expected move to be accepted")
		}
		if result.GameState.Score != 4 || result.GameState.Tiles[0] != 4 {
			t.Errorf("Expected merged 4 and score 4, got tiles[0]=%d score=%d", result.GameState.Tiles[0], result.GameState.Score)
		}
		if result.Step == nil || result.Step.Merges != 1 || result.Step.Spawned == nil {
			t.Errorf("Unexpected step %+v", result.Step)
		}

		types := map[string]int{}
		for _, ev := range result.Events {
			types[ev.Type]++
		}
		if types[service.EventMove] != 1 || types[service.EventMerge] != 1 || types[service.EventSpawn] != 1 {
			t.Errorf("Unexpected events %v", types)
		}
	})

	t.Run("rejected move", func(t *testing.T) {
		svc, mgr, id := newTestService(t)
		setGrid(t, mgr, id, [engine.GridSize][engine.GridSize]int{{2, 4, 0, 0}})

		result, err := svc.Move(ctx, id, "left", false)
		if err != nil {
			t.Fatalf("Move failed: %v", err)
		}
		if result.Success {
			t.Error("Expected move to be rejected")
		}
		if result.Step.Spawned != nil {
			t.Error("Expected no spawn for a rejected move")
		}
	})

	t.Run("invalid direction", func(t *testing.T) {
		svc, _, id := newTestService(t)
		_, err := svc.Move(ctx, id, "sideways", false)
		if !errors.Is(err, service.ErrInvalidDirection) {
			t.Errorf("Expected ErrInvalidDirection, got %v", err)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Move(ctx, "nope", "up", false)
		if !errors.Is(err, errMockNotFound) {
			t.Errorf("Expected wrapped not found error, got %v", err)
		}
	})

	t.Run("restart then move", func(t *testing.T) {
		svc, mgr, id := newTestService(t)
		setGrid(t, mgr, id, finishedRows)

		result, err := svc.Move(ctx, id, "up", true)
		if err != nil {
			t.Fatalf("Move failed: %v", err)
		}
		if result.Events[0].Type != service.EventRestart {
			t.Errorf("Expected restart event first, got %s", result.Events[0].Type)
		}
		if result.GameState.GameOver {
			t.Error("Expected a fresh game after restart")
		}
	})

	t.Run("restart only", func(t *testing.T) {
		svc, mgr, id := newTestService(t)
		setGrid(t, mgr, id, finishedRows)

		result, err := svc.Move(ctx, id, "", true)
		if err != nil {
			t.Fatalf("Move failed: %v", err)
		}
		if !result.Success || result.Step != nil {
			t.Errorf("Expected restart-only result, got %+v", result)
		}
		if result.GameState.Score != 0 || result.GameState.GameOver {
			t.Error("Expected a fresh game")
		}
	})

	t.Run("game over event", func(t *testing.T) {
		svc, mgr, id := newTestService(t)
		setGrid(t, mgr, id, finishedRows)

		result, err := svc.Move(ctx, id, "down", false)
		if err != nil {
			t.Fatalf("Move failed: %v", err)
		}
		last := result.Events[len(result.Events)-1]
		if last.Type != service.EventGameOver {
			t.Errorf("Expected game_over event, got %s", last.Type)
		}
	})
}

func mergesTotal(t *testing.T) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := observability.MergesTotal.Write(m); err != nil {
		t.Fatalf("writing counter metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestGameService_MoveCountsMerges(t *testing.T) {
	svc, mgr, id := newTestService(t)
	setGrid(t, mgr, id, [engine.GridSize][engine.GridSize]int{{2, 2, 4, 4}})

	before := mergesTotal(t)
	result, err := svc.Move(context.Background(), id, "left", false)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if result.Step.Merges != 2 {
		t.Fatalf("Expected 2 merges, got %d", result.Step.Merges)
	}
	if d := mergesTotal(t) - before; d != 2 {
		t.Errorf("Expected merge counter to grow by 2, got %f", d)
	}
}

func TestGameService_BulkMove(t *testing.T) {
	ctx := context.Background()

	t.Run("executes every move", func(t *testing.T) {
		svc, mgr, id := newTestService(t)
		setGrid(t, mgr, id, [engine.GridSize][engine.GridSize]int{{2, 2, 0, 0}})

		result, err := svc.BulkMove(ctx, id, []string{"left", "left", "up"}, false)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if result.MovesExecuted != 3 || len(result.Steps) != 3 {
			t.Errorf("Expected 3 executed moves, got %d", result.MovesExecuted)
		}
		if result.AcceptedMoves+result.RejectedMoves != 3 {
			t.Errorf("Expected accepted+rejected=3, got %d+%d", result.AcceptedMoves, result.RejectedMoves)
		}
		if !result.Success || result.StopReasonCode != "" {
			t.Errorf("Expected clean run, got code %q", result.StopReasonCode)
		}
		if result.ScoreDelta < 4 || result.EndScore != result.StartScore+result.ScoreDelta {
			t.Errorf("Unexpected score summary %d -> %d (%d)", result.StartScore, result.EndScore, result.ScoreDelta)
		}
	})

	t.Run("stops on invalid direction", func(t *testing.T) {
		svc, _, id := newTestService(t)

		result, err := svc.BulkMove(ctx, id, []string{"up", "jump", "down"}, false)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if result.Success {
			t.Error("Expected failure")
		}
		if result.StopReasonCode != service.StopInvalidDirection || result.StoppedOnMove != 2 {
			t.Errorf("Expected invalid_direction at move 2, got %q at %d", result.StopReasonCode, result.StoppedOnMove)
		}
		if result.MovesExecuted != 1 {
			t.Errorf("Expected 1 executed move, got %d", result.MovesExecuted)
		}
	})

	t.Run("stops on game over", func(t *testing.T) {
		svc, mgr, id := newTestService(t)
		setGrid(t, mgr, id, finishedRows)

		result, err := svc.BulkMove(ctx, id, []string{"up", "down"}, false)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if result.StopReasonCode != service.StopGameOver || result.StoppedOnMove != 1 {
			t.Errorf("Expected game_over at move 1, got %q at %d", result.StopReasonCode, result.StoppedOnMove)
		}
		if result.MovesExecuted != 0 || !result.GameOver {
			t.Errorf("Expected no executed moves on a finished game, got %d", result.MovesExecuted)
		}
	})

	t.Run("truncates long input", func(t *testing.T) {
		svc, _, id := newTestService(t)

		moves := make([]string, engine.MaxBulkMoves+10)
		for i := range moves {
			moves[i] = string(engine.Directions[i%len(engine.Directions)])
		}

		result, err := svc.BulkMove(ctx, id, moves, false)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if !result.Truncated || result.Limit != engine.MaxBulkMoves {
			t.Errorf("Expected truncation at %d", engine.MaxBulkMoves)
		}
		if result.RequestedMoves != engine.MaxBulkMoves+10 {
			t.Errorf("Expected requested moves %d, got %d", engine.MaxBulkMoves+10, result.RequestedMoves)
		}
		if result.MovesExecuted > engine.MaxBulkMoves {
			t.Errorf("Executed %d moves, limit is %d", result.MovesExecuted, engine.MaxBulkMoves)
		}
	})

	t.Run("restart first", func(t *testing.T) {
		svc, mgr, id := newTestService(t)
		setGrid(t, mgr, id, finishedRows)

		result, err := svc.BulkMove(ctx, id, []string{"left"}, true)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if result.StartScore != 0 || result.MovesExecuted != 1 {
			t.Errorf("Expected fresh game with one move, got start=%d executed=%d", result.StartScore, result.MovesExecuted)
		}
	})
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	svc, mgr, id := newTestService(t)
	setGrid(t, mgr, id, [engine.GridSize][engine.GridSize]int{{2, 0, 0, 0}})

	// A lone tile always has a legal move, so none of these end the game
	for _, dir := range []string{"right", "left", "down", "up", "right"} {
		if _, err := svc.Move(ctx, id, dir, false); err != nil {
			t.Fatalf("Move failed: %v", err)
		}
	}

	t.Run("defaults", func(t *testing.T) {
		history, err := svc.GetMoveHistory(ctx, id, service.HistoryOptions{})
		if err != nil {
			t.Fatalf("GetMoveHistory failed: %v", err)
		}
		if history.TotalMoves != 5 || len(history.Moves) != 5 {
			t.Fatalf("Expected 5 moves, got %d/%d", len(history.Moves), history.TotalMoves)
		}
		if history.PageSize != 20 || history.Page != 1 {
			t.Errorf("Expected page 1 size 20, got %d/%d", history.Page, history.PageSize)
		}
		if history.Moves[0].MoveNumber != 5 {
			t.Errorf("Expected newest first, got move %d", history.Moves[0].MoveNumber)
		}
	})

	t.Run("ascending pages", func(t *testing.T) {
		history, err := svc.GetMoveHistory(ctx, id, service.HistoryOptions{Page: 2, Limit: 2, Order: "asc"})
		if err != nil {
			t.Fatalf("GetMoveHistory failed: %v", err)
		}
		if len(history.Moves) != 2 || history.Moves[0].MoveNumber != 3 {
			t.Errorf("Expected moves 3-4, got %+v", history.Moves)
		}
		if history.TotalPages != 3 || !history.HasNext || !history.HasPrevious {
			t.Errorf("Unexpected pagination %+v", history)
		}
	})

	t.Run("descending last page", func(t *testing.T) {
		history, err := svc.GetMoveHistory(ctx, id, service.HistoryOptions{Page: 3, Limit: 2})
		if err != nil {
			t.Fatalf("GetMoveHistory failed: %v", err)
		}
		if len(history.Moves) != 1 || history.Moves[0].MoveNumber != 1 {
			t.Errorf("Expected only move 1, got %+v", history.Moves)
		}
		if history.HasNext {
			t.Error("Expected no next page")
		}
	})

	t.Run("page past the end", func(t *testing.T) {
		history, err := svc.GetMoveHistory(ctx, id, service.HistoryOptions{Page: 9, Limit: 2})
		if err != nil {
			t.Fatalf("GetMoveHistory failed: %v", err)
		}
		if history.Moves == nil || len(history.Moves) != 0 {
			t.Errorf("Expected empty non-nil page, got %v", history.Moves)
		}
	})

	t.Run("limit clamp", func(t *testing.T) {
		history, err := svc.GetMoveHistory(ctx, id, service.HistoryOptions{Limit: 1000})
		if err != nil {
			t.Fatalf("GetMoveHistory failed: %v", err)
		}
		if history.PageSize != 100 {
			t.Errorf("Expected limit clamped to 100, got %d", history.PageSize)
		}
	})
}

func TestGameService_ListSessions(t *testing.T) {
	ctx := context.Background()
	mgr := NewMockSessionManager()
	svc := service.NewGameService(mgr)

	for _, id := range []string{"a", "b", "c"} {
		if _, err := svc.CreateSession(ctx, id); err != nil {
			t.Fatalf("Failed to create %s: %v", id, err)
		}
	}
	base := time.Now()
	mgr.sessions["a"].CreatedAt = base.Add(-3 * time.Minute)
	mgr.sessions["b"].CreatedAt = base.Add(-2 * time.Minute)
	mgr.sessions["c"].CreatedAt = base.Add(-1 * time.Minute)

	tests := []struct {
		name  string
		opts  service.ListOptions
		order []string
	}{
		{"newest first by default", service.ListOptions{}, []string{"c", "b", "a"}},
		{"oldest first", service.ListOptions{Order: "asc"}, []string{"a", "b", "c"}},
		{"limited", service.ListOptions{Limit: 2}, []string{"c", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions, err := svc.ListSessions(ctx, tt.opts)
			if err != nil {
				t.Fatalf("ListSessions failed: %v", err)
			}
			if len(sessions) != len(tt.order) {
				t.Fatalf("Expected %d sessions, got %d", len(tt.order), len(sessions))
			}
			for i, id := range tt.order {
				if sessions[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, sessions[i].ID)
				}
			}
		})
	}
}

func TestGameService_DeleteSession(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	if err := svc.DeleteSession(ctx, id); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := svc.GetSession(ctx, id); err == nil {
		t.Error("Expected session to be gone")
	}
	if err := svc.DeleteSession(ctx, id); err == nil {
		t.Error("Expected error deleting twice")
	}
}

func TestGameService_Restart(t *testing.T) {
	ctx := context.Background()
	svc, mgr, id := newTestService(t)
	setGrid(t, mgr, id, finishedRows)

	state, err := svc.Restart(ctx, id)
	if err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if state.GameOver || state.Score != 0 {
		t.Error("Expected a fresh game")
	}
	if engine.GridCells-state.EmptyCells != engine.InitialTileCount {
		t.Errorf("Expected %d tiles after restart", engine.InitialTileCount)
	}

	current, err := svc.GetGameState(ctx, id)
	if err != nil {
		t.Fatalf("GetGameState failed: %v", err)
	}
	if current.Tiles != state.Tiles {
		t.Error("Expected state to match restart result")
	}
}

func TestGameService_StateIsSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, mgr, id := newTestService(t)
	setGrid(t, mgr, id, [engine.GridSize][engine.GridSize]int{{2, 2, 0, 0}})

	before, _ := svc.GetGameState(ctx, id)
	if _, err := svc.Move(ctx, id, "left", false); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if before.Score != 0 || len(before.MoveHistory) != 0 {
		t.Error("Expected earlier state to stay unchanged")
	}
}
