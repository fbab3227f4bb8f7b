package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/tile2048/game/engine"
	"github.com/wricardo/tile2048/observability"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
	}
}

// CreateSession creates a new game session. An empty ID lets the session
// manager generate one.
func (s *gameServiceImpl) CreateSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Create(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	observability.SessionsActive.Set(float64(s.sessions.Count()))

	return sessionInfo(session), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	return sessionInfo(session), nil
}

// ListSessions returns active sessions, newest first unless told otherwise
func (s *gameServiceImpl) ListSessions(ctx context.Context, opts ListOptions) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()

	key := func(sess *Session) time.Time { return sess.CreatedAt }
	if strings.EqualFold(opts.SortBy, "accessed") {
		key = func(sess *Session) time.Time { return sess.LastAccessedAt }
	}
	asc := strings.EqualFold(opts.Order, "asc")
	sort.SliceStable(sessions, func(i, j int) bool {
		ki, kj := key(sessions[i]), key(sessions[j])
		if ki.Equal(kj) {
			return sessions[i].ID < sessions[j].ID
		}
		if asc {
			return ki.Before(kj)
		}
		return ki.After(kj)
	})

	if opts.Limit > 0 && len(sessions) > opts.Limit {
		sessions = sessions[:opts.Limit]
	}

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	observability.SessionsActive.Set(float64(s.sessions.Count()))
	return nil
}

// Move executes a single move for a session. With restart set the game is
// restarted first; an empty direction then only restarts.
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, restart bool) (*MoveResult, error) {
	dir, ok := engine.ParseDirection(direction)
	if !ok && !(restart && strings.TrimSpace(direction) == "") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	events := []GameEvent{}

	if restart {
		sess.Engine.Restart()
		events = append(events, restartEvent())
		if !ok {
			state := sess.Engine.Snapshot()
			return &MoveResult{
				Success:   true,
				GameState: state,
				Message:   state.Message,
				Events:    events,
			}, nil
		}
	}

	step := s.step(sess.Engine, dir, 1)
	events = append(events, moveEvents(sess.Engine)...)
	state := sess.Engine.Snapshot()

	return &MoveResult{
		Success:   step.Moved,
		GameState: state,
		Message:   state.Message,
		Events:    events,
		Step:      &step,
	}, nil
}

// BulkMove executes multiple moves in sequence. Rejected moves do not stop
// the sequence; reaching game over or an invalid direction does.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, restart bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if restart {
		sess.Engine.Restart()
		result.Events = append(result.Events, restartEvent())
	}
	result.StartScore = sess.Engine.GetScore()

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	for i, move := range moves {
		if sess.Engine.IsGameOver() {
			result.StoppedReason = fmt.Sprintf("game over before move %d", i+1)
			result.StopReasonCode = StopGameOver
			result.StoppedOnMove = i + 1
			break
		}

		dir, ok := engine.ParseDirection(move)
		if !ok {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d has invalid direction %q", i+1, move)
			result.StopReasonCode = StopInvalidDirection
			result.StoppedOnMove = i + 1
			break
		}

		step := s.step(sess.Engine, dir, i+1)
		result.MovesExecuted++
		if step.Moved {
			result.AcceptedMoves++
		} else {
			result.RejectedMoves++
		}
		result.Steps = append(result.Steps, step)
		result.Events = append(result.Events, moveEvents(sess.Engine)...)
	}

	endState := sess.Engine.Snapshot()
	result.GameState = endState
	result.EndScore = endState.Score
	result.ScoreDelta = endState.Score - result.StartScore
	result.GameOver = endState.GameOver
	result.Message = endState.Message
	result.MaxTile = endState.MaxTile
	result.PossibleMoves = endState.PossibleMoves

	// Game ended on the last executed move
	if result.GameOver && result.StopReasonCode == "" {
		result.StopReasonCode = StopGameOver
		result.StoppedReason = "game over"
		result.StoppedOnMove = result.MovesExecuted
	}

	return result, nil
}

// Restart starts a new game in the session
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Engine.Restart()
	return sess.Engine.Snapshot(), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	return sess.Engine.Snapshot(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// touch looks a session up and refreshes its access time. Caller holds the lock.
func (s *gameServiceImpl) touch(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// step runs one directional input and records its metrics
func (s *gameServiceImpl) step(eng *engine.GameEngine, dir engine.Direction, idx int) StepInfo {
	wasOver := eng.IsGameOver()
	before := eng.GetScore()
	moved := eng.Move(dir)

	observability.RecordMove(string(dir), moved)
	if eng.IsGameOver() && !wasOver {
		observability.RecordGameOver(engine.MaxTile(eng.GetTiles()))
	}

	step := StepInfo{
		Idx:         idx,
		Dir:         string(dir),
		Moved:       moved,
		ScoreBefore: before,
		ScoreAfter:  eng.GetScore(),
		GameOver:    eng.IsGameOver(),
	}
	if last := eng.GetLastMove(); last != nil {
		step.Merges = len(last.Merges)
		step.Spawned = last.Spawned
	}
	if moved {
		observability.RecordMerges(step.Merges)
	}
	return step
}

// moveEvents describes the last input recorded by the engine
func moveEvents(eng *engine.GameEngine) []GameEvent {
	last := eng.GetLastMove()
	if last == nil {
		return nil
	}

	now := time.Now()
	tiles := eng.GetTiles()
	state := eng.GetState()

	events := []GameEvent{{
		Type:      EventMove,
		Message:   state.Message,
		Timestamp: now,
	}}

	for _, idx := range last.Merges {
		events = append(events, GameEvent{
			Type:      EventMerge,
			Message:   fmt.Sprintf("Merged into %d at (%d,%d)", tiles[idx], engine.Row(idx), engine.Col(idx)),
			Timestamp: now,
			Tile:      newTileRef(idx, tiles[idx]),
		})
	}

	if last.Spawned != nil {
		events = append(events, GameEvent{
			Type:      EventSpawn,
			Message:   fmt.Sprintf("New %d at (%d,%d)", last.Spawned.Value, engine.Row(last.Spawned.Index), engine.Col(last.Spawned.Index)),
			Timestamp: now,
			Tile:      newTileRef(last.Spawned.Index, last.Spawned.Value),
		})
	}

	if last.GameOver {
		events = append(events, GameEvent{
			Type:      EventGameOver,
			Message:   state.Message,
			Timestamp: now,
		})
	}

	return events
}

func restartEvent() GameEvent {
	return GameEvent{
		Type:      EventRestart,
		Message:   "New game started",
		Timestamp: time.Now(),
	}
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.Snapshot(),
	}
}
