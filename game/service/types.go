package service

import (
	"time"

	"github.com/wricardo/tile2048/game/engine"
)

// Stop reason codes reported by BulkMove
const (
	StopGameOver         = "game_over"
	StopInvalidDirection = "invalid_direction"
)

// Event types carried by GameEvent
const (
	EventMove     = "move"
	EventMerge    = "merge"
	EventSpawn    = "spawn"
	EventGameOver = "game_over"
	EventRestart  = "restart"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success   bool              `json:"success"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
	Step      *StepInfo         `json:"step,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	AcceptedMoves  int               `json:"accepted_moves"`
	RejectedMoves  int               `json:"rejected_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // Machine-friendly code: game_over|invalid_direction
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartScore int `json:"start_score"`
	EndScore   int `json:"end_score"`
	ScoreDelta int `json:"score_delta"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Final status aids
	GameOver      bool               `json:"game_over"`
	Message       string             `json:"message,omitempty"`
	MaxTile       int                `json:"max_tile"`
	PossibleMoves []engine.Direction `json:"possible_moves,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx         int                 `json:"idx"`
	Dir         string              `json:"dir"`
	Moved       bool                `json:"moved"`
	ScoreBefore int                 `json:"score_before"`
	ScoreAfter  int                 `json:"score_after"`
	Merges      int                 `json:"merges"`
	Spawned     *engine.SpawnResult `json:"spawned,omitempty"`
	GameOver    bool                `json:"game_over,omitempty"`
}

// TileRef points at one cell and the value it holds
type TileRef struct {
	Index int `json:"index"`
	Row   int `json:"row"`
	Col   int `json:"col"`
	Value int `json:"value"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // "move", "merge", "spawn", "game_over", "restart"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Tile      *TileRef  `json:"tile,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ListOptions configures session listing
type ListOptions struct {
	SortBy string `json:"sort_by"` // "created" or "accessed"
	Order  string `json:"order"`   // "asc" or "desc"
	Limit  int    `json:"limit"`   // 0 means all
}

func newTileRef(idx, value int) *TileRef {
	return &TileRef{Index: idx, Row: engine.Row(idx), Col: engine.Col(idx), Value: value}
}
