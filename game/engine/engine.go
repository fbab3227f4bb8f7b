package engine

import (
	"fmt"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Snapshot() *GameState
	SetState(state *GameState) error
	Restart() *GameState
	IsGameOver() bool
	GetScore() int
	GetTiles() Grid

	// Movement operations
	Move(direction Direction) bool
	MoveString(direction string) bool
	CanMove(direction Direction) bool
	GetPossibleMoves() []Direction

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	// Presentation
	AddRenderer(r Renderer)
}

// GameEngine is the game controller. It owns one grid and score and drives
// the resolve, spawn and terminal-check steps for every input.
type GameEngine struct {
	state     *GameState
	spawner   *Spawner
	renderers []Renderer
}

// NewEngine creates a controller with a freshly started game. Renderers given
// here see the initial board.
func NewEngine(spawner *Spawner, renderers ...Renderer) *GameEngine {
	if spawner == nil {
		spawner = NewSpawner(nil)
	}

	e := &GameEngine{
		spawner:   spawner,
		renderers: renderers,
		state: &GameState{
			MoveHistory:  []MoveHistoryEntry{},
			CurrentMoves: []MoveHistoryEntry{},
		},
	}
	e.startGame()
	e.notifyBoard()
	e.notifyGameOver(false)
	return e
}

// NewEngineWithDefaults creates a controller with a clock-seeded spawner
func NewEngineWithDefaults() *GameEngine {
	return NewEngine(nil)
}

// AddRenderer registers another presentation collaborator
func (e *GameEngine) AddRenderer(r Renderer) {
	if r != nil {
		e.renderers = append(e.renderers, r)
	}
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	e.refreshViews()
	return e.state
}

// Snapshot returns a copy of the current state that later moves do not touch
func (e *GameEngine) Snapshot() *GameState {
	state := *e.GetState()
	state.MoveHistory = append([]MoveHistoryEntry(nil), e.state.MoveHistory...)
	state.CurrentMoves = append([]MoveHistoryEntry(nil), e.state.CurrentMoves...)
	state.Rows = append([]string(nil), e.state.Rows...)
	state.PossibleMoves = append([]Direction(nil), e.state.PossibleMoves...)
	if state.MoveHistory == nil {
		state.MoveHistory = []MoveHistoryEntry{}
	}
	if state.CurrentMoves == nil {
		state.CurrentMoves = []MoveHistoryEntry{}
	}
	return &state
}

// SetState replaces the game state
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if err := ValidateGrid(state.Tiles); err != nil {
		return fmt.Errorf("invalid state: %w", err)
	}
	if state.Score < 0 {
		return fmt.Errorf("invalid state: score cannot be negative, got %d", state.Score)
	}
	if state.MoveHistory == nil {
		state.MoveHistory = []MoveHistoryEntry{}
	}
	if state.CurrentMoves == nil {
		state.CurrentMoves = []MoveHistoryEntry{}
	}
	state.GameOver = IsGameOver(state.Tiles)
	e.state = state
	e.refreshViews()
	return nil
}

// Restart throws the current game away and starts a new one
func (e *GameEngine) Restart() *GameState {
	e.startGame()
	e.state.Message = "New game started"

	// Cumulative history survives, only the current segment is cleared
	e.state.CurrentMoves = []MoveHistoryEntry{}
	e.state.CurrentMovesCount = 0
	e.addHistory(MoveHistoryEntry{Action: "restart"})

	e.notifyBoard()
	e.notifyGameOver(false)
	return e.GetState()
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.state.GameOver
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.state.Score
}

// GetTiles returns a copy of the grid
func (e *GameEngine) GetTiles() Grid {
	return e.state.Tiles
}

// Move applies one directional input. It returns true when the move was
// accepted, i.e. at least one tile slid or merged.
func (e *GameEngine) Move(direction Direction) bool {
	if TraversalOrder(direction) == nil {
		return false
	}

	next, delta, moved, merges := ResolveDetailed(e.state.Tiles, direction)
	entry := MoveHistoryEntry{
		Action: string(direction),
		Moved:  moved,
	}

	if moved {
		e.state.Tiles = next
		e.state.Score += delta

		grid, spawned, ok := e.spawner.Spawn(e.state.Tiles)
		e.state.Tiles = grid
		if ok {
			entry.Spawned = &spawned
		}

		entry.ScoreDelta = delta
		entry.Merges = merges
		e.state.Message = moveMessage(direction, delta, len(merges))
		e.notifyBoard()
	} else {
		e.state.Message = fmt.Sprintf("Nothing moves %s", direction)
	}

	e.state.GameOver = IsGameOver(e.state.Tiles)
	if e.state.GameOver {
		e.state.Message = fmt.Sprintf("Game over! Final score: %d", e.state.Score)
	}
	entry.GameOver = e.state.GameOver
	e.addHistory(entry)

	e.notifyGameOver(e.state.GameOver)
	return moved
}

// MoveString parses raw input and moves. Unknown input is ignored.
func (e *GameEngine) MoveString(direction string) bool {
	dir, ok := ParseDirection(direction)
	if !ok {
		return false
	}
	return e.Move(dir)
}

// CanMove checks if a move in the given direction would be accepted
func (e *GameEngine) CanMove(direction Direction) bool {
	return CanMove(e.state.Tiles, direction)
}

// GetPossibleMoves returns all directions that would change the grid
func (e *GameEngine) GetPossibleMoves() []Direction {
	return PossibleMoves(e.state.Tiles)
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last recorded input, or nil if there is none
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// BulkMove executes multiple moves in sequence, returning the accepted flag
// for each executed input. It stops once the game is over.
func (e *GameEngine) BulkMove(moves []Direction) []bool {
	results := make([]bool, 0, len(moves))

	for _, direction := range moves {
		if e.IsGameOver() {
			break
		}
		results = append(results, e.Move(direction))
	}

	return results
}

// startGame clears grid and score and places the opening tiles
func (e *GameEngine) startGame() {
	e.state.Tiles = Grid{}
	e.state.Score = 0
	for i := 0; i < InitialTileCount; i++ {
		e.state.Tiles, _, _ = e.spawner.Spawn(e.state.Tiles)
	}
	e.state.GameOver = false
	e.state.GamesPlayed++
	e.state.Message = "Welcome! Use the arrow keys to slide the tiles."
}

func (e *GameEngine) addHistory(entry MoveHistoryEntry) {
	entry.Score = e.state.Score
	entry.Timestamp = time.Now().Unix()
	entry.MoveNumber = e.state.TotalMoves + 1

	e.state.MoveHistory = append(e.state.MoveHistory, entry)
	e.state.TotalMoves++

	e.state.CurrentMoves = append(e.state.CurrentMoves, entry)
	e.state.CurrentMovesCount++
}

func (e *GameEngine) refreshViews() {
	e.state.MaxTile = MaxTile(e.state.Tiles)
	e.state.EmptyCells = CountEmpty(e.state.Tiles)
	e.state.Rows = FormatRows(e.state.Tiles)
	e.state.PossibleMoves = PossibleMoves(e.state.Tiles)
}

func (e *GameEngine) notifyBoard() {
	for _, r := range e.renderers {
		r.RenderBoard(e.state.Tiles, e.state.Score)
	}
}

func (e *GameEngine) notifyGameOver(over bool) {
	for _, r := range e.renderers {
		r.RenderGameOver(over)
	}
}

func moveMessage(direction Direction, delta, merges int) string {
	switch merges {
	case 0:
		return fmt.Sprintf("Moved %s", direction)
	case 1:
		return fmt.Sprintf("Moved %s: 1 merge, +%d", direction, delta)
	default:
		return fmt.Sprintf("Moved %s: %d merges, +%d", direction, merges, delta)
	}
}
