package engine

import "strings"

// Direction is one of the four logical move commands
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"

	// Grid geometry
	GridSize  = 4
	GridCells = GridSize * GridSize

	// Spawn rules
	SpawnLow         = 2
	SpawnHigh        = 4
	SpawnLowWeight   = 0.9
	InitialTileCount = 2

	// Validation constants
	MaxBulkMoves        = 50
	WebSocketBufferSize = 256
)

// Directions lists every direction in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// ParseDirection converts raw input into a Direction. Anything other than
// the four direction names reports false.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Up:
		return Up, true
	case Down:
		return Down, true
	case Left:
		return Left, true
	case Right:
		return Right, true
	}
	return "", false
}

// Grid holds the 16 cells in row-major order. Zero is an empty cell.
type Grid [GridCells]int

// Row returns the row of an index
func Row(idx int) int { return idx / GridSize }

// Col returns the column of an index
func Col(idx int) int { return idx % GridSize }

// Index returns the index for a row/column pair
func Index(row, col int) int { return row*GridSize + col }

// SpawnResult describes a tile placed by the spawner
type SpawnResult struct {
	Index int `json:"index"`
	Value int `json:"value"`
}

// GameState represents the complete game state
type GameState struct {
	Tiles      Grid   `json:"tiles"`
	Score      int    `json:"score"`
	GameOver   bool   `json:"game_over"`
	MaxTile    int    `json:"max_tile"`
	EmptyCells int    `json:"empty_cells"`
	Message    string `json:"message"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the moves since the last restart. MoveHistory
	// stays cumulative across restarts.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`
	GamesPlayed       int                `json:"games_played"`

	// Computed helper views
	Rows          []string    `json:"rows,omitempty"`
	PossibleMoves []Direction `json:"possible_moves,omitempty"`
}

// MoveHistoryEntry represents a single input in the game history
type MoveHistoryEntry struct {
	Action     string       `json:"action"`
	Moved      bool         `json:"moved"`
	ScoreDelta int          `json:"score_delta"`
	Score      int          `json:"score"`
	Merges     []int        `json:"merges,omitempty"`
	Spawned    *SpawnResult `json:"spawned,omitempty"`
	GameOver   bool         `json:"game_over"`
	Timestamp  int64        `json:"timestamp"`
	MoveNumber int          `json:"move_number"`
}

// Renderer is the presentation collaborator notified of state changes.
// RenderBoard receives the full snapshot after every accepted move and on
// restart. RenderGameOver receives the terminal flag after every move.
type Renderer interface {
	RenderBoard(tiles Grid, score int)
	RenderGameOver(over bool)
}
