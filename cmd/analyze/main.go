// Command analyze prints quick, human-readable heuristics about saved 2048
// game states (JSON from GET /api/sessions/{id}/state). It summarizes the
// cumulative move history: attempts and accepted moves per direction, merges,
// the share of 4 spawns, the best single move, and the score of each game
// played in the session.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wricardo/tile2048/game/engine"
)

// DirectionStats counts the moves made in one direction.
type DirectionStats struct {
	Attempts    int
	Accepted    int
	ScoreGained int
	Merges      int
}

// GameSummary describes one game within a session's history.
type GameSummary struct {
	Moves    int
	Score    int
	GameOver bool
}

// Analysis is the digest of a move history.
type Analysis struct {
	Moves         int
	Accepted      int
	Merges        int
	Spawns        int
	FourSpawns    int
	Restarts      int
	BestDelta     int
	BestDeltaMove int
	ByDirection   map[engine.Direction]*DirectionStats
	Games         []GameSummary
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: analyze <state.json>...")
		os.Exit(2)
	}

	for _, path := range os.Args[1:] {
		fmt.Printf("\n=== Analyzing %s ===\n", path)
		state, err := loadState(path)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, state, analyzeHistory(state.MoveHistory))
	}
}

func loadState(path string) (*engine.GameState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var state engine.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return &state, nil
}

// analyzeHistory walks a cumulative history. A restart entry closes the game
// before it; the last game is included even when still in progress.
func analyzeHistory(history []engine.MoveHistoryEntry) Analysis {
	a := Analysis{ByDirection: make(map[engine.Direction]*DirectionStats)}
	for _, dir := range engine.Directions {
		a.ByDirection[dir] = &DirectionStats{}
	}

	var game GameSummary
	for _, entry := range history {
		if entry.Action == "restart" {
			a.Restarts++
			a.Games = append(a.Games, game)
			game = GameSummary{}
			continue
		}

		dir, ok := engine.ParseDirection(entry.Action)
		if !ok {
			continue
		}
		stats := a.ByDirection[dir]
		stats.Attempts++
		a.Moves++
		game.Moves++
		game.Score = entry.Score
		game.GameOver = entry.GameOver

		if !entry.Moved {
			continue
		}
		stats.Accepted++
		stats.ScoreGained += entry.ScoreDelta
		stats.Merges += len(entry.Merges)
		a.Accepted++
		a.Merges += len(entry.Merges)

		if entry.Spawned != nil {
			a.Spawns++
			if entry.Spawned.Value == 4 {
				a.FourSpawns++
			}
		}
		if entry.ScoreDelta > a.BestDelta {
			a.BestDelta = entry.ScoreDelta
			a.BestDeltaMove = entry.MoveNumber
		}
	}
	a.Games = append(a.Games, game)
	return a
}

func printAnalysis(w io.Writer, state *engine.GameState, a Analysis) {
	fmt.Fprintf(w, "Score: %d, Max tile: %d, Games played: %d\n",
		state.Score, engine.MaxTile(state.Tiles), state.GamesPlayed)
	fmt.Fprintf(w, "Moves: %d attempted, %d accepted (%s)\n", a.Moves, a.Accepted, percent(a.Accepted, a.Moves))
	fmt.Fprintf(w, "Merges: %d\n", a.Merges)

	for _, dir := range engine.Directions {
		s := a.ByDirection[dir]
		fmt.Fprintf(w, "  %-5s attempts=%d accepted=%d score=+%d merges=%d\n",
			dir, s.Attempts, s.Accepted, s.ScoreGained, s.Merges)
	}

	if a.Spawns > 0 {
		fmt.Fprintf(w, "Spawns: %d, fours: %d (%s, expected about 10%%)\n", a.Spawns, a.FourSpawns, percent(a.FourSpawns, a.Spawns))
	}
	if a.BestDelta > 0 {
		fmt.Fprintf(w, "Best move: +%d at move %d\n", a.BestDelta, a.BestDeltaMove)
	}

	wasted := a.Moves - a.Accepted
	if a.Moves > 0 && wasted*4 > a.Moves {
		fmt.Fprintf(w, "⚠️  WARNING: %d of %d moves changed nothing\n", wasted, a.Moves)
	}

	for i, g := range a.Games {
		status := "in progress"
		if g.GameOver {
			status = "game over"
		}
		fmt.Fprintf(w, "Game %d: %d moves, score %d (%s)\n", i+1, g.Moves, g.Score, status)
	}
}

func percent(part, total int) string {
	if total == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(total))
}
