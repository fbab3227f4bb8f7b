// Command validate checks 2048 files given on the command line (directories
// are scanned for *.json, *.yaml and *.yml). It understands two kinds:
//   - Game state snapshots (JSON, as returned by GET /api/sessions/{id}/state):
//     16 cells, power-of-two tiles, even score, and derived fields
//     (max_tile, empty_cells, game_over, possible_moves) that agree with the grid
//   - Server configuration files (YAML), loaded and validated like the server does
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/wricardo/tile2048/config"
	"github.com/wricardo/tile2048/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateFile dispatches on the file extension.
func validateFile(filePath string) ValidationResult {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return validateServerConfig(filePath)
	default:
		return validateSnapshot(filePath)
	}
}

// validateSnapshot loads a game state JSON file and checks it against the grid it carries.
func validateSnapshot(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	// Decode the tiles loosely first; a fixed-size array would silently
	// drop or zero-fill cells.
	var raw struct {
		Tiles []int `json:"tiles"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}
	if len(raw.Tiles) != engine.GridCells {
		result.fail("Grid must have exactly %d cells, got %d", engine.GridCells, len(raw.Tiles))
		return result
	}

	var state engine.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGrid(state.Tiles); err != nil {
		result.fail("Invalid tile: %v", err)
	}

	if state.Score < 0 {
		result.fail("score must be non-negative, got %d", state.Score)
	} else if state.Score%2 != 0 {
		result.fail("score must be even (a sum of merged tiles), got %d", state.Score)
	}

	if !result.Valid {
		return result
	}

	maxTile := engine.MaxTile(state.Tiles)
	empty := engine.CountEmpty(state.Tiles)
	over := engine.IsGameOver(state.Tiles)
	possible := engine.PossibleMoves(state.Tiles)

	if state.MaxTile != 0 && state.MaxTile != maxTile {
		result.fail("max_tile is %d but the grid's largest tile is %d", state.MaxTile, maxTile)
	}
	if state.EmptyCells != 0 && state.EmptyCells != empty {
		result.fail("empty_cells is %d but the grid has %d empty cells", state.EmptyCells, empty)
	}
	if state.GameOver != over {
		result.fail("game_over is %v but the grid says %v", state.GameOver, over)
	}
	if len(state.PossibleMoves) > 0 && !slices.Equal(state.PossibleMoves, possible) {
		result.fail("possible_moves is %v but the grid allows %v", state.PossibleMoves, possible)
	}
	if state.TotalMoves < len(state.CurrentMoves) {
		result.fail("total_moves (%d) cannot be less than the current game's %d moves", state.TotalMoves, len(state.CurrentMoves))
	}

	if result.Valid {
		result.info("Score: %d", state.Score)
		result.info("Max tile: %d", maxTile)
		result.info("Empty cells: %d", empty)
		if over {
			result.info("Game over")
		} else {
			result.info("Possible moves: %v", possible)
		}
		result.info("Moves: %d over %d games", state.TotalMoves, state.GamesPlayed)
	}

	return result
}

// validateServerConfig loads a YAML config the same way the server does,
// including environment overrides.
func validateServerConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	cfg, err := config.Load(filePath)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	result.info("Listen: %s", cfg.Addr())
	result.info("Sessions: ttl %s, max %d", cfg.Sessions.TTL, cfg.Sessions.MaxSessions)
	if cfg.Metrics.Enabled {
		result.info("Metrics: %s", cfg.Metrics.Path)
	}
	return result
}

// collectFiles expands directories into their JSON and YAML files.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(arg, pattern))
			if err != nil {
				return nil, err
			}
			files = append(files, matches...)
		}
	}
	return files, nil
}

// main validates each file named on the command line, printing a concise
// report and exiting with non-zero status if any are invalid.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate <snapshot.json|tile2048.yaml|dir>...")
		os.Exit(2)
	}

	files, err := collectFiles(os.Args[1:])
	if err != nil {
		fmt.Printf("Error finding files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateFile(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Printf("✅ All %d files are valid!\n", len(files))
	} else {
		fmt.Println("❌ Some files have errors")
		os.Exit(1)
	}
}
