// Package engine provides the core game logic for 2048.
//
// The engine package implements the game mechanics including:
//   - Slide and merge resolution on the 4x4 grid
//   - Random tile spawning with a 90/10 split between 2 and 4
//   - Terminal-state detection
//   - Move history for the current game and across restarts
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. Grid is the 16-cell board in row-major order
// and GameState is the serializable snapshot handed to transports.
// Renderer is the presentation callback a controller notifies after
// every input.
//
// Usage:
//
//	gameEngine := engine.NewEngine(engine.NewSeededSpawner(42))
//
//	// Slide the tiles
//	accepted := gameEngine.Move(engine.Left)
//	state := gameEngine.GetState()
//
// Game Rules:
//
// Each move slides every tile as far as it goes toward one edge. Two equal
// tiles that meet merge into one tile of double value, adding that value to
// the score; a tile merges at most once per move. An accepted move spawns a
// new tile. The game is over when the grid is full and no two adjacent tiles
// are equal.
package engine
