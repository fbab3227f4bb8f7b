package main

import (
	"github.com/wricardo/tile2048/game/engine"
)

// GreedyStrategy picks the move whose resolved grid scores best. It looks
// one move ahead with engine.Resolve and ignores the spawn that follows.
type GreedyStrategy struct {
	EmptyWeight     float64 // per empty cell
	MonotonicWeight float64 // per ordered neighbour pair
	CornerWeight    float64 // times the max tile when it sits top-left
}

func NewGreedyStrategy() *GreedyStrategy {
	return &GreedyStrategy{
		EmptyWeight:     10,
		MonotonicWeight: 2,
		CornerWeight:    1,
	}
}

// Evaluate scores the grid that dir would produce. ok is false when dir
// would not change the grid.
func (s *GreedyStrategy) Evaluate(grid engine.Grid, dir engine.Direction) (score float64, next engine.Grid, ok bool) {
	next, delta, moved := engine.Resolve(grid, dir)
	if !moved {
		return 0, grid, false
	}

	score = float64(delta)
	score += s.EmptyWeight * float64(engine.CountEmpty(next))
	score += s.MonotonicWeight * float64(monotonicPairs(next))
	if maxTile := engine.MaxTile(next); next[0] == maxTile {
		score += s.CornerWeight * float64(maxTile)
	}
	return score, next, true
}

// NextMove returns the best accepted move. Ties go to the earlier entry of
// engine.Directions. ok is false when no move changes the grid.
func (s *GreedyStrategy) NextMove(grid engine.Grid) (engine.Direction, bool) {
	dir, _, ok := s.best(grid)
	return dir, ok
}

// NextMoves plans up to maxMoves moves, assuming no tile spawns in between.
func (s *GreedyStrategy) NextMoves(grid engine.Grid, maxMoves int) []engine.Direction {
	var moves []engine.Direction
	for len(moves) < maxMoves {
		dir, next, ok := s.best(grid)
		if !ok {
			break
		}
		moves = append(moves, dir)
		grid = next
	}
	return moves
}

func (s *GreedyStrategy) best(grid engine.Grid) (engine.Direction, engine.Grid, bool) {
	var (
		bestDir   engine.Direction
		bestGrid  engine.Grid
		bestScore float64
		found     bool
	)
	for _, dir := range engine.Directions {
		score, next, ok := s.Evaluate(grid, dir)
		if !ok {
			continue
		}
		if !found || score > bestScore {
			bestDir, bestGrid, bestScore, found = dir, next, score, true
		}
	}
	return bestDir, bestGrid, found
}

// monotonicPairs counts neighbour pairs that do not increase rightwards or
// downwards.
func monotonicPairs(grid engine.Grid) int {
	count := 0
	for r := 0; r < engine.GridSize; r++ {
		for c := 0; c < engine.GridSize; c++ {
			v := grid[engine.Index(r, c)]
			if c+1 < engine.GridSize && v >= grid[engine.Index(r, c+1)] {
				count++
			}
			if r+1 < engine.GridSize && v >= grid[engine.Index(r+1, c)] {
				count++
			}
		}
	}
	return count
}
