package engine

import (
	"math/rand"
	"time"
)

// Spawner places new random tiles on empty cells
type Spawner struct {
	rng *rand.Rand
}

// NewSpawner creates a spawner drawing from rng. A nil rng is seeded from
// the clock.
func NewSpawner(rng *rand.Rand) *Spawner {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Spawner{rng: rng}
}

// NewSeededSpawner creates a deterministic spawner
func NewSeededSpawner(seed int64) *Spawner {
	return NewSpawner(rand.New(rand.NewSource(seed)))
}

// Spawn puts a 2 (90%) or a 4 (10%) on a uniformly chosen empty cell.
// A full grid is returned unchanged with false.
func (s *Spawner) Spawn(grid Grid) (Grid, SpawnResult, bool) {
	empty := EmptyIndices(grid)
	if len(empty) == 0 {
		return grid, SpawnResult{}, false
	}

	idx := empty[s.rng.Intn(len(empty))]
	value := SpawnHigh
	if s.rng.Float64() < SpawnLowWeight {
		value = SpawnLow
	}

	grid[idx] = value
	return grid, SpawnResult{Index: idx, Value: value}, true
}
