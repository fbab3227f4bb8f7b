package engine

// IsGameOver reports whether no further move is possible. Only the right and
// bottom neighbour of each cell are inspected; running over all 16 cells that
// covers every adjacent pair.
func IsGameOver(grid Grid) bool {
	for _, v := range grid {
		if v == 0 {
			return false
		}
	}

	for i := 0; i < GridCells; i++ {
		tile := grid[i]
		if Col(i) != GridSize-1 && grid[i+1] == tile {
			return false
		}
		if i+GridSize < GridCells && grid[i+GridSize] == tile {
			return false
		}
	}
	return true
}
