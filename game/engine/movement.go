package engine

// TraversalOrder returns the visiting sequence for a move. Within each line
// along the movement axis the cell at the target edge comes first.
func TraversalOrder(dir Direction) []int {
	order := make([]int, 0, GridCells)
	for line := 0; line < GridSize; line++ {
		for step := 0; step < GridSize; step++ {
			switch dir {
			case Left:
				order = append(order, Index(line, step))
			case Right:
				order = append(order, Index(line, GridSize-1-step))
			case Up:
				order = append(order, Index(step, line))
			case Down:
				order = append(order, Index(GridSize-1-step, line))
			default:
				return nil
			}
		}
	}
	return order
}

// NextIndex returns the neighbour of idx toward the edge the direction points
// at, or false when idx already sits on that edge.
func NextIndex(idx int, dir Direction) (int, bool) {
	row, col := Row(idx), Col(idx)
	switch dir {
	case Up:
		if row > 0 {
			return idx - GridSize, true
		}
	case Down:
		if row < GridSize-1 {
			return idx + GridSize, true
		}
	case Left:
		if col > 0 {
			return idx - 1, true
		}
	case Right:
		if col < GridSize-1 {
			return idx + 1, true
		}
	}
	return 0, false
}

// Resolve slides and merges every tile of grid in the given direction.
// It returns the new grid, the score gained and whether anything changed.
func Resolve(grid Grid, dir Direction) (Grid, int, bool) {
	next, delta, moved, _ := ResolveDetailed(grid, dir)
	return next, delta, moved
}

// ResolveDetailed is Resolve that also reports the indices that received a
// merge, in the order the merges happened.
func ResolveDetailed(grid Grid, dir Direction) (Grid, int, bool, []int) {
	order := TraversalOrder(dir)
	if order == nil {
		return grid, 0, false, nil
	}

	// merge marks are scoped to this call
	var merged [GridCells]bool
	var merges []int
	delta := 0
	moved := false

	for _, idx := range order {
		if grid[idx] == 0 {
			continue
		}

		cur := idx
		for {
			to, ok := NextIndex(cur, dir)
			if !ok {
				break
			}

			if grid[to] == 0 {
				grid[to] = grid[cur]
				grid[cur] = 0
				cur = to
				moved = true
				continue
			}

			if grid[to] == grid[cur] && !merged[to] {
				grid[to] *= 2
				grid[cur] = 0
				merged[to] = true
				delta += grid[to]
				merges = append(merges, to)
				moved = true
			}
			break
		}
	}

	return grid, delta, moved, merges
}

// CanMove reports whether a move in dir would be accepted
func CanMove(grid Grid, dir Direction) bool {
	_, _, moved := Resolve(grid, dir)
	return moved
}

// PossibleMoves returns every direction that would change the grid
func PossibleMoves(grid Grid) []Direction {
	var possible []Direction
	for _, dir := range Directions {
		if CanMove(grid, dir) {
			possible = append(possible, dir)
		}
	}
	return possible
}
