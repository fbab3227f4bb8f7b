package engine

import (
	"fmt"
	"strings"
)

// EmptyIndices returns the indices of all empty cells in ascending order
func EmptyIndices(grid Grid) []int {
	var empty []int
	for i, v := range grid {
		if v == 0 {
			empty = append(empty, i)
		}
	}
	return empty
}

// CountEmpty counts the empty cells of a grid
func CountEmpty(grid Grid) int {
	count := 0
	for _, v := range grid {
		if v == 0 {
			count++
		}
	}
	return count
}

// MaxTile returns the largest tile value, or 0 for an empty grid
func MaxTile(grid Grid) int {
	maxValue := 0
	for _, v := range grid {
		if v > maxValue {
			maxValue = v
		}
	}
	return maxValue
}

// SumTiles adds up every tile on the grid
func SumTiles(grid Grid) int {
	sum := 0
	for _, v := range grid {
		sum += v
	}
	return sum
}

// IsPowerOfTwo reports whether v is a tile value (2, 4, 8, ...)
func IsPowerOfTwo(v int) bool {
	return v >= 2 && v&(v-1) == 0
}

// ValidateGrid checks that every non-empty cell holds a power of two
func ValidateGrid(grid Grid) error {
	for i, v := range grid {
		if v != 0 && !IsPowerOfTwo(v) {
			return fmt.Errorf("cell %d (row %d, col %d) holds %d, want empty or a power of two >= 2",
				i, Row(i), Col(i), v)
		}
	}
	return nil
}

// GridFromRows builds a grid from four rows of four values
func GridFromRows(rows [GridSize][GridSize]int) Grid {
	var grid Grid
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			grid[Index(r, c)] = rows[r][c]
		}
	}
	return grid
}

// FormatRows renders each row as fixed-width columns, "." for empty cells
func FormatRows(grid Grid) []string {
	width := len(fmt.Sprint(MaxTile(grid)))
	if width < 1 {
		width = 1
	}

	rows := make([]string, 0, GridSize)
	for r := 0; r < GridSize; r++ {
		cells := make([]string, 0, GridSize)
		for c := 0; c < GridSize; c++ {
			v := grid[Index(r, c)]
			cell := "."
			if v != 0 {
				cell = fmt.Sprint(v)
			}
			cells = append(cells, fmt.Sprintf("%*s", width, cell))
		}
		rows = append(rows, strings.Join(cells, " "))
	}
	return rows
}
