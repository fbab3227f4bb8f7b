package engine

import "testing"

func TestIsGameOver(t *testing.T) {
	tests := []struct {
		name     string
		rows     [GridSize][GridSize]int
		expected bool
	}{
		{
			name: "full alternating grid",
			rows: [GridSize][GridSize]int{
				{2, 4, 2, 4},
				{4, 2, 4, 2},
				{2, 4, 2, 4},
				{4, 2, 4, 2},
			},
			expected: true,
		},
		{
			name: "one empty cell",
			rows: [GridSize][GridSize]int{
				{2, 4, 2, 4},
				{4, 2, 4, 2},
				{2, 4, 0, 4},
				{4, 2, 4, 2},
			},
			expected: false,
		},
		{
			name: "horizontal pair in top row",
			rows: [GridSize][GridSize]int{
				{2, 2, 8, 4},
				{4, 8, 4, 2},
				{2, 4, 2, 4},
				{4, 2, 4, 2},
			},
			expected: false,
		},
		{
			name: "vertical pair in last column",
			rows: [GridSize][GridSize]int{
				{2, 4, 2, 4},
				{4, 2, 4, 2},
				{2, 4, 2, 8},
				{4, 2, 4, 8},
			},
			expected: false,
		},
		{
			name: "horizontal pair in bottom row",
			rows: [GridSize][GridSize]int{
				{2, 4, 2, 4},
				{4, 2, 4, 2},
				{2, 4, 2, 4},
				{8, 16, 32, 32},
			},
			expected: false,
		},
		{
			name: "equal values across a row wrap are not adjacent",
			rows: [GridSize][GridSize]int{
				{2, 4, 2, 8},
				{8, 2, 4, 2},
				{2, 4, 2, 4},
				{4, 2, 4, 2},
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := GridFromRows(tt.rows)
			if got := IsGameOver(grid); got != tt.expected {
				t.Errorf("Expected IsGameOver=%v, got %v", tt.expected, got)
			}
			if tt.expected && len(PossibleMoves(grid)) != 0 {
				t.Errorf("Expected no possible moves on a finished grid, got %v", PossibleMoves(grid))
			}
		})
	}
}
