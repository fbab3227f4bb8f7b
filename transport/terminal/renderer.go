package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/wricardo/tile2048/game/engine"
)

// cellWidth fits the largest reachable tile (131072) plus padding
const cellWidth = 8

// TextRenderer draws the board as a boxed text grid
type TextRenderer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextRenderer creates a renderer writing to w
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

// RenderBoard writes the grid and score
func (r *TextRenderer) RenderBoard(tiles engine.Grid, score int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	io.WriteString(r.w, FormatBoard(tiles, score))
}

// RenderGameOver announces a finished game. A false flag writes nothing.
func (r *TextRenderer) RenderGameOver(over bool) {
	if !over {
		return
	}
	r.Printf("GAME OVER. Press r to play again or q to quit.\n")
}

// Printf writes a status line between boards
func (r *TextRenderer) Printf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, args...)
}

// FormatBoard renders tiles inside a box followed by the score
func FormatBoard(tiles engine.Grid, score int) string {
	border := "+" + strings.Repeat(strings.Repeat("-", cellWidth)+"+", engine.GridSize) + "\n"

	var b strings.Builder
	b.WriteString(border)
	for row := 0; row < engine.GridSize; row++ {
		b.WriteString("|")
		for col := 0; col < engine.GridSize; col++ {
			label := ""
			if v := tiles[engine.Index(row, col)]; v != 0 {
				label = fmt.Sprint(v)
			}
			b.WriteString(fmt.Sprintf("%*s |", cellWidth-1, label))
		}
		b.WriteString("\n")
		b.WriteString(border)
	}
	b.WriteString(fmt.Sprintf("Score: %d\n", score))
	return b.String()
}
