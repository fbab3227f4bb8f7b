package terminal

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/wricardo/tile2048/game/engine"
)

// Play runs an interactive game on eng, reading commands from r and drawing
// to w. It returns nil on quit or end of input.
func Play(ctx context.Context, r io.Reader, w io.Writer, eng *engine.GameEngine) error {
	renderer := NewTextRenderer(w)
	eng.AddRenderer(renderer)

	state := eng.GetState()
	renderer.RenderBoard(state.Tiles, state.Score)
	renderer.Printf("%s", Hint)

	lines := readLines(ctx, r)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := apply(eng, renderer, ParseLine(line)); quit {
				renderer.Printf("Final score: %d\n", eng.GetScore())
				return nil
			}
		}
	}
}

// apply runs the inputs of one line and reports whether the player quit
func apply(eng *engine.GameEngine, renderer *TextRenderer, inputs []Input) bool {
	var unknown []string
	for _, in := range inputs {
		switch in.Action {
		case ActionQuit:
			return true
		case ActionRestart:
			eng.Restart()
		case ActionMove:
			if !eng.Move(in.Direction) && !eng.IsGameOver() {
				renderer.Printf("%s\n", eng.GetState().Message)
			}
		default:
			unknown = append(unknown, in.Raw)
		}
	}
	if len(unknown) > 0 {
		renderer.Printf("Unknown input %q. %s", strings.Join(unknown, ""), Hint)
	}
	return false
}

// readLines delivers r line by line until EOF or ctx ends
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
