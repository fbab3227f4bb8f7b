package terminal

import (
	"strings"

	"github.com/wricardo/tile2048/game/engine"
)

// Action is what a piece of keyboard input asks for
type Action int

const (
	ActionUnknown Action = iota
	ActionMove
	ActionRestart
	ActionQuit
)

// Input is one decoded command
type Input struct {
	Action    Action
	Direction engine.Direction
	Raw       string
}

// Hint lists the accepted keys
const Hint = "Use w/a/s/d, the arrow keys or up/down/left/right. r restarts, q quits.\n"

var words = map[string]Input{
	"up":      {Action: ActionMove, Direction: engine.Up},
	"down":    {Action: ActionMove, Direction: engine.Down},
	"left":    {Action: ActionMove, Direction: engine.Left},
	"right":   {Action: ActionMove, Direction: engine.Right},
	"restart": {Action: ActionRestart},
	"reset":   {Action: ActionRestart},
	"quit":    {Action: ActionQuit},
	"exit":    {Action: ActionQuit},
}

var keys = map[byte]Input{
	'w': {Action: ActionMove, Direction: engine.Up},
	's': {Action: ActionMove, Direction: engine.Down},
	'a': {Action: ActionMove, Direction: engine.Left},
	'd': {Action: ActionMove, Direction: engine.Right},
	'r': {Action: ActionRestart},
	'q': {Action: ActionQuit},
}

// ANSI cursor keys
var arrows = map[byte]engine.Direction{
	'A': engine.Up,
	'B': engine.Down,
	'C': engine.Right,
	'D': engine.Left,
}

// ParseLine decodes one line of input. A whole-word command yields one
// input; otherwise every key and arrow sequence on the line is decoded in
// order. Keys that mean nothing come back as ActionUnknown.
func ParseLine(line string) []Input {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	if in, ok := words[strings.ToLower(trimmed)]; ok {
		in.Raw = trimmed
		return []Input{in}
	}

	var inputs []Input
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]

		// ESC [ X and ESC O X
		if c == 0x1b && i+2 < len(trimmed) && (trimmed[i+1] == '[' || trimmed[i+1] == 'O') {
			if dir, ok := arrows[trimmed[i+2]]; ok {
				inputs = append(inputs, Input{Action: ActionMove, Direction: dir, Raw: trimmed[i : i+3]})
				i += 2
				continue
			}
		}

		if c == ' ' || c == '\t' {
			continue
		}
		if in, ok := keys[lower(c)]; ok {
			in.Raw = string(c)
			inputs = append(inputs, in)
			continue
		}
		inputs = append(inputs, Input{Action: ActionUnknown, Raw: string(c)})
	}
	return inputs
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
