package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/tile2048/game/engine"
	"github.com/wricardo/tile2048/game/service"
)

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nCreated: %s\nLast accessed: %s\n\n%s",
		session.ID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.LastAccessedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatSessionList(count int, sessions []service.SessionInfo) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Active Sessions (%d):\n\n", count))
	for _, s := range sessions {
		score, maxTile, over := 0, 0, ""
		if s.GameState != nil {
			score, maxTile = s.GameState.Score, s.GameState.MaxTile
			if s.GameState.GameOver {
				over = " [game over]"
			}
		}
		b.WriteString(fmt.Sprintf("- %s (Score: %d, Max tile: %d, Created: %s)%s\n",
			s.ID, score, maxTile, s.CreatedAt.Format("15:04:05"), over))
	}
	return b.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	// Header (include cumulative total moves)
	result.WriteString(fmt.Sprintf("Score: %d | Max tile: %d | Empty: %d | Moves: %d | Games: %d\n\n",
		state.Score, engine.MaxTile(state.Tiles), engine.CountEmpty(state.Tiles),
		state.TotalMoves, state.GamesPlayed))

	// Grid
	rows := state.Rows
	if len(rows) != engine.GridSize {
		rows = engine.FormatRows(state.Tiles)
	}
	for _, row := range rows {
		result.WriteString(row)
		result.WriteString("\n")
	}

	possible := state.PossibleMoves
	if len(possible) == 0 && !state.GameOver {
		possible = engine.PossibleMoves(state.Tiles)
	}
	if len(possible) > 0 {
		result.WriteString("\nPossible moves: ")
		result.WriteString(joinDirections(possible))
		result.WriteString("\n")
	}

	// Status
	if state.GameOver {
		result.WriteString("\n💀 GAME OVER")
	} else if engine.MaxTile(state.Tiles) >= 2048 {
		result.WriteString("\n🎉 2048 reached!")
	}

	if state.Message != "" {
		result.WriteString(fmt.Sprintf("\nMessage: %s", state.Message))
	}

	return result.String()
}

func formatMoveResult(result *service.MoveResult) string {
	response := ""
	if result.Success {
		response = "✓ Move accepted\n"
	} else {
		response = "✗ Nothing moved\n"
	}

	if result.Step != nil {
		response += formatStepLine(*result.Step)
	}

	if len(result.Events) > 0 {
		response += "Events:\n"
		for _, event := range result.Events {
			response += fmt.Sprintf("- %s: %s\n", event.Type, event.Message)
		}
	}

	response += "\n" + formatGameState(result.GameState)
	return response
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Session: %s\n", sessionID))
	b.WriteString(fmt.Sprintf("Executed %d/%d moves (accepted %d, rejected %d)\n",
		result.MovesExecuted, result.RequestedMoves, result.AcceptedMoves, result.RejectedMoves))
	if result.Truncated {
		b.WriteString(fmt.Sprintf("Truncated to the first %d moves\n", result.Limit))
	}
	if result.StoppedReason != "" {
		b.WriteString(fmt.Sprintf("Stopped: %s\n", result.StoppedReason))
	}
	b.WriteString(fmt.Sprintf("Score: %d → %d (+%d)\n", result.StartScore, result.EndScore, result.ScoreDelta))

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps (this call):\n")
		for _, s := range result.Steps {
			b.WriteString(fmt.Sprintf("%d. ", s.Idx))
			b.WriteString(formatStepLine(s))
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

// formatStepLine renders a single compact step line
func formatStepLine(s service.StepInfo) string {
	status := "✗"
	if s.Moved {
		status = "✓"
	}
	line := fmt.Sprintf("%s %s score=%d→%d merges=%d", s.Dir, status, s.ScoreBefore, s.ScoreAfter, s.Merges)
	if s.Spawned != nil {
		line += fmt.Sprintf(" spawn=%d@(%d,%d)", s.Spawned.Value, engine.Row(s.Spawned.Index), engine.Col(s.Spawned.Index))
	}
	if s.GameOver {
		line += " GAME OVER"
	}
	return line + "\n"
}

func formatHistory(history *service.HistoryResponse) string {
	result := fmt.Sprintf("Move History (Page %d/%d), Total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		result += formatHistoryEntry(move.MoveNumber, move)
	}

	return result
}

func formatCurrentSegment(state *engine.GameState) string {
	if state == nil {
		return "Current Game: unavailable"
	}
	header := fmt.Sprintf("Current Game, Moves: %d\n\n", state.CurrentMovesCount)
	if len(state.CurrentMoves) == 0 {
		return header + "(no moves in current game)"
	}
	var b strings.Builder
	b.WriteString(header)
	for i, move := range state.CurrentMoves {
		b.WriteString(formatHistoryEntry(i+1, move))
	}
	return b.String()
}

func formatHistoryEntry(num int, move engine.MoveHistoryEntry) string {
	if move.Action == "restart" {
		return fmt.Sprintf("%d. restart\n", num)
	}
	status := "✓"
	if !move.Moved {
		status = "✗"
	}
	return fmt.Sprintf("%d. %s %s [+%d, Score: %d]\n", num, move.Action, status, move.ScoreDelta, move.Score)
}

// describeCell reports a cell's value and what it could merge with
func describeCell(state *engine.GameState, row, col int) string {
	idx := engine.Index(row, col)
	value := state.Tiles[idx]

	var b strings.Builder
	if value == 0 {
		b.WriteString(fmt.Sprintf("Cell (%d,%d): empty\n", row, col))
	} else {
		b.WriteString(fmt.Sprintf("Cell (%d,%d): %d\n", row, col, value))
	}

	b.WriteString("Neighbours:\n")
	var mergeable []string
	for _, dir := range engine.Directions {
		n, ok := engine.NextIndex(idx, dir)
		if !ok {
			b.WriteString(fmt.Sprintf("- %s: edge\n", dir))
			continue
		}
		nv := state.Tiles[n]
		if nv == 0 {
			b.WriteString(fmt.Sprintf("- %s: empty (%d,%d)\n", dir, engine.Row(n), engine.Col(n)))
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: %d (%d,%d)\n", dir, nv, engine.Row(n), engine.Col(n)))
		if value != 0 && nv == value {
			mergeable = append(mergeable, string(dir))
		}
	}

	if len(mergeable) > 0 {
		b.WriteString(fmt.Sprintf("Can merge with: %s\n", strings.Join(mergeable, ",")))
	} else if value != 0 {
		b.WriteString("No equal neighbour\n")
	}
	return b.String()
}

func joinDirections(dirs []engine.Direction) string {
	parts := make([]string, len(dirs))
	for i, d := range dirs {
		parts[i] = string(d)
	}
	return strings.Join(parts, ",")
}
