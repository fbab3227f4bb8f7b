package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestValidateSnapshot(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantValid bool
		wantError string
	}{
		{
			name: "valid game in progress",
			content: `{"tiles":[2,2,0,0, 0,0,0,0, 0,0,4,0, 0,0,0,0],
				"score":4,"game_over":false,"max_tile":4,"empty_cells":13,
				"possible_moves":["up","down","left","right"],"total_moves":2,"games_played":1}`,
			wantValid: true,
		},
		{
			name: "valid finished game",
			content: `{"tiles":[2,4,2,4, 4,2,4,2, 2,4,2,4, 4,2,4,2],
				"score":128,"game_over":true,"max_tile":4}`,
			wantValid: true,
		},
		{
			name:      "invalid JSON",
			content:   `{"tiles": [2,2, invalid}`,
			wantError: "Invalid JSON",
		},
		{
			name:      "short grid",
			content:   `{"tiles":[2,2,0,0]}`,
			wantError: "exactly 16 cells, got 4",
		},
		{
			name:      "long grid",
			content:   `{"tiles":[0,0,0,0, 0,0,0,0, 0,0,0,0, 0,0,0,0, 2]}`,
			wantError: "exactly 16 cells, got 17",
		},
		{
			name:      "not a power of two",
			content:   `{"tiles":[3,0,0,0, 0,0,0,0, 0,0,0,0, 0,0,0,0]}`,
			wantError: "Invalid tile",
		},
		{
			name:      "odd score",
			content:   `{"tiles":[2,0,0,0, 0,0,0,0, 0,0,0,0, 0,0,0,0],"score":3}`,
			wantError: "score must be even",
		},
		{
			name:      "negative score",
			content:   `{"tiles":[2,0,0,0, 0,0,0,0, 0,0,0,0, 0,0,0,0],"score":-4}`,
			wantError: "non-negative",
		},
		{
			name:      "wrong max tile",
			content:   `{"tiles":[2,0,0,0, 0,0,0,0, 0,0,0,0, 0,0,0,0],"max_tile":8}`,
			wantError: "max_tile is 8",
		},
		{
			name:      "wrong empty cells",
			content:   `{"tiles":[2,0,0,0, 0,0,0,0, 0,0,0,0, 0,0,0,0],"empty_cells":3}`,
			wantError: "empty_cells is 3",
		},
		{
			name:      "game over with moves left",
			content:   `{"tiles":[2,2,0,0, 0,0,0,0, 0,0,0,0, 0,0,0,0],"game_over":true}`,
			wantError: "game_over is true",
		},
		{
			name:      "stuck grid not marked over",
			content:   `{"tiles":[2,4,2,4, 4,2,4,2, 2,4,2,4, 4,2,4,2],"game_over":false}`,
			wantError: "game_over is false",
		},
		{
			name:      "wrong possible moves",
			content:   `{"tiles":[2,0,0,0, 0,0,0,0, 0,0,0,0, 0,0,0,0],"possible_moves":["up"]}`,
			wantError: "possible_moves",
		},
		{
			name: "history counts disagree",
			content: `{"tiles":[2,0,0,0, 0,0,0,0, 0,0,0,0, 0,0,0,0],"total_moves":0,
				"current_moves":[{"action":"left","moved":false}]}`,
			wantError: "total_moves (0)",
		},
	}

	dir := t.TempDir()
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "state_"+string(rune('a'+i))+".json", tt.content)

			result := validateSnapshot(path)
			if result.Valid != tt.wantValid {
				t.Fatalf("Expected valid=%v, got %v: %v", tt.wantValid, result.Valid, result.Errors)
			}
			if result.File != filepath.Base(path) {
				t.Errorf("Expected file name %s, got %s", filepath.Base(path), result.File)
			}
			if tt.wantError == "" {
				return
			}
			found := false
			for _, e := range result.Errors {
				if strings.Contains(e, tt.wantError) {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected an error containing %q, got %v", tt.wantError, result.Errors)
			}
		})
	}
}

func TestValidateSnapshot_InfoLines(t *testing.T) {
	path := writeFile(t, t.TempDir(), "state.json",
		`{"tiles":[2,2,0,0, 0,0,0,0, 0,0,0,0, 0,0,0,0],"score":0,"total_moves":1,"games_played":1}`)

	result := validateSnapshot(path)
	if !result.Valid {
		t.Fatalf("Expected valid snapshot, got %v", result.Errors)
	}
	joined := strings.Join(result.Errors, "\n")
	for _, want := range []string{"✓ Max tile: 2", "✓ Empty cells: 14", "✓ Possible moves"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected %q in %s", want, joined)
		}
	}
}

func TestValidateSnapshot_MissingFile(t *testing.T) {
	result := validateSnapshot("/non/existent/state.json")
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "Failed to read file") {
		t.Errorf("Expected read error, got %v", result.Errors)
	}
}

func TestValidateServerConfig(t *testing.T) {
	t.Setenv("TILE2048_PORT", "")
	t.Setenv("TILE2048_HOST", "")
	dir := t.TempDir()

	valid := writeFile(t, dir, "good.yaml", "server:\n  port: 9000\n")
	result := validateFile(valid)
	if !result.Valid {
		t.Fatalf("Expected valid config, got %v", result.Errors)
	}
	if !strings.Contains(strings.Join(result.Errors, "\n"), "localhost:9000") {
		t.Errorf("Expected listen address in %v", result.Errors)
	}

	invalid := writeFile(t, dir, "bad.yml", "server:\n  port: 0\n")
	result = validateFile(invalid)
	if result.Valid {
		t.Error("Expected port 0 to be rejected")
	}
	if !strings.Contains(strings.Join(result.Errors, "\n"), "server.port") {
		t.Errorf("Expected a server.port error, got %v", result.Errors)
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", "{}")
	writeFile(t, dir, "b.yaml", "")
	writeFile(t, dir, "notes.txt", "")
	single := writeFile(t, t.TempDir(), "single.json", "{}")

	files, err := collectFiles([]string{dir, single})
	if err != nil {
		t.Fatalf("collectFiles failed: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("Expected 3 files, got %v", files)
	}

	if _, err := collectFiles([]string{"/non/existent"}); err == nil {
		t.Error("Expected error for a missing path")
	}
}
