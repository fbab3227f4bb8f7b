// Command autoplay plays 2048 against a running server through its REST API.
//
// It creates (or resumes) a session and plays games with a greedy strategy
// that looks one move ahead using the engine's pure resolver. Moves are sent
// one at a time or in planned batches through the bulk-move endpoint.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/tile2048/game/engine"
)

// Options controls a run.
type Options struct {
	Games    int           // games to play in the session
	MaxMoves int           // move cap per game
	Batch    int           // moves per bulk-move call, 1 sends single moves
	Delay    time.Duration // pause between calls
	Verbose  bool
}

// GameResult summarizes one finished (or capped) game.
type GameResult struct {
	Game     int
	Moves    int
	Score    int
	MaxTile  int
	GameOver bool
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "play 2048 sessions on a server with a greedy strategy",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL"},
			&cli.StringFlag{Name: "session", Usage: "resume (or create) this session ID"},
			&cli.IntFlag{Name: "games", Value: 1, Usage: "games to play"},
			&cli.IntFlag{Name: "max-moves", Value: 5000, Usage: "maximum moves per game"},
			&cli.IntFlag{Name: "batch", Value: 1, Usage: "moves per bulk-move request"},
			&cli.IntFlag{Name: "target", Usage: "exit non-zero unless a game reaches this tile"},
			&cli.DurationFlag{Name: "delay", Usage: "delay between requests"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log.Printf("Connecting to game server at %s", cmd.String("url"))
			client := NewClient(cmd.String("url"))

			state, err := openSession(ctx, client, cmd.String("session"))
			if err != nil {
				return err
			}

			opts := Options{
				Games:    int(cmd.Int("games")),
				MaxMoves: int(cmd.Int("max-moves")),
				Batch:    int(cmd.Int("batch")),
				Delay:    cmd.Duration("delay"),
				Verbose:  cmd.Bool("verbose"),
			}
			results, err := Run(ctx, client, NewGreedyStrategy(), state, opts)
			if err != nil {
				return err
			}

			best := bestResult(results)
			log.Printf("Session: %s, best score %d, best tile %d over %d games",
				client.SessionID(), best.Score, best.MaxTile, len(results))

			if target := int(cmd.Int("target")); target > 0 && best.MaxTile < target {
				return cli.Exit(fmt.Sprintf("❌ target tile %d not reached", target), 1)
			}
			return nil
		},
	}
}

// openSession resumes id when it exists and otherwise creates it.
func openSession(ctx context.Context, client *Client, id string) (*engine.GameState, error) {
	if id != "" {
		state, err := client.Resume(ctx, id)
		if err == nil {
			log.Printf("🔄 Resuming session: %s", id)
			return state, nil
		}
		log.Printf("⚠️  Failed to resume session %s: %v", id, err)
	}

	state, err := client.CreateSession(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Printf("✨ Session created: %s", client.SessionID())
	return state, nil
}

// Run plays opts.Games games starting from state. Every game after the first,
// and a first game that is already over, begins with a restart.
func Run(ctx context.Context, client *Client, strategy *GreedyStrategy, state *engine.GameState, opts Options) ([]GameResult, error) {
	if opts.Games < 1 {
		opts.Games = 1
	}
	if opts.Batch < 1 {
		opts.Batch = 1
	}

	var results []GameResult
	for game := 1; game <= opts.Games; game++ {
		if game > 1 || state == nil || state.GameOver {
			var err error
			state, err = client.Restart(ctx)
			if err != nil {
				return results, err
			}
		}

		log.Printf("=== 🎮 Game %d/%d ===", game, opts.Games)
		result, err := playGame(ctx, client, strategy, state, opts)
		if err != nil {
			return results, err
		}
		result.Game = game
		results = append(results, result)

		log.Printf("Game %d: Moves=%d, Score=%d, Max tile=%d, Game over=%v",
			game, result.Moves, result.Score, result.MaxTile, result.GameOver)
	}
	return results, nil
}

// playGame moves until the game ends, the strategy finds nothing or the move cap is hit.
func playGame(ctx context.Context, client *Client, strategy *GreedyStrategy, state *engine.GameState, opts Options) (GameResult, error) {
	moves := 0
	for !state.GameOver && moves < opts.MaxMoves {
		if err := ctx.Err(); err != nil {
			return GameResult{}, err
		}

		if opts.Verbose && moves%50 == 0 {
			log.Printf("Moves: %d, Score: %d, Max tile: %d, Empty: %d",
				moves, state.Score, engine.MaxTile(state.Tiles), engine.CountEmpty(state.Tiles))
		}

		if opts.Batch > 1 {
			plan := strategy.NextMoves(state.Tiles, min(opts.Batch, opts.MaxMoves-moves))
			if len(plan) == 0 {
				break
			}
			result, err := client.BulkMove(ctx, plan)
			if err != nil {
				return GameResult{}, err
			}
			moves += result.MovesExecuted
			state = result.GameState
		} else {
			dir, ok := strategy.NextMove(state.Tiles)
			if !ok {
				break
			}
			result, err := client.Move(ctx, dir)
			if err != nil {
				return GameResult{}, err
			}
			moves++
			state = result.GameState
		}

		if opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}
	}

	return GameResult{
		Moves:    moves,
		Score:    state.Score,
		MaxTile:  engine.MaxTile(state.Tiles),
		GameOver: state.GameOver,
	}, nil
}

func bestResult(results []GameResult) GameResult {
	var best GameResult
	for _, r := range results {
		if r.MaxTile > best.MaxTile || (r.MaxTile == best.MaxTile && r.Score > best.Score) {
			best = r
		}
	}
	return best
}
