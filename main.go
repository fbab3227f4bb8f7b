// Command tile2048 starts the 2048 game server.
//
// It supports three commands:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, metrics and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play" – plays in the terminal, locally or against a running server
//
// Settings come from tile2048.yaml, the environment and .env; flags override
// them. Ngrok tunneling is available for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/tile2048/config"
	"github.com/wricardo/tile2048/game/engine"
	"github.com/wricardo/tile2048/game/service"
	"github.com/wricardo/tile2048/game/session"
	"github.com/wricardo/tile2048/transport/mcp"
)

const (
	Version = "1.0.0"
	AppName = "tile2048 Server"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Only log if the file exists but couldn't be loaded
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree. Root flags are inherited by every command.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "tile2048",
		Usage:   "2048 sliding-tile game server with REST, WebSocket and MCP access",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file (default ./tile2048.yaml)",
			},
			&cli.StringFlag{Name: "host", Usage: "server host"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "server port"},
			&cli.StringFlag{Name: "static-dir", Usage: "directory served at / (empty disables)"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
			&cli.IntFlag{Name: "seed", Usage: "seed tile spawns for reproducible games (0 uses the clock)"},
			&cli.IntFlag{Name: "max-sessions", Usage: "maximum live sessions (0 is unlimited)"},
			&cli.BoolFlag{Name: "no-metrics", Usage: "disable the Prometheus endpoint"},
			&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel"},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "ngrok custom domain"},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "run the HTTP server (REST API, WebSocket, /mcp, /metrics)",
				Action:  serveAction,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "run an MCP server over stdio",
				Action:  mcpAction,
			},
			{
				Name:  "play",
				Usage: "play in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "remote", Usage: "server URL to play against, e.g. http://localhost:8080"},
					&cli.StringFlag{Name: "session", Usage: "session ID on the remote server (created when missing)"},
				},
				Action: playAction,
			},
		},
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log.Printf("Starting %s v%s (mode: serve)", AppName, Version)
	return runHTTPServer(ctx, cfg, buildServices(cfg))
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log.Printf("Starting %s v%s (mode: mcp)", AppName, Version)
	return runStdioMCPWithInternalServer(ctx, cfg)
}

func playAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if remote := cmd.String("remote"); remote != "" {
		return runRemotePlay(ctx, remote, cmd.String("session"))
	}
	return runLocalPlay(ctx, cfg.Game.Seed)
}

// loadConfig loads the layered configuration and applies explicitly set flags on top.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("host") {
		cfg.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Server.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("static-dir") {
		cfg.Server.StaticDir = cmd.String("static-dir")
	}
	if cmd.IsSet("seed") {
		cfg.Game.Seed = int64(cmd.Int("seed"))
	}
	if cmd.IsSet("max-sessions") {
		cfg.Sessions.MaxSessions = int(cmd.Int("max-sessions"))
	}
	if cmd.Bool("no-metrics") {
		cfg.Metrics.Enabled = false
	}
	if cmd.Bool("ngrok") {
		cfg.Ngrok.Enabled = true
	}
	if cmd.IsSet("ngrok-auth") {
		cfg.Ngrok.AuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.Ngrok.Domain = cmd.String("ngrok-domain")
	}
	if cmd.Bool("debug") {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	// Setup logging
	if cfg.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
	return cfg, nil
}

// services bundles the session manager and the game service built on it.
type services struct {
	sessions *session.Manager
	game     service.GameService
}

// buildServices wires the session manager and the game service.
func buildServices(cfg *config.Config) *services {
	manager := session.NewManagerWithOptions(session.Options{
		MaxSessions: cfg.Sessions.MaxSessions,
		NewSpawner:  newSpawnerFactory(cfg.Game.Seed),
	})
	return &services{
		sessions: manager,
		game:     service.NewGameService(manager),
	}
}

// newSpawnerFactory returns nil for a zero seed so sessions use the clock.
// Otherwise session n is seeded with seed+n, keeping runs reproducible while
// sessions differ from each other.
func newSpawnerFactory(seed int64) session.SpawnerFactory {
	if seed == 0 {
		return nil
	}
	var n atomic.Int64
	return func() *engine.Spawner {
		return engine.NewSeededSpawner(seed + n.Add(1) - 1)
	}
}

// mcpHandler answers JSON-RPC MCP messages posted to /mcp.
func mcpHandler(client *mcp.Client) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
}
