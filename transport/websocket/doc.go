// Package websocket provides WebSocket transport for the 2048 server.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - State broadcasting after every change
//   - Inbound move and restart commands
//   - Connection lifecycle management
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. The client map is owned by the Run goroutine;
// every other access goes through its channels. Each connection has a read
// pump and a write pump, the latter keeping the peer alive with pings.
//
// Message Protocol:
//
// Messages are JSON-encoded with the following structure:
//   - Incoming: {"type": "move", "direction": "up"} or {"type": "restart"}
//   - Outgoing: {"session_id": "...", "event": "state_update", "game_state": {...}}
//
// The event is "game_over" once the grid is stuck and "error" when a
// command fails. Malformed frames are ignored.
//
// Session Integration:
//
// Clients specify their session ID via query parameter (?session=abc1) when
// establishing the connection. State updates are broadcast only to clients
// connected to the same session.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	hub.SetCommandHandler(func(ctx context.Context, id string, cmd websocket.Command) error {
//		...
//	})
package websocket
