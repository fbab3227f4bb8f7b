// Package api provides HTTP REST API handlers for the 2048 server.
//
// The api package implements:
//   - Session management endpoints
//   - Move, bulk move and restart endpoints
//   - Paginated move history
//   - WebSocket upgrade handling and viewer commands
//   - Health, metrics and static file serving
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session, body {"session_id": "abc1"} is optional
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/move - {"direction": "left", "restart": false}
//   - POST /api/sessions/{id}/bulk-move - {"moves": ["left", "up"], "restart": false}
//   - POST /api/sessions/{id}/restart - Start a new game (alias /reset)
//   - GET /api/sessions/{id}/history - ?page=1&limit=20&order=desc
//
// Other:
//   - GET /healthz
//   - GET /metrics (Prometheus, when enabled)
//   - GET /ws?session={id}
//
// Every response carries an X-Request-ID header.
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes:
//
//	{"error": "session abc1: session not found"}
//
// Unknown sessions map to 404, invalid directions and bodies to 400,
// duplicate IDs to 409 and a full session table to 429.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	server := api.NewServerWithOptions(gameService, hub, api.Options{StaticDir: "static"})
//	http.ListenAndServe(":8080", server)
package api

//
// Move responses
//
// Move (POST /api/sessions/{id}/move)
//   Response:
//     - success: true when tiles slid or merged
//     - step: { idx, dir, moved, score_before, score_after, merges, spawned{index,value}, game_over }
//     - events: move, merge, spawn, game_over, restart
//
// Bulk Move (POST /api/sessions/{id}/bulk-move)
//   Response:
//     - requested_moves, moves_executed, accepted_moves, rejected_moves
//     - stopped_reason, stop_reason_code (game_over|invalid_direction), stopped_on_move, truncated, limit
//     - start_score, end_score, score_delta, max_tile, possible_moves
