// Package mcp provides the Model Context Protocol interface to the 2048 server.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions for game operations
//   - Text rendering of grids, moves and history for agents
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - create_session: Create new game session, optionally with a chosen ID
//   - list_sessions: List all active sessions
//   - get_session: Get specific session details
//   - game_state: Get current grid, score and possible moves
//   - move: Slide the tiles in one direction
//   - bulk_move: Execute multiple moves in sequence
//   - restart_game: Start a new game in a session
//   - move_history: Retrieve move history with pagination
//   - game_instructions: Rules and strategy notes
//   - describe_cell: Value and neighbours of one cell
//
// The client holds no game state; every tool is a call against the REST
// API. Tool calls are counted in tile2048_mcp_tool_calls_total.
//
// Transport Modes:
//
// The server supports two transport modes:
//   - Stdio: Direct stdio communication for local MCP clients
//   - HTTP: POST /mcp on the main HTTP server
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
