// Package mcp provides a Model Context Protocol server for operators of the
// Nim lobby.
//
// The mcp package implements:
//   - MCP tool definitions over the read-only REST API
//   - Plain-text formatting of lobby snapshots for agents
//   - Stdio and HTTP transport modes
//
// MCP Tools:
//   - list_games: Lobby snapshot, optionally filtered by state
//   - get_game: One game with pool, turn and opponent
//   - list_players: Connected clients
//   - server_stats: Counters and uptime
//   - game_rules: Rules text with the configured pool ranges
//
// The client never talks to the lobby directly. Every tool is an HTTP call
// to a running server, so the MCP process can live elsewhere.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// Stdio mode
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode
//	response := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
