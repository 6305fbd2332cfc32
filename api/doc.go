// Package api provides the HTTP surface of the Nim lobby server.
//
// The api package implements:
//   - WebSocket upgrade for game clients
//   - Read-only REST endpoints describing the lobby
//   - Health checks
//   - Static file serving for the lobby page
//
// Endpoints:
//
// Realtime:
//   - GET /ws - Upgrade to the lobby websocket protocol
//
// Lobby:
//   - GET /api/lobby - List games (?state=in-lobby|in-game|game-over, ?limit=N)
//   - GET /api/games/{id} - Get one game
//   - GET /api/players - List connections
//
// Server:
//   - GET /api/stats - Connection and game counters
//   - GET /api/rules - Pool ranges and AI target residues
//   - GET /healthz - Liveness check
//
// All gameplay happens over the websocket. The REST endpoints never change
// lobby state.
//
// Usage:
//
//	lobbySvc := service.NewLobbyService(coord, hub)
//	apiServer := api.NewServer(lobbySvc, http.HandlerFunc(hub.ServeWS), "./static")
//	http.ListenAndServe(":8080", apiServer)
//
// Error Handling:
//
// Errors are returned as JSON with an appropriate HTTP status code:
//
//	{"error": "game not found"}
package api
