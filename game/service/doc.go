// Package service wires the lobby together and exposes it to transports.
//
// Coordinator is the event handler for the websocket hub. It decodes
// client frames, diverts heartbeat answers to the liveness monitor and hands
// everything else to the session registry:
//
//	frame -> protocol.Decode -> beat?  -> liveness.Monitor.Ack
//	                         -> other  -> lobby.Manager.Receive
//
// Coordinator is not safe for concurrent use. Every call, including timer
// callbacks, must happen on the hub's event loop.
//
// LobbyService is the read side used by the REST API and the MCP tools. It
// runs each query on the event loop through a Runner, so callers on other
// goroutines see a consistent snapshot.
//
// Usage:
//
//	hub := websocket.NewHub()
//	coord := service.NewCoordinator(hub, settings, logger)
//	lobbySvc := service.NewLobbyService(coord, hub)
//	go hub.Run(ctx, coord)
//
//	games, err := lobbySvc.ListGames(ctx)
package service
