// Package websocket provides the WebSocket transport for the Nim lobby.
//
// The package implements:
//   - The single event loop that owns all lobby state
//   - Per-connection read and write pumps
//   - Timer delivery onto the event loop (clock.Scheduler)
//   - Synchronous queries from other goroutines (Hub.Do)
//
// Architecture:
//
// The Hub is a hub-and-spoke model. Each client has a reader goroutine
// that forwards frames to the hub and a writer goroutine that drains the
// client's send buffer. The hub goroutine is the only one that calls the
// Handler, so the lobby needs no locking:
//
//	readPump --frame--> Hub.Run --Receive--> Handler
//	Handler --Send--> Client.send --> writePump
//
// Timers created with AfterFunc fire on their own goroutine and enqueue the
// callback onto the loop; after shutdown they are discarded.
//
// Message Protocol:
//
// Every frame is one JSON object with an "event" discriminator, in both
// directions. See package protocol.
//
// Usage:
//
//	hub := websocket.NewHub()
//	coord := service.NewCoordinator(hub, settings, logger)
//	go hub.Run(ctx, coord)
//
//	router.HandleFunc("/ws", hub.ServeWS)
package websocket
