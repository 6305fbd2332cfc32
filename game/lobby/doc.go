// Package lobby implements the session registry for the marble game server.
//
// The lobby package implements:
//   - The connection table (one entry per live client transport)
//   - The game table and the per-game messaging around nim.Match
//   - Two-tier message routing: lobby-level actions first, then the
//     in-game actions of the sender's current game
//   - Lobby projection pushes and broadcasts
//   - Ordered teardown on leave, disconnect and liveness failure
//   - The delayed AI opponent move
//
// Core Types:
//
// Manager owns both tables and is the only type that adds or removes
// entries. Game wraps a nim.Match with the two participant handles and sends
// game-scoped notifications through the Manager. Connections and games refer
// to each other only by ConnID and GameID, resolved through the Manager at use
// time, so removing one side never leaves a dangling pointer on the other.
//
// Concurrency:
//
// Manager is not safe for concurrent use. All calls, including the callbacks
// handed to the clock.Scheduler, must run on a single goroutine; the websocket
// hub's event loop provides that. Scheduled callbacks capture handles only and
// become no-ops when their target has been removed in the meantime.
//
// Usage:
//
//	m := lobby.NewManager(hub, lobby.WithAIDelay(time.Second))
//	id := m.Connect(conn)
//	m.Receive(protocol.LobbyJoin{Username: "Alice"}, id)
//	...
//	m.Disconnect(id)
package lobby
