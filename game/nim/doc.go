// Package nim implements the rules of the marble subtraction game played in
// the lobby.
//
// Two players take turns removing marbles from a shared pool. A move removes
// at least one marble and at most half of the pool (rounded down), with a
// floor of one so that a single remaining marble can always be taken. The
// player who empties the pool loses.
//
// Core Types:
//
// Match is the per-game state machine. It starts in StateInLobby, moves to
// StateInGame exactly once through Start, and ends either in StateGameOver
// when the pool reaches zero or in StateTerminated when a player leaves early.
// Match performs no I/O; callers are responsible for notifying players.
//
// Rules holds the difficulty-dependent ranges the initial pool is drawn from.
//
// AI Opponent:
//
// ChooseMove implements the computer opponent. It tries to leave the pool at
// a value one less than a power of two (1, 3, 7, 15, 31, 63, ...), which puts
// the opponent in a losing position, and falls back to a random legal move
// when no such value is reachable.
//
// Usage:
//
//	m := nim.NewMatch(nim.Easy, false, nim.DefaultRules())
//	if err := m.Start(rng); err != nil {
//		log.Fatal(err)
//	}
//
//	res, err := m.Play(m.Turn(), 1)
//	if errors.Is(err, nim.ErrInvalidAmount) {
//		// report to the player
//	}
package nim
