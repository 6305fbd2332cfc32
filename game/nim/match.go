package nim

import "errors"

var (
	ErrNotInLobby     = errors.New("match is not waiting for players")
	ErrNotInGame      = errors.New("match is not in progress")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrAlreadyStopped = errors.New("match has already finished")
)

// Match is the state machine for a single game
type Match struct {
	difficulty Difficulty
	vsAI       bool
	rules      Rules

	state State
	pool  int
	turn  Slot
}

// NewMatch creates a match waiting in the lobby
func NewMatch(difficulty Difficulty, vsAI bool, rules Rules) *Match {
	return &Match{
		difficulty: difficulty,
		vsAI:       vsAI,
		rules:      rules,
		state:      StateInLobby,
		turn:       NoSlot,
	}
}

// Difficulty returns the match difficulty
func (m *Match) Difficulty() Difficulty { return m.difficulty }

// VsAI reports whether slot 1 is played by the computer
func (m *Match) VsAI() bool { return m.vsAI }

// State returns the current lifecycle state
func (m *Match) State() State { return m.state }

// Pool returns the remaining marbles. It is zero before the match starts.
func (m *Match) Pool() int { return m.pool }

// Turn returns the slot that must move next, or NoSlot
func (m *Match) Turn() Slot { return m.turn }

// Start draws the initial pool and opening turn. It is only legal once, from
// the lobby.
func (m *Match) Start(rng Rand) error {
	if m.state != StateInLobby {
		return ErrNotInLobby
	}

	r := m.rules.RangeFor(m.difficulty)
	m.pool = r.Min + rng.IntN(r.Max-r.Min+1)
	m.turn = Slot(rng.IntN(2))
	m.state = StateInGame
	return nil
}

// Play removes amount marbles on behalf of slot. Rejected moves leave the
// match untouched.
func (m *Match) Play(slot Slot, amount int) (TurnResult, error) {
	if m.state != StateInGame {
		return TurnResult{}, ErrNotInGame
	}
	if slot != m.turn {
		return TurnResult{}, ErrNotYourTurn
	}
	if !ValidTake(m.pool, amount) {
		return TurnResult{}, ErrInvalidAmount
	}

	m.pool -= amount
	res := TurnResult{
		Mover:  slot,
		Taken:  amount,
		Pool:   m.pool,
		Winner: NoSlot,
	}

	if m.pool == 0 {
		// Whoever empties the pool loses.
		m.state = StateGameOver
		m.turn = NoSlot
		res.Next = NoSlot
		res.Finished = true
		res.Winner = slot.Other()
		return res, nil
	}

	m.turn = slot.Other()
	res.Next = m.turn
	return res, nil
}

// Terminate ends the match early. It is legal from the lobby or while in
// progress.
func (m *Match) Terminate() error {
	if m.state.Finished() {
		return ErrAlreadyStopped
	}
	m.state = StateTerminated
	m.turn = NoSlot
	return nil
}

// MaxTake returns the largest legal move for a pool: half the pool rounded
// down, but never less than one.
func MaxTake(pool int) int {
	if half := pool / 2; half > 1 {
		return half
	}
	return 1
}

// ValidTake reports whether amount is a legal move for pool
func ValidTake(pool, amount int) bool {
	return pool > 0 && amount >= 1 && amount <= MaxTake(pool)
}
