package nim

import "fmt"

// Difficulty selects the range the initial pool is drawn from
type Difficulty string

const (
	Easy Difficulty = "easy"
	Hard Difficulty = "hard"
)

// ParseDifficulty maps a wire value to a Difficulty. Anything other than
// "easy" is treated as hard.
func ParseDifficulty(s string) Difficulty {
	if s == string(Easy) {
		return Easy
	}
	return Hard
}

// State represents the lifecycle of a match
type State string

const (
	StateInLobby    State = "in-lobby"
	StateInGame     State = "in-game"
	StateGameOver   State = "game-over"
	StateTerminated State = "terminated"
)

// Finished reports whether no further transitions are possible
func (s State) Finished() bool {
	return s == StateGameOver || s == StateTerminated
}

// Slot identifies one of the two participant positions
type Slot int

const (
	NoSlot Slot = -1
	Slot0  Slot = 0
	Slot1  Slot = 1
)

// Other returns the opposing slot. NoSlot has no opponent.
func (s Slot) Other() Slot {
	switch s {
	case Slot0:
		return Slot1
	case Slot1:
		return Slot0
	default:
		return NoSlot
	}
}

func (s Slot) String() string {
	switch s {
	case Slot0:
		return "slot0"
	case Slot1:
		return "slot1"
	default:
		return "nobody"
	}
}

// Range is an inclusive interval of initial pool sizes
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Rules holds the per-difficulty pool ranges
type Rules struct {
	Easy Range `json:"easy"`
	Hard Range `json:"hard"`
}

// Default pool ranges
const (
	DefaultEasyMin = 2
	DefaultEasyMax = 20
	DefaultHardMin = 2
	DefaultHardMax = 100
)

// DefaultRules returns the standard easy [2,20] and hard [2,100] ranges
func DefaultRules() Rules {
	return Rules{
		Easy: Range{Min: DefaultEasyMin, Max: DefaultEasyMax},
		Hard: Range{Min: DefaultHardMin, Max: DefaultHardMax},
	}
}

// RangeFor returns the pool range for a difficulty
func (r Rules) RangeFor(d Difficulty) Range {
	if d == Easy {
		return r.Easy
	}
	return r.Hard
}

// Validate checks that every range is non-empty and starts at one or more
func (r Rules) Validate() error {
	for _, c := range []struct {
		name string
		rng  Range
	}{{"easy", r.Easy}, {"hard", r.Hard}} {
		if c.rng.Min < 1 {
			return fmt.Errorf("rules validation: %s min must be at least 1, got %d", c.name, c.rng.Min)
		}
		if c.rng.Max < c.rng.Min {
			return fmt.Errorf("rules validation: %s max (%d) must not be below min (%d)", c.name, c.rng.Max, c.rng.Min)
		}
	}
	return nil
}

// Rand is the source of randomness used for pool sizes, opening turns and
// fallback AI moves. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// TurnResult describes an accepted move
type TurnResult struct {
	Mover    Slot `json:"mover"`
	Taken    int  `json:"taken"`
	Pool     int  `json:"pool"`
	Next     Slot `json:"next"`
	Finished bool `json:"finished"`
	Winner   Slot `json:"winner"`
}
