// Command analyze prints quick, human-readable heuristics about the Nim
// rules in effect (defaults, NIM_* environment, or NIM_RULES_FILE). For each
// difficulty it lists the AI's target residues, how many opening pools are
// already lost for the player to move, and the AI's win rate over simulated
// matches against a uniformly random opponent.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/wricardo/nim-lobby/game/config"
	"github.com/wricardo/nim-lobby/game/nim"
)

// Analysis summarises one difficulty range
type Analysis struct {
	Difficulty   nim.Difficulty
	Range        nim.Range
	Targets      []int
	LostOpenings int
	Games        int
	AIWins       int
}

// WinRate returns the AI's share of simulated wins
func (a Analysis) WinRate() float64 {
	if a.Games == 0 {
		return 0
	}
	return float64(a.AIWins) / float64(a.Games)
}

func main() {
	games := flag.Int("games", 10000, "simulated matches per difficulty")
	seed := flag.Uint64("seed", 1, "random seed for the simulation")
	flag.Parse()

	settings, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading settings: %v\n", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed))
	for _, d := range []nim.Difficulty{nim.Easy, nim.Hard} {
		fmt.Printf("\n=== Analyzing %s ===\n", d)
		printAnalysis(analyzeRange(d, settings.Rules(), *games, rng))
	}
}

func analyzeRange(d nim.Difficulty, rules nim.Rules, games int, rng nim.Rand) Analysis {
	r := rules.RangeFor(d)
	a := Analysis{
		Difficulty: d,
		Range:      r,
		Targets:    nim.Targets(r.Max),
		Games:      games,
	}

	for pool := r.Min; pool <= r.Max; pool++ {
		if isTarget(pool) {
			a.LostOpenings++
		}
	}

	for i := 0; i < games; i++ {
		m := nim.NewMatch(d, true, rules)
		if err := m.Start(rng); err != nil {
			continue
		}
		if playOut(m, rng) == nim.Slot0 {
			a.AIWins++
		}
	}
	return a
}

// playOut finishes a started match with the AI in slot 0 and a random
// opponent in slot 1, returning the winner
func playOut(m *nim.Match, rng nim.Rand) nim.Slot {
	for m.State() == nim.StateInGame {
		var amount int
		if m.Turn() == nim.Slot0 {
			amount = nim.ChooseMove(m.Pool(), rng)
		} else {
			amount = 1 + rng.IntN(nim.MaxTake(m.Pool()))
		}

		res, err := m.Play(m.Turn(), amount)
		if err != nil {
			return nim.NoSlot
		}
		if res.Finished {
			return res.Winner
		}
	}
	return nim.NoSlot
}

// isTarget reports whether pool is one less than a power of two
func isTarget(pool int) bool {
	return pool > 0 && pool&(pool+1) == 0
}

func printAnalysis(a Analysis) {
	fmt.Printf("Pool Range: %d-%d\n", a.Range.Min, a.Range.Max)
	fmt.Printf("AI Targets: %v\n", a.Targets)
	fmt.Printf("Lost Openings: %d of %d\n", a.LostOpenings, a.Range.Max-a.Range.Min+1)
	fmt.Printf("Simulated Games: %d\n", a.Games)
	fmt.Printf("AI Win Rate vs random: %.1f%%\n", 100*a.WinRate())

	if a.LostOpenings == 0 {
		fmt.Printf("⚠️  WARNING: no opening pool is lost for the first mover\n")
	}
}
