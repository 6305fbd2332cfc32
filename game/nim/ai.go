package nim

// ChooseMove picks the computer's move for the given pool.
//
// The winning residues are the values 2^k-1. The largest one that is both
// below the pool and reachable with a single legal move is targeted; when
// none is reachable the position is already lost and a random legal amount
// is returned instead.
func ChooseMove(pool int, rng Rand) int {
	if pool <= 0 {
		return 0
	}

	maxTake := MaxTake(pool)
	target := 0
	for t := 1; t <= pool-1; t = 2*t + 1 {
		if t >= pool-maxTake {
			target = t
		}
	}
	if target > 0 {
		return pool - target
	}

	return 1 + rng.IntN(maxTake)
}

// Targets lists the residues the AI aims for that are below limit
func Targets(limit int) []int {
	var out []int
	for t := 1; t < limit; t = 2*t + 1 {
		out = append(out, t)
	}
	return out
}
