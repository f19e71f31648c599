package ai

import "math/rand"

// aiRng is the package-level random source used by all strategies.
// When nil, the functions below delegate to the global math/rand
// default. Use SeedRng to set a deterministic source in tests.
var aiRng *rand.Rand

// SeedRng sets a deterministic random source for reproducible strategy output.
func SeedRng(seed int64) {
	aiRng = rand.New(rand.NewSource(seed))
}

// ResetRng reverts to the default (non-deterministic) global random source.
func ResetRng() {
	aiRng = nil
}

func aiIntn(n int) int {
	if aiRng != nil {
		return aiRng.Intn(n)
	}
	return rand.Intn(n)
}

func aiPerm(n int) []int {
	if aiRng != nil {
		return aiRng.Perm(n)
	}
	return rand.Perm(n)
}

func aiShuffle(n int, swap func(i, j int)) {
	if aiRng != nil {
		aiRng.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}
