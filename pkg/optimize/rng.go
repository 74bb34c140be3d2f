package optimize

import "math/rand"

// NewRNG returns a private RNG seeded deterministically from seed. Every
// RNG an optimizer call uses is built here from the request seed, either
// directly (GA, SA) or from a DeriveSeed sub-seed per ant, particle or
// episode (ACO, PSO, QL, SARSA); no global RNG state is shared, so
// optimize(G,S,D,w,B,seed) reproduces bit-identical output across runs, per
// spec §8 property 5.
func NewRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// DeriveSeed mixes (master, generation, index) into a sub-seed for
// per-task deterministic RNGs, per spec §5/§9: "Derive per-task seeds from
// (master_seed, generation, task_index) to preserve property (5)" rather
// than sharing one RNG across parallel workers. Uses a splitmix64-style
// mix so nearby (generation, index) pairs don't produce correlated
// low-order bits.
func DeriveSeed(master int64, generation, index int) int64 {
	x := uint64(master)
	x ^= uint64(generation)*0x9E3779B97F4A7C15 + 0x123456789ABCDEF
	x ^= uint64(index)*0xBF58476D1CE4E5B9 + 1
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	x = x ^ (x >> 31)
	return int64(x)
}
