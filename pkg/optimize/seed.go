package optimize

import (
	"math/rand"

	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/pathutil"
)

// lookupShortestPath resolves through cache when one is supplied, and
// through the uncached pathutil.ShortestPath otherwise, so every caller
// gets the same signature regardless of whether a process-wide cache is
// wired in.
func lookupShortestPath(cache *pathutil.Cache, g *graph.Graph, s, d int64, scheme pathutil.WeightScheme, b float64) ([]int64, float64, bool) {
	if cache != nil {
		return cache.ShortestPath(g, s, d, scheme, b)
	}
	return pathutil.ShortestPath(g, s, d, scheme, b)
}

// heuristicSeeds returns the three deterministic heuristic paths spec
// §4.3 seeds every population with: hop-shortest, link-delay-weighted
// shortest, and reliability-weighted shortest (using -log(reliability) as
// an additive proxy so Dijkstra can minimize it). Infeasible or missing
// paths are simply omitted. Lookups go through cache when the caller
// supplies one, per spec §5's process-wide shortest-path cache.
func heuristicSeeds(cache *pathutil.Cache, g *graph.Graph, s, d int64, b float64) [][]int64 {
	var seeds [][]int64
	for _, scheme := range []pathutil.WeightScheme{pathutil.WeightHops, pathutil.WeightLinkDelay, pathutil.WeightNegLogReliability} {
		if p, _, ok := lookupShortestPath(cache, g, s, d, scheme, b); ok {
			seeds = append(seeds, p)
		}
	}
	return seeds
}

// fillPopulation builds a population of size n for (s,d,b): the heuristic
// seeds, then guided walks up to 50% of n, then random walks for the
// remainder, rejecting nothing that Walk itself wouldn't already reject
// (Walk only ever proposes bandwidth-feasible edges). Duplicate paths are
// kept. Returns fewer than n entries if a walk fails within its retry
// budget.
func fillPopulation(cache *pathutil.Cache, g *graph.Graph, s, d int64, b float64, n int, rng *rand.Rand) [][]int64 {
	population := make([][]int64, 0, n)
	population = append(population, heuristicSeeds(cache, g, s, d, b)...)
	if len(population) > n {
		population = population[:n]
	}

	maxLen := pathutil.MaxWalkLength(g, s, d)
	guidedBudget := n / 2
	guidedAdded := 0

	for len(population) < n && guidedAdded < guidedBudget {
		p, ok := pathutil.RetryWalk(g, s, d, b, maxLen, pathutil.DefaultGuidedProbability, rng, 20)
		if !ok {
			break
		}
		population = append(population, p)
		guidedAdded++
	}

	for len(population) < n {
		p, ok := pathutil.RetryWalk(g, s, d, b, maxLen, 0.0, rng, 20)
		if !ok {
			break
		}
		population = append(population, p)
	}

	return population
}
