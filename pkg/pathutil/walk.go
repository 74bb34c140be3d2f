package pathutil

import (
	"math/rand"

	"github.com/netstrata/qosrouter/pkg/graph"
)

// DefaultGuidedProbability is p_guided from spec §4.2.
const DefaultGuidedProbability = 0.7

// MaxWalkLength computes the hard cap from spec §4.2: min(|V|,
// 2*E[shortest_path_length]), approximated by twice the hop-distance
// between s and d (falling back to |V| when s and d are disconnected under
// the hop scheme).
func MaxWalkLength(g *graph.Graph, s, d int64) int {
	v := g.NodeCount()
	if hopPath, _, ok := ShortestPath(g, s, d, WeightHops, 0); ok {
		cap := 2 * (len(hopPath) - 1)
		if cap > 0 && cap < v {
			return cap
		}
	}
	return v
}

// Walk performs the guided random walk of spec §4.2: from s, at each step
// choose among unvisited neighbors whose incident edge satisfies
// bandwidth >= b. With probability pGuided, weight the choice by
// 1/(1+link_delay); otherwise choose uniformly. Fails (returns ok=false)
// if at any step no feasible neighbor exists, or maxLen is exceeded before
// reaching d.
func Walk(g *graph.Graph, s, d int64, b float64, maxLen int, pGuided float64, rng *rand.Rand) ([]int64, bool) {
	if s == d {
		return []int64{s}, true
	}

	path := []int64{s}
	visited := map[int64]bool{s: true}
	cur := s

	for len(path)-1 < maxLen {
		feasible := make([]int64, 0, 4)
		for _, nb := range g.Neighbors(cur) {
			if visited[nb] {
				continue
			}
			e, ok := g.Edge(cur, nb)
			if !ok {
				continue
			}
			if b > 0 && e.Bandwidth < b {
				continue
			}
			feasible = append(feasible, nb)
		}

		if len(feasible) == 0 {
			return nil, false
		}

		var next int64
		if rng.Float64() < pGuided {
			next = weightedChoice(g, cur, feasible, rng)
		} else {
			next = feasible[rng.Intn(len(feasible))]
		}

		path = append(path, next)
		visited[next] = true
		cur = next

		if cur == d {
			return path, true
		}
	}

	return nil, false
}

// weightedChoice picks among candidates with probability proportional to
// 1/(1+link_delay(cur,candidate)).
func weightedChoice(g *graph.Graph, cur int64, candidates []int64, rng *rand.Rand) int64 {
	weights := make([]float64, len(candidates))
	total := 0.0
	for i, c := range candidates {
		e, _ := g.Edge(cur, c)
		w := 1.0 / (1.0 + e.LinkDelay)
		weights[i] = w
		total += w
	}

	r := rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}

// RetryWalk attempts Walk up to attempts times, returning the first success.
// This is the "retried up to 20 times" local recovery of spec §7.
func RetryWalk(g *graph.Graph, s, d int64, b float64, maxLen int, pGuided float64, rng *rand.Rand, attempts int) ([]int64, bool) {
	for i := 0; i < attempts; i++ {
		if p, ok := Walk(g, s, d, b, maxLen, pGuided, rng); ok {
			return p, true
		}
	}
	return nil, false
}
