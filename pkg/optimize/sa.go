package optimize

import (
	"math"
	"math/rand"
	"time"

	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/metrics"
	"github.com/netstrata/qosrouter/pkg/pathutil"
)

// SAConfig holds the Simulated Annealing tunables of spec §4.6.
type SAConfig struct {
	InitialTemp      float64 // T_init, default 1000
	FinalTemp        float64 // T_final, default 0.01
	CoolingFactor    float64 // alpha, default 0.995
	IterationsPerTemp int    // I, default 10
	NeighborRetries  int     // default 20
}

// DefaultSAConfig returns the spec-default SA configuration.
func DefaultSAConfig() SAConfig {
	return SAConfig{
		InitialTemp:       1000,
		FinalTemp:         0.01,
		CoolingFactor:     0.995,
		IterationsPerTemp: 10,
		NeighborRetries:   20,
	}
}

// SA implements Simulated Annealing per spec §4.6.
type SA struct {
	cfg SAConfig
}

func NewSA(cfg SAConfig) *SA {
	if cfg.InitialTemp == 0 {
		cfg = DefaultSAConfig()
	}
	return &SA{cfg: cfg}
}

func (o *SA) Name() string               { return "SA" }
func (o *SA) DefaultParams() interface{} { return DefaultSAConfig() }

func (o *SA) Optimize(req Request) (Result, error) {
	start := time.Now()

	if abort, fast := validate(req); abort != nil {
		return Result{}, abort
	} else if fast != metrics.FailureNone {
		return failResult(req.Seed, fast, start), nil
	}

	g, s, d, w, b := req.Graph, req.Source, req.Destination, req.Weights, req.Bandwidth
	rng := NewRNG(req.Seed)

	current, ok := o.initialSolution(req, rng)
	if !ok {
		return failResult(req.Seed, metrics.FailureNoPath, start), nil
	}
	_, currentCost, _ := metrics.Evaluate(g, current, w, b)

	best := append([]int64(nil), current...)
	bestCost := currentCost

	temp := o.cfg.InitialTemp
	outerStep := 0

	for temp > o.cfg.FinalTemp {
		if safeCancel(req.Cancel) {
			break
		}

		for i := 0; i < o.cfg.IterationsPerTemp; i++ {
			candidate := o.neighbor(g, s, d, b, current, rng)
			if candidate == nil {
				continue
			}
			_, candidateCost, reason := metrics.Evaluate(g, candidate, w, b)
			if reason != metrics.FailureNone {
				continue
			}

			delta := candidateCost - currentCost
			if delta < 0 || rng.Float64() < math.Exp(-delta/temp) {
				current = candidate
				currentCost = candidateCost
				if currentCost < bestCost {
					bestCost = currentCost
					best = append([]int64(nil), current...)
				}
			}
		}

		safeProgress(req.Progress, outerStep, bestCost)
		temp *= o.cfg.CoolingFactor
		outerStep++
	}

	return buildResult(g, best, w, b, req.Seed, outerStep, start), nil
}

// initialSolution picks the best of (hop-shortest, guided walk, random
// walks), per spec §4.6.
func (o *SA) initialSolution(req Request, rng *rand.Rand) ([]int64, bool) {
	g, s, d, w, b := req.Graph, req.Source, req.Destination, req.Weights, req.Bandwidth
	maxLen := pathutil.MaxWalkLength(g, s, d)

	candidates := heuristicSeeds(req.Cache, g, s, d, b)
	if p, ok := pathutil.RetryWalk(g, s, d, b, maxLen, pathutil.DefaultGuidedProbability, rng, 20); ok {
		candidates = append(candidates, p)
	}
	for i := 0; i < 5; i++ {
		if p, ok := pathutil.RetryWalk(g, s, d, b, maxLen, 0.0, rng, 20); ok {
			candidates = append(candidates, p)
		}
	}

	if len(candidates) == 0 {
		return nil, false
	}

	bestIdx := -1
	bestCost := math.Inf(1)
	for i, c := range candidates {
		_, cost, reason := metrics.Evaluate(g, c, w, b)
		if reason != metrics.FailureNone {
			continue
		}
		if cost < bestCost {
			bestCost = cost
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return nil, false
	}
	return candidates[bestIdx], true
}

// neighbor applies the SA neighbor operator of spec §4.6: replace an
// internal node with a common neighbor of its surrounding path nodes; fall
// back to node insertion; retry up to NeighborRetries times.
func (o *SA) neighbor(g *graph.Graph, s, d int64, b float64, path []int64, rng *rand.Rand) []int64 {
	for attempt := 0; attempt < o.cfg.NeighborRetries; attempt++ {
		candidate := nodeReplace(g, path, b, rng)
		if !sameSlice(candidate, path) && isSimpleFeasible(g, candidate, s, d, b) {
			return candidate
		}
		candidate = nodeInsertion(g, path, b, rng)
		if !sameSlice(candidate, path) && isSimpleFeasible(g, candidate, s, d, b) {
			return candidate
		}
	}
	return nil
}

func sameSlice(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
