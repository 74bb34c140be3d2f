package optimize

import (
	"math"
	"math/rand"
	"time"

	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/metrics"
)

// ACOConfig holds the Ant Colony Optimization tunables of spec §4.4.
type ACOConfig struct {
	Alpha          float64 // pheromone exponent, default 1.0
	Beta           float64 // heuristic exponent, default 2.0
	Evaporation    float64 // rho, default 0.5
	Deposit        float64 // Q, default 100
	NumAnts        int     // default 50
	NumIterations  int     // default 100
	StagnationLimit int    // default 15
	UseMMAS        bool    // clamp pheromone to [tau_min, tau_max]
	Epsilon        float64 // heuristic denominator guard, default 1e-6
}

// DefaultACOConfig returns the spec-default ACO configuration.
func DefaultACOConfig() ACOConfig {
	return ACOConfig{
		Alpha:           1.0,
		Beta:            2.0,
		Evaporation:     0.5,
		Deposit:         100,
		NumAnts:         50,
		NumIterations:   100,
		StagnationLimit: 15,
		Epsilon:         1e-6,
	}
}

// pheromoneKey indexes the flat pheromone table by undirected edge,
// adapted from the teacher's AssociationMatrix flat-map keying (spec §9
// "no object graph cycles arise if implemented as flat tables").
type pheromoneKey struct{ u, v int64 }

func edgeKey(u, v int64) pheromoneKey {
	if u > v {
		u, v = v, u
	}
	return pheromoneKey{u, v}
}

// ACO implements Ant Colony Optimization per spec §4.4.
type ACO struct {
	cfg ACOConfig
}

func NewACO(cfg ACOConfig) *ACO {
	if cfg.NumIterations == 0 {
		cfg = DefaultACOConfig()
	}
	return &ACO{cfg: cfg}
}

func (o *ACO) Name() string               { return "ACO" }
func (o *ACO) DefaultParams() interface{} { return DefaultACOConfig() }

func (o *ACO) Optimize(req Request) (Result, error) {
	start := time.Now()

	if abort, fast := validate(req); abort != nil {
		return Result{}, abort
	} else if fast != metrics.FailureNone {
		return failResult(req.Seed, fast, start), nil
	}

	g, s, d, w, b := req.Graph, req.Source, req.Destination, req.Weights, req.Bandwidth
	rng := NewRNG(req.Seed)

	tau := make(map[pheromoneKey]float64)
	for _, u := range g.NodeIDs() {
		for _, v := range g.Neighbors(u) {
			tau[edgeKey(u, v)] = 1.0
		}
	}

	eta := func(u, v int64) float64 {
		e, _ := g.Edge(u, v)
		return 1.0 / (e.LinkDelay + o.cfg.Epsilon)
	}

	maxHops := 2 * g.NodeCount()

	var best []int64
	bestCost := math.Inf(1)
	stagnation := 0
	iteration := 0

	alpha, beta := o.cfg.Alpha, o.cfg.Beta

	for iteration < o.cfg.NumIterations {
		if safeCancel(req.Cancel) {
			break
		}

		// Adaptive alpha/beta: linear schedule shifting exploration to
		// exploitation across iterations, per spec §4.4.
		progress := float64(iteration) / float64(o.cfg.NumIterations)
		alpha = o.cfg.Alpha + progress*(o.cfg.Alpha*0.5)
		beta = math.Max(0.1, o.cfg.Beta-progress*(o.cfg.Beta*0.5))

		type antResult struct {
			path []int64
			cost float64
			ok   bool
		}
		results := make([]antResult, o.cfg.NumAnts)

		for a := 0; a < o.cfg.NumAnts; a++ {
			antRNG := NewRNG(DeriveSeed(req.Seed, iteration, a))
			path, ok := o.constructSolution(g, s, d, b, tau, eta, alpha, beta, maxHops, antRNG)
			if !ok {
				results[a] = antResult{ok: false}
				continue
			}
			_, cost, reason := metrics.Evaluate(g, path, w, b)
			if reason != metrics.FailureNone || (b > 0 && metrics.MinBandwidth(g, path) < b) {
				results[a] = antResult{ok: false}
				continue
			}
			results[a] = antResult{path: path, cost: cost, ok: true}
		}

		// Evaporate.
		for k := range tau {
			tau[k] *= 1 - o.cfg.Evaporation
		}

		iterBestCost := math.Inf(1)
		for _, r := range results {
			if !r.ok {
				continue
			}
			for i := 0; i < len(r.path)-1; i++ {
				tau[edgeKey(r.path[i], r.path[i+1])] += o.cfg.Deposit / r.cost
			}
			if r.cost < iterBestCost {
				iterBestCost = r.cost
			}
			if r.cost < bestCost {
				bestCost = r.cost
				best = append([]int64(nil), r.path...)
				stagnation = 0
			}
		}
		if math.IsInf(iterBestCost, 1) || iterBestCost >= bestCost {
			stagnation++
		}

		if o.cfg.UseMMAS && !math.IsInf(bestCost, 1) && bestCost > 0 {
			tauMax := 1.0 / (o.cfg.Evaporation * bestCost)
			tauMin := tauMax / (2 * float64(g.NodeCount()))
			for k, v := range tau {
				if v > tauMax {
					tau[k] = tauMax
				} else if v < tauMin {
					tau[k] = tauMin
				}
			}
		}

		safeProgress(req.Progress, iteration, bestCost)

		if stagnation >= o.cfg.StagnationLimit {
			break
		}
		iteration++
	}

	if best == nil {
		return failResult(req.Seed, metrics.FailureNoPath, start), nil
	}
	return buildResult(g, best, w, b, req.Seed, iteration, start), nil
}

// constructSolution builds one ant's path from s to d, per spec §4.4.
func (o *ACO) constructSolution(g *graph.Graph, s, d int64, b float64, tau map[pheromoneKey]float64, eta func(u, v int64) float64, alpha, beta float64, maxHops int, rng *rand.Rand) ([]int64, bool) {
	path := []int64{s}
	visited := map[int64]bool{s: true}
	cur := s

	for len(path)-1 <= maxHops {
		if cur == d {
			return path, true
		}

		var allowed []int64
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
			allowed = append(allowed, nb)
		}
		if len(allowed) == 0 {
			return nil, false
		}

		weights := make([]float64, len(allowed))
		total := 0.0
		for i, v := range allowed {
			t := tau[edgeKey(cur, v)]
			h := eta(cur, v)
			w := math.Pow(t, alpha) * math.Pow(h, beta)
			weights[i] = w
			total += w
		}

		var next int64
		if total <= 0 {
			next = allowed[rng.Intn(len(allowed))]
		} else {
			r := rng.Float64() * total
			acc := 0.0
			next = allowed[len(allowed)-1]
			for i, w := range weights {
				acc += w
				if r <= acc {
					next = allowed[i]
					break
				}
			}
		}

		path = append(path, next)
		visited[next] = true
		cur = next
	}

	return nil, false
}
