package optimize

import (
	"math"
	"math/rand"
	"time"

	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/metrics"
)

// PSOConfig holds the Particle Swarm Optimization tunables of spec §4.5.
type PSOConfig struct {
	NumParticles    int     // default 30
	NumIterations   int     // default 100
	Inertia         float64 // w, default 0.7
	CognitiveWeight float64 // c1, default 1.5
	SocialWeight    float64 // c2, default 1.5
	StagnationLimit int     // default 15, analogous to ACO
}

// DefaultPSOConfig returns the spec-default PSO configuration.
func DefaultPSOConfig() PSOConfig {
	return PSOConfig{
		NumParticles:    30,
		NumIterations:   100,
		Inertia:         0.7,
		CognitiveWeight: 1.5,
		SocialWeight:    1.5,
		StagnationLimit: 15,
	}
}

// particle tracks a discrete PSO particle: its current path and cost and its
// personal best path/cost. It holds no velocity of its own; the next-hop
// bias toward pbest/gbest that stands in for continuous velocity is
// computed afresh in reconstruct, per spec §4.5.
type particle struct {
	current  []int64
	cost     float64
	pbest    []int64
	pbestCost float64
}

// PSO implements the discrete adaptation of Particle Swarm Optimization
// from spec §4.5: velocity is encoded as a probability perturbation over
// next-hop choices biased toward a particle's personal best and the
// swarm's global best.
type PSO struct {
	cfg PSOConfig
}

func NewPSO(cfg PSOConfig) *PSO {
	if cfg.NumIterations == 0 {
		cfg = DefaultPSOConfig()
	}
	return &PSO{cfg: cfg}
}

func (o *PSO) Name() string               { return "PSO" }
func (o *PSO) DefaultParams() interface{} { return DefaultPSOConfig() }

func (o *PSO) Optimize(req Request) (Result, error) {
	start := time.Now()

	if abort, fast := validate(req); abort != nil {
		return Result{}, abort
	} else if fast != metrics.FailureNone {
		return failResult(req.Seed, fast, start), nil
	}

	g, s, d, w, b := req.Graph, req.Source, req.Destination, req.Weights, req.Bandwidth
	rng := NewRNG(req.Seed)
	maxHops := 2 * g.NodeCount()

	swarm := make([]*particle, 0, o.cfg.NumParticles)
	for i := 0; i < o.cfg.NumParticles; i++ {
		p, ok := randomSDWalk(g, s, d, b, maxHops, NewRNG(DeriveSeed(req.Seed, 0, i)))
		if !ok {
			continue
		}
		_, cost, _ := metrics.Evaluate(g, p, w, b)
		swarm = append(swarm, &particle{current: p, cost: cost, pbest: p, pbestCost: cost})
	}
	if len(swarm) == 0 {
		return failResult(req.Seed, metrics.FailureNoPath, start), nil
	}

	var gbest []int64
	gbestCost := math.Inf(1)
	for _, p := range swarm {
		if p.pbestCost < gbestCost {
			gbestCost = p.pbestCost
			gbest = p.pbest
		}
	}

	stagnation := 0
	iteration := 0
	for iteration < o.cfg.NumIterations {
		if safeCancel(req.Cancel) {
			break
		}

		improved := false
		for pi, p := range swarm {
			pRNG := NewRNG(DeriveSeed(req.Seed, iteration+1, pi))
			next, ok := o.reconstruct(g, s, d, b, p.pbest, gbest, maxHops, pRNG)
			if !ok {
				continue
			}
			_, cost, reason := metrics.Evaluate(g, next, w, b)
			if reason != metrics.FailureNone {
				continue
			}
			p.current = next
			p.cost = cost
			if cost < p.pbestCost {
				p.pbest = next
				p.pbestCost = cost
			}
			if cost < gbestCost {
				gbestCost = cost
				gbest = append([]int64(nil), next...)
				improved = true
			}
		}

		safeProgress(req.Progress, iteration, gbestCost)

		if improved {
			stagnation = 0
		} else {
			stagnation++
		}
		if stagnation >= o.cfg.StagnationLimit {
			break
		}
		iteration++
	}

	if gbest == nil {
		return failResult(req.Seed, metrics.FailureNoPath, start), nil
	}
	return buildResult(g, gbest, w, b, req.Seed, iteration, start), nil
}

// reconstruct rebuilds a particle's path hop by hop, choosing the next hop
// with probability proportional to a blend of inertia (uniform), the
// particle's personal best, and the swarm's global best preferring the
// node that appears at the same hop index in pbest/gbest, per spec §4.5.
func (o *PSO) reconstruct(g *graph.Graph, s, d int64, b float64, pbest, gbest []int64, maxHops int, rng *rand.Rand) ([]int64, bool) {
	path := []int64{s}
	visited := map[int64]bool{s: true}
	cur := s

	for len(path)-1 <= maxHops {
		if cur == d {
			return path, true
		}

		var feasible []int64
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

		hop := len(path)
		pbestHop := int64(-1)
		if hop < len(pbest) {
			pbestHop = pbest[hop]
		}
		gbestHop := int64(-1)
		if hop < len(gbest) {
			gbestHop = gbest[hop]
		}

		weights := make([]float64, len(feasible))
		total := 0.0
		for i, v := range feasible {
			score := o.cfg.Inertia * (1.0 / float64(len(feasible)))
			if v == pbestHop {
				score += o.cfg.CognitiveWeight * rng.Float64()
			}
			if v == gbestHop {
				score += o.cfg.SocialWeight * rng.Float64()
			}
			weights[i] = score
			total += score
		}

		var next int64
		if total <= 0 {
			next = feasible[rng.Intn(len(feasible))]
		} else {
			r := rng.Float64() * total
			acc := 0.0
			next = feasible[len(feasible)-1]
			for i, w := range weights {
				acc += w
				if r <= acc {
					next = feasible[i]
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

// randomSDWalk is an unguided feasible walk used only to seed the initial
// swarm.
func randomSDWalk(g *graph.Graph, s, d int64, b float64, maxHops int, rng *rand.Rand) ([]int64, bool) {
	path := []int64{s}
	visited := map[int64]bool{s: true}
	cur := s

	for len(path)-1 <= maxHops {
		if cur == d {
			return path, true
		}
		var feasible []int64
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
		next := feasible[rng.Intn(len(feasible))]
		path = append(path, next)
		visited[next] = true
		cur = next
	}
	return nil, false
}
