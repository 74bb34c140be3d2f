package optimize

import (
	"math"
	"math/rand"
	"time"

	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/metrics"
)

// RLConfig holds the tunables shared by Q-Learning and SARSA, per spec
// §4.7/§4.8: both use identical scaffolding and differ only in their
// update rule.
type RLConfig struct {
	Episodes        int     // E_ep, default 5000
	MaxStepsFactor  int     // L_max = factor * |V|, default 3
	EpsilonStart    float64 // default 1.0
	EpsilonMin      float64 // default 0.01
	EpsilonDecay    float64 // default 0.995 per episode
	LearningRate    float64 // eta, default 0.1
	Gamma           float64 // discount, default 0.95
	FailureReward   float64 // default -50
	GoalReward      float64 // default 100
}

// DefaultRLConfig returns the spec-default RL configuration.
func DefaultRLConfig() RLConfig {
	return RLConfig{
		Episodes:       5000,
		MaxStepsFactor: 3,
		EpsilonStart:   1.0,
		EpsilonMin:     0.01,
		EpsilonDecay:   0.995,
		LearningRate:   0.1,
		Gamma:          0.95,
		FailureReward:  -50,
		GoalReward:     100,
	}
}

// qKey indexes the flat Q-table by (state, action) node-id pair, following
// the same flat-map-of-struct-key idiom as the ACO pheromone table and the
// teacher's AssociationMatrix.
type qKey struct{ state, action int64 }

// edgeReward computes the per-move reward of spec §4.7: the negative
// weighted normalized cost of traversing edge (s,sPrime), using the same
// normalization scale as the path-level cost kernel (200ms delay scale,
// x10 unreliability scale, /20 hop scale) so a trained policy's greedy
// path cost is comparable to the other five optimizers' results.
func edgeReward(e *graph.Edge, w metrics.Weights) float64 {
	normDelay := math.Min(e.LinkDelay/200.0, 1.0)
	normRel := math.Min((1-e.LinkReliability)*10.0, 1.0)
	normRes := 1.0 / 20.0
	return -(w.Delay*normDelay + w.Reliability*normRel + w.Resource*normRes)
}

// allowedActions returns neighbors of s that meet the bandwidth demand and
// have not yet been visited this episode, per spec §4.7's cycle-avoidance
// rule.
func allowedActions(g *graph.Graph, s int64, b float64, visited map[int64]bool) []int64 {
	var out []int64
	for _, nb := range g.Neighbors(s) {
		if visited[nb] {
			continue
		}
		e, ok := g.Edge(s, nb)
		if !ok {
			continue
		}
		if b > 0 && e.Bandwidth < b {
			continue
		}
		out = append(out, nb)
	}
	return out
}

// epsilonGreedy picks an action: with probability epsilon uniformly among
// allowed actions, else the argmax-Q action (ties broken by first seen).
func epsilonGreedy(q map[qKey]float64, s int64, allowed []int64, epsilon float64, rng *rand.Rand) int64 {
	if rng.Float64() < epsilon {
		return allowed[rng.Intn(len(allowed))]
	}
	best := allowed[0]
	bestQ := q[qKey{s, best}]
	for _, a := range allowed[1:] {
		v := q[qKey{s, a}]
		if v > bestQ {
			bestQ = v
			best = a
		}
	}
	return best
}

func maxQ(q map[qKey]float64, s int64, allowed []int64) float64 {
	best := math.Inf(-1)
	for _, a := range allowed {
		if v := q[qKey{s, a}]; v > best {
			best = v
		}
	}
	return best
}

// rlTrain runs the shared Q-Learning/SARSA training loop of spec §4.7/
// §4.8, returning the learned Q-table, the best successful episode path
// observed (by cost, for the §4.7 "fall back to best episode path
// observed" rule), the number of episodes run, and whether training was
// cancelled before completion.
func rlTrain(req Request, cfg RLConfig, onPolicy bool) (q map[qKey]float64, bestEpisodePath []int64, episodesRun int, cancelled bool) {
	g, s, d, w, b := req.Graph, req.Source, req.Destination, req.Weights, req.Bandwidth
	q = make(map[qKey]float64)
	maxSteps := cfg.MaxStepsFactor * g.NodeCount()

	bestEpisodeCost := math.Inf(1)
	epsilon := cfg.EpsilonStart

	for ep := 0; ep < cfg.Episodes; ep++ {
		if safeCancel(req.Cancel) {
			cancelled = true
			episodesRun = ep
			return
		}

		rng := NewRNG(DeriveSeed(req.Seed, ep, 0))

		cur := s
		visited := map[int64]bool{s: true}
		path := []int64{s}

		allowed := allowedActions(g, cur, b, visited)
		action := int64(-1)
		if len(allowed) > 0 {
			action = epsilonGreedy(q, cur, allowed, epsilon, rng)
		}

		for step := 0; step < maxSteps; step++ {
			if len(allowed) == 0 {
				q[qKey{cur, cur}] = q[qKey{cur, cur}] + cfg.LearningRate*(cfg.FailureReward-q[qKey{cur, cur}])
				break
			}

			next := action
			e, _ := g.Edge(cur, next)
			reward := edgeReward(e, w)
			if next == d {
				reward += cfg.GoalReward
			}

			nextVisited := map[int64]bool{}
			for k := range visited {
				nextVisited[k] = true
			}
			nextVisited[next] = true
			nextAllowed := allowedActions(g, next, b, nextVisited)

			var target float64
			if len(nextAllowed) == 0 {
				target = reward
			} else if onPolicy {
				var nextAction int64
				nextAction = epsilonGreedy(q, next, nextAllowed, epsilon, rng)
				target = reward + cfg.Gamma*q[qKey{next, nextAction}]
				action = nextAction // carry the chosen next action forward (SARSA on-policy)
			} else {
				target = reward + cfg.Gamma*maxQ(q, next, nextAllowed)
			}

			key := qKey{cur, next}
			q[key] = q[key] + cfg.LearningRate*(target-q[key])

			cur = next
			visited = nextVisited
			path = append(path, cur)
			allowed = nextAllowed

			if cur == d {
				_, cost, reason := metrics.Evaluate(g, path, w, b)
				if reason == metrics.FailureNone && cost < bestEpisodeCost {
					bestEpisodeCost = cost
					bestEpisodePath = append([]int64(nil), path...)
				}
				break
			}

			if !onPolicy && len(allowed) > 0 {
				action = epsilonGreedy(q, cur, allowed, epsilon, rng)
			}
		}

		epsilon = math.Max(cfg.EpsilonMin, epsilon*cfg.EpsilonDecay)
		safeProgress(req.Progress, ep, bestEpisodeCost)
	}

	episodesRun = cfg.Episodes
	return
}

// greedyPolicy walks the learned Q-table greedily from s, stopping at d,
// a dead end (no allowed action), or a revisit (cycle). It never consults
// epsilon.
func greedyPolicy(g *graph.Graph, q map[qKey]float64, s, d int64, b float64, maxSteps int) ([]int64, bool) {
	cur := s
	visited := map[int64]bool{s: true}
	path := []int64{s}

	for step := 0; step < maxSteps; step++ {
		if cur == d {
			return path, true
		}
		allowed := allowedActions(g, cur, b, visited)
		if len(allowed) == 0 {
			return nil, false
		}
		best := allowed[0]
		bestQ := q[qKey{cur, best}]
		for _, a := range allowed[1:] {
			if v := q[qKey{cur, a}]; v > bestQ {
				bestQ = v
				best = a
			}
		}
		cur = best
		visited[cur] = true
		path = append(path, cur)
	}
	return nil, false
}

// QL implements off-policy Q-Learning per spec §4.7.
type QL struct{ cfg RLConfig }

func NewQL(cfg RLConfig) *QL {
	if cfg.Episodes == 0 {
		cfg = DefaultRLConfig()
	}
	return &QL{cfg: cfg}
}

func (o *QL) Name() string               { return "QL" }
func (o *QL) DefaultParams() interface{} { return DefaultRLConfig() }

func (o *QL) Optimize(req Request) (Result, error) {
	return runRL(req, o.cfg, false)
}

// SARSA implements on-policy SARSA per spec §4.8.
type SARSA struct{ cfg RLConfig }

func NewSARSA(cfg RLConfig) *SARSA {
	if cfg.Episodes == 0 {
		cfg = DefaultRLConfig()
	}
	return &SARSA{cfg: cfg}
}

func (o *SARSA) Name() string               { return "SARSA" }
func (o *SARSA) DefaultParams() interface{} { return DefaultRLConfig() }

func (o *SARSA) Optimize(req Request) (Result, error) {
	return runRL(req, o.cfg, true)
}

func runRL(req Request, cfg RLConfig, onPolicy bool) (Result, error) {
	start := time.Now()

	if abort, fast := validate(req); abort != nil {
		return Result{}, abort
	} else if fast != metrics.FailureNone {
		return failResult(req.Seed, fast, start), nil
	}

	g, s, d, w, b := req.Graph, req.Source, req.Destination, req.Weights, req.Bandwidth

	q, bestEpisodePath, episodes, cancelled := rlTrain(req, cfg, onPolicy)

	maxSteps := cfg.MaxStepsFactor * g.NodeCount()
	if policyPath, ok := greedyPolicy(g, q, s, d, b, maxSteps); ok {
		if _, _, reason := metrics.Evaluate(g, policyPath, w, b); reason == metrics.FailureNone {
			return buildResult(g, policyPath, w, b, req.Seed, episodes, start), nil
		}
	}

	if bestEpisodePath != nil {
		return buildResult(g, bestEpisodePath, w, b, req.Seed, episodes, start), nil
	}

	reason := metrics.FailureNoPath
	if cancelled {
		reason = metrics.FailureTimeout
	}
	return failResult(req.Seed, reason, start), nil
}
