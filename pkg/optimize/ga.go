package optimize

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/metrics"
)

// GAConfig holds the Genetic Algorithm tunables of spec §4.3.
type GAConfig struct {
	PopulationSize   int     // 0 => scaled by |V| per spec
	MaxGenerations   int     // G_max, default 500
	TournamentSize   int     // k, default 5
	CrossoverRate    float64 // default 0.8
	BaseMutationRate float64 // mu_0, default 0.12
	ElitismFraction  float64 // default 0.08
	StagnationLimit  int     // default 20 generations
	StagnationEps    float64 // default 1e-4
	DiversitySample  int     // pairs sampled to estimate diversity
}

// DefaultGAConfig returns the spec-default GA configuration.
func DefaultGAConfig() GAConfig {
	return GAConfig{
		MaxGenerations:   500,
		TournamentSize:   5,
		CrossoverRate:    0.8,
		BaseMutationRate: 0.12,
		ElitismFraction:  0.08,
		StagnationLimit:  20,
		StagnationEps:    1e-4,
		DiversitySample:  30,
	}
}

// populationSize scales N_pop by |V| per spec §4.3.
func populationSize(cfg GAConfig, numNodes int) int {
	if cfg.PopulationSize > 0 {
		return cfg.PopulationSize
	}
	switch {
	case numNodes < 100:
		return 200
	case numNodes < 500:
		return 260
	default:
		return 500
	}
}

// GA implements the Genetic Algorithm of spec §4.3.
type GA struct {
	cfg GAConfig
}

// NewGA constructs a GA optimizer; a zero-value cfg fills in spec defaults.
func NewGA(cfg GAConfig) *GA {
	if cfg.MaxGenerations == 0 {
		cfg = DefaultGAConfig()
	}
	return &GA{cfg: cfg}
}

func (o *GA) Name() string              { return "GA" }
func (o *GA) DefaultParams() interface{} { return DefaultGAConfig() }

// Optimize runs the Genetic Algorithm described in spec §4.3.
func (o *GA) Optimize(req Request) (Result, error) {
	start := time.Now()

	if abort, fast := validate(req); abort != nil {
		return Result{}, abort
	} else if fast != metrics.FailureNone {
		return failResult(req.Seed, fast, start), nil
	}

	g, s, d, w, b := req.Graph, req.Source, req.Destination, req.Weights, req.Bandwidth
	rng := NewRNG(req.Seed)

	popSize := populationSize(o.cfg, g.NodeCount())
	population := fillPopulation(req.Cache, g, s, d, b, popSize, rng)
	if len(population) == 0 {
		return failResult(req.Seed, metrics.FailureNoPath, start), nil
	}

	mu := o.cfg.BaseMutationRate
	var best []int64
	bestCost := math.Inf(1)
	stagnation := 0
	generation := 0

	for generation < o.cfg.MaxGenerations {
		if safeCancel(req.Cancel) {
			if best == nil {
				return failResult(req.Seed, metrics.FailureTimeout, start), nil
			}
			return buildResult(g, best, w, b, req.Seed, generation, start), nil
		}

		costs := make([]float64, len(population))
		genBestIdx := -1
		genBestCost := math.Inf(1)
		for i, ind := range population {
			_, cost, _ := metrics.Evaluate(g, ind, w, b)
			costs[i] = cost
			if cost < genBestCost {
				genBestCost = cost
				genBestIdx = i
			}
		}

		if genBestIdx >= 0 && genBestCost < bestCost {
			improvement := bestCost - genBestCost
			bestCost = genBestCost
			best = append([]int64(nil), population[genBestIdx]...)
			if improvement > o.cfg.StagnationEps {
				stagnation = 0
			} else {
				stagnation++
			}
		} else {
			stagnation++
		}

		safeProgress(req.Progress, generation, bestCost)

		if stagnation >= o.cfg.StagnationLimit {
			break
		}

		div := diversity(population, rng, o.cfg.DiversitySample)
		if div < 0.10 {
			mu = math.Min(0.30, o.cfg.BaseMutationRate*2.5)
		} else {
			mu = o.cfg.BaseMutationRate
		}

		population = o.nextGeneration(g, s, d, b, population, costs, div, mu, rng)
		generation++
	}

	if best == nil {
		return failResult(req.Seed, metrics.FailureNoPath, start), nil
	}
	return buildResult(g, best, w, b, req.Seed, generation, start), nil
}

// nextGeneration builds the next population via elitism, k-tournament
// selection, edge crossover and diversity-adaptive mutation, per spec
// §4.3.
func (o *GA) nextGeneration(g *graph.Graph, s, d int64, b float64, population [][]int64, costs []float64, div, mu float64, rng *rand.Rand) [][]int64 {
	n := len(population)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return costs[order[i]] < costs[order[j]] })

	elites := int(math.Floor(o.cfg.ElitismFraction * float64(n)))
	next := make([][]int64, 0, n)
	for i := 0; i < elites && i < n; i++ {
		next = append(next, append([]int64(nil), population[order[i]]...))
	}

	tournament := func() []int64 {
		bestIdx := -1
		bestC := math.Inf(1)
		k := o.cfg.TournamentSize
		if k > n {
			k = n
		}
		for t := 0; t < k; t++ {
			idx := rng.Intn(n)
			if costs[idx] < bestC {
				bestC = costs[idx]
				bestIdx = idx
			}
		}
		return population[bestIdx]
	}

	for len(next) < n {
		p1 := tournament()
		p2 := tournament()

		var c1, c2 []int64
		if rng.Float64() < o.cfg.CrossoverRate {
			c1, c2 = edgeCrossover(p1, p2, rng)
		} else {
			c1 = append([]int64(nil), p1...)
			c2 = append([]int64(nil), p2...)
		}

		c1 = o.mutate(g, s, d, b, c1, div, mu, rng)
		next = append(next, c1)
		if len(next) < n {
			c2 = o.mutate(g, s, d, b, c2, div, mu, rng)
			next = append(next, c2)
		}
	}

	return next
}

// mutate applies the diversity-adaptive mutation operator of spec §4.3,
// rejecting any result that is no longer a valid simple feasible path.
func (o *GA) mutate(g *graph.Graph, s, d int64, b float64, path []int64, div, mu float64, rng *rand.Rand) []int64 {
	if rng.Float64() >= mu {
		return path
	}

	var candidate []int64
	switch {
	case div < 0.05:
		candidate = segmentReplace(g, path, b, rng)
	case div < 0.15:
		candidate = nodeInsertion(g, path, b, rng)
	default:
		candidate = nodeReplace(g, path, b, rng)
	}

	if !isSimpleFeasible(g, candidate, s, d, b) {
		return path
	}
	return candidate
}
