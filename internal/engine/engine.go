// Package engine is the orchestration layer adapted from the teacher's
// ALMCoordinator (internal/alm_coordinator.go): it owns the graph, the
// optimizer registry, the experiment runner, the shortest-path cache, and
// the logger, and serializes chaos-removal against in-flight calls per
// spec §5's shared-resource policy.
package engine

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/netstrata/qosrouter/pkg/config"
	"github.com/netstrata/qosrouter/pkg/experiment"
	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/optimize"
	"github.com/netstrata/qosrouter/pkg/pathutil"
	"github.com/netstrata/qosrouter/pkg/testcasegen"
)

// Engine orchestrates a graph, an optimizer registry, and an experiment
// runner behind one serialization point for the mutating "chaos removal"
// event.
type Engine struct {
	mu sync.RWMutex

	g        *graph.Graph
	cfg      *config.Config
	registry optimize.Registry
	cache    *pathutil.Cache
	runner   *experiment.Runner
	logger   *zap.Logger
}

// New constructs an Engine over g using cfg's hyperparameters. A nil logger
// defaults to zap.NewNop(), matching the teacher's NewALMCoordinator.
func New(g *graph.Graph, cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := optimize.Registry{
		"GA":    optimize.NewGA(cfg.GA),
		"ACO":   optimize.NewACO(cfg.ACO),
		"PSO":   optimize.NewPSO(cfg.PSO),
		"SA":    optimize.NewSA(cfg.SA),
		"QL":    optimize.NewQL(cfg.QL),
		"SARSA": optimize.NewSARSA(cfg.SARSA),
	}

	e := &Engine{
		g:        g,
		cfg:      cfg,
		registry: registry,
		cache:    pathutil.NewCache(cfg.Engine.CacheSize),
		logger:   logger,
	}
	e.runner = experiment.NewRunner(g, registry, logger)
	e.runner.Cache = e.cache

	logger.Info("engine initialized",
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", g.EdgeCount()),
		zap.Int64("master_seed", cfg.Engine.MasterSeed),
	)
	return e, nil
}

// Graph returns the underlying topology. Callers must not mutate it
// directly; use RemoveEdge.
func (e *Engine) Graph() *graph.Graph {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.g
}

// Registry returns the optimizer capability set, per spec §9's
// polymorphism-over-optimizers note.
func (e *Engine) Registry() optimize.Registry {
	return e.registry
}

// Optimize runs a single named algorithm against the engine's graph. The
// call is read-only with respect to engine state; concurrent Optimize
// calls are safe, but none may overlap a RemoveEdge.
func (e *Engine) Optimize(algoName string, req optimize.Request) (optimize.Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	algo, ok := e.registry[algoName]
	if !ok {
		return optimize.Result{}, fmt.Errorf("engine: unknown algorithm %q", algoName)
	}
	req.Graph = e.g
	req.Cache = e.cache
	return algo.Optimize(req)
}

// RunExperiment drives the full experiment matrix over cases and algoNames,
// per spec §4.9. It holds a read lock for the duration of the run, so a
// concurrent RemoveEdge blocks until the experiment completes.
func (e *Engine) RunExperiment(cases []testcasegen.TestCase, algoNames []string, timeout time.Duration) (*experiment.Report, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	start := time.Now()
	report, err := e.runner.Run(cases, algoNames, e.cfg.Engine.NRepeats, e.cfg.Engine.MasterSeed, timeout)
	if err != nil {
		return nil, err
	}
	e.logger.Info("experiment complete",
		zap.Int("n_test_cases", report.NTestCases),
		zap.Int("n_repeats", report.NRepeats),
		zap.Duration("wall_time", time.Since(start)),
	)
	return report, nil
}

// PredefinedCases returns the 25-scenario deck for the engine's graph and
// configured master seed.
func (e *Engine) PredefinedCases() []testcasegen.TestCase {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return testcasegen.PredefinedCases(e.g, e.cfg.Engine.MasterSeed)
}

// GeneratedCases returns n additional random cases for the engine's graph
// and configured master seed.
func (e *Engine) GeneratedCases(n int) []testcasegen.TestCase {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return testcasegen.GenerateRandom(e.g, e.cfg.Engine.MasterSeed, n)
}

// RemoveEdge applies the "chaos removal" event of spec §3/§5: it takes the
// write lock, so it blocks until every in-flight Optimize/RunExperiment
// call completes, then removes the edge and invalidates the shortest-path
// cache.
func (e *Engine) RemoveEdge(u, v int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.g.RemoveEdge(u, v)
	e.cache.InvalidateAll()

	e.logger.Warn("chaos removal applied",
		zap.Int64("u", u),
		zap.Int64("v", v),
		zap.Bool("still_connected", e.g.Connected()),
	)
}

// CacheStats returns the shortest-path cache's hit/miss counters and hit
// rate.
func (e *Engine) CacheStats() (hits, misses int64, hitRate float64) {
	return e.cache.Stats()
}
