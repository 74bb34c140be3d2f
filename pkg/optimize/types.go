// Package optimize implements the six stochastic path optimizers of spec
// §4.3-§4.8 behind one shared capability, per spec §9's "Polymorphism over
// optimizers": the experiment runner depends only on Optimizer, never on
// any algorithm's internals.
package optimize

import (
	"log"
	"time"

	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/metrics"
	"github.com/netstrata/qosrouter/pkg/pathutil"
)

// ProgressFunc is invoked at most once per generation/iteration/episode.
// It must never mutate engine state; if it panics, the optimizer recovers,
// logs the panic, and continues, per spec §5.
type ProgressFunc func(step int, bestCost float64)

// CancelFunc is polled at most once per outer loop. Returning true asks
// the optimizer to stop and return its best-so-far result, per spec §5.
type CancelFunc func() bool

// Request bundles the optimize(...) contract inputs from spec §6. Cache is
// the process-wide shortest-path cache (spec §5/§9); it is optional -- a nil
// Cache makes every heuristic-seed lookup fall back to the uncached
// pathutil.ShortestPath, which is what a caller outside Engine (e.g. a unit
// test constructing a Request directly) gets by default.
type Request struct {
	Graph       *graph.Graph
	Source      int64
	Destination int64
	Weights     metrics.Weights
	Bandwidth   float64
	Seed        int64
	Progress    ProgressFunc
	Cancel      CancelFunc
	Cache       *pathutil.Cache
}

// Result is the optimize(...) contract output from spec §3/§6.
type Result struct {
	Path                []int64
	Fitness             float64
	TotalDelay          float64
	TotalReliability    float64
	ResourceCost        float64
	MinBandwidth        float64
	ComputationTimeMs   float64
	ConvergedGeneration int
	SeedUsed            int64
	Success             bool
	FailureReason       metrics.FailureReason
}

// Optimizer is the shared capability every search algorithm exposes.
// DefaultParams returns that algorithm's tunable configuration (one of
// GAConfig, ACOConfig, PSOConfig, SAConfig, or RLConfig for both QL and
// SARSA) so
// callers can inspect or clone-and-override it without type-switching on
// the concrete optimizer.
type Optimizer interface {
	Name() string
	DefaultParams() interface{}
	Optimize(req Request) (Result, error)
}

// validate applies the precondition split: out-of-range weights and negative bandwidth are programming errors that
// abort the call (spec §7 "Fatal"); an unknown or coincident source/
// destination has an explicit taxonomy code and spec §8 boundary
// behaviors, so it is surfaced as a failed Result instead.
func validate(req Request) (abort error, failFast metrics.FailureReason) {
	if !req.Weights.Valid() {
		return errInvalidWeights, metrics.FailureNone
	}
	if req.Bandwidth < 0 {
		return errNegativeBandwidth, metrics.FailureNone
	}
	if !req.Graph.HasNode(req.Source) {
		return nil, metrics.FailureInvalidSource
	}
	if !req.Graph.HasNode(req.Destination) {
		return nil, metrics.FailureInvalidDestination
	}
	if req.Source == req.Destination {
		return nil, metrics.FailureSameNode
	}
	return nil, metrics.FailureNone
}

var (
	errInvalidWeights    = fmtError("optimize: weights must be non-negative and sum to 1")
	errNegativeBandwidth = fmtError("optimize: bandwidth demand must be non-negative")
)

func fmtError(msg string) error { return simpleError(msg) }

type simpleError string

func (e simpleError) Error() string { return string(e) }

// failResult builds a failed Result carrying reason, with no path.
func failResult(seed int64, reason metrics.FailureReason, start time.Time) Result {
	return Result{
		Success:           false,
		FailureReason:     reason,
		SeedUsed:          seed,
		ComputationTimeMs: elapsedMs(start),
	}
}

// buildResult evaluates path against g/w/b and packages a successful
// Result, or a failed one tagged INVALID_EDGE / BANDWIDTH_INSUFFICIENT if
// evaluation rejects it.
func buildResult(g *graph.Graph, path []int64, w metrics.Weights, b float64, seed int64, generation int, start time.Time) Result {
	pm, cost, reason := metrics.Evaluate(g, path, w, b)
	if reason != metrics.FailureNone {
		return failResult(seed, reason, start)
	}
	if b > 0 && pm.MinBandwidth < b {
		return failResult(seed, metrics.FailureBandwidthInsufficient, start)
	}

	return Result{
		Path:                append([]int64(nil), path...),
		Fitness:             cost,
		TotalDelay:          pm.TotalDelay,
		TotalReliability:    pm.TotalReliability,
		ResourceCost:        pm.ResourceCost,
		MinBandwidth:        pm.MinBandwidth,
		ComputationTimeMs:   elapsedMs(start),
		ConvergedGeneration: generation,
		SeedUsed:            seed,
		Success:             true,
		FailureReason:       metrics.FailureNone,
	}
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Nanoseconds()) / 1e6
}

// safeProgress invokes cb, recovering from and logging any panic, per
// spec §5's cooperative-callback contract.
func safeProgress(cb ProgressFunc, step int, bestCost float64) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("optimize: progress callback panicked at step %d: %v", step, r)
		}
	}()
	cb(step, bestCost)
}

func safeCancel(cb CancelFunc) bool {
	if cb == nil {
		return false
	}
	return cb()
}
