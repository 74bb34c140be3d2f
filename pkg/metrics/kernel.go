// Package metrics implements the metric and cost kernel (spec §4.1): a
// single, pure, thread-safe pass over a path that every optimizer and the
// experiment runner share as the one source of truth for path quality.
package metrics

import (
	"math"

	"github.com/netstrata/qosrouter/pkg/graph"
)

// Weights are the three non-negative, sum-to-one objective weights from
// spec §3 (W_d, W_r, W_c).
type Weights struct {
	Delay       float64
	Reliability float64
	Resource    float64
}

// Valid reports whether the weights are non-negative and sum to one within
// the tolerance spec §3/§6 specify.
func (w Weights) Valid() bool {
	if w.Delay < 0 || w.Reliability < 0 || w.Resource < 0 {
		return false
	}
	sum := w.Delay + w.Reliability + w.Resource
	return math.Abs(sum-1.0) <= 1e-6
}

// PathMetrics holds the four raw path measurements from spec §3 plus the
// path's hop count.
type PathMetrics struct {
	TotalDelay       float64
	TotalReliability float64
	ResourceCost     float64
	MinBandwidth     float64
	HopCount         int
}

// FailureReason enumerates the taxonomy in spec §4.9.
type FailureReason string

const (
	FailureNone                 FailureReason = ""
	FailureInvalidEdge          FailureReason = "INVALID_EDGE"
	FailureNoPath               FailureReason = "NO_PATH"
	FailureBandwidthInsufficient FailureReason = "BANDWIDTH_INSUFFICIENT"
	FailureTimeout              FailureReason = "TIMEOUT"
	FailureInvalidSource        FailureReason = "INVALID_SOURCE"
	FailureInvalidDestination   FailureReason = "INVALID_DESTINATION"
	FailureSameNode             FailureReason = "SAME_NODE"
	FailureAlgorithmError       FailureReason = "ALGORITHM_ERROR"
)

// Evaluate computes PathMetrics and the normalized weighted cost for path P
// under weights w and bandwidth demand b, per spec §3/§4.1. It requires
// |P| >= 2 and every consecutive pair to be an edge in g; callers are
// expected to have already run the validity checker for structural
// soundness, but Evaluate defends against a missing edge on its own,
// reporting FailureInvalidEdge with cost +Inf.
//
// Evaluate is pure and safe to call concurrently from multiple goroutines
// sharing the same *graph.Graph, since Graph reads are RWMutex-guarded.
func Evaluate(g *graph.Graph, path []int64, w Weights, b float64) (PathMetrics, float64, FailureReason) {
	if len(path) < 2 {
		return PathMetrics{}, math.Inf(1), FailureInvalidEdge
	}

	var totalDelay float64
	var totalReliability = 1.0
	var resourceCost float64
	minBandwidth := math.Inf(1)

	for i := 0; i < len(path)-1; i++ {
		e, ok := g.Edge(path[i], path[i+1])
		if !ok {
			return PathMetrics{}, math.Inf(1), FailureInvalidEdge
		}
		totalDelay += e.LinkDelay
		totalReliability *= e.LinkReliability
		resourceCost += 1000.0 / e.Bandwidth
		if e.Bandwidth < minBandwidth {
			minBandwidth = e.Bandwidth
		}
	}

	// Interior nodes only (endpoints excluded), per spec §3.
	for j := 1; j < len(path)-1; j++ {
		n, ok := g.Node(path[j])
		if !ok {
			return PathMetrics{}, math.Inf(1), FailureInvalidEdge
		}
		totalDelay += n.ProcessingDelay
		totalReliability *= n.NodeReliability
	}

	pm := PathMetrics{
		TotalDelay:       totalDelay,
		TotalReliability: totalReliability,
		ResourceCost:     resourceCost,
		MinBandwidth:     minBandwidth,
		HopCount:         len(path) - 1,
	}

	cost := Cost(pm, w, b, len(path)-1)
	return pm, cost, FailureNone
}

// Cost computes the normalized weighted cost from already-computed
// PathMetrics, per spec §3. hops is |P| in hops (used for the resource-cost
// proxy scale).
func Cost(pm PathMetrics, w Weights, b float64, hops int) float64 {
	if b > 0 && pm.MinBandwidth < b {
		return math.Inf(1)
	}

	normDelay := math.Min(pm.TotalDelay/200.0, 1.0)
	normRel := math.Min((1-pm.TotalReliability)*10.0, 1.0)
	normRes := math.Min(float64(hops)/20.0, 1.0)

	return w.Delay*normDelay + w.Reliability*normRel + w.Resource*normRes
}

// MinBandwidth returns the minimum per-edge bandwidth along path in g, or
// +Inf if the path has fewer than two nodes or a missing edge.
func MinBandwidth(g *graph.Graph, path []int64) float64 {
	if len(path) < 2 {
		return math.Inf(1)
	}
	min := math.Inf(1)
	for i := 0; i < len(path)-1; i++ {
		e, ok := g.Edge(path[i], path[i+1])
		if !ok {
			return math.Inf(1)
		}
		if e.Bandwidth < min {
			min = e.Bandwidth
		}
	}
	return min
}

// Dominates reports whether PathMetrics a dominates b in the Pareto sense
// of spec §4.1: a.delay <= b.delay AND a.reliability >= b.reliability AND
// a.resource_cost <= b.resource_cost, with at least one strict inequality.
func Dominates(a, b PathMetrics) bool {
	notWorse := a.TotalDelay <= b.TotalDelay &&
		a.TotalReliability >= b.TotalReliability &&
		a.ResourceCost <= b.ResourceCost

	if !notWorse {
		return false
	}

	strictlyBetter := a.TotalDelay < b.TotalDelay ||
		a.TotalReliability > b.TotalReliability ||
		a.ResourceCost < b.ResourceCost

	return strictlyBetter
}
