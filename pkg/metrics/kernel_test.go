package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netstrata/qosrouter/pkg/graph"
)

func line(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	require.NoError(t, g.AddNode(&graph.Node{ID: 0, ProcessingDelay: 0, NodeReliability: 1.0}))
	require.NoError(t, g.AddNode(&graph.Node{ID: 1, ProcessingDelay: 1.0, NodeReliability: 0.98}))
	require.NoError(t, g.AddNode(&graph.Node{ID: 2, ProcessingDelay: 0, NodeReliability: 1.0}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: 0, To: 1, Bandwidth: 500, LinkDelay: 10, LinkReliability: 0.99}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: 1, To: 2, Bandwidth: 200, LinkDelay: 20, LinkReliability: 0.97}))
	return g
}

func TestWeightsValid(t *testing.T) {
	assert.True(t, Weights{Delay: 1.0 / 3, Reliability: 1.0 / 3, Resource: 1.0 / 3}.Valid())
	assert.True(t, Weights{Delay: 1.0, Reliability: 0, Resource: 0}.Valid())
	assert.False(t, Weights{Delay: 0.5, Reliability: 0.5, Resource: 0.5}.Valid())
	assert.False(t, Weights{Delay: -0.1, Reliability: 0.6, Resource: 0.5}.Valid())
}

func TestEvaluateExcludesEndpointNodeAttributes(t *testing.T) {
	g := line(t)
	w := Weights{Delay: 1.0, Reliability: 0, Resource: 0}

	pm, _, reason := Evaluate(g, []int64{0, 1, 2}, w, 0)
	require.Equal(t, FailureNone, reason)

	// Edge delays (10+20) plus interior node 1's processing delay (1.0);
	// endpoints 0 and 2 never contribute their own processing delay.
	assert.InDelta(t, 31.0, pm.TotalDelay, 1e-9)
	assert.Equal(t, 2, pm.HopCount)
}

func TestEvaluateRejectsMissingEdge(t *testing.T) {
	g := line(t)
	w := Weights{Delay: 1.0 / 3, Reliability: 1.0 / 3, Resource: 1.0 / 3}
	_, cost, reason := Evaluate(g, []int64{0, 2}, w, 0)
	assert.Equal(t, FailureInvalidEdge, reason)
	assert.True(t, math.IsInf(cost, 1))
}

func TestCostInfiniteBelowBandwidthDemand(t *testing.T) {
	g := line(t)
	w := Weights{Delay: 1.0 / 3, Reliability: 1.0 / 3, Resource: 1.0 / 3}
	_, cost, reason := Evaluate(g, []int64{0, 1, 2}, w, 300) // edge 1->2 caps at 200
	assert.Equal(t, FailureNone, reason)                      // Evaluate itself doesn't reject, only Cost
	assert.True(t, math.IsInf(cost, 1))
}

func TestCostIsDeterministic(t *testing.T) {
	g := line(t)
	w := Weights{Delay: 0.5, Reliability: 0.3, Resource: 0.2}
	_, c1, _ := Evaluate(g, []int64{0, 1, 2}, w, 0)
	_, c2, _ := Evaluate(g, []int64{0, 1, 2}, w, 0)
	assert.InDelta(t, c1, c2, 1e-12)
}

func TestDominatesRequiresStrictImprovement(t *testing.T) {
	a := PathMetrics{TotalDelay: 10, TotalReliability: 0.99, ResourceCost: 5}
	b := PathMetrics{TotalDelay: 10, TotalReliability: 0.99, ResourceCost: 5}
	assert.False(t, Dominates(a, b), "identical metrics must not dominate")

	better := PathMetrics{TotalDelay: 9, TotalReliability: 0.99, ResourceCost: 5}
	assert.True(t, Dominates(better, a))
	assert.False(t, Dominates(a, better))
}

func TestMinBandwidthShortPath(t *testing.T) {
	g := line(t)
	assert.True(t, math.IsInf(MinBandwidth(g, []int64{0}), 1))
	assert.InDelta(t, 200.0, MinBandwidth(g, []int64{0, 1, 2}), 1e-9)
}
