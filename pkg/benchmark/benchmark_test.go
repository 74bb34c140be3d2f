package benchmark

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/metrics"
)

func detourGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for id := int64(0); id <= 3; id++ {
		require.NoError(t, g.AddNode(&graph.Node{ID: id, ProcessingDelay: 1, NodeReliability: 0.99}))
	}
	require.NoError(t, g.AddEdge(&graph.Edge{From: 0, To: 1, Bandwidth: 500, LinkDelay: 3, LinkReliability: 0.99}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: 1, To: 3, Bandwidth: 500, LinkDelay: 3, LinkReliability: 0.99}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: 0, To: 2, Bandwidth: 100, LinkDelay: 15, LinkReliability: 0.95}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: 2, To: 3, Bandwidth: 100, LinkDelay: 15, LinkReliability: 0.95}))
	return g
}

func TestKCheapestPathsOrderedAscending(t *testing.T) {
	g := detourGraph(t)
	w := metrics.Weights{Delay: 1.0, Reliability: 0, Resource: 0}
	paths := KCheapestPaths(g, 0, 3, w, 0, 10, nil)
	require.Len(t, paths, 2)
	assert.Equal(t, []int64{0, 1, 3}, paths[0].Path)
	assert.LessOrEqual(t, paths[0].Cost, paths[1].Cost)
}

func TestKCheapestPathsFiltersInfeasibleBandwidth(t *testing.T) {
	g := detourGraph(t)
	w := metrics.Weights{Delay: 1.0, Reliability: 0, Resource: 0}
	paths := KCheapestPaths(g, 0, 3, w, 400, 10, nil)
	require.Len(t, paths, 1)
	assert.Equal(t, []int64{0, 1, 3}, paths[0].Path)
}

func TestParetoFrontExcludesDominated(t *testing.T) {
	a := ScoredPath{Path: []int64{0, 1}, Metrics: metrics.PathMetrics{TotalDelay: 5, TotalReliability: 0.99, ResourceCost: 2}}
	dominated := ScoredPath{Path: []int64{0, 2}, Metrics: metrics.PathMetrics{TotalDelay: 8, TotalReliability: 0.98, ResourceCost: 3}}
	tradeoff := ScoredPath{Path: []int64{0, 3}, Metrics: metrics.PathMetrics{TotalDelay: 4, TotalReliability: 0.90, ResourceCost: 1}}

	front := ParetoFront([]ScoredPath{a, dominated, tradeoff})

	paths := make([][]int64, len(front))
	for i, p := range front {
		paths[i] = p.Path
	}
	assert.Contains(t, paths, a.Path)
	assert.Contains(t, paths, tradeoff.Path)
	assert.NotContains(t, paths, dominated.Path)
}

func TestOptimalityGap(t *testing.T) {
	bench := []ScoredPath{{Cost: 2.0}}
	assert.InDelta(t, 0.0, OptimalityGap(2.0, bench), 1e-9)
	assert.InDelta(t, 0.5, OptimalityGap(3.0, bench), 1e-9)
}

func TestOptimalityGapNoBenchmarkPaths(t *testing.T) {
	assert.True(t, math.IsInf(OptimalityGap(1.0, nil), 1))
}

func TestOptimalityGapZeroBestCost(t *testing.T) {
	bench := []ScoredPath{{Cost: 0}}
	assert.InDelta(t, 0.0, OptimalityGap(0, bench), 1e-9)
	assert.True(t, math.IsInf(OptimalityGap(1.0, bench), 1))
}
