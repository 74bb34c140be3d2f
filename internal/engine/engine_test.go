package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netstrata/qosrouter/pkg/config"
	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/metrics"
	"github.com/netstrata/qosrouter/pkg/optimize"
)

func smallGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for id := int64(0); id < 4; id++ {
		require.NoError(t, g.AddNode(&graph.Node{ID: id, ProcessingDelay: 1, NodeReliability: 0.99}))
	}
	for i := int64(0); i < 3; i++ {
		require.NoError(t, g.AddEdge(&graph.Edge{From: i, To: i + 1, Bandwidth: 300, LinkDelay: 4, LinkReliability: 0.99}))
	}
	return g
}

func TestNewUsesDefaultConfigWhenNil(t *testing.T) {
	g := smallGraph(t)
	e, err := New(g, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), e.cfg.Engine.MasterSeed)
	assert.Len(t, e.Registry(), 6)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	g := smallGraph(t)
	cfg := config.DefaultConfig()
	cfg.Engine.NRepeats = 0
	_, err := New(g, cfg, nil)
	assert.Error(t, err)
}

func TestOptimizeDelegatesToNamedAlgorithm(t *testing.T) {
	g := smallGraph(t)
	e, err := New(g, nil, nil)
	require.NoError(t, err)

	w := metrics.Weights{Delay: 1.0 / 3, Reliability: 1.0 / 3, Resource: 1.0 / 3}
	result, err := e.Optimize("GA", optimize.Request{Source: 0, Destination: 3, Weights: w, Seed: 1})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestOptimizeUnknownAlgorithm(t *testing.T) {
	g := smallGraph(t)
	e, err := New(g, nil, nil)
	require.NoError(t, err)
	_, err = e.Optimize("NOPE", optimize.Request{Source: 0, Destination: 3})
	assert.Error(t, err)
}

func TestPredefinedCasesDeterministic(t *testing.T) {
	g := smallGraph(t)
	e, err := New(g, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, e.PredefinedCases(), e.PredefinedCases())
}

func TestRemoveEdgeInvalidatesCacheAndTopology(t *testing.T) {
	g := smallGraph(t)
	e, err := New(g, nil, nil)
	require.NoError(t, err)

	// SA's three heuristic-seed lookups miss once each before the removal;
	// after InvalidateAll the same lookups must miss again rather than hit.
	w := metrics.Weights{Delay: 1.0 / 3, Reliability: 1.0 / 3, Resource: 1.0 / 3}
	_, err = e.Optimize("SA", optimize.Request{Source: 0, Destination: 3, Weights: w, Seed: 1})
	require.NoError(t, err)

	require.True(t, e.Graph().Connected())
	e.RemoveEdge(1, 2)
	assert.False(t, e.Graph().Connected())

	_, err = e.Optimize("SA", optimize.Request{Source: 0, Destination: 3, Weights: w, Seed: 1})
	require.NoError(t, err)

	hits, misses, _ := e.CacheStats()
	assert.Equal(t, int64(0), hits)
	assert.Equal(t, int64(6), misses)
}

func TestOptimizePopulatesSharedCache(t *testing.T) {
	g := smallGraph(t)
	e, err := New(g, nil, nil)
	require.NoError(t, err)

	hits, misses, _ := e.CacheStats()
	require.Equal(t, int64(0), hits)
	require.Equal(t, int64(0), misses)

	w := metrics.Weights{Delay: 1.0 / 3, Reliability: 1.0 / 3, Resource: 1.0 / 3}
	_, err = e.Optimize("SA", optimize.Request{Source: 0, Destination: 3, Weights: w, Seed: 1})
	require.NoError(t, err)

	_, misses, _ = e.CacheStats()
	assert.Greater(t, misses, int64(0), "a real Optimize call must populate the shared shortest-path cache")

	_, err = e.Optimize("SA", optimize.Request{Source: 0, Destination: 3, Weights: w, Seed: 1})
	require.NoError(t, err)

	hits, _, _ = e.CacheStats()
	assert.Greater(t, hits, int64(0), "a repeated (s,d,scheme,b) lookup must hit the shared cache")
}

func TestRunExperimentAggregatesAcrossCases(t *testing.T) {
	g := smallGraph(t)
	cfg := config.DefaultConfig()
	cfg.Engine.NRepeats = 2
	e, err := New(g, cfg, nil)
	require.NoError(t, err)

	cases := e.PredefinedCases()
	report, err := e.RunExperiment(cases, []string{"GA", "SA"}, 0)
	require.NoError(t, err)
	assert.Equal(t, len(cases), report.NTestCases)
	assert.Len(t, report.ComparisonTable, 2)
}
