package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/metrics"
	"github.com/netstrata/qosrouter/pkg/validity"
)

// feasibleGraph is a small connected topology with an obvious cheap route
// (0-1-2-3) and an expensive detour (0-4-3), large enough to exercise every
// optimizer's crossover/pheromone/velocity/annealing/RL machinery without
// making the test suite slow.
func feasibleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for id := int64(0); id <= 4; id++ {
		require.NoError(t, g.AddNode(&graph.Node{ID: id, ProcessingDelay: 1.0, NodeReliability: 0.99}))
	}
	edges := []*graph.Edge{
		{From: 0, To: 1, Bandwidth: 500, LinkDelay: 3, LinkReliability: 0.99},
		{From: 1, To: 2, Bandwidth: 500, LinkDelay: 3, LinkReliability: 0.99},
		{From: 2, To: 3, Bandwidth: 500, LinkDelay: 3, LinkReliability: 0.99},
		{From: 0, To: 4, Bandwidth: 100, LinkDelay: 12, LinkReliability: 0.95},
		{From: 4, To: 3, Bandwidth: 100, LinkDelay: 12, LinkReliability: 0.95},
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e))
	}
	return g
}

func allOptimizers() map[string]Optimizer {
	return DefaultRegistry()
}

func TestOptimizerNamesMatchRegistryKeys(t *testing.T) {
	for name, algo := range allOptimizers() {
		assert.Equal(t, name, algo.Name())
		assert.NotNil(t, algo.DefaultParams())
	}
}

func TestOptimizeSucceedsWithValidPath(t *testing.T) {
	g := feasibleGraph(t)
	w := metrics.Weights{Delay: 1.0 / 3, Reliability: 1.0 / 3, Resource: 1.0 / 3}

	for name, algo := range allOptimizers() {
		t.Run(name, func(t *testing.T) {
			result, err := algo.Optimize(Request{Graph: g, Source: 0, Destination: 3, Weights: w, Seed: 7})
			require.NoError(t, err)
			require.True(t, result.Success, "%s failed to find a path: %s", name, result.FailureReason)
			assert.Equal(t, validity.ViolationNone, validity.Check(g, result.Path, 0, 3, 0))
			assert.Equal(t, int64(7), result.SeedUsed)
		})
	}
}

func TestOptimizeIsDeterministicGivenSameSeed(t *testing.T) {
	g := feasibleGraph(t)
	w := metrics.Weights{Delay: 0.5, Reliability: 0.3, Resource: 0.2}

	for name, algo := range allOptimizers() {
		t.Run(name, func(t *testing.T) {
			r1, err := algo.Optimize(Request{Graph: g, Source: 0, Destination: 3, Weights: w, Seed: 99})
			require.NoError(t, err)
			r2, err := algo.Optimize(Request{Graph: g, Source: 0, Destination: 3, Weights: w, Seed: 99})
			require.NoError(t, err)
			assert.Equal(t, r1.Path, r2.Path)
			assert.InDelta(t, r1.Fitness, r2.Fitness, 1e-12)
		})
	}
}

func TestOptimizeRejectsUnknownSource(t *testing.T) {
	g := feasibleGraph(t)
	w := metrics.Weights{Delay: 1.0 / 3, Reliability: 1.0 / 3, Resource: 1.0 / 3}

	for name, algo := range allOptimizers() {
		t.Run(name, func(t *testing.T) {
			result, err := algo.Optimize(Request{Graph: g, Source: 999, Destination: 3, Weights: w, Seed: 1})
			require.NoError(t, err)
			assert.False(t, result.Success)
			assert.Equal(t, metrics.FailureInvalidSource, result.FailureReason)
		})
	}
}

func TestOptimizeRejectsSameSourceDestination(t *testing.T) {
	g := feasibleGraph(t)
	w := metrics.Weights{Delay: 1.0 / 3, Reliability: 1.0 / 3, Resource: 1.0 / 3}

	for name, algo := range allOptimizers() {
		t.Run(name, func(t *testing.T) {
			result, err := algo.Optimize(Request{Graph: g, Source: 2, Destination: 2, Weights: w, Seed: 1})
			require.NoError(t, err)
			assert.False(t, result.Success)
			assert.Equal(t, metrics.FailureSameNode, result.FailureReason)
		})
	}
}

func TestOptimizeAbortsOnInvalidWeights(t *testing.T) {
	g := feasibleGraph(t)
	bad := metrics.Weights{Delay: 0.9, Reliability: 0.9, Resource: 0.9}

	for name, algo := range allOptimizers() {
		t.Run(name, func(t *testing.T) {
			_, err := algo.Optimize(Request{Graph: g, Source: 0, Destination: 3, Weights: bad, Seed: 1})
			assert.Error(t, err)
		})
	}
}

func TestOptimizeAbortsOnNegativeBandwidth(t *testing.T) {
	g := feasibleGraph(t)
	w := metrics.Weights{Delay: 1.0 / 3, Reliability: 1.0 / 3, Resource: 1.0 / 3}

	for name, algo := range allOptimizers() {
		t.Run(name, func(t *testing.T) {
			_, err := algo.Optimize(Request{Graph: g, Source: 0, Destination: 3, Weights: w, Bandwidth: -1, Seed: 1})
			assert.Error(t, err)
		})
	}
}

func TestOptimizeFailsWhenBandwidthUnsatisfiable(t *testing.T) {
	g := feasibleGraph(t)
	w := metrics.Weights{Delay: 1.0 / 3, Reliability: 1.0 / 3, Resource: 1.0 / 3}

	for name, algo := range allOptimizers() {
		t.Run(name, func(t *testing.T) {
			result, err := algo.Optimize(Request{Graph: g, Source: 0, Destination: 3, Weights: w, Bandwidth: 10000, Seed: 1})
			require.NoError(t, err)
			assert.False(t, result.Success)
		})
	}
}

func TestRegistrySelectUnknownAlgorithm(t *testing.T) {
	r := DefaultRegistry()
	_, err := r.Select([]string{"GA", "NOPE"})
	assert.Error(t, err)
}

func TestRegistryNamesCanonicalOrder(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"GA", "ACO", "PSO", "SA", "QL", "SARSA"}, r.Names())
}
