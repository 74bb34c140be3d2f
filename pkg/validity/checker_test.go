package validity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netstrata/qosrouter/pkg/graph"
)

func triangle(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range []int64{0, 1, 2} {
		require.NoError(t, g.AddNode(&graph.Node{ID: id, ProcessingDelay: 1, NodeReliability: 0.99}))
	}
	require.NoError(t, g.AddEdge(&graph.Edge{From: 0, To: 1, Bandwidth: 500, LinkDelay: 5, LinkReliability: 0.99}))
	require.NoError(t, g.AddEdge(&graph.Edge{From: 1, To: 2, Bandwidth: 100, LinkDelay: 5, LinkReliability: 0.99}))
	return g
}

func TestCheckValidPath(t *testing.T) {
	g := triangle(t)
	assert.Equal(t, ViolationNone, Check(g, []int64{0, 1, 2}, 0, 2, 0))
}

func TestCheckTooShort(t *testing.T) {
	g := triangle(t)
	assert.Equal(t, ViolationTooShort, Check(g, []int64{0}, 0, 0, 0))
}

func TestCheckEndpointMismatch(t *testing.T) {
	g := triangle(t)
	assert.Equal(t, ViolationEndpointMismatch, Check(g, []int64{0, 1, 2}, 0, 1, 0))
}

func TestCheckRepeatedNode(t *testing.T) {
	g := triangle(t)
	assert.Equal(t, ViolationRepeatedNode, Check(g, []int64{0, 1, 0, 1, 2}, 0, 2, 0))
}

func TestCheckMissingEdge(t *testing.T) {
	g := triangle(t)
	assert.Equal(t, ViolationMissingEdge, Check(g, []int64{0, 2}, 0, 2, 0))
}

func TestCheckBandwidthInsufficient(t *testing.T) {
	g := triangle(t)
	// Edge 1->2 caps at 100 Mbps, demand is 200.
	assert.Equal(t, ViolationBandwidth, Check(g, []int64{0, 1, 2}, 0, 2, 200))
	assert.Equal(t, ViolationNone, Check(g, []int64{0, 1, 2}, 0, 2, 100))
}

func TestIsValid(t *testing.T) {
	g := triangle(t)
	assert.True(t, IsValid(g, []int64{0, 1, 2}, 0, 2, 0))
	assert.False(t, IsValid(g, []int64{0, 2}, 0, 2, 0))
}
