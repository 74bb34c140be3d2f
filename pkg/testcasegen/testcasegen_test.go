package testcasegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netstrata/qosrouter/pkg/graph"
)

func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for id := int64(0); id < 5; id++ {
		require.NoError(t, g.AddNode(&graph.Node{ID: id, ProcessingDelay: 1, NodeReliability: 0.99}))
	}
	for i := int64(0); i < 4; i++ {
		require.NoError(t, g.AddEdge(&graph.Edge{From: i, To: i + 1, Bandwidth: 200, LinkDelay: 5, LinkReliability: 0.99}))
	}
	return g
}

func TestPredefinedCasesHasExactlyTwentyFive(t *testing.T) {
	g := sampleGraph(t)
	cases := PredefinedCases(g, 42)
	assert.Len(t, cases, 25)
	for _, c := range cases {
		assert.NotEqual(t, c.Source, c.Destination)
		assert.True(t, c.Weights.Valid())
	}
}

func TestPredefinedCasesDeterministic(t *testing.T) {
	g := sampleGraph(t)
	a := PredefinedCases(g, 42)
	b := PredefinedCases(g, 42)
	assert.Equal(t, a, b)
}

func TestPredefinedCasesVaryBySeed(t *testing.T) {
	g := sampleGraph(t)
	a := PredefinedCases(g, 1)
	b := PredefinedCases(g, 2)
	assert.NotEqual(t, a, b)
}

func TestGenerateRandomCountAndDeterminism(t *testing.T) {
	g := sampleGraph(t)
	a := GenerateRandom(g, 42, 10)
	b := GenerateRandom(g, 42, 10)
	assert.Len(t, a, 10)
	assert.Equal(t, a, b)
	for _, c := range a {
		assert.True(t, c.Weights.Valid())
		assert.NotEqual(t, c.Source, c.Destination)
	}
}

func TestGenerateRandomZeroOrNegativeYieldsEmpty(t *testing.T) {
	g := sampleGraph(t)
	assert.Empty(t, GenerateRandom(g, 42, 0))
	assert.Empty(t, GenerateRandom(g, 42, -5))
}

func TestPredefinedCasesEmptyOnTrivialGraph(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode(&graph.Node{ID: 0}))
	assert.Empty(t, PredefinedCases(g, 42))
}
