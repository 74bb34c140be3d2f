package experiment

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/metrics"
	"github.com/netstrata/qosrouter/pkg/optimize"
	"github.com/netstrata/qosrouter/pkg/testcasegen"
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

func twoCases() []testcasegen.TestCase {
	w := metrics.Weights{Delay: 1.0 / 3, Reliability: 1.0 / 3, Resource: 1.0 / 3}
	return []testcasegen.TestCase{
		{ID: "c1", Source: 0, Destination: 3, Bandwidth: 0, Weights: w},
		{ID: "c2", Source: 0, Destination: 2, Bandwidth: 0, Weights: w},
	}
}

func TestRunProducesOneScenarioPerCellAlgorithmPair(t *testing.T) {
	g := smallGraph(t)
	registry := optimize.Registry{"GA": optimize.NewGA(optimize.DefaultGAConfig())}
	r := NewRunner(g, registry, nil)

	report, err := r.Run(twoCases(), []string{"GA"}, 3, 42, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, report.NTestCases)
	assert.Equal(t, 3, report.NRepeats)
	assert.Len(t, report.ScenarioResults, 2)
	for _, sr := range report.ScenarioResults {
		assert.Len(t, sr.Repeats, 3)
		assert.Equal(t, "GA", sr.Algorithm)
	}
}

func TestRunIsDeterministicAcrossRepeatsAndReruns(t *testing.T) {
	g := smallGraph(t)
	registry := optimize.Registry{"GA": optimize.NewGA(optimize.DefaultGAConfig())}
	r := NewRunner(g, registry, nil)

	report1, err := r.Run(twoCases(), []string{"GA"}, 2, 7, 0)
	require.NoError(t, err)
	report2, err := r.Run(twoCases(), []string{"GA"}, 2, 7, 0)
	require.NoError(t, err)

	assert.Equal(t, report1.ScenarioResults, report2.ScenarioResults)
}

func TestRunUnknownAlgorithmErrors(t *testing.T) {
	g := smallGraph(t)
	r := NewRunner(g, optimize.DefaultRegistry(), nil)
	_, err := r.Run(twoCases(), []string{"NOPE"}, 1, 1, 0)
	assert.Error(t, err)
}

func TestComparisonTableSortedAlphabetically(t *testing.T) {
	registry := optimize.Registry{
		"SA": optimize.NewSA(optimize.DefaultSAConfig()),
		"GA": optimize.NewGA(optimize.DefaultGAConfig()),
	}
	g := smallGraph(t)
	r := NewRunner(g, registry, nil)

	report, err := r.Run(twoCases(), []string{"SA", "GA"}, 2, 3, 0)
	require.NoError(t, err)
	require.Len(t, report.ComparisonTable, 2)
	assert.Equal(t, "GA", report.ComparisonTable[0].Algorithm)
	assert.Equal(t, "SA", report.ComparisonTable[1].Algorithm)
}

func TestWriteJSONRoundTrips(t *testing.T) {
	g := smallGraph(t)
	registry := optimize.Registry{"GA": optimize.NewGA(optimize.DefaultGAConfig())}
	r := NewRunner(g, registry, nil)
	report, err := r.Run(twoCases(), []string{"GA"}, 1, 1, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, report))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.NTestCases, decoded.NTestCases)
	assert.Len(t, decoded.ComparisonTable, 1)
}

func TestWriteComparisonCSVHasHeaderAndRows(t *testing.T) {
	g := smallGraph(t)
	registry := optimize.Registry{"GA": optimize.NewGA(optimize.DefaultGAConfig())}
	r := NewRunner(g, registry, nil)
	report, err := r.Run(twoCases(), []string{"GA"}, 1, 1, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteComparisonCSV(&buf, report))

	lines := bytes.Count(buf.Bytes(), []byte("\n"))
	assert.Equal(t, 2, lines) // header + one algorithm row
}

func TestFailureReportCountsUnsatisfiableBandwidth(t *testing.T) {
	g := smallGraph(t)
	registry := optimize.Registry{"GA": optimize.NewGA(optimize.DefaultGAConfig())}
	r := NewRunner(g, registry, nil)

	w := metrics.Weights{Delay: 1.0 / 3, Reliability: 1.0 / 3, Resource: 1.0 / 3}
	impossible := []testcasegen.TestCase{{ID: "impossible", Source: 0, Destination: 3, Bandwidth: 9999, Weights: w}}

	report, err := r.Run(impossible, []string{"GA"}, 2, 1, 0)
	require.NoError(t, err)
	assert.Greater(t, report.FailureReport.TotalFailures, 0)
}
