package graph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNodesCSV(t *testing.T) {
	csvData := "node_id,processing_delay,reliability\n0,1.2,0.99\n1,0.8,0.995\n"

	g := New()
	require.NoError(t, LoadNodesCSV(g, strings.NewReader(csvData)))
	assert.Equal(t, 2, g.NodeCount())

	n, ok := g.Node(0)
	require.True(t, ok)
	assert.InDelta(t, 1.2, n.ProcessingDelay, 1e-9)
	assert.InDelta(t, 0.99, n.NodeReliability, 1e-9)
}

func TestLoadNodesCSVAcceptsCommaDecimal(t *testing.T) {
	csvData := "node_id,processing_delay,reliability\n0,\"1,2\",\"0,99\"\n"
	g := New()
	require.NoError(t, LoadNodesCSV(g, strings.NewReader(csvData)))
	n, ok := g.Node(0)
	require.True(t, ok)
	assert.InDelta(t, 1.2, n.ProcessingDelay, 1e-9)
	assert.InDelta(t, 0.99, n.NodeReliability, 1e-9)
}

func TestLoadEdgesCSVRejectsUnknownNode(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(&Node{ID: 0}))
	csvData := "u,v,bandwidth,delay,reliability\n0,1,100,5,0.99\n"
	assert.Error(t, LoadEdgesCSV(g, strings.NewReader(csvData)))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	orig := diamond(t)

	var nodesBuf, edgesBuf bytes.Buffer
	require.NoError(t, SaveNodesCSV(orig, &nodesBuf))
	require.NoError(t, SaveEdgesCSV(orig, &edgesBuf))

	reconstructed := New()
	require.NoError(t, LoadNodesCSV(reconstructed, &nodesBuf))
	require.NoError(t, LoadEdgesCSV(reconstructed, &edgesBuf))

	assert.Equal(t, orig.NodeCount(), reconstructed.NodeCount())
	assert.Equal(t, orig.EdgeCount(), reconstructed.EdgeCount())

	e, ok := reconstructed.Edge(0, 1)
	require.True(t, ok)
	assert.InDelta(t, 500.0, e.Bandwidth, 1e-6)
}

func TestLoadDemandsCSV(t *testing.T) {
	csvData := "id,source,destination,demand_mbps\ndemand-1,0,3,50\n"
	rows, err := LoadDemandsCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "demand-1", rows[0].ID)
	assert.Equal(t, int64(0), rows[0].Source)
	assert.Equal(t, int64(3), rows[0].Destination)
	assert.InDelta(t, 50.0, rows[0].DemandMbps, 1e-9)
}
