package pathutil

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/netstrata/qosrouter/pkg/graph"
)

// WeightScheme selects which edge attribute the cached shortest-path
// helper minimizes over, per spec §4.2.
type WeightScheme int

const (
	WeightHops WeightScheme = iota
	WeightLinkDelay
	WeightNegLogReliability
	WeightInvBandwidth
)

func (s WeightScheme) String() string {
	switch s {
	case WeightHops:
		return "hops"
	case WeightLinkDelay:
		return "link_delay"
	case WeightNegLogReliability:
		return "neg_log_reliability"
	case WeightInvBandwidth:
		return "inv_bandwidth"
	default:
		return fmt.Sprintf("scheme(%d)", int(s))
	}
}

func edgeWeight(scheme WeightScheme, e *graph.Edge) float64 {
	switch scheme {
	case WeightHops:
		return 1.0
	case WeightLinkDelay:
		return e.LinkDelay
	case WeightNegLogReliability:
		return -math.Log(e.LinkReliability)
	case WeightInvBandwidth:
		return 1.0 / e.Bandwidth
	default:
		return 1.0
	}
}

// ShortestPath computes the weight-scheme-minimal simple path from s to d
// in g, restricted to edges whose bandwidth satisfies b (b<=0 disables the
// filter), using gonum's Dijkstra implementation over a scheme-specific
// weighted view of the graph. It does not consult or populate the process-
// wide cache; use Cache.ShortestPath for that.
func ShortestPath(g *graph.Graph, s, d int64, scheme WeightScheme, b float64) ([]int64, float64, bool) {
	if !g.HasNode(s) || !g.HasNode(d) {
		return nil, 0, false
	}

	view := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for _, id := range g.NodeIDs() {
		view.AddNode(simple.Node(id))
	}
	for _, u := range g.NodeIDs() {
		for _, v := range g.Neighbors(u) {
			if v < u {
				continue // undirected: add each edge once
			}
			e, ok := g.Edge(u, v)
			if !ok {
				continue
			}
			if b > 0 && e.Bandwidth < b {
				continue
			}
			w := edgeWeight(scheme, e)
			line := view.NewWeightedEdge(simple.Node(u), simple.Node(v), w)
			view.SetWeightedEdge(line)
		}
	}

	shortest := path.DijkstraFrom(simple.Node(s), view)
	nodes, weight := shortest.To(d)
	if len(nodes) == 0 || math.IsInf(weight, 1) {
		return nil, 0, false
	}

	out := make([]int64, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out, weight, true
}
