// Package validity implements the path validity checker from spec §4.1/§7:
// simple-path structure, edge existence, endpoint match, and bandwidth
// feasibility.
package validity

import (
	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/metrics"
)

// Violation enumerates why Check rejected a path.
type Violation string

const (
	ViolationNone            Violation = ""
	ViolationTooShort        Violation = "path has fewer than two nodes"
	ViolationRepeatedNode    Violation = "path repeats a node"
	ViolationMissingEdge     Violation = "path references a non-existent edge"
	ViolationEndpointMismatch Violation = "path endpoints do not match source/destination"
	ViolationBandwidth       Violation = "path min_bandwidth below demand"
)

// Check verifies that path is a simple path from source to destination in
// g, with every consecutive pair a real edge, and (if b > 0) every edge on
// it meeting the bandwidth demand b. It returns ViolationNone when the
// path is valid.
func Check(g *graph.Graph, path []int64, source, destination int64, b float64) Violation {
	if len(path) < 2 {
		return ViolationTooShort
	}
	if path[0] != source || path[len(path)-1] != destination {
		return ViolationEndpointMismatch
	}

	seen := make(map[int64]bool, len(path))
	for _, v := range path {
		if seen[v] {
			return ViolationRepeatedNode
		}
		seen[v] = true
	}

	for i := 0; i < len(path)-1; i++ {
		if _, ok := g.Edge(path[i], path[i+1]); !ok {
			return ViolationMissingEdge
		}
	}

	if b > 0 && metrics.MinBandwidth(g, path) < b {
		return ViolationBandwidth
	}

	return ViolationNone
}

// IsValid is a boolean convenience wrapper around Check.
func IsValid(g *graph.Graph, path []int64, source, destination int64, b float64) bool {
	return Check(g, path, source, destination, b) == ViolationNone
}
