package pathutil

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/netstrata/qosrouter/pkg/graph"
)

// DefaultKMax is k_max from spec §4.2.
const DefaultKMax = 500

// weighted path pairs a node sequence with its scheme weight, used while
// enumerating candidates.
type weightedPath struct {
	nodes  []int64
	weight float64
}

// KSimplePaths enumerates up to kMax simple paths from s to d in
// non-decreasing order of the given weight scheme, using Yen's algorithm
// (the Open Question in spec §9 calls for this over a topological
// enumerator, to deliver the weight-monotonic guarantee spec §8 requires).
// Paths whose min_bandwidth < b are filtered out before counting toward
// kMax. cache, when non-nil, serves the initial full shortest path (the
// same (s,d,scheme,b) shape the process-wide cache keys on); the spur
// searches below exclude arbitrary node/edge sets per iteration and so
// fall outside the cache's key shape, and stay uncached.
func KSimplePaths(g *graph.Graph, s, d int64, b float64, kMax int, cache *Cache) [][]int64 {
	if kMax <= 0 {
		kMax = DefaultKMax
	}
	scheme := WeightLinkDelay

	first, w, ok := lookupShortestPathLocal(cache, g, s, d, scheme, b)
	if !ok {
		return nil
	}

	A := []weightedPath{{nodes: first, weight: w}}
	var B []weightedPath

	for len(A) < kMax {
		prev := A[len(A)-1].nodes

		for i := 0; i < len(prev)-1; i++ {
			spurNode := prev[i]
			rootPath := append([]int64(nil), prev[:i+1]...)

			removedEdges := map[[2]int64]bool{}
			for _, a := range A {
				if len(a.nodes) > i && sameRoot(a.nodes[:i+1], rootPath) {
					removedEdges[[2]int64{a.nodes[i], a.nodes[i+1]}] = true
					removedEdges[[2]int64{a.nodes[i+1], a.nodes[i]}] = true
				}
			}
			removedNodes := map[int64]bool{}
			for _, n := range rootPath[:len(rootPath)-1] {
				removedNodes[n] = true
			}

			spurNodes, spurWeight, ok := shortestPathExcluding(g, spurNode, d, scheme, b, removedNodes, removedEdges)
			if !ok {
				continue
			}

			total := append(append([]int64(nil), rootPath[:len(rootPath)-1]...), spurNodes...)
			if hasDuplicate(total) {
				continue
			}

			rootWeight := pathWeight(g, scheme, rootPath)
			candidate := weightedPath{nodes: total, weight: rootWeight + spurWeight}

			if !containsPath(A, candidate.nodes) && !containsPath(B, candidate.nodes) {
				B = append(B, candidate)
			}
		}

		if len(B) == 0 {
			break
		}

		sort.Slice(B, func(i, j int) bool { return B[i].weight < B[j].weight })
		A = append(A, B[0])
		B = B[1:]
	}

	out := make([][]int64, 0, len(A))
	for _, a := range A {
		if metricsMinBandwidth(g, a.nodes) >= b || b <= 0 {
			out = append(out, a.nodes)
		}
	}
	return out
}

// lookupShortestPathLocal resolves through cache when supplied, falling
// back to the uncached ShortestPath otherwise.
func lookupShortestPathLocal(cache *Cache, g *graph.Graph, s, d int64, scheme WeightScheme, b float64) ([]int64, float64, bool) {
	if cache != nil {
		return cache.ShortestPath(g, s, d, scheme, b)
	}
	return ShortestPath(g, s, d, scheme, b)
}

func sameRoot(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func hasDuplicate(path []int64) bool {
	seen := make(map[int64]bool, len(path))
	for _, v := range path {
		if seen[v] {
			return true
		}
		seen[v] = true
	}
	return false
}

func containsPath(list []weightedPath, p []int64) bool {
	for _, w := range list {
		if sameRoot(w.nodes, p) {
			return true
		}
	}
	return false
}

func pathWeight(g *graph.Graph, scheme WeightScheme, path []int64) float64 {
	total := 0.0
	for i := 0; i < len(path)-1; i++ {
		e, ok := g.Edge(path[i], path[i+1])
		if !ok {
			return math.Inf(1)
		}
		total += edgeWeight(scheme, e)
	}
	return total
}

func metricsMinBandwidth(g *graph.Graph, path []int64) float64 {
	min := math.Inf(1)
	for i := 0; i < len(path)-1; i++ {
		e, ok := g.Edge(path[i], path[i+1])
		if !ok {
			return 0
		}
		if e.Bandwidth < min {
			min = e.Bandwidth
		}
	}
	return min
}

// shortestPathExcluding computes the scheme-minimal path from s to d
// skipping removedNodes (other than s) and removedEdges.
func shortestPathExcluding(g *graph.Graph, s, d int64, scheme WeightScheme, b float64, removedNodes map[int64]bool, removedEdges map[[2]int64]bool) ([]int64, float64, bool) {
	if !g.HasNode(s) || !g.HasNode(d) {
		return nil, 0, false
	}

	view := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for _, id := range g.NodeIDs() {
		if removedNodes[id] && id != s {
			continue
		}
		view.AddNode(simple.Node(id))
	}
	for _, u := range g.NodeIDs() {
		if removedNodes[u] && u != s {
			continue
		}
		for _, v := range g.Neighbors(u) {
			if v < u {
				continue
			}
			if removedNodes[v] && v != s {
				continue
			}
			if removedEdges[[2]int64{u, v}] {
				continue
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
