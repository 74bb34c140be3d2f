// Package graph implements the immutable-after-load network topology used
// by the QoS path optimizers: nodes and edges carrying the attributes the
// cost kernel needs, plus the neighbor cache every optimizer walks.
package graph

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/graph/simple"
)

// Node carries the per-node attributes the metric kernel reads.
type Node struct {
	ID               int64
	ProcessingDelay  float64 // ms, in [0.5, 2.0]
	NodeReliability  float64 // in [0.95, 0.999]
}

// Edge carries the per-edge attributes the metric kernel reads. Edges are
// undirected; From/To is the orientation they were added in, but Graph
// exposes them symmetrically through Neighbors and Edge.
type Edge struct {
	From          int64
	To            int64
	Bandwidth     float64 // Mbps, in [100, 1000]
	LinkDelay     float64 // ms, in [3, 15]
	LinkReliability float64 // in [0.95, 0.999]
}

// Graph is the connectivity graph described in spec §3. It is safe for
// concurrent reads; writes (AddNode, AddEdge, RemoveEdge) must be
// serialized by the caller relative to any in-flight optimizer call, per
// §5's shared-resource policy.
type Graph struct {
	mu sync.RWMutex

	g     *simple.WeightedUndirectedGraph
	nodes map[int64]*Node
	edges map[int64]map[int64]*Edge
	nbr   map[int64][]int64
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		g:     simple.NewWeightedUndirectedGraph(0, 0),
		nodes: make(map[int64]*Node),
		edges: make(map[int64]map[int64]*Edge),
		nbr:   make(map[int64][]int64),
	}
}

// AddNode registers a node. Returns an error if the node already exists.
func (gr *Graph) AddNode(n *Node) error {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	if _, exists := gr.nodes[n.ID]; exists {
		return fmt.Errorf("graph: node %d already exists", n.ID)
	}

	gr.g.AddNode(simple.Node(n.ID))
	gr.nodes[n.ID] = n
	gr.edges[n.ID] = make(map[int64]*Edge)
	return nil
}

// AddEdge registers an undirected edge between two existing nodes.
func (gr *Graph) AddEdge(e *Edge) error {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	if _, exists := gr.nodes[e.From]; !exists {
		return fmt.Errorf("graph: node %d does not exist", e.From)
	}
	if _, exists := gr.nodes[e.To]; !exists {
		return fmt.Errorf("graph: node %d does not exist", e.To)
	}

	weight := 1.0 / e.Bandwidth
	line := gr.g.NewWeightedEdge(simple.Node(e.From), simple.Node(e.To), weight)
	gr.g.SetWeightedEdge(line)

	gr.edges[e.From][e.To] = e
	reverse := &Edge{From: e.To, To: e.From, Bandwidth: e.Bandwidth, LinkDelay: e.LinkDelay, LinkReliability: e.LinkReliability}
	gr.edges[e.To][e.From] = reverse

	gr.nbr[e.From] = append(gr.nbr[e.From], e.To)
	gr.nbr[e.To] = append(gr.nbr[e.To], e.From)

	return nil
}

// RemoveEdge deletes an edge (the "chaos removal" event in spec §3/§5).
// The graph may become disconnected afterward; callers must serialize this
// against any in-flight optimizer call.
func (gr *Graph) RemoveEdge(u, v int64) {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	gr.g.RemoveEdge(u, v)
	delete(gr.edges[u], v)
	delete(gr.edges[v], u)
	gr.nbr[u] = removeValue(gr.nbr[u], v)
	gr.nbr[v] = removeValue(gr.nbr[v], u)
}

func removeValue(s []int64, v int64) []int64 {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// Node returns the node attributes for id.
func (gr *Graph) Node(id int64) (*Node, bool) {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	n, ok := gr.nodes[id]
	return n, ok
}

// HasNode reports whether id is a valid node in the graph.
func (gr *Graph) HasNode(id int64) bool {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	_, ok := gr.nodes[id]
	return ok
}

// Edge returns the edge attributes between u and v, in either orientation.
func (gr *Graph) Edge(u, v int64) (*Edge, bool) {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	m, ok := gr.edges[u]
	if !ok {
		return nil, false
	}
	e, ok := m[v]
	return e, ok
}

// Neighbors returns the cached adjacency list for v. The returned slice
// must not be mutated by the caller.
func (gr *Graph) Neighbors(v int64) []int64 {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	return gr.nbr[v]
}

// NodeCount returns |V|.
func (gr *Graph) NodeCount() int {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	return len(gr.nodes)
}

// EdgeCount returns |E| (undirected edges, counted once).
func (gr *Graph) EdgeCount() int {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	total := 0
	for _, m := range gr.edges {
		total += len(m)
	}
	return total / 2
}

// NodeIDs returns all node ids in unspecified order.
func (gr *Graph) NodeIDs() []int64 {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	ids := make([]int64, 0, len(gr.nodes))
	for id := range gr.nodes {
		ids = append(ids, id)
	}
	return ids
}

// Underlying exposes the gonum graph for algorithms (Dijkstra, Yen's) that
// need to walk it directly. Callers must not mutate it; use AddEdge/
// RemoveEdge instead.
func (gr *Graph) Underlying() *simple.WeightedUndirectedGraph {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	return gr.g
}

// Connected reports whether every node is reachable from start via a BFS
// over the current topology. Used at load time to enforce the §3 connected
// invariant; after chaos removal the graph is allowed to become
// disconnected and this is no longer checked.
func (gr *Graph) Connected() bool {
	ids := gr.NodeIDs()
	if len(ids) == 0 {
		return true
	}

	visited := make(map[int64]bool, len(ids))
	queue := []int64{ids[0]}
	visited[ids[0]] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range gr.Neighbors(cur) {
			if !visited[nb] {
				visited[nb] = true
				queue = append(queue, nb)
			}
		}
	}

	return len(visited) == len(ids)
}
