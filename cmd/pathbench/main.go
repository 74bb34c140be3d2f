// pathbench exercises the k-path / Pareto / optimality-gap utilities in
// pkg/benchmark standalone against a generated topology, for quick manual
// checks outside the full experiment matrix. Adapted from the teacher's
// flag-based cmd/alm-benchmark, cmd/final-bench and cmd/simple-bench,
// merged into one binary since all three drove the same kind of one-shot
// topology benchmark.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/netstrata/qosrouter/pkg/benchmark"
	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/metrics"
	"github.com/netstrata/qosrouter/pkg/optimize"
	"github.com/netstrata/qosrouter/pkg/pathutil"
)

func main() {
	var (
		numNodes  = flag.Int("nodes", 200, "number of nodes in the generated topology")
		avgDegree = flag.Int("degree", 4, "approximate average node degree")
		bandwidth = flag.Float64("bandwidth-demand", 0, "minimum per-edge bandwidth demand B")
		kMax      = flag.Int("kmax", 50, "maximum number of simple paths to enumerate")
		seed      = flag.Int64("seed", 42, "RNG seed for topology generation and algorithm comparison")
		algoName  = flag.String("algo", "GA", "optimizer to compare against the k-path benchmark (GA, ACO, PSO, SA, QL, SARSA)")
		wDelay    = flag.Float64("w-delay", 1.0/3, "delay weight")
		wRel      = flag.Float64("w-reliability", 1.0/3, "reliability weight")
		wRes      = flag.Float64("w-resource", 1.0/3, "resource weight")
	)
	flag.Parse()

	w := metrics.Weights{Delay: *wDelay, Reliability: *wRel, Resource: *wRes}
	if !w.Valid() {
		log.Fatalf("weights must be non-negative and sum to 1: got %+v", w)
	}

	log.Printf("generating topology: %d nodes, ~degree %d, seed %d", *numNodes, *avgDegree, *seed)
	g := generateTopology(*numNodes, *avgDegree, *seed)

	source, dest := int64(0), int64(*numNodes-1)
	cache := pathutil.NewCache(pathutil.DefaultCacheSize)

	start := time.Now()
	cheapest := benchmark.KCheapestPaths(g, source, dest, w, *bandwidth, *kMax, cache)
	enumTime := time.Since(start)

	if len(cheapest) == 0 {
		log.Printf("no feasible simple path found between %d and %d under B=%.1f", source, dest, *bandwidth)
		os.Exit(1)
	}

	front := benchmark.ParetoFront(cheapest)

	fmt.Println("================================================================")
	fmt.Println("PATH BENCHMARK RESULTS")
	fmt.Println("================================================================")
	fmt.Printf("Topology:          %d nodes, %d edges\n", g.NodeCount(), g.EdgeCount())
	fmt.Printf("Source -> Dest:    %d -> %d\n", source, dest)
	fmt.Printf("Bandwidth demand:  %.1f Mbps\n", *bandwidth)
	fmt.Printf("Paths enumerated:  %d (k_max=%d) in %v\n", len(cheapest), *kMax, enumTime)
	fmt.Printf("Pareto front size: %d\n", len(front))
	fmt.Printf("Cheapest cost:     %.6f (hops=%d)\n", cheapest[0].Cost, cheapest[0].Metrics.HopCount)

	registry := optimize.DefaultRegistry()
	algo, ok := registry[*algoName]
	if !ok {
		log.Fatalf("unknown algorithm %q", *algoName)
	}

	algoStart := time.Now()
	result, err := algo.Optimize(optimize.Request{
		Graph:       g,
		Source:      source,
		Destination: dest,
		Weights:     w,
		Bandwidth:   *bandwidth,
		Seed:        *seed,
		Cache:       cache,
	})
	algoTime := time.Since(algoStart)
	if err != nil {
		log.Fatalf("%s optimize failed: %v", *algoName, err)
	}

	fmt.Println("----------------------------------------------------------------")
	fmt.Printf("%s result:         success=%v cost=%.6f time=%v (wall %v)\n",
		*algoName, result.Success, result.Fitness, result.ComputationTimeMs, algoTime)

	if result.Success {
		gap := benchmark.OptimalityGap(result.Fitness, cheapest)
		fmt.Printf("Optimality gap:    %.4f%%\n", gap*100)
	}
	fmt.Println("================================================================")
}

// generateTopology builds a connected random graph with attribute values
// sampled uniformly within the ranges spec §3 names: a random spanning
// tree guarantees connectivity, then extra random edges raise the average
// degree toward avgDegree.
func generateTopology(numNodes, avgDegree int, seed int64) *graph.Graph {
	rng := rand.New(rand.NewSource(seed))
	g := graph.New()

	for i := 0; i < numNodes; i++ {
		n := &graph.Node{
			ID:              int64(i),
			ProcessingDelay: 0.5 + rng.Float64()*1.5,
			NodeReliability: 0.95 + rng.Float64()*0.049,
		}
		if err := g.AddNode(n); err != nil {
			log.Fatalf("add node: %v", err)
		}
	}

	addEdge := func(u, v int64) {
		if u == v {
			return
		}
		if _, ok := g.Edge(u, v); ok {
			return
		}
		e := &graph.Edge{
			From:            u,
			To:              v,
			Bandwidth:       100 + rng.Float64()*900,
			LinkDelay:       3 + rng.Float64()*12,
			LinkReliability: 0.95 + rng.Float64()*0.049,
		}
		if err := g.AddEdge(e); err != nil {
			log.Fatalf("add edge: %v", err)
		}
	}

	// Random spanning tree for guaranteed connectivity.
	for i := 1; i < numNodes; i++ {
		parent := int64(rng.Intn(i))
		addEdge(parent, int64(i))
	}

	// Extra random edges toward the target average degree.
	targetEdges := numNodes * avgDegree / 2
	for e := numNodes - 1; e < targetEdges; e++ {
		u := int64(rng.Intn(numNodes))
		v := int64(rng.Intn(numNodes))
		addEdge(u, v)
	}

	return g
}
