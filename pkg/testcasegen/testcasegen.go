// Package testcasegen produces the test-case decks the experiment runner
// consumes: a 25-scenario predefined deck and a seeded parameterized random
// generator, both pure functions of (graph, master_seed) per spec §8
// property 7.
package testcasegen

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/metrics"
)

// TestCase is the fixed-shape scenario record of spec §3.
type TestCase struct {
	ID          string
	Source      int64
	Destination int64
	Bandwidth   float64
	Weights     metrics.Weights
	Description string
}

// weightProfile names a canonical (W_d, W_r, W_c) combination cycled across
// the deck so the generated cases exercise every objective emphasis.
type weightProfile struct {
	name string
	w    metrics.Weights
}

var profiles = []weightProfile{
	{"delay-dominant", metrics.Weights{Delay: 1.0, Reliability: 0, Resource: 0}},
	{"reliability-dominant", metrics.Weights{Delay: 0, Reliability: 1.0, Resource: 0}},
	{"resource-dominant", metrics.Weights{Delay: 0, Reliability: 0, Resource: 1.0}},
	{"balanced", metrics.Weights{Delay: 1.0 / 3, Reliability: 1.0 / 3, Resource: 1.0 / 3}},
	{"delay-reliability", metrics.Weights{Delay: 0.5, Reliability: 0.5, Resource: 0}},
}

// bandwidthFractions expresses each case's demand as a fraction of the
// lowest edge bandwidth observed in the graph, so the deck scales with
// whatever topology it is handed.
var bandwidthFractions = []float64{0, 0.25, 0.5, 0.75, 1.0}

// PredefinedCases builds the 25-scenario deck: a deterministic function of
// (g, masterSeed), per spec §8 property 7. Node pairs are drawn from a
// sorted node-id list so iteration order never leaks map-order
// nondeterminism into the draw.
func PredefinedCases(g *graph.Graph, masterSeed int64) []TestCase {
	ids := g.NodeIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) < 2 {
		return nil
	}

	minBW := minEdgeBandwidth(g)
	rng := rand.New(rand.NewSource(masterSeed))

	const deckSize = 25
	cases := make([]TestCase, 0, deckSize)
	for i := 0; i < deckSize; i++ {
		s := ids[rng.Intn(len(ids))]
		d := ids[rng.Intn(len(ids))]
		for d == s && len(ids) > 1 {
			d = ids[rng.Intn(len(ids))]
		}

		profile := profiles[i%len(profiles)]
		frac := bandwidthFractions[(i/len(profiles))%len(bandwidthFractions)]

		cases = append(cases, TestCase{
			ID:          fmt.Sprintf("case-%02d", i+1),
			Source:      s,
			Destination: d,
			Bandwidth:   frac * minBW,
			Weights:     profile.w,
			Description: fmt.Sprintf("%s, B=%.0f%% of min edge bandwidth", profile.name, frac*100),
		})
	}
	return cases
}

// GenerateRandom produces n additional cases beyond the predefined deck,
// seeded deterministically from (g, masterSeed, n) so a repeated call with
// identical arguments reproduces the same set.
func GenerateRandom(g *graph.Graph, masterSeed int64, n int) []TestCase {
	ids := g.NodeIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) < 2 || n <= 0 {
		return nil
	}

	minBW := minEdgeBandwidth(g)
	rng := rand.New(rand.NewSource(masterSeed ^ int64(n)*0x9E3779B97F4A7C15))

	cases := make([]TestCase, 0, n)
	for i := 0; i < n; i++ {
		s := ids[rng.Intn(len(ids))]
		d := ids[rng.Intn(len(ids))]
		for d == s && len(ids) > 1 {
			d = ids[rng.Intn(len(ids))]
		}

		w := metrics.Weights{Delay: rng.Float64(), Reliability: rng.Float64(), Resource: rng.Float64()}
		total := w.Delay + w.Reliability + w.Resource
		if total == 0 {
			w = metrics.Weights{Delay: 1.0 / 3, Reliability: 1.0 / 3, Resource: 1.0 / 3}
		} else {
			w.Delay /= total
			w.Reliability /= total
			w.Resource /= total
		}

		cases = append(cases, TestCase{
			ID:          fmt.Sprintf("random-%03d", i+1),
			Source:      s,
			Destination: d,
			Bandwidth:   rng.Float64() * minBW,
			Weights:     w,
			Description: "randomly generated",
		})
	}
	return cases
}

func minEdgeBandwidth(g *graph.Graph) float64 {
	min := 0.0
	found := false
	for _, u := range g.NodeIDs() {
		for _, v := range g.Neighbors(u) {
			e, ok := g.Edge(u, v)
			if !ok {
				continue
			}
			if !found || e.Bandwidth < min {
				min = e.Bandwidth
				found = true
			}
		}
	}
	if !found {
		return 0
	}
	return min
}
