package optimize

import (
	"math/rand"

	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/pathutil"
	"github.com/netstrata/qosrouter/pkg/validity"
)

// commonInternalNodes returns the internal nodes (excluding both
// endpoints) shared by two paths, used by GA crossover (spec §4.3).
func commonInternalNodes(p1, p2 []int64) []int64 {
	in2 := make(map[int64]bool, len(p2)-2)
	for i := 1; i < len(p2)-1; i++ {
		in2[p2[i]] = true
	}

	var common []int64
	for i := 1; i < len(p1)-1; i++ {
		if in2[p1[i]] {
			common = append(common, p1[i])
		}
	}
	return common
}

// edgeCrossover implements the GA crossover operator of spec §4.3: find a
// common internal node c, child1 = p1[0..c] ++ p2[c..], child2 symmetric.
// Returns the parents unchanged if there is no common internal node, or
// either child would not be simple after concatenation.
func edgeCrossover(p1, p2 []int64, rng *rand.Rand) (child1, child2 []int64) {
	common := commonInternalNodes(p1, p2)
	if len(common) == 0 {
		return append([]int64(nil), p1...), append([]int64(nil), p2...)
	}

	c := common[rng.Intn(len(common))]
	i1 := indexOf(p1, c)
	i2 := indexOf(p2, c)

	a := append(append([]int64(nil), p1[:i1]...), p2[i2:]...)
	b := append(append([]int64(nil), p2[:i2]...), p1[i1:]...)

	if hasDuplicates(a) || hasDuplicates(b) {
		return append([]int64(nil), p1...), append([]int64(nil), p2...)
	}

	return a, b
}

func indexOf(path []int64, v int64) int {
	for i, x := range path {
		if x == v {
			return i
		}
	}
	return -1
}

func hasDuplicates(path []int64) bool {
	seen := make(map[int64]bool, len(path))
	for _, v := range path {
		if seen[v] {
			return true
		}
		seen[v] = true
	}
	return false
}

// jaccard computes the Jaccard similarity between the node sets of two
// paths.
func jaccard(p1, p2 []int64) float64 {
	set1 := make(map[int64]bool, len(p1))
	for _, v := range p1 {
		set1[v] = true
	}
	set2 := make(map[int64]bool, len(p2))
	for _, v := range p2 {
		set2[v] = true
	}

	inter, union := 0, 0
	seen := make(map[int64]bool, len(set1)+len(set2))
	for v := range set1 {
		seen[v] = true
		if set2[v] {
			inter++
		}
	}
	for v := range set2 {
		if !seen[v] {
			seen[v] = true
		}
	}
	union = len(seen)
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}

// diversity estimates population diversity as 1 minus the average Jaccard
// similarity over a random sample of pairs, per spec §4.3.
func diversity(population [][]int64, rng *rand.Rand, sampleSize int) float64 {
	n := len(population)
	if n < 2 {
		return 1
	}
	if sampleSize <= 0 {
		sampleSize = 30
	}

	total := 0.0
	for k := 0; k < sampleSize; k++ {
		i := rng.Intn(n)
		j := rng.Intn(n)
		if i == j {
			j = (j + 1) % n
		}
		total += jaccard(population[i], population[j])
	}

	avgSim := total / float64(sampleSize)
	return 1 - avgSim
}

// segmentReplace picks indices i<j in path and replaces path[i..j] with a
// walk from path[i] to path[j] respecting b. Returns the original path
// unchanged if no feasible replacement walk is found.
func segmentReplace(g *graph.Graph, path []int64, b float64, rng *rand.Rand) []int64 {
	if len(path) < 4 {
		return path
	}
	i := 1 + rng.Intn(len(path)-2)
	j := i + 1 + rng.Intn(len(path)-i-1)
	if j <= i {
		return path
	}

	maxLen := pathutil.MaxWalkLength(g, path[i], path[j])
	segment, ok := pathutil.RetryWalk(g, path[i], path[j], b, maxLen, pathutil.DefaultGuidedProbability, rng, 20)
	if !ok {
		return path
	}

	candidate := append(append(append([]int64(nil), path[:i]...), segment...), path[j+1:]...)
	if hasDuplicates(candidate) {
		return path
	}
	return candidate
}

// nodeInsertion inserts a common neighbor of path[i] and path[i+1] between
// them, if one exists with a bandwidth-feasible pair of edges. Returns the
// original path unchanged otherwise.
func nodeInsertion(g *graph.Graph, path []int64, b float64, rng *rand.Rand) []int64 {
	if len(path) < 2 {
		return path
	}
	i := rng.Intn(len(path) - 1)
	u, v := path[i], path[i+1]

	candidates := commonFeasibleNeighbors(g, u, v, b, path)
	if len(candidates) == 0 {
		return path
	}
	pick := candidates[rng.Intn(len(candidates))]

	out := make([]int64, 0, len(path)+1)
	out = append(out, path[:i+1]...)
	out = append(out, pick)
	out = append(out, path[i+1:]...)
	return out
}

// nodeReplace replaces an internal node path[i] with a common neighbor of
// path[i-1] and path[i+1], distinct from path[i], feasible under b.
func nodeReplace(g *graph.Graph, path []int64, b float64, rng *rand.Rand) []int64 {
	if len(path) < 3 {
		return path
	}
	i := 1 + rng.Intn(len(path)-2)
	u, v := path[i-1], path[i+1]

	candidates := commonFeasibleNeighbors(g, u, v, b, path)
	if len(candidates) == 0 {
		return path
	}
	pick := candidates[rng.Intn(len(candidates))]

	out := append([]int64(nil), path...)
	out[i] = pick
	return out
}

// commonFeasibleNeighbors returns neighbors of both u and v whose incident
// edges meet the bandwidth demand b, excluding nodes already in path.
func commonFeasibleNeighbors(g *graph.Graph, u, v int64, b float64, path []int64) []int64 {
	inPath := make(map[int64]bool, len(path))
	for _, n := range path {
		inPath[n] = true
	}

	uNbr := make(map[int64]bool)
	for _, n := range g.Neighbors(u) {
		if e, ok := g.Edge(u, n); ok && (b <= 0 || e.Bandwidth >= b) {
			uNbr[n] = true
		}
	}

	var out []int64
	for _, n := range g.Neighbors(v) {
		if inPath[n] || !uNbr[n] {
			continue
		}
		if e, ok := g.Edge(v, n); ok && (b <= 0 || e.Bandwidth >= b) {
			out = append(out, n)
		}
	}
	return out
}

// isSimpleFeasible reports whether path is a simple S-D path in g meeting
// bandwidth demand b, using the shared validity checker.
func isSimpleFeasible(g *graph.Graph, path []int64, s, d int64, b float64) bool {
	return validity.IsValid(g, path, s, d, b)
}
