// Package propmap distributes processor candidates over the elimination
// tree in proportion to each subtree's cost.
package propmap

import (
	"sort"

	"github.com/ArtNlk/pastix-sub000/candidate"
	"github.com/ArtNlk/pastix-sub000/cost"
	"github.com/ArtNlk/pastix-sub000/elimtree"
)

// Map assigns, to every cblk in tree, its candidate processor interval
// [Fcandnum, Lcandnum] in cands, top-down from the root's full
// [0, TotalCores-1]. At each node the son with the largest subtree cost
// receives the most cores, proportionally; ties in the rounding remainder
// go to the leftmost son. If allCand is true every node instead receives
// the full [0, totalCores-1] interval (the debug/reference configuration).
// If noCrossProc is false, adjacent sibling intervals may share one
// boundary core to smooth rounding; if true the partition is a strict,
// disjoint cover of the father's interval.
//
// Map is a pure function of its inputs: two calls with identical arguments
// produce byte-identical cands, which is what the simulator and
// solver-matrix generation rely on (S4 determinism).
func Map(tree *elimtree.Tree, cm *cost.Matrix, cands []candidate.Cand, totalCores int, noCrossProc, allCand bool) error {
	if allCand {
		for i := range cands {
			cands[i].Fcandnum, cands[i].Lcandnum = 0, int32(totalCores-1)
		}
		return candidate.Check(tree, cands)
	}

	root := tree.Root()
	cands[root].Fcandnum, cands[root].Lcandnum = 0, int32(totalCores-1)
	assign(tree, cm, cands, root, noCrossProc)

	return candidate.Check(tree, cands)
}

func assign(tree *elimtree.Tree, cm *cost.Matrix, cands []candidate.Cand, node int32, noCrossProc bool) {
	sons := tree.Sons(node)
	if len(sons) == 0 {
		return
	}
	f, l := cands[node].Fcandnum, cands[node].Lcandnum
	size := int(l - f + 1)

	counts := apportion(cm, sons, size)

	cursor := f
	for i, s := range sons {
		n := int32(counts[i])
		if n < 1 {
			n = 1 // every live son needs at least one candidate core
		}
		lo := cursor
		hi := cursor + n - 1
		if hi > l {
			hi = l
		}
		cands[s].Fcandnum, cands[s].Lcandnum = lo, hi
		if !noCrossProc && i < len(sons)-1 {
			cursor = hi // share the boundary core with the next sibling
		} else {
			cursor = hi + 1
		}
		assign(tree, cm, cands, s, noCrossProc)
	}
}

// apportion splits size slots among sons proportionally to their subtree
// cost using the largest-remainder method: each son first gets
// floor(size*share), then the size-sum(floor) leftover slots go to the
// sons with the largest fractional remainder, ties broken toward the
// leftmost (lowest-index) son.
func apportion(cm *cost.Matrix, sons []int32, size int) []int {
	k := len(sons)
	counts := make([]int, k)
	if k == 0 {
		return counts
	}

	var total float64
	for _, s := range sons {
		total += cm.Subtree[s]
	}
	if total == 0 {
		// No cost information: split as evenly as possible.
		base := size / k
		rem := size % k
		for i := range counts {
			counts[i] = base
			if i < rem {
				counts[i]++
			}
		}
		return counts
	}

	type frac struct {
		idx  int
		frem float64
	}
	remainders := make([]frac, k)
	assigned := 0
	ideal := make([]float64, k)
	for i, s := range sons {
		ideal[i] = float64(size) * cm.Subtree[s] / total
		counts[i] = int(ideal[i])
		assigned += counts[i]
		remainders[i] = frac{idx: i, frem: ideal[i] - float64(counts[i])}
	}

	leftover := size - assigned
	sort.SliceStable(remainders, func(a, b int) bool {
		if remainders[a].frem != remainders[b].frem {
			return remainders[a].frem > remainders[b].frem
		}
		return remainders[a].idx < remainders[b].idx
	})
	for i := 0; i < leftover; i++ {
		counts[remainders[i].idx]++
	}
	return counts
}
