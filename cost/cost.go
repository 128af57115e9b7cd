// Package cost computes the per-cblk/per-block "flop unit" cost model used
// by proportional mapping and the simulator, plus the communication-cost
// table used to price remote contributions.
package cost

import (
	"github.com/ArtNlk/pastix-sub000/blendctrl"
	"github.com/ArtNlk/pastix-sub000/elimtree"
	"github.com/ArtNlk/pastix-sub000/symbol"
)

// flopMultiplier scales the real-arithmetic flop counts below for the
// factorization's actual arithmetic. LLH/LDLH operate on complex data,
// whose multiply costs about 6x a real one (4 real multiplies + 2 real
// adds per complex multiply, versus 1 for real); LU does twice the work
// of a symmetric factorization because it updates both triangles.
func flopMultiplier(f blendctrl.Factorization) float64 {
	switch f {
	case blendctrl.LLH, blendctrl.LDLH:
		return 6
	case blendctrl.LU:
		return 2
	default:
		return 1
	}
}

// Matrix holds the per-cblk and per-block cost figures derived from a
// symbol.Matrix.
type Matrix struct {
	// Total[i] is the cost of factoring cblk i's diagonal block, solving its
	// off-diagonal panel, and generating all its update contributions.
	Total []float64
	// Subtree[i] = Total[i] + sum of Subtree[son] over i's sons; used by
	// proportional mapping to split candidate sets proportionally to work.
	Subtree []float64
	// Block[j] is the cost of the update that block j generates when used as
	// the B-matrix of the right-looking GEMM into its facing cblk.
	Block []float64
}

// Build computes the cost matrix for sm given its elimination tree and the
// factorization variant (which scales the flop counts via flopMultiplier).
// dof is the degree of freedom per symbolic unknown (§4.7 pass 6); every
// row/column count below is in real (dof-multiplied) units, so dof=1
// reproduces the scalar cost model exactly.
func Build(sm *symbol.Matrix, tree *elimtree.Tree, fact blendctrl.Factorization, dof int) *Matrix {
	n := sm.CblkNbr()
	mult := flopMultiplier(fact)
	d := float64(dof)
	cm := &Matrix{
		Total:   make([]float64, n),
		Subtree: make([]float64, n),
		Block:   make([]float64, sm.BlokNbr()),
	}

	for i := int32(0); i < n; i++ {
		k := float64(sm.ColCount(i)) * d
		bloks := sm.Bloks(i)
		base := sm.Cblktab[i].Bloknum

		potrf := k * k * k / 3
		var stride float64
		for _, b := range bloks[1:] {
			stride += float64(b.Rownbr()) * d
		}
		trsm := stride * k * k

		var updates float64
		offset := 0.0
		for j, b := range bloks[1:] {
			r := float64(b.Rownbr()) * d
			trailing := stride - offset
			c := 2 * k * r * trailing
			cm.Block[base+int32(j)+1] = c * mult
			updates += c
			offset += r
		}

		cm.Total[i] = (potrf + trsm + updates) * mult
	}

	for _, i := range tree.PostOrder() {
		cm.Subtree[i] = cm.Total[i]
		for _, s := range tree.Sons(i) {
			cm.Subtree[i] += cm.Subtree[s]
		}
	}

	return cm
}

// CommParams is the {startup, bandwidth} pair used to price a message of a
// given length between two candidate processors.
type CommParams struct {
	Startup   float64 // fixed latency
	Bandwidth float64 // bytes/unit-time
}

// syncCommBucket classifies a synchronization fan-out count into one of the
// four bands the bandwidth table switches over.
func syncCommBucket(syncCommNbr int) int {
	switch {
	case syncCommNbr <= 2:
		return 0
	case syncCommNbr <= 4:
		return 1
	case syncCommNbr <= 8:
		return 2
	default:
		return 3
	}
}

// smpTable and interNodeTable hold {startup, bandwidth} for each of the four
// sync_comm_nbr buckets. Shared-memory pairs have near-zero startup and high
// bandwidth; inter-node pairs pay a larger, fan-out-dependent startup as
// contention on the network grows.
var smpTable = [4]CommParams{
	{Startup: 1e-7, Bandwidth: 1e10},
	{Startup: 2e-7, Bandwidth: 8e9},
	{Startup: 4e-7, Bandwidth: 6e9},
	{Startup: 8e-7, Bandwidth: 4e9},
}

var interNodeTable = [4]CommParams{
	{Startup: 1e-5, Bandwidth: 1e9},
	{Startup: 2e-5, Bandwidth: 8e8},
	{Startup: 5e-5, Bandwidth: 5e8},
	{Startup: 1e-4, Bandwidth: 2e8},
}

// BandwidthParams returns the communication-cost parameters for a pair of
// clusters, selecting the shared-memory or inter-node table depending on
// sameNode and the bucket depending on the current synchronization fan-out
// syncCommNbr.
func BandwidthParams(syncCommNbr int, sameNode bool) CommParams {
	b := syncCommBucket(syncCommNbr)
	if sameNode {
		return smpTable[b]
	}
	return interNodeTable[b]
}

// CommCost prices sending a message of mesglen elements between two
// clusters under the given fan-out and locality.
func CommCost(syncCommNbr int, sameNode bool, mesglen int) float64 {
	p := BandwidthParams(syncCommNbr, sameNode)
	return p.Startup + float64(mesglen)/p.Bandwidth
}
