// Package split subdivides a symbol.Matrix so no cblk's column width
// exceeds MaxBlockSize (MinBlockSize is not read: a cblk already narrower
// than it is kept as is) and, where a cblk's off-diagonal
// blocks span a facing cblk that is itself subdivided, subdivides those
// blocks horizontally so no block crosses a facing-cblk boundary.
package split

import (
	"github.com/ArtNlk/pastix-sub000/blendctrl"
	"github.com/ArtNlk/pastix-sub000/candidate"
	"github.com/ArtNlk/pastix-sub000/symbol"
)

// pieces returns the equal-width (last possibly smaller) column split of
// [fcol, lcol] into ceil(width/limit) fragments, or a single fragment if
// the width already fits, where limit is maxBlockSize expressed in
// symbolic columns: maxBlockSize is a real (degree-of-freedom-scaled)
// column budget (§4.7 pass 6), so a cblk with dof>1 is split at a
// proportionally narrower symbolic width.
func pieces(fcol, lcol int32, maxBlockSize int32, dof int32) [][2]int32 {
	width := lcol - fcol + 1
	limit := maxBlockSize / dof
	if limit < 1 {
		limit = 1
	}
	if width <= limit {
		return [][2]int32{{fcol, lcol}}
	}
	k := (width + limit - 1) / limit
	pieceWidth := (width + k - 1) / k
	var out [][2]int32
	col := fcol
	for col <= lcol {
		end := col + pieceWidth - 1
		if end > lcol {
			end = lcol
		}
		out = append(out, [2]int32{col, end})
		col = end + 1
	}
	return out
}

// Result is the output of Split: the new symbol matrix and the candidate
// table replicated to match it, one entry per new cblk, copied verbatim
// from its source cblk (costs and candidate intervals are stale until the
// caller reruns cost.Build/propmap as needed).
type Result struct {
	Symbol *symbol.Matrix
	Cands  []candidate.Cand
}

// Split subdivides sm in place semantics (a new *symbol.Matrix is returned;
// sm itself is left untouched) according to ctrl.MaxBlockSize, replicating
// cands per new cblk.
func Split(sm *symbol.Matrix, cands []candidate.Cand, ctrl *blendctrl.BlendCtrl) *Result {
	n := sm.CblkNbr()
	allPieces := make([][][2]int32, n)
	// newBase is purely transient: only newBase[n] and the per-cblk deltas
	// computed from it below survive into the new symbol matrix, so it
	// borrows ctrl's pooled scratch buffer instead of allocating.
	newBase := ctrl.IntVec(int(n) + 1)
	newBase[0] = 0
	for i := int32(0); i < n; i++ {
		dof := int32(ctrl.Solver.DofNbr)
		if dof < 1 {
			dof = 1
		}
		allPieces[i] = pieces(sm.Cblktab[i].Fcolnum, sm.Cblktab[i].Lcolnum, int32(ctrl.MaxBlockSize), dof)
		newBase[i+1] = newBase[i] + int32(len(allPieces[i]))
	}
	newN := newBase[n]

	newCblk := make([]symbol.Cblk, newN+1)
	var newBlok []symbol.Blok
	newCands := make([]candidate.Cand, newN)

	// findFacingPiece returns the index, within allPieces[facing], of the
	// piece whose column range contains col.
	findFacingPiece := func(facing int32, col int32) int {
		for idx, p := range allPieces[facing] {
			if col >= p[0] && col <= p[1] {
				return idx
			}
		}
		panic("split: row has no containing facing piece")
	}

	for i := int32(0); i < n; i++ {
		ps := allPieces[i]
		k := int32(len(ps))
		oldBloks := sm.Bloks(i)

		for p := int32(0); p < k; p++ {
			newID := newBase[i] + p
			newCblk[newID] = symbol.Cblk{
				Fcolnum: ps[p][0],
				Lcolnum: ps[p][1],
				Bloknum: int32(len(newBlok)),
			}
			newCands[newID] = cands[i]

			// Intra-cblk shrinking triangular sequence: piece p contributes
			// k-p blocks, one diagonal plus one per later piece q>p.
			for q := p; q < k; q++ {
				newBlok = append(newBlok, symbol.Blok{
					Frownum: ps[q][0],
					Lrownum: ps[q][1],
					Lcblknm: newID,
					Fcblknm: newBase[i] + q,
				})
			}

			// Original off-diagonal blocks, cut horizontally per facing
			// fragment.
			for _, b := range oldBloks[1:] {
				facing := b.Fcblknm
				row := b.Frownum
				for row <= b.Lrownum {
					qi := findFacingPiece(facing, row)
					fragEnd := allPieces[facing][qi][1]
					if fragEnd > b.Lrownum {
						fragEnd = b.Lrownum
					}
					newBlok = append(newBlok, symbol.Blok{
						Frownum: row,
						Lrownum: fragEnd,
						Lcblknm: newID,
						Fcblknm: newBase[facing] + int32(qi),
					})
					row = fragEnd + 1
				}
			}
		}
	}
	newCblk[newN] = symbol.Cblk{Fcolnum: sm.Cblktab[n].Fcolnum, Lcolnum: sm.Cblktab[n].Fcolnum, Bloknum: int32(len(newBlok))}

	out := &symbol.Matrix{
		Baseval: sm.Baseval,
		Cblktab: newCblk,
		Bloktab: newBlok,
	}
	out.BuildBrowtab()
	return &Result{Symbol: out, Cands: newCands}
}
