package kernel

import (
	"github.com/ArtNlk/pastix-sub000/internal/blasd"
)

// Update applies the contribution of every off-diagonal block of local
// cblk c to its facing cblk: C_f -= block * blockᵀ, a rank-Rownbr(block)
// update scattered onto the square region of f's coefficient buffer that
// the block's own row range picks out. Source and target are always
// accessed through the same strided General view regardless of Layout2D
// (see solver.Build's coefind comment); 1d1d/1d2d/2d2d therefore collapse
// to one code path here — the split only still matters for how the
// caller schedules and locks the facing cblk. After scattering, the
// facing task's live contribution counter is decremented; the caller is
// told when it reaches zero.
func Update(st *State, c int32) []int32 {
	bloks := st.blocksOf(c)

	dof := int(st.dof())
	var ready []int32
	for _, b := range bloks[1:] {
		src := st.blockView(c, b.Coefind, b.Rownbr()*int32(dof))
		f := b.Fcblknm
		if f < 0 {
			continue // facing cblk is owned by a different process; the
			// scheduler ships this block to its FTGT instead of calling Update.
		}

		fc := st.M.Cblktab[f]
		off := int(b.Frownum-fc.Fcolnum) * dof // same offset in both the row and column dimension of f, scaled to real units
		m := int(b.Rownbr()) * dof
		stride := int(fc.Stride)
		fview := blasd.General{
			Data:   st.CblkCoef[f][off*stride+off:],
			Rows:   m,
			Cols:   m,
			Stride: stride,
		}

		st.lockCblk(f)
		blasd.Dgemm(-1, src, src, 1, fview)
		st.unlockCblk(f)

		if st.DecrementCtrb(f) {
			ready = append(ready, f)
		}
	}
	return ready
}
