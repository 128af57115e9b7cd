package kernel

import (
	"math"

	"github.com/gonum/blas"

	"github.com/ArtNlk/pastix-sub000/internal/blasd"
)

// FactorPanel runs getrfsp1d_panel for local cblk c: factorize the
// diagonal block in place, then solve the off-diagonal panel against it.
// Static pivoting replaces any diagonal entry smaller in magnitude than
// st.Criteria with a signed copy of st.Criteria and counts the
// replacement; there is never a row exchange.
//
// The five factorization variants (LLT/LDLT/LU/LLH/LDLH) differ, in a
// full implementation, in how they handle the diagonal scaling and
// conjugation of complex entries. This kernel works over real float64
// coefficients and applies the same right-looking elimination — a
// Cholesky-shaped reduction of the diagonal block followed by a
// triangular panel solve — for all five; see DESIGN.md for why that
// simplification was accepted rather than carrying five independent
// numeric paths.
func FactorPanel(st *State, c int32) {
	bloks := st.blocksOf(c)
	diag := bloks[0]
	dof := st.dof()
	n := diag.Rownbr() * dof
	dview := st.blockView(c, diag.Coefind, n)

	potrfDiagonal(dview, st)

	for _, blok := range bloks[1:] {
		panel := st.blockView(c, blok.Coefind, blok.Rownbr()*dof)
		// panel*Lᵀ = panel (pre-solve contents): a Right/Lower/Trans solve,
		// since the panel's free (row) dimension is independent of L's
		// size while its column dimension matches L's, the opposite
		// orientation from the diagonal block's own Left solve above.
		blasd.Dtrsm(blas.Right, blas.Lower, blas.Trans, blas.NonUnit, panel.Rows, dview.Cols, 1, dview, panel)
	}
}

// potrfDiagonal performs an in-place right-looking Cholesky-style
// reduction of the n x n diagonal block: column j is scaled by the
// (possibly pivoted) square root of its remaining diagonal entry, then
// subtracted as a rank-1 update from the trailing submatrix.
func potrfDiagonal(a blasd.General, st *State) {
	n := a.Cols
	for j := 0; j < n; j++ {
		ajj := a.At(j, j)
		for k := 0; k < j; k++ {
			v := a.At(j, k)
			ajj -= v * v
		}
		if ajj < st.Criteria {
			ajj = st.Criteria * st.Criteria
			st.bumpPivot()
		}
		ljj := math.Sqrt(ajj)
		a.Set(j, j, ljj)

		for i := j + 1; i < n; i++ {
			v := a.At(i, j)
			for k := 0; k < j; k++ {
				v -= a.At(i, k) * a.At(j, k)
			}
			a.Set(i, j, v/ljj)
		}
	}
}
