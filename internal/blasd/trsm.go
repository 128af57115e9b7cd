package blasd

import "github.com/gonum/blas"

// Dtrsm solves op(A)*X = alpha*B (s == blas.Left) or X*op(A) = alpha*B
// (s == blas.Right) in place over B, where A is the n×n triangular factor
// named by ul/tA/d (n == m for Left, n == the column count of B for
// Right) and op is NoTrans or Trans per tA. PaStiX's panel solve only ever
// needs Lower A: Left solves the diagonal block's own in-place forward
// elimination (LLT uses NoTrans on L itself, LDLT the same with a
// diagonal scale folded into A); Right/Trans solves an off-diagonal
// panel stored with its free (row) dimension independent of L's size and
// its triangular (column) dimension matching L's, i.e. X*Lᵀ = B, since the
// panel's physical layout shares its column-major stride with the
// diagonal block it solves against rather than being pre-transposed.
// Any other combination is a programmer error, not a runtime condition,
// hence the panic.
func Dtrsm(s blas.Side, ul blas.Uplo, tA blas.Transpose, d blas.Diag, m, n int, alpha float64, a General, b General) {
	if ul != blas.Lower {
		panic("blasd: Dtrsm only supports Lower")
	}
	if m == 0 || n == 0 {
		return
	}
	if alpha != 1 {
		for j := 0; j < n; j++ {
			for i := 0; i < m; i++ {
				b.set(i, j, alpha*b.at(i, j))
			}
		}
	}
	unit := d == blas.Unit
	switch s {
	case blas.Left:
		dtrsmLeft(tA, unit, m, n, a, b)
	case blas.Right:
		dtrsmRight(tA, unit, m, n, a, b)
	default:
		panic("blasd: Dtrsm only supports Left/Right")
	}
}

func dtrsmLeft(tA blas.Transpose, unit bool, m, n int, a, b General) {
	if tA == blas.NoTrans {
		// Forward substitution: row i of X depends only on rows < i.
		for i := 0; i < m; i++ {
			if !unit {
				inv := 1 / a.at(i, i)
				for j := 0; j < n; j++ {
					b.set(i, j, b.at(i, j)*inv)
				}
			}
			for k := i + 1; k < m; k++ {
				aki := a.at(k, i)
				if aki == 0 {
					continue
				}
				for j := 0; j < n; j++ {
					b.set(k, j, b.at(k, j)-aki*b.at(i, j))
				}
			}
		}
		return
	}
	// Transposed (Aᵀ X = B): back substitution from the last row.
	for i := m - 1; i >= 0; i-- {
		if !unit {
			inv := 1 / a.at(i, i)
			for j := 0; j < n; j++ {
				b.set(i, j, b.at(i, j)*inv)
			}
		}
		for k := 0; k < i; k++ {
			aik := a.at(i, k)
			if aik == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				b.set(k, j, b.at(k, j)-aik*b.at(i, j))
			}
		}
	}
}

// dtrsmRight solves X*op(A) = B in place over B (m×n, A n×n), op per tA.
func dtrsmRight(tA blas.Transpose, unit bool, m, n int, a, b General) {
	if tA == blas.Trans {
		// X*Aᵀ = B: column j of X depends only on columns < j; once
		// solved, its contribution scatters onto every later column k>j
		// for which A(k,j) != 0.
		for j := 0; j < n; j++ {
			if !unit {
				inv := 1 / a.at(j, j)
				for i := 0; i < m; i++ {
					b.set(i, j, b.at(i, j)*inv)
				}
			}
			for k := j + 1; k < n; k++ {
				akj := a.at(k, j)
				if akj == 0 {
					continue
				}
				for i := 0; i < m; i++ {
					b.set(i, k, b.at(i, k)-akj*b.at(i, j))
				}
			}
		}
		return
	}
	// X*A = B: back substitution from the last column.
	for j := n - 1; j >= 0; j-- {
		if !unit {
			inv := 1 / a.at(j, j)
			for i := 0; i < m; i++ {
				b.set(i, j, b.at(i, j)*inv)
			}
		}
		for k := 0; k < j; k++ {
			ajk := a.at(j, k)
			if ajk == 0 {
				continue
			}
			for i := 0; i < m; i++ {
				b.set(i, k, b.at(i, k)-ajk*b.at(i, j))
			}
		}
	}
}
