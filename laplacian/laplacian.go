// Package laplacian generates symbol.Matrix fixtures standing in for the
// out-of-scope ordering and symbolic-factorization front end: a 5-point or
// 9-point finite-difference grid Laplacian, left in its natural (row-major,
// unreordered) node numbering.
package laplacian

import "github.com/ArtNlk/pastix-sub000/symbol"

// FivePoint returns the symbolic Cholesky factor of the nx-by-ny grid
// Laplacian's natural ordering (node i = y*nx+x, 5-point stencil: the four
// axis neighbors). With no fill-reducing reordering, a 2D grid's natural
// order produces a banded factor of half-bandwidth nx whose entire band
// fills in during elimination — a standard fact about banded elimination,
// not particular to this module — so every node's off-diagonal structure
// is exactly the contiguous run of later nodes within nx of it.
func FivePoint(nx, ny int32) *symbol.Matrix {
	return banded(nx*ny, nx)
}

// NinePoint is FivePoint's 8-connected-neighbor (9-point stencil)
// counterpart; including the diagonal neighbors widens the natural-order
// half-bandwidth to nx+1.
func NinePoint(nx, ny int32) *symbol.Matrix {
	return banded(nx*ny, nx+1)
}

// banded builds the single-column-per-cblk symbol matrix of an n-unknown
// banded factor with the given half-bandwidth: node i's off-diagonal
// blocks target every later node within bandwidth of it, one single-row
// block each (matching internal/fixtures' one-row-per-target-cblk style).
func banded(n, bandwidth int32) *symbol.Matrix {
	m := &symbol.Matrix{Cblktab: make([]symbol.Cblk, n+1)}
	bloknum := int32(0)
	for i := int32(0); i < n; i++ {
		m.Cblktab[i] = symbol.Cblk{Fcolnum: i, Lcolnum: i, Bloknum: bloknum}
		m.Bloktab = append(m.Bloktab, symbol.Blok{Frownum: i, Lrownum: i, Lcblknm: i, Fcblknm: i})
		bloknum++

		hi := i + bandwidth
		if hi >= n {
			hi = n - 1
		}
		for j := i + 1; j <= hi; j++ {
			m.Bloktab = append(m.Bloktab, symbol.Blok{Frownum: j, Lrownum: j, Lcblknm: i, Fcblknm: j})
			bloknum++
		}
	}
	m.Cblktab[n] = symbol.Cblk{Fcolnum: n, Lcolnum: n, Bloknum: bloknum}
	m.BuildBrowtab()
	return m
}
