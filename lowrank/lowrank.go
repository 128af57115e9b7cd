// Package lowrank implements the {u,v,rk,rkmax} low-rank block encoding and
// the two operations that produce and combine it: ge2lr compresses a dense
// panel, rradd adds a low-rank contribution into an existing compressed (or
// dense) block.
package lowrank

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ArtNlk/pastix-sub000/blendctrl"
)

// Block is a compressed m×n panel: A ≈ U*Vᵀ, U is m×Rk, V is n×Rk. Rkmax is
// the allocated rank capacity, kept as a separate field from Rk, mirroring
// the source's own allocated-vs-used rank fields; the constructors here
// always allocate exactly the rank they store, and Rradd returns a newly
// allocated Block rather than growing an existing one.
//
// Dense marks a block that rradd promoted out of compressed form because the
// combined rank no longer paid for itself (see rradd); a Dense block has
// Rk == -1, V is the n×n identity and U is the literal dense panel, so
// Uncompress still returns the right answer without a separate code path.
type Block struct {
	U, V  *mat.Dense
	Rk    int
	Rkmax int
	Dense bool
}

// M returns the row count of the panel this block represents.
func (b *Block) M() int { r, _ := b.U.Dims(); return r }

// N returns the column count of the panel this block represents.
func (b *Block) N() int { r, _ := b.V.Dims(); return r }

// Uncompress reconstructs the dense m×n panel U*Vᵀ.
func Uncompress(b *Block) *mat.Dense {
	m, n := b.M(), b.N()
	out := mat.NewDense(m, n, nil)
	out.Mul(b.U, b.V.T())
	return out
}

// Ge2lr compresses a dense m×n panel to a Block, truncating singular values
// (or, for CompressRRQR, pivoted-QR diagonal magnitudes) below
// p.Tolerance times the largest one. A block is never returned with rank 0:
// a zero matrix compresses to a rank-1 all-zero block, which uncompresses
// back to zero and keeps Rk meaningful for the compression-ratio formula.
func Ge2lr(a *mat.Dense, p blendctrl.CompressionParams) *Block {
	if p.Method == blendctrl.CompressRRQR {
		return rrqrCompress(a, p.Tolerance)
	}
	return svdCompress(a, p.Tolerance)
}

func svdCompress(a *mat.Dense, tol float64) *Block {
	m, n := a.Dims()
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return rrqrCompress(a, tol)
	}
	vals := svd.Values(nil)
	var uFull, vFull mat.Dense
	svd.UTo(&uFull)
	svd.VTo(&vFull)

	rk := truncRank(vals, tol)
	u := mat.NewDense(m, rk, nil)
	v := mat.NewDense(n, rk, nil)
	for j := 0; j < rk; j++ {
		s := math.Sqrt(vals[j])
		for i := 0; i < m; i++ {
			u.Set(i, j, uFull.At(i, j)*s)
		}
		for i := 0; i < n; i++ {
			v.Set(i, j, vFull.At(i, j)*s)
		}
	}
	return &Block{U: u, V: v, Rk: rk, Rkmax: rk}
}

// rrqrCompress is a hand-rolled column-pivoted modified Gram-Schmidt QR: at
// each step it picks the remaining column with the largest residual norm,
// orthogonalizes it against the columns already accepted, and stops once
// that residual norm falls at or below tol times the largest original
// column norm. No pack example ships pivoted QR, so this is written
// directly from the classical Businger-Golub pivoting rule rather than
// adapted from an example file (see DESIGN.md).
func rrqrCompress(a *mat.Dense, tol float64) *Block {
	m, n := a.Dims()
	work := mat.DenseCopyOf(a)
	perm := make([]int, n)
	colNorm := make([]float64, n)
	for j := range perm {
		perm[j] = j
		colNorm[j] = colNormOf(work, j, m)
	}

	maxRank := m
	if n < maxRank {
		maxRank = n
	}
	thresh := tol * maxOf(colNorm)

	q := mat.NewDense(m, maxRank, nil)
	r := mat.NewDense(maxRank, n, nil)

	rk := 0
	for k := 0; k < maxRank; k++ {
		p := k
		for j := k + 1; j < n; j++ {
			if colNorm[j] > colNorm[p] {
				p = j
			}
		}
		if colNorm[p] <= thresh {
			break
		}
		if p != k {
			swapCols(work, k, p)
			perm[k], perm[p] = perm[p], perm[k]
			colNorm[k], colNorm[p] = colNorm[p], colNorm[k]
		}

		qk := make([]float64, m)
		for i := 0; i < m; i++ {
			qk[i] = work.At(i, k)
		}
		norm := vecNorm(qk)
		if norm <= thresh {
			break
		}
		for i := range qk {
			qk[i] /= norm
		}
		for i := 0; i < m; i++ {
			q.Set(i, k, qk[i])
		}
		r.Set(k, k, norm)

		for j := k + 1; j < n; j++ {
			var proj float64
			for i := 0; i < m; i++ {
				proj += qk[i] * work.At(i, j)
			}
			r.Set(k, j, proj)
			for i := 0; i < m; i++ {
				work.Set(i, j, work.At(i, j)-proj*qk[i])
			}
			colNorm[j] = colNormOf(work, j, m)
		}
		rk++
	}
	if rk == 0 {
		rk = 1
	}

	u := mat.NewDense(m, rk, nil)
	for j := 0; j < rk; j++ {
		for i := 0; i < m; i++ {
			u.Set(i, j, q.At(i, j))
		}
	}
	v := mat.NewDense(n, rk, nil)
	for j := 0; j < n; j++ {
		orig := perm[j]
		for i := 0; i < rk; i++ {
			v.Set(orig, i, r.At(i, j))
		}
	}
	return &Block{U: u, V: v, Rk: rk, Rkmax: rk}
}

// Rradd combines two blocks representing the same m×n panel position
// (typically an existing compressed contribution and a new one being
// accumulated onto it) into one: concatenate U's and V's, QR both
// concatenations, SVD the small Rk1+Rk2 square product of the two R
// factors, and truncate by p.Tolerance. If the truncated rank no longer
// satisfies the §8.9 rank bound (rk <= min(m,n)/MinRatio), the result is
// returned dense instead of compressed.
func Rradd(b1, b2 *Block, p blendctrl.CompressionParams) *Block {
	m, n := b1.M(), b1.N()
	if b1.Dense || b2.Dense {
		sum := mat.NewDense(m, n, nil)
		sum.Add(Uncompress(b1), Uncompress(b2))
		return denseBlock(sum)
	}

	ucat := concatCols(b1.U, b2.U)
	vcat := concatCols(b1.V, b2.V)
	qu, ru := thinQR(ucat)
	qv, rv := thinQR(vcat)

	rsum := b1.Rk + b2.Rk
	prod := mat.NewDense(rsum, rsum, nil)
	prod.Mul(ru, rv.T())

	var svd mat.SVD
	if !svd.Factorize(prod, mat.SVDThin) {
		sum := mat.NewDense(m, n, nil)
		sum.Add(Uncompress(b1), Uncompress(b2))
		return denseBlock(sum)
	}
	vals := svd.Values(nil)
	var um, vm mat.Dense
	svd.UTo(&um)
	svd.VTo(&vm)

	rk := truncRank(vals, p.Tolerance)
	minDim := m
	if n < minDim {
		minDim = n
	}
	if p.MinRatio > 0 && float64(rk)*p.MinRatio > float64(minDim) {
		sum := mat.NewDense(m, n, nil)
		sum.Add(Uncompress(b1), Uncompress(b2))
		return denseBlock(sum)
	}

	uTrunc := sliceCols(&um, rk)
	vTrunc := sliceCols(&vm, rk)
	u := mat.NewDense(m, rk, nil)
	u.Mul(qu, uTrunc)
	v := mat.NewDense(n, rk, nil)
	v.Mul(qv, vTrunc)
	for j := 0; j < rk; j++ {
		s := math.Sqrt(vals[j])
		for i := 0; i < m; i++ {
			u.Set(i, j, u.At(i, j)*s)
		}
		for i := 0; i < n; i++ {
			v.Set(i, j, v.At(i, j)*s)
		}
	}
	return &Block{U: u, V: v, Rk: rk, Rkmax: rk}
}

func denseBlock(full *mat.Dense) *Block {
	m, n := full.Dims()
	v := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		v.Set(i, i, 1)
	}
	rk := m
	if n < rk {
		rk = n
	}
	return &Block{U: full, V: v, Rk: -1, Rkmax: rk, Dense: true}
}

// truncRank counts the leading (largest) singular values strictly greater
// than tol times the largest one, never returning 0.
func truncRank(vals []float64, tol float64) int {
	if len(vals) == 0 {
		return 1
	}
	thresh := tol * vals[0]
	rk := 0
	for _, s := range vals {
		if s > thresh {
			rk++
		}
	}
	if rk == 0 {
		rk = 1
	}
	return rk
}

// thinQR is a plain (unpivoted) modified Gram-Schmidt QR of an m×k matrix
// with k <= m, used by rradd to re-orthogonalize the concatenated U/V
// factors. Sharing this with rrqrCompress's pivoted variant would tangle
// the pivoting bookkeeping into a path that never needs it, so it is kept
// separate.
func thinQR(a *mat.Dense) (q, r *mat.Dense) {
	m, k := a.Dims()
	q = mat.NewDense(m, k, nil)
	r = mat.NewDense(k, k, nil)
	for j := 0; j < k; j++ {
		v := make([]float64, m)
		for i := 0; i < m; i++ {
			v[i] = a.At(i, j)
		}
		for i := 0; i < j; i++ {
			var proj float64
			for t := 0; t < m; t++ {
				proj += q.At(t, i) * a.At(t, j)
			}
			r.Set(i, j, proj)
			for t := 0; t < m; t++ {
				v[t] -= proj * q.At(t, i)
			}
		}
		norm := vecNorm(v)
		r.Set(j, j, norm)
		if norm > 0 {
			for t := 0; t < m; t++ {
				q.Set(t, j, v[t]/norm)
			}
		}
	}
	return q, r
}

func concatCols(a, b *mat.Dense) *mat.Dense {
	m, ra := a.Dims()
	_, rb := b.Dims()
	out := mat.NewDense(m, ra+rb, nil)
	for j := 0; j < ra; j++ {
		for i := 0; i < m; i++ {
			out.Set(i, j, a.At(i, j))
		}
	}
	for j := 0; j < rb; j++ {
		for i := 0; i < m; i++ {
			out.Set(i, ra+j, b.At(i, j))
		}
	}
	return out
}

func sliceCols(a *mat.Dense, k int) *mat.Dense {
	rows, _ := a.Dims()
	out := mat.NewDense(rows, k, nil)
	for j := 0; j < k; j++ {
		for i := 0; i < rows; i++ {
			out.Set(i, j, a.At(i, j))
		}
	}
	return out
}

func swapCols(a *mat.Dense, j1, j2 int) {
	rows, _ := a.Dims()
	for i := 0; i < rows; i++ {
		v1, v2 := a.At(i, j1), a.At(i, j2)
		a.Set(i, j1, v2)
		a.Set(i, j2, v1)
	}
}

func colNormOf(a *mat.Dense, j, rows int) float64 {
	var sum float64
	for i := 0; i < rows; i++ {
		v := a.At(i, j)
		sum += v * v
	}
	return math.Sqrt(sum)
}

func vecNorm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func maxOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
