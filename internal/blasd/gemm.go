// Package blasd provides the two BLAS3 primitives the numerical kernels
// need, directly on column-major []float64 coefficient buffers: a
// panel-triangular solve (Dtrsm) and a blocked, worker-pool-parallel matrix
// multiply (Dgemm). Column-major, because that is PaStiX's native
// coefficient layout; the parallel split is over column blocks of C rather
// than a full i/j/k decomposition, because the supernodal GEMM update
// C -= A*Bᵀ always has its full reduction dimension (the facing cblk's
// width) available up front, so there is no partial-sum merge to manage:
// each column block of C is produced independently by one worker.
package blasd

import (
	"runtime"
	"sync"
)

// blockCols is the width, in columns, of one parallel unit of work.
const blockCols = 64

// General is a column-major view over a flat buffer: element (i,j) lives
// at data[j*stride+i].
type General struct {
	Data   []float64
	Rows   int
	Cols   int
	Stride int
}

// At returns element (i,j): row i, column j.
func (g General) At(i, j int) float64 { return g.Data[j*g.Stride+i] }

// Set assigns element (i,j).
func (g General) Set(i, j int, v float64) { g.Data[j*g.Stride+i] = v }

func (g General) at(i, j int) float64     { return g.At(i, j) }
func (g General) set(i, j int, v float64) { g.Set(i, j, v) }

// Dgemm computes C := beta*C + alpha*A*Bᵀ, where A is m×k, B is n×k (so Bᵀ
// is k×n) and C is m×n. This is the one orientation the supernodal update
// needs (source block times the transpose of the panel it updates), so
// unlike a general BLAS Dgemm it does not take transpose flags.
func Dgemm(alpha float64, a, b General, beta float64, c General) {
	if a.Rows != c.Rows || b.Rows != c.Cols || a.Cols != b.Cols {
		panic("blasd: Dgemm dimension mismatch")
	}
	if beta != 1 {
		for j := 0; j < c.Cols; j++ {
			for i := 0; i < c.Rows; i++ {
				c.set(i, j, beta*c.at(i, j))
			}
		}
	}
	if c.Cols == 0 || c.Rows == 0 || a.Cols == 0 {
		return
	}

	nBlocks := (c.Cols + blockCols - 1) / blockCols
	if nBlocks < 2 {
		dgemmBlock(alpha, a, b, c, 0, c.Cols)
		return
	}

	nWorkers := runtime.GOMAXPROCS(0)
	if nWorkers > nBlocks {
		nWorkers = nBlocks
	}
	jobs := make(chan [2]int, nBlocks)
	for j := 0; j < c.Cols; j += blockCols {
		end := j + blockCols
		if end > c.Cols {
			end = c.Cols
		}
		jobs <- [2]int{j, end}
	}
	close(jobs)

	var wg sync.WaitGroup
	wg.Add(nWorkers)
	for w := 0; w < nWorkers; w++ {
		go func() {
			defer wg.Done()
			for job := range jobs {
				dgemmBlock(alpha, a, b, c, job[0], job[1])
			}
		}()
	}
	wg.Wait()
}

// dgemmBlock updates columns [jLo,jHi) of C with alpha*A*Bᵀ.
func dgemmBlock(alpha float64, a, b General, c General, jLo, jHi int) {
	for j := jLo; j < jHi; j++ {
		for k := 0; k < a.Cols; k++ {
			bkj := alpha * b.at(j, k)
			if bkj == 0 {
				continue
			}
			for i := 0; i < a.Rows; i++ {
				c.set(i, j, c.at(i, j)+a.at(i, k)*bkj)
			}
		}
	}
}
