// Package kernel implements the supernodal numerical factorization
// kernels (panel factorization, TRSM, GEMM update) that run over a
// solver.Matrix's static schedule.
package kernel

import (
	"sync"
	"sync/atomic"

	"github.com/ArtNlk/pastix-sub000/blendctrl"
	"github.com/ArtNlk/pastix-sub000/internal/blasd"
	"github.com/ArtNlk/pastix-sub000/solver"
)

// State is the mutable numerical state layered over an analyzed
// solver.Matrix: one coefficient buffer per local cblk, an atomic
// contribution counter per local task (separate from solver.Task.Ctrbcnt,
// which stays the analyze-time expected count), a lock per cblk guarding
// contribution accumulation, and the running static-pivot count.
type State struct {
	M    *solver.Matrix
	Fact blendctrl.Factorization

	// Criteria is the minimum acceptable magnitude for a diagonal pivot;
	// smaller entries are clamped to +Criteria and counted.
	Criteria float64

	CblkCoef [][]float64 // one Stride*ColNbr column-major buffer per local cblk

	ctrbcnt []int32 // atomic: live countdown, decremented by Update
	locks   []sync.Mutex
	pivots  int64 // atomic
}

// NewState allocates zeroed coefficient buffers for every local cblk and
// copies the analyze-time contribution counts as the live countdown.
func NewState(m *solver.Matrix, fact blendctrl.Factorization, criteria float64) *State {
	st := &State{
		M:        m,
		Fact:     fact,
		Criteria: criteria,
		CblkCoef: make([][]float64, len(m.Cblktab)),
		ctrbcnt:  make([]int32, len(m.Tasktab)),
		locks:    make([]sync.Mutex, len(m.Cblktab)),
	}
	dof := int(m.Dof)
	if dof < 1 {
		dof = 1
	}
	for i, c := range m.Cblktab {
		// Stride is already expressed in real (Dof-multiplied) row units
		// (see solver.Matrix.Dof); ColNbr is symbolic, so the real column
		// count is ColNbr()*dof.
		st.CblkCoef[i] = make([]float64, int(c.Stride)*int(c.ColNbr())*dof)
	}
	for i, t := range m.Tasktab {
		st.ctrbcnt[i] = t.Ctrbcnt
	}
	return st
}

// PivotCount returns the number of static pivots applied so far.
func (st *State) PivotCount() int64 { return atomic.LoadInt64(&st.pivots) }

func (st *State) bumpPivot() { atomic.AddInt64(&st.pivots, 1) }

// DecrementCtrb atomically decrements the live contribution count of local
// task t and reports whether it just reached zero (the task became Ready).
func (st *State) DecrementCtrb(t int32) bool {
	return atomic.AddInt32(&st.ctrbcnt[t], -1) == 0
}

// Ready reports whether local task t has no outstanding contributions left
// to receive, i.e. whether its cblk may be factored. This is suspension
// point (a): a worker that dequeues a task before it is Ready must wait
// (spin) rather than proceed.
func (st *State) Ready(t int32) bool {
	return atomic.LoadInt32(&st.ctrbcnt[t]) == 0
}

// dof returns the real degree of freedom per symbolic unknown, clamped to
// at least 1.
func (st *State) dof() int32 {
	if st.M.Dof < 1 {
		return 1
	}
	return st.M.Dof
}

func (st *State) lockCblk(c int32)   { st.locks[c].Lock() }
func (st *State) unlockCblk(c int32) { st.locks[c].Unlock() }

// blocksOf returns the blocks belonging to local cblk c, diagonal first.
func (st *State) blocksOf(c int32) []solver.Blok {
	lo := st.M.Cblktab[c].Bloknum
	var hi int32
	if int(c)+1 < len(st.M.Cblktab) {
		hi = st.M.Cblktab[c+1].Bloknum
	} else {
		hi = int32(len(st.M.Bloktab))
	}
	return st.M.Bloktab[lo:hi]
}

// blockView returns a column-major view rooted rownbr rows below the top
// of cblk c's coefficient buffer, spanning all of its real (degree-of-
// freedom-multiplied) columns. coefind and rownbr come straight from a
// solver.Blok and are already in real row units (solver.Matrix.Dof).
func (st *State) blockView(c int32, coefind, rownbr int32) blasd.General {
	cb := st.M.Cblktab[c]
	return blasd.General{
		Data:   st.CblkCoef[c][coefind:],
		Rows:   int(rownbr),
		Cols:   int(cb.ColNbr()) * int(st.dof()),
		Stride: int(cb.Stride),
	}
}
