// Package solver compacts the global symbolic matrix, candidate table and
// simulation result into the per-process local SolverMatrix that drives
// numerical factorization: local cblk/block numbering, per-thread static
// task queues and the indtab contribution index used to locate each
// off-diagonal block's target (local task or remote FTGT).
package solver

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/ArtNlk/pastix-sub000/blendctrl"
	"github.com/ArtNlk/pastix-sub000/candidate"
	"github.com/ArtNlk/pastix-sub000/pastixerr"
	"github.com/ArtNlk/pastix-sub000/simulate"
	"github.com/ArtNlk/pastix-sub000/symbol"
)

// localSentinel encodes a non-local global id g as -g-1, so 0 stays
// distinguishable from "not present" and the encoding is reversible.
func localSentinel(g int32) int32 { return -g - 1 }

// Cblk is a column-block local to this process.
type Cblk struct {
	Fcolnum, Lcolnum int32
	Bloknum          int32 // first local block index
	Stride           int32 // total row count across this cblk's blocks
	Brownum          int32
	Brow2D           int32 // split point: [Brownum,Brow2D) are 1D sources, [Brow2D,next) are 2D
	Layout2D         bool
	Compressed       bool
}

func (c Cblk) ColNbr() int32 { return c.Lcolnum - c.Fcolnum + 1 }

// Blok is an off-diagonal (or diagonal) block local to this process.
type Blok struct {
	Frownum, Lrownum int32
	Lcblknm, Fcblknm int32 // Fcblknm is a local id, or localSentinel(global) if the facing cblk isn't local
	Coefind          int32 // offset into the owning cblk's coefficient buffer
	Browind          int32
}

func (b Blok) Rownbr() int32 { return b.Lrownum - b.Frownum + 1 }

// Task is a local unit of factorization work: factor the diagonal of
// Cblknum, TRSM its panel, then GEMM-update every facing cblk named by the
// off-diagonal blocks starting at Bloknum.
type Task struct {
	Cblknum int32
	Bloknum int32
	Ctrbcnt int32
	Ftgtcnt int32
	Prionum int32
	Indnum  int32 // start offset into Indtab
}

// Ftgt is a local fan-in target: a buffer that accumulates remote
// contributions destined for Taskdst before it can run.
type Ftgt struct {
	Ctrbnbr, Ctrbcnt          int32
	Procdst, Taskdst, Blokdst int32
	Prionum                   int32
	Fcolnum, Lcolnum          int32
	Frownum, Lrownum          int32
	Mesglen                   int32
}

// indtabSentinelOffset is added to len(ftgttab) to form the sentinel stored
// in Indtab when an off-diagonal block has no facing contribution target at
// all (should not occur for a well-formed symbol matrix, but kept
// decodable).
const indtabSentinelOffset = 1

// Matrix is the per-process local solver matrix: the only structure
// numerical factorization and the task scheduler operate on.
type Matrix struct {
	Clustnum int
	Procnbr  int

	Cblktab []Cblk
	Bloktab []Blok
	Browtab []int32
	Tasktab []Task
	Ftgttab []Ftgt
	Indtab  []int32

	// Ttsktab[t] is the list of local task indices thread t executes, in
	// the order it must execute them (ascending Prionum).
	Ttsktab [][]int32

	Cblklocalnum []int32 // global cblk id -> local id, or localSentinel(global)
	Bloklocalnum []int32 // global blok id -> local id, or localSentinel(global)

	Cblkmin2d  int32 // first local cblk id flagged Layout2D, or len(Cblktab) if none
	Cblkmaxblk int32 // largest block count over any local cblk
	Arftmax    int32 // largest single block area (Rownbr * owning cblk's ColNbr), in real units
	Diagmax    int32 // largest diagonal panel area (ColNbr^2) over local cblks, in real units
	Gemmmax    int32 // largest contiguous GEMM update area (Rownbr * trailing width), in real units

	// Dof is the degree of freedom per symbolic unknown (§4.7 pass 6):
	// Stride and Coefind are already expressed in real (Dof-multiplied) row
	// units, while Cblk.ColNbr stays symbolic, so a real column count is
	// ColNbr()*Dof. Defaults to 1 for scalar problems.
	Dof int32
}

// Build generates the local solver matrix for process clustnum out of
// procnbr, given the (already split and candidate-mapped) global symbol
// matrix, its per-cblk candidates and the simulator's task order/FTGT
// accounting. A cblk is local iff some core of its candidate processor
// interval maps to clustnum through core2clust (every block of a cblk is owned by the same interval,
// so block-level locality reduces to cblk-level locality). ctrl supplies
// the pooled scratch buffer used while compacting the local cblk list.
func Build(sm *symbol.Matrix, cands []candidate.Cand, sim *simulate.Result, core2clust []int32, clustnum, procnbr int, ctrl *blendctrl.BlendCtrl, dof int32) (*Matrix, error) {
	if dof < 1 {
		dof = 1
	}
	n := sm.CblkNbr()

	isLocal := func(i int32) bool {
		for p := cands[i].Fcandnum; p <= cands[i].Lcandnum; p++ {
			if int(core2clust[p]) == clustnum {
				return true
			}
		}
		return false
	}

	cblklocal := make([]int32, n)
	bloklocal := make([]int32, sm.BlokNbr())
	// localCblks never escapes this call (every entry it holds is copied
	// into Cblktab/newBlok below), so it borrows ctrl's pooled scratch
	// buffer instead of allocating.
	localCblks := ctrl.IntVec2(int(n))[:0]
	for i := int32(0); i < n; i++ {
		if isLocal(i) {
			cblklocal[i] = int32(len(localCblks))
			localCblks = append(localCblks, i)
		} else {
			cblklocal[i] = localSentinel(i)
		}
	}
	for g := int32(0); g < sm.BlokNbr(); g++ {
		bloklocal[g] = localSentinel(g)
	}

	m := &Matrix{Clustnum: clustnum, Procnbr: procnbr, Dof: dof}
	m.Cblklocalnum = cblklocal

	var newBlok []Blok
	m.Cblkmin2d = int32(len(localCblks))
	for li, gi := range localCblks {
		c := sm.Cblktab[gi]
		bloks := sm.Bloks(gi)
		first := int32(len(newBlok))

		var stride int32
		for gb, b := range bloks {
			stride += b.Rownbr() * dof
			g := c.Bloknum + int32(gb)
			bloklocal[g] = int32(len(newBlok))
			newBlok = append(newBlok, Blok{
				Frownum: b.Frownum,
				Lrownum: b.Lrownum,
				Lcblknm: int32(li),
				Browind: b.Browind,
			})
		}

		layout2D := cands[gi].CblkType.Has(candidate.Layout2D)
		compressed := cands[gi].CblkType.Has(candidate.Compressed)
		m.Cblktab = append(m.Cblktab, Cblk{
			Fcolnum:    c.Fcolnum,
			Lcolnum:    c.Lcolnum,
			Bloknum:    first,
			Stride:     stride,
			Layout2D:   layout2D,
			Compressed: compressed,
		})
		if layout2D && int32(li) < m.Cblkmin2d {
			m.Cblkmin2d = int32(li)
		}
		if int32(len(bloks)) > m.Cblkmaxblk {
			m.Cblkmaxblk = int32(len(bloks))
		}

		// coefind: row offset into the owning cblk's coefficient buffer.
		// Both layouts keep one physical buffer per cblk here; Layout2D
		// only changes which GEMM specialization the kernel package
		// selects at update time (1d1d/1d2d/2d2d), not the backing
		// storage, which stays a single strided Stride x ColNbr buffer.
		var off int32
		for gb := range bloks {
			idx := first + int32(gb)
			b := &newBlok[idx]
			b.Coefind = off
			off += b.Rownbr() * dof
			area := b.Rownbr() * dof * sm.ColCount(gi) * dof
			if area > m.Arftmax {
				m.Arftmax = area
			}
		}
		if w := (c.Lcolnum - c.Fcolnum + 1) * dof; w*w > m.Diagmax {
			m.Diagmax = w * w
		}
	}
	m.Bloklocalnum = bloklocal

	// Resolve Fcblknm now that every local cblk has its final local id.
	for li, gi := range localCblks {
		bloks := sm.Bloks(gi)
		base := m.Cblktab[li].Bloknum
		for gb, b := range bloks {
			idx := base + int32(gb)
			newBlok[idx].Fcblknm = cblklocal[b.Fcblknm] // local id, or already localSentinel(global)
			if gb > 0 {
				if trailing := sm.ColCount(gi) * dof; b.Rownbr()*dof*trailing > m.Gemmmax {
					m.Gemmmax = b.Rownbr() * dof * trailing
				}
			}
		}
	}
	m.Bloktab = newBlok

	// Browtab: filter the global table down to entries whose owning block
	// is local, remapped to local block ids; recompute Brownum/Brow2D per
	// local cblk and each kept block's Browind.
	var newBrow []int32
	for li, gi := range localCblks {
		start := int32(len(newBrow))
		var split1D, split2D []int32
		for _, gb := range sm.Brow(gi) {
			srcCblk := sm.Bloktab[gb].Lcblknm
			if cands[srcCblk].CblkType.Has(candidate.Layout2D) {
				split2D = append(split2D, gb)
			} else {
				split1D = append(split1D, gb)
			}
		}
		for _, gb := range split1D {
			newBrow = append(newBrow, remapBrow(gb, bloklocal))
		}
		brow2D := int32(len(newBrow))
		for _, gb := range split2D {
			newBrow = append(newBrow, remapBrow(gb, bloklocal))
		}
		m.Cblktab[li].Brownum = start
		m.Cblktab[li].Brow2D = brow2D
	}
	m.Browtab = newBrow
	for bi := range m.Bloktab {
		m.Bloktab[bi].Browind = -1
	}
	for row, g := range newBrow {
		if g >= 0 {
			m.Bloktab[g].Browind = int32(row)
		}
	}

	// Tasks: keep only local tasks, preserving simulator order (already
	// ascending cblk id, hence a valid topological order).
	var localTasks []int32
	tasklocal := make([]int32, n)
	for i := range tasklocal {
		tasklocal[i] = localSentinel(int32(i))
	}
	for li, gi := range localCblks {
		tasklocal[gi] = int32(li)
		localTasks = append(localTasks, gi)
		st := sim.Tasktab[gi]
		m.Tasktab = append(m.Tasktab, Task{
			Cblknum: int32(li),
			Bloknum: m.Cblktab[li].Bloknum,
			Ctrbcnt: st.Ctrbcnt,
			Ftgtcnt: st.Ftgtcnt,
			Prionum: st.Prionum,
		})
	}

	// Ftgttab: keep the FTGTs whose destination task is local, remapped.
	ftgtlocal := make(map[int]int32)
	for id, g := range sim.Ftgttab {
		if lt := tasklocal[g.Taskdst]; lt >= 0 {
			ftgtlocal[id] = int32(len(m.Ftgttab))
			m.Ftgttab = append(m.Ftgttab, Ftgt{
				Ctrbnbr: g.Ctrbnbr,
				Procdst: g.Procdst,
				Taskdst: lt,
				Blokdst: g.Blokdst,
				Prionum: g.Prionum,
				Fcolnum: g.Fcolnum,
				Lcolnum: g.Lcolnum,
				Frownum: g.Frownum,
				Lrownum: g.Lrownum,
				Mesglen: g.Mesglen,
			})
		}
	}

	// Indtab: for each local task, one entry per off-diagonal block of its
	// cblk, each either -locatTaskId-1 (local update) or ftgtlocalnum
	// (remote), the latter found by findFtgt from the facing cblk and the
	// block's row range.
	for ti, gi := range localTasks {
		bloks := sm.Bloks(gi)
		m.Tasktab[ti].Indnum = int32(len(m.Indtab))
		for _, b := range bloks[1:] {
			f := b.Fcblknm
			if lt := tasklocal[f]; lt >= 0 {
				m.Indtab = append(m.Indtab, localSentinel(lt))
				continue
			}
			id := findFtgt(sim, f, b)
			if id < 0 {
				m.Indtab = append(m.Indtab, int32(len(sim.Ftgttab))+indtabSentinelOffset)
				continue
			}
			lf, ok := ftgtlocal[id]
			if !ok {
				return nil, pastixerr.New("solver.Build", pastixerr.InternalInvariant,
					fmt.Errorf("ftgt %d targets non-local task %d", id, f))
			}
			m.Indtab = append(m.Indtab, lf)
		}
	}

	// Static per-thread schedule: round-robin assignment of local tasks by
	// candidate core within [0, procnbr), then sort each thread's list by
	// Prionum (the simulator already assigns monotonic priorities in a
	// valid topological order, so this sort is typically a no-op).
	m.Ttsktab = make([][]int32, procnbr)
	for ti, gi := range localTasks {
		t := int(cands[gi].Fcandnum) % procnbr
		m.Ttsktab[t] = append(m.Ttsktab[t], int32(ti))
	}
	for t := range m.Ttsktab {
		list := m.Ttsktab[t]
		sort.Slice(list, func(a, b int) bool {
			return m.Tasktab[list[a]].Prionum < m.Tasktab[list[b]].Prionum
		})
	}

	m.resetFtgtCounters()

	if err := m.Check(); err != nil {
		return nil, err
	}
	return m, nil
}

func remapBrow(g int32, bloklocal []int32) int32 {
	if lb := bloklocal[g]; lb >= 0 {
		return lb
	}
	return localSentinel(g)
}

// findFtgt locates the FTGT record fed by block b (owned by cblk gi,
// targeting cblk f) by matching destination cblk and row-range containment:
// a source processor's contribution to f always covers a contiguous row
// span, and two distinct source processors never contribute the exact same
// span, so (taskdst, row range) identifies the record uniquely.
func findFtgt(sim *simulate.Result, f int32, b symbol.Blok) int {
	for id, g := range sim.Ftgttab {
		if g.Taskdst == f && b.Frownum >= g.Frownum && b.Lrownum <= g.Lrownum {
			return id
		}
	}
	return -1
}

// Check validates the invariants solver generation must establish: every
// task's Indnum range covers exactly its cblk's off-diagonal block count.
// It does not inspect Ftgttab, whose Ctrbcnt counters Build zeroes (see
// resetFtgtCounters).
func (m *Matrix) Check() error {
	for ti, t := range m.Tasktab {
		bloknbr := m.blokCount(t.Cblknum)
		want := bloknbr - 1
		var got int32
		for i := t.Indnum; i < int32(len(m.Indtab)); i++ {
			if i >= t.Indnum+want {
				break
			}
			got++
		}
		if got != want {
			return pastixerr.New("solver.Check", pastixerr.InternalInvariant,
				fmt.Errorf("task %d indnum range covers %d entries, want %d", ti, got, want))
		}
	}
	return nil
}

func (m *Matrix) blokCount(cblk int32) int32 {
	c := m.Cblktab[cblk]
	if int(cblk)+1 < len(m.Cblktab) {
		return m.Cblktab[cblk+1].Bloknum - c.Bloknum
	}
	return int32(len(m.Bloktab)) - c.Bloknum
}

// resetFtgtCounters zeroes every local Ftgt's Ctrbcnt, readying the matrix
// for the numerical phase to accumulate fresh contributions.
func (m *Matrix) resetFtgtCounters() {
	for i := range m.Ftgttab {
		m.Ftgttab[i].Ctrbcnt = 0
	}
}

const magic uint32 = 0x50415354 // "PAST"

// Save serializes the solver matrix in a small binary layout: a magic
// header followed by each table's length and flat contents, in declaration
// order. It does not persist coefficient buffers (those belong to the
// numerical phase, not analyze).
func (m *Matrix) Save(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, magic); err != nil {
		return err
	}
	fields := []interface{}{
		int32(m.Clustnum), int32(m.Procnbr),
		int32(len(m.Cblktab)), int32(len(m.Bloktab)), int32(len(m.Browtab)),
		int32(len(m.Tasktab)), int32(len(m.Ftgttab)), int32(len(m.Indtab)),
		m.Cblkmin2d, m.Cblkmaxblk, m.Arftmax, m.Diagmax, m.Gemmmax,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	for _, c := range m.Cblktab {
		vals := []int32{c.Fcolnum, c.Lcolnum, c.Bloknum, c.Stride, c.Brownum, c.Brow2D, b2i(c.Layout2D), b2i(c.Compressed)}
		if err := binary.Write(w, binary.LittleEndian, vals); err != nil {
			return err
		}
	}
	for _, b := range m.Bloktab {
		vals := []int32{b.Frownum, b.Lrownum, b.Lcblknm, b.Fcblknm, b.Coefind, b.Browind}
		if err := binary.Write(w, binary.LittleEndian, vals); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, m.Browtab); err != nil {
		return err
	}
	for _, t := range m.Tasktab {
		vals := []int32{t.Cblknum, t.Bloknum, t.Ctrbcnt, t.Ftgtcnt, t.Prionum, t.Indnum}
		if err := binary.Write(w, binary.LittleEndian, vals); err != nil {
			return err
		}
	}
	for _, g := range m.Ftgttab {
		vals := []int32{g.Ctrbnbr, g.Ctrbcnt, g.Procdst, g.Taskdst, g.Blokdst, g.Prionum, g.Fcolnum, g.Lcolnum, g.Frownum, g.Lrownum, g.Mesglen}
		if err := binary.Write(w, binary.LittleEndian, vals); err != nil {
			return err
		}
	}
	return binary.Write(w, binary.LittleEndian, m.Indtab)
}

// Load reconstructs a Matrix previously written by Save.
func Load(r io.Reader) (*Matrix, error) {
	var got uint32
	if err := binary.Read(r, binary.LittleEndian, &got); err != nil {
		return nil, err
	}
	if got != magic {
		return nil, pastixerr.New("solver.Load", pastixerr.BadParameter, fmt.Errorf("bad magic %x", got))
	}
	var clustnum, procnbr, ncblk, nblok, nbrow, ntask, nftgt, nind int32
	heads := []*int32{&clustnum, &procnbr, &ncblk, &nblok, &nbrow, &ntask, &nftgt, &nind}
	for _, h := range heads {
		if err := binary.Read(r, binary.LittleEndian, h); err != nil {
			return nil, err
		}
	}
	m := &Matrix{Clustnum: int(clustnum), Procnbr: int(procnbr)}
	for _, h := range []*int32{&m.Cblkmin2d, &m.Cblkmaxblk, &m.Arftmax, &m.Diagmax, &m.Gemmmax} {
		if err := binary.Read(r, binary.LittleEndian, h); err != nil {
			return nil, err
		}
	}
	m.Cblktab = make([]Cblk, ncblk)
	for i := range m.Cblktab {
		var v [8]int32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, err
		}
		m.Cblktab[i] = Cblk{Fcolnum: v[0], Lcolnum: v[1], Bloknum: v[2], Stride: v[3], Brownum: v[4], Brow2D: v[5], Layout2D: v[6] != 0, Compressed: v[7] != 0}
	}
	m.Bloktab = make([]Blok, nblok)
	for i := range m.Bloktab {
		var v [6]int32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, err
		}
		m.Bloktab[i] = Blok{Frownum: v[0], Lrownum: v[1], Lcblknm: v[2], Fcblknm: v[3], Coefind: v[4], Browind: v[5]}
	}
	m.Browtab = make([]int32, nbrow)
	if err := binary.Read(r, binary.LittleEndian, m.Browtab); err != nil {
		return nil, err
	}
	m.Tasktab = make([]Task, ntask)
	for i := range m.Tasktab {
		var v [6]int32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, err
		}
		m.Tasktab[i] = Task{Cblknum: v[0], Bloknum: v[1], Ctrbcnt: v[2], Ftgtcnt: v[3], Prionum: v[4], Indnum: v[5]}
	}
	m.Ftgttab = make([]Ftgt, nftgt)
	for i := range m.Ftgttab {
		var v [11]int32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, err
		}
		m.Ftgttab[i] = Ftgt{Ctrbnbr: v[0], Ctrbcnt: v[1], Procdst: v[2], Taskdst: v[3], Blokdst: v[4], Prionum: v[5], Fcolnum: v[6], Lcolnum: v[7], Frownum: v[8], Lrownum: v[9], Mesglen: v[10]}
	}
	m.Indtab = make([]int32, nind)
	if err := binary.Read(r, binary.LittleEndian, m.Indtab); err != nil {
		return nil, err
	}
	return m, nil
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
