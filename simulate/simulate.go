// Package simulate deterministically orders the tasks of an analyzed
// symbol matrix, deriving per-task priorities, contribution counts and
// fan-in target (FTGT) descriptors for remote contributions.
package simulate

import (
	"fmt"

	"github.com/ArtNlk/pastix-sub000/blendctrl"
	"github.com/ArtNlk/pastix-sub000/candidate"
	"github.com/ArtNlk/pastix-sub000/cost"
	"github.com/ArtNlk/pastix-sub000/pastixerr"
	"github.com/ArtNlk/pastix-sub000/symbol"
)

// Task is one simulated cblk factorization.
type Task struct {
	Cblknum int32
	Bloknum int32 // first off-diagonal block of Cblknum, or its diagonal if none
	Ctrbcnt int32 // number of local (same-processor) contributions this task waits on
	Ftgtcnt int32 // number of distinct remote contributions this task waits on
	Prionum int32 // monotonically increasing execution-order priority
	Proc    int32 // the processor (owner) this task is assigned to
}

// FTGT (fan-in target) describes a contribution one local cblk must send to
// a remote cblk.
type FTGT struct {
	Ctrbnbr int32 // total contributions expected
	Ctrbcnt int32 // contributions delivered so far; == Ctrbnbr once simulation completes
	Procdst int32
	Taskdst int32
	Blokdst int32
	Prionum int32
	Fcolnum, Lcolnum int32
	Frownum, Lrownum int32
	Mesglen int32
}

// Result is the simulator's output.
type Result struct {
	Tasktab []Task
	Ftgttab []FTGT
}

type ftgtKey struct {
	taskdst int32
	procsrc int32
}

// Build runs the deterministic simulation described in spec §4.6: it
// assigns one task per live cblk, prices each off-diagonal block's
// contribution as local (same owner processor) or remote (FTGT), and
// greedily schedules tasks onto their candidate cores in ascending cblk-id
// order, which is always a valid topological order because every block's
// facing cblk is an ancestor (strictly greater id) of its owning cblk.
// Ownership is taken to be cands[i].Fcandnum, the leftmost candidate core,
// fixed by proportional mapping before simulation runs (this settles the
// "which exact core actually holds the diagonal" question the source
// leaves implicit in Simulate, which only consumes an already-fixed
// candidate set). ctrl's pooled scratch buffers hold the
// owner and remainingLocal tables, which never escape this call.
func Build(sm *symbol.Matrix, cands []candidate.Cand, cm *cost.Matrix, ctrl *blendctrl.BlendCtrl, totalCores int) (*Result, error) {
	n := sm.CblkNbr()
	owner := ctrl.IntVec(int(n))
	for i := int32(0); i < n; i++ {
		owner[i] = cands[i].Fcandnum
	}

	tasks := make([]Task, n)
	for i := int32(0); i < n; i++ {
		bloknum := sm.Cblktab[i].Bloknum
		if sm.BlokCount(i) > 1 {
			bloknum++
		}
		tasks[i] = Task{Cblknum: i, Bloknum: bloknum, Proc: owner[i]}
	}

	ftgtIdx := map[ftgtKey]int32{}
	var ftgts []FTGT

	for j := int32(0); j < n; j++ {
		for _, b := range sm.Bloks(j)[1:] {
			f := b.Fcblknm
			if owner[j] == owner[f] {
				tasks[f].Ctrbcnt++
				continue
			}
			key := ftgtKey{taskdst: f, procsrc: owner[j]}
			id, ok := ftgtIdx[key]
			if !ok {
				id = int32(len(ftgts))
				ftgtIdx[key] = id
				ftgts = append(ftgts, FTGT{
					Procdst: owner[f],
					Taskdst: f,
					Blokdst: sm.Cblktab[f].Bloknum,
					Fcolnum: sm.Cblktab[f].Fcolnum,
					Lcolnum: sm.Cblktab[f].Lcolnum,
					Frownum: b.Frownum,
					Lrownum: b.Lrownum,
				})
				tasks[f].Ftgtcnt++
			}
			g := &ftgts[id]
			g.Ctrbnbr++
			if b.Frownum < g.Frownum {
				g.Frownum = b.Frownum
			}
			if b.Lrownum > g.Lrownum {
				g.Lrownum = b.Lrownum
			}
			g.Mesglen += b.Rownbr() * sm.ColCount(j)
		}
	}

	coreFreeAt := make([]float64, totalCores)
	readyAt := make([]float64, n)
	remainingLocal := ctrl.IntVec2(int(n))
	for i := range tasks {
		remainingLocal[i] = tasks[i].Ctrbcnt
	}

	prio := int32(0)
	for j := int32(0); j < n; j++ {
		core := cands[j].Fcandnum
		best := coreFreeAt[core]
		for c := cands[j].Fcandnum + 1; c <= cands[j].Lcandnum; c++ {
			if coreFreeAt[c] < best {
				best, core = coreFreeAt[c], c
			}
		}
		start := best
		if readyAt[j] > start {
			start = readyAt[j]
		}
		finish := start + cm.Total[j]
		coreFreeAt[core] = finish
		tasks[j].Prionum = prio
		prio++

		for _, b := range sm.Bloks(j)[1:] {
			f := b.Fcblknm
			if owner[j] == owner[f] {
				remainingLocal[f]--
				if finish > readyAt[f] {
					readyAt[f] = finish
				}
				continue
			}
			key := ftgtKey{taskdst: f, procsrc: owner[j]}
			id := ftgtIdx[key]
			ftgts[id].Ctrbcnt++
			if ftgts[id].Prionum == 0 {
				ftgts[id].Prionum = tasks[j].Prionum
			}
		}
	}

	for i, rem := range remainingLocal {
		if rem != 0 {
			return nil, pastixerr.New("simulate.Build", pastixerr.InternalInvariant,
				fmt.Errorf("task %d local contributions did not reach zero: %d remaining", i, rem))
		}
	}
	for id, g := range ftgts {
		if g.Ctrbcnt != g.Ctrbnbr {
			return nil, pastixerr.New("simulate.Build", pastixerr.InternalInvariant,
				fmt.Errorf("ftgt %d contributions %d != expected %d", id, g.Ctrbcnt, g.Ctrbnbr))
		}
	}

	return &Result{Tasktab: tasks, Ftgttab: ftgts}, nil
}
