// Package sched runs a solver.Matrix's static per-thread task schedule
// against a kernel.State, one worker goroutine per thread.
package sched

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ArtNlk/pastix-sub000/blendctrl"
	"github.com/ArtNlk/pastix-sub000/kernel"
	"github.com/ArtNlk/pastix-sub000/pastixerr"
	"github.com/ArtNlk/pastix-sub000/solver"
)

// Run dispatches every local task of m's static schedule across
// len(m.Ttsktab) worker goroutines, one per thread, each started directly
// through an errgroup with its own task list (no channel feeds them; the
// pool is sized to the schedule's thread count rather than GOMAXPROCS,
// since that count is a structural property of the analyzed matrix, not
// the machine). Each worker runs its thread's task list in Prionum order,
// spinning at suspension point (a) until a task's live contribution count
// reaches zero (kernel.State.Ready) before factoring it and propagating its
// contributions. ctx cancellation is checked at every dequeue and every
// spin iteration.
//
// Every worker runs to completion (or cancellation) regardless of whether
// an earlier one failed, and Run reduces every worker's own error by
// severity with pastixerr.Max before returning — the "maximum error code
// via all-reduce" rule of the error design, not just the first error
// observed.
func Run(ctx context.Context, st *kernel.State, m *solver.Matrix) error {
	g, gctx := errgroup.WithContext(ctx)
	errs := make([]error, len(m.Ttsktab))

	for t := range m.Ttsktab {
		t := t
		g.Go(func() error {
			err := runThread(gctx, st, m, m.Ttsktab[t])
			errs[t] = err
			return nil
		})
	}
	g.Wait() //nolint:errcheck // per-worker errors are collected into errs and reduced below

	return pastixerr.Max(errs...)
}

// RunWithScheduler dispatches m's static schedule the way sched selects:
// Static (and the pluggable Dynamic/Parsec/StarPU back-ends, which this
// module drives the same way) run Run's one-goroutine-per-thread schedule;
// Sequential merges every thread's task list into a single Prionum-ordered
// list and runs it on the calling goroutine, which is only ever correct
// because Ready's suspension condition is trivially satisfied once nothing
// else can be running concurrently to leave a contribution outstanding.
func RunWithScheduler(ctx context.Context, st *kernel.State, m *solver.Matrix, sched blendctrl.Scheduler) error {
	if sched != blendctrl.Sequential {
		return Run(ctx, st, m)
	}

	var all []int32
	for _, tasks := range m.Ttsktab {
		all = append(all, tasks...)
	}
	sort.Slice(all, func(a, b int) bool {
		return m.Tasktab[all[a]].Prionum < m.Tasktab[all[b]].Prionum
	})
	return runThread(ctx, st, m, all)
}

func runThread(ctx context.Context, st *kernel.State, m *solver.Matrix, tasks []int32) error {
	for _, ti := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		task := m.Tasktab[ti]
		for !st.Ready(task.Cblknum) {
			if err := ctx.Err(); err != nil {
				return err
			}
			runtime.Gosched()
		}
		kernel.FactorPanel(st, task.Cblknum)
		kernel.Update(st, task.Cblknum)
	}
	return nil
}
