package sched_test

import (
	"context"
	"testing"
	"time"

	"github.com/ArtNlk/pastix-sub000/blendctrl"
	"github.com/ArtNlk/pastix-sub000/candidate"
	"github.com/ArtNlk/pastix-sub000/cost"
	"github.com/ArtNlk/pastix-sub000/elimtree"
	"github.com/ArtNlk/pastix-sub000/internal/fixtures"
	"github.com/ArtNlk/pastix-sub000/kernel"
	"github.com/ArtNlk/pastix-sub000/propmap"
	"github.com/ArtNlk/pastix-sub000/sched"
	"github.com/ArtNlk/pastix-sub000/simulate"
	"github.com/ArtNlk/pastix-sub000/solver"
)

func buildMultiThreadChain(t *testing.T, n int32, threads int) *solver.Matrix {
	t.Helper()
	sm := fixtures.Chain(n)
	tree, err := elimtree.Build(sm)
	if err != nil {
		t.Fatalf("elimtree.Build() = %v", err)
	}
	cm := cost.Build(sm, tree, blendctrl.LLT, 1)
	cands := make([]candidate.Cand, sm.CblkNbr())
	if err := propmap.Map(tree, cm, cands, threads, true, false); err != nil {
		t.Fatalf("propmap.Map() = %v", err)
	}
	sim, err := simulate.Build(sm, cands, cm, &blendctrl.BlendCtrl{}, threads)
	if err != nil {
		t.Fatalf("simulate.Build() = %v", err)
	}
	core2clust := make([]int32, threads)
	m, err := solver.Build(sm, cands, sim, core2clust, 0, threads, &blendctrl.BlendCtrl{}, 1)
	if err != nil {
		t.Fatalf("solver.Build() = %v", err)
	}
	return m
}

func TestRunFactorsEveryCblkAndClearsContributions(t *testing.T) {
	m := buildMultiThreadChain(t, 6, 2)
	st := kernel.NewState(m, blendctrl.LLT, 1e-12)
	for i := range m.Cblktab {
		buf := st.CblkCoef[i]
		buf[0] = 10 // diagonal entry, well-conditioned
		for j := 1; j < len(buf); j++ {
			buf[j] = 0.1
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sched.Run(ctx, st, m); err != nil {
		t.Fatalf("sched.Run() = %v", err)
	}
	if st.PivotCount() != 0 {
		t.Errorf("PivotCount() = %d, want 0 for well-conditioned input", st.PivotCount())
	}
}

func TestRunWithSchedulerSequentialMatchesStatic(t *testing.T) {
	m := buildMultiThreadChain(t, 6, 2)
	st := kernel.NewState(m, blendctrl.LLT, 1e-12)
	for i := range m.Cblktab {
		buf := st.CblkCoef[i]
		buf[0] = 10
		for j := 1; j < len(buf); j++ {
			buf[j] = 0.1
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sched.RunWithScheduler(ctx, st, m, blendctrl.Sequential); err != nil {
		t.Fatalf("sched.RunWithScheduler(Sequential) = %v", err)
	}
	if st.PivotCount() != 0 {
		t.Errorf("PivotCount() = %d, want 0 for well-conditioned input", st.PivotCount())
	}

	static := kernel.NewState(m, blendctrl.LLT, 1e-12)
	for i := range m.Cblktab {
		buf := static.CblkCoef[i]
		buf[0] = 10
		for j := 1; j < len(buf); j++ {
			buf[j] = 0.1
		}
	}
	if err := sched.Run(ctx, static, m); err != nil {
		t.Fatalf("sched.Run() = %v", err)
	}
	for i := range st.CblkCoef {
		for j, v := range st.CblkCoef[i] {
			if w := static.CblkCoef[i][j]; v != w {
				t.Errorf("cblk %d coef %d: Sequential %v, Static %v", i, j, v, w)
			}
		}
	}
}

func TestRunRespectsCancellation(t *testing.T) {
	m := buildMultiThreadChain(t, 20, 3)
	st := kernel.NewState(m, blendctrl.LLT, 1e-12)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sched.Run(ctx, st, m); err == nil {
		t.Fatalf("sched.Run() with an already-canceled context = nil error, want non-nil")
	}
}
