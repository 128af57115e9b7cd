package simulate_test

import (
	"testing"

	"github.com/ArtNlk/pastix-sub000/blendctrl"
	"github.com/ArtNlk/pastix-sub000/candidate"
	"github.com/ArtNlk/pastix-sub000/cost"
	"github.com/ArtNlk/pastix-sub000/elimtree"
	"github.com/ArtNlk/pastix-sub000/internal/fixtures"
	"github.com/ArtNlk/pastix-sub000/propmap"
	"github.com/ArtNlk/pastix-sub000/simulate"
)

func TestSingleProcessNoFtgt(t *testing.T) {
	sm := fixtures.Binary(3)
	tree, err := elimtree.Build(sm)
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	cm := cost.Build(sm, tree, blendctrl.LLT, 1)
	cands := make([]candidate.Cand, sm.CblkNbr())
	for i := range cands {
		cands[i].Fcandnum, cands[i].Lcandnum = 0, 0
	}

	res, err := simulate.Build(sm, cands, cm, &blendctrl.BlendCtrl{}, 1)
	if err != nil {
		t.Fatalf("Build() = %v, want nil", err)
	}
	if len(res.Ftgttab) != 0 {
		t.Fatalf("Ftgttab has %d entries, want 0 on a single process", len(res.Ftgttab))
	}
	for i, task := range res.Tasktab {
		if task.Ctrbcnt != int32(len(tree.Sons(int32(i)))) {
			t.Errorf("task %d Ctrbcnt = %d, want %d (one per son)", i, task.Ctrbcnt, len(tree.Sons(int32(i))))
		}
	}
}

func TestFtgtAccountingMultiProcess(t *testing.T) {
	sm := fixtures.Binary(3)
	tree, err := elimtree.Build(sm)
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	cm := cost.Build(sm, tree, blendctrl.LLT, 1)
	cands := make([]candidate.Cand, sm.CblkNbr())
	if err := propmap.Map(tree, cm, cands, 4, true, false); err != nil {
		t.Fatalf("Map() = %v", err)
	}

	res, err := simulate.Build(sm, cands, cm, &blendctrl.BlendCtrl{}, 4)
	if err != nil {
		t.Fatalf("Build() = %v, want nil", err)
	}
	for _, g := range res.Ftgttab {
		if g.Ctrbcnt != g.Ctrbnbr {
			t.Errorf("ftgt %+v: Ctrbcnt != Ctrbnbr after simulation", g)
		}
	}
}

func TestPrionumMonotonicPerTask(t *testing.T) {
	sm := fixtures.Chain(6)
	tree, err := elimtree.Build(sm)
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	cm := cost.Build(sm, tree, blendctrl.LLT, 1)
	cands := make([]candidate.Cand, sm.CblkNbr())
	for i := range cands {
		cands[i].Fcandnum, cands[i].Lcandnum = 0, 0
	}
	res, err := simulate.Build(sm, cands, cm, &blendctrl.BlendCtrl{}, 1)
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	for i := 1; i < len(res.Tasktab); i++ {
		if res.Tasktab[i].Prionum <= res.Tasktab[i-1].Prionum {
			t.Fatalf("Prionum not strictly increasing at %d: %d <= %d",
				i, res.Tasktab[i].Prionum, res.Tasktab[i-1].Prionum)
		}
	}
}
