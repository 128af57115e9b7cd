package solver_test

import (
	"bytes"
	"testing"

	"github.com/ArtNlk/pastix-sub000/blendctrl"
	"github.com/ArtNlk/pastix-sub000/candidate"
	"github.com/ArtNlk/pastix-sub000/cost"
	"github.com/ArtNlk/pastix-sub000/elimtree"
	"github.com/ArtNlk/pastix-sub000/internal/fixtures"
	"github.com/ArtNlk/pastix-sub000/propmap"
	"github.com/ArtNlk/pastix-sub000/simulate"
	"github.com/ArtNlk/pastix-sub000/solver"
	"github.com/ArtNlk/pastix-sub000/symbol"
)

type analysis struct {
	sm    *symbol.Matrix
	cands []candidate.Cand
	sim   *simulate.Result
}

func buildAnalysis(t *testing.T) (*analysis, []int32) {
	t.Helper()
	sm := fixtures.Binary(3)
	tree, err := elimtree.Build(sm)
	if err != nil {
		t.Fatalf("elimtree.Build() = %v", err)
	}
	cm := cost.Build(sm, tree, blendctrl.LLT, 1)
	cands := make([]candidate.Cand, sm.CblkNbr())
	if err := propmap.Map(tree, cm, cands, 4, true, false); err != nil {
		t.Fatalf("propmap.Map() = %v", err)
	}
	sim, err := simulate.Build(sm, cands, cm, &blendctrl.BlendCtrl{}, 4)
	if err != nil {
		t.Fatalf("simulate.Build() = %v", err)
	}
	core2clust := []int32{0, 0, 1, 1}
	return &analysis{sm: sm, cands: cands, sim: sim}, core2clust
}

func TestBuildCoversAllCblks(t *testing.T) {
	// A cblk whose candidate interval straddles a cluster boundary (e.g. the
	// root, which always spans [0, totalCores-1]) is legitimately local to
	// more than one cluster, so the two local matrices need not partition
	// the global cblks disjointly; every global cblk must appear in at
	// least one of them.
	out, core2clust := buildAnalysis(t)
	m0, err := solver.Build(out.sm, out.cands, out.sim, core2clust, 0, 2, &blendctrl.BlendCtrl{}, 1)
	if err != nil {
		t.Fatalf("Build(clust=0) = %v", err)
	}
	m1, err := solver.Build(out.sm, out.cands, out.sim, core2clust, 1, 2, &blendctrl.BlendCtrl{}, 1)
	if err != nil {
		t.Fatalf("Build(clust=1) = %v", err)
	}
	seen := make([]bool, out.sm.CblkNbr())
	mark := func(m *solver.Matrix) {
		for gi, lc := range m.Cblklocalnum {
			if lc >= 0 {
				seen[gi] = true
			}
		}
	}
	mark(m0)
	mark(m1)
	for gi, ok := range seen {
		if !ok {
			t.Errorf("global cblk %d is local to neither cluster", gi)
		}
	}
}

func TestBuildIndtabCoversOffDiagBlocks(t *testing.T) {
	out, core2clust := buildAnalysis(t)
	m, err := solver.Build(out.sm, out.cands, out.sim, core2clust, 0, 2, &blendctrl.BlendCtrl{}, 1)
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	if err := m.Check(); err != nil {
		t.Fatalf("Check() = %v, want nil", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	out, core2clust := buildAnalysis(t)
	m, err := solver.Build(out.sm, out.cands, out.sim, core2clust, 0, 2, &blendctrl.BlendCtrl{}, 1)
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}

	var buf bytes.Buffer
	if err := m.Save(&buf); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	got, err := solver.Load(&buf)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if len(got.Cblktab) != len(m.Cblktab) || len(got.Bloktab) != len(m.Bloktab) {
		t.Fatalf("Load() shape mismatch: cblk %d vs %d, blok %d vs %d",
			len(got.Cblktab), len(m.Cblktab), len(got.Bloktab), len(m.Bloktab))
	}
	for i := range m.Cblktab {
		if got.Cblktab[i] != m.Cblktab[i] {
			t.Fatalf("cblk %d round-trip mismatch: %+v vs %+v", i, got.Cblktab[i], m.Cblktab[i])
		}
	}
	for i := range m.Tasktab {
		if got.Tasktab[i] != m.Tasktab[i] {
			t.Fatalf("task %d round-trip mismatch: %+v vs %+v", i, got.Tasktab[i], m.Tasktab[i])
		}
	}
}

func TestBuildScalesLayoutByDof(t *testing.T) {
	out, core2clust := buildAnalysis(t)
	scalar, err := solver.Build(out.sm, out.cands, out.sim, core2clust, 0, 2, &blendctrl.BlendCtrl{}, 1)
	if err != nil {
		t.Fatalf("Build(dof=1) = %v", err)
	}
	vector, err := solver.Build(out.sm, out.cands, out.sim, core2clust, 0, 2, &blendctrl.BlendCtrl{}, 3)
	if err != nil {
		t.Fatalf("Build(dof=3) = %v", err)
	}
	if vector.Dof != 3 {
		t.Fatalf("Dof = %d, want 3", vector.Dof)
	}
	for i := range scalar.Cblktab {
		if got, want := vector.Cblktab[i].Stride, scalar.Cblktab[i].Stride*3; got != want {
			t.Errorf("cblk %d Stride = %d, want %d (dof=3 of %d)", i, got, want, scalar.Cblktab[i].Stride)
		}
	}
	if vector.Arftmax != scalar.Arftmax*9 {
		t.Errorf("Arftmax = %d, want %d (dof²=9 of %d)", vector.Arftmax, scalar.Arftmax*9, scalar.Arftmax)
	}
	if vector.Diagmax != scalar.Diagmax*9 {
		t.Errorf("Diagmax = %d, want %d (dof²=9 of %d)", vector.Diagmax, scalar.Diagmax*9, scalar.Diagmax)
	}
}

func TestTtsktabSortedByPrionum(t *testing.T) {
	out, core2clust := buildAnalysis(t)
	m, err := solver.Build(out.sm, out.cands, out.sim, core2clust, 0, 2, &blendctrl.BlendCtrl{}, 1)
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	for thread, list := range m.Ttsktab {
		for i := 1; i < len(list); i++ {
			if m.Tasktab[list[i]].Prionum < m.Tasktab[list[i-1]].Prionum {
				t.Errorf("thread %d ttsktab not sorted by prionum at index %d", thread, i)
			}
		}
	}
}
