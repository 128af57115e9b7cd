package split_test

import (
	"testing"

	"github.com/ArtNlk/pastix-sub000/blendctrl"
	"github.com/ArtNlk/pastix-sub000/candidate"
	"github.com/ArtNlk/pastix-sub000/internal/fixtures"
	"github.com/ArtNlk/pastix-sub000/split"
)

func testCtrl() *blendctrl.BlendCtrl {
	return &blendctrl.BlendCtrl{MinBlockSize: 4, MaxBlockSize: 8}
}

func TestSplitWidthBounds(t *testing.T) {
	sm := fixtures.WideChain(3, 20)
	cands := make([]candidate.Cand, sm.CblkNbr())
	ctrl := testCtrl()
	res := split.Split(sm, cands, ctrl)

	if err := res.Symbol.Check(); err != nil {
		t.Fatalf("Check() after split = %v, want nil", err)
	}

	n := res.Symbol.CblkNbr()
	for i := int32(0); i < n; i++ {
		w := res.Symbol.ColCount(i)
		if w > int32(ctrl.MaxBlockSize) {
			t.Errorf("cblk %d width %d exceeds MaxBlockSize %d", i, w, ctrl.MaxBlockSize)
		}
	}
	// 2 wide cblks of width 20 each split into ceil(20/8)=3 pieces, plus the
	// single-column root untouched.
	if n != 2*3+1 {
		t.Fatalf("CblkNbr() = %d, want %d", n, 7)
	}
}

func TestSplitIntraTriangularShrink(t *testing.T) {
	sm := fixtures.WideChain(2, 20)
	ctrl := testCtrl()
	cands := make([]candidate.Cand, sm.CblkNbr())
	res := split.Split(sm, cands, ctrl)

	// cblk 0 (width 20) becomes pieces 0,1,2 with block counts 3,2,1 for the
	// intra part, plus one replicated off-diagonal block each targeting the
	// (unsplit) root.
	for p := int32(0); p < 3; p++ {
		got := res.Symbol.BlokCount(p)
		want := (3 - p) + 1 // intra shrinking sequence + one off-diag to root
		if got != want {
			t.Errorf("piece %d BlokCount() = %d, want %d", p, got, want)
		}
	}
}

func TestSplitNarrowerWithHigherDof(t *testing.T) {
	sm := fixtures.WideChain(2, 20)
	cands := make([]candidate.Cand, sm.CblkNbr())

	scalar := testCtrl()
	scalarRes := split.Split(sm, cands, scalar)

	vector := testCtrl()
	vector.Solver.DofNbr = 2
	vectorRes := split.Split(sm, cands, vector)

	// MaxBlockSize=8 is a real-unit budget; at dof=2 the symbolic piece
	// width must roughly halve, so the vector run produces more pieces for
	// the same cblk.
	if vectorRes.Symbol.CblkNbr() <= scalarRes.Symbol.CblkNbr() {
		t.Fatalf("CblkNbr() with dof=2 (%d) not greater than dof=1 (%d)",
			vectorRes.Symbol.CblkNbr(), scalarRes.Symbol.CblkNbr())
	}
	for i := int32(0); i < vectorRes.Symbol.CblkNbr(); i++ {
		w := vectorRes.Symbol.ColCount(i)
		if real := w * 2; real > int32(vector.MaxBlockSize) {
			t.Errorf("cblk %d real width %d exceeds MaxBlockSize %d", i, real, vector.MaxBlockSize)
		}
	}
}

func TestSplitIdempotent(t *testing.T) {
	sm := fixtures.WideChain(3, 20)
	cands := make([]candidate.Cand, sm.CblkNbr())
	ctrl := testCtrl()
	once := split.Split(sm, cands, ctrl)
	twice := split.Split(once.Symbol, once.Cands, ctrl)

	if once.Symbol.CblkNbr() != twice.Symbol.CblkNbr() {
		t.Fatalf("cblknbr changed on second split: %d vs %d", once.Symbol.CblkNbr(), twice.Symbol.CblkNbr())
	}
	if once.Symbol.BlokNbr() != twice.Symbol.BlokNbr() {
		t.Fatalf("bloknbr changed on second split: %d vs %d", once.Symbol.BlokNbr(), twice.Symbol.BlokNbr())
	}
	for i := int32(0); i < once.Symbol.CblkNbr(); i++ {
		if once.Symbol.Cblktab[i] != twice.Symbol.Cblktab[i] {
			t.Fatalf("cblk %d changed on second split: %+v vs %+v", i, once.Symbol.Cblktab[i], twice.Symbol.Cblktab[i])
		}
	}
}
