// The pastix-blend command drives a 5-point or 9-point grid Laplacian
// through the full analyze-to-factorize pipeline: elimination tree, cost
// model, proportional mapping, splitting, scheduling simulation, solver
// matrix generation, and finally numerical factorization over a
// synthetic diagonally-dominant coefficient fill. It is a demonstration
// and smoke-test harness, not a general sparse-matrix front end: the
// coefficient values are synthetic since this module does not implement
// ordering or symbolic factorization of a user-supplied matrix.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/ArtNlk/pastix-sub000/blendctrl"
	"github.com/ArtNlk/pastix-sub000/candidate"
	"github.com/ArtNlk/pastix-sub000/kernel"
	"github.com/ArtNlk/pastix-sub000/laplacian"
	"github.com/ArtNlk/pastix-sub000/pipeline"
	"github.com/ArtNlk/pastix-sub000/sched"
	"github.com/ArtNlk/pastix-sub000/solver"
)

func main() {
	nx := flag.Int("nx", 10, "grid width")
	ny := flag.Int("ny", 10, "grid height")
	nine := flag.Bool("nine", false, "use a 9-point stencil instead of 5-point")
	threads := flag.Int("threads", 1, "thread count (TotalCores, and task-schedule thread count)")
	split2steps := flag.Bool("split-before-map", false, "run the symbol splitter before proportional mapping instead of after")
	fact := flag.String("fact", "llt", "factorization variant: llt, ldlt, lu, llh, ldlh")
	dof := flag.Int("dof", 1, "degree of freedom per unknown")
	criteria := flag.Float64("criteria", 1e-12, "minimum acceptable diagonal pivot magnitude")
	schedName := flag.String("sched", "static", "task scheduler back-end: sequential, static")
	check := flag.Bool("check", false, "run symbol/candidate/solver consistency checks and report at -v")
	compress := flag.String("compress", "never", "low-rank compression point: never, begin, end, during")
	tol := flag.Float64("tol", 1e-8, "low-rank compression tolerance")
	verbose := flag.Bool("v", false, "print per-stage timing and task counts")
	flag.Parse()

	factKind, err := parseFactorization(*fact)
	if err != nil {
		log.Fatal(err)
	}
	schedKind, err := parseScheduler(*schedName)
	if err != nil {
		log.Fatal(err)
	}
	compressKind, err := parseCompressWhen(*compress)
	if err != nil {
		log.Fatal(err)
	}

	ctrl := &blendctrl.BlendCtrl{
		MinBlockSize: 8,
		MaxBlockSize: 128,
		Tasks2DWidth: 1 << 30, // disable 2D tiling for this demo
		TotalCores:   *threads,
		Compression:  blendctrl.DefaultCompressionParams(),
		Solver:       blendctrl.DefaultSolverParams(),
	}
	ctrl.Solver.Factorization = factKind
	ctrl.Solver.ThreadNbr = *threads
	ctrl.Solver.DofNbr = *dof
	ctrl.Solver.Scheduler = schedKind
	ctrl.SplitBeforeMapping = *split2steps
	ctrl.Compression.When = compressKind
	ctrl.Compression.Tolerance = *tol

	t0 := time.Now()
	var sm = laplacian.FivePoint(int32(*nx), int32(*ny))
	if *nine {
		sm = laplacian.NinePoint(int32(*nx), int32(*ny))
	}

	analysis, err := pipeline.RunAnalyze(sm, ctrl)
	if err != nil {
		log.Fatalf("analyze: %v", err)
	}
	if *verbose {
		fmt.Printf("analyze: %d cblks, %d tasks in %s\n", analysis.Symbol.CblkNbr(), len(analysis.Sim.Tasktab), time.Since(t0))
	}
	if *check {
		if err := analysis.Symbol.Check(); err != nil {
			log.Fatalf("symbol.Matrix.Check: %v", err)
		}
		if err := candidate.Check(analysis.Tree, analysis.Cands); err != nil {
			log.Fatalf("candidate.Check: %v", err)
		}
		if *verbose {
			fmt.Println("check: symbol and candidate state consistent")
		}
	}

	core2clust := make([]int32, *threads)
	m, err := solver.Build(analysis.Symbol, analysis.Cands, analysis.Sim, core2clust, 0, *threads, ctrl, int32(ctrl.Solver.DofNbr))
	if err != nil {
		log.Fatalf("solver.Build: %v", err)
	}
	if *check {
		if err := m.Check(); err != nil {
			log.Fatalf("solver.Matrix.Check: %v", err)
		}
		if *verbose {
			fmt.Println("check: solver matrix consistent")
		}
	}

	st := kernel.NewState(m, factKind, *criteria)
	fillDiagonallyDominant(st, m)

	t1 := time.Now()
	ctx := context.Background()
	if err := sched.RunWithScheduler(ctx, st, m, ctrl.Solver.Scheduler); err != nil {
		log.Fatalf("sched.RunWithScheduler: %v", err)
	}

	fmt.Printf("factorized %d local cblks in %s, %d static pivots applied\n",
		len(m.Cblktab), time.Since(t1), st.PivotCount())
}

func parseFactorization(s string) (blendctrl.Factorization, error) {
	switch s {
	case "llt":
		return blendctrl.LLT, nil
	case "ldlt":
		return blendctrl.LDLT, nil
	case "lu":
		return blendctrl.LU, nil
	case "llh":
		return blendctrl.LLH, nil
	case "ldlh":
		return blendctrl.LDLH, nil
	default:
		return 0, fmt.Errorf("unknown -fact %q", s)
	}
}

func parseScheduler(s string) (blendctrl.Scheduler, error) {
	switch s {
	case "sequential":
		return blendctrl.Sequential, nil
	case "static":
		return blendctrl.Static, nil
	default:
		return 0, fmt.Errorf("unknown -sched %q (only sequential and static are implemented)", s)
	}
}

func parseCompressWhen(s string) (blendctrl.CompressWhen, error) {
	switch s {
	case "never":
		return blendctrl.CompressNever, nil
	case "begin":
		return blendctrl.CompressBegin, nil
	case "end":
		return blendctrl.CompressEnd, nil
	case "during":
		return blendctrl.CompressDuring, nil
	default:
		return 0, fmt.Errorf("unknown -compress %q", s)
	}
}

// fillDiagonallyDominant stands in for a real assembled matrix: every
// diagonal entry of every local cblk gets a value comfortably above the
// sum of magnitudes of its column's off-diagonal entries, so static
// pivoting never needs to clamp anything during the demo run.
func fillDiagonallyDominant(st *kernel.State, m *solver.Matrix) {
	dof := int(m.Dof)
	if dof < 1 {
		dof = 1
	}
	for i, c := range m.Cblktab {
		buf := st.CblkCoef[i]
		stride := int(c.Stride)
		for col := 0; col < int(c.ColNbr())*dof; col++ {
			buf[col*stride+col] = float64(stride + 1)
		}
		for k := range buf {
			if buf[k] == 0 {
				buf[k] = 0.01
			}
		}
	}
}
