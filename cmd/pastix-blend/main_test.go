package main

import (
	"context"
	"testing"
	"time"

	"github.com/ArtNlk/pastix-sub000/blendctrl"
	"github.com/ArtNlk/pastix-sub000/kernel"
	"github.com/ArtNlk/pastix-sub000/laplacian"
	"github.com/ArtNlk/pastix-sub000/pipeline"
	"github.com/ArtNlk/pastix-sub000/sched"
	"github.com/ArtNlk/pastix-sub000/solver"
)

func TestParseFactorization(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want blendctrl.Factorization
	}{
		{"llt", blendctrl.LLT},
		{"ldlt", blendctrl.LDLT},
		{"lu", blendctrl.LU},
		{"llh", blendctrl.LLH},
		{"ldlh", blendctrl.LDLH},
	} {
		got, err := parseFactorization(tc.in)
		if err != nil {
			t.Errorf("parseFactorization(%q) = %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("parseFactorization(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := parseFactorization("bogus"); err == nil {
		t.Error("parseFactorization(\"bogus\") = nil error, want non-nil")
	}
}

func TestParseScheduler(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want blendctrl.Scheduler
	}{
		{"sequential", blendctrl.Sequential},
		{"static", blendctrl.Static},
	} {
		got, err := parseScheduler(tc.in)
		if err != nil {
			t.Errorf("parseScheduler(%q) = %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("parseScheduler(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := parseScheduler("dynamic"); err == nil {
		t.Error("parseScheduler(\"dynamic\") = nil error, want non-nil (unimplemented back-end)")
	}
}

func TestParseCompressWhen(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want blendctrl.CompressWhen
	}{
		{"never", blendctrl.CompressNever},
		{"begin", blendctrl.CompressBegin},
		{"end", blendctrl.CompressEnd},
		{"during", blendctrl.CompressDuring},
	} {
		got, err := parseCompressWhen(tc.in)
		if err != nil {
			t.Errorf("parseCompressWhen(%q) = %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("parseCompressWhen(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := parseCompressWhen("bogus"); err == nil {
		t.Error("parseCompressWhen(\"bogus\") = nil error, want non-nil")
	}
}

// TestEndToEndLaplacianFactorizes drives a small 5-point grid Laplacian
// through the whole analyze-to-factorize pipeline the way main does,
// checking it completes without error or static pivoting (S1).
func TestEndToEndLaplacianFactorizes(t *testing.T) {
	nx, ny, threads := int32(6), int32(6), 2

	ctrl := &blendctrl.BlendCtrl{
		MinBlockSize: 4,
		MaxBlockSize: 64,
		Tasks2DWidth: 1 << 30,
		TotalCores:   threads,
		Compression:  blendctrl.DefaultCompressionParams(),
		Solver:       blendctrl.DefaultSolverParams(),
	}
	ctrl.Solver.ThreadNbr = threads

	sm := laplacian.FivePoint(nx, ny)
	analysis, err := pipeline.RunAnalyze(sm, ctrl)
	if err != nil {
		t.Fatalf("pipeline.RunAnalyze() = %v", err)
	}

	core2clust := make([]int32, threads)
	m, err := solver.Build(analysis.Symbol, analysis.Cands, analysis.Sim, core2clust, 0, threads, ctrl, 1)
	if err != nil {
		t.Fatalf("solver.Build() = %v", err)
	}
	if err := m.Check(); err != nil {
		t.Fatalf("solver.Matrix.Check() = %v", err)
	}

	st := kernel.NewState(m, blendctrl.LLT, 1e-12)
	fillDiagonallyDominant(st, m)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sched.Run(ctx, st, m); err != nil {
		t.Fatalf("sched.Run() = %v", err)
	}
	if st.PivotCount() != 0 {
		t.Errorf("PivotCount() = %d, want 0 for diagonally-dominant input", st.PivotCount())
	}
}
