// Package blendctrl holds the explicit configuration structs consumed by
// the analyze ("blend") pipeline and the numerical factorization. There is
// no global/singleton configuration state: every package in this module
// takes a *BlendCtrl, *SolverParams or *CompressionParams explicitly,
// mirroring gonum's own convention of passing an explicit Settings/Params
// struct rather than relying on package-level state.
package blendctrl

import (
	"fmt"

	"github.com/ArtNlk/pastix-sub000/pastixerr"
)

// Factorization selects the numerical factorization variant.
type Factorization int

const (
	LLT  Factorization = iota // Cholesky, real symmetric positive definite
	LDLT                      // LDL^T, real symmetric indefinite
	LU                        // general, partial (static) pivoting
	LLH                       // Cholesky, complex Hermitian positive definite
	LDLH                      // LDL^H, complex Hermitian indefinite
)

func (f Factorization) String() string {
	switch f {
	case LLT:
		return "LLT"
	case LDLT:
		return "LDLT"
	case LU:
		return "LU"
	case LLH:
		return "LLH"
	case LDLH:
		return "LDLH"
	default:
		return "unknown"
	}
}

// Symmetric reports whether the factorization operates on one triangle
// (LLT/LDLT/LLH/LDLH) as opposed to both (LU).
func (f Factorization) Symmetric() bool { return f != LU }

// CompressWhen selects the point in the pipeline at which low-rank
// compression is attempted.
type CompressWhen int

const (
	CompressNever CompressWhen = iota
	CompressBegin
	CompressEnd
	CompressDuring
)

// CompressMethod selects the low-rank compression algorithm.
type CompressMethod int

const (
	CompressSVD CompressMethod = iota
	CompressRRQR
)

// Scheduler selects the runtime back-end driving the static task schedule.
// Only Sequential and Static are implemented by this module; Dynamic,
// Parsec and StarPU are pluggable back-ends over the same task/data
// contract and are represented here only so that SolverParams.Scheduler can
// name them.
type Scheduler int

const (
	Sequential Scheduler = iota
	Static
	Dynamic
	Parsec
	StarPU
)

// CompressionParams groups the low-rank compression knobs.
type CompressionParams struct {
	When       CompressWhen
	Method     CompressMethod
	MinWidth   int     // COMPRESS_MIN_WIDTH
	MinHeight  int     // COMPRESS_MIN_HEIGHT
	Tolerance  float64 // COMPRESS_TOLERANCE
	MinRatio   float64 // rradd promotes to dense above min(m,n)/MinRatio
}

// DefaultCompressionParams returns the conservative defaults used when
// compression is requested without further tuning.
func DefaultCompressionParams() CompressionParams {
	return CompressionParams{
		When:      CompressNever,
		Method:    CompressSVD,
		MinWidth:  128,
		MinHeight: 128,
		Tolerance: 1e-8,
		MinRatio:  2,
	}
}

// SolverParams groups the numerical-phase knobs that are not structural.
type SolverParams struct {
	Factorization    Factorization
	StaticPivotEps   float64 // EPSILON_MAGN_CTRL
	DofNbr           int     // degree of freedom per unknown; defaults to 1
	Incomplete       bool    // enable ILU(k) lenient facing-block matching
	LevelOfFill      int
	ThreadNbr        int
	CUDANbr          int
	Scheduler        Scheduler
}

// DefaultSolverParams returns scalar (DofNbr=1), exact-factorization
// defaults.
func DefaultSolverParams() SolverParams {
	return SolverParams{
		Factorization:  LLT,
		StaticPivotEps: 1e-12,
		DofNbr:         1,
		ThreadNbr:      1,
		Scheduler:      Static,
	}
}

// BlendCtrl groups the structural analyze-phase knobs plus the scratch
// buffers the analyze passes borrow and return, avoiding a per-call
// allocation in the hot splitting/simulation loops. This mirrors gonum's
// mat64 pool.go, which pools whole decomposition buffers; here the pooled
// unit is the small []int32 scratch that split/simulate/solver repeatedly
// resize.
type BlendCtrl struct {
	MinBlockSize int // MIN_BLOCKSIZE / blcolmin
	MaxBlockSize int // MAX_BLOCKSIZE / blcolmax

	DistributionLevel int
	RatioLimit        float64

	Tasks2DLevel int // TASKS2D_LEVEL
	Tasks2DWidth int // TASKS2D_WIDTH

	NoCrossProc bool // hard-partition candidate sets across siblings
	AllCand     bool // debug: every node gets [0, totalCores-1]

	// SplitBeforeMapping resolves the PASTIX_BLEND_PROPMAP_2STEPS open
	// question: true runs SymbolSplitter before ProportionalMapper, false
	// runs it after. Both orders are supported; see pipeline.RunAnalyze.
	SplitBeforeMapping bool

	TotalCores int
	ClusterNbr int
	Core2Clust []int // core id -> cluster id, length TotalCores

	Compression CompressionParams
	Solver      SolverParams

	intvec  []int32
	intvec2 []int32
}

// IntVec returns a scratch []int32 of length n, reusing the cached backing
// array when it is large enough. The caller must not retain the slice past
// the next call to IntVec/IntVec2.
func (c *BlendCtrl) IntVec(n int) []int32 {
	if cap(c.intvec) < n {
		c.intvec = make([]int32, n)
	}
	return c.intvec[:n]
}

// IntVec2 is a second independent scratch buffer, needed by passes that
// must hold two live scratch ranges at once (e.g. simulate, which keeps its
// owner table in IntVec and its remaining-contribution counts in IntVec2).
func (c *BlendCtrl) IntVec2(n int) []int32 {
	if cap(c.intvec2) < n {
		c.intvec2 = make([]int32, n)
	}
	return c.intvec2[:n]
}

// Validate checks the structural invariants a BlendCtrl must satisfy before
// any analyze pass runs, returning a *pastixerr.Error of kind BadParameter.
func (c *BlendCtrl) Validate() error {
	if c.MinBlockSize <= 0 || c.MaxBlockSize <= 0 {
		return pastixerr.New("blendctrl.Validate", pastixerr.BadParameter,
			fmt.Errorf("MinBlockSize and MaxBlockSize must be positive, got %d, %d", c.MinBlockSize, c.MaxBlockSize))
	}
	if c.MinBlockSize > c.MaxBlockSize {
		return pastixerr.New("blendctrl.Validate", pastixerr.BadParameter,
			fmt.Errorf("MinBlockSize %d > MaxBlockSize %d", c.MinBlockSize, c.MaxBlockSize))
	}
	if c.TotalCores <= 0 {
		return pastixerr.New("blendctrl.Validate", pastixerr.BadParameter,
			fmt.Errorf("TotalCores must be positive, got %d", c.TotalCores))
	}
	if c.Solver.ThreadNbr <= 0 {
		return pastixerr.New("blendctrl.Validate", pastixerr.BadParameter,
			fmt.Errorf("Solver.ThreadNbr must be positive, got %d", c.Solver.ThreadNbr))
	}
	if c.Solver.DofNbr <= 0 {
		return pastixerr.New("blendctrl.Validate", pastixerr.BadParameter,
			fmt.Errorf("Solver.DofNbr must be positive, got %d", c.Solver.DofNbr))
	}
	if len(c.Core2Clust) != 0 && len(c.Core2Clust) != c.TotalCores {
		return pastixerr.New("blendctrl.Validate", pastixerr.BadParameter,
			fmt.Errorf("Core2Clust length %d must equal TotalCores %d", len(c.Core2Clust), c.TotalCores))
	}
	return nil
}
