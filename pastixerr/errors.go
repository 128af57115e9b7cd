// Package pastixerr defines the error kinds shared by the analyze and
// numerical-factorization packages.
//
// Errors from analyze steps are returned to the caller; numerical kernels
// panic only on programmer error (invariant violations that indicate a bug
// in a prior analyze step) and otherwise report failures through the Kind
// values below.
package pastixerr

import "fmt"

// Kind classifies an error produced anywhere in the analyze or numerical
// pipeline.
type Kind int

const (
	// BadParameter reports an invalid iparm/dparm value, an inconsistent
	// processor/thread count, a missing preceding analyze step, or
	// blcolmin > blcolmax.
	BadParameter Kind = iota
	// IntegerType reports an external-tool integer-width mismatch (Scotch
	// coupling). Nothing in this module produces it; it is kept so that
	// callers wiring an ordering front-end have somewhere to report it.
	IntegerType
	// NumericalPivot is not a failure. It is counted (IPARM_STATIC_PIVOTING)
	// and may be wrapped for reporting, but it never aborts a pipeline.
	NumericalPivot
	// InternalInvariant reports a debug-build invariant violation detected by
	// solverCheck/candCheck/symbolCheck.
	InternalInvariant
	// OutOfMemory reports an allocation failure during analyze or numerical
	// factorization.
	OutOfMemory
)

func (k Kind) String() string {
	switch k {
	case BadParameter:
		return "bad parameter"
	case IntegerType:
		return "integer type mismatch"
	case NumericalPivot:
		return "numerical pivot"
	case InternalInvariant:
		return "internal invariant violation"
	case OutOfMemory:
		return "out of memory"
	default:
		return "unknown pastix error"
	}
}

// severity orders kinds for Max: higher is more severe.
func (k Kind) severity() int {
	switch k {
	case BadParameter:
		return 0
	case IntegerType:
		return 1
	case NumericalPivot:
		return 2
	case InternalInvariant:
		return 3
	case OutOfMemory:
		return 4
	default:
		return -1
	}
}

// Error is the concrete error type returned by this module's packages.
type Error struct {
	Kind Kind
	Op   string // the failing operation, e.g. "split.Split", "solver.Generate"
	Err  error  // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pastix: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("pastix: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error for op/kind, optionally wrapping cause.
func New(op string, kind Kind, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// ErrOutOfMemory is a sentinel usable by tests that need to simulate an
// allocation failure; Go has no portable way to force malloc to fail, so
// call sites that want to exercise the OutOfMemory path return this value
// directly instead of actually exhausting memory.
var ErrOutOfMemory = New("alloc", OutOfMemory, nil)

// Max returns the most severe of errs, following the ordering BadParameter <
// IntegerType < NumericalPivot < InternalInvariant < OutOfMemory, mirroring
// the "maximum error code via all-reduce" rule used to let every process in
// a distributed run agree on whether to abort. Non-*Error values are treated
// as BadParameter severity. Returns nil if errs is empty or every entry is
// nil.
func Max(errs ...error) error {
	var worst error
	worstSeverity := -1
	for _, err := range errs {
		if err == nil {
			continue
		}
		sev := 0
		if pe, ok := err.(*Error); ok {
			sev = pe.Kind.severity()
		}
		if worst == nil || sev > worstSeverity {
			worst = err
			worstSeverity = sev
		}
	}
	return worst
}
