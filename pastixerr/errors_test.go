package pastixerr

import "testing"

func TestMaxSeverity(t *testing.T) {
	bad := New("split.Split", BadParameter, nil)
	inv := New("solver.Generate", InternalInvariant, nil)
	piv := New("kernel.Factor", NumericalPivot, nil)

	cases := []struct {
		name string
		errs []error
		want error
	}{
		{"empty", nil, nil},
		{"all nil", []error{nil, nil}, nil},
		{"single", []error{bad}, bad},
		{"invariant beats pivot", []error{piv, inv}, inv},
		{"oom sentinel beats invariant", []error{inv, ErrOutOfMemory}, ErrOutOfMemory},
		{"order independent", []error{ErrOutOfMemory, bad, piv}, ErrOutOfMemory},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Max(c.errs...)
			if got != c.want {
				t.Errorf("Max(%v) = %v, want %v", c.errs, got, c.want)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	e := New("split.Split", BadParameter, nil)
	const want = "pastix: split.Split: bad parameter"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
