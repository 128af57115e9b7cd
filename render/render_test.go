package render_test

import (
	"bytes"
	"testing"

	"github.com/ArtNlk/pastix-sub000/laplacian"
	"github.com/ArtNlk/pastix-sub000/render"
)

func TestWriteEPSProducesPostScript(t *testing.T) {
	sm := laplacian.FivePoint(4, 4)

	var buf bytes.Buffer
	if err := render.WriteEPS(&buf, sm, render.Rank{}); err != nil {
		t.Fatalf("WriteEPS() = %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("WriteEPS() wrote no bytes")
	}
	const header = "%!PS-Adobe"
	if got := buf.String()[:len(header)]; got != header {
		t.Errorf("output does not start with a PostScript header, got %q", got)
	}
}

func TestWriteEPSAcceptsNilRanks(t *testing.T) {
	sm := laplacian.FivePoint(3, 3)
	var buf bytes.Buffer
	// no ranks supplied: every off-diagonal block falls back to dense/black,
	// and WriteEPS must still succeed.
	if err := render.WriteEPS(&buf, sm, nil); err != nil {
		t.Fatalf("WriteEPS() with nil ranks = %v", err)
	}
}
