// Package render draws a symbol.Matrix's block structure to a 72-DPI
// PostScript (EPS) canvas: each cblk's diagonal block as a gray square on
// the main diagonal, each off-diagonal block as a filled rectangle colored
// by its compression ratio.
package render

import (
	"image/color"
	"io"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgeps"

	"github.com/ArtNlk/pastix-sub000/symbol"
)

// CellSize is the side length, in points, of one matrix column/row in the
// rendered canvas.
const CellSize = vg.Length(4)

var diagonalGray = color.Gray{Y: 160}

// Rank looks up the stored rank of an off-diagonal block by its global
// index into sm.Bloktab, for WriteEPS's compression-ratio coloring. A
// block absent from the map (or with Rk <= 0) is rendered dense (ratio 1,
// black).
type Rank map[int32]int32

// WriteEPS renders sm to w as the 72-DPI PostScript dump described by the
// persisted-state layout: one cellSize×cellSize cell per matrix
// column/row, diagonal blocks gray, off-diagonal blocks colored by
// ratio(b) = 2*m*n / (rk*(m+n)), range-mapped 1 -> black, <5 -> a red
// ramp, >=5 -> a green ramp capped at 1.0.
func WriteEPS(w io.Writer, sm *symbol.Matrix, ranks Rank) error {
	n := sm.CblkNbr()
	ncol := sm.Cblktab[n].Fcolnum // sentinel: total column count
	side := vg.Length(ncol) * CellSize
	c := vgeps.New(side, side)

	for i := int32(0); i < n; i++ {
		width := sm.ColCount(i)
		for _, gb := range blockIndices(sm, i) {
			drawBlock(c, ncol, sm.Cblktab[i].Fcolnum, width, gb.idx, gb.b, ranks)
		}
	}

	_, err := c.WriteTo(w)
	return err
}

type globalBlok struct {
	idx int32
	b   symbol.Blok
}

func blockIndices(sm *symbol.Matrix, i int32) []globalBlok {
	bloks := sm.Bloks(i)
	out := make([]globalBlok, len(bloks))
	base := sm.Cblktab[i].Bloknum
	for j, b := range bloks {
		out[j] = globalBlok{idx: base + int32(j), b: b}
	}
	return out
}

func drawBlock(c *vgeps.Canvas, n, fcol, width int32, gidx int32, b symbol.Blok, ranks Rank) {
	x0 := vg.Length(fcol) * CellSize
	y0 := vg.Length(n) * CellSize
	y1 := y0 - vg.Length(b.Lrownum+1)*CellSize
	y0 = y0 - vg.Length(b.Frownum)*CellSize
	x1 := x0 + vg.Length(width)*CellSize

	var col color.Color
	if b.Lcblknm == b.Fcblknm {
		col = diagonalGray
	} else {
		m := b.Rownbr()
		col = ratioColor(m, width, ranks[gidx])
	}

	var p vg.Path
	p.Move(vg.Point{X: x0, Y: y0})
	p.Line(vg.Point{X: x1, Y: y0})
	p.Line(vg.Point{X: x1, Y: y1})
	p.Line(vg.Point{X: x0, Y: y1})
	p.Close()

	c.SetColor(col)
	c.Fill(p)
}

// ratioColor implements the 2mn/(rk(m+n)) compression-ratio color scale:
// rk<=0 (dense, or no recorded rank) and a ratio of 1 render black; ratios
// below 5 ramp from black toward red; ratios at or above 5 render pure green
// whose intensity is ratio/10, capped at 1.0 (full green from a ratio of 10).
func ratioColor(m, n, rk int32) color.Color {
	if rk <= 0 {
		return color.Black
	}
	ratio := 2 * float64(m) * float64(n) / (float64(rk) * float64(m+n))
	switch {
	case ratio < 5:
		t := clamp01((ratio - 1) / 4)
		return color.RGBA{R: uint8(255 * t), G: 0, B: 0, A: 255}
	default:
		t := clamp01(ratio / 10)
		return color.RGBA{R: 0, G: uint8(255 * t), B: 0, A: 255}
	}
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
