// Package symbol provides the immutable view over column-blocks and blocks
// produced by an (out-of-scope) symbolic factorization step. A SymbolMatrix
// is the sole input to the rest of the analyze pipeline; package split
// derives a new, subdivided Matrix from it, and package solver consumes it.
package symbol

import (
	"fmt"

	"github.com/ArtNlk/pastix-sub000/pastixerr"
)

// Cblk describes one column-block: the contiguous column range [Fcolnum,
// Lcolnum] and the slice of Bloktab belonging to it, [Bloknum, next.Bloknum).
// Cblktab always carries one extra sentinel entry past the last real cblk so
// that block- and column-counts can be computed as a difference without a
// special case; see CblkNbr/BlokCount/ColCount.
type Cblk struct {
	Fcolnum int32
	Lcolnum int32
	Bloknum int32 // index of the first (diagonal) block in Bloktab
	Brownum int32 // index of the first entry of this cblk's slice of Browtab
}

// Blok describes one rectangular row range [Frownum, Lrownum] of its owning
// cblk, targeting facing cblk Fcblknm. The owning cblk is implicit: it is
// whichever cblk's [Bloknum, nextBloknum) range contains this block's index.
type Blok struct {
	Frownum int32
	Lrownum int32
	Lcblknm int32 // owning cblk
	Fcblknm int32 // facing cblk
	Browind int32 // reverse index into Browtab's entry for this block, -1 for a diagonal block
}

// Rownbr returns the number of rows spanned by b.
func (b Blok) Rownbr() int32 { return b.Lrownum - b.Frownum + 1 }

// Matrix is the symbolic view of a permuted sparse matrix's block structure.
// Baseval is the indexing base (0 or 1) used by the producing ordering tool;
// all fields in this package are already normalized to base 0, so Baseval is
// only carried along (split copies it) and never read by this module.
type Matrix struct {
	Baseval int32
	Cblktab []Cblk // length CblkNbr()+1, sentinel last
	Bloktab []Blok
	Browtab []int32 // global block ids, concatenated per cblk by Brownum
}

// CblkNbr returns the number of column-blocks.
func (m *Matrix) CblkNbr() int32 { return int32(len(m.Cblktab)) - 1 }

// BlokNbr returns the number of blocks.
func (m *Matrix) BlokNbr() int32 { return int32(len(m.Bloktab)) }

// ColCount returns the column width of cblk i.
func (m *Matrix) ColCount(i int32) int32 {
	return m.Cblktab[i].Lcolnum - m.Cblktab[i].Fcolnum + 1
}

// BlokCount returns the number of blocks (diagonal + off-diagonal) owned by
// cblk i.
func (m *Matrix) BlokCount(i int32) int32 {
	return m.Cblktab[i+1].Bloknum - m.Cblktab[i].Bloknum
}

// BrowCount returns the number of blocks contributing updates into cblk i.
func (m *Matrix) BrowCount(i int32) int32 {
	return m.Cblktab[i+1].Brownum - m.Cblktab[i].Brownum
}

// Brow returns the global block ids contributing updates into cblk i.
func (m *Matrix) Brow(i int32) []int32 {
	return m.Browtab[m.Cblktab[i].Brownum:m.Cblktab[i+1].Brownum]
}

// Bloks returns the blocks owned by cblk i, diagonal first.
func (m *Matrix) Bloks(i int32) []Blok {
	return m.Bloktab[m.Cblktab[i].Bloknum:m.Cblktab[i+1].Bloknum]
}

// BuildBrowtab derives Browtab and each Cblk.Brownum/Blok.Browind from
// Fcblknm, by scanning all off-diagonal blocks once and bucketing them by
// target cblk. It is called once, after the symbolic factorization produces
// Cblktab/Bloktab with Browtab left empty, and again after SymbolSplitter
// changes the block structure.
func (m *Matrix) BuildBrowtab() {
	n := m.CblkNbr()
	counts := make([]int32, n+1)
	for j := range m.Bloktab {
		b := &m.Bloktab[j]
		if b.Fcblknm == b.Lcblknm {
			continue // diagonal block, never browed
		}
		counts[b.Fcblknm]++
	}
	offsets := make([]int32, n+2)
	for i := int32(0); i < n; i++ {
		offsets[i+1] = offsets[i] + counts[i]
	}
	browtab := make([]int32, offsets[n])
	cursor := append([]int32(nil), offsets...)
	for j := range m.Bloktab {
		b := &m.Bloktab[j]
		if b.Fcblknm == b.Lcblknm {
			b.Browind = -1
			continue
		}
		pos := cursor[b.Fcblknm]
		browtab[pos] = int32(j)
		b.Browind = pos
		cursor[b.Fcblknm]++
	}
	for i := int32(0); i <= n; i++ {
		m.Cblktab[i].Brownum = offsets[i]
	}
	m.Browtab = browtab
}

// FacingBloknumSentinel is returned by FacingBloknum when no facing block
// exists and the caller is operating in lenient (ILU) mode.
const FacingBloknumSentinel = -1

// FacingBloknum finds, among the blocks owned by the facing cblk fcblknm,
// the one whose row range corresponds to [frownum, lrownum] in the source
// block's column space. In exact mode the match must be a containment
// (facing.Frownum <= frownum && lrownum <= facing.Lrownum); the source block
// must be wholly inside one facing block, or this panics with an
// InternalInvariant error, since that indicates the symbol matrix was built
// inconsistently. In lenient (ILU) mode the match only needs overlapping
// rows, the first such block (in row order) is returned, and a miss returns
// FacingBloknumSentinel instead of panicking, matching the fill-in pattern
// of an incomplete factorization where a facing entry may legitimately be
// absent.
func (m *Matrix) FacingBloknum(fcblknm int32, frownum, lrownum int32, lenient bool) int32 {
	for _, b := range m.Bloks(fcblknm) {
		if lenient {
			if frownum <= b.Lrownum && b.Frownum <= lrownum {
				return blokIndex(m, fcblknm, b)
			}
			continue
		}
		if b.Frownum <= frownum && lrownum <= b.Lrownum {
			return blokIndex(m, fcblknm, b)
		}
	}
	if lenient {
		return FacingBloknumSentinel
	}
	panic(pastixerr.New("symbol.FacingBloknum", pastixerr.InternalInvariant,
		fmt.Errorf("no containing block in cblk %d for rows [%d,%d]", fcblknm, frownum, lrownum)))
}

func blokIndex(m *Matrix, fcblknm int32, b Blok) int32 {
	base := m.Cblktab[fcblknm].Bloknum
	for j, bb := range m.Bloks(fcblknm) {
		if bb == b {
			return base + int32(j)
		}
	}
	panic("symbol: block not found in its own cblk slice") // unreachable
}

// Check validates invariants 1-3 of the data model: blocks inside a cblk are
// row-ascending with a diagonal first block, and every block's row range
// lies within its facing cblk's column range. It returns a
// *pastixerr.Error of kind InternalInvariant on the first violation found.
func (m *Matrix) Check() error {
	n := m.CblkNbr()
	for i := int32(0); i < n; i++ {
		bloks := m.Bloks(i)
		if len(bloks) == 0 {
			return pastixerr.New("symbol.Check", pastixerr.InternalInvariant,
				fmt.Errorf("cblk %d has no blocks", i))
		}
		diag := bloks[0]
		if diag.Frownum != m.Cblktab[i].Fcolnum || diag.Lrownum != m.Cblktab[i].Lcolnum {
			return pastixerr.New("symbol.Check", pastixerr.InternalInvariant,
				fmt.Errorf("cblk %d diagonal block rows [%d,%d] != cols [%d,%d]",
					i, diag.Frownum, diag.Lrownum, m.Cblktab[i].Fcolnum, m.Cblktab[i].Lcolnum))
		}
		if diag.Lcblknm != i || diag.Fcblknm != i {
			return pastixerr.New("symbol.Check", pastixerr.InternalInvariant,
				fmt.Errorf("cblk %d diagonal block is not self-facing", i))
		}
		prev := diag
		for _, b := range bloks[1:] {
			if b.Frownum <= prev.Frownum {
				return pastixerr.New("symbol.Check", pastixerr.InternalInvariant,
					fmt.Errorf("cblk %d blocks not row-ascending at frownum %d", i, b.Frownum))
			}
			if b.Lcblknm != i {
				return pastixerr.New("symbol.Check", pastixerr.InternalInvariant,
					fmt.Errorf("cblk %d has a block owned by %d", i, b.Lcblknm))
			}
			f := b.Fcblknm
			if b.Frownum < m.Cblktab[f].Fcolnum || b.Lrownum > m.Cblktab[f].Lcolnum {
				return pastixerr.New("symbol.Check", pastixerr.InternalInvariant,
					fmt.Errorf("cblk %d block rows [%d,%d] escape facing cblk %d cols [%d,%d]",
						i, b.Frownum, b.Lrownum, f, m.Cblktab[f].Fcolnum, m.Cblktab[f].Lcolnum))
			}
			prev = b
		}
	}
	return nil
}
