// Package fixtures builds small symbol.Matrix instances used across this
// module's package tests. It stands in for the out-of-scope ordering and
// symbolic-factorization front end.
package fixtures

import "github.com/ArtNlk/pastix-sub000/symbol"

// Chain returns a symbol matrix of n single-column cblks arranged as a
// path elimination tree: cblk i (i < n-1) has a diagonal block and one
// off-diagonal block targeting cblk i+1; cblk n-1 (the root) has only its
// diagonal block.
func Chain(n int32) *symbol.Matrix {
	m := &symbol.Matrix{
		Cblktab: make([]symbol.Cblk, n+1),
	}
	bloknum := int32(0)
	for i := int32(0); i < n; i++ {
		m.Cblktab[i] = symbol.Cblk{Fcolnum: i, Lcolnum: i, Bloknum: bloknum}
		m.Bloktab = append(m.Bloktab, symbol.Blok{Frownum: i, Lrownum: i, Lcblknm: i, Fcblknm: i})
		bloknum++
		if i < n-1 {
			m.Bloktab = append(m.Bloktab, symbol.Blok{Frownum: i + 1, Lrownum: i + 1, Lcblknm: i, Fcblknm: i + 1})
			bloknum++
		}
	}
	m.Cblktab[n] = symbol.Cblk{Fcolnum: n, Lcolnum: n, Bloknum: bloknum}
	m.BuildBrowtab()
	return m
}

// Binary returns a symbol matrix whose elimination tree is a complete
// binary tree of the given depth (depth=1 is a single root cblk). Each cblk
// is a single column; a non-root cblk at position i has one off-diagonal
// block targeting its parent, computed by the standard heap-array parent
// formula over a reversed (leaves-first) numbering so that every cblk's
// father has a strictly greater index, as the real ordering guarantees.
func Binary(depth int32) *symbol.Matrix {
	n := int32(1)<<uint(depth) - 1
	// parent[i] in heap order (0-root, children 2i+1,2i+2); we then renumber
	// so that children precede parents, since PaStiX numbers leaves first.
	heapParent := make([]int32, n)
	heapParent[0] = -1
	for i := int32(1); i < n; i++ {
		heapParent[i] = (i - 1) / 2
	}
	// Post-order renumbering: children before parents.
	newID := make([]int32, n)
	order := make([]int32, 0, n)
	var visit func(i int32)
	visit = func(i int32) {
		l, r := 2*i+1, 2*i+2
		if l < n {
			visit(l)
		}
		if r < n {
			visit(r)
		}
		order = append(order, i)
	}
	visit(0)
	for pos, old := range order {
		newID[old] = int32(pos)
	}

	father := make([]int32, n)
	for old := int32(0); old < n; old++ {
		if heapParent[old] < 0 {
			father[newID[old]] = -1
		} else {
			father[newID[old]] = newID[heapParent[old]]
		}
	}

	m := &symbol.Matrix{Cblktab: make([]symbol.Cblk, n+1)}
	bloknum := int32(0)
	for i := int32(0); i < n; i++ {
		m.Cblktab[i] = symbol.Cblk{Fcolnum: i, Lcolnum: i, Bloknum: bloknum}
		m.Bloktab = append(m.Bloktab, symbol.Blok{Frownum: i, Lrownum: i, Lcblknm: i, Fcblknm: i})
		bloknum++
		if f := father[i]; f >= 0 {
			m.Bloktab = append(m.Bloktab, symbol.Blok{Frownum: f, Lrownum: f, Lcblknm: i, Fcblknm: f})
			bloknum++
		}
	}
	m.Cblktab[n] = symbol.Cblk{Fcolnum: n, Lcolnum: n, Bloknum: bloknum}
	m.BuildBrowtab()
	return m
}

// WideChain is like Chain but every cblk i<n-1 has ColWidth contiguous
// columns and one off-diagonal block spanning all of them targeting the
// single-column root, used to exercise SymbolSplitter.
func WideChain(n int32, colWidth int32) *symbol.Matrix {
	m := &symbol.Matrix{Cblktab: make([]symbol.Cblk, n+1)}
	bloknum := int32(0)
	col := int32(0)
	for i := int32(0); i < n; i++ {
		width := colWidth
		if i == n-1 {
			width = 1
		}
		fcol, lcol := col, col+width-1
		m.Cblktab[i] = symbol.Cblk{Fcolnum: fcol, Lcolnum: lcol, Bloknum: bloknum}
		m.Bloktab = append(m.Bloktab, symbol.Blok{Frownum: fcol, Lrownum: lcol, Lcblknm: i, Fcblknm: i})
		bloknum++
		if i < n-1 {
			m.Bloktab = append(m.Bloktab, symbol.Blok{Frownum: 0, Lrownum: 0, Lcblknm: i, Fcblknm: n - 1})
			bloknum++
		}
		col += width
	}
	// Fix facing block row range to the root's single column, computed after
	// all cblks are laid out.
	rootFcol := m.Cblktab[n-1].Fcolnum
	for j := range m.Bloktab {
		b := &m.Bloktab[j]
		if b.Fcblknm == n-1 && b.Lcblknm != n-1 {
			b.Frownum, b.Lrownum = rootFcol, rootFcol
		}
	}
	m.Cblktab[n] = symbol.Cblk{Fcolnum: col, Lcolnum: col, Bloknum: bloknum}
	m.BuildBrowtab()
	return m
}
