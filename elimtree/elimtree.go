// Package elimtree builds and queries the elimination tree over the
// supernodes (cblks) of a symbol.Matrix.
package elimtree

import (
	"fmt"

	"github.com/ArtNlk/pastix-sub000/pastixerr"
	"github.com/ArtNlk/pastix-sub000/symbol"
)

const noFather = -1

// Tree is the elimination tree over a symbol.Matrix's cblks. Sons of a node
// are listed in ascending cblk-id order: the symbol matrix's block order
// already guarantees this, and the simulator and proportional mapper rely
// on it.
type Tree struct {
	father []int32
	sons   [][]int32
	levels []int32
	root   int32
}

// Build scans sm once: for each cblk i with at least one off-diagonal
// block, its father is the facing cblk of its first off-diagonal block
// (sm.Bloks(i)[1]). Exactly one cblk (the root, by construction of the
// ordering) must have no father; Build returns an *pastixerr.Error of kind
// InternalInvariant if any other cblk lacks one, or if more than one root is
// found.
func Build(sm *symbol.Matrix) (*Tree, error) {
	n := sm.CblkNbr()
	t := &Tree{
		father: make([]int32, n),
		sons:   make([][]int32, n),
		root:   noFather,
	}
	for i := int32(0); i < n; i++ {
		bloks := sm.Bloks(i)
		if len(bloks) < 2 {
			t.father[i] = noFather
			continue
		}
		f := bloks[1].Fcblknm
		if f <= i {
			return nil, pastixerr.New("elimtree.Build", pastixerr.InternalInvariant,
				fmt.Errorf("cblk %d's father %d is not strictly greater", i, f))
		}
		t.father[i] = f
	}

	roots := 0
	for i := int32(0); i < n; i++ {
		if t.father[i] == noFather {
			roots++
			t.root = i
		} else {
			t.sons[t.father[i]] = append(t.sons[t.father[i]], i)
		}
	}
	if roots != 1 {
		return nil, pastixerr.New("elimtree.Build", pastixerr.InternalInvariant,
			fmt.Errorf("found %d cblks without a father, want exactly 1", roots))
	}

	t.levels = make([]int32, n)
	var assign func(i, lvl int32)
	assign = func(i, lvl int32) {
		t.levels[i] = lvl
		for _, s := range t.sons[i] {
			assign(s, lvl+1)
		}
	}
	assign(t.root, 1)

	return t, nil
}

// Father returns the father of i, or (-1, false) if i is the root.
func (t *Tree) Father(i int32) (int32, bool) {
	f := t.father[i]
	return f, f != noFather
}

// Sons returns the sons of i in ascending cblk-id order. The returned slice
// must not be modified.
func (t *Tree) Sons(i int32) []int32 { return t.sons[i] }

// Level returns the depth of i from the root; the root has level 1.
func (t *Tree) Level(i int32) int32 { return t.levels[i] }

// Root returns the unique cblk with no father.
func (t *Tree) Root() int32 { return t.root }

// CblkNbr returns the number of cblks in the tree.
func (t *Tree) CblkNbr() int32 { return int32(len(t.father)) }

// PostOrder returns the cblk ids in an order where every son appears before
// its father (a post-order traversal). Because cblk ids already increase
// from leaves to root (the ordering invariant Build relies on), this is
// simply the identity ordering 0..n-1, exposed as a method so callers don't
// need to know that.
func (t *Tree) PostOrder() []int32 {
	order := make([]int32, t.CblkNbr())
	for i := range order {
		order[i] = int32(i)
	}
	return order
}
