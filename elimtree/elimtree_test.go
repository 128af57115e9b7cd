package elimtree_test

import (
	"testing"

	"github.com/ArtNlk/pastix-sub000/elimtree"
	"github.com/ArtNlk/pastix-sub000/internal/fixtures"
)

func TestBuildChain(t *testing.T) {
	sm := fixtures.Chain(5)
	tree, err := elimtree.Build(sm)
	if err != nil {
		t.Fatalf("Build() = %v, want nil", err)
	}
	if tree.Root() != 4 {
		t.Fatalf("Root() = %d, want 4", tree.Root())
	}
	for i := int32(0); i < 4; i++ {
		f, ok := tree.Father(i)
		if !ok || f != i+1 {
			t.Fatalf("Father(%d) = (%d, %v), want (%d, true)", i, f, ok, i+1)
		}
	}
	if _, ok := tree.Father(4); ok {
		t.Fatalf("Father(root) reports a father")
	}
	if got, want := tree.Level(4), int32(1); got != want {
		t.Fatalf("Level(root) = %d, want %d", got, want)
	}
	if got, want := tree.Level(0), int32(5); got != want {
		t.Fatalf("Level(0) = %d, want %d", got, want)
	}
}

func TestBuildBinarySons(t *testing.T) {
	sm := fixtures.Binary(3) // 7 nodes, root = 6
	tree, err := elimtree.Build(sm)
	if err != nil {
		t.Fatalf("Build() = %v, want nil", err)
	}
	sons := tree.Sons(6)
	if len(sons) != 2 {
		t.Fatalf("Sons(root) = %v, want 2 entries", sons)
	}
	if sons[0] >= sons[1] {
		t.Fatalf("Sons(root) = %v, want ascending order", sons)
	}
}

func TestPostOrderIsIdentity(t *testing.T) {
	sm := fixtures.Binary(3)
	tree, _ := elimtree.Build(sm)
	order := tree.PostOrder()
	for i, v := range order {
		if int32(i) != v {
			t.Fatalf("PostOrder()[%d] = %d, want %d", i, v, i)
		}
	}
}
