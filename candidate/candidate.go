// Package candidate assigns, to every cblk, the bitmask of structural flags
// (2D tasks, low-rank compression eligibility, ...) that downstream passes
// use to decide how a cblk is split, scheduled and factored, plus the
// candidate processor/cluster interval once proportional mapping has run.
package candidate

import (
	"fmt"

	"github.com/ArtNlk/pastix-sub000/blendctrl"
	"github.com/ArtNlk/pastix-sub000/elimtree"
	"github.com/ArtNlk/pastix-sub000/pastixerr"
	"github.com/ArtNlk/pastix-sub000/symbol"
)

// Type is the cblktype bitmask of independent structural flags.
type Type uint8

const (
	FanIn Type = 1 << iota
	Layout2D
	Tasks2D
	Compressed
	InSchur
)

func (t Type) Has(f Type) bool { return t&f != 0 }

// Cand is the per-cblk candidate record.
type Cand struct {
	Fcandnum, Lcandnum   int32 // candidate processor interval
	Fccandnum, Lccandnum int32 // candidate cluster interval, set by SetClusterCand
	CblkType             Type
	TreeLevel            int32
	CostLevel            float64
}

// Build initializes CblkType and TreeLevel for every cblk. A cblk is
// eligible for 2D tasks when its column width is at least
// ctrl.Tasks2DWidth and its tree level is at or above the root by no more
// than ctrl.Tasks2DLevel (i.e. it is close enough to the root that slicing
// it into tiles exposes useful parallelism), and, when set, by no more than
// the legacy ctrl.DistributionLevel bound and within ctrl.RatioLimit's
// stride/width aspect-ratio cap (an elongated panel gains little from 2D
// tiling regardless of its absolute width); it is eligible for compression
// when ctrl.Compression.When != Never and its column width and stride both
// meet the configured minimums. A son never gains a flag from its father:
// its Tasks2D/Compressed flags are exactly its own local eligibility, so a
// son narrower than the cutoff never inherits a wide father's flag.
func Build(sm *symbol.Matrix, tree *elimtree.Tree, ctrl *blendctrl.BlendCtrl) []Cand {
	n := sm.CblkNbr()
	cands := make([]Cand, n)

	for i := int32(0); i < n; i++ {
		cands[i].TreeLevel = tree.Level(i)
		cands[i].CblkType = localFlags(sm, i, cands[i].TreeLevel, ctrl)
	}

	// Process from root to leaves (descending id, since father id > son id).
	// Only father flags the son already carries pass the mask below, so the
	// OR leaves every son's own flags unchanged.
	for i := n - 1; i >= 0; i-- {
		f, ok := tree.Father(i)
		if !ok {
			continue
		}
		inherit := cands[f].CblkType & (Tasks2D | Compressed)
		cands[i].CblkType |= inherit & cands[i].CblkType
	}

	return cands
}

func localFlags(sm *symbol.Matrix, i int32, level int32, ctrl *blendctrl.BlendCtrl) Type {
	var t Type
	width := sm.ColCount(i)
	var stride int32
	for _, b := range sm.Bloks(i)[1:] {
		stride += b.Rownbr()
	}

	levelOK := level <= int32(ctrl.Tasks2DLevel)
	if ctrl.DistributionLevel > 0 {
		levelOK = levelOK && level <= int32(ctrl.DistributionLevel)
	}
	ratioOK := true
	if ctrl.RatioLimit > 0 && width > 0 {
		ratioOK = float64(stride)/float64(width) <= ctrl.RatioLimit
	}

	if width >= int32(ctrl.Tasks2DWidth) && levelOK && ratioOK {
		t |= Tasks2D | Layout2D
	}

	if ctrl.Compression.When != blendctrl.CompressNever {
		if width >= int32(ctrl.Compression.MinWidth) && stride >= int32(ctrl.Compression.MinHeight) {
			t |= Compressed
		}
	}
	return t
}

// SetClusterCand derives each cblk's candidate cluster interval
// [Fccandnum, Lccandnum] from its candidate processor interval via
// core2clust, the core-id -> cluster-id map. It must run after proportional
// mapping has assigned Fcandnum/Lcandnum.
func SetClusterCand(cands []Cand, core2clust []int) {
	for i := range cands {
		c := &cands[i]
		fc, lc := core2clust[c.Fcandnum], core2clust[c.Fcandnum]
		for p := c.Fcandnum; p <= c.Lcandnum; p++ {
			cl := core2clust[p]
			if cl < fc {
				fc = cl
			}
			if cl > lc {
				lc = cl
			}
		}
		c.Fccandnum, c.Lccandnum = int32(fc), int32(lc)
	}
}

// Check verifies that, for every cblk, its candidate processor interval is a
// non-empty, well-ordered range, and that the candidate set of every son is
// contained in its father's. It returns a *pastixerr.Error of kind
// InternalInvariant on the first violation.
func Check(tree *elimtree.Tree, cands []Cand) error {
	for i, c := range cands {
		if c.Fcandnum > c.Lcandnum {
			return pastixerr.New("candidate.Check", pastixerr.InternalInvariant,
				fmt.Errorf("cblk %d has empty candidate interval [%d,%d]", i, c.Fcandnum, c.Lcandnum))
		}
	}
	for i := range cands {
		f, ok := tree.Father(int32(i))
		if !ok {
			continue
		}
		son, father := cands[i], cands[f]
		if son.Fcandnum < father.Fcandnum || son.Lcandnum > father.Lcandnum {
			return pastixerr.New("candidate.Check", pastixerr.InternalInvariant,
				fmt.Errorf("cblk %d candidate [%d,%d] not contained in father %d's [%d,%d]",
					i, son.Fcandnum, son.Lcandnum, f, father.Fcandnum, father.Lcandnum))
		}
	}
	return nil
}
