// Package pipeline sequences the analyze ("blend") passes — elimination
// tree, candidate flags, cost model, proportional mapping, splitting and
// simulation — into the single ordered call the demo CLI and its tests
// drive end to end.
package pipeline

import (
	"github.com/ArtNlk/pastix-sub000/blendctrl"
	"github.com/ArtNlk/pastix-sub000/candidate"
	"github.com/ArtNlk/pastix-sub000/cost"
	"github.com/ArtNlk/pastix-sub000/elimtree"
	"github.com/ArtNlk/pastix-sub000/propmap"
	"github.com/ArtNlk/pastix-sub000/simulate"
	"github.com/ArtNlk/pastix-sub000/split"
	"github.com/ArtNlk/pastix-sub000/symbol"
)

// Analysis is the complete, mutually consistent analyze-phase output: the
// (possibly split) symbol matrix, its final candidate table, elimination
// tree, cost matrix and simulated task order.
type Analysis struct {
	Symbol *symbol.Matrix
	Cands  []candidate.Cand
	Tree   *elimtree.Tree
	Cost   *cost.Matrix
	Sim    *simulate.Result
}

// RunAnalyze resolves the PASTIX_BLEND_PROPMAP_2STEPS open question:
// ctrl.SplitBeforeMapping selects whether SymbolSplitter runs before or
// after ProportionalMapper. Either order is supported; afterward,
// candidate structural state (CblkType/TreeLevel) is always rebuilt from
// the final, post-split tree before the simulator runs, so the simulator
// never sees flags computed against a stale tree shape, while each cblk's
// already-assigned processor/cluster interval is carried through the
// rebuild untouched.
func RunAnalyze(sm *symbol.Matrix, ctrl *blendctrl.BlendCtrl) (*Analysis, error) {
	if err := ctrl.Validate(); err != nil {
		return nil, err
	}

	tree, err := elimtree.Build(sm)
	if err != nil {
		return nil, err
	}
	cands := candidate.Build(sm, tree, ctrl)
	cm := cost.Build(sm, tree, ctrl.Solver.Factorization, ctrl.Solver.DofNbr)

	if ctrl.SplitBeforeMapping {
		res := split.Split(sm, cands, ctrl)
		sm, cands = res.Symbol, res.Cands
		if tree, err = elimtree.Build(sm); err != nil {
			return nil, err
		}
		cm = cost.Build(sm, tree, ctrl.Solver.Factorization, ctrl.Solver.DofNbr)
		if err := propmap.Map(tree, cm, cands, ctrl.TotalCores, ctrl.NoCrossProc, ctrl.AllCand); err != nil {
			return nil, err
		}
	} else {
		if err := propmap.Map(tree, cm, cands, ctrl.TotalCores, ctrl.NoCrossProc, ctrl.AllCand); err != nil {
			return nil, err
		}
		res := split.Split(sm, cands, ctrl)
		sm, cands = res.Symbol, res.Cands
		if tree, err = elimtree.Build(sm); err != nil {
			return nil, err
		}
		cm = cost.Build(sm, tree, ctrl.Solver.Factorization, ctrl.Solver.DofNbr)
	}

	rebuildCandidateState(sm, tree, ctrl, cands)

	if len(ctrl.Core2Clust) != 0 {
		candidate.SetClusterCand(cands, ctrl.Core2Clust)
	}
	if err := candidate.Check(tree, cands); err != nil {
		return nil, err
	}

	sim, err := simulate.Build(sm, cands, cm, ctrl, ctrl.TotalCores)
	if err != nil {
		return nil, err
	}

	return &Analysis{Symbol: sm, Cands: cands, Tree: tree, Cost: cm, Sim: sim}, nil
}

// rebuildCandidateState re-derives CblkType/TreeLevel in place from the
// current tree shape, leaving each cblk's processor/cluster interval
// exactly as already assigned.
func rebuildCandidateState(sm *symbol.Matrix, tree *elimtree.Tree, ctrl *blendctrl.BlendCtrl, cands []candidate.Cand) {
	fresh := candidate.Build(sm, tree, ctrl)
	for i := range cands {
		cands[i].CblkType = fresh[i].CblkType
		cands[i].TreeLevel = fresh[i].TreeLevel
	}
}
