package negamax

import (
	"sort"

	"github.com/domino14/checkers/board"
	"github.com/domino14/checkers/heuristic"
	"github.com/domino14/checkers/move"
)

type originSorter struct {
	origins []move.CellPos
	keys    []int
}

func (o originSorter) Len() int { return len(o.origins) }
func (o originSorter) Swap(i, j int) {
	o.origins[i], o.origins[j] = o.origins[j], o.origins[i]
	o.keys[i], o.keys[j] = o.keys[j], o.keys[i]
}
func (o originSorter) Less(i, j int) bool { return o.keys[i] > o.keys[j] }

// SortByHeuristic orders move origins best first. The key of an origin is
// the best static evaluation, from the point of view of the side to move in
// b, over the moves that start there. Origins with no legal move sort last.
// Ties keep their input order. b is not modified.
func SortByHeuristic(b *board.Board, origins []move.CellPos) []move.CellPos {
	sorter := originSorter{
		origins: append([]move.CellPos(nil), origins...),
		keys:    make([]int, len(origins)),
	}
	scratch := b.Copy()
	for i, cp := range sorter.origins {
		best := Lost
		for _, d := range move.Directions {
			if !scratch.MakeMove(move.PieceMove{Pos: cp, Dir: d}) {
				continue
			}
			score := heuristic.Evaluate(scratch)
			if scratch.Turn() != b.Turn() {
				score = -score
			}
			best = max(best, score)
			scratch.CopyFrom(b)
		}
		sorter.keys[i] = best
	}
	sort.Stable(sorter)
	return sorter.origins
}
