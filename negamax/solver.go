// Package negamax implements a depth-limited alpha-beta search over checkers
// positions, with a transposition table and heuristic move ordering.
package negamax

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/domino14/checkers/board"
	"github.com/domino14/checkers/heuristic"
	"github.com/domino14/checkers/move"
)

/*
function negamax(node, depth, α, β) is
    if depth <= 0 and no capture is forced then
        return heuristic(node)
    foreach child in children(node) do
        if child has the same side to move then
            value := negamax(child, depth, α, β)
        else
            value := −negamax(child, depth − 1, −β, −α)
        α := max(α, value)
        if α ≥ β then
            return α (* cut-off *)
    return α
*/

const (
	Lost = -1_000_000
	Win  = 1_000_000

	DefaultDepth = 6
)

type Solver struct {
	ttable *TranspositionTable

	transpositionTableOptim bool
	interiorOrderingOptim   bool

	// one snapshot per search height, used to take moves back.
	stateStack []*board.Board

	nodes atomic.Uint64

	logStream io.Writer
}

// NewSolver returns a solver that caches results in tt. A nil tt turns the
// transposition table off.
func NewSolver(tt *TranspositionTable) *Solver {
	return &Solver{
		ttable:                  tt,
		transpositionTableOptim: tt != nil,
	}
}

// SetTranspositionTableOptim turns the table on or off. It stays off for a
// solver made without one.
func (s *Solver) SetTranspositionTableOptim(tt bool) {
	s.transpositionTableOptim = tt && s.ttable != nil
}

// SetInteriorOrdering sorts the origins at every node with SortByHeuristic,
// not just at the root.
func (s *Solver) SetInteriorOrdering(o bool) {
	s.interiorOrderingOptim = o
}

// SetLogStream makes the solver write a trace of every node it expands.
func (s *Solver) SetLogStream(w io.Writer) {
	s.logStream = w
}

func (s *Solver) TranspositionTable() *TranspositionTable {
	return s.ttable
}

// Nodes returns the number of positions visited so far.
func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

// Negamax returns the value of b for the side to move, searched depth turns
// deep. A capture chain in progress is always played out, even past the
// depth limit. b is used as scratch space and restored before returning.
func (s *Solver) Negamax(b *board.Board, depth, α, β int) int {
	v := s.negamax(b, depth, α, β, 0)
	if s.ttable != nil {
		s.ttable.logStats()
	}
	log.Debug().Uint64("nodes", s.nodes.Load()).Int("depth", depth).Int("value", v).Msg("search-done")
	return v
}

func (s *Solver) snapshot(height int, b *board.Board) *board.Board {
	for len(s.stateStack) <= height {
		s.stateStack = append(s.stateStack, &board.Board{})
	}
	s.stateStack[height].CopyFrom(b)
	return s.stateStack[height]
}

func (s *Solver) negamax(b *board.Board, depth, α, β, height int) int {
	s.nodes.Add(1)
	if depth <= 0 && !b.ForcedJump() {
		return heuristic.Evaluate(b)
	}
	αOrig, βOrig := α, β
	if s.transpositionTableOptim {
		if e, ok := s.ttable.lookup(b.Hash()); ok && e.usable(depth, α, β) {
			return e.Score
		}
	}

	backup := s.snapshot(height, b)
	origins := b.MoveOrigins()
	if s.interiorOrderingOptim {
		origins = SortByHeuristic(b, origins)
	}
	indent := strings.Repeat(" ", 2*height)
	for _, cp := range origins {
		for _, d := range move.Directions {
			m := move.PieceMove{Pos: cp, Dir: d}
			if !b.MakeMove(m) {
				continue
			}
			var value int
			if b.Turn() == backup.Turn() {
				value = s.negamax(b, depth, α, β, height+1)
			} else {
				value = -s.negamax(b, depth-1, -β, -α, height+1)
			}
			b.CopyFrom(backup)
			if s.logStream != nil {
				fmt.Fprintf(s.logStream, "%s- play: %s\n%s  value: %d\n", indent, m, indent, value)
			}
			α = max(α, value)
			if α >= β {
				return α
			}
		}
	}
	if s.transpositionTableOptim && !b.ForcedJump() {
		s.ttable.store(b.Hash(), TableEntry{
			Score: α,
			Depth: max(depth, 0),
			Alpha: αOrig,
			Beta:  βOrig,
		})
	}
	return α
}
