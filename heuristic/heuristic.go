// Package heuristic contains the static evaluation of a checkers position.
package heuristic

import (
	"github.com/domino14/checkers/board"
	"github.com/domino14/checkers/move"
)

const (
	pieceValue      = 5
	kingValue       = 10
	central6x6Value = 3
	central4x4Value = 1
	jumpValue       = 3
	// per empty forward diagonal square
	missingNeighbor = -1
	// per empty backward diagonal square
	exposedPawn = -2
)

// Indexed by the row relative to the color's own back row.
var (
	pawnRowValues = [move.BoardDim]int{7, 0, 1, 2, 3, 4, 5, 9}
	kingRowValues = [move.BoardDim]int{1, 2, 2, 3, 3, 2, 2, 1}
)

var (
	whiteForward = [2]move.MoveDir{move.TopLeft, move.TopRight}
	blackForward = [2]move.MoveDir{move.DownLeft, move.DownRight}
)

// Evaluate scores the position from the point of view of the side to move.
// Larger is better.
func Evaluate(b *board.Board) int {
	res := 0
	for _, c := range []board.Color{board.White, board.Black} {
		sub := evaluateColor(b, c)
		if c != b.Turn() {
			sub = -sub
		}
		res += sub
	}
	return res
}

func evaluateColor(b *board.Board, c board.Color) int {
	fwd, back := whiteForward, blackForward
	if c == board.Black {
		fwd, back = blackForward, whiteForward
	}
	total := 0
	for _, cp := range b.PiecePositions(c) {
		p, _ := b.At(cp)
		rrow := cp.Row
		if c == board.Black {
			rrow = move.BoardDim - 1 - cp.Row
		}
		total += pieceValue
		if inside(cp, 1) {
			total += central6x6Value
			if inside(cp, 2) {
				total += central4x4Value
			}
		}
		if c == b.Turn() && b.CanJump(cp) {
			total += jumpValue
		}
		if p.King {
			total += kingValue + kingRowValues[rrow]
			continue
		}
		total += pawnRowValues[rrow]
		total += emptyNeighbors(b, cp, fwd) * missingNeighbor
		total += emptyNeighbors(b, cp, back) * exposedPawn
	}
	return total
}

// inside returns true if cp is at least margin cells away from every edge.
func inside(cp move.CellPos, margin int) bool {
	hi := move.BoardDim - 1 - margin
	return cp.Row >= margin && cp.Row <= hi && cp.Col >= margin && cp.Col <= hi
}

// emptyNeighbors counts the on-board empty cells next to cp in dirs.
func emptyNeighbors(b *board.Board, cp move.CellPos, dirs [2]move.MoveDir) int {
	n := 0
	for _, d := range dirs {
		next, ok := cp.Shift(d)
		if !ok {
			continue
		}
		if _, occupied := b.At(next); !occupied {
			n++
		}
	}
	return n
}
