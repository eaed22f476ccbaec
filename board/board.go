// Package board implements the checkers rules: piece placement, legal move
// application, mandatory jump chains, promotion and position hashing.
package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/checkers/move"
	"github.com/domino14/checkers/zobrist"
)

var ErrBadColor = errors.New("bad color")

// Color is the color of a side. The zero value is Black, which also moves
// first.
type Color uint8

const (
	Black Color = iota
	White
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// ColorFromString parses the protocol spelling of a color.
func ColorFromString(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white":
		return White, nil
	case "black":
		return Black, nil
	}
	return Black, fmt.Errorf("%w: %q", ErrBadColor, s)
}

// forward returns true if a pawn of color c may move in direction d.
func forward(c Color, d move.MoveDir) bool {
	if c == White {
		return d.Up()
	}
	return !d.Up()
}

// promotionRow is the farthest row for the pawns of color c.
func promotionRow(c Color) int {
	if c == White {
		return move.BoardDim - 1
	}
	return 0
}

type Piece struct {
	Color Color
	King  bool
}

// Code is the single-character display code of the piece.
func (p Piece) Code() byte {
	switch {
	case p.Color == White && p.King:
		return 'W'
	case p.Color == White:
		return 'w'
	case p.King:
		return 'B'
	default:
		return 'b'
	}
}

func (p Piece) squareState() zobrist.SquareState {
	switch {
	case p.Color == White && p.King:
		return zobrist.WhiteKing
	case p.Color == White:
		return zobrist.WhitePawn
	case p.King:
		return zobrist.BlackKing
	default:
		return zobrist.BlackPawn
	}
}

type cell struct {
	piece    Piece
	occupied bool
}

// Board is a checkers position together with the side to move, the set of
// cells a pending capture must start from, and the Zobrist hash of the
// position. It is only ever changed through MakeMove.
type Board struct {
	cells    [move.BoardDim][move.BoardDim]cell
	turn     Color
	mustJump []move.CellPos
	hash     uint64
}

// New returns the standard starting position: White on rows 0-2, Black on
// rows 5-7, Black to move.
func New() *Board {
	b := &Board{turn: Black}
	forEachDark(func(cp move.CellPos) {
		switch {
		case cp.Row <= 2:
			b.put(cp, Piece{Color: White})
		case cp.Row >= 5:
			b.put(cp, Piece{Color: Black})
		}
	})
	b.findForcedJumps()
	b.rehash()
	return b
}

// forEachDark calls fn on every dark cell, bottom row first, left to right.
func forEachDark(fn func(cp move.CellPos)) {
	for r := 0; r < move.BoardDim; r++ {
		for c := r % 2; c < move.BoardDim; c += 2 {
			fn(move.CellPos{Row: r, Col: c})
		}
	}
}

func (b *Board) at(cp move.CellPos) *cell {
	return &b.cells[cp.Row][cp.Col]
}

func (b *Board) put(cp move.CellPos, p Piece) {
	*b.at(cp) = cell{piece: p, occupied: true}
}

func (b *Board) clear(cp move.CellPos) {
	*b.at(cp) = cell{}
}

// At returns the piece on the given cell, if any.
func (b *Board) At(cp move.CellPos) (Piece, bool) {
	if !cp.OnBoard() {
		return Piece{}, false
	}
	c := b.at(cp)
	return c.piece, c.occupied
}

func (b *Board) Turn() Color {
	return b.turn
}

func (b *Board) Hash() uint64 {
	return b.hash
}

// MustJump returns a copy of the cells a capture must start from. It is
// empty when no capture is forced.
func (b *Board) MustJump() []move.CellPos {
	return append([]move.CellPos(nil), b.mustJump...)
}

// ForcedJump returns true if the side to move has to capture.
func (b *Board) ForcedJump() bool {
	return len(b.mustJump) > 0
}

// MakeMove applies m for the side to move. It returns false, leaving the
// board untouched, if the move is illegal. After a capture that can be
// continued, the same side moves again and may only move the capturing
// piece.
func (b *Board) MakeMove(m move.PieceMove) bool {
	if !m.Pos.OnBoard() {
		return false
	}
	src := b.at(m.Pos)
	if !src.occupied || src.piece.Color != b.turn {
		return false
	}
	if len(b.mustJump) > 0 && !lo.Contains(b.mustJump, m.Pos) {
		return false
	}
	p := src.piece
	if !p.King && !forward(p.Color, m.Dir) {
		return false
	}
	next, ok := m.Pos.Shift(m.Dir)
	if !ok {
		return false
	}
	dst := b.at(next)
	if dst.occupied {
		if dst.piece.Color == b.turn {
			return false
		}
		landing, ok := next.Shift(m.Dir)
		if !ok || b.at(landing).occupied {
			return false
		}
		b.clear(m.Pos)
		b.clear(next)
		b.put(landing, p)
		if b.CanJump(landing) {
			b.mustJump = append(b.mustJump[:0], landing)
			// A pawn can only reach its last row moving forward, and it
			// can't capture any further from there.
			b.promotePawns()
			return true
		}
	} else {
		if len(b.mustJump) > 0 {
			return false
		}
		b.clear(m.Pos)
		b.put(next, p)
	}
	b.turn = b.turn.Opponent()
	b.promotePawns()
	b.findForcedJumps()
	b.rehash()
	return true
}

// CanJump returns true if the piece on cp has a capture available. The cell
// must hold a piece of the side to move.
func (b *Board) CanJump(cp move.CellPos) bool {
	c := b.at(cp)
	if !c.occupied {
		panic("CanJump called on empty cell " + cp.String())
	}
	if c.piece.Color != b.turn {
		panic("CanJump called on opponent piece at " + cp.String())
	}
	for _, d := range move.Directions {
		if !c.piece.King && !forward(c.piece.Color, d) {
			continue
		}
		next, ok := cp.Shift(d)
		if !ok {
			continue
		}
		victim := b.at(next)
		if !victim.occupied || victim.piece.Color == b.turn {
			continue
		}
		landing, ok := next.Shift(d)
		if ok && !b.at(landing).occupied {
			return true
		}
	}
	return false
}

// findForcedJumps rebuilds mustJump for the side to move. If any king can
// capture, only kings are listed.
func (b *Board) findForcedJumps() {
	b.mustJump = b.mustJump[:0]
	kingFound := false
	forEachDark(func(cp move.CellPos) {
		c := b.at(cp)
		if !c.occupied || c.piece.Color != b.turn || !b.CanJump(cp) {
			return
		}
		if c.piece.King && !kingFound {
			b.mustJump = b.mustJump[:0]
			kingFound = true
		}
		if c.piece.King || !kingFound {
			b.mustJump = append(b.mustJump, cp)
		}
	})
}

func (b *Board) promotePawns() {
	for _, c := range []Color{White, Black} {
		r := promotionRow(c)
		for col := 0; col < move.BoardDim; col++ {
			cl := &b.cells[r][col]
			if cl.occupied && cl.piece.Color == c {
				cl.piece.King = true
			}
		}
	}
}

func (b *Board) rehash() {
	var squares [zobrist.NumSquares]zobrist.SquareState
	forEachDark(func(cp move.CellPos) {
		if c := b.at(cp); c.occupied {
			squares[zobrist.SquareIndex(cp.Row, cp.Col)] = c.piece.squareState()
		}
	})
	b.hash = zobrist.Default().Hash(&squares, b.turn == White)
}

// ExistsValidMove returns true if the side to move has at least one legal
// move. A side without one has lost.
func (b *Board) ExistsValidMove() bool {
	scratch := b.Copy()
	for _, cp := range b.MoveOrigins() {
		for _, d := range move.Directions {
			if scratch.MakeMove(move.PieceMove{Pos: cp, Dir: d}) {
				return true
			}
		}
	}
	return false
}

// PiecePositions returns the cells holding pieces of color c.
func (b *Board) PiecePositions(c Color) []move.CellPos {
	var out []move.CellPos
	forEachDark(func(cp move.CellPos) {
		if cl := b.at(cp); cl.occupied && cl.piece.Color == c {
			out = append(out, cp)
		}
	})
	return out
}

// MoveOrigins returns the cells a move can start from: the forced jump set
// if there is one, else every piece of the side to move.
func (b *Board) MoveOrigins() []move.CellPos {
	if len(b.mustJump) > 0 {
		return b.MustJump()
	}
	return b.PiecePositions(b.turn)
}

// LegalMoves lists every legal move for the side to move.
func (b *Board) LegalMoves() []move.PieceMove {
	var moves []move.PieceMove
	scratch := b.Copy()
	for _, cp := range b.MoveOrigins() {
		for _, d := range move.Directions {
			m := move.PieceMove{Pos: cp, Dir: d}
			if scratch.MakeMove(m) {
				moves = append(moves, m)
				scratch.CopyFrom(b)
			}
		}
	}
	return moves
}

// CountPieces returns the number of pawns and kings of color c.
func (b *Board) CountPieces(c Color) (pawns, kings int) {
	forEachDark(func(cp move.CellPos) {
		cl := b.at(cp)
		if !cl.occupied || cl.piece.Color != c {
			return
		}
		if cl.piece.King {
			kings++
		} else {
			pawns++
		}
	})
	return pawns, kings
}

// Copy returns a deep copy of the board.
func (b *Board) Copy() *Board {
	n := &Board{}
	n.CopyFrom(b)
	return n
}

// CopyFrom overwrites b with the contents of o, reusing b's storage.
func (b *Board) CopyFrom(o *Board) {
	b.cells = o.cells
	b.turn = o.turn
	b.mustJump = append(b.mustJump[:0], o.mustJump...)
	b.hash = o.hash
}

// Equals checks the boards for equality, including the side to move, the
// forced jump set and the hash.
func (b *Board) Equals(o *Board) bool {
	if b.turn != o.turn {
		log.Debug().Str("a", b.turn.String()).Str("b", o.turn.String()).Msg("turns-differ")
		return false
	}
	if b.hash != o.hash {
		log.Debug().Uint64("a", b.hash).Uint64("b", o.hash).Msg("hashes-differ")
		return false
	}
	if len(b.mustJump) != len(o.mustJump) {
		log.Debug().Int("a", len(b.mustJump)).Int("b", len(o.mustJump)).Msg("must-jump-lengths-differ")
		return false
	}
	for i := range b.mustJump {
		if b.mustJump[i] != o.mustJump[i] {
			log.Debug().Int("idx", i).Msg("must-jump-differs")
			return false
		}
	}
	for r := 0; r < move.BoardDim; r++ {
		for c := 0; c < move.BoardDim; c++ {
			if b.cells[r][c] != o.cells[r][c] {
				log.Debug().Int("row", r).Int("col", c).Msg("cells-differ")
				return false
			}
		}
	}
	return true
}

// Mirror returns the position rotated by 180 degrees with the colors of all
// pieces swapped. The side to move is kept, and the forced jump set is
// computed afresh for the new position (a chain in progress is not carried
// over).
func (b *Board) Mirror() *Board {
	m := &Board{turn: b.turn}
	forEachDark(func(cp move.CellPos) {
		if cl := b.at(cp); cl.occupied {
			p := cl.piece
			p.Color = p.Color.Opponent()
			m.put(cp.Rotate(), p)
		}
	})
	m.findForcedJumps()
	m.rehash()
	return m
}
