// Package move contains the geometry of a checkers board: cell coordinates,
// diagonal directions, and the (cell, direction) pair that describes a move.
package move

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const BoardDim = 8

var (
	ErrBadCellPos   = errors.New("bad cell position")
	ErrBadMoveDir   = errors.New("bad move direction")
	ErrBadPieceMove = errors.New("bad piece move")
)

var reCellPos = regexp.MustCompile(`^(?P<col>[A-H])(?P<row>[0-7])$`)

// MoveDir is one of the four diagonal directions. "Top" goes towards higher
// rows, "Left" towards lower columns.
type MoveDir uint8

const (
	TopLeft MoveDir = iota
	TopRight
	DownLeft
	DownRight
)

// Directions lists every direction, in the order the search tries them.
var Directions = [4]MoveDir{TopLeft, TopRight, DownLeft, DownRight}

func (d MoveDir) String() string {
	switch d {
	case TopLeft:
		return "tl"
	case TopRight:
		return "tr"
	case DownLeft:
		return "dl"
	case DownRight:
		return "dr"
	}
	return "??"
}

// Up returns true for the directions that increase the row.
func (d MoveDir) Up() bool {
	return d == TopLeft || d == TopRight
}

func (d MoveDir) delta() (int, int) {
	switch d {
	case TopLeft:
		return 1, -1
	case TopRight:
		return 1, 1
	case DownLeft:
		return -1, -1
	default:
		return -1, 1
	}
}

// Opposite returns the direction pointing the other way along the same
// diagonal.
func (d MoveDir) Opposite() MoveDir {
	switch d {
	case TopLeft:
		return DownRight
	case TopRight:
		return DownLeft
	case DownLeft:
		return TopRight
	default:
		return TopLeft
	}
}

// ParseMoveDir parses the two-letter direction codes tl, tr, dl, dr.
func ParseMoveDir(s string) (MoveDir, error) {
	switch s {
	case "tl":
		return TopLeft, nil
	case "tr":
		return TopRight, nil
	case "dl":
		return DownLeft, nil
	case "dr":
		return DownRight, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadMoveDir, s)
}

// CellPos is a cell on the board. Only dark squares (Row+Col even) ever hold
// a piece.
type CellPos struct {
	Row int
	Col int
}

func (c CellPos) String() string {
	return string(rune('A'+c.Col)) + string(rune('0'+c.Row))
}

// OnBoard returns true if the position lies inside the 8x8 grid.
func (c CellPos) OnBoard() bool {
	return c.Row >= 0 && c.Row < BoardDim && c.Col >= 0 && c.Col < BoardDim
}

// Dark returns true for the playable squares.
func (c CellPos) Dark() bool {
	return (c.Row+c.Col)%2 == 0
}

// Shift returns the neighbouring cell in the given direction. The second
// return value is false if that cell would be off the board.
func (c CellPos) Shift(d MoveDir) (CellPos, bool) {
	dr, dc := d.delta()
	n := CellPos{Row: c.Row + dr, Col: c.Col + dc}
	if !n.OnBoard() {
		return CellPos{}, false
	}
	return n, true
}

// Rotate returns the cell as seen after turning the board 180 degrees.
func (c CellPos) Rotate() CellPos {
	return CellPos{Row: BoardDim - 1 - c.Row, Col: BoardDim - 1 - c.Col}
}

// ParseCellPos parses a cell like C4: a column letter A-H followed by a row
// digit 0-7.
func ParseCellPos(s string) (CellPos, error) {
	m := reCellPos.FindStringSubmatch(s)
	if len(m) != 3 {
		return CellPos{}, fmt.Errorf("%w: %q", ErrBadCellPos, s)
	}
	return CellPos{Row: int(m[2][0] - '0'), Col: int(m[1][0] - 'A')}, nil
}

// ParseCellList parses a whitespace-separated list of cells. An empty string
// is an empty list.
func ParseCellList(s string) ([]CellPos, error) {
	fields := strings.Fields(s)
	cells := make([]CellPos, 0, len(fields))
	for _, f := range fields {
		cp, err := ParseCellPos(f)
		if err != nil {
			return nil, err
		}
		cells = append(cells, cp)
	}
	return cells, nil
}

// PieceMove moves (or jumps) the piece at Pos one step in Dir. Whether it is
// a simple move or a capture depends on what occupies the destination.
type PieceMove struct {
	Pos CellPos
	Dir MoveDir
}

func (m PieceMove) String() string {
	return m.Pos.String() + " " + m.Dir.String()
}

// ParsePieceMove parses a move like "C4 tr".
func ParsePieceMove(s string) (PieceMove, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return PieceMove{}, fmt.Errorf("%w: %q", ErrBadPieceMove, s)
	}
	pos, err := ParseCellPos(fields[0])
	if err != nil {
		return PieceMove{}, err
	}
	dir, err := ParseMoveDir(fields[1])
	if err != nil {
		return PieceMove{}, err
	}
	return PieceMove{Pos: pos, Dir: dir}, nil
}
