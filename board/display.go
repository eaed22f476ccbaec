package board

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/domino14/checkers/move"
)

var ErrMalformedBoard = errors.New("malformed board")

// boardLines is the number of lines of the text form: a column header and
// one line per row.
const boardLines = move.BoardDim + 1

const emptyCode = '.'

// ToDisplayText renders the board with the top row (row 7) first. Every row
// starts with its label and each cell is followed by a space.
func (b *Board) ToDisplayText() string {
	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < move.BoardDim; c++ {
		sb.WriteByte(byte('A' + c))
		sb.WriteByte(' ')
	}
	for r := move.BoardDim - 1; r >= 0; r-- {
		fmt.Fprintf(&sb, "\n%d: ", r)
		for c := 0; c < move.BoardDim; c++ {
			cl := b.cells[r][c]
			if cl.occupied {
				sb.WriteByte(cl.piece.Code())
			} else {
				sb.WriteByte(emptyCode)
			}
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

func (b *Board) String() string {
	return b.ToDisplayText()
}

func pieceFromCode(code string) (Piece, bool, error) {
	switch code {
	case ".":
		return Piece{}, false, nil
	case "w":
		return Piece{Color: White}, true, nil
	case "W":
		return Piece{Color: White, King: true}, true, nil
	case "b":
		return Piece{Color: Black}, true, nil
	case "B":
		return Piece{Color: Black, King: true}, true, nil
	}
	return Piece{}, false, fmt.Errorf("%w: unknown cell code %q", ErrMalformedBoard, code)
}

// Parse reads a board in its text form from r: exactly nine lines, the first
// being the column header. The side to move is set to turn. A non-empty
// mustJump is adopted as is (a capture chain in progress); otherwise the
// forced jumps are computed from the position.
func Parse(r *bufio.Reader, turn Color, mustJump []move.CellPos) (*Board, error) {
	b := &Board{turn: turn}
	for i := 0; i < boardLines; i++ {
		line, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return nil, fmt.Errorf("%w: reading line %d: %w", ErrMalformedBoard, i, err)
		}
		if i == 0 {
			continue
		}
		row := move.BoardDim - i
		fields := strings.Fields(line)
		if len(fields) != move.BoardDim+1 {
			return nil, fmt.Errorf("%w: row %d has %d fields", ErrMalformedBoard, row, len(fields))
		}
		for col, code := range fields[1:] {
			p, ok, err := pieceFromCode(code)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			cp := move.CellPos{Row: row, Col: col}
			if !cp.Dark() {
				return nil, fmt.Errorf("%w: piece on light cell %s", ErrMalformedBoard, cp)
			}
			b.put(cp, p)
		}
	}
	b.promotePawns()
	if len(mustJump) > 0 {
		for _, cp := range mustJump {
			p, ok := b.At(cp)
			if !ok || p.Color != turn || !b.CanJump(cp) {
				return nil, fmt.Errorf("%w: %s cannot jump", ErrMalformedBoard, cp)
			}
		}
		b.mustJump = append([]move.CellPos(nil), mustJump...)
	} else {
		b.findForcedJumps()
	}
	b.rehash()
	return b, nil
}

// FromDisplayText parses a board from a string. Leading blank lines are
// ignored.
func FromDisplayText(s string, turn Color) (*Board, error) {
	s = strings.TrimLeft(s, "\r\n")
	return Parse(bufio.NewReader(strings.NewReader(s)), turn, nil)
}
