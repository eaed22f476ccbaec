package zobrist

import (
	"sync"

	"lukechampine.com/frand"
)

const bignum = 1<<63 - 2

// NumSquares is the number of playable (dark) squares.
const NumSquares = 32

// SquareState is the occupancy of a single dark square.
type SquareState uint8

const (
	Empty SquareState = iota
	WhitePawn
	WhiteKing
	BlackPawn
	BlackKing

	NumStates
)

// tableSeed fixes the key stream so that hashes are stable from run to run.
// Any other 32 bytes would work just as well.
var tableSeed = []byte("checkers zobrist table, v1 seed!")

// generate a zobrist hash for a checkers position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
type Zobrist struct {
	posTable  [NumSquares][NumStates]uint64
	whiteTurn uint64
	blackTurn uint64
}

var (
	defaultZobrist *Zobrist
	defaultOnce    sync.Once
)

// Default returns the process-wide table. It is built once and never
// modified afterwards, so it is safe to share between goroutines.
func Default() *Zobrist {
	defaultOnce.Do(func() {
		defaultZobrist = &Zobrist{}
		defaultZobrist.Initialize(frand.NewCustom(tableSeed, 1024, 12))
	})
	return defaultZobrist
}

// Initialize fills the table with keys drawn from rng. Keys are never zero.
func (z *Zobrist) Initialize(rng *frand.RNG) {
	for i := 0; i < NumSquares; i++ {
		for j := 0; j < int(NumStates); j++ {
			z.posTable[i][j] = rng.Uint64n(bignum) + 1
		}
	}
	z.whiteTurn = rng.Uint64n(bignum) + 1
	z.blackTurn = rng.Uint64n(bignum) + 1
}

// SquareIndex maps a dark square to 0..31. It assumes (row+col) is even.
func SquareIndex(row, col int) int {
	return row*4 + col/2
}

// Hash folds the occupancy of all 32 squares and the side to move.
func (z *Zobrist) Hash(squares *[NumSquares]SquareState, whiteToMove bool) uint64 {
	key := z.blackTurn
	if whiteToMove {
		key = z.whiteTurn
	}
	for i, st := range squares {
		key ^= z.posTable[i][st]
	}
	return key
}

// Key returns the key for one square in one state.
func (z *Zobrist) Key(square int, st SquareState) uint64 {
	return z.posTable[square][st]
}

// TurnKeys returns the white-to-move and black-to-move keys.
func (z *Zobrist) TurnKeys() (uint64, uint64) {
	return z.whiteTurn, z.blackTurn
}
