package board

// This file contains some sample positions, used mostly for testing.

// Position is the text form of a board, without the side to move.
type Position string

const (
	// KingDoubleJump: the white king on C2 takes D3 and then D5.
	KingDoubleJump Position = `
   A B C D E F G H
7: . . . . . . . b
6: . . . . . . . .
5: . . . b . . . .
4: . . . . . . . .
3: . . . b . . . .
2: . . W . . . . .
1: . . . . . . . .
0: . . . . . . . . `

	// WhiteBlocked: the lone white pawn on A0 has nowhere to go.
	WhiteBlocked Position = `
   A B C D E F G H
7: . . . . . . . .
6: . . . . . . . .
5: . . . . . . . .
4: . . . . . . . .
3: . . . . . . . .
2: . . b . . . . .
1: . b . . . . . .
0: w . . . . . . . `

	// KingPriority: both the pawn on A2 and the king on G2 can capture, but
	// only the king may.
	KingPriority Position = `
   A B C D E F G H
7: . . . . . . . .
6: . . . . . . . .
5: . . . . . . . .
4: . . . . . . . .
3: . b . . . b . .
2: w . . . . . W .
1: . . . . . . . .
0: . . . . . . . . `

	// TwoPawnJumps: the pawns on A2 and G2 can both capture.
	TwoPawnJumps Position = `
   A B C D E F G H
7: . . . . . . . .
6: . . . . . . . .
5: . . . . . . . .
4: . . . . . . . .
3: . b . . . b . .
2: w . . . . . w .
1: . . . . . . . .
0: . . . . . . . . `

	// CapturePromotes: the white pawn on B5 takes C6 and lands on the last
	// row.
	CapturePromotes Position = `
   A B C D E F G H
7: . . . . . . . .
6: . . b . . . . .
5: . w . . . . . b
4: . . . . . . . .
3: . . . . . . . .
2: . . . . . . . .
1: . . . . . . . .
0: . . . . . . . . `

	// Skirmish is a pawn-only middlegame with exchanges available to both
	// sides, far enough from either last row that nobody promotes within a
	// few plies.
	Skirmish Position = `
   A B C D E F G H
7: . b . b . b . b
6: b . b . . . b .
5: . . . b . . . .
4: . . . . w . . .
3: . . . . . . . .
2: w . w . . . w .
1: . w . w . w . w
0: w . w . w . w . `

	// KingsEndgame: two kings against a king and a pawn.
	KingsEndgame Position = `
   A B C D E F G H
7: . . . . . . . .
6: . . . . . . . .
5: . . . B . . . .
4: . . . . . . . .
3: . . . . . W . .
2: . . . . . . . .
1: . W . . . . . b
0: . . . . . . . . `
)

// FromPosition parses one of the sample positions. It panics on malformed
// input, so it is only meant for known-good positions.
func FromPosition(p Position, turn Color) *Board {
	b, err := FromDisplayText(string(p), turn)
	if err != nil {
		panic(err)
	}
	return b
}
