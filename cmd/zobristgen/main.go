// Command zobristgen prints a freshly generated Zobrist table as Go source.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"lukechampine.com/frand"

	"github.com/domino14/checkers/zobrist"
)

func main() {
	seed := pflag.String("seed", "", "seed for a reproducible table; random if empty")
	pflag.Parse()

	rng := frand.New()
	if *seed != "" {
		b := make([]byte, 32)
		copy(b, *seed)
		rng = frand.NewCustom(b, 1024, 12)
	}
	z := &zobrist.Zobrist{}
	z.Initialize(rng)

	var sb strings.Builder
	fmt.Fprintf(&sb, "var posTable = [%d][%d]uint64{\n", zobrist.NumSquares, zobrist.NumStates)
	for sq := 0; sq < zobrist.NumSquares; sq++ {
		sb.WriteString("\t{")
		for st := zobrist.Empty; st < zobrist.NumStates; st++ {
			if st > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "0x%016x", z.Key(sq, st))
		}
		sb.WriteString("},\n")
	}
	sb.WriteString("}\n\n")
	white, black := z.TurnKeys()
	fmt.Fprintf(&sb, "const whiteTurn = 0x%016x\n", white)
	fmt.Fprintf(&sb, "const blackTurn = 0x%016x\n", black)
	if _, err := os.Stdout.WriteString(sb.String()); err != nil {
		os.Exit(1)
	}
}
