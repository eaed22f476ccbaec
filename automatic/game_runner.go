// Package automatic plays games between two players (bots or external engine
// processes) and collects statistics about them.
package automatic

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/domino14/checkers/board"
	"github.com/domino14/checkers/heuristic"
)

const (
	ReasonNoMoves     = "no-moves"
	ReasonMaxMoves    = "max-moves"
	ReasonIllegalMove = "illegal-move"
)

// Tie is the Winner of a game nobody won.
const Tie = -1

var logHeader = []string{"gameID", "player1", "player2", "p1color", "winner",
	"reason", "moves", "finaleval", "p1ms", "p2ms", "fingerprint"}

type GameResult struct {
	ID      string
	Players [2]string
	P1Color board.Color
	// Winner is the index of the winning player, or Tie.
	Winner int
	Reason string
	Moves  int
	// FinalEval is the static evaluation of the last position, from the
	// first player's point of view.
	FinalEval int
	// Time spent choosing moves, and moves chosen, per player. A capture
	// chain gives the same player several moves in a row.
	Thinking [2]time.Duration
	MovesBy  [2]int
	// Fingerprint identifies the sequence of moves played.
	Fingerprint uint64
	MoveList    []string
}

func (g *GameResult) record() []string {
	winner := "tie"
	if g.Winner != Tie {
		winner = g.Players[g.Winner]
	}
	return []string{
		g.ID,
		g.Players[0],
		g.Players[1],
		g.P1Color.String(),
		winner,
		g.Reason,
		strconv.Itoa(g.Moves),
		strconv.Itoa(g.FinalEval),
		strconv.FormatInt(g.Thinking[0].Milliseconds(), 10),
		strconv.FormatInt(g.Thinking[1].Milliseconds(), 10),
		strconv.FormatUint(g.Fingerprint, 16),
	}
}

// GameRunner plays games between its two players.
type GameRunner struct {
	players  [2]Player
	maxMoves int
	logchan  chan<- []string
}

// NewGameRunner returns a runner for the given players. A game reaching
// maxMoves moves is a tie. Finished games are sent to logchan as CSV
// records if it is not nil.
func NewGameRunner(players [2]Player, maxMoves int, logchan chan<- []string) *GameRunner {
	return &GameRunner{players: players, maxMoves: maxMoves, logchan: logchan}
}

// PlayGame plays one game from the starting position, the first player
// taking p1Color.
func (r *GameRunner) PlayGame(ctx context.Context, p1Color board.Color) (*GameResult, error) {
	colors := [2]board.Color{p1Color, p1Color.Opponent()}
	res := &GameResult{
		ID:      uuid.NewString(),
		Players: [2]string{r.players[0].Name(), r.players[1].Name()},
		P1Color: p1Color,
		Winner:  Tie,
	}
	for i, p := range r.players {
		if err := p.NewGame(colors[i]); err != nil {
			return nil, fmt.Errorf("starting game for %s: %w", p.Name(), err)
		}
	}

	b := board.New()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		onTurn := 0
		if b.Turn() != colors[0] {
			onTurn = 1
		}
		if !b.ExistsValidMove() {
			res.Winner = 1 - onTurn
			res.Reason = ReasonNoMoves
			break
		}
		if res.Moves >= r.maxMoves {
			res.Reason = ReasonMaxMoves
			break
		}
		p := r.players[onTurn]
		start := time.Now()
		m, err := p.ChooseMove(ctx, b)
		res.Thinking[onTurn] += time.Since(start)
		res.MovesBy[onTurn]++
		if err != nil {
			return nil, fmt.Errorf("%s choosing a move: %w", p.Name(), err)
		}
		if !b.MakeMove(m) {
			log.Warn().Str("player", p.Name()).Str("move", m.String()).
				Str("game", res.ID).Msg("illegal-move")
			res.Winner = 1 - onTurn
			res.Reason = ReasonIllegalMove
			break
		}
		res.Moves++
		res.MoveList = append(res.MoveList, m.String())
	}

	res.FinalEval = heuristic.Evaluate(b)
	if b.Turn() != colors[0] {
		res.FinalEval = -res.FinalEval
	}
	res.Fingerprint = xxhash.Sum64String(strings.Join(res.MoveList, ","))
	log.Debug().Str("game", res.ID).Int("winner", res.Winner).Str("reason", res.Reason).
		Int("moves", res.Moves).Int("eval", res.FinalEval).Msg("game-over")
	if r.logchan != nil {
		r.logchan <- res.record()
	}
	return res, nil
}
