// Package bot picks a move for the side to move by searching every legal
// root move in parallel.
package bot

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/domino14/checkers/board"
	"github.com/domino14/checkers/config"
	"github.com/domino14/checkers/move"
	"github.com/domino14/checkers/negamax"
)

var ErrNoLegalMoves = errors.New("no legal moves")

// searchFunc scores a position for its side to move and reports how many
// nodes it took.
type searchFunc func(b *board.Board, depth int, opts searchOpts) (int, uint64)

type searchOpts struct {
	ttCapacity       int
	interiorOrdering bool
}

func negamaxSearch(b *board.Board, depth int, opts searchOpts) (int, uint64) {
	s := negamax.NewSolver(negamax.NewTranspositionTable(opts.ttCapacity))
	s.SetInteriorOrdering(opts.interiorOrdering)
	v := s.Negamax(b, depth, negamax.Lost, negamax.Win)
	return v, s.Nodes()
}

type Bot struct {
	cfg  *config.Config
	code BotCode

	search searchFunc

	lastEval  int
	lastNodes uint64
}

func NewBot(cfg *config.Config) *Bot {
	return NewBotWithCode(cfg, SearchingBot)
}

func NewBotWithCode(cfg *config.Config, code BotCode) *Bot {
	return &Bot{cfg: cfg, code: code, search: negamaxSearch}
}

func (b *Bot) Code() BotCode {
	return b.code
}

// LastEval returns the score of the move chosen by the last call to
// ComputeMove, from the point of view of the side that played it.
func (b *Bot) LastEval() int {
	return b.lastEval
}

// LastNodes returns the number of positions searched by the last call to
// ComputeMove.
func (b *Bot) LastNodes() uint64 {
	return b.lastNodes
}

func (b *Bot) depth() int {
	if b.code == GreedyBot {
		return 0
	}
	return b.cfg.GetInt(config.ConfigSearchDepth)
}

type candidate struct {
	m     move.PieceMove
	child *board.Board
	// the side to move is the same after the move: a capture chain goes on.
	sameMover bool
}

// ComputeMove returns the move to play on bd. bd is not modified.
func (b *Bot) ComputeMove(bd *board.Board) (move.PieceMove, error) {
	if !hasSearch(b.code) {
		moves := bd.LegalMoves()
		if len(moves) == 0 {
			return move.PieceMove{}, ErrNoLegalMoves
		}
		b.lastEval, b.lastNodes = 0, 0
		return moves[frand.Intn(len(moves))], nil
	}

	work := bd.Copy()
	origins := work.MoveOrigins()
	if b.cfg.GetBool(config.ConfigShuffleRoot) {
		frand.Shuffle(len(origins), func(i, j int) {
			origins[i], origins[j] = origins[j], origins[i]
		})
	}
	origins = negamax.SortByHeuristic(work, origins)

	var cands []candidate
	for _, cp := range origins {
		for _, d := range move.Directions {
			m := move.PieceMove{Pos: cp, Dir: d}
			if !work.MakeMove(m) {
				continue
			}
			cands = append(cands, candidate{
				m:         m,
				child:     work.Copy(),
				sameMover: work.Turn() == bd.Turn(),
			})
			work.CopyFrom(bd)
		}
	}
	if len(cands) == 0 {
		return move.PieceMove{}, ErrNoLegalMoves
	}

	threads := max(1, b.cfg.GetInt(config.ConfigThreads))
	depth := b.depth()
	opts := searchOpts{
		ttCapacity: negamax.CapacityFor(b.cfg.GetFloat64(config.ConfigTTFractionOfMemory),
			min(threads, len(cands))),
		interiorOrdering: b.cfg.GetBool(config.ConfigInteriorOrdering),
	}

	scores := make([]int, len(cands))
	var nodes atomic.Uint64
	g := errgroup.Group{}
	g.SetLimit(threads)
	for i, c := range cands {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("searching %s: %v", c.m, r)
				}
			}()
			score, n := b.search(c.child, depth, opts)
			if !c.sameMover {
				score = -score
			}
			scores[i] = score
			nodes.Add(n)
			log.Debug().Str("move", c.m.String()).Int("score", score).Uint64("nodes", n).Msg("root-move-searched")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return move.PieceMove{}, err
	}

	best := 0
	for i := 1; i < len(cands); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	b.lastEval = scores[best]
	b.lastNodes = nodes.Load()
	log.Debug().Str("move", cands[best].m.String()).
		Int("eval", b.lastEval).
		Int("candidates", len(cands)).
		Uint64("nodes", b.lastNodes).
		Msg("computed-move")
	return cands[best].m, nil
}
