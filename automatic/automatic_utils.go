package automatic

// Data collection for automatic games: computer vs computer matches.

import (
	"context"
	"encoding/csv"
	"errors"
	"expvar"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/domino14/checkers/board"
	"github.com/domino14/checkers/config"
	"github.com/domino14/checkers/stats"
)

var ErrAlreadyPlaying = errors.New("games are already being played, please wait till complete")

var (
	CVCCounter *expvar.Int
	IsPlaying  *expvar.Int
)

func init() {
	CVCCounter = expvar.NewInt("cvcCounter")
	IsPlaying = expvar.NewInt("isPlaying")
}

// MatchSummary sums up a match between two players.
type MatchSummary struct {
	Players     [2]string     `yaml:"players"`
	Games       int           `yaml:"games"`
	Wins        [2]int        `yaml:"wins"`
	Ties        int           `yaml:"ties"`
	MedianEval  float64       `yaml:"median_eval"`
	AvgGameTime time.Duration `yaml:"avg_game_time"`
	AvgMoveMs   [2]float64    `yaml:"avg_move_ms"`
	// DistinctGames counts the games with a different sequence of moves.
	DistinctGames int           `yaml:"distinct_games"`
	Duration      time.Duration `yaml:"duration"`
	Logfile       string        `yaml:"logfile"`
}

func (s *MatchSummary) String() string {
	return fmt.Sprintf("%s vs %s: %d games, %d-%d with %d ties, median eval %.1f, avg game time %v, %d distinct games",
		s.Players[0], s.Players[1], s.Games, s.Wins[0], s.Wins[1], s.Ties,
		s.MedianEval, s.AvgGameTime, s.DistinctGames)
}

type job struct {
	idx int
}

// StartCompVComp plays a match between the players made by factory and
// blocks until it is over or ctx is done. The number of games, the move cap,
// the number of parallel games and the log file come from cfg. The first
// player is Black in the even games. Every game is logged as a CSV record,
// and the summary is also written next to the log file as YAML.
func StartCompVComp(ctx context.Context, cfg *config.Config, factory PlayerFactory) (*MatchSummary, error) {
	if IsPlaying.Value() > 0 {
		return nil, ErrAlreadyPlaying
	}
	IsPlaying.Add(1)
	defer IsPlaying.Add(-1)

	numGames := cfg.GetInt(config.ConfigAutoplayGames)
	maxMoves := cfg.GetInt(config.ConfigAutoplayMaxMoves)
	threads := max(1, cfg.GetInt(config.ConfigAutoplayThreads))
	logfileName := cfg.GetString(config.ConfigAutoplayLogfile)

	logfile, err := os.Create(logfileName)
	if err != nil {
		return nil, err
	}
	log.Info().Int("games", numGames).Int("threads", threads).Str("logfile", logfileName).Msg("starting-match")
	CVCCounter.Set(0)
	start := time.Now()

	jobs := make(chan job, 100)
	logChan := make(chan []string, 100)
	results := make([]*GameResult, numGames)

	logDone := make(chan error, 1)
	go func() {
		w := csv.NewWriter(logfile)
		w.Write(logHeader)
		for rec := range logChan {
			w.Write(rec)
		}
		w.Flush()
		logDone <- errors.Join(w.Error(), logfile.Close())
		log.Debug().Msg("exiting-game-logger")
	}()

	g, gctx := errgroup.WithContext(ctx)
	for t := 0; t < threads; t++ {
		g.Go(func() error {
			players, err := factory(gctx)
			if err != nil {
				return err
			}
			defer func() {
				for _, p := range players {
					if err := p.Close(); err != nil {
						log.Err(err).Str("player", p.Name()).Msg("closing-player")
					}
				}
			}()
			runner := NewGameRunner(players, maxMoves, logChan)
			for j := range jobs {
				p1Color := board.Black
				if j.idx%2 == 1 {
					p1Color = board.White
				}
				res, err := runner.PlayGame(gctx, p1Color)
				if err != nil {
					return err
				}
				results[j.idx] = res
				CVCCounter.Add(1)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < numGames; i++ {
			select {
			case jobs <- job{idx: i}:
			case <-gctx.Done():
				log.Info().Msg("got stop signal, exiting soon")
				return nil
			}
		}
		return nil
	})

	err = g.Wait()
	close(logChan)
	logErr := <-logDone
	if err != nil {
		return nil, err
	}
	if logErr != nil {
		return nil, logErr
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	summary := summarize(results)
	summary.Duration = time.Since(start)
	summary.Logfile = logfileName
	log.Info().Int("games", summary.Games).Ints("wins", summary.Wins[:]).Int("ties", summary.Ties).
		Dur("duration", summary.Duration).Msg("match-over")

	out, err := yaml.Marshal(summary)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(logfileName+".summary.yaml", out, 0o644); err != nil {
		return nil, err
	}
	return summary, nil
}

func summarize(results []*GameResult) *MatchSummary {
	s := &MatchSummary{}
	evals := make([]float64, 0, len(results))
	fingerprints := map[uint64]bool{}
	var total, p1Think, p2Think time.Duration
	moves := [2]int{}
	for _, r := range results {
		if r == nil {
			continue
		}
		s.Players = r.Players
		s.Games++
		if r.Winner == Tie {
			s.Ties++
		} else {
			s.Wins[r.Winner]++
		}
		evals = append(evals, float64(r.FinalEval))
		fingerprints[r.Fingerprint] = true
		total += r.Thinking[0] + r.Thinking[1]
		p1Think += r.Thinking[0]
		p2Think += r.Thinking[1]
		moves[0] += r.MovesBy[0]
		moves[1] += r.MovesBy[1]
	}
	if s.Games == 0 {
		return s
	}
	s.MedianEval = stats.Median(evals)
	s.AvgGameTime = total / time.Duration(s.Games)
	s.DistinctGames = len(fingerprints)
	if moves[0] > 0 {
		s.AvgMoveMs[0] = float64(p1Think.Milliseconds()) / float64(moves[0])
	}
	if moves[1] > 0 {
		s.AvgMoveMs[1] = float64(p2Think.Milliseconds()) / float64(moves[1])
	}
	return s
}
