package automatic

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/domino14/checkers/ai/bot"
	"github.com/domino14/checkers/board"
	"github.com/domino14/checkers/config"
	"github.com/domino14/checkers/move"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigThreads, 1)
	cfg.Set(config.ConfigShuffleRoot, false)
	return cfg
}

func randomPlayers(cfg *config.Config) [2]Player {
	return [2]Player{
		NewBotPlayer("random1", bot.NewBotWithCode(cfg, bot.RandomBot)),
		NewBotPlayer("random2", bot.NewBotWithCode(cfg, bot.RandomBot)),
	}
}

// stubPlayer always plays the same move.
type stubPlayer struct {
	name string
	m    move.PieceMove
}

func (p *stubPlayer) Name() string              { return p.name }
func (p *stubPlayer) NewGame(board.Color) error { return nil }
func (p *stubPlayer) Close() error              { return nil }
func (p *stubPlayer) ChooseMove(context.Context, *board.Board) (move.PieceMove, error) {
	return p.m, nil
}

func TestRandomGame(t *testing.T) {
	is := is.New(t)
	logchan := make(chan []string, 1)
	r := NewGameRunner(randomPlayers(testConfig()), 300, logchan)
	res, err := r.PlayGame(context.Background(), board.Black)
	is.NoErr(err)
	is.True(res.Reason == ReasonNoMoves || res.Reason == ReasonMaxMoves)
	is.True(res.Moves <= 300)
	is.Equal(len(res.MoveList), res.Moves)
	is.Equal(res.MovesBy[0]+res.MovesBy[1], res.Moves)
	if res.Reason == ReasonMaxMoves {
		is.Equal(res.Winner, Tie)
	} else {
		is.True(res.Winner == 0 || res.Winner == 1)
	}

	rec := <-logchan
	is.Equal(len(rec), len(logHeader))
	is.Equal(rec[0], res.ID)
	is.Equal(rec[3], "black")

	// replaying the moves gives the same final position.
	b := board.New()
	for _, ms := range res.MoveList {
		m, err := move.ParsePieceMove(ms)
		is.NoErr(err)
		is.True(b.MakeMove(m))
	}
	if res.Reason == ReasonNoMoves {
		is.True(!b.ExistsValidMove())
	}
}

func TestMaxMovesIsATie(t *testing.T) {
	is := is.New(t)
	r := NewGameRunner(randomPlayers(testConfig()), 2, nil)
	res, err := r.PlayGame(context.Background(), board.White)
	is.NoErr(err)
	is.Equal(res.Winner, Tie)
	is.Equal(res.Reason, ReasonMaxMoves)
	is.Equal(res.Moves, 2)
	is.Equal(res.MovesBy, [2]int{1, 1})
	is.Equal(res.P1Color, board.White)
}

func TestSummarizeCountsChainMoves(t *testing.T) {
	is := is.New(t)
	// the first player took a double jump, so it made three of the four
	// moves.
	results := []*GameResult{
		nil,
		{
			Players:  [2]string{"a", "b"},
			P1Color:  board.Black,
			Winner:   0,
			Moves:    4,
			MovesBy:  [2]int{3, 1},
			Thinking: [2]time.Duration{300 * time.Millisecond, 100 * time.Millisecond},
		},
	}
	s := summarize(results)
	is.Equal(s.Games, 1)
	is.Equal(s.Wins, [2]int{1, 0})
	is.Equal(s.AvgMoveMs, [2]float64{100, 100})
	is.Equal(s.AvgGameTime, 400*time.Millisecond)
}

func TestIllegalMoveLoses(t *testing.T) {
	is := is.New(t)
	cfg := testConfig()
	// A0 holds a white pawn; Black moves first.
	cheat := &stubPlayer{name: "cheat", m: move.PieceMove{Pos: move.CellPos{Row: 0, Col: 0}, Dir: move.TopRight}}
	r := NewGameRunner([2]Player{cheat, NewBotPlayer("random", bot.NewBotWithCode(cfg, bot.RandomBot))}, 200, nil)
	res, err := r.PlayGame(context.Background(), board.Black)
	is.NoErr(err)
	is.Equal(res.Winner, 1)
	is.Equal(res.Reason, ReasonIllegalMove)
	is.Equal(res.Moves, 0)
	// nothing happened to the board.
	is.Equal(res.FinalEval, 0)
}

func TestCancelledGame(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewGameRunner(randomPlayers(testConfig()), 200, nil)
	_, err := r.PlayGame(ctx, board.Black)
	is.True(errors.Is(err, context.Canceled))
}

// fakeEngine answers requests in the engine protocol with the first legal
// move of the position.
func fakeEngine(r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	var color board.Color
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if c, err := board.ColorFromString(line); err == nil {
			color = c
			continue
		}
		cells, err := move.ParseCellList(line)
		if err != nil {
			return err
		}
		b, err := board.Parse(br, color, cells)
		if err != nil {
			return err
		}
		moves := b.LegalMoves()
		if len(moves) == 0 {
			return errors.New("asked to move in a lost position")
		}
		if _, err := fmt.Fprintln(w, moves[0].String()); err != nil {
			return err
		}
	}
}

func TestPipePlayer(t *testing.T) {
	is := is.New(t)
	toEngine, engineIn := io.Pipe()
	engineOut, fromEngine := io.Pipe()
	done := make(chan error, 1)
	go func() {
		err := fakeEngine(toEngine, fromEngine)
		fromEngine.Close()
		done <- err
	}()

	piped := NewPipePlayer("piped", engineIn, engineOut)
	r := NewGameRunner([2]Player{piped, NewBotPlayer("random", bot.NewBotWithCode(testConfig(), bot.RandomBot))}, 200, nil)
	for _, c := range []board.Color{board.Black, board.White} {
		res, err := r.PlayGame(context.Background(), c)
		is.NoErr(err)
		is.True(res.Reason != ReasonIllegalMove)
		is.True(res.Moves > 0)
	}
	is.NoErr(piped.Close())
	is.NoErr(<-done)
}

func TestWriteRequest(t *testing.T) {
	is := is.New(t)
	b := board.FromPosition(board.TwoPawnJumps, board.White)
	var sb strings.Builder
	is.NoErr(WriteRequest(&sb, b))
	lines := strings.Split(sb.String(), "\n")
	is.Equal(lines[0], "A2 G2")
	is.Equal(len(lines), 11) // must-jump line, header, 8 rows and the final newline
	is.Equal(lines[1], "   A B C D E F G H ")

	parsed, err := board.Parse(bufio.NewReader(strings.NewReader(strings.Join(lines[1:], "\n"))),
		board.White, nil)
	is.NoErr(err)
	is.True(parsed.Equals(b))
}

func TestStartCompVComp(t *testing.T) {
	is := is.New(t)
	cfg := testConfig()
	cfg.Set(config.ConfigAutoplayGames, 4)
	cfg.Set(config.ConfigAutoplayThreads, 2)
	cfg.Set(config.ConfigAutoplayMaxMoves, 80)
	logfile := filepath.Join(t.TempDir(), "games.csv")
	cfg.Set(config.ConfigAutoplayLogfile, logfile)

	factory := func(context.Context) ([2]Player, error) {
		return [2]Player{
			NewBotPlayer("greedy", bot.NewBotWithCode(cfg, bot.GreedyBot)),
			NewBotPlayer("random", bot.NewBotWithCode(cfg, bot.RandomBot)),
		}, nil
	}
	summary, err := StartCompVComp(context.Background(), cfg, factory)
	is.NoErr(err)
	is.Equal(summary.Games, 4)
	is.Equal(summary.Wins[0]+summary.Wins[1]+summary.Ties, 4)
	is.Equal(summary.Players, [2]string{"greedy", "random"})
	is.True(summary.DistinctGames >= 1 && summary.DistinctGames <= 4)
	is.Equal(CVCCounter.Value(), int64(4))
	is.Equal(IsPlaying.Value(), int64(0))

	f, err := os.Open(logfile)
	is.NoErr(err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	is.NoErr(err)
	is.Equal(len(records), 5)
	is.Equal(records[0], logHeader)
	blacks := 0
	for _, rec := range records[1:] {
		if rec[3] == "black" {
			blacks++
		}
	}
	is.Equal(blacks, 2)

	out, err := os.ReadFile(logfile + ".summary.yaml")
	is.NoErr(err)
	var fromFile MatchSummary
	is.NoErr(yaml.Unmarshal(out, &fromFile))
	is.Equal(fromFile.Games, 4)
	is.Equal(fromFile.Wins, summary.Wins)

	analysis, err := AnalyzeLogFile(logfile)
	is.NoErr(err)
	is.True(strings.Contains(analysis, "Games played: 4\n"))
	is.True(strings.Contains(analysis, "Final eval histogram:"))
}

func TestStartCompVCompAlreadyPlaying(t *testing.T) {
	is := is.New(t)
	IsPlaying.Add(1)
	defer IsPlaying.Add(-1)
	_, err := StartCompVComp(context.Background(), testConfig(), nil)
	is.True(errors.Is(err, ErrAlreadyPlaying))
}

func TestFactoryErrorStopsMatch(t *testing.T) {
	is := is.New(t)
	cfg := testConfig()
	cfg.Set(config.ConfigAutoplayLogfile, filepath.Join(t.TempDir(), "games.csv"))
	boom := errors.New("no engine")
	_, err := StartCompVComp(context.Background(), cfg, func(context.Context) ([2]Player, error) {
		return [2]Player{}, boom
	})
	is.True(errors.Is(err, boom))
}

func TestAnalyzeLogFile(t *testing.T) {
	is := is.New(t)
	logfile := filepath.Join(t.TempDir(), "games.csv")
	content := strings.Join(logHeader, ",") + "\n" +
		"g1,a,b,black,a,no-moves,40,30,10,12,ff\n" +
		"g2,a,b,white,tie,max-moves,200,0,10,12,fe\n" +
		"g3,a,b,black,b,illegal-move,5,-10,10,12,fd\n" +
		"g4,a,b,white,a,no-moves,51,25,10,12,ff\n"
	is.NoErr(os.WriteFile(logfile, []byte(content), 0o644))

	out, err := AnalyzeLogFile(logfile)
	is.NoErr(err)
	for _, want := range []string{
		"Games played: 4\n",
		"a wins: 2 (50.000%)\n",
		"b wins: 1 (25.000%)\n",
		"Ties: 1\n",
		"a score: 0.625",
		"a wins as black: 1 of 2\n",
		"Black wins: 1 (25.000%)\n",
		"Ended by illegal-move: 1\n",
		"Distinct games: 3\n",
	} {
		is.True(strings.Contains(out, want)) // missing line
	}
}
