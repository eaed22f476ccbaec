package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/checkers/ai/bot"
	"github.com/domino14/checkers/automatic"
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
	cfg.Set(config.ConfigSearchDepth, 2)
	cfg.Set(config.ConfigThreads, 2)
	cfg.Set(config.ConfigShuffleRoot, false)
	return cfg
}

func testController() (*ShellController, *bytes.Buffer) {
	var out bytes.Buffer
	return &ShellController{config: testConfig(), out: &out}, &out
}

// firstMoveEngine plays the first legal move.
type firstMoveEngine struct{}

func (firstMoveEngine) ComputeMove(b *board.Board) (move.PieceMove, error) {
	return b.LegalMoves()[0], nil
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"autoplay -file /path/to/log.txt",
			&shellcmd{"autoplay", nil, CmdOptions{"file": {"/path/to/log.txt"}}},
			nil},
		{"autoplay stop",
			&shellcmd{"autoplay", []string{"stop"}, CmdOptions{}},
			nil},
		{"autoplay greedy random -file foo.txt ",
			&shellcmd{"autoplay",
				[]string{"greedy", "random"},
				CmdOptions{"file": {"foo.txt"}}},
			nil,
		},
		{"load 'my board.txt' -turn white",
			&shellcmd{"load", []string{"my board.txt"}, CmdOptions{"turn": {"white"}}},
			nil},
		{"autoplay greedy random -file",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func TestEngineLoop(t *testing.T) {
	is := is.New(t)
	b := board.New()
	black := b.LegalMoves()[0]
	is.True(b.MakeMove(black))

	var in strings.Builder
	in.WriteString("black\n")
	in.WriteString("\n" + board.New().ToDisplayText() + "\n")
	in.WriteString("white\n")
	in.WriteString("\n" + b.ToDisplayText() + "\n")
	in.WriteString("exit\n")
	// never read
	in.WriteString("garbage\n")

	var out bytes.Buffer
	err := EngineLoop(context.Background(), strings.NewReader(in.String()), &out, firstMoveEngine{})
	is.NoErr(err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	is.Equal(len(lines), 2)
	is.Equal(lines[0], black.String())
	is.Equal(lines[1], b.LegalMoves()[0].String())
}

func TestEngineLoopChain(t *testing.T) {
	is := is.New(t)
	// Mid-chain: the white king on C2 took D3 and landed on E4; only E4 may
	// move, and it must take D5.
	b := board.FromPosition(board.KingDoubleJump, board.White)
	is.True(b.MakeMove(move.PieceMove{Pos: move.CellPos{Row: 2, Col: 2}, Dir: move.TopRight}))
	is.Equal(b.Turn(), board.White)

	input := "white\nE4\n" + b.ToDisplayText() + "\n"
	var out bytes.Buffer
	is.NoErr(EngineLoop(context.Background(), strings.NewReader(input), &out, bot.NewBot(testConfig())))
	is.Equal(strings.TrimSpace(out.String()), "E4 tl")
}

func TestEngineLoopErrors(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	// no input at all is a clean exit
	is.NoErr(EngineLoop(context.Background(), strings.NewReader(""), &out, firstMoveEngine{}))

	err := EngineLoop(context.Background(), strings.NewReader("purple\n"), &out, firstMoveEngine{})
	is.True(errors.Is(err, ErrProtocol))
	is.True(errors.Is(err, board.ErrBadColor))

	err = EngineLoop(context.Background(), strings.NewReader("black\nZ9\n"), &out, firstMoveEngine{})
	is.True(errors.Is(err, ErrProtocol))

	err = EngineLoop(context.Background(), strings.NewReader("black\n\n   A B C\n7: x\n"), &out, firstMoveEngine{})
	is.True(errors.Is(err, board.ErrMalformedBoard))

	// a must-jump cell that cannot jump
	input := "black\nB5\n" + board.New().ToDisplayText() + "\n"
	err = EngineLoop(context.Background(), strings.NewReader(input), &out, firstMoveEngine{})
	is.True(errors.Is(err, board.ErrMalformedBoard))
	is.Equal(out.Len(), 0)
}

func TestEngineLoopCancelled(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := EngineLoop(ctx, strings.NewReader("black\n"), &out, firstMoveEngine{})
	is.True(errors.Is(err, context.Canceled))
}

func TestPipePlayerAgainstEngineLoop(t *testing.T) {
	is := is.New(t)
	cfg := testConfig()
	toEngine, engineIn := io.Pipe()
	engineOut, fromEngine := io.Pipe()
	done := make(chan error, 1)
	go func() {
		err := EngineLoop(context.Background(), toEngine, fromEngine, bot.NewBot(cfg))
		fromEngine.Close()
		done <- err
	}()

	engine := automatic.NewPipePlayer("engine", engineIn, engineOut)
	random := automatic.NewBotPlayer("random", bot.NewBotWithCode(cfg, bot.RandomBot))
	runner := automatic.NewGameRunner([2]automatic.Player{engine, random}, 60, nil)
	for _, c := range []board.Color{board.White, board.Black} {
		res, err := runner.PlayGame(context.Background(), c)
		is.NoErr(err)
		is.True(res.Reason != automatic.ReasonIllegalMove)
	}
	is.NoErr(engine.Close())
	is.NoErr(<-done)
}

func TestShellGame(t *testing.T) {
	is := is.New(t)
	sc, _ := testController()

	_, err := sc.handle("show")
	is.Equal(err, errNoGame)

	resp, err := sc.handle("new")
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, board.New().ToDisplayText()))
	is.True(strings.Contains(resp.message, "black to move"))

	resp, err = sc.handle("moves")
	is.NoErr(err)
	is.Equal(len(strings.Split(resp.message, "\n")), 7)

	resp, err = sc.handle("eval")
	is.NoErr(err)
	is.Equal(resp.message, "0 (for black)")

	opening := sc.board.Hash()
	_, err = sc.handle("move B5 dl")
	is.NoErr(err)
	is.Equal(sc.board.Turn(), board.White)
	_, err = sc.handle("move B5 dl")
	is.True(err != nil)

	_, err = sc.handle("undo")
	is.NoErr(err)
	is.Equal(sc.board.Hash(), opening)
	_, err = sc.handle("undo")
	is.True(err != nil)

	resp, err = sc.handle("go -botcode greedy")
	is.NoErr(err)
	is.Equal(sc.board.Turn(), board.White)
	is.Equal(len(sc.history), 1)

	resp, err = sc.handle("hash")
	is.NoErr(err)
	is.Equal(len(resp.message), 16)

	_, err = sc.handle("fly")
	is.True(err != nil)
}

func TestShellLoad(t *testing.T) {
	is := is.New(t)
	sc, _ := testController()
	path := filepath.Join(t.TempDir(), "board.txt")
	is.NoErr(os.WriteFile(path, []byte(board.KingPriority), 0o644))

	resp, err := sc.handle("load " + path + " -turn white")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "white to move, must jump from G2"))

	// the king's capture is the only legal move.
	resp, err = sc.handle("go -chain true")
	is.NoErr(err)
	is.Equal(sc.board.Turn(), board.Black)
	is.True(strings.Contains(resp.message, "black to move"))
	p, ok := sc.board.At(move.CellPos{Row: 4, Col: 4})
	is.True(ok && p.King && p.Color == board.White)

	_, err = sc.handle("load " + path + " -turn green")
	is.True(errors.Is(err, board.ErrBadColor))
}

func TestShellSet(t *testing.T) {
	is := is.New(t)
	sc, _ := testController()
	resp, err := sc.handle("set")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "search-depth: 2"))

	_, err = sc.handle("set search-depth 3")
	is.NoErr(err)
	is.Equal(sc.config.GetInt(config.ConfigSearchDepth), 3)

	resp, err = sc.handle("set search-depth")
	is.NoErr(err)
	is.Equal(resp.message, "search-depth: 3")

	_, err = sc.handle("set nonsense 1")
	is.True(err != nil)
}

func TestShellAutoplay(t *testing.T) {
	is := is.New(t)
	sc, out := testController()
	logfile := filepath.Join(t.TempDir(), "games.csv")

	_, err := sc.handle("autoplay stop")
	is.True(err != nil)

	_, err = sc.handle("autoplay -botcode1 greedy -botcode2 random -games 2 -maxmoves 60 -file " + logfile)
	is.NoErr(err)
	sc.waitAutoplay()
	is.True(strings.Contains(out.String(), "greedy_1 vs random_2: 2 games"))

	resp, err := sc.handle("analyze " + logfile)
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "Games played: 2\n"))

	_, err = sc.handle("autoplay -botcode1 clever")
	is.True(errors.Is(err, bot.ErrUnknownBotCode))
}

func TestShellSetDuringAutoplay(t *testing.T) {
	is := is.New(t)
	sc, out := testController()
	logfile := filepath.Join(t.TempDir(), "games.csv")

	_, err := sc.handle("autoplay -botcode1 searching -botcode2 greedy -games 4 -threads 2 -maxmoves 40 -file " + logfile)
	is.NoErr(err)
	for i := 0; i < 200; i++ {
		_, err = sc.handle("set search-depth 1")
		is.NoErr(err)
		_, err = sc.handle("set autoplay-games 50")
		is.NoErr(err)
	}
	sc.waitAutoplay()
	// the running match kept the settings it started with.
	is.True(strings.Contains(out.String(), "searching_1 vs greedy_2: 4 games"))
	is.Equal(sc.config.GetInt(config.ConfigAutoplayGames), 50)
	is.Equal(sc.config.GetInt(config.ConfigSearchDepth), 1)
}

func TestPlayerFactoryClosesFirstEngine(t *testing.T) {
	is := is.New(t)
	falseBin, err := exec.LookPath("false")
	if err != nil {
		t.Skip("no false binary")
	}
	var logs bytes.Buffer
	saved := log.Logger
	log.Logger = zerolog.New(&logs)
	defer func() { log.Logger = saved }()

	cmd, err := extractFields("autoplay -engine1 " + falseBin + " -engine2 " +
		filepath.Join(t.TempDir(), "no-such-engine"))
	is.NoErr(err)
	factory, err := playerFactory(testConfig(), cmd)
	is.NoErr(err)
	_, err = factory(context.Background())
	is.True(err != nil)
	// the first engine exits with an error, which is logged as it is closed.
	is.True(strings.Contains(logs.String(), "closing-player"))
	is.True(strings.Contains(logs.String(), "false_1"))
}

func TestHelp(t *testing.T) {
	is := is.New(t)
	sc, _ := testController()
	resp, err := sc.handle("help")
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, "Commands:"))
	resp, err = sc.handle("help autoplay")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "-botcode1"))
	resp, err = sc.handle("help nothing")
	is.NoErr(err)
	is.Equal(resp.message, "There is no help text for the topic nothing")
}

func TestAutocomplete(t *testing.T) {
	is := is.New(t)
	sc, _ := testController()
	c := NewShellCompleter(sc)

	matches, n := c.Do([]rune("autop"), 5)
	is.Equal(n, 5)
	is.Equal(matches, [][]rune{[]rune("lay")})

	line := "go -botcode gr"
	matches, n = c.Do([]rune(line), len(line))
	is.Equal(n, 2)
	is.Equal(matches, [][]rune{[]rune("eedy")})

	line = "set search-d"
	matches, _ = c.Do([]rune(line), len(line))
	is.Equal(matches, [][]rune{[]rune("epth")})
}
