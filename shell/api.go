package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/checkers/ai/bot"
	"github.com/domino14/checkers/automatic"
	"github.com/domino14/checkers/board"
	"github.com/domino14/checkers/config"
	"github.com/domino14/checkers/heuristic"
	"github.com/domino14/checkers/move"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errNoGame            = errors.New("please start a game first with the `new` or `load` command")
)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

// extractFields splits a command line into the command, its positional
// arguments and its -options. Every option takes exactly one value.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := &shellcmd{cmd: fields[0], options: CmdOptions{}}
	for i := 1; i < len(fields); i++ {
		f := fields[i]
		if len(f) > 1 && strings.HasPrefix(f, "-") {
			if i == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			key := f[1:]
			cmd.options[key] = append(cmd.options[key], fields[i+1])
			i++
			continue
		}
		cmd.args = append(cmd.args, f)
	}
	return cmd, nil
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) gameDisplay() string {
	var sb strings.Builder
	sb.WriteString(sc.board.ToDisplayText())
	fmt.Fprintf(&sb, "\n\n%s to move", sc.board.Turn())
	if sc.board.ForcedJump() {
		cells := lo.Map(sc.board.MustJump(), func(cp move.CellPos, _ int) string { return cp.String() })
		fmt.Fprintf(&sb, ", must jump from %s", strings.Join(cells, " "))
	}
	if !sc.board.ExistsValidMove() {
		fmt.Fprintf(&sb, "\n%s has no moves; %s wins", sc.board.Turn(), sc.board.Turn().Opponent())
	}
	return sb.String()
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	sc.setBoard(board.New())
	return msg(sc.gameDisplay()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if sc.board == nil {
		return nil, errNoGame
	}
	return msg(sc.gameDisplay()), nil
}

// load reads a board from a file in its text form. The side to move is
// given with -turn and defaults to black.
func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: load <file> [-turn white|black]")
	}
	turn := board.Black
	if t := cmd.options.String("turn"); t != "" {
		var err error
		turn, err = board.ColorFromString(t)
		if err != nil {
			return nil, err
		}
	}
	contents, err := os.ReadFile(cmd.args[0])
	if err != nil {
		return nil, err
	}
	b, err := board.FromDisplayText(string(contents), turn)
	if err != nil {
		return nil, err
	}
	sc.setBoard(b)
	return msg(sc.gameDisplay()), nil
}

func (sc *ShellController) playMove(m move.PieceMove) error {
	next := sc.board.Copy()
	if !next.MakeMove(m) {
		return fmt.Errorf("illegal move %s", m)
	}
	sc.history = append(sc.history, sc.board)
	sc.board = next
	return nil
}

func (sc *ShellController) makeMove(cmd *shellcmd) (*Response, error) {
	if sc.board == nil {
		return nil, errNoGame
	}
	m, err := move.ParsePieceMove(strings.Join(cmd.args, " "))
	if err != nil {
		return nil, err
	}
	if err := sc.playMove(m); err != nil {
		return nil, err
	}
	return msg(sc.gameDisplay()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if len(sc.history) == 0 {
		return nil, errors.New("nothing to undo")
	}
	sc.board = sc.history[len(sc.history)-1]
	sc.history = sc.history[:len(sc.history)-1]
	return msg(sc.gameDisplay()), nil
}

// aiplay has the bot play one move for the side to move. With -chain true
// it keeps playing until the turn passes to the other side.
func (sc *ShellController) aiplay(cmd *shellcmd) (*Response, error) {
	if sc.board == nil {
		return nil, errNoGame
	}
	code, err := bot.ParseBotCode(cmd.options.String("botcode"))
	if err != nil {
		return nil, err
	}
	b := bot.NewBotWithCode(sc.config, code)
	mover := sc.board.Turn()
	var played []string
	for {
		m, err := b.ComputeMove(sc.board)
		if err != nil {
			return nil, err
		}
		if err := sc.playMove(m); err != nil {
			return nil, err
		}
		played = append(played, m.String())
		sc.showMessage(fmt.Sprintf("played %s (eval %d, %d nodes)", m, b.LastEval(), b.LastNodes()))
		if !cmd.options.Bool("chain") || sc.board.Turn() != mover {
			break
		}
	}
	log.Debug().Strs("moves", played).Msg("ai-played")
	return msg(sc.gameDisplay()), nil
}

func (sc *ShellController) moves(cmd *shellcmd) (*Response, error) {
	if sc.board == nil {
		return nil, errNoGame
	}
	moves := sc.board.LegalMoves()
	if len(moves) == 0 {
		return msg("no legal moves"), nil
	}
	return msg(strings.Join(lo.Map(moves, func(m move.PieceMove, _ int) string {
		return m.String()
	}), "\n")), nil
}

func (sc *ShellController) eval(cmd *shellcmd) (*Response, error) {
	if sc.board == nil {
		return nil, errNoGame
	}
	return msg(fmt.Sprintf("%d (for %s)", heuristic.Evaluate(sc.board), sc.board.Turn())), nil
}

func (sc *ShellController) hash(cmd *shellcmd) (*Response, error) {
	if sc.board == nil {
		return nil, errNoGame
	}
	return msg(fmt.Sprintf("%016x", sc.board.Hash())), nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		settings := sc.config.AllSettings()
		keys := lo.Keys(settings)
		sort.Strings(keys)
		var sb strings.Builder
		sb.WriteString("Settings:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %v\n", k, settings[k])
		}
		return msg(sb.String()), nil
	}
	key := cmd.args[0]
	if !lo.Contains(sc.config.AllKeys(), key) {
		return nil, fmt.Errorf("no such setting: %s", key)
	}
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%s: %v", key, sc.config.Get(key))), nil
	}
	sc.config.Set(key, cmd.args[1])
	return msg("set " + key + " to " + cmd.args[1]), nil
}

func playerName(code string, idx int) string {
	return fmt.Sprintf("%s_%d", code, idx+1)
}

// playerFactory builds the players of an autoplay match. Player i is the
// engine binary given with -engine<i> if any, else a bot of -botcode<i>.
func playerFactory(cfg *config.Config, cmd *shellcmd) (automatic.PlayerFactory, error) {
	var codes [2]bot.BotCode
	var engines [2]string
	for i := range 2 {
		key := strconv.Itoa(i + 1)
		engines[i] = cmd.options.String("engine" + key)
		c, err := bot.ParseBotCode(cmd.options.String("botcode" + key))
		if err != nil {
			return nil, err
		}
		codes[i] = c
	}
	return func(ctx context.Context) ([2]automatic.Player, error) {
		var players [2]automatic.Player
		for i := range 2 {
			if engines[i] == "" {
				players[i] = automatic.NewBotPlayer(playerName(codes[i].String(), i), bot.NewBotWithCode(cfg, codes[i]))
				continue
			}
			p, err := automatic.NewProcessPlayer(ctx, playerName(filepath.Base(engines[i]), i), engines[i])
			if err != nil {
				if i == 1 {
					if cerr := players[0].Close(); cerr != nil {
						log.Err(cerr).Str("player", players[0].Name()).Msg("closing-player")
					}
				}
				return players, err
			}
			players[i] = p
		}
		return players, nil
	}, nil
}

func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 1 && cmd.args[0] == "stop" {
		if sc.autoplayCancel == nil {
			return nil, errors.New("no autoplay running")
		}
		sc.autoplayCancel()
		return msg("stopping autoplay"), nil
	}
	if automatic.IsPlaying.Value() > 0 {
		return nil, automatic.ErrAlreadyPlaying
	}
	for opt, key := range map[string]string{
		"games":    config.ConfigAutoplayGames,
		"threads":  config.ConfigAutoplayThreads,
		"maxmoves": config.ConfigAutoplayMaxMoves,
	} {
		if _, ok := cmd.options[opt]; !ok {
			continue
		}
		n, err := cmd.options.Int(opt)
		if err != nil {
			return nil, err
		}
		sc.config.Set(key, n)
	}
	if f := cmd.options.String("file"); f != "" {
		sc.config.Set(config.ConfigAutoplayLogfile, f)
	}
	// the match reads its settings from other goroutines while `set` may
	// still change sc.config.
	cfg := sc.config.Snapshot()
	factory, err := playerFactory(cfg, cmd)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sc.autoplayCancel = cancel
	sc.autoplayDone = make(chan struct{})
	go func() {
		defer close(sc.autoplayDone)
		defer cancel()
		summary, err := automatic.StartCompVComp(ctx, cfg, factory)
		if err != nil {
			sc.showError(err)
			return
		}
		sc.showMessage(summary.String())
	}()
	return msg(fmt.Sprintf("autoplay started; games are logged to %s. Use `autoplay stop` to stop.",
		cfg.GetString(config.ConfigAutoplayLogfile))), nil
}

// waitAutoplay blocks until a running autoplay is over.
func (sc *ShellController) waitAutoplay() {
	if sc.autoplayDone != nil {
		<-sc.autoplayDone
	}
}

func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	path := sc.config.GetString(config.ConfigAutoplayLogfile)
	if len(cmd.args) > 0 {
		path = cmd.args[0]
	}
	out, err := automatic.AnalyzeLogFile(path)
	if err != nil {
		return nil, err
	}
	return msg(out), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(usage("standard")), nil
	}
	return msg(usageTopic(cmd.args[0])), nil
}
