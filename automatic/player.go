package automatic

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/checkers/ai/bot"
	"github.com/domino14/checkers/board"
	"github.com/domino14/checkers/move"
)

// Player is one side of an automatic game.
type Player interface {
	Name() string
	// NewGame is called before every game with the color the player gets.
	NewGame(c board.Color) error
	// ChooseMove returns the move to play on b. It is only called when it
	// is the player's turn.
	ChooseMove(ctx context.Context, b *board.Board) (move.PieceMove, error)
	Close() error
}

// PlayerFactory creates the two players of a match, in order. Every worker
// that plays games gets its own pair.
type PlayerFactory func(ctx context.Context) ([2]Player, error)

// BotPlayer plays with an in-process bot.
type BotPlayer struct {
	name string
	bot  *bot.Bot
}

func NewBotPlayer(name string, b *bot.Bot) *BotPlayer {
	return &BotPlayer{name: name, bot: b}
}

func (p *BotPlayer) Name() string              { return p.name }
func (p *BotPlayer) NewGame(board.Color) error { return nil }
func (p *BotPlayer) Close() error              { return nil }

func (p *BotPlayer) ChooseMove(_ context.Context, b *board.Board) (move.PieceMove, error) {
	return p.bot.ComputeMove(b)
}

// ProcessPlayer talks to an engine speaking the line protocol of
// cmd/checkers: a color line starts a game (or switches sides), then every
// request is a line with the forced-jump cells followed by the board text,
// answered by one move line. "exit" ends the session.
type ProcessPlayer struct {
	name string
	in   io.WriteCloser
	out  *bufio.Reader
	wait func() error
}

// NewProcessPlayer starts the engine binary at path.
func NewProcessPlayer(ctx context.Context, name, path string, args ...string) (*ProcessPlayer, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting engine %s: %w", path, err)
	}
	log.Info().Str("name", name).Str("path", path).Int("pid", cmd.Process.Pid).Msg("started-engine")
	p := NewPipePlayer(name, stdin, stdout)
	p.wait = cmd.Wait
	return p, nil
}

// NewPipePlayer speaks the engine protocol over an existing pair of pipes.
func NewPipePlayer(name string, in io.WriteCloser, out io.Reader) *ProcessPlayer {
	return &ProcessPlayer{name: name, in: in, out: bufio.NewReader(out)}
}

func (p *ProcessPlayer) Name() string { return p.name }

func (p *ProcessPlayer) NewGame(c board.Color) error {
	_, err := fmt.Fprintln(p.in, c.String())
	return err
}

// WriteRequest writes a move request for b in the engine protocol.
func WriteRequest(w io.Writer, b *board.Board) error {
	cells := lo.Map(b.MustJump(), func(cp move.CellPos, _ int) string {
		return cp.String()
	})
	_, err := fmt.Fprintf(w, "%s\n%s\n", strings.Join(cells, " "), b.ToDisplayText())
	return err
}

func (p *ProcessPlayer) ChooseMove(ctx context.Context, b *board.Board) (move.PieceMove, error) {
	if err := ctx.Err(); err != nil {
		return move.PieceMove{}, err
	}
	if err := WriteRequest(p.in, b); err != nil {
		return move.PieceMove{}, fmt.Errorf("writing to %s: %w", p.name, err)
	}
	line, err := p.out.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return move.PieceMove{}, fmt.Errorf("reading from %s: %w", p.name, err)
	}
	return move.ParsePieceMove(strings.TrimSpace(line))
}

func (p *ProcessPlayer) Close() error {
	_, werr := fmt.Fprintln(p.in, "exit")
	cerr := p.in.Close()
	var waitErr error
	if p.wait != nil {
		waitErr = p.wait()
	}
	return errors.Join(werr, cerr, waitErr)
}
