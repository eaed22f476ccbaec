package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/domino14/checkers/board"
	"github.com/domino14/checkers/move"
)

var ErrProtocol = errors.New("protocol error")

// Engine picks a move for the side to move.
type Engine interface {
	ComputeMove(b *board.Board) (move.PieceMove, error)
}

// EngineLoop speaks the engine protocol on r and w. The first line is the
// color the engine plays. After that every request is either a color line
// (the engine switches sides), "exit", or a line with the cells a capture
// must start from (possibly empty) followed by the board text, which is
// answered with one move line. It returns nil on "exit" or at the end of
// the input.
func EngineLoop(ctx context.Context, r io.Reader, w io.Writer, engine Engine) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	line, err := br.ReadString('\n')
	if errors.Is(err, io.EOF) && line == "" {
		return nil
	} else if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	color, err := board.ColorFromString(line)
	if err != nil {
		return fmt.Errorf("%w: first line: %w", ErrProtocol, err)
	}
	log.Debug().Str("color", color.String()).Msg("engine-started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := br.ReadString('\n')
		if errors.Is(err, io.EOF) && line == "" {
			return nil
		} else if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "exit" {
			log.Debug().Msg("engine-exiting")
			return nil
		}
		if c, err := board.ColorFromString(line); err == nil {
			color = c
			log.Debug().Str("color", color.String()).Msg("engine-switched-color")
			continue
		}
		mustJump, err := move.ParseCellList(line)
		if err != nil {
			return fmt.Errorf("%w: must-jump line: %w", ErrProtocol, err)
		}
		b, err := board.Parse(br, color, mustJump)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrProtocol, err)
		}
		m, err := engine.ComputeMove(b)
		if err != nil {
			return err
		}
		log.Debug().Str("move", m.String()).Msg("engine-move")
		if _, err := bw.WriteString(m.String() + "\n"); err != nil {
			return err
		}
		if err := bw.Flush(); err != nil {
			return err
		}
	}
}
