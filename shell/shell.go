// Package shell has the interactive checkers shell and the stdin/stdout
// engine protocol loop.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"

	"github.com/domino14/checkers/board"
	"github.com/domino14/checkers/config"
)

type ShellController struct {
	l      *readline.Instance
	out    io.Writer
	config *config.Config

	board   *board.Board
	history []*board.Board

	autoplayCancel context.CancelFunc
	autoplayDone   chan struct{}
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	writeln(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func NewShellController(cfg *config.Config) *ShellController {
	sc := &ShellController{config: cfg}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mcheckers>\033[0m ",
		HistoryFile:     "/tmp/checkers_readline.tmp",
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stderr()
	return sc
}

func (sc *ShellController) setBoard(b *board.Board) {
	sc.board = b
	sc.history = nil
}

func (sc *ShellController) handle(line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "new", "n":
		return sc.newGame(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "load":
		return sc.load(cmd)
	case "move", "m":
		return sc.makeMove(cmd)
	case "undo", "u":
		return sc.undo(cmd)
	case "go", "aiplay":
		return sc.aiplay(cmd)
	case "moves":
		return sc.moves(cmd)
	case "eval":
		return sc.eval(cmd)
	case "hash":
		return sc.hash(cmd)
	case "set":
		return sc.set(cmd)
	case "autoplay":
		return sc.autoplay(cmd)
	case "analyze":
		return sc.analyze(cmd)
	case "help":
		return sc.help(cmd)
	default:
		msg := fmt.Sprintf("command %v not found", strconv.Quote(cmd.cmd))
		log.Info().Msg(msg)
		return nil, errors.New(msg)
	}
}

// Execute runs a single command, waiting for any autoplay it starts.
func (sc *ShellController) Execute(line string) {
	resp, err := sc.handle(line)
	if err != nil {
		sc.showError(err)
	} else if resp != nil {
		sc.showMessage(resp.message)
	}
	sc.waitAutoplay()
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "bye" {
			sig <- syscall.SIGINT
			break
		}
		resp, err := sc.handle(line)
		if err != nil {
			sc.showError(err)
		} else if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup stops a running autoplay.
func (sc *ShellController) Cleanup() {
	if sc.autoplayCancel != nil {
		sc.autoplayCancel()
		sc.waitAutoplay()
	}
}
