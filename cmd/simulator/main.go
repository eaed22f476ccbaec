// Command simulator plays a match between two players and prints the
// statistics of the games. Each player is either a bot code (searching,
// greedy or random) or the path of an engine binary speaking the engine
// protocol.
//
//	simulator [flags] <player1> <player2>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/checkers/ai/bot"
	"github.com/domino14/checkers/automatic"
	"github.com/domino14/checkers/config"
)

func newPlayer(ctx context.Context, cfg *config.Config, spec string, idx int) (automatic.Player, error) {
	if code, err := bot.ParseBotCode(spec); err == nil {
		return automatic.NewBotPlayer(fmt.Sprintf("%s_%d", code, idx+1), bot.NewBotWithCode(cfg, code)), nil
	}
	return automatic.NewProcessPlayer(ctx, fmt.Sprintf("%s_%d", filepath.Base(spec), idx+1), spec)
}

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	args := cfg.Args()
	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <player1> <player2>\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	level := zerolog.InfoLevel
	if cfg.GetBool(config.ConfigDebug) {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(output).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := func(ctx context.Context) ([2]automatic.Player, error) {
		var players [2]automatic.Player
		for i, spec := range args {
			p, err := newPlayer(ctx, cfg, spec, i)
			if err != nil {
				if players[0] != nil {
					if cerr := players[0].Close(); cerr != nil {
						log.Err(cerr).Str("player", players[0].Name()).Msg("closing-player")
					}
				}
				return players, err
			}
			players[i] = p
		}
		return players, nil
	}

	summary, err := automatic.StartCompVComp(ctx, cfg, factory)
	if err != nil {
		log.Fatal().Err(err).Msg("match-failed")
	}
	fmt.Println(summary)
	report, err := automatic.AnalyzeLogFile(summary.Logfile)
	if err != nil {
		log.Fatal().Err(err).Msg("analyze-failed")
	}
	fmt.Print(report)
}
