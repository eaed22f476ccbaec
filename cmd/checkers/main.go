// Command checkers is an engine speaking the line protocol on stdin and
// stdout. Logs go to stderr.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/checkers/ai/bot"
	"github.com/domino14/checkers/config"
	"github.com/domino14/checkers/shell"
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
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
	log.Debug().Interface("config", cfg.SanitizedSettings()).Msg("loaded-config")

	if cfg.GetString(config.ConfigCPUProfile) != "" {
		f, err := os.Create(cfg.GetString(config.ConfigCPUProfile))
		if err != nil {
			panic("could not create CPU profile: " + err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic("could not start CPU profile: " + err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := bot.NewBot(cfg)
	if code := cfg.Args(); len(code) > 0 {
		c, err := bot.ParseBotCode(code[0])
		if err != nil {
			log.Fatal().Err(err).Msg("bad-bot-code")
		}
		engine = bot.NewBotWithCode(cfg, c)
	}
	if err := shell.EngineLoop(ctx, os.Stdin, os.Stdout, engine); err != nil {
		pprof.StopCPUProfile()
		log.Fatal().Err(err).Msg("engine-error")
	}
}
