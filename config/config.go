// Package config holds the settings shared by the engine, the shell and the
// match runner. Values come, from lowest to highest precedence, from the
// defaults below, an optional config.yaml, CHECKERS_* environment variables
// and command-line flags.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug              = "debug"
	ConfigSearchDepth        = "search-depth"
	ConfigThreads            = "threads"
	ConfigShuffleRoot        = "shuffle-root"
	ConfigInteriorOrdering   = "interior-ordering"
	ConfigTTFractionOfMemory = "tt-fraction-of-memory"
	ConfigAutoplayGames      = "autoplay-games"
	ConfigAutoplayMaxMoves   = "autoplay-max-moves"
	ConfigAutoplayThreads    = "autoplay-threads"
	ConfigAutoplayLogfile    = "autoplay-logfile"
	ConfigCPUProfile         = "cpu-profile"
)

type Config struct {
	*viper.Viper

	args []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigSearchDepth, 6)
	v.SetDefault(ConfigThreads, runtime.NumCPU())
	v.SetDefault(ConfigShuffleRoot, true)
	v.SetDefault(ConfigInteriorOrdering, false)
	v.SetDefault(ConfigTTFractionOfMemory, 0.25)
	v.SetDefault(ConfigAutoplayGames, 30)
	v.SetDefault(ConfigAutoplayMaxMoves, 200)
	v.SetDefault(ConfigAutoplayThreads, 1)
	v.SetDefault(ConfigAutoplayLogfile, "/tmp/checkers_autoplay.csv")
	v.SetDefault(ConfigCPUProfile, "")
}

// DefaultConfig returns a config with only the default values; handy for
// tests.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	return &Config{Viper: v}
}

func flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("checkers", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.Int(ConfigSearchDepth, 6, "number of turns the engine searches ahead")
	fs.Int(ConfigThreads, runtime.NumCPU(), "number of root moves searched at once")
	fs.Bool(ConfigShuffleRoot, true, "shuffle root moves before ordering them")
	fs.Bool(ConfigInteriorOrdering, false, "order moves with the heuristic at every node")
	fs.Float64(ConfigTTFractionOfMemory, 0.25, "fraction of system memory the transposition tables may use")
	fs.Int(ConfigAutoplayGames, 30, "number of games in an autoplay match")
	fs.Int(ConfigAutoplayMaxMoves, 200, "moves after which an autoplay game is a tie")
	fs.Int(ConfigAutoplayThreads, 1, "number of autoplay games played at once")
	fs.String(ConfigAutoplayLogfile, "/tmp/checkers_autoplay.csv", "where autoplay writes its game log")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	return fs
}

// Load reads the configuration. Arguments that are not flags are kept and
// can be retrieved with Args.
func (c *Config) Load(args []string) error {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("checkers")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := flagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	// Only flags given explicitly override the other sources.
	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	c.Viper = v
	c.args = fs.Args()
	return nil
}

// Args returns the non-flag arguments given to Load.
func (c *Config) Args() []string {
	return c.args
}

// Snapshot returns a config holding the current values of c. Later changes
// to either one don't show in the other, so a snapshot can be read from
// other goroutines while c is still being set.
func (c *Config) Snapshot() *Config {
	v := viper.New()
	for _, k := range c.AllKeys() {
		v.Set(k, c.Get(k))
	}
	return &Config{Viper: v, args: slices.Clone(c.args)}
}

// SanitizedSettings returns the settings for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
