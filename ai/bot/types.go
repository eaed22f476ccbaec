package bot

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownBotCode = errors.New("unknown bot code")

// BotCode selects how a bot picks its moves.
type BotCode int

const (
	// SearchingBot runs an alpha-beta search on every legal move.
	SearchingBot BotCode = iota
	// GreedyBot plays the move whose resulting position evaluates best,
	// without looking further ahead than the end of a capture chain.
	GreedyBot
	// RandomBot plays any legal move.
	RandomBot
)

func (c BotCode) String() string {
	switch c {
	case SearchingBot:
		return "searching"
	case GreedyBot:
		return "greedy"
	case RandomBot:
		return "random"
	}
	return "unknown"
}

func ParseBotCode(s string) (BotCode, error) {
	switch strings.ToLower(s) {
	case "searching", "search", "":
		return SearchingBot, nil
	case "greedy":
		return GreedyBot, nil
	case "random":
		return RandomBot, nil
	}
	return SearchingBot, fmt.Errorf("%w: %q", ErrUnknownBotCode, s)
}

func hasSearch(c BotCode) bool {
	return c == SearchingBot || c == GreedyBot
}
