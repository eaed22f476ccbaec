package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string // Available options for this command (e.g., "-games")
	Args    []string // Possible argument values (for non-option arguments)
}

var commandMetadata = map[string]CommandMetadata{
	"go": {
		Options: []string{"-botcode", "-chain"},
	},
	"load": {
		Options: []string{"-turn"},
	},
	"autoplay": {
		Options: []string{"-botcode1", "-botcode2", "-engine1", "-engine2",
			"-games", "-threads", "-maxmoves", "-file"},
		Args: []string{"stop"},
	},
	"help": {
		Args: []string{"go", "autoplay", "load", "analyze", "set"},
	},
}

var commandNames = []string{
	"help", "new", "load", "show", "move", "undo", "go", "moves", "eval",
	"hash", "set", "autoplay", "analyze", "exit",
}

var boolValues = []string{"true", "false"}
var colorValues = []string{"black", "white"}
var botCodes = []string{"searching", "greedy", "random"}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}

		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		if strings.HasPrefix(lastCompleteField, "-") {
			switch strings.TrimPrefix(lastCompleteField, "-") {
			case "botcode", "botcode1", "botcode2":
				completions = botCodes
			case "turn":
				completions = colorValues
			case "chain":
				completions = boolValues
			}
		}

		if cmdName == "set" && completions == nil && (len(fields) == 1 || (len(fields) == 2 && !endsWithSpace)) {
			completions = c.sc.config.AllKeys()
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	matches := lo.FilterMap(completions, func(completion string, _ int) ([]rune, bool) {
		if !strings.HasPrefix(completion, prefix) {
			return nil, false
		}
		// Return only the part that needs to be added
		return []rune(completion[len(prefix):]), true
	})
	return matches, len(prefix)
}
