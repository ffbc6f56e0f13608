package domain

import (
	"strings"
	"unicode"
)

// Command is one processing invocation: program name plus arguments.
type Command []string

func (c Command) String() string {
	return strings.Join(c, " ")
}

// ParseScript turns shell-like command text into an ordered batch of
// commands. One logical line becomes one command. Grammar:
//
//   - lines are separated by '\n'
//   - a line whose first non-whitespace character is '#' is dropped entirely
//   - a line ending in '\' is concatenated with the following line, with the
//     trailing '\' and the whitespace around the join removed
//   - tokens are whitespace-delimited, except '...'-enclosed spans which stay
//     one token with the quotes stripped
//   - empty logical lines produce no command
//
// A script of only whitespace and comments yields an empty batch.
func ParseScript(script string) []Command {
	commands := []Command{}
	pending := ""
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		trimmed := strings.TrimRightFunc(line, unicode.IsSpace)
		if strings.HasSuffix(trimmed, "\\") {
			joined := strings.TrimRightFunc(strings.TrimSuffix(trimmed, "\\"), unicode.IsSpace)
			pending += joined + " "
			continue
		}
		logical := pending + line
		pending = ""
		tokens := splitTokens(logical)
		if len(tokens) == 0 {
			continue
		}
		commands = append(commands, Command(tokens))
	}
	if pending != "" {
		if tokens := splitTokens(pending); len(tokens) > 0 {
			commands = append(commands, Command(tokens))
		}
	}
	return commands
}

func splitTokens(line string) []string {
	tokens := []string{}
	var current strings.Builder
	inToken := false
	inQuote := false
	for _, r := range line {
		switch {
		case r == '\'':
			inQuote = !inQuote
			inToken = true
		case unicode.IsSpace(r) && !inQuote:
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens
}
