// Package dsl reads and writes the line-oriented drawing language and
// synthesizes random programs in it.
package dsl

import (
	"strings"

	"github.com/bnema/drawloop/internal/domain"
)

// Parse never fails. Blank lines, '#' comments and lines that do not start
// with a command name are dropped. A line without a parameter list becomes a
// bare command, and unnamed arguments are ignored.
func Parse(text string) domain.Program {
	var commands []domain.Command
	for _, line := range strings.Split(text, "\n") {
		command, ok := ParseLine(line)
		if !ok {
			continue
		}
		commands = append(commands, command)
	}

	return domain.Program{Commands: commands}
}

// ParseLine parses a single program line and reports false for lines Parse drops.
func ParseLine(line string) (domain.Command, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return domain.Command{}, false
	}

	open := strings.IndexByte(trimmed, '(')
	if open < 0 {
		if !isIdentifier(trimmed) {
			return domain.Command{}, false
		}
		return domain.Command{Name: trimmed}, true
	}

	name := strings.TrimSpace(trimmed[:open])
	if !isIdentifier(name) {
		return domain.Command{}, false
	}

	body := trimmed[open+1:]
	if close := strings.LastIndexByte(body, ')'); close >= 0 {
		body = body[:close]
	}

	var params []domain.Param
	for _, arg := range domain.SplitArgs(body) {
		key, value, found := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			continue
		}
		params = append(params, domain.Param{Name: key, Value: domain.RawValue(value)})
	}

	return domain.Command{Name: name, Params: params}, true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}

	return true
}
