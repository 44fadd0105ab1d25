package domain

import (
	"math"
	"strconv"
	"strings"
)

// Value is a parameter value kept in its literal form. Conversion to a typed
// value happens at draw time so a bad literal only affects its own parameter.
type Value struct {
	raw string
}

func RawValue(raw string) Value {
	return Value{raw: strings.TrimSpace(raw)}
}

func IntValue(n int) Value {
	return Value{raw: strconv.Itoa(n)}
}

func StringValue(s string) Value {
	return Value{raw: strconv.Quote(s)}
}

func TupleValue(parts ...int) Value {
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		items = append(items, strconv.Itoa(part))
	}

	return Value{raw: "(" + strings.Join(items, ", ") + ")"}
}

func (v Value) Raw() string {
	return v.raw
}

func (v Value) IsQuoted() bool {
	return len(v.raw) >= 2 && isQuote(v.raw[0]) && v.raw[len(v.raw)-1] == v.raw[0]
}

func (v Value) IsTuple() bool {
	return strings.HasPrefix(v.raw, "(") && strings.HasSuffix(v.raw, ")")
}

// Text returns the value with surrounding quotes removed.
func (v Value) Text() string {
	if !v.IsQuoted() {
		return v.raw
	}
	if unquoted, err := strconv.Unquote(v.raw); err == nil {
		return unquoted
	}

	return v.raw[1 : len(v.raw)-1]
}

// Int converts bare or quoted numerics. Decimals are truncated; NaN,
// infinities and values outside the int range are rejected.
func (v Value) Int() (int, bool) {
	text := strings.TrimSpace(v.Text())
	if text == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(text, 10, 32); err == nil {
		return int(n), true
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}

	return int(f), true
}

// Tuple converts a parenthesized list of integers.
func (v Value) Tuple() ([]int, bool) {
	if !v.IsTuple() {
		return nil, false
	}

	inner := strings.TrimSpace(v.raw[1 : len(v.raw)-1])
	if inner == "" {
		return nil, false
	}

	fields := strings.Split(inner, ",")
	out := make([]int, 0, len(fields))
	for _, field := range fields {
		n, ok := RawValue(field).Int()
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}

	return out, true
}

type Param struct {
	Name  string
	Value Value
}

type Command struct {
	Name   string
	Params []Param
}

func NewCommand(name string, params ...Param) Command {
	return Command{Name: name, Params: params}
}

// Param returns the last value bound to name.
func (c Command) Param(name string) (Value, bool) {
	for i := len(c.Params) - 1; i >= 0; i-- {
		if c.Params[i].Name == name {
			return c.Params[i].Value, true
		}
	}

	return Value{}, false
}

func (c Command) String() string {
	parts := make([]string, 0, len(c.Params))
	for _, param := range c.Params {
		parts = append(parts, param.Name+"="+param.Value.Raw())
	}

	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

type Program struct {
	Commands []Command
}

func (p Program) Len() int {
	return len(p.Commands)
}

func (p Program) String() string {
	lines := make([]string, 0, len(p.Commands))
	for _, command := range p.Commands {
		lines = append(lines, command.String())
	}

	return strings.Join(lines, "\n")
}

// UnknownCommands lists command names outside the renderer vocabulary, in program order.
func (p Program) UnknownCommands() []string {
	var unknown []string
	for _, command := range p.Commands {
		if !IsKnownCommand(command.Name) {
			unknown = append(unknown, command.Name)
		}
	}

	return unknown
}

func isQuote(b byte) bool {
	return b == '"' || b == '\''
}

// SplitArgs splits a parameter list on commas that sit outside quotes and
// parentheses.
func SplitArgs(body string) []string {
	args, _ := scanArgs(body)
	return args
}

// IsSingleArg reports whether raw stays one intact value when written as a
// parameter: balanced quotes and parentheses, no top-level comma, one line.
func IsSingleArg(raw string) bool {
	if strings.ContainsAny(raw, "\r\n") {
		return false
	}
	args, balanced := scanArgs(raw)
	return balanced && len(args) == 1 && strings.TrimSpace(args[0]) == raw
}

func scanArgs(body string) ([]string, bool) {
	var (
		args     []string
		start    int
		depth    int
		quote    byte
		balanced = true
	)

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(body) {
				i++
			} else if c == quote {
				quote = 0
			}
		case isQuote(c):
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			} else {
				balanced = false
			}
		case c == ',' && depth == 0:
			args = append(args, body[start:i])
			start = i + 1
		}
	}

	if rest := strings.TrimSpace(body[start:]); rest != "" {
		args = append(args, body[start:])
	}

	return args, balanced && depth == 0 && quote == 0
}
