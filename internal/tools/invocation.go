package tools

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Invocation is the command line built for one tools/call.
type Invocation struct {
	// Line is the space-joined command line; the shell form and the
	// text reported back to the orchestrator.
	Line string

	// Argv is the same invocation as an argument vector with each
	// argument value split on whitespace. Nil for the raw command tool.
	Argv []string
}

// Invocation builds the command line for args. The underlying command
// comes first, then each parameter value in declared order. Parameters
// that are absent or empty are left out entirely.
//
// The raw command tool returns its "command" argument as the line and
// fails with ErrMissingRequiredArg when it is absent or empty.
func (d *Descriptor) Invocation(args map[string]any) (Invocation, error) {
	if d.IsRaw() {
		line, ok := ArgString(args[RawCommandParam])
		if !ok {
			return Invocation{}, fmt.Errorf("%w: %s", ErrMissingRequiredArg, RawCommandParam)
		}
		return Invocation{Line: line}, nil
	}

	parts := []string{d.Command}
	argv := []string{d.Command}
	for _, param := range d.Params {
		value, ok := ArgString(args[param])
		if !ok {
			continue
		}
		parts = append(parts, value)
		argv = append(argv, strings.Fields(value)...)
	}

	return Invocation{
		Line: strings.Join(parts, " "),
		Argv: argv,
	}, nil
}

// ArgString returns the string form of an argument value and whether it
// counts as present. nil, "", false, zero numbers and empty arrays or
// objects are treated as absent. Other values are rendered the way a
// Python str() call renders the decoded JSON value: True, [1, 'a'],
// {'k': None}. Object keys are sorted because decoding loses their order.
func ArgString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case bool:
		if !val {
			return "", false
		}
	case json.Number:
		if f, err := val.Float64(); err == nil && f == 0 {
			return "", false
		}
	case float64:
		if val == 0 {
			return "", false
		}
	case int:
		if val == 0 {
			return "", false
		}
	case []any:
		if len(val) == 0 {
			return "", false
		}
	case map[string]any:
		if len(val) == 0 {
			return "", false
		}
	}
	return pyRepr(v, true), true
}

// pyRepr renders a decoded JSON value. top selects str() over repr() for
// strings, which only differs at the outermost level.
func pyRepr(v any, top bool) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case string:
		if top {
			return val
		}
		return pyQuote(val)
	case bool:
		if val {
			return "True"
		}
		return "False"
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = pyRepr(item, false)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = pyQuote(k) + ": " + pyRepr(val[k], false)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// pyQuote quotes s with single quotes, or double quotes when s contains a
// single quote and no double quote.
func pyQuote(s string) string {
	quote := byte('\'')
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		quote = '"'
	}

	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteByte(quote)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}
