package mcp

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"kalimcp/internal/tactile"
)

// OutputLimits caps the stream text embedded in a tool result, in
// characters.
type OutputLimits struct {
	MaxStdoutChars int
	MaxStderrChars int
}

// DefaultOutputLimits returns the standard caps.
func DefaultOutputLimits() OutputLimits {
	return OutputLimits{MaxStdoutChars: 10000, MaxStderrChars: 5000}
}

// Truncate returns the first max characters of s, or s unchanged when it
// is not longer than max.
func Truncate(s string, max int) string {
	if max < 0 {
		max = 0
	}
	if len(s) <= max {
		return s
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	i := 0
	for n := 0; n < max; n++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}

// RenderOutcome summarizes one execution as the text block returned to
// the orchestrator.
func RenderOutcome(name, command, invocation string, outcome *tactile.Outcome, limits OutputLimits) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tool: %s\n", name)
	fmt.Fprintf(&b, "Command: %s\n", command)
	fmt.Fprintf(&b, "Invocation: %s\n", invocation)
	fmt.Fprintf(&b, "Success: %s\n", pyBool(outcome.Success))
	if outcome.ExitCode != nil {
		fmt.Fprintf(&b, "Exit code: %d\n", *outcome.ExitCode)
	}
	if outcome.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", outcome.Error)
	}
	b.WriteString("\nOutput:\n")
	b.WriteString(Truncate(outcome.Stdout, limits.MaxStdoutChars))
	b.WriteString("\n\nErrors:\n")
	b.WriteString(Truncate(outcome.Stderr, limits.MaxStderrChars))
	return b.String()
}

func pyBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// TextResult wraps text in a single-block tool result.
func TextResult(text string) MCPToolResult {
	return MCPToolResult{Content: []MCPContentBlock{{Type: "text", Text: text}}}
}

// ResponseWriter writes one JSON response per line.
type ResponseWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewResponseWriter wraps w.
func NewResponseWriter(w io.Writer) *ResponseWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &ResponseWriter{enc: enc}
}

// Write encodes resp followed by a newline in a single write.
func (rw *ResponseWriter) Write(resp *JSONRPCResponse) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if err := rw.enc.Encode(resp); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}
