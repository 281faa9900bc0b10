package mcp

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kalimcp/internal/tactile"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"longer", "abcdefg", 5, "abcde"},
		{"empty", "", 5, ""},
		{"zero max", "abc", 0, ""},
		{"multibyte counted as characters", "héllo wörld", 7, "héllo w"},
		{"multibyte within limit", "日本語", 3, "日本語"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.max))
		})
	}
}

func TestRenderOutcome_Success(t *testing.T) {
	code := 0
	text := RenderOutcome("nmap", "nmap", "nmap 10.0.0.1", &tactile.Outcome{
		Success:  true,
		Stdout:   "open 22\n",
		Stderr:   "",
		ExitCode: &code,
	}, DefaultOutputLimits())

	want := "Tool: nmap\nCommand: nmap\nInvocation: nmap 10.0.0.1\nSuccess: True\nExit code: 0\n\nOutput:\nopen 22\n\n\nErrors:\n"
	assert.Equal(t, want, text)
}

func TestRenderOutcome_Failure(t *testing.T) {
	text := RenderOutcome("execute_command", "custom", "sleep 60", &tactile.Outcome{
		Success: false,
		Stdout:  "partial",
		Error:   "command timed out after 1s",
	}, DefaultOutputLimits())

	assert.Contains(t, text, "Success: False\n")
	assert.NotContains(t, text, "Exit code:")
	assert.Contains(t, text, "Error: command timed out after 1s\n")
	assert.Contains(t, text, "\nOutput:\npartial\n\nErrors:\n")
}

func TestRenderOutcome_CustomLimits(t *testing.T) {
	text := RenderOutcome("t", "t", "t", &tactile.Outcome{
		Success: true,
		Stdout:  "0123456789",
		Stderr:  "abcdef",
	}, OutputLimits{MaxStdoutChars: 4, MaxStderrChars: 2})

	assert.True(t, strings.HasSuffix(text, "\nOutput:\n0123\n\nErrors:\nab"), text)
}

func TestResponseWriter_OneLinePerResponse(t *testing.T) {
	var buf bytes.Buffer
	rw := NewResponseWriter(&buf)

	require.NoError(t, rw.Write(NewResult(json.RawMessage(`1`), TextResult("a <b> & c\nd"))))
	require.NoError(t, rw.Write(NewError(json.RawMessage(`"x"`), CodeMethodNotFound, "Tool not found: y")))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"a <b> & c\nd"}]}}`, lines[0])
	assert.Equal(t, `{"jsonrpc":"2.0","id":"x","error":{"code":-32601,"message":"Tool not found: y"}}`, lines[1])
}

func TestResponseWriter_ConcurrentWritesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	rw := NewResponseWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = rw.Write(NewResult(json.RawMessage(`1`), TextResult(strings.Repeat("z", 4096))))
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 20)
	for _, line := range lines {
		assert.True(t, json.Valid([]byte(line)))
	}
}
