package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kalimcp/internal/config"
	"kalimcp/internal/tools"
)

const testCatalogYAML = `tools:
  - name: shell_echo
    command: sh
    params: [target]
    category: custom
  - name: never_installed
    command: kalimcp-test-binary-that-does-not-exist
    params: [target]
    category: custom
  - name: execute_command
    command: custom
    params: [command]
    category: custom
`

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogYAML), 0644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_WithoutStdioPrintsSummary(t *testing.T) {
	out, err := execute(t, "", "--catalog", writeCatalog(t))
	require.NoError(t, err)
	assert.Equal(t, "Kali MCP Server with 2 tools available\nUse --stdio flag for MCP mode\n", out)
}

func TestRoot_StdioServesUntilEOF(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}` + "\n" +
		`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n"

	out, err := execute(t, input, "--stdio", "--catalog", writeCatalog(t))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var list struct {
		ID     int `json:"id"`
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &list))
	assert.Equal(t, 2, list.ID)
	require.Len(t, list.Result.Tools, 2)
	assert.Equal(t, "shell_echo", list.Result.Tools[0].Name)
	assert.Equal(t, "execute_command", list.Result.Tools[1].Name)
}

func TestRoot_StdioExecutesCommand(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"execute_command","arguments":{"command":"echo kalimcp"}}}` + "\n"

	out, err := execute(t, input, "--stdio", "--timeout", "10s", "--catalog", writeCatalog(t))
	require.NoError(t, err)
	assert.Contains(t, out, `Success: True\nExit code: 0\n\nOutput:\nkalimcp\n`)
}

func TestRoot_BadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tools:\n  - name: x\n"), 0644))

	_, err := execute(t, "", "--catalog", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog entry x")
}

func TestToolsCommand(t *testing.T) {
	out, err := execute(t, "", "tools", "--catalog", writeCatalog(t))
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "shell_echo")
	assert.Contains(t, out, "execute_command")
	assert.NotContains(t, out, "never_installed")
	assert.Contains(t, out, "2 tools available")
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "kalimcp.yaml")
	cfg := config.DefaultConfig()
	cfg.Execution.Mode = config.ModeArgv
	cfg.Execution.DefaultTimeout = "30s"
	require.NoError(t, cfg.Save(cfgPath))

	loaded, err := loadConfig(&options{
		configPath:  cfgPath,
		verbose:     true,
		catalogPath: "/tmp/custom.yaml",
		timeout:     90 * time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, config.ModeArgv, loaded.Execution.Mode)
	assert.Equal(t, 90*time.Second, loaded.GetExecutionTimeout())
	assert.Equal(t, "debug", loaded.Logging.Level)
	assert.Equal(t, "/tmp/custom.yaml", loaded.CatalogPath)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "kalimcp.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("execution:\n  mode: telepathy\n"), 0644))

	_, err := loadConfig(&options{configPath: cfgPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRenderToolTable(t *testing.T) {
	table := renderToolTable([]*tools.Descriptor{
		tools.NewDescriptor("nmap", "nmap", []string{"target", "options"}, tools.CategoryNetworkDiscovery),
		tools.NewDescriptor("execute_command", tools.RawCommand, []string{"command"}, tools.CategoryCustom),
	})

	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[2], "target,options")
	assert.Contains(t, lines[3], "execute_command")
	assert.Equal(t, lipgloss.Width(lines[0]), lipgloss.Width(lines[2]), "columns are aligned")
	assert.Equal(t, lipgloss.Width(lines[2]), lipgloss.Width(lines[3]), "columns are aligned")
}

func TestRoot_MissingConfigFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "typo.yaml")

	_, err := execute(t, "", "--config", missing, "--catalog", writeCatalog(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}
