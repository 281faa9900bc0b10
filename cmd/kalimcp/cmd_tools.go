package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"kalimcp/internal/tools"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
)

func newToolsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools available on this host",
		Long: `Runs discovery against the catalog and prints every tool whose binary
was found on PATH, in catalog order. The raw command tool is always listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.loggers.Sync() }()

			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderToolTable(a.registry.All()))
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d tools available", a.registry.Count())))
			return nil
		},
	}
}

// renderToolTable lays descriptors out as aligned columns.
func renderToolTable(descriptors []*tools.Descriptor) string {
	headers := []string{"NAME", "COMMAND", "CATEGORY", "PARAMS"}
	rows := make([][]string, 0, len(descriptors))
	for _, d := range descriptors {
		rows = append(rows, []string{d.Name, d.Command, string(d.Category), strings.Join(d.Params, ",")})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	// Width includes padding.
	for i := range widths {
		widths[i] += 2
	}

	var sb strings.Builder
	for i, h := range headers {
		sb.WriteString(headerStyle.Width(widths[i]).Render(h))
	}
	sb.WriteString("\n")
	for i := range headers {
		sb.WriteString(mutedStyle.Render(strings.Repeat("-", widths[i])))
	}
	sb.WriteString("\n")
	for _, row := range rows {
		for i, cell := range row {
			sb.WriteString(cellStyle.Width(widths[i]).Render(cell))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
