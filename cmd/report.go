package cmd

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mj1618/desktop-flow/internal/engine"
)

var (
	reportHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	reportLineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// styleReport renders a runner report for the terminal: the first line as a
// header and the rest muted. A successful run has an empty report and
// renders as nothing.
func styleReport(report string) string {
	if report == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(report, "\n"), "\n")
	var b strings.Builder
	b.WriteString(reportHeaderStyle.Render("✗ "+lines[0]) + "\n")
	for _, l := range lines[1:] {
		b.WriteString(reportLineStyle.Render(l) + "\n")
	}
	return b.String()
}

func flowSummary(r engine.FlowResult) string {
	return styleReport(r.Report())
}

func workflowSummary(r engine.WorkflowResult) string {
	return styleReport(r.Report())
}
