// Package output renders a finalized plan for human and machine
// consumption: a right-aligned terminal table styled with lipgloss, and
// a JSON projection for scripting.
package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/yourusername/plb/internal/cluster"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const (
	colVM   = 24
	colNode = 18
)

// RenderPlanTable renders a finalized plan as a dry-run table: VM,
// current node, rebalanced node. When stdout is not a terminal, styling
// is skipped and the table degrades to plain fixed-width text.
func RenderPlanTable(plan cluster.Plan) string {
	var sb strings.Builder

	header := fmt.Sprintf("%*s %*s %*s", colVM, "VM", colNode, "Current Node", colNode, "Rebalanced Node")
	if isTerminal() {
		sb.WriteString(headerStyle.Render(header) + "\n")
	} else {
		sb.WriteString(header + "\n")
	}
	sb.WriteString(strings.Repeat("─", colVM+colNode+colNode+2) + "\n")

	if len(plan) == 0 {
		msg := "(no migrations — cluster is within balanciness tolerance)"
		if isTerminal() {
			sb.WriteString(emptyStyle.Render(msg) + "\n")
		} else {
			sb.WriteString(msg + "\n")
		}
		return sb.String()
	}

	for _, entry := range plan {
		row := fmt.Sprintf("%*s %*s %*s", colVM, truncate(entry.VMName, colVM), colNode, entry.FromNode, colNode, entry.ToNode)
		sb.WriteString(row + "\n")
	}

	return sb.String()
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
