// Package views renders the screens of the read-only plan viewer: the
// node table as projected after the plan and the finalized migration plan.
package views

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/yourusername/plb/internal/cluster"
	"github.com/yourusername/plb/internal/ui/components"
)

var titleBar = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("6")).Padding(0, 1)

// RenderPlanView renders the full-screen layout: title, cluster summary,
// node table, and the finalized plan.
func RenderPlanView(state *cluster.State, policy cluster.Policy, plan cluster.Plan, nodeTable, planTable table.Model) string {
	out := titleBar.Render("plb — rebalance plan (read-only)") + "\n\n"

	out += components.RenderClusterSummary(state, policy, len(plan)) + "\n\n"

	out += "Nodes (projected after plan)\n"
	out += nodeTable.View() + "\n\n"

	out += "Planned migrations\n"
	out += planTable.View() + "\n\n"

	out += components.RenderHelp()

	return out
}
