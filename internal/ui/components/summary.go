package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/yourusername/plb/internal/cluster"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(1, 2).
			Width(44)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("6"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))
)

// RenderClusterSummary renders a box summarizing node/VM counts and the
// active balancing policy.
func RenderClusterSummary(state *cluster.State, policy cluster.Policy, moveCount int) string {
	content := titleStyle.Render("Cluster Summary") + "\n\n"

	content += labelStyle.Render("Nodes:      ") +
		valueStyle.Render(fmt.Sprintf("%d", len(state.Nodes))) + "\n"
	content += labelStyle.Render("VMs:        ") +
		valueStyle.Render(fmt.Sprintf("%d", len(state.VMs))) + "\n"
	content += labelStyle.Render("Method:     ") +
		valueStyle.Render(fmt.Sprintf("%s / %s", policy.Method, policy.Mode)) + "\n"
	content += labelStyle.Render("Balanciness:") +
		valueStyle.Render(fmt.Sprintf(" %d%%", policy.Balanciness)) + "\n"
	content += labelStyle.Render("Migrations: ") +
		valueStyle.Render(fmt.Sprintf("%d", moveCount)) + "\n\n"

	content += RenderResourceBar(string(policy.Method)+" used", averageUsedPct(state, policy.Method), 36) + "\n"

	used, total := clusterTotals(state, policy.Method)
	content += labelStyle.Render(fmt.Sprintf("%-12s", "Capacity:")) +
		valueStyle.Render(fmt.Sprintf("%s / %s", FormatBytes(used), FormatBytes(total))) + "\n"

	return boxStyle.Render(content)
}

// averageUsedPct returns the cluster-wide mean used-percentage across
// nodes for dimension d, for the summary panel's at-a-glance bar.
func averageUsedPct(state *cluster.State, d cluster.Dimension) float64 {
	if len(state.Nodes) == 0 {
		return 0
	}
	var sum int
	for _, n := range state.Nodes {
		sum += n.UsedPct(d)
	}
	return float64(sum) / float64(len(state.Nodes))
}

// clusterTotals sums used and total capacity across every node for
// dimension d, for the summary panel's absolute-bytes line.
func clusterTotals(state *cluster.State, d cluster.Dimension) (used, total int64) {
	for _, n := range state.Nodes {
		used += n.Used(d)
		total += n.Total(d)
	}
	return used, total
}

// RenderHelp renders the keyboard shortcut legend for the plan viewer.
func RenderHelp() string {
	content := titleStyle.Render("Keyboard Shortcuts") + "\n\n"

	shortcuts := []struct{ key, desc string }{
		{"↑/↓ or j/k", "Navigate"},
		{"tab", "Switch panel"},
		{"q / Ctrl+C", "Quit"},
	}

	for _, s := range shortcuts {
		content += lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).
			Render(fmt.Sprintf("%-15s", s.key))
		content += labelStyle.Render(s.desc) + "\n"
	}

	return boxStyle.Width(40).Render(content)
}
