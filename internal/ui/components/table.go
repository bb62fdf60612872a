package components

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/yourusername/plb/internal/cluster"
)

// NewNodeTable builds a bubbles/table.Model listing nodes with their
// tracked-metric utilization for the given dimension, one row per node.
func NewNodeTable(state *cluster.State, method cluster.Dimension, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Node", Width: 18},
		{Title: "VMs", Width: 5},
		{Title: "Used%", Width: 8},
		{Title: "Assigned%", Width: 10},
	}

	vmCounts := countVMsPerNode(state)
	names := sortedNodeNames(state)
	rows := make([]table.Row, 0, len(names))
	for _, name := range names {
		node := state.Nodes[name]
		rows = append(rows, table.Row{
			name,
			fmt.Sprintf("%d", vmCounts[name]),
			fmt.Sprintf("%d%%", node.UsedPct(method)),
			fmt.Sprintf("%d%%", node.AssignedPct(method)),
		})
	}

	return newStyledTable(columns, rows, width, height)
}

// NewPlanTable builds a bubbles/table.Model listing the finalized
// migration plan, one row per move.
func NewPlanTable(plan cluster.Plan, width, height int) table.Model {
	columns := []table.Column{
		{Title: "VM", Width: 22},
		{Title: "From", Width: 16},
		{Title: "To", Width: 16},
	}

	rows := make([]table.Row, 0, len(plan))
	for _, entry := range plan {
		rows = append(rows, table.Row{entry.VMName, entry.FromNode, entry.ToNode})
	}

	return newStyledTable(columns, rows, width, height)
}

func newStyledTable(columns []table.Column, rows []table.Row, width, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(height),
		table.WithWidth(width),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("6")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("240")).
		Bold(false)
	t.SetStyles(styles)

	return t
}

func sortedNodeNames(state *cluster.State) []string {
	names := make([]string, 0, len(state.Nodes))
	for name := range state.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func countVMsPerNode(state *cluster.State) map[string]int {
	counts := make(map[string]int, len(state.Nodes))
	for _, vm := range state.VMs {
		counts[vm.NodeRebalance]++
	}
	return counts
}
