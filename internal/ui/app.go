// Package ui implements the --ui flag: a read-only bubbletea viewer over
// an already-finalized plan. It never issues migrations itself, and a
// cycle run with --ui returns once the viewer is closed, without printing
// or executing the plan.
package ui

import (
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yourusername/plb/internal/cluster"
	"github.com/yourusername/plb/internal/ui/components"
	"github.com/yourusername/plb/internal/ui/views"
)

// Model is the plan viewer's bubbletea model. It wraps two
// bubbles/table.Model instances — nodes and planned migrations — and
// routes key/window messages to whichever one is focused.
type Model struct {
	state  *cluster.State
	policy cluster.Policy
	plan   cluster.Plan

	nodeTable table.Model
	planTable table.Model
	focusPlan bool

	width, height int
}

// NewModel builds a viewer model over a finalized plan and the cluster
// state it was computed against.
func NewModel(state *cluster.State, policy cluster.Policy, plan cluster.Plan) Model {
	const tableWidth, tableHeight = 60, 10

	nodeTable := components.NewNodeTable(state, policy.Method, tableWidth, tableHeight)
	planTable := components.NewPlanTable(plan, tableWidth, tableHeight)
	nodeTable.Focus()

	return Model{
		state:     state,
		policy:    policy,
		plan:      plan,
		nodeTable: nodeTable,
		planTable: planTable,
		width:     100,
		height:    30,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "tab":
			m.focusPlan = !m.focusPlan
			if m.focusPlan {
				m.nodeTable.Blur()
				m.planTable.Focus()
			} else {
				m.planTable.Blur()
				m.nodeTable.Focus()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focusPlan {
		m.planTable, cmd = m.planTable.Update(msg)
	} else {
		m.nodeTable, cmd = m.nodeTable.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	return views.RenderPlanView(m.state, m.policy, m.plan, m.nodeTable, m.planTable)
}

// Run starts the bubbletea program and blocks until the user quits.
func Run(state *cluster.State, policy cluster.Policy, plan cluster.Plan) error {
	p := tea.NewProgram(NewModel(state, policy, plan), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
