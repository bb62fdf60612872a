package components

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/plb/internal/cluster"
)

func TestNewNodeTable_OneRowPerNode(t *testing.T) {
	state := cluster.NewState()
	state.Nodes["a"] = &cluster.Node{Name: "a", TotalMemory: 100, UsedMemory: 40}
	state.Nodes["b"] = &cluster.Node{Name: "b", TotalMemory: 100, UsedMemory: 10}
	state.VMs["v1"] = &cluster.VM{Name: "v1", NodeParent: "a", NodeRebalance: "a"}

	tbl := NewNodeTable(state, cluster.DimensionMemory, 60, 10)

	assert.Len(t, tbl.Rows(), 2)
}

func TestNewPlanTable_OneRowPerMigration(t *testing.T) {
	plan := cluster.Plan{
		{VMName: "v1", VMID: 1, FromNode: "a", ToNode: "b"},
		{VMName: "v2", VMID: 2, FromNode: "b", ToNode: "a"},
	}

	tbl := NewPlanTable(plan, 60, 10)

	assert.Len(t, tbl.Rows(), 2)
}
