package output

import (
	"encoding/json"

	"github.com/yourusername/plb/internal/cluster"
)

// PlanEntryJSON is the finalised record for one migrating VM (spec.md
// §6): identity, current and planned node, and the resource counters on
// the dimension the policy balances, so a consumer can see both the
// move and why it was made.
type PlanEntryJSON struct {
	VMID          int    `json:"vmid"`
	NodeParent    string `json:"node_parent"`
	NodeRebalance string `json:"node_rebalance"`
	Total         int64  `json:"total"`
	Used          int64  `json:"used"`
}

// RenderPlanJSON emits the finalized plan as a JSON object keyed by VM
// name (spec.md §6's "--json" contract), one entry per VM the plan
// actually moves.
func RenderPlanJSON(plan cluster.Plan, state *cluster.State, policy cluster.Policy) ([]byte, error) {
	doc := make(map[string]PlanEntryJSON, len(plan))

	for _, entry := range plan {
		vm := state.VMs[entry.VMName]
		total, used := vmBases(vm, policy.Method)
		doc[entry.VMName] = PlanEntryJSON{
			VMID:          entry.VMID,
			NodeParent:    entry.FromNode,
			NodeRebalance: entry.ToNode,
			Total:         total,
			Used:          used,
		}
	}

	return json.MarshalIndent(doc, "", "  ")
}

func vmBases(vm *cluster.VM, d cluster.Dimension) (total, used int64) {
	switch d {
	case cluster.DimensionCPU:
		return vm.TotalCPU, vm.UsedCPU
	case cluster.DimensionDisk:
		return vm.TotalDisk, vm.UsedDisk
	default:
		return vm.TotalMemory, vm.UsedMemory
	}
}
