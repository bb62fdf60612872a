package placement

import "github.com/yourusername/plb/internal/cluster"

// ApplyMove implements the Plan Mutator (spec.md §4.4). It accepts a
// destination node *name* and looks it up in state — spec.md §9 resolves
// the source's "mutator re-entry with a bare node name" open question
// this way, so the Group Reconciler can call this exact function instead
// of indexing into a synthetic one-element node list.
//
// If destination equals vm.NodeRebalance (the VM's current planned node),
// this is a no-op. node_parent is never rewritten. Counters move from the
// VM's current planned node, so a VM relocated a second time in one pass
// (by the Group Reconciler after the Planner Loop) is debited from the
// node it actually occupies and can be moved back to node_parent.
func ApplyMove(state *cluster.State, vm *cluster.VM, destination string) {
	if destination == vm.NodeRebalance {
		return
	}

	source := state.Nodes[vm.NodeRebalance]
	target := state.Nodes[destination]

	for _, d := range []cluster.Dimension{cluster.DimensionCPU, cluster.DimensionMemory, cluster.DimensionDisk} {
		used, assigned := deltasFor(vm, d)
		source.ApplyDelta(d, -used, -assigned)
		target.ApplyDelta(d, used, assigned)
	}

	vm.NodeRebalance = destination
}

func deltasFor(vm *cluster.VM, d cluster.Dimension) (used, assigned int64) {
	switch d {
	case cluster.DimensionCPU:
		return vm.UsedCPU, vm.TotalCPU
	case cluster.DimensionMemory:
		return vm.UsedMemory, vm.TotalMemory
	case cluster.DimensionDisk:
		return vm.UsedDisk, vm.TotalDisk
	default:
		return 0, 0
	}
}
