package placement

import (
	"sort"

	"github.com/yourusername/plb/internal/cluster"
)

// Finalize implements the Plan Finaliser (spec.md §4.7): drop every VM
// whose node_rebalance equals node_parent and project the rest into a
// cluster.Plan. Entries are sorted by VM name for deterministic output
// (spec.md §8 property 8); the spec itself leaves plan ordering
// unspecified (§3).
func Finalize(state *cluster.State) cluster.Plan {
	names := make([]string, 0, len(state.VMs))
	for name := range state.VMs {
		names = append(names, name)
	}
	sort.Strings(names)

	plan := make(cluster.Plan, 0, len(names))
	for _, name := range names {
		vm := state.VMs[name]
		if vm.NodeRebalance == vm.NodeParent {
			continue
		}
		plan = append(plan, cluster.MigrationEntry{
			VMName:   vm.Name,
			VMID:     vm.VMID,
			FromNode: vm.NodeParent,
			ToNode:   vm.NodeRebalance,
		})
	}
	return plan
}
