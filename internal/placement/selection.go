package placement

import "github.com/yourusername/plb/internal/cluster"

// HeaviestVM implements the Selection Rules' VM pick (spec.md §4.3):
// maximum weight (per mode) among VMs not yet in processed, lexicographic
// by name on ties for test determinism. Returns (nil, false) once every
// VM has been processed.
func HeaviestVM(state *cluster.State, policy cluster.Policy, processed map[string]bool) (*cluster.VM, bool) {
	var best *cluster.VM
	var bestWeight int64

	for name, vm := range state.VMs {
		if processed[name] {
			continue
		}
		weight := vm.Weight(policy.Method, policy.Mode)
		if best == nil ||
			weight > bestWeight ||
			(weight == bestWeight && vm.Name < best.Name) {
			best = vm
			bestWeight = weight
		}
	}

	if best == nil {
		return nil, false
	}
	processed[best.Name] = true
	return best, true
}

// LightestNode implements the Selection Rules' target pick (spec.md
// §4.3). Under "used" mode it is the node with maximum free capacity on
// the policy dimension; under "assigned" mode it is the node with minimum
// assigned amount, restricted to nodes whose assigned_pct is strictly
// between 0 and 100. Ties are broken lexicographically by node name.
func LightestNode(state *cluster.State, policy cluster.Policy) (*cluster.Node, bool) {
	var best *cluster.Node

	for _, node := range state.Nodes {
		if policy.Mode == cluster.ModeAssigned {
			pct := node.AssignedPct(policy.Method)
			if pct <= 0 || pct >= 100 {
				continue
			}
		}

		if best == nil || better(node, best, policy) {
			best = node
		}
	}

	if best == nil {
		return nil, false
	}
	return best, true
}

func better(candidate, current *cluster.Node, policy cluster.Policy) bool {
	if policy.Mode == cluster.ModeAssigned {
		ca, cb := candidate.Assigned(policy.Method), current.Assigned(policy.Method)
		if ca != cb {
			return ca < cb
		}
		return candidate.Name < current.Name
	}

	ca, cb := candidate.Free(policy.Method), current.Free(policy.Method)
	if ca != cb {
		return ca > cb
	}
	return candidate.Name < current.Name
}
