// Package placement implements the placement engine: the Balanciness
// Evaluator, Selection Rules, Plan Mutator, Planner Loop, Group
// Reconciler, and Plan Finaliser of spec.md §4. It is a pure function of
// a cluster.State and cluster.Policy; no component here talks to the
// hypervisor.
package placement

import "github.com/yourusername/plb/internal/cluster"

// Evaluate implements the Balanciness Evaluator (spec.md §4.2). It
// updates each node's fixed-point bookkeeping as a side effect (the
// _last_run_pct / _stable fields of spec.md §3) and reports whether
// another iteration is warranted.
//
// Tie policy is exact integer comparison; no epsilon (spec.md §4.2).
func Evaluate(state *cluster.State, policy cluster.Policy) bool {
	allStable := true
	var min, max int
	first := true

	for _, node := range state.Nodes {
		metric := node.TrackedMetric(policy.Method, policy.Mode)

		stable := metric == node.LastRunPct()
		node.SetStable(stable)
		if !stable {
			allStable = false
		}
		node.SetLastRunPct(metric)

		if first {
			min, max = metric, metric
			first = false
			continue
		}
		if metric < min {
			min = metric
		}
		if metric > max {
			max = metric
		}
	}

	if first {
		// No nodes at all: nothing to balance.
		return false
	}

	if allStable {
		return false
	}

	return min+policy.Balanciness < max
}
