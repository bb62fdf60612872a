package placement

import (
	"math/rand"

	"github.com/yourusername/plb/internal/cluster"
)

// Plan runs one complete planning pass — the Planner Loop, the Group
// Reconciler, and the Plan Finaliser — and returns the resulting
// migration plan. rng seeds the exclude-group dispersion sweep; pass a
// fixed seed for deterministic tests (spec.md §8 property 8).
func Plan(state *cluster.State, policy cluster.Policy, rng *rand.Rand) cluster.Plan {
	Run(state, policy)
	ReconcileGroups(state, rng)
	return Finalize(state)
}

// Run implements the Planner Loop (spec.md §4.5): iterate Selection and
// Mutation until the Evaluator reports convergence, or until every VM has
// been considered once in this pass. It mutates state in place and
// returns nothing; callers run the Group Reconciler and Plan Finaliser
// against the same state afterward.
func Run(state *cluster.State, policy cluster.Policy) {
	processed := make(map[string]bool, len(state.VMs))

	for {
		if !Evaluate(state, policy) {
			return
		}

		vm, ok := HeaviestVM(state, policy, processed)
		if !ok {
			return
		}

		target, ok := LightestNode(state, policy)
		if !ok {
			return
		}

		ApplyMove(state, vm, target.Name)
	}
}
