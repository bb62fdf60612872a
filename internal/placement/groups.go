package placement

import (
	"math/rand"
	"sort"

	"github.com/yourusername/plb/internal/cluster"
)

// ReconcileGroups implements the Group Reconciler (spec.md §4.6): after
// the main planner loop, include-group members are collapsed onto one
// anchor node and exclude-group members are dispersed onto distinct
// nodes. rng drives the exclude sweep's node choice; callers pass a
// seeded *rand.Rand for deterministic tests (spec.md §8 property 8).
func ReconcileGroups(state *cluster.State, rng *rand.Rand) {
	reconcileInclude(state)
	reconcileExclude(state, rng)
}

// bucketBy groups VM names by a tag selector, returning each bucket's
// members sorted by name for deterministic "first member" selection.
func bucketBy(state *cluster.State, tagOf func(*cluster.VM) string) map[string][]string {
	buckets := make(map[string][]string)
	for name, vm := range state.VMs {
		tag := tagOf(vm)
		if tag == "" {
			continue
		}
		buckets[tag] = append(buckets[tag], name)
	}
	for _, members := range buckets {
		sort.Strings(members)
	}
	return buckets
}

// reconcileInclude buckets VMs by group_include. Buckets with two or more
// members collapse onto the first member's node_rebalance; single-member
// buckets are left untouched (spec.md §4.6).
func reconcileInclude(state *cluster.State) {
	buckets := bucketBy(state, func(vm *cluster.VM) string { return vm.GroupInclude })

	for _, members := range buckets {
		if len(members) < 2 {
			continue
		}
		anchor := state.VMs[members[0]].NodeRebalance
		for _, name := range members[1:] {
			ApplyMove(state, state.VMs[name], anchor)
		}
	}
}

// reconcileExclude buckets VMs by group_exclude (spec.md §9 fixes the
// source's bug of reusing group_include as the bucket key here) and
// disperses each bucket's members onto distinct nodes, never moving a
// member onto a node another member of its bucket already occupies.
// Buckets are visited in tag order so a given rng seed always yields the
// same placement. When a bucket has more members than the cluster has
// nodes, a member for which no unused node remains keeps its current
// node_rebalance and therefore shares a node with another member.
func reconcileExclude(state *cluster.State, rng *rand.Rand) {
	buckets := bucketBy(state, func(vm *cluster.VM) string { return vm.GroupExclude })

	nodeNames := make([]string, 0, len(state.Nodes))
	for name := range state.Nodes {
		nodeNames = append(nodeNames, name)
	}
	sort.Strings(nodeNames)

	tags := make([]string, 0, len(buckets))
	for tag := range buckets {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		members := buckets[tag]
		if len(members) < 2 {
			continue
		}

		used := map[string]bool{state.VMs[members[0]].NodeRebalance: true}

		for _, name := range members[1:] {
			vm := state.VMs[name]
			target := pickDispersedNode(nodeNames, vm.NodeParent, used, rng)
			if target == "" {
				// No node satisfies both constraints (cluster too
				// small); leave the VM where it is rather than violate
				// plan consistency by moving it onto a used node.
				used[vm.NodeRebalance] = true
				continue
			}
			ApplyMove(state, vm, target)
			used[target] = true
		}
	}
}

// pickDispersedNode shuffles candidates excluding currentParent and
// anything in used, and returns the head (spec.md §9's "shuffle and take
// head" redesign of the source's rejection-sampling loop). Falls back to
// allowing currentParent if no other candidate exists, and returns "" if
// even that is exhausted.
func pickDispersedNode(nodeNames []string, currentParent string, used map[string]bool, rng *rand.Rand) string {
	candidates := filterNodes(nodeNames, func(n string) bool {
		return n != currentParent && !used[n]
	})
	if len(candidates) == 0 {
		candidates = filterNodes(nodeNames, func(n string) bool {
			return !used[n]
		})
	}
	if len(candidates) == 0 {
		return ""
	}

	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	return candidates[0]
}

func filterNodes(nodeNames []string, keep func(string) bool) []string {
	out := make([]string, 0, len(nodeNames))
	for _, n := range nodeNames {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}
