package placement

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/plb/internal/cluster"
)

// newState is a small fixture builder in the style of GoProxLB's
// createTestNodes helper: build a State from plain node/VM descriptions
// instead of going through the Snapshot Builder.
func newState() *cluster.State {
	return cluster.NewState()
}

func addNode(state *cluster.State, name string, totalMem, usedMem int64) *cluster.Node {
	n := &cluster.Node{Name: name, TotalMemory: totalMem, UsedMemory: usedMem}
	state.Nodes[name] = n
	return n
}

func addVM(state *cluster.State, name string, vmid int, node string, memTotal, memUsed int64) *cluster.VM {
	vm := &cluster.VM{
		Name: name, VMID: vmid,
		TotalMemory: memTotal, UsedMemory: memUsed,
		NodeParent: node, NodeRebalance: node,
	}
	state.VMs[name] = vm
	node2 := state.Nodes[node]
	node2.AssignedMem += memTotal
	return vm
}

func memPolicy(balanciness int) cluster.Policy {
	return cluster.Policy{Method: cluster.DimensionMemory, Mode: cluster.ModeUsed, Balanciness: balanciness}
}

// S1: simple two-node balance, memory/used.
func TestPlan_S1_SimpleTwoNodeBalance(t *testing.T) {
	state := newState()
	addNode(state, "A", 100, 80)
	addNode(state, "B", 100, 10)
	addVM(state, "v1", 1, "A", 40, 40)

	plan := Plan(state, memPolicy(10), rand.New(rand.NewSource(1)))

	require.Len(t, plan, 1)
	assert.Equal(t, "v1", plan[0].VMName)
	assert.Equal(t, "A", plan[0].FromNode)
	assert.Equal(t, "B", plan[0].ToNode)
}

// S2: already balanced — expect an empty plan.
func TestPlan_S2_AlreadyBalanced(t *testing.T) {
	state := newState()
	addNode(state, "A", 100, 50)
	addNode(state, "B", 100, 55)
	addVM(state, "v1", 1, "A", 10, 10)
	addVM(state, "v2", 2, "B", 10, 10)

	plan := Plan(state, memPolicy(10), rand.New(rand.NewSource(1)))

	assert.Empty(t, plan)
	for _, vm := range state.VMs {
		assert.Equal(t, vm.NodeParent, vm.NodeRebalance)
	}
}

// S3: ignore-wildcard VMs never appear in the plan. Here the wildcard
// filtering itself is a Snapshot Builder concern; the placement engine's
// share of the contract is simply: a VM not present in the snapshot can
// never be planned. We assert that directly.
func TestPlan_S3_IgnoredVMsNeverPlanned(t *testing.T) {
	state := newState()
	addNode(state, "A", 100, 90)
	addNode(state, "B", 100, 5)
	addVM(state, "prod01", 2, "A", 40, 40)
	// "test01" is deliberately absent: the Snapshot Builder would have
	// excluded it via the ignore_vms wildcard before the engine ever sees
	// a state.

	plan := Plan(state, memPolicy(10), rand.New(rand.NewSource(1)))

	for _, entry := range plan {
		assert.NotEqual(t, "test01", entry.VMName)
	}
}

// S4: include group cohesion.
func TestPlan_S4_IncludeGroupCohesion(t *testing.T) {
	state := newState()
	addNode(state, "A", 100, 30)
	addNode(state, "B", 100, 30)
	addNode(state, "C", 100, 30)
	for i, n := range []string{"A", "B", "C"} {
		vm := addVM(state, []string{"db1", "db2", "db3"}[i], i+1, n, 10, 10)
		vm.GroupInclude = "db"
	}

	plan := Plan(state, memPolicy(10), rand.New(rand.NewSource(1)))
	_ = plan

	var anchor string
	for i, name := range []string{"db1", "db2", "db3"} {
		if i == 0 {
			anchor = state.VMs[name].NodeRebalance
			continue
		}
		assert.Equal(t, anchor, state.VMs[name].NodeRebalance)
	}
}

// S5: exclude group dispersion.
func TestPlan_S5_ExcludeGroupDispersion(t *testing.T) {
	state := newState()
	addNode(state, "A", 100, 30)
	addNode(state, "B", 100, 30)
	v1 := addVM(state, "ha1", 1, "A", 10, 10)
	v1.GroupExclude = "ha"
	v2 := addVM(state, "ha2", 2, "A", 10, 10)
	v2.GroupExclude = "ha"

	Plan(state, memPolicy(10), rand.New(rand.NewSource(7)))

	assert.NotEqual(t, v1.NodeRebalance, v2.NodeRebalance)
}

// S6: overprovisioned snapshot still produces a plan (the warning is a
// Snapshot Builder / logging concern, exercised in cluster package
// tests).
func TestPlan_S6_OverprovisionedStillPlans(t *testing.T) {
	state := newState()
	a := addNode(state, "A", 100, 90)
	a.AssignedMem = 150
	addNode(state, "B", 100, 5)
	addVM(state, "v1", 1, "A", 40, 40)

	plan := Plan(state, memPolicy(10), rand.New(rand.NewSource(1)))
	assert.NotEmpty(t, plan)
}

// Property 1: resource conservation across the pass.
func TestPlan_ResourceConservation(t *testing.T) {
	state := newState()
	addNode(state, "A", 100, 80)
	addNode(state, "B", 100, 10)
	addNode(state, "C", 100, 40)
	addVM(state, "v1", 1, "A", 40, 40)
	addVM(state, "v2", 2, "A", 10, 10)
	addVM(state, "v3", 3, "C", 5, 5)

	var totalBefore int64
	for _, n := range state.Nodes {
		totalBefore += n.UsedMemory
	}

	Plan(state, memPolicy(10), rand.New(rand.NewSource(3)))

	var totalAfter int64
	for _, n := range state.Nodes {
		totalAfter += n.UsedMemory
	}
	assert.Equal(t, totalBefore, totalAfter)
}

// Property 2: plan consistency.
func TestPlan_Consistency(t *testing.T) {
	state := newState()
	addNode(state, "A", 100, 80)
	addNode(state, "B", 100, 10)
	addVM(state, "v1", 1, "A", 40, 40)

	plan := Plan(state, memPolicy(10), rand.New(rand.NewSource(1)))

	for _, entry := range plan {
		assert.NotEqual(t, entry.FromNode, entry.ToNode)
		_, fromOK := state.Nodes[entry.FromNode]
		_, toOK := state.Nodes[entry.ToNode]
		assert.True(t, fromOK)
		assert.True(t, toOK)
		assert.Equal(t, entry.ToNode, state.VMs[entry.VMName].NodeRebalance)
	}
}

// Property 4: no-op idempotence on an already-balanced snapshot.
func TestPlan_NoOpIdempotence(t *testing.T) {
	state := newState()
	addNode(state, "A", 100, 50)
	addNode(state, "B", 100, 50)
	addVM(state, "v1", 1, "A", 10, 10)
	addVM(state, "v2", 2, "B", 10, 10)

	plan := Plan(state, memPolicy(10), rand.New(rand.NewSource(1)))

	assert.Empty(t, plan)
}

// Property 8: determinism — same seed, same snapshot, same plan.
func TestPlan_Determinism(t *testing.T) {
	build := func() *cluster.State {
		s := newState()
		addNode(s, "A", 100, 90)
		addNode(s, "B", 100, 10)
		addNode(s, "C", 100, 50)
		v1 := addVM(s, "ha1", 1, "A", 10, 10)
		v1.GroupExclude = "ha"
		v2 := addVM(s, "ha2", 2, "A", 10, 10)
		v2.GroupExclude = "ha"
		addVM(s, "v3", 3, "A", 15, 15)
		return s
	}

	s1 := build()
	p1 := Plan(s1, memPolicy(10), rand.New(rand.NewSource(42)))

	s2 := build()
	p2 := Plan(s2, memPolicy(10), rand.New(rand.NewSource(42)))

	assert.Equal(t, p1, p2)
}

func TestHeaviestVM_ExhaustsAllVMsOnce(t *testing.T) {
	state := newState()
	addNode(state, "A", 100, 50)
	addVM(state, "v1", 1, "A", 30, 30)
	addVM(state, "v2", 2, "A", 10, 10)

	processed := map[string]bool{}
	first, ok := HeaviestVM(state, memPolicy(10), processed)
	require.True(t, ok)
	assert.Equal(t, "v1", first.Name)

	second, ok := HeaviestVM(state, memPolicy(10), processed)
	require.True(t, ok)
	assert.Equal(t, "v2", second.Name)

	_, ok = HeaviestVM(state, memPolicy(10), processed)
	assert.False(t, ok)
}

func TestLightestNode_AssignedModeExcludesFullAndEmptyNodes(t *testing.T) {
	state := newState()
	full := addNode(state, "full", 100, 0)
	full.AssignedMem = 100
	empty := addNode(state, "empty", 100, 0)
	empty.AssignedMem = 0
	mid := addNode(state, "mid", 100, 0)
	mid.AssignedMem = 40

	policy := cluster.Policy{Method: cluster.DimensionMemory, Mode: cluster.ModeAssigned, Balanciness: 10}
	node, ok := LightestNode(state, policy)
	require.True(t, ok)
	assert.Equal(t, "mid", node.Name)
}

func TestApplyMove_NoOpWhenDestinationIsParent(t *testing.T) {
	state := newState()
	addNode(state, "A", 100, 50)
	vm := addVM(state, "v1", 1, "A", 10, 10)

	ApplyMove(state, vm, "A")

	assert.Equal(t, "A", vm.NodeRebalance)
	assert.Equal(t, int64(50), state.Nodes["A"].UsedMemory)
}

func TestEvaluate_FixedPointStopsIteration(t *testing.T) {
	state := newState()
	addNode(state, "A", 100, 80)
	addNode(state, "B", 100, 10)

	policy := memPolicy(0)
	// The nodes are out of tolerance (free 20% vs 90%), so the first call,
	// which compares against a zero-valued previous metric, asks for more
	// work. With no mutation in between, the second call finds every node
	// unchanged and must stop on the fixed point alone, even though the
	// spread is still above balanciness.
	assert.True(t, Evaluate(state, policy))
	assert.False(t, Evaluate(state, policy))
}
