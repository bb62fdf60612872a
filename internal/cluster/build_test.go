package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/plb/internal/proxmox"
)

// stubClient is a hand-rolled fake satisfying proxmox.Client, in the
// style of GoProxLB's balancer_test.go mockClient.
type stubClient struct {
	nodes   []proxmox.RawNode
	vms     map[string][]proxmox.RawVM
	configs map[int]proxmox.VMConfig
}

func (s *stubClient) ListNodes() ([]proxmox.RawNode, error) { return s.nodes, nil }
func (s *stubClient) ListVMs(node string) ([]proxmox.RawVM, error) {
	return s.vms[node], nil
}
func (s *stubClient) GetVMConfig(node string, vmid int) (proxmox.VMConfig, error) {
	return s.configs[vmid], nil
}
func (s *stubClient) Migrate(fromNode string, vmid int, toNode string) error { return nil }
func (s *stubClient) Ping() error                                           { return nil }

var _ proxmox.Client = (*stubClient)(nil)

func TestBuild_FiltersOfflineNodesAndIgnoreList(t *testing.T) {
	client := &stubClient{
		nodes: []proxmox.RawNode{
			{Name: "node-a", Status: "online", MaxMem: 100},
			{Name: "node-b", Status: "offline", MaxMem: 100},
			{Name: "node-c", Status: "online", MaxMem: 100},
		},
		vms:     map[string][]proxmox.RawVM{},
		configs: map[int]proxmox.VMConfig{},
	}

	b := NewBuilder(client, []string{"node-c"}, nil)
	state, err := b.Build()
	require.NoError(t, err)

	assert.Contains(t, state.Nodes, "node-a")
	assert.NotContains(t, state.Nodes, "node-b") // offline
	assert.NotContains(t, state.Nodes, "node-c") // ignored
}

func TestBuild_FiltersStoppedAndIgnoredVMs(t *testing.T) {
	client := &stubClient{
		nodes: []proxmox.RawNode{{Name: "node-a", Status: "online", MaxMem: 100}},
		vms: map[string][]proxmox.RawVM{
			"node-a": {
				{VMID: 1, Name: "running-vm", Status: "running", MaxMem: 10},
				{VMID: 2, Name: "stopped-vm", Status: "stopped", MaxMem: 10},
				{VMID: 3, Name: "test01", Status: "running", MaxMem: 10},
				{VMID: 4, Name: "tagged-ignore", Status: "running", MaxMem: 10},
			},
		},
		configs: map[int]proxmox.VMConfig{
			1: {Tags: ""},
			3: {Tags: ""},
			4: {Tags: "plb_ignore_vm;other"},
		},
	}

	b := NewBuilder(client, nil, []string{"test*"})
	state, err := b.Build()
	require.NoError(t, err)

	assert.Contains(t, state.VMs, "running-vm")
	assert.NotContains(t, state.VMs, "stopped-vm")
	assert.NotContains(t, state.VMs, "test01")
	assert.NotContains(t, state.VMs, "tagged-ignore")
}

func TestMatchesIgnoreVM_ContainsSemantics(t *testing.T) {
	// spec.md §9: a trailing "*" pattern is a *contains* match, not a
	// true prefix match — the source's `pattern[:-1] in name` behaviour
	// is deliberately preserved.
	assert.True(t, matchesIgnoreVM([]string{"test*"}, "prod-test-01"))
	assert.True(t, matchesIgnoreVM([]string{"test*"}, "test01"))
	assert.False(t, matchesIgnoreVM([]string{"test*"}, "prodvm"))
	assert.True(t, matchesIgnoreVM([]string{"exactname"}, "exactname"))
	assert.False(t, matchesIgnoreVM([]string{"exactname"}, "exactname2"))
}

func TestBuild_ParsesIncludeExcludeTags(t *testing.T) {
	client := &stubClient{
		nodes: []proxmox.RawNode{{Name: "node-a", Status: "online", MaxMem: 100}},
		vms: map[string][]proxmox.RawVM{
			"node-a": {{VMID: 1, Name: "v1", Status: "running", MaxMem: 10}},
		},
		configs: map[int]proxmox.VMConfig{
			1: {Tags: "plb_include_db;plb_exclude_ha;unrelated_tag"},
		},
	}

	b := NewBuilder(client, nil, nil)
	state, err := b.Build()
	require.NoError(t, err)

	vm := state.VMs["v1"]
	assert.Equal(t, "db", vm.GroupInclude)
	assert.Equal(t, "ha", vm.GroupExclude)
}

func TestBuild_AssignedFoldedAndNodeRebalanceInitialised(t *testing.T) {
	client := &stubClient{
		nodes: []proxmox.RawNode{{Name: "node-a", Status: "online", MaxMem: 100}},
		vms: map[string][]proxmox.RawVM{
			"node-a": {
				{VMID: 1, Name: "v1", Status: "running", MaxMem: 30},
				{VMID: 2, Name: "v2", Status: "running", MaxMem: 20},
			},
		},
		configs: map[int]proxmox.VMConfig{1: {}, 2: {}},
	}

	b := NewBuilder(client, nil, nil)
	state, err := b.Build()
	require.NoError(t, err)

	assert.EqualValues(t, 50, state.Nodes["node-a"].AssignedMem)
	assert.Equal(t, "node-a", state.VMs["v1"].NodeRebalance)
	assert.Equal(t, state.VMs["v1"].NodeParent, state.VMs["v1"].NodeRebalance)
	require.NoError(t, ValidateReferences(state))
}

func TestNode_Overprovisioned(t *testing.T) {
	n := &Node{TotalMemory: 100, AssignedMem: 150}
	assert.True(t, n.Overprovisioned(DimensionMemory))

	n2 := &Node{TotalMemory: 100, AssignedMem: 80}
	assert.False(t, n2.Overprovisioned(DimensionMemory))
}
