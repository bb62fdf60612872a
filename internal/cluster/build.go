package cluster

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/plb/internal/plberr"
	"github.com/yourusername/plb/internal/proxmox"
)

// ignoreVMTagPrefix marks a VM as excluded from planning regardless of
// its name (spec.md §6's "plb_ignore_vm" tag).
const ignoreVMTagPrefix = "plb_ignore_vm"

const (
	includeTagPrefix = "plb_include_"
	excludeTagPrefix = "plb_exclude_"
)

// Builder consumes a proxmox.Client and assembles the immutable State the
// placement engine operates on (spec.md §4.1). It owns the ignore-lists;
// everything else about snapshot assembly is stateless.
type Builder struct {
	Client      proxmox.Client
	IgnoreNodes []string
	IgnoreVMs   []string
}

// NewBuilder constructs a Builder with the ignore-lists from the
// [balancing] config section.
func NewBuilder(client proxmox.Client, ignoreNodes, ignoreVMs []string) *Builder {
	return &Builder{Client: client, IgnoreNodes: ignoreNodes, IgnoreVMs: ignoreVMs}
}

func containsName(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

// matchesIgnoreVM reports whether name is excluded by the literal or
// wildcard entries of patterns. A pattern ending in "*" is a *contains*
// match against the substring before the "*" — not a prefix match — per
// spec.md §9's note on the source's `pattern[:-1] in name` behaviour,
// which this implementation deliberately preserves.
func matchesIgnoreVM(patterns []string, name string) bool {
	for _, p := range patterns {
		if strings.HasSuffix(p, "*") {
			if strings.Contains(name, strings.TrimSuffix(p, "*")) {
				return true
			}
			continue
		}
		if p == name {
			return true
		}
	}
	return false
}

// extractTags parses a semicolon-separated tag list and returns the group
// names (prefix stripped) of the first plb_include_ and plb_exclude_ tags
// found, and whether an ignore tag is present (spec.md §4.1).
func extractTags(raw string) (include, exclude string, ignored bool) {
	for _, tag := range strings.Split(raw, ";") {
		tag = strings.TrimSpace(tag)
		switch {
		case tag == "":
			continue
		case strings.HasPrefix(tag, ignoreVMTagPrefix):
			ignored = true
		case include == "" && strings.HasPrefix(tag, includeTagPrefix):
			include = strings.TrimPrefix(tag, includeTagPrefix)
		case exclude == "" && strings.HasPrefix(tag, excludeTagPrefix):
			exclude = strings.TrimPrefix(tag, excludeTagPrefix)
		}
	}
	return include, exclude, ignored
}

// Build enumerates nodes and VMs through the client and returns the
// resulting State. Every admitted VM's node_rebalance is initialised to
// node_parent (spec.md §3); assigned totals are folded in and
// over-provisioning is logged as a warning, never returned as an error
// (spec.md §4.1, §7).
func (b *Builder) Build() (*State, error) {
	rawNodes, err := b.Client.ListNodes()
	if err != nil {
		return nil, err
	}

	state := NewState()

	for _, rn := range rawNodes {
		if rn.Status != "online" {
			continue
		}
		if containsName(b.IgnoreNodes, rn.Name) {
			continue
		}
		state.Nodes[rn.Name] = &Node{
			Name:        rn.Name,
			TotalCPU:    rn.MaxCPU,
			UsedCPU:     rn.CPU,
			TotalMemory: rn.MaxMem,
			UsedMemory:  rn.Mem,
			TotalDisk:   rn.MaxDisk,
			UsedDisk:    rn.Disk,
		}
	}

	for nodeName := range state.Nodes {
		rawVMs, err := b.Client.ListVMs(nodeName)
		if err != nil {
			return nil, err
		}

		for _, rv := range rawVMs {
			if rv.Status != "running" {
				continue
			}
			if matchesIgnoreVM(b.IgnoreVMs, rv.Name) {
				continue
			}

			cfg, err := b.Client.GetVMConfig(nodeName, rv.VMID)
			if err != nil {
				return nil, err
			}
			include, exclude, ignored := extractTags(cfg.Tags)
			if ignored {
				continue
			}

			vm := &VM{
				Name:          rv.Name,
				VMID:          rv.VMID,
				TotalCPU:      rv.CPUs,
				UsedCPU:       rv.CPU,
				TotalMemory:   rv.MaxMem,
				UsedMemory:    rv.Mem,
				TotalDisk:     rv.MaxDisk,
				UsedDisk:      rv.Disk,
				NodeParent:    nodeName,
				NodeRebalance: nodeName,
				GroupInclude:  include,
				GroupExclude:  exclude,
			}
			state.VMs[vm.Name] = vm

			node := state.Nodes[nodeName]
			node.AssignedCPU += vm.TotalCPU
			node.AssignedMem += vm.TotalMemory
			node.AssignedDisk += vm.TotalDisk
		}
	}

	warnOverprovisioned(state)

	return state, nil
}

func warnOverprovisioned(state *State) {
	for _, n := range state.Nodes {
		for _, d := range []Dimension{DimensionCPU, DimensionMemory, DimensionDisk} {
			if n.AssignedPct(d) > 99 {
				log.Warn().
					Str("node", n.Name).
					Str("dimension", string(d)).
					Int("assigned_pct", n.AssignedPct(d)).
					Msg("node is overprovisioned")
			}
		}
	}
}

// ValidateReferences checks the invariant that every VM's node_parent and
// node_rebalance name nodes present in the snapshot (spec.md §3). Build
// never violates it by construction; this is exposed for tests and for
// callers that assemble a State by hand (e.g. from a cached fixture).
func ValidateReferences(state *State) error {
	for _, vm := range state.VMs {
		if _, ok := state.Nodes[vm.NodeParent]; !ok {
			return plberr.New(plberr.InvalidPolicy, "vm "+vm.Name+" references unknown node_parent "+vm.NodeParent)
		}
		if _, ok := state.Nodes[vm.NodeRebalance]; !ok {
			return plberr.New(plberr.InvalidPolicy, "vm "+vm.Name+" references unknown node_rebalance "+vm.NodeRebalance)
		}
	}
	return nil
}
