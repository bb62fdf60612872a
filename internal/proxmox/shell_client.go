package proxmox

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/yourusername/plb/internal/plberr"
)

// ShellClient talks to Proxmox through the local pvesh command, for
// deployments where the planner runs on a cluster member as root. Adapted
// from the teacher's proxmox.ShellClient, narrowed to the Client
// interface.
type ShellClient struct{}

// NewShellClient creates a pvesh-backed client. No credentials required.
func NewShellClient() *ShellClient {
	return &ShellClient{}
}

// IsProxmoxHost reports whether this process is running on a Proxmox VE
// host: /etc/pve exists and pvesh is on PATH.
func IsProxmoxHost() bool {
	if _, err := os.Stat("/etc/pve"); err != nil {
		return false
	}
	_, err := exec.LookPath("pvesh")
	return err == nil
}

func (c *ShellClient) pvesh(args ...string) ([]byte, error) {
	fullArgs := append(append([]string{}, args...), "--output-format", "json")
	cmd := exec.Command("pvesh", fullArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, plberr.Wrap(plberr.ApiUnreachable, err, fmt.Sprintf("pvesh command failed: %s", string(output)))
	}
	return output, nil
}

// ListNodes retrieves all cluster nodes via `pvesh get /nodes`.
func (c *ShellClient) ListNodes() ([]RawNode, error) {
	output, err := c.pvesh("get", "/nodes")
	if err != nil {
		return nil, err
	}

	var entries []struct {
		Node    string `json:"node"`
		Status  string `json:"status"`
		MaxCPU  int64  `json:"maxcpu"`
		CPU     int64  `json:"cpu"`
		MaxMem  int64  `json:"maxmem"`
		Mem     int64  `json:"mem"`
		MaxDisk int64  `json:"maxdisk"`
		Disk    int64  `json:"disk"`
	}
	if err := json.Unmarshal(output, &entries); err != nil {
		return nil, plberr.Wrap(plberr.ApiUnreachable, err, "failed to unmarshal node list")
	}

	nodes := make([]RawNode, 0, len(entries))
	for _, e := range entries {
		nodes = append(nodes, RawNode{
			Name: e.Node, Status: e.Status,
			MaxCPU: e.MaxCPU, CPU: e.CPU,
			MaxMem: e.MaxMem, Mem: e.Mem,
			MaxDisk: e.MaxDisk, Disk: e.Disk,
		})
	}
	return nodes, nil
}

// ListVMs retrieves guests resident on node via `pvesh get /nodes/<node>/qemu`.
func (c *ShellClient) ListVMs(node string) ([]RawVM, error) {
	output, err := c.pvesh("get", fmt.Sprintf("/nodes/%s/qemu", node))
	if err != nil {
		return nil, err
	}

	var entries []struct {
		VMID    int    `json:"vmid"`
		Name    string `json:"name"`
		Status  string `json:"status"`
		CPUs    int64  `json:"cpus"`
		CPU     int64  `json:"cpu"`
		MaxMem  int64  `json:"maxmem"`
		Mem     int64  `json:"mem"`
		MaxDisk int64  `json:"maxdisk"`
		Disk    int64  `json:"disk"`
	}
	if err := json.Unmarshal(output, &entries); err != nil {
		return nil, plberr.Wrap(plberr.ApiUnreachable, err, "failed to unmarshal vm list")
	}

	vms := make([]RawVM, 0, len(entries))
	for _, e := range entries {
		vms = append(vms, RawVM{
			VMID: e.VMID, Name: e.Name, Status: e.Status,
			CPUs: e.CPUs, CPU: e.CPU,
			MaxMem: e.MaxMem, Mem: e.Mem,
			MaxDisk: e.MaxDisk, Disk: e.Disk,
		})
	}
	return vms, nil
}

// GetVMConfig retrieves VM configuration via `pvesh get /nodes/<node>/qemu/<id>/config`.
func (c *ShellClient) GetVMConfig(node string, vmid int) (VMConfig, error) {
	output, err := c.pvesh("get", fmt.Sprintf("/nodes/%s/qemu/%d/config", node, vmid))
	if err != nil {
		return VMConfig{}, err
	}

	var cfg struct {
		Tags string `json:"tags"`
	}
	if err := json.Unmarshal(output, &cfg); err != nil {
		return VMConfig{}, plberr.Wrap(plberr.ApiUnreachable, err, "failed to unmarshal vm config")
	}
	return VMConfig{Tags: cfg.Tags}, nil
}

// Migrate issues an online migration via `pvesh create /nodes/<node>/qemu/<id>/migrate`.
func (c *ShellClient) Migrate(fromNode string, vmid int, toNode string) error {
	_, err := c.pvesh("create", fmt.Sprintf("/nodes/%s/qemu/%d/migrate", fromNode, vmid),
		"-target", toNode, "-online", "1")
	if err != nil {
		return plberr.Wrap(plberr.MigrationRejected, err, "migration request failed")
	}
	return nil
}

// Ping verifies pvesh is reachable.
func (c *ShellClient) Ping() error {
	_, err := c.pvesh("get", "/version")
	return err
}
