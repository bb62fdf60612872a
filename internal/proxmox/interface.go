package proxmox

// Client is the hypervisor-client contract consumed by the core (spec.md
// §6). Both HTTPClient (API-based) and ShellClient (pvesh-based) satisfy
// it, mirroring the teacher's split between API and local-shell access.
type Client interface {
	// ListNodes returns every node visible to this credential, regardless
	// of status; the Snapshot Builder filters by status and ignore-list.
	ListNodes() ([]RawNode, error)

	// ListVMs returns every VM resident on node, regardless of status.
	ListVMs(node string) ([]RawVM, error)

	// GetVMConfig returns the VM's configuration, notably its tag list.
	GetVMConfig(node string, vmid int) (VMConfig, error)

	// Migrate issues an online migration of vmid from fromNode to
	// toNode.
	Migrate(fromNode string, vmid int, toNode string) error

	// Ping verifies connectivity and authentication.
	Ping() error
}

var _ Client = (*HTTPClient)(nil)
var _ Client = (*ShellClient)(nil)
