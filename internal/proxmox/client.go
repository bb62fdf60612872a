package proxmox

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yourusername/plb/internal/plberr"
)

// HTTPClient is a Proxmox API client, adapted from the teacher's
// proxmox.Client: same ticket/token authentication and doRequest
// machinery, narrowed to the four operations spec.md §6 requires of the
// core's hypervisor collaborator.
type HTTPClient struct {
	BaseURL    string
	HTTPClient *http.Client
	AuthToken  string
	Username   string
	Password   string
	verifySSL  bool
	ticket     string
	csrfToken  string
}

// NewHTTPClient creates a Proxmox API client for baseURL. verifySSL
// controls whether the hypervisor's TLS certificate is validated, per the
// [proxmox] verify_ssl config key (spec.md §6).
func NewHTTPClient(baseURL, username, password string, verifySSL bool) *HTTPClient {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !verifySSL},
	}
	return &HTTPClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Username:  username,
		Password:  password,
		verifySSL: verifySSL,
	}
}

// Authenticate obtains a ticket and CSRF token using username/password.
// Dial/TLS/DNS failures are classified into the §7 error kinds so callers
// can map them to the fatal exit-2 path.
func (c *HTTPClient) Authenticate() error {
	if c.Username == "" || c.Password == "" {
		return plberr.New(plberr.AuthFailure, "username and password required for authentication")
	}

	data := url.Values{}
	data.Set("username", c.Username)
	data.Set("password", c.Password)

	resp, err := c.HTTPClient.PostForm(c.BaseURL+"/api2/json/access/ticket", data)
	if err != nil {
		return classifyConnectError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return plberr.New(plberr.AuthFailure, fmt.Sprintf("authentication failed: status %d", resp.StatusCode))
	}

	var result struct {
		Data struct {
			Ticket              string `json:"ticket"`
			CSRFPreventionToken string `json:"CSRFPreventionToken"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return plberr.Wrap(plberr.AuthFailure, err, "failed to decode auth response")
	}

	c.ticket = result.Data.Ticket
	c.csrfToken = result.Data.CSRFPreventionToken
	return nil
}

func classifyConnectError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such host") || strings.Contains(msg, "lookup"):
		return plberr.Wrap(plberr.DnsFailure, err, "dns resolution failed")
	case strings.Contains(msg, "certificate") || strings.Contains(msg, "tls") || strings.Contains(msg, "x509"):
		return plberr.Wrap(plberr.TlsFailure, err, "tls handshake failed")
	default:
		return plberr.Wrap(plberr.ApiUnreachable, err, "hypervisor api unreachable")
	}
}

func (c *HTTPClient) doRequest(method, path string, form url.Values) (*http.Response, error) {
	target := c.BaseURL + path

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return nil, plberr.Wrap(plberr.ApiUnreachable, err, "failed to build request")
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	if c.ticket != "" {
		req.Header.Set("Cookie", "PVEAuthCookie="+c.ticket)
		if method != http.MethodGet {
			req.Header.Set("CSRFPreventionToken", c.csrfToken)
		}
	} else if c.AuthToken != "" {
		req.Header.Set("Authorization", "PVEAPIToken="+c.AuthToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyConnectError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, plberr.New(plberr.AuthFailure, "unauthorized: check credentials or token")
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, plberr.New(plberr.ApiUnreachable, fmt.Sprintf("api error (status %d): %s", resp.StatusCode, string(body)))
	}

	return resp, nil
}

// ListNodes retrieves all cluster nodes via /cluster/resources.
func (c *HTTPClient) ListNodes() ([]RawNode, error) {
	resp, err := c.doRequest(http.MethodGet, "/api2/json/cluster/resources?type=node", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env clusterResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, plberr.Wrap(plberr.ApiUnreachable, err, "failed to decode node list")
	}

	raw, err := json.Marshal(env.Data)
	if err != nil {
		return nil, plberr.Wrap(plberr.ApiUnreachable, err, "failed to remarshal node list")
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
	if err := json.Unmarshal(raw, &entries); err != nil {
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

// ListVMs retrieves all qemu guests resident on node; lxc containers are
// not listed.
func (c *HTTPClient) ListVMs(node string) ([]RawVM, error) {
	path := fmt.Sprintf("/api2/json/nodes/%s/qemu", url.PathEscape(node))
	resp, err := c.doRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env clusterResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, plberr.Wrap(plberr.ApiUnreachable, err, "failed to decode vm list")
	}

	raw, err := json.Marshal(env.Data)
	if err != nil {
		return nil, plberr.Wrap(plberr.ApiUnreachable, err, "failed to remarshal vm list")
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
	if err := json.Unmarshal(raw, &entries); err != nil {
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

// GetVMConfig retrieves the VM's configuration, notably its "tags" field.
func (c *HTTPClient) GetVMConfig(node string, vmid int) (VMConfig, error) {
	path := fmt.Sprintf("/api2/json/nodes/%s/qemu/%d/config", url.PathEscape(node), vmid)
	resp, err := c.doRequest(http.MethodGet, path, nil)
	if err != nil {
		return VMConfig{}, err
	}
	defer resp.Body.Close()

	var env struct {
		Data struct {
			Tags string `json:"tags"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return VMConfig{}, plberr.Wrap(plberr.ApiUnreachable, err, "failed to decode vm config")
	}
	return VMConfig{Tags: env.Data.Tags}, nil
}

// Migrate issues an online migration request.
func (c *HTTPClient) Migrate(fromNode string, vmid int, toNode string) error {
	path := fmt.Sprintf("/api2/json/nodes/%s/qemu/%d/migrate", url.PathEscape(fromNode), vmid)
	form := url.Values{}
	form.Set("target", toNode)
	form.Set("online", "1")

	resp, err := c.doRequest(http.MethodPost, path, form)
	if err != nil {
		return plberr.Wrap(plberr.MigrationRejected, err, "migration request failed")
	}
	defer resp.Body.Close()
	return nil
}

// Ping tests connectivity to the Proxmox API.
func (c *HTTPClient) Ping() error {
	resp, err := c.doRequest(http.MethodGet, "/api2/json/version", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
