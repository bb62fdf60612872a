package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/plb/internal/plberr"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plb.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
[proxmox]
api_host = https://pve.example.com:8006
api_user = root@pam
api_pass = secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", string(cfg.Balancing.Method))
	assert.Equal(t, "used", string(cfg.Balancing.Mode))
	assert.Equal(t, 10, cfg.Balancing.Balanciness)
	assert.True(t, cfg.Service.Daemon)
	assert.Equal(t, 24, cfg.Service.ScheduleHours)
	assert.Equal(t, "CRITICAL", cfg.Service.LogVerbosity)
}

func TestLoad_MissingFileIsFatal(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.ini"))
	require.Error(t, err)

	kind, ok := plberr.As(err)
	require.True(t, ok)
	assert.Equal(t, plberr.ConfigMissing, kind)
	assert.True(t, kind.Fatal())
}

func TestLoad_MissingCredentialsIsConfigKeyError(t *testing.T) {
	path := writeConfig(t, `
[proxmox]
api_host = https://pve.example.com:8006
`)

	_, err := Load(path)
	require.Error(t, err)

	kind, ok := plberr.As(err)
	require.True(t, ok)
	assert.Equal(t, plberr.ConfigKey, kind)
}

func TestLoad_InvalidMethodIsInvalidPolicy(t *testing.T) {
	path := writeConfig(t, `
[proxmox]
api_host = https://pve.example.com:8006
api_user = root@pam
api_pass = secret

[balancing]
method = network
`)

	_, err := Load(path)
	require.Error(t, err)

	kind, ok := plberr.As(err)
	require.True(t, ok)
	assert.Equal(t, plberr.InvalidPolicy, kind)
}

func TestLoad_IgnoreListsParsed(t *testing.T) {
	path := writeConfig(t, `
[proxmox]
api_host = https://pve.example.com:8006
api_user = root@pam
api_pass = secret

[balancing]
ignore_nodes = node-a, node-b
ignore_vms = test*, exact-name
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"node-a", "node-b"}, cfg.Balancing.IgnoreNodes)
	assert.Equal(t, []string{"test*", "exact-name"}, cfg.Balancing.IgnoreVMs)
}
