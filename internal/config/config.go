// Package config loads the INI configuration file spec.md §6 describes,
// using viper the way cblomart/GoProxLB (this spec's closest Go-native
// analogue) depends on it for configuration.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/plb/internal/cluster"
	"github.com/yourusername/plb/internal/plberr"
)

// Proxmox holds the [proxmox] section.
type Proxmox struct {
	APIHost   string
	APIUser   string
	APIPass   string
	VerifySSL bool
}

// Balancing holds the [balancing] section.
type Balancing struct {
	Method      cluster.Dimension
	Mode        cluster.Mode
	Balanciness int
	IgnoreNodes []string
	IgnoreVMs   []string
}

// Service holds the [service] section.
type Service struct {
	Daemon        bool
	ScheduleHours int
	LogVerbosity  string
}

// Config is the fully parsed, validated configuration surface of spec.md
// §6.
type Config struct {
	Proxmox   Proxmox
	Balancing Balancing
	Service   Service
}

// Policy projects the [balancing] section into the cluster.Policy the
// placement engine consumes.
func (c *Config) Policy() cluster.Policy {
	return cluster.Policy{
		Method:      c.Balancing.Method,
		Mode:        c.Balancing.Mode,
		Balanciness: c.Balancing.Balanciness,
	}
}

// Load reads and validates the config file at path. Missing file, parse
// failure, and missing/invalid keys map onto the ConfigMissing /
// ConfigParse / ConfigKey kinds of spec.md §7.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")

	v.SetDefault("balancing.method", "memory")
	v.SetDefault("balancing.mode", "used")
	v.SetDefault("balancing.balanciness", 10)
	v.SetDefault("balancing.ignore_nodes", "")
	v.SetDefault("balancing.ignore_vms", "")
	v.SetDefault("service.daemon", true)
	v.SetDefault("service.schedule", 24)
	v.SetDefault("service.log_verbosity", "CRITICAL")
	v.SetDefault("proxmox.verify_ssl", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || errors.Is(err, os.ErrNotExist) {
			return nil, plberr.Wrap(plberr.ConfigMissing, err, "config file not found: "+path)
		}
		return nil, plberr.Wrap(plberr.ConfigParse, err, "failed to parse config file: "+path)
	}

	cfg := &Config{
		Proxmox: Proxmox{
			APIHost:   v.GetString("proxmox.api_host"),
			APIUser:   v.GetString("proxmox.api_user"),
			APIPass:   v.GetString("proxmox.api_pass"),
			VerifySSL: v.GetBool("proxmox.verify_ssl"),
		},
		Balancing: Balancing{
			Method:      cluster.Dimension(strings.ToLower(v.GetString("balancing.method"))),
			Mode:        cluster.Mode(strings.ToLower(v.GetString("balancing.mode"))),
			Balanciness: v.GetInt("balancing.balanciness"),
			IgnoreNodes: splitCSV(v.GetString("balancing.ignore_nodes")),
			IgnoreVMs:   splitCSV(v.GetString("balancing.ignore_vms")),
		},
		Service: Service{
			Daemon:        v.GetBool("service.daemon"),
			ScheduleHours: v.GetInt("service.schedule"),
			LogVerbosity:  strings.ToUpper(v.GetString("service.log_verbosity")),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) validate() error {
	if c.Proxmox.APIHost == "" {
		return plberr.New(plberr.ConfigKey, "proxmox.api_host is required")
	}
	if c.Proxmox.APIUser == "" || c.Proxmox.APIPass == "" {
		return plberr.New(plberr.ConfigKey, "proxmox.api_user and proxmox.api_pass are required")
	}

	switch c.Balancing.Method {
	case cluster.DimensionCPU, cluster.DimensionMemory, cluster.DimensionDisk:
	default:
		return plberr.New(plberr.InvalidPolicy, "balancing.method must be one of cpu, memory, disk")
	}

	switch c.Balancing.Mode {
	case cluster.ModeUsed, cluster.ModeAssigned:
	default:
		return plberr.New(plberr.InvalidPolicy, "balancing.mode must be one of used, assigned")
	}

	if c.Balancing.Balanciness < 0 {
		return plberr.New(plberr.ConfigKey, "balancing.balanciness must be non-negative")
	}

	return nil
}
