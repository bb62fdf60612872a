// Command plb rebalances VMs across a Proxmox VE cluster according to a
// policy read from an INI config file: snapshot the cluster, compute a
// migration plan, and either print it (--dry-run) or execute it, once or
// on a repeating schedule.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yourusername/plb/internal/audit"
	"github.com/yourusername/plb/internal/cluster"
	"github.com/yourusername/plb/internal/config"
	"github.com/yourusername/plb/internal/logging"
	"github.com/yourusername/plb/internal/output"
	"github.com/yourusername/plb/internal/placement"
	"github.com/yourusername/plb/internal/plberr"
	"github.com/yourusername/plb/internal/proxmox"
	"github.com/yourusername/plb/internal/ui"
)

var (
	configPath string
	dryRun     bool
	jsonOut    bool
	uiMode     bool
)

var appVersion = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:     "plb",
		Short:   "Rebalance VMs across a Proxmox VE cluster",
		Version: appVersion,
		RunE:    run,
	}

	root.Flags().StringVar(&configPath, "config", "", "path to the INI config file (required)")
	root.Flags().BoolVar(&dryRun, "dry-run", false, "compute and print the plan without executing migrations")
	root.Flags().BoolVar(&jsonOut, "json", false, "print the plan as JSON instead of a table")
	root.Flags().BoolVar(&uiMode, "ui", false, "open a read-only viewer over the computed plan")
	root.MarkFlagRequired("config")

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error onto spec.md §7's exit codes: 2 for fatal
// pre-condition failures (config, startup, auth), 1 for anything else.
// cobra's own argument-validation errors (e.g. a missing --config) never
// carry a plberr.Kind, but spec.md §6 lists "missing config" among the
// fatal pre-conditions, so usage errors are mapped to exit 2 as well.
func exitCodeFor(err error) int {
	if kind, ok := plberr.As(err); ok && kind.Fatal() {
		return 2
	}
	if isUsageError(err) {
		return 2
	}
	return 1
}

func isUsageError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "required flag") ||
		strings.Contains(msg, "unknown flag") ||
		strings.Contains(msg, "unknown command") ||
		strings.Contains(msg, "unknown shorthand flag")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logging.Init(logging.Verbosity(cfg.Service.LogVerbosity))

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	if err := client.Ping(); err != nil {
		return err
	}

	ledger, err := audit.Open()
	if err != nil {
		log.Warn().Err(err).Msg("audit ledger unavailable, migrations will not be recorded")
	}

	ctx := cmd.Context()

	if !cfg.Service.Daemon {
		return runOnce(ctx, client, cfg, ledger)
	}

	return runDaemon(ctx, client, cfg, ledger)
}

func newClient(cfg *config.Config) (proxmox.Client, error) {
	if proxmox.IsProxmoxHost() {
		log.Info().Msg("running on a Proxmox host, using local pvesh commands")
		return proxmox.NewShellClient(), nil
	}

	log.Info().Str("api_host", cfg.Proxmox.APIHost).Msg("using Proxmox API client")
	c := proxmox.NewHTTPClient(cfg.Proxmox.APIHost, cfg.Proxmox.APIUser, cfg.Proxmox.APIPass, cfg.Proxmox.VerifySSL)
	if err := c.Authenticate(); err != nil {
		return nil, err
	}
	return c, nil
}

// runDaemon runs one planning cycle, then sleeps for the configured
// schedule, honouring ctx cancellation between cycles (spec.md §5).
func runDaemon(ctx context.Context, client proxmox.Client, cfg *config.Config, ledger *audit.Ledger) error {
	interval := time.Duration(cfg.Service.ScheduleHours) * time.Hour

	for {
		if err := runOnce(ctx, client, cfg, ledger); err != nil {
			if kind, ok := plberr.As(err); ok && kind.Fatal() {
				return err
			}
			logWithKind(log.Error(), err).Msg("rebalance cycle failed, will retry next schedule")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// logWithKind attaches the plberr.Kind of err (if any) as structured
// fields before the caller sets the message, so CRITICAL-disposition
// errors are distinguishable from ordinary ones in log output (spec.md
// §7's error table).
func logWithKind(ev *zerolog.Event, err error) *zerolog.Event {
	if kind, ok := plberr.As(err); ok {
		ev = ev.Fields(logging.KindFields(string(kind)))
	}
	return ev.Err(err)
}

// runOnce executes a single snapshot→plan→(print|execute) cycle,
// checking ctx between snapshot fetch, planning, and each migration
// request (spec.md §5); a cancellation mid-cycle leaves a partially
// executed plan, which the next cycle re-plans from fresh state.
func runOnce(ctx context.Context, client proxmox.Client, cfg *config.Config, ledger *audit.Ledger) error {
	builder := cluster.NewBuilder(client, cfg.Balancing.IgnoreNodes, cfg.Balancing.IgnoreVMs)
	state, err := builder.Build()
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := cluster.ValidateReferences(state); err != nil {
		return err
	}

	policy := cfg.Policy()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	plan := placement.Plan(state, policy, rng)

	if ctx.Err() != nil {
		return nil
	}

	if uiMode {
		return ui.Run(state, policy, plan)
	}

	if jsonOut {
		doc, err := output.RenderPlanJSON(plan, state, policy)
		if err != nil {
			return err
		}
		fmt.Println(string(doc))
	} else {
		fmt.Print(output.RenderPlanTable(plan))
	}

	if dryRun {
		return nil
	}

	for _, entry := range plan {
		if ctx.Err() != nil {
			log.Warn().Msg("cycle interrupted before all migrations were issued, remaining moves deferred to next cycle")
			break
		}

		execErr := client.Migrate(entry.FromNode, entry.VMID, entry.ToNode)
		status := "success"
		errMsg := ""
		if execErr != nil {
			status = "failed"
			errMsg = execErr.Error()
			logWithKind(log.Error(), execErr).Str("vm", entry.VMName).Str("to", entry.ToNode).Msg("migration failed")
		}
		if ledger != nil {
			ledger.Record(audit.Entry{
				VMID: entry.VMID, VMName: entry.VMName,
				FromNode: entry.FromNode, ToNode: entry.ToNode,
				Status: status, Error: errMsg, ExecutedAt: time.Now(),
			})
		}
	}

	return nil
}
