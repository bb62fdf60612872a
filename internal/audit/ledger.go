// Package audit records the outcome of every migration the daemon
// actually executes, in a local SQLite database sitting next to the
// binary. It is write-only: nothing in this codebase reads the ledger
// back into a planning cycle. Its only consumer is an operator running
// sqlite3 against the file after the fact.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Entry is one executed (or attempted) migration.
type Entry struct {
	VMID       int
	VMName     string
	FromNode   string
	ToNode     string
	Status     string // "success" or "failed"
	Error      string
	ExecutedAt time.Time
}

// Ledger is a singleton SQLite-backed audit log of migration
// executions.
type Ledger struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

var (
	ledgerInstance *Ledger
	ledgerOnce     sync.Once
	ledgerErr      error
)

// Open returns the singleton ledger instance, creating the database
// file next to the running executable on first use.
func Open() (*Ledger, error) {
	ledgerOnce.Do(func() {
		exePath, err := os.Executable()
		if err != nil {
			exePath = "."
		}
		exeDir := filepath.Dir(exePath)
		if filepath.Base(exeDir) == "exe" || filepath.Base(exePath) == "main" {
			exeDir = "."
		}

		dbPath := filepath.Join(exeDir, "plb_audit.db")
		ledgerInstance, ledgerErr = newLedger(dbPath)
	})
	return ledgerInstance, ledgerErr
}

func newLedger(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	l := &Ledger{db: db, path: dbPath}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("audit ledger initialized")
	return l, nil
}

func (l *Ledger) initSchema() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			vmid INTEGER NOT NULL,
			vm_name TEXT NOT NULL,
			from_node TEXT NOT NULL,
			to_node TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			executed_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	_, err = l.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_migrations_executed_at
		ON migrations(executed_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Record writes one migration outcome to the ledger. A write failure is
// logged but never surfaced to the caller — losing an audit row must
// never abort an in-progress rebalance.
func (l *Ledger) Record(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.Exec(`
		INSERT INTO migrations (vmid, vm_name, from_node, to_node, status, error, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.VMID, e.VMName, e.FromNode, e.ToNode, e.Status, e.Error, e.ExecutedAt.Unix())
	if err != nil {
		log.Error().Err(err).Int("vmid", e.VMID).Msg("failed to record audit entry")
	}
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}
