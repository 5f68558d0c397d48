// Package store is the contract between the workload engine and a concrete
// database. Backends (my, pg, lite, memstore) implement Store; the load
// controller and the benchmark harness only ever see these interfaces.
package store

import (
	"context"
	"fmt"
	"strings"

	"dbperf/gen"
)

// Dialect identifies the SQL flavour a backend speaks. Scenario templates
// and DDL are keyed by it.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect accepts the CLI spelling of a dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unknown dialect %q", s)
	}
}

// Table is the benchmark table every backend creates.
const Table = "events"

// Columns lists the insertable columns in bind order.
var Columns = []string{"user_id", "created_at", "amount", "status", "category", "payload"}

// Index is a secondary index on the events table.
type Index struct {
	Name    string
	Columns []string
}

// SecondaryIndexes are toggled together by the load's index mode.
var SecondaryIndexes = []Index{
	{Name: "idx_user_created", Columns: []string{"user_id", "created_at"}},
	{Name: "idx_status", Columns: []string{"status"}},
	{Name: "idx_created_at", Columns: []string{"created_at"}},
}

// IndexMode says whether secondary indexes exist during a load.
type IndexMode string

const (
	IndexesOn  IndexMode = "on"
	IndexesOff IndexMode = "off"
)

// ParseIndexMode accepts on/off.
func ParseIndexMode(s string) (IndexMode, error) {
	switch m := IndexMode(strings.ToLower(strings.TrimSpace(s))); m {
	case IndexesOn, IndexesOff:
		return m, nil
	default:
		return "", fmt.Errorf("unknown index mode %q (want on or off)", s)
	}
}

// Store is the storage collaborator. Implementations must be safe for
// concurrent use; sessions are not.
type Store interface {
	Dialect() Dialect
	CurrentRowCount(ctx context.Context) (uint64, error)
	// MaxPrimaryKey returns 0 for an empty table.
	MaxPrimaryKey(ctx context.Context) (uint64, error)
	// EnsureIndex and DropIndex are idempotent.
	EnsureIndex(ctx context.Context, idx Index) error
	DropIndex(ctx context.Context, idx Index) error
	RefreshStatistics(ctx context.Context) error
	// Acquire hands out a dedicated connection for one worker.
	Acquire(ctx context.Context) (Session, error)
	Close() error
}

// Session is one worker's connection.
type Session interface {
	BulkInsert(ctx context.Context, rows []gen.Row) error
	// ExecuteScenario runs a query and discards its rows.
	ExecuteScenario(ctx context.Context, query string, args ...any) error
	Release()
}

// ConfigureIndexes creates or drops every secondary index according to mode.
func ConfigureIndexes(ctx context.Context, s Store, mode IndexMode) error {
	for _, idx := range SecondaryIndexes {
		var err error
		if mode == IndexesOff {
			err = s.DropIndex(ctx, idx)
		} else {
			err = s.EnsureIndex(ctx, idx)
		}
		if err != nil {
			return fmt.Errorf("index %s: %w", idx.Name, err)
		}
	}
	return nil
}
