package store

import (
	"fmt"
	"strings"
	"time"

	"dbperf/gen"
)

// sqliteTime is how created_at is stored in SQLite so that it compares
// correctly against datetime('now', ...).
const sqliteTime = "2006-01-02 15:04:05"

type dialectSQL struct {
	createTable string
	indexExists string
	createIndex string // name, table, columns
	dropIndex   string // name, table
	analyze     string
	maxBindVars int
	numbered    bool
}

var dialects = map[Dialect]dialectSQL{
	MySQL: {
		createTable: `CREATE TABLE IF NOT EXISTS events (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			amount DECIMAL(10,2) NOT NULL,
			status SMALLINT NOT NULL,
			category INT NOT NULL,
			payload TEXT NOT NULL
		)`,
		indexExists: "SELECT COUNT(1) FROM information_schema.statistics WHERE table_schema = DATABASE() AND table_name = 'events' AND index_name = ?",
		createIndex: "ALTER TABLE %[2]s ADD INDEX %[1]s (%[3]s)",
		dropIndex:   "DROP INDEX %[1]s ON %[2]s",
		analyze:     "ANALYZE TABLE events",
		maxBindVars: 65535,
	},
	Postgres: {
		createTable: `CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			amount NUMERIC(10,2) NOT NULL,
			status SMALLINT NOT NULL,
			category INTEGER NOT NULL,
			payload TEXT NOT NULL
		)`,
		indexExists: "SELECT COUNT(1) FROM pg_indexes WHERE tablename = 'events' AND indexname = $1",
		createIndex: "CREATE INDEX IF NOT EXISTS %[1]s ON %[2]s (%[3]s)",
		dropIndex:   "DROP INDEX IF EXISTS %[1]s",
		analyze:     "ANALYZE events",
		maxBindVars: 65535,
		numbered:    true,
	},
	SQLite: {
		createTable: `CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			amount REAL NOT NULL,
			status INTEGER NOT NULL,
			category INTEGER NOT NULL,
			payload TEXT NOT NULL
		)`,
		indexExists: "SELECT COUNT(1) FROM sqlite_master WHERE type = 'index' AND tbl_name = 'events' AND name = ?",
		createIndex: "CREATE INDEX IF NOT EXISTS %[1]s ON %[2]s (%[3]s)",
		dropIndex:   "DROP INDEX IF EXISTS %[1]s",
		analyze:     "ANALYZE",
		maxBindVars: 32766,
	},
}

func lookup(d Dialect) dialectSQL {
	s, ok := dialects[d]
	if !ok {
		panic(fmt.Sprintf("store: no SQL for dialect %q", d))
	}
	return s
}

// CreateTableSQL returns the DDL for the events table.
func CreateTableSQL(d Dialect) string { return lookup(d).createTable }

// IndexExistsSQL returns a query yielding a count for one bound index name.
func IndexExistsSQL(d Dialect) string { return lookup(d).indexExists }

// CreateIndexSQL returns the DDL creating idx.
func CreateIndexSQL(d Dialect, idx Index) string {
	return fmt.Sprintf(lookup(d).createIndex, idx.Name, Table, strings.Join(idx.Columns, ", "))
}

// DropIndexSQL returns the DDL dropping idx.
func DropIndexSQL(d Dialect, idx Index) string {
	return fmt.Sprintf(lookup(d).dropIndex, idx.Name, Table)
}

// AnalyzeSQL refreshes planner statistics.
func AnalyzeSQL(d Dialect) string { return lookup(d).analyze }

const (
	CountSQL = "SELECT COUNT(*) FROM events"
	MaxIDSQL = "SELECT COALESCE(MAX(id), 0) FROM events"
)

// RowsPerStatement is the largest batch one multi-row INSERT can carry
// within the dialect's bind parameter limit.
func RowsPerStatement(d Dialect) int {
	return lookup(d).maxBindVars / len(Columns)
}

// InsertSQL builds a multi-row INSERT for n rows.
func InsertSQL(d Dialect, n int) string {
	numbered := lookup(d).numbered
	var b strings.Builder
	b.WriteString("INSERT INTO events (")
	b.WriteString(strings.Join(Columns, ", "))
	b.WriteString(") VALUES ")
	arg := 1
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('(')
		for j := range Columns {
			if j > 0 {
				b.WriteByte(',')
			}
			if numbered {
				fmt.Fprintf(&b, "$%d", arg)
			} else {
				b.WriteByte('?')
			}
			arg++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// InsertArgs flattens rows into bind arguments matching InsertSQL.
func InsertArgs(d Dialect, rows []gen.Row) []any {
	args := make([]any, 0, len(rows)*len(Columns))
	for _, r := range rows {
		args = append(args, r.UserID, CreatedAtValue(d, r.CreatedAt), r.Amount, r.Status, r.Category, r.Payload)
	}
	return args
}

// CreatedAtValue converts a timestamp to the form the dialect stores.
func CreatedAtValue(d Dialect, t time.Time) any {
	if d == SQLite {
		return t.UTC().Format(sqliteTime)
	}
	return t.UTC()
}
