// Package lite opens SQLite databases with either the pure Go driver
// (modernc.org/sqlite, registered as "sqlite") or the cgo driver
// (github.com/mattn/go-sqlite3, registered as "sqlite3").
package lite

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"dbperf/store"
	"dbperf/store/sqlstore"
)

// Driver names as registered with database/sql.
const (
	DriverModernc = "sqlite"
	DriverMattn   = "sqlite3"
)

// Pragma is the subset of SQLite settings that matter for concurrent loading.
//
// https://www.sqlite.org/pragma.html
type Pragma struct {
	BusyTimeout int
	JournalMode string
	Synchronous string
	CacheSize   int
	TempStore   string
}

// DefaultPragma lets several writers share one file without SQLITE_BUSY.
var DefaultPragma = Pragma{
	BusyTimeout: 10000,
	JournalMode: "WAL",
	Synchronous: "NORMAL",
}

func (p Pragma) encode(driver string) string {
	switch driver {
	case DriverMattn:
		return p.encodeMattn()
	default:
		return p.encodeModernc()
	}
}

func (p Pragma) encodeMattn() string {
	val := url.Values{}

	if v := p.BusyTimeout; v != 0 {
		val.Set("_busy_timeout", fmt.Sprintf("%d", v))
	}
	if v := p.JournalMode; v != "" {
		val.Set("_journal_mode", v)
	}
	if v := p.Synchronous; v != "" {
		val.Set("_synchronous", v)
	}
	if v := p.CacheSize; v != 0 {
		val.Set("_cache_size", fmt.Sprintf("%d", v))
	}
	if v := p.TempStore; v != "" {
		val.Set("_temp_store", v)
	}

	result, _ := url.QueryUnescape(val.Encode())
	return result
}

func (p Pragma) encodeModernc() string {
	val := url.Values{}

	if v := p.BusyTimeout; v != 0 {
		val.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", v))
	}
	if v := p.JournalMode; v != "" {
		val.Add("_pragma", fmt.Sprintf("journal_mode(%s)", v))
	}
	if v := p.Synchronous; v != "" {
		val.Add("_pragma", fmt.Sprintf("synchronous(%s)", v))
	}
	if v := p.CacheSize; v != 0 {
		val.Add("_pragma", fmt.Sprintf("cache_size(%d)", v))
	}
	if v := p.TempStore; v != "" {
		val.Add("_pragma", fmt.Sprintf("temp_store(%s)", v))
	}

	result, _ := url.QueryUnescape(val.Encode())
	return result
}

// Path strips the sqlite:// scheme from a URL.
func Path(rawURL string) string {
	for _, prefix := range []string{"sqlite://", "sqlite3://", "file:"} {
		if strings.HasPrefix(rawURL, prefix) {
			return strings.TrimPrefix(rawURL, prefix)
		}
	}
	return rawURL
}

// DSN builds the driver-specific connection string for a file.
func DSN(driver, file string, pragma Pragma) string {
	if q := pragma.encode(driver); q != "" {
		return fmt.Sprintf("%s?%s", file, q)
	}
	return file
}

func Connect(ctx context.Context, driver, rawURL string, pragma Pragma, maxConns int) (*sqlx.DB, error) {
	if driver == "" {
		driver = DriverModernc
	}
	if driver != DriverModernc && driver != DriverMattn {
		return nil, fmt.Errorf("unknown sqlite driver %q", driver)
	}
	db, err := sqlx.ConnectContext(ctx, driver, DSN(driver, Path(rawURL), pragma))
	if err != nil {
		return nil, err
	}
	if maxConns < 1 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	return db, nil
}

// Open connects and prepares the events table.
func Open(ctx context.Context, driver, rawURL string, maxConns int) (*sqlstore.Store, error) {
	db, err := Connect(ctx, driver, rawURL, DefaultPragma, maxConns)
	if err != nil {
		return nil, err
	}
	s, err := sqlstore.New(ctx, db, store.SQLite)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
