// Package sqlstore implements store.Store over database/sql through sqlx.
// The MySQL and SQLite backends share it; only DSNs and dialect SQL differ.
package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"dbperf/gen"
	"dbperf/store"
)

// Store is a pooled database handle plus its dialect.
type Store struct {
	db      *sqlx.DB
	dialect store.Dialect
}

// New wraps an open handle and makes sure the events table exists.
func New(ctx context.Context, db *sqlx.DB, d store.Dialect) (*Store, error) {
	if _, err := db.ExecContext(ctx, store.CreateTableSQL(d)); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}
	return &Store{db: db, dialect: d}, nil
}

func (s *Store) Dialect() store.Dialect { return s.dialect }

func (s *Store) CurrentRowCount(ctx context.Context) (uint64, error) {
	return s.scalar(ctx, store.CountSQL)
}

func (s *Store) MaxPrimaryKey(ctx context.Context) (uint64, error) {
	return s.scalar(ctx, store.MaxIDSQL)
}

func (s *Store) scalar(ctx context.Context, query string, args ...any) (uint64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, nil
	}
	return uint64(n), nil
}

func (s *Store) indexExists(ctx context.Context, name string) (bool, error) {
	n, err := s.scalar(ctx, store.IndexExistsSQL(s.dialect), name)
	return n > 0, err
}

func (s *Store) EnsureIndex(ctx context.Context, idx store.Index) error {
	ok, err := s.indexExists(ctx, idx.Name)
	if err != nil || ok {
		return err
	}
	_, err = s.db.ExecContext(ctx, store.CreateIndexSQL(s.dialect, idx))
	return err
}

func (s *Store) DropIndex(ctx context.Context, idx store.Index) error {
	ok, err := s.indexExists(ctx, idx.Name)
	if err != nil || !ok {
		return err
	}
	_, err = s.db.ExecContext(ctx, store.DropIndexSQL(s.dialect, idx))
	return err
}

func (s *Store) RefreshStatistics(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, store.AnalyzeSQL(s.dialect))
	return err
}

func (s *Store) Acquire(ctx context.Context) (store.Session, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	return &session{conn: conn, dialect: s.dialect}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type session struct {
	conn    *sqlx.Conn
	dialect store.Dialect
}

// BulkInsert writes rows with as few multi-row INSERTs as the bind limit
// allows. Several statements share one transaction so a batch lands whole.
func (c *session) BulkInsert(ctx context.Context, rows []gen.Row) error {
	if len(rows) == 0 {
		return nil
	}
	chunk := store.RowsPerStatement(c.dialect)
	if len(rows) <= chunk {
		_, err := c.conn.ExecContext(ctx, store.InsertSQL(c.dialect, len(rows)), store.InsertArgs(c.dialect, rows)...)
		return err
	}

	tx, err := c.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		part := rows[start:end]
		if _, err := tx.ExecContext(ctx, store.InsertSQL(c.dialect, len(part)), store.InsertArgs(c.dialect, part)...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert rows %d-%d: %w", start, end, err)
		}
	}
	return tx.Commit()
}

func (c *session) ExecuteScenario(ctx context.Context, query string, args ...any) error {
	rows, err := c.conn.QueryxContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

func (c *session) Release() {
	_ = c.conn.Close()
}
