package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dbperf/gen"
	"dbperf/store"
)

// Store implements store.Store on a pgx pool. Bulk inserts use COPY.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects and prepares the events table.
func Open(ctx context.Context, url string, maxConns int) (*Store, error) {
	pool, err := Connect(ctx, url, maxConns)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, store.CreateTableSQL(store.Postgres)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Dialect() store.Dialect { return store.Postgres }

func (s *Store) CurrentRowCount(ctx context.Context) (uint64, error) {
	return s.scalar(ctx, store.CountSQL)
}

func (s *Store) MaxPrimaryKey(ctx context.Context) (uint64, error) {
	return s.scalar(ctx, store.MaxIDSQL)
}

func (s *Store) scalar(ctx context.Context, query string, args ...any) (uint64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, nil
	}
	return uint64(n), nil
}

func (s *Store) indexExists(ctx context.Context, name string) (bool, error) {
	n, err := s.scalar(ctx, store.IndexExistsSQL(store.Postgres), name)
	return n > 0, err
}

func (s *Store) EnsureIndex(ctx context.Context, idx store.Index) error {
	ok, err := s.indexExists(ctx, idx.Name)
	if err != nil || ok {
		return err
	}
	_, err = s.pool.Exec(ctx, store.CreateIndexSQL(store.Postgres, idx))
	return err
}

func (s *Store) DropIndex(ctx context.Context, idx store.Index) error {
	ok, err := s.indexExists(ctx, idx.Name)
	if err != nil || !ok {
		return err
	}
	_, err = s.pool.Exec(ctx, store.DropIndexSQL(store.Postgres, idx))
	return err
}

func (s *Store) RefreshStatistics(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, store.AnalyzeSQL(store.Postgres))
	return err
}

func (s *Store) Acquire(ctx context.Context) (store.Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &session{conn: conn}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

type session struct {
	conn *pgxpool.Conn
}

func (c *session) BulkInsert(ctx context.Context, rows []gen.Row) error {
	if len(rows) == 0 {
		return nil
	}
	n, err := c.conn.CopyFrom(ctx, pgx.Identifier{store.Table}, store.Columns, copySource(rows))
	if err != nil {
		return err
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("copy wrote %d of %d rows", n, len(rows))
	}
	return nil
}

func copySource(rows []gen.Row) pgx.CopyFromSource {
	return pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{r.UserID, r.CreatedAt, r.Amount, r.Status, r.Category, r.Payload}, nil
	})
}

func (c *session) ExecuteScenario(ctx context.Context, query string, args ...any) error {
	rows, err := c.conn.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

func (c *session) Release() {
	c.conn.Release()
}
