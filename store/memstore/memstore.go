// Package memstore is an in-memory store.Store. It backs the "memory" dry-run
// backend and serves as the collaborator double in tests; hooks let callers
// inject failures into inserts and scenario executions.
package memstore

import (
	"context"
	"errors"
	"sync"

	"dbperf/gen"
	"dbperf/store"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("memstore: closed")

// Store keeps rows in a slice. Primary keys are assigned sequentially from 1.
type Store struct {
	// InsertHook, when set, runs before each BulkInsert and aborts it on error.
	InsertHook func(rows []gen.Row) error
	// ExecHook, when set, runs for each ExecuteScenario call.
	ExecHook func(query string, args []any) error
	// ReadHook, when set, runs before CurrentRowCount and MaxPrimaryKey.
	ReadHook func(op string) error

	dialect store.Dialect

	mu         sync.Mutex
	rows       []gen.Row
	batches    []int
	indexes    map[string]bool
	executions map[string]int
	analyzed   int
	acquired   int
	released   int
	closed     bool
}

// New returns an empty store that reports the given dialect so scenario
// templates resolve as they would against that engine.
func New(d store.Dialect) *Store {
	if d == "" {
		d = store.SQLite
	}
	return &Store{
		dialect:    d,
		indexes:    make(map[string]bool),
		executions: make(map[string]int),
	}
}

// Seed appends n generated rows without counting them as batches.
func (s *Store) Seed(rows []gen.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
}

func (s *Store) Dialect() store.Dialect { return s.dialect }

func (s *Store) CurrentRowCount(ctx context.Context) (uint64, error) {
	if err := s.read(ctx, "count"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.rows)), nil
}

func (s *Store) MaxPrimaryKey(ctx context.Context) (uint64, error) {
	if err := s.read(ctx, "max_id"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.rows)), nil
}

func (s *Store) read(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ReadHook != nil {
		if err := s.ReadHook(op); err != nil {
			return err
		}
	}
	return s.open()
}

func (s *Store) open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Store) EnsureIndex(_ context.Context, idx store.Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[idx.Name] = true
	return nil
}

func (s *Store) DropIndex(_ context.Context, idx store.Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexes, idx.Name)
	return nil
}

func (s *Store) RefreshStatistics(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzed++
	return nil
}

func (s *Store) Acquire(ctx context.Context) (store.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.acquired++
	s.mu.Unlock()
	return &session{s: s}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Batches returns the size of every successful BulkInsert in arrival order.
func (s *Store) Batches() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.batches...)
}

// Rows returns a copy of the stored rows.
func (s *Store) Rows() []gen.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gen.Row(nil), s.rows...)
}

// HasIndex reports whether idx currently exists.
func (s *Store) HasIndex(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexes[name]
}

// Executions returns how often query ran.
func (s *Store) Executions(query string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executions[query]
}

// Analyzed returns how often RefreshStatistics ran.
func (s *Store) Analyzed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzed
}

// OpenSessions returns acquired minus released sessions.
func (s *Store) OpenSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired - s.released
}

type session struct {
	s        *Store
	released bool
}

func (c *session) BulkInsert(ctx context.Context, rows []gen.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.s.InsertHook != nil {
		if err := c.s.InsertHook(rows); err != nil {
			return err
		}
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.s.closed {
		return ErrClosed
	}
	c.s.rows = append(c.s.rows, rows...)
	c.s.batches = append(c.s.batches, len(rows))
	return nil
}

func (c *session) ExecuteScenario(ctx context.Context, query string, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.s.ExecHook != nil {
		if err := c.s.ExecHook(query, args); err != nil {
			return err
		}
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.executions[query]++
	return nil
}

func (c *session) Release() {
	if c.released {
		return
	}
	c.released = true
	c.s.mu.Lock()
	c.s.released++
	c.s.mu.Unlock()
}
