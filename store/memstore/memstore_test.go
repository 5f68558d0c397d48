package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbperf/gen"
	"dbperf/store"
)

func TestInsertCountAndMaxID(t *testing.T) {
	ctx := context.Background()
	s := New(store.Postgres)
	assert.Equal(t, store.Postgres, s.Dialect())

	maxID, err := s.MaxPrimaryKey(ctx)
	require.NoError(t, err)
	assert.Zero(t, maxID)

	sess, err := s.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.BulkInsert(ctx, gen.NewSeeded(gen.Uniform, 4, 1).NextBatch(5)))
	require.NoError(t, sess.BulkInsert(ctx, gen.NewSeeded(gen.Uniform, 4, 2).NextBatch(3)))
	assert.Equal(t, 1, s.OpenSessions())
	sess.Release()
	sess.Release()
	assert.Equal(t, 0, s.OpenSessions())

	count, err := s.CurrentRowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), count)
	assert.Equal(t, []int{5, 3}, s.Batches())
}

func TestHooksFailOperations(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	s := New("")
	assert.Equal(t, store.SQLite, s.Dialect())
	s.InsertHook = func([]gen.Row) error { return boom }
	s.ExecHook = func(string, []any) error { return boom }

	sess, err := s.Acquire(ctx)
	require.NoError(t, err)
	defer sess.Release()

	assert.ErrorIs(t, sess.BulkInsert(ctx, []gen.Row{{}}), boom)
	assert.ErrorIs(t, sess.ExecuteScenario(ctx, "SELECT 1"), boom)
	assert.Empty(t, s.Batches())
	assert.Zero(t, s.Executions("SELECT 1"))
}

func TestIndexesAndAnalyze(t *testing.T) {
	ctx := context.Background()
	s := New(store.MySQL)
	require.NoError(t, store.ConfigureIndexes(ctx, s, store.IndexesOn))
	assert.True(t, s.HasIndex("idx_status"))
	require.NoError(t, store.ConfigureIndexes(ctx, s, store.IndexesOff))
	assert.False(t, s.HasIndex("idx_status"))

	require.NoError(t, s.RefreshStatistics(ctx))
	assert.Equal(t, 1, s.Analyzed())
}

func TestClosedStore(t *testing.T) {
	s := New(store.SQLite)
	require.NoError(t, s.Close())
	_, err := s.CurrentRowCount(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
