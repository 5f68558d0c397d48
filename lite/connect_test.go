package lite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbperf/gen"
	"dbperf/store"
)

func TestPragmaEncode(t *testing.T) {
	p := Pragma{BusyTimeout: 5000, JournalMode: "WAL", Synchronous: "NORMAL"}

	assert.Equal(t,
		"_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		p.encode(DriverModernc))
	assert.Equal(t,
		"_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL",
		p.encode(DriverMattn))
	assert.Equal(t, "x.db", DSN(DriverModernc, "x.db", Pragma{}))
}

func TestPath(t *testing.T) {
	assert.Equal(t, "perf.db", Path("sqlite://perf.db"))
	assert.Equal(t, "/tmp/a.db", Path("sqlite:///tmp/a.db"))
	assert.Equal(t, "b.db", Path("b.db"))
}

func TestUnknownDriver(t *testing.T) {
	_, err := Connect(context.Background(), "oracle", "x.db", DefaultPragma, 1)
	assert.ErrorContains(t, err, "unknown sqlite driver")
}

func openTemp(t *testing.T) store.Store {
	t.Helper()
	s, err := Open(context.Background(), DriverModernc, filepath.Join(t.TempDir(), "perf.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	assert.Equal(t, store.SQLite, s.Dialect())

	count, err := s.CurrentRowCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	maxID, err := s.MaxPrimaryKey(ctx)
	require.NoError(t, err)
	assert.Zero(t, maxID)

	sess, err := s.Acquire(ctx)
	require.NoError(t, err)
	defer sess.Release()

	require.NoError(t, sess.BulkInsert(ctx, gen.NewSeeded(gen.Zipf, 12, 5).NextBatch(120)))
	count, err = s.CurrentRowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(120), count)
	maxID, err = s.MaxPrimaryKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(120), maxID)

	require.NoError(t, sess.ExecuteScenario(ctx, "SELECT id FROM events WHERE id = ?", int64(3)))
	require.NoError(t, sess.ExecuteScenario(ctx,
		"SELECT id FROM events WHERE created_at BETWEEN datetime('now', '-30 days') AND datetime('now') ORDER BY created_at DESC LIMIT 200"))
	assert.Error(t, sess.ExecuteScenario(ctx, "SELECT nope FROM events"))
}

func TestBulkInsertSpansStatements(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	sess, err := s.Acquire(ctx)
	require.NoError(t, err)
	defer sess.Release()

	n := store.RowsPerStatement(store.SQLite) + 7
	require.NoError(t, sess.BulkInsert(ctx, gen.NewSeeded(gen.Uniform, 1, 9).NextBatch(n)))

	count, err := s.CurrentRowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(n), count)
}

func TestIndexesAreIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, store.ConfigureIndexes(ctx, s, store.IndexesOn))
	require.NoError(t, store.ConfigureIndexes(ctx, s, store.IndexesOn))
	require.NoError(t, store.ConfigureIndexes(ctx, s, store.IndexesOff))
	require.NoError(t, store.ConfigureIndexes(ctx, s, store.IndexesOff))
	require.NoError(t, s.RefreshStatistics(ctx))
}
