package load

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbperf/errs"
	"dbperf/gen"
	"dbperf/lite"
	"dbperf/logging"
	"dbperf/metrics"
	"dbperf/store"
	"dbperf/store/memstore"
)

func seed(v uint64) *uint64 { return &v }

func baseConfig() Config {
	return Config{
		Target:       1000,
		Workers:      4,
		BatchSize:    250,
		Distribution: gen.Uniform,
		PayloadSize:  16,
		Indexes:      store.IndexesOn,
		Seed:         seed(42),
	}
}

func TestLoadEndToEnd(t *testing.T) {
	ctx := context.Background()
	s := memstore.New(store.SQLite)
	c := NewController(s, logging.Discard(), metrics.New())

	sum, err := c.Run(ctx, baseConfig())
	require.NoError(t, err)

	assert.Equal(t, []int{250, 250, 250, 250}, s.Batches())
	count, err := s.CurrentRowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), count)

	assert.Equal(t, uint64(1000), sum.Inserted)
	assert.Equal(t, uint64(4), sum.Batches)
	assert.Equal(t, 4, sum.Workers)
	assert.False(t, sum.Skipped)
	assert.Equal(t, 1, s.Analyzed())
	assert.Zero(t, s.OpenSessions())
	for _, idx := range store.SecondaryIndexes {
		assert.True(t, s.HasIndex(idx.Name), idx.Name)
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := memstore.New(store.SQLite)
	c := NewController(s, logging.Discard(), nil)

	_, err := c.Run(ctx, baseConfig())
	require.NoError(t, err)

	sum, err := c.Run(ctx, baseConfig())
	require.NoError(t, err)
	assert.True(t, sum.Skipped)
	assert.Zero(t, sum.Inserted)
	assert.Len(t, s.Batches(), 4)
	assert.Len(t, s.Rows(), 1000)
}

func TestLoadTopsUpDeficit(t *testing.T) {
	ctx := context.Background()
	s := memstore.New(store.SQLite)
	s.Seed(gen.NewSeeded(gen.Uniform, 4, 1).NextBatch(997))
	c := NewController(s, logging.Discard(), nil)

	sum, err := c.Run(ctx, baseConfig())
	require.NoError(t, err)

	// 3 rows of deficit clamp 4 workers down to 3.
	assert.Equal(t, 3, sum.Workers)
	assert.Equal(t, uint64(3), sum.Inserted)
	assert.Equal(t, []int{1, 1, 1}, s.Batches())
	assert.Len(t, s.Rows(), 1000)
}

func TestLoadTruncatesFinalBatch(t *testing.T) {
	s := memstore.New(store.SQLite)
	c := NewController(s, logging.Discard(), nil)

	cfg := baseConfig()
	cfg.Target = 1100
	cfg.Workers = 2
	cfg.BatchSize = 300

	_, err := c.Run(context.Background(), cfg)
	require.NoError(t, err)

	// 550 per worker: 300 + 250 each.
	assert.ElementsMatch(t, []int{300, 300, 250, 250}, s.Batches())
}

func TestLoadIndexesOff(t *testing.T) {
	ctx := context.Background()
	s := memstore.New(store.SQLite)
	require.NoError(t, store.ConfigureIndexes(ctx, s, store.IndexesOn))

	cfg := baseConfig()
	cfg.Indexes = store.IndexesOff
	_, err := NewController(s, logging.Discard(), nil).Run(ctx, cfg)
	require.NoError(t, err)
	for _, idx := range store.SecondaryIndexes {
		assert.False(t, s.HasIndex(idx.Name), idx.Name)
	}
}

func TestLoadSeededIsReproducible(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	run := func() []gen.Row {
		s := memstore.New(store.SQLite)
		cfg := baseConfig()
		cfg.Workers = 1
		cfg.Clock = func() time.Time { return fixed }
		_, err := NewController(s, logging.Discard(), nil).Run(context.Background(), cfg)
		require.NoError(t, err)
		return s.Rows()
	}
	assert.Equal(t, run(), run())
}

func TestLoadAbortsOnFirstFailure(t *testing.T) {
	ctx := context.Background()
	s := memstore.New(store.SQLite)
	boom := errors.New("disk full")
	var calls atomic.Int32
	s.InsertHook = func(rows []gen.Row) error {
		if calls.Add(1) == 3 {
			return boom
		}
		return nil
	}

	cfg := baseConfig()
	cfg.BatchSize = 10
	_, err := NewController(s, logging.Discard(), nil).Run(ctx, cfg)
	require.Error(t, err)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, errs.KindStorage, errs.KindOf(err))
	assert.Contains(t, err.Error(), "load worker")
	assert.Zero(t, s.Analyzed(), "statistics refreshed after a failed load")
	assert.Zero(t, s.OpenSessions())
	assert.Less(t, len(s.Rows()), 1000)
}

func TestLoadCountFailure(t *testing.T) {
	s := memstore.New(store.SQLite)
	s.ReadHook = func(string) error { return errors.New("connection refused") }

	_, err := NewController(s, logging.Discard(), nil).Run(context.Background(), baseConfig())
	assert.Equal(t, errs.KindStorage, errs.KindOf(err))
	assert.Empty(t, s.Batches())
}

func TestLoadRejectsBadBatchSize(t *testing.T) {
	cfg := baseConfig()
	cfg.BatchSize = 0
	_, err := NewController(memstore.New(""), logging.Discard(), nil).Run(context.Background(), cfg)
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestLoadSQLite(t *testing.T) {
	ctx := context.Background()
	s, err := lite.Open(ctx, lite.DriverModernc, filepath.Join(t.TempDir(), "load.db"), 4)
	require.NoError(t, err)
	defer s.Close()

	cfg := baseConfig()
	cfg.Seed = nil
	cfg.Distribution = gen.Zipf
	sum, err := NewController(s, logging.Discard(), nil).Run(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), sum.Inserted)

	count, err := s.CurrentRowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), count)

	cfg.Target = 1500
	sum, err = NewController(s, logging.Discard(), nil).Run(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), sum.Existing)
	assert.Equal(t, uint64(500), sum.Inserted)
}
