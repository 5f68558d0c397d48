// Package load tops a store up to a target row count with concurrent batched
// inserts.
package load

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"dbperf/errs"
	"dbperf/gen"
	"dbperf/metrics"
	"dbperf/quota"
	"dbperf/store"
)

// progressEvery is the row boundary at which a progress line is logged.
const progressEvery = 100_000

// Config describes one load run.
type Config struct {
	Target       uint64
	Workers      int
	BatchSize    int
	Distribution gen.Distribution
	PayloadSize  int
	Indexes      store.IndexMode
	// Seed, when set, makes worker i generate from Seed+i. Nil uses entropy.
	Seed *uint64
	// Clock overrides row timestamps. Tests only.
	Clock func() time.Time
}

// Summary is what a load run did.
type Summary struct {
	Existing   uint64        `json:"existing"`
	Target     uint64        `json:"target"`
	Inserted   uint64        `json:"inserted"`
	Batches    uint64        `json:"batches"`
	Workers    int           `json:"workers"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	RowsPerSec float64       `json:"rows_per_sec"`
	Skipped    bool          `json:"skipped"`
}

// Controller runs loads against one store.
type Controller struct {
	store   store.Store
	log     logrus.FieldLogger
	metrics *metrics.Recorder
}

// NewController wires a controller. rec may be nil.
func NewController(s store.Store, log logrus.FieldLogger, rec *metrics.Recorder) *Controller {
	return &Controller{store: s, log: log, metrics: rec}
}

// Run inserts target minus existing rows. A store already at or above the
// target is left untouched and the summary reports Skipped. On error the
// returned summary only counts what was committed before the failure; rows
// already inserted stay in the store.
func (c *Controller) Run(ctx context.Context, cfg Config) (Summary, error) {
	if cfg.BatchSize < 1 {
		return Summary{}, errs.Configuration("load", "batch size must be at least 1, got %d", cfg.BatchSize)
	}
	if cfg.PayloadSize < 0 {
		return Summary{}, errs.Configuration("load", "payload size must not be negative, got %d", cfg.PayloadSize)
	}

	existing, err := c.store.CurrentRowCount(ctx)
	if err != nil {
		return Summary{}, errs.Storage("load: count rows", err)
	}
	sum := Summary{Existing: existing, Target: cfg.Target}
	if existing >= cfg.Target {
		sum.Skipped = true
		c.log.WithFields(logrus.Fields{
			"existing": existing,
			"target":   cfg.Target,
		}).Info("table already at target scale, skipping load")
		return sum, nil
	}

	if err := store.ConfigureIndexes(ctx, c.store, cfg.Indexes); err != nil {
		return sum, errs.Storage("load: configure indexes", err)
	}

	deficit := cfg.Target - existing
	workers := quota.ClampWorkers(cfg.Workers, deficit)
	quotas, err := quota.Partition(deficit, workers)
	if err != nil {
		return sum, errs.Configuration("load", "partition %d rows: %v", deficit, err)
	}
	sum.Workers = workers

	c.log.WithFields(logrus.Fields{
		"existing":     existing,
		"target":       cfg.Target,
		"deficit":      deficit,
		"workers":      workers,
		"batch_size":   cfg.BatchSize,
		"distribution": cfg.Distribution,
		"indexes":      cfg.Indexes,
	}).Info("loading rows")

	var inserted, batches atomic.Uint64
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range quotas {
		w := worker{
			id:       i,
			quota:    q,
			cfg:      cfg,
			store:    c.store,
			log:      c.log,
			metrics:  c.metrics,
			start:    start,
			inserted: &inserted,
			batches:  &batches,
		}
		g.Go(func() error { return w.run(gctx) })
	}
	err = g.Wait()

	sum.Inserted = inserted.Load()
	sum.Batches = batches.Load()
	sum.Elapsed = time.Since(start)
	if secs := sum.Elapsed.Seconds(); secs > 0 {
		sum.RowsPerSec = float64(sum.Inserted) / secs
	}
	if err != nil {
		c.metrics.ObserveError("load")
		return sum, err
	}

	if err := c.store.RefreshStatistics(ctx); err != nil {
		return sum, errs.Storage("load: refresh statistics", err)
	}

	c.log.WithFields(logrus.Fields{
		"inserted":     sum.Inserted,
		"batches":      sum.Batches,
		"elapsed":      sum.Elapsed.Round(time.Millisecond),
		"rows_per_sec": fmt.Sprintf("%.0f", sum.RowsPerSec),
	}).Info("load complete")
	return sum, nil
}

type worker struct {
	id      int
	quota   uint64
	cfg     Config
	store   store.Store
	log     logrus.FieldLogger
	metrics *metrics.Recorder

	start    time.Time
	inserted *atomic.Uint64
	batches  *atomic.Uint64
}

func (w worker) generator() *gen.Generator {
	var opts []gen.Option
	if w.cfg.Clock != nil {
		opts = append(opts, gen.WithClock(w.cfg.Clock))
	}
	if w.cfg.Seed != nil {
		return gen.NewSeeded(w.cfg.Distribution, w.cfg.PayloadSize, *w.cfg.Seed+uint64(w.id), opts...)
	}
	return gen.New(w.cfg.Distribution, w.cfg.PayloadSize, opts...)
}

func (w worker) run(ctx context.Context) error {
	op := fmt.Sprintf("load worker %d", w.id)

	sess, err := w.store.Acquire(ctx)
	if err != nil {
		return errs.Storage(op+": acquire session", err)
	}
	defer sess.Release()

	g := w.generator()
	remaining := w.quota
	for remaining > 0 {
		n := min(uint64(w.cfg.BatchSize), remaining)
		rows := g.NextBatch(int(n))

		t0 := time.Now()
		if err := sess.BulkInsert(ctx, rows); err != nil {
			return errs.Storage(op+": bulk insert", err)
		}
		w.metrics.ObserveBatch(len(rows), time.Since(t0))

		remaining -= n
		w.batches.Add(1)
		total := w.inserted.Add(n)
		if total/progressEvery != (total-n)/progressEvery {
			elapsed := time.Since(w.start).Seconds()
			w.log.WithFields(logrus.Fields{
				"rows":         total,
				"rows_per_sec": fmt.Sprintf("%.0f", float64(total)/max(elapsed, 0.001)),
			}).Info("load progress")
		}
	}
	return nil
}
