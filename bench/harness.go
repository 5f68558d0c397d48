package bench

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

// progressEvery is the sample count between progress lines.
const progressEvery = 500

// Harness runs scenarios against one store.
type Harness struct {
	store   store.Store
	log     logrus.FieldLogger
	metrics *metrics.Recorder
}

// NewHarness wires a harness. rec may be nil.
func NewHarness(s store.Store, log logrus.FieldLogger, rec *metrics.Recorder) *Harness {
	return &Harness{store: s, log: log, metrics: rec}
}

// Run executes the selected scenarios once, in catalog order. The first
// failing scenario aborts the run and no results are returned.
func (h *Harness) Run(ctx context.Context, cfg Config) ([]Result, error) {
	scenarios, err := Select(cfg.Scenarios)
	if err != nil {
		return nil, err
	}
	d := h.store.Dialect()
	for _, sc := range scenarios {
		if _, err := sc.Query(d); err != nil {
			return nil, err
		}
	}

	maxID, err := h.store.MaxPrimaryKey(ctx)
	if err != nil {
		return nil, errs.Storage("bench: max primary key", err)
	}
	if maxID == 0 {
		return nil, errs.Configuration("bench", "table %s is empty, load rows before benchmarking", store.Table)
	}

	results := make([]Result, 0, len(scenarios))
	for _, sc := range scenarios {
		res, err := h.RunScenario(ctx, sc, cfg, maxID)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// RunScenario runs one scenario: every worker warms up, then records one
// latency sample per measured operation.
func (h *Harness) RunScenario(ctx context.Context, sc Scenario, cfg Config, maxID uint64) (Result, error) {
	query, err := sc.Query(h.store.Dialect())
	if err != nil {
		return Result{}, err
	}
	if sc.Binding == BindPrimaryKey && maxID == 0 {
		return Result{}, errs.Configuration("scenario "+sc.Name, "no primary keys to draw from")
	}

	workers := quota.ClampWorkers(cfg.Workers, max(cfg.WarmupOps, cfg.SampleOps))
	warm := quota.Spread(cfg.WarmupOps, workers)
	sample := quota.Spread(cfg.SampleOps, workers)

	log := h.log.WithField("scenario", sc.Name)
	log.WithFields(logrus.Fields{
		"workers": workers,
		"warmup":  cfg.WarmupOps,
		"samples": cfg.SampleOps,
		"binding": sc.Binding,
	}).Info("running scenario")

	col := NewCollector(cfg.SampleOps)
	var progress atomic.Uint64
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		w := scenarioWorker{
			id:       i,
			sc:       sc,
			query:    query,
			maxID:    maxID,
			warm:     warm[i],
			sample:   sample[i],
			seed:     cfg.Seed + uint64(i),
			store:    h.store,
			log:      log,
			metrics:  h.metrics,
			col:      col,
			progress: &progress,
			start:    start,
		}
		g.Go(func() error { return w.run(gctx) })
	}
	if err := g.Wait(); err != nil {
		h.metrics.ObserveError("bench")
		return Result{}, err
	}
	wall := time.Since(start)

	samples := col.Drain()
	if uint64(len(samples)) != cfg.SampleOps {
		return Result{}, errs.Aggregation("scenario "+sc.Name,
			"collected %d samples, expected %d", len(samples), cfg.SampleOps)
	}

	stats := ComputeStats(samples)
	res := Result{
		Scenario:      sc.Name,
		Ops:           cfg.SampleOps,
		ThroughputOps: float64(cfg.SampleOps) / max(wall.Seconds(), 0.001),
		AvgMs:         stats.Avg,
		P50Ms:         stats.P50,
		P95Ms:         stats.P95,
		P99Ms:         stats.P99,
	}
	log.WithFields(logrus.Fields{
		"ops_per_sec": fmt.Sprintf("%.1f", res.ThroughputOps),
		"p50_ms":      fmt.Sprintf("%.3f", res.P50Ms),
		"p99_ms":      fmt.Sprintf("%.3f", res.P99Ms),
	}).Info("scenario complete")
	return res, nil
}

type scenarioWorker struct {
	id     int
	sc     Scenario
	query  string
	maxID  uint64
	warm   uint64
	sample uint64
	seed   uint64

	store   store.Store
	log     logrus.FieldLogger
	metrics *metrics.Recorder

	col      *Collector
	progress *atomic.Uint64
	start    time.Time
}

func (w scenarioWorker) run(ctx context.Context) error {
	op := fmt.Sprintf("scenario %s worker %d", w.sc.Name, w.id)

	sess, err := w.store.Acquire(ctx)
	if err != nil {
		return errs.Storage(op+": acquire session", err)
	}
	defer sess.Release()

	rng := gen.NewRand(w.seed)

	for i := uint64(0); i < w.warm; i++ {
		if err := sess.ExecuteScenario(ctx, w.query, w.sc.Bind(rng, w.maxID)...); err != nil {
			return errs.Storage(op+": warmup", err)
		}
	}

	for i := uint64(0); i < w.sample; i++ {
		args := w.sc.Bind(rng, w.maxID)
		t0 := time.Now()
		if err := sess.ExecuteScenario(ctx, w.query, args...); err != nil {
			return errs.Storage(op+": execute", err)
		}
		elapsed := time.Since(t0)
		w.col.Add(float64(elapsed) / float64(time.Millisecond))
		w.metrics.ObserveOp(w.sc.Name, elapsed)

		if done := w.progress.Add(1); done%progressEvery == 0 {
			secs := max(time.Since(w.start).Seconds(), 0.001)
			w.log.WithFields(logrus.Fields{
				"done":        done,
				"ops_per_sec": fmt.Sprintf("%.2f", float64(done)/secs),
			}).Info("sampling")
		}
	}
	return nil
}
