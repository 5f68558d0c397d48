// Package metrics exposes load and benchmark progress to Prometheus. A nil
// *Recorder is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns its registry so several recorders can coexist in one process.
type Recorder struct {
	registry *prometheus.Registry

	rowsInserted prometheus.Counter
	batches      prometheus.Counter
	batchLatency prometheus.Histogram
	opLatency    *prometheus.HistogramVec
	errors       *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rowsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dbperf_load_rows_inserted_total",
			Help: "Rows inserted by the loader",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dbperf_load_batches_total",
			Help: "Bulk insert batches committed by the loader",
		}),
		batchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dbperf_load_batch_duration_seconds",
			Help:    "Bulk insert latency",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dbperf_bench_op_duration_seconds",
			Help:    "Measured scenario operation latency",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 18),
		}, []string{"scenario"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dbperf_errors_total",
			Help: "Failures by phase",
		}, []string{"phase"}),
	}
	r.registry.MustRegister(r.rowsInserted, r.batches, r.batchLatency, r.opLatency, r.errors)
	return r
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveBatch records one committed insert batch.
func (r *Recorder) ObserveBatch(rows int, d time.Duration) {
	if r == nil {
		return
	}
	r.rowsInserted.Add(float64(rows))
	r.batches.Inc()
	r.batchLatency.Observe(d.Seconds())
}

// ObserveOp records one measured benchmark operation.
func (r *Recorder) ObserveOp(scenario string, d time.Duration) {
	if r == nil {
		return
	}
	r.opLatency.WithLabelValues(scenario).Observe(d.Seconds())
}

// ObserveError counts a failed phase ("load" or "bench").
func (r *Recorder) ObserveError(phase string) {
	if r == nil {
		return
	}
	r.errors.WithLabelValues(phase).Inc()
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
