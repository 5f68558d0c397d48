package bench

// Config describes one benchmark run over the scenario catalog.
type Config struct {
	WarmupOps uint64
	SampleOps uint64
	Workers   int
	Seed      uint64
	Runs      int      // number of runs for median (0 or 1 = single run)
	Scenarios []string // subset by name, empty = whole catalog
}

// Result is one scenario's measured outcome. Latencies are milliseconds.
type Result struct {
	Scenario      string  `json:"scenario"`
	Ops           uint64  `json:"ops"`
	ThroughputOps float64 `json:"throughput_ops"`
	AvgMs         float64 `json:"avg_ms"`
	P50Ms         float64 `json:"p50_ms"`
	P95Ms         float64 `json:"p95_ms"`
	P99Ms         float64 `json:"p99_ms"`
}

// Stats summarizes a set of latency samples.
type Stats struct {
	Avg float64
	P50 float64
	P95 float64
	P99 float64
}
