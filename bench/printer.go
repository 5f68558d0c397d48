package bench

import (
	"fmt"
	"io"
)

// PrintResults draws the per-scenario result table.
func PrintResults(w io.Writer, label string, results []Result) {
	fmt.Fprintf(w, "\n╔══════════════════════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║  %-72s║\n", label)
	fmt.Fprintf(w, "╠══════════════╦═════════╦═══════════╦═════════╦═════════╦═════════╦═════════╣\n")
	fmt.Fprintf(w, "║ Scenario     ║     Ops ║     ops/s ║     avg ║     p50 ║     p95 ║     p99 ║\n")
	fmt.Fprintf(w, "╠══════════════╬═════════╬═══════════╬═════════╬═════════╬═════════╬═════════╣\n")
	for _, r := range results {
		fmt.Fprintf(w, "║ %-12s ║ %7d ║ %9.1f ║ %7s ║ %7s ║ %7s ║ %7s ║\n",
			r.Scenario, r.Ops, r.ThroughputOps,
			FmtMs(r.AvgMs), FmtMs(r.P50Ms), FmtMs(r.P95Ms), FmtMs(r.P99Ms))
	}
	fmt.Fprintf(w, "╚══════════════╩═════════╩═══════════╩═════════╩═════════╩═════════╩═════════╝\n")
}

// PrintRuns summarizes every pass of a repeated benchmark, marking the run
// reported as median for each scenario.
func PrintRuns(w io.Writer, runs []Run, medians []Result) {
	if len(runs) < 2 {
		return
	}
	median := make(map[string]Result, len(medians))
	for _, m := range medians {
		median[m.Scenario] = m
	}

	fmt.Fprintf(w, "\n╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║  ALL RUNS SUMMARY                                         ║\n")
	fmt.Fprintf(w, "╠═════╦══════════════╦═══════════╦══════════╦══════════════╣\n")
	fmt.Fprintf(w, "║ Run ║ Scenario     ║     ops/s ║      p50 ║          p95 ║\n")
	fmt.Fprintf(w, "╠═════╬══════════════╬═══════════╬══════════╬══════════════╣\n")
	for _, run := range runs {
		for _, r := range run.Results {
			marker := "  "
			if m, ok := median[r.Scenario]; ok && m == r {
				marker = "→ "
			}
			fmt.Fprintf(w, "║ %s%d ║ %-12s ║ %9.1f ║ %8s ║ %12s ║\n",
				marker, run.Index+1, r.Scenario, r.ThroughputOps, FmtMs(r.P50Ms), FmtMs(r.P95Ms))
		}
	}
	fmt.Fprintf(w, "╚═════╩══════════════╩═══════════╩══════════╩══════════════╝\n")
	fmt.Fprintln(w, "  → = median (reported)")
}

// FmtMs renders a millisecond latency, switching to µs below 1ms.
func FmtMs(ms float64) string {
	us := ms * 1000
	if us < 1000 {
		return fmt.Sprintf("%.0fµs", us)
	}
	return fmt.Sprintf("%.2fms", ms)
}
