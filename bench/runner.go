package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Run is one pass of a repeated benchmark.
type Run struct {
	Index   int
	Results []Result
}

// RunMultiple executes the benchmark cfg.Runs times, checks steady-state per
// scenario and returns the median run (by p50) of every scenario. cooldown is
// the pause between runs (not after last).
func (h *Harness) RunMultiple(ctx context.Context, cfg Config, cooldown time.Duration) ([]Result, []Run, error) {
	runs := max(cfg.Runs, 1)
	if runs == 1 {
		results, err := h.Run(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return results, []Run{{Index: 0, Results: results}}, nil
	}

	h.log.WithField("runs", runs).Info("repeated benchmark: median of runs, steady-state verified")

	all := make([]Run, 0, runs)
	for i := 0; i < runs; i++ {
		log := h.log.WithField("run", fmt.Sprintf("%d/%d", i+1, runs))
		log.Info("starting run")

		results, err := h.Run(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("run %d: %w", i+1, err)
		}
		all = append(all, Run{Index: i, Results: results})

		for _, r := range results {
			log.WithFields(logrus.Fields{
				"scenario":    r.Scenario,
				"ops_per_sec": fmt.Sprintf("%.1f", r.ThroughputOps),
				"p50":         FmtMs(r.P50Ms),
				"p95":         FmtMs(r.P95Ms),
			}).Info("run result")
		}

		if i < runs-1 && cooldown > 0 {
			log.WithField("cooldown", cooldown).Debug("cooling down")
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(cooldown):
			}
		}
	}

	byScenario := make(map[string][]Result)
	var order []string
	for _, run := range all {
		for _, r := range run.Results {
			if _, ok := byScenario[r.Scenario]; !ok {
				order = append(order, r.Scenario)
			}
			byScenario[r.Scenario] = append(byScenario[r.Scenario], r)
		}
	}

	medians := make([]Result, 0, len(order))
	for _, name := range order {
		rs := byScenario[name]
		steady, maxDev := SteadyState(rs, 0.05)
		entry := h.log.WithFields(logrus.Fields{
			"scenario":      name,
			"max_deviation": fmt.Sprintf("%.1f%%", maxDev*100),
		})
		if steady {
			entry.Info("steady-state check passed (within ±5%)")
		} else {
			entry.Warn("steady-state check failed, results still reported as median")
		}
		medians = append(medians, MedianResult(rs))
	}
	return medians, all, nil
}
