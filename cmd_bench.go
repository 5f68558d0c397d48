package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"dbperf/bench"
	"dbperf/config"
)

var benchCooldown time.Duration

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the read scenarios and report latency percentiles",
		Long: fmt.Sprintf(`Runs each scenario with a warmup phase (discarded) followed by a measured
phase. Results are printed as a table and as JSON on stdout.

Scenarios: %v`, bench.Names()),
		RunE: runBench,
	}

	f := cmd.Flags()
	f.Uint64("warmup-ops", 0, "Warmup operations per scenario (default 1000)")
	f.Uint64("sample-ops", 0, "Measured operations per scenario (default 10000)")
	f.Int("concurrency", 0, "Benchmark workers (default 16)")
	f.Uint64("seed", 0, "Base seed for parameter draws (worker i uses seed+i)")
	f.Int("runs", 0, "Repeat the benchmark and report the median run per scenario")
	f.StringSlice("scenarios", nil, "Run only these scenarios")
	f.String("output", "", "Write the JSON report to this file")
	f.String("markdown", "", "Write a Markdown table to this file")
	f.DurationVar(&benchCooldown, "cooldown", 3*time.Second, "Pause between repeated runs")
	return cmd
}

func benchFlags(cmd *cobra.Command) func(*config.Config) error {
	return func(cfg *config.Config) error {
		f := cmd.Flags()
		if f.Changed("warmup-ops") {
			cfg.Bench.WarmupOps, _ = f.GetUint64("warmup-ops")
		}
		if f.Changed("sample-ops") {
			cfg.Bench.SampleOps, _ = f.GetUint64("sample-ops")
		}
		if f.Changed("concurrency") {
			cfg.Bench.Concurrency, _ = f.GetInt("concurrency")
		}
		if f.Changed("seed") {
			cfg.Bench.Seed, _ = f.GetUint64("seed")
		}
		if f.Changed("runs") {
			cfg.Bench.Runs, _ = f.GetInt("runs")
		}
		if f.Changed("scenarios") {
			cfg.Bench.Scenarios, _ = f.GetStringSlice("scenarios")
		}
		if f.Changed("output") {
			cfg.Bench.Output, _ = f.GetString("output")
		}
		if f.Changed("markdown") {
			cfg.Bench.Markdown, _ = f.GetString("markdown")
		}
		return cfg.ValidateBench()
	}
}

func runBench(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, benchFlags(cmd))
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	h := bench.NewHarness(s, a.log, a.metrics)
	results, runs, err := h.RunMultiple(ctx, bench.Config{
		WarmupOps: a.cfg.Bench.WarmupOps,
		SampleOps: a.cfg.Bench.SampleOps,
		Workers:   a.cfg.Bench.Concurrency,
		Seed:      a.cfg.Bench.Seed,
		Runs:      a.cfg.Bench.Runs,
		Scenarios: a.cfg.Bench.Scenarios,
	}, benchCooldown)
	if err != nil {
		a.log.WithError(err).Error("benchmark failed")
		return err
	}

	label := fmt.Sprintf("%s benchmark", a.cfg.DB.Kind)
	if len(runs) > 1 {
		label = fmt.Sprintf("%s (median of %d runs)", label, len(runs))
	}
	bench.PrintRuns(os.Stderr, runs, results)
	bench.PrintResults(os.Stderr, label, results)

	if err := bench.WriteJSON(os.Stdout, results); err != nil {
		return err
	}
	if out := a.cfg.Bench.Output; out != "" {
		if err := bench.WriteFile(out, func(w io.Writer) error { return bench.WriteJSON(w, results) }); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		a.log.WithField("path", out).Info("wrote JSON report")
	}
	if md := a.cfg.Bench.Markdown; md != "" {
		if err := bench.WriteFile(md, func(w io.Writer) error { return bench.Markdown(w, results) }); err != nil {
			return fmt.Errorf("write markdown: %w", err)
		}
		a.log.WithField("path", md).Info("wrote Markdown report")
	}
	return nil
}
