package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"dbperf/config"
	"dbperf/gen"
	"dbperf/load"
	"dbperf/store"
)

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Top the events table up to a target row count",
		Long: `Counts existing rows and inserts only the deficit, so repeated runs with the
same --scale never insert extra rows. Secondary indexes are created or
dropped first according to --indexes; statistics are refreshed afterwards.`,
		RunE: runLoad,
	}

	f := cmd.Flags()
	f.Uint64("scale", 0, "Target row count (default 1000000)")
	f.Int("concurrency", 0, "Insert workers (default 4)")
	f.Int("batch-size", 0, "Rows per insert batch (default 10000)")
	f.String("distribution", "", "user_id distribution: uniform or zipf")
	f.Int("payload-size", 0, "Payload string length (default 200)")
	f.String("indexes", "", "Secondary indexes during load: on or off")
	f.Uint64("seed", 0, "Seed for reproducible rows (worker i uses seed+i)")
	return cmd
}

func loadFlags(cmd *cobra.Command) func(*config.Config) error {
	return func(cfg *config.Config) error {
		f := cmd.Flags()
		if f.Changed("scale") {
			cfg.Load.Scale, _ = f.GetUint64("scale")
		}
		if f.Changed("concurrency") {
			cfg.Load.Concurrency, _ = f.GetInt("concurrency")
		}
		if f.Changed("batch-size") {
			cfg.Load.BatchSize, _ = f.GetInt("batch-size")
		}
		if f.Changed("distribution") {
			cfg.Load.Distribution, _ = f.GetString("distribution")
		}
		if f.Changed("payload-size") {
			cfg.Load.PayloadSize, _ = f.GetInt("payload-size")
		}
		if f.Changed("indexes") {
			cfg.Load.Indexes, _ = f.GetString("indexes")
		}
		if f.Changed("seed") {
			seed, _ := f.GetUint64("seed")
			cfg.Load.Seed = &seed
		}
		return cfg.ValidateLoad()
	}
}

func runLoad(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, loadFlags(cmd))
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	dist, _ := gen.ParseDistribution(a.cfg.Load.Distribution)
	mode, _ := store.ParseIndexMode(a.cfg.Load.Indexes)

	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	sum, err := load.NewController(s, a.log, a.metrics).Run(ctx, load.Config{
		Target:       a.cfg.Load.Scale,
		Workers:      a.cfg.Load.Concurrency,
		BatchSize:    a.cfg.Load.BatchSize,
		Distribution: dist,
		PayloadSize:  a.cfg.Load.PayloadSize,
		Indexes:      mode,
		Seed:         a.cfg.Load.Seed,
	})
	if err != nil {
		a.log.WithError(err).WithField("inserted", sum.Inserted).Error("load failed")
		return err
	}
	printLoadSummary(sum)
	return nil
}

func printLoadSummary(s load.Summary) {
	w := os.Stdout
	fmt.Fprintf(w, "\n┌─────────────────────────────────────────┐\n")
	fmt.Fprintf(w, "│  %-39s│\n", "LOAD SUMMARY")
	fmt.Fprintf(w, "├─────────────────────────────────────────┤\n")
	fmt.Fprintf(w, "│  Existing:     %-24d│\n", s.Existing)
	fmt.Fprintf(w, "│  Target:       %-24d│\n", s.Target)
	if s.Skipped {
		fmt.Fprintf(w, "│  %-39s│\n", "Already at target, nothing inserted")
		fmt.Fprintf(w, "└─────────────────────────────────────────┘\n")
		return
	}
	fmt.Fprintf(w, "│  Inserted:     %-24d│\n", s.Inserted)
	fmt.Fprintf(w, "│  Batches:      %-24d│\n", s.Batches)
	fmt.Fprintf(w, "│  Workers:      %-24d│\n", s.Workers)
	fmt.Fprintf(w, "│  Elapsed:      %-24s│\n", s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "│  Rows/s:       %-24.1f│\n", s.RowsPerSec)
	fmt.Fprintf(w, "└─────────────────────────────────────────┘\n")
}
