package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dbperf/config"
	"dbperf/lite"
	"dbperf/logging"
	"dbperf/metrics"
	"dbperf/my"
	"dbperf/pg"
	"dbperf/store"
	"dbperf/store/memstore"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// global flags
var (
	configPath string
	verbose    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dbperf",
		Short: "Synthetic load generator and latency benchmark for relational databases",
		Long: `dbperf fills an events table to a target row count with concurrent batched
inserts, then runs a fixed set of read scenarios under controlled concurrency
and reports throughput and latency percentiles.

Backends: mysql, postgres, sqlite, memory (dry run).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file")
	pf.String("db", "", "Database kind: mysql, postgres, sqlite, memory (default mysql)")
	pf.String("url", "", "Connection URL (default depends on --db)")
	pf.String("sqlite-driver", "", "SQLite driver: sqlite (pure Go) or sqlite3 (cgo)")
	pf.Int("max-conns", 0, "Connection pool size")
	pf.CountVarP(&verbose, "verbose", "v", "Verbose logging (-v debug, -vv trace)")
	pf.String("log-format", "", "Log format: text or json")
	pf.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")

	rootCmd.AddCommand(newLoadCmd(), newBenchCmd(), newReportCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dbperf %s (%s)\n", version, commit)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app is what every database command needs once flags are resolved.
type app struct {
	cfg     config.Config
	log     *logrus.Entry
	metrics *metrics.Recorder
}

// setup resolves configuration (defaults, env, file, then changed flags),
// builds the logger and starts the metrics endpoint if asked to.
func setup(cmd *cobra.Command, applyFlags func(*config.Config) error) (*app, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DB.Kind, _ = flags.GetString("db")
	}
	if flags.Changed("url") {
		cfg.DB.URL, _ = flags.GetString("url")
	}
	if flags.Changed("sqlite-driver") {
		cfg.DB.Driver, _ = flags.GetString("sqlite-driver")
	}
	if flags.Changed("max-conns") {
		cfg.DB.MaxConns, _ = flags.GetInt("max-conns")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr, _ = flags.GetString("metrics-addr")
	}
	if verbose > 0 {
		cfg.Log.Level = logging.LevelForVerbosity(verbose)
	}
	if applyFlags != nil {
		if err := applyFlags(&cfg); err != nil {
			return nil, err
		}
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:     cfg,
		log:     logger.WithField("run", uuid.NewString()),
		metrics: metrics.New(),
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := a.metrics.Serve(cmd.Context(), cfg.Metrics.Addr); err != nil {
				a.log.WithError(err).Error("metrics endpoint stopped")
			}
		}()
		a.log.WithField("addr", cfg.Metrics.Addr).Info("serving metrics")
	}
	return a, nil
}

// openStore connects to the configured backend and makes sure the events
// table exists.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	url := a.cfg.ResolvedURL()
	a.log.WithField("db", a.cfg.DB.Kind).Debug("connecting")

	var (
		s   store.Store
		err error
	)
	switch a.cfg.DB.Kind {
	case config.KindMySQL:
		s, err = my.Open(ctx, url, a.cfg.DB.MaxConns)
	case config.KindPostgres:
		s, err = pg.Open(ctx, url, a.cfg.DB.MaxConns)
	case config.KindSQLite:
		s, err = lite.Open(ctx, a.cfg.DB.Driver, url, a.cfg.DB.MaxConns)
	case config.KindMemory:
		s = memstore.New(store.SQLite)
	default:
		err = fmt.Errorf("unknown db kind %q", a.cfg.DB.Kind)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
