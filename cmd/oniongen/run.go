package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mahdiidarabi/oniongen/internal/config"
	"github.com/mahdiidarabi/oniongen/internal/logging"
	"github.com/mahdiidarabi/oniongen/internal/metrics"
	"github.com/mahdiidarabi/oniongen/internal/pipeline"
	"github.com/mahdiidarabi/oniongen/internal/store"
	"github.com/mahdiidarabi/oniongen/pkg/oniongen"
)

// loadConfig reads the config file and applies the flags that were set.
// Positional arguments are extra word lists.
func loadConfig(cmd *cobra.Command, opts *options, args []string) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if f.Changed("full") {
		cfg.Full = opts.full
	}
	if f.Changed("word-lists") {
		cfg.WordLists = opts.wordLists
	}
	cfg.WordLists = append(cfg.WordLists, args...)
	if f.Changed("count") {
		cfg.PoolSize = opts.count
	}
	if f.Changed("bits") {
		cfg.Bits = opts.bits
	}
	if f.Changed("rounds") {
		cfg.Rounds = opts.rounds
	}
	if f.Changed("out") {
		cfg.Out = opts.out
	}
	if f.Changed("db") {
		cfg.Database = opts.database
	}
	if f.Changed("report-interval") {
		cfg.ReportInterval = opts.reportInterval
	}
	if f.Changed("metrics-file") {
		cfg.MetricsFile = opts.metricsFile
	}
	if f.Changed("max-pairs") {
		cfg.MaxPairs = opts.maxPairs
	}
	if f.Changed("drain") {
		cfg.Drain = opts.drain
	}
	if f.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runSearch(cmd *cobra.Command, opts *options, args []string) error {
	cfg, err := loadConfig(cmd, opts, args)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Verbose: cfg.Verbose, JSON: opts.jsonLogs})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	dict, err := oniongen.Load(cfg.WordLists...)
	if err != nil {
		return err
	}
	logger.Info("Dictionary loaded",
		zap.Strings("word_lists", cfg.WordLists),
		zap.Int("words", dict.Len()))
	if dict.Len() == 0 {
		logger.Warn("Dictionary is empty; no address can match")
	}

	sink, closeSink, err := openSinks(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	p := pipeline.New(cfg.Pipeline(), oniongen.NewMatcher(dict, cfg.Policy()), oniongen.NewRandPrimeSupplier(), sink).
		WithLogger(logger.Named("pipeline")).
		WithMetrics(m).
		WithOnMatch(printMatch(cmd.OutOrStdout()))

	reporter := metrics.NewReporter(p.Counter(), cfg.ReportInterval).
		WithLogger(logger.Named("report")).
		WithMetrics(m, cfg.MetricsFile)

	reportCtx, stopReport := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		reporter.Run(reportCtx)
	}()

	stats, err := p.Run(ctx)
	stopReport()
	wg.Wait()
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	logger.Info("Done",
		zap.Uint64("keys", stats.Candidates),
		zap.Uint64("pairs", stats.Pairs),
		zap.Uint64("matches", stats.Matches),
		zap.Uint64("persist_failures", stats.PersistFailures),
		zap.Duration("elapsed", stats.Elapsed))
	return nil
}

// openSinks returns the key file sink, joined with the SQLite sink when a
// database is configured.
func openSinks(cfg *config.Config, logger *zap.Logger) (store.Sink, func(), error) {
	files, err := store.NewFileSink(cfg.Out)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database == "" {
		return files, func() {}, nil
	}

	db, err := store.OpenSQLite(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Recording matches", zap.String("database", db.Path()), zap.Stringer("run_id", db.RunID()))
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	}
	return store.MultiSink{files, db}, closeDB, nil
}

// printMatch writes the address and key of every match to w.
func printMatch(w io.Writer) func(oniongen.MatchRecord) {
	var mu sync.Mutex
	return func(rec oniongen.MatchRecord) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "%s\n%s\n", rec.Hostname(), rec.EncodePEM())
	}
}
