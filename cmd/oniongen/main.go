// Command oniongen searches for RSA keys whose onion address reads as words
// from a dictionary.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mahdiidarabi/oniongen/internal/config"
)

// options holds the command line flags. Flags override the config file only
// when set explicitly.
type options struct {
	configPath     string
	workers        int
	full           bool
	wordLists      []string
	count          int
	bits           int
	rounds         int
	out            string
	database       string
	reportInterval time.Duration
	metricsFile    string
	maxPairs       int
	drain          string
	verbose        bool
	jsonLogs       bool
}

func newRootCmd() *cobra.Command {
	return newCommand(&options{})
}

func newCommand(opts *options) *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "oniongen [flags] [word-list...]",
		Short: "Generate vanity onion addresses made of dictionary words",
		Long: `oniongen generates RSA keys and keeps those whose onion address
starts with (or, with --full, consists entirely of) words from the given
word lists. Each match is written as <address>.onion holding the PKCS#1
private key in PEM form.

Runs until interrupted (Ctrl-C) or until --max-pairs prime pairs are searched.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "YAML config file")
	f.IntVarP(&opts.workers, "workers", "j", defaults.Workers, "Number of workers (0 = one per CPU)")
	f.BoolVarP(&opts.full, "full", "f", defaults.Full, "Require the whole address to be dictionary words")
	f.StringSliceVarP(&opts.wordLists, "word-lists", "w", nil, "Word list files (comma separated or repeated)")
	f.IntVarP(&opts.count, "count", "c", defaults.PoolSize, "Primes per pool; every pair of a pool is searched")
	f.IntVar(&opts.bits, "bits", defaults.Bits, "Bit length of each prime")
	f.IntVar(&opts.rounds, "rounds", defaults.Rounds, "Miller-Rabin rounds per prime")
	f.StringVarP(&opts.out, "out", "o", defaults.Out, "Directory for <address>.onion key files")
	f.StringVar(&opts.database, "db", defaults.Database, "Also record matches in this SQLite database")
	f.DurationVar(&opts.reportInterval, "report-interval", defaults.ReportInterval, "Throughput report interval")
	f.StringVar(&opts.metricsFile, "metrics-file", defaults.MetricsFile, "Write Prometheus metrics to this textfile on every report")
	f.IntVar(&opts.maxPairs, "max-pairs", defaults.MaxPairs, "Stop after this many prime pairs (0 = unbounded)")
	f.StringVar(&opts.drain, "drain", defaults.Drain, "Shutdown granularity: exponent or pair")
	f.BoolVarP(&opts.verbose, "verbose", "v", defaults.Verbose, "Enable debug logging")
	f.BoolVar(&opts.jsonLogs, "json-logs", false, "Log JSON lines instead of console output")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
