package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mahdiidarabi/oniongen/internal/metrics"
	"github.com/mahdiidarabi/oniongen/internal/store"
	"github.com/mahdiidarabi/oniongen/pkg/oniongen"
)

// DrainMode controls how far a worker gets after shutdown is signalled.
type DrainMode int

const (
	// DrainExponent stops at the next exponent; the trial in flight,
	// including persisting its match, always completes.
	DrainExponent DrainMode = iota
	// DrainPair finishes the sweep of the pair in flight.
	DrainPair
)

func (d DrainMode) String() string {
	switch d {
	case DrainExponent:
		return "exponent"
	case DrainPair:
		return "pair"
	default:
		return fmt.Sprintf("DrainMode(%d)", int(d))
	}
}

// ParseDrainMode converts "exponent" or "pair" to a DrainMode.
func ParseDrainMode(s string) (DrainMode, error) {
	switch s {
	case "exponent", "":
		return DrainExponent, nil
	case "pair":
		return DrainPair, nil
	default:
		return 0, fmt.Errorf("unknown drain mode %q (want exponent or pair)", s)
	}
}

// Config controls a search run.
type Config struct {
	Workers     int       // worker goroutines (0 = runtime.NumCPU())
	QueueSize   int       // pair queue capacity (0 = Workers)
	PrimeBits   int       // bit length of each prime
	PrimeRounds int       // Miller-Rabin rounds per prime
	PoolSize    int       // primes per pool, all pairs of a pool are searched
	MaxPairs    int       // stop after this many pairs (0 = unbounded)
	Drain       DrainMode // shutdown granularity
}

// DefaultConfig returns the settings of an interactive run.
func DefaultConfig() Config {
	return Config{
		Workers:     0,
		PrimeBits:   oniongen.DefaultPrimeBits,
		PrimeRounds: oniongen.DefaultPrimeRounds,
		PoolSize:    100,
		Drain:       DrainExponent,
	}
}

func (c Config) workers() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}

func (c Config) queueSize() int {
	if c.QueueSize <= 0 {
		return c.workers()
	}
	return c.QueueSize
}

// Stats summarizes a finished run.
type Stats struct {
	Candidates      uint64
	Pairs           uint64
	Matches         uint64
	PersistFailures uint64
	Elapsed         time.Duration
}

// Pipeline wires the producer, the workers and the sink of one search.
type Pipeline struct {
	cfg      Config
	matcher  *oniongen.Matcher
	supplier oniongen.PrimeSupplier
	sink     store.Sink
	logger   *zap.Logger
	metrics  *metrics.Metrics
	onMatch  func(oniongen.MatchRecord)
	now      func() time.Time

	counter         *Counter
	pairs           atomic.Uint64
	matches         atomic.Uint64
	persistFailures atomic.Uint64
}

// New creates a pipeline. supplier may be nil when only RunQueue is used.
func New(cfg Config, matcher *oniongen.Matcher, supplier oniongen.PrimeSupplier, sink store.Sink) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		matcher:  matcher,
		supplier: supplier,
		sink:     sink,
		logger:   zap.NewNop(),
		now:      time.Now,
		counter:  &Counter{},
	}
}

// WithLogger sets the logger.
func (p *Pipeline) WithLogger(logger *zap.Logger) *Pipeline {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithMetrics sets the Prometheus metrics updated by workers.
func (p *Pipeline) WithMetrics(m *metrics.Metrics) *Pipeline {
	p.metrics = m
	return p
}

// WithOnMatch sets a callback invoked after every stored match. It runs on
// the worker goroutine and must be safe for concurrent use.
func (p *Pipeline) WithOnMatch(fn func(oniongen.MatchRecord)) *Pipeline {
	p.onMatch = fn
	return p
}

// Counter returns the shared candidate counter, for progress reporting.
func (p *Pipeline) Counter() *Counter { return p.counter }

// Workers returns the effective number of workers.
func (p *Pipeline) Workers() int { return p.cfg.workers() }

// Run generates prime pairs and searches them until ctx is cancelled or the
// configured pair limit is exhausted. Cancellation is a normal shutdown and
// returns a nil error; a prime supplier failure is returned.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	if p.supplier == nil {
		return Stats{}, fmt.Errorf("pipeline: no prime supplier")
	}
	q := NewPairQueue(p.cfg.queueSize())

	producer := NewProducer(p.supplier, p.cfg.PrimeBits, p.cfg.PrimeRounds, p.cfg.PoolSize, p.cfg.MaxPairs)
	producer.logger = p.logger.Named("producer")

	return p.run(ctx, q, producer.Run)
}

// RunQueue searches the pairs of a caller-filled queue. It returns when the
// queue is closed and drained, or when ctx is cancelled.
func (p *Pipeline) RunQueue(ctx context.Context, q *PairQueue) (Stats, error) {
	return p.run(ctx, q, nil)
}

func (p *Pipeline) run(ctx context.Context, q *PairQueue, produce func(context.Context, *PairQueue) error) (Stats, error) {
	p.pairs.Store(0)
	p.matches.Store(0)
	p.persistFailures.Store(0)
	p.counter.start()

	workers := p.cfg.workers()
	p.logger.Info("Starting search",
		zap.Int("workers", workers),
		zap.Int("queue", q.Cap()),
		zap.Stringer("policy", p.matcher.Policy()),
		zap.Stringer("drain", p.cfg.Drain))

	g, gctx := errgroup.WithContext(ctx)
	if produce != nil {
		g.Go(func() error { return produce(gctx, q) })
	}
	for i := 0; i < workers; i++ {
		w := &worker{id: i, p: p, logger: p.logger.With(zap.Int("worker", i))}
		g.Go(func() error {
			w.run(gctx, q)
			return nil
		})
	}
	err := g.Wait()
	p.counter.stop()

	stats := p.stats()
	p.logger.Info("Search stopped",
		zap.Uint64("candidates", stats.Candidates),
		zap.Uint64("pairs", stats.Pairs),
		zap.Uint64("matches", stats.Matches),
		zap.Duration("elapsed", stats.Elapsed))
	return stats, err
}

func (p *Pipeline) stats() Stats {
	return Stats{
		Candidates:      p.counter.Load(),
		Pairs:           p.pairs.Load(),
		Matches:         p.matches.Load(),
		PersistFailures: p.persistFailures.Load(),
		Elapsed:         p.counter.Elapsed(),
	}
}
