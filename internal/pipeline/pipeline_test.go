package pipeline

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/mahdiidarabi/oniongen/internal/metrics"
	"github.com/mahdiidarabi/oniongen/internal/store"
	"github.com/mahdiidarabi/oniongen/pkg/oniongen"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// staticSupplier hands out a fixed list of primes in a loop.
type staticSupplier struct {
	mu     sync.Mutex
	primes []int64
	next   int
	err    error
}

func (s *staticSupplier) NextProbablePrime(ctx context.Context, bits, rounds int) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.primes[s.next%len(s.primes)]
	s.next++
	return big.NewInt(p), nil
}

type failingSink struct{ calls atomic.Int64 }

func (f *failingSink) Write(context.Context, oniongen.MatchRecord) error {
	f.calls.Add(1)
	return errors.New("read-only file system")
}

func pair(t *testing.T, a, b int64) oniongen.PrimePair {
	t.Helper()
	pp, err := oniongen.NewPrimePair(big.NewInt(a), big.NewInt(b))
	require.NoError(t, err)
	return pp
}

// firstAddress returns the address of the first key a sweep of pp yields.
func firstAddress(t *testing.T, pp oniongen.PrimePair) string {
	t.Helper()
	f, err := oniongen.NewForge(pp.P, pp.Q)
	require.NoError(t, err)
	var addr string
	f.Sweep(func(k *oniongen.KeyMaterial) bool {
		addr = k.Address()
		return false
	})
	require.NotEmpty(t, addr)
	return addr
}

func sweepSize(t *testing.T, pp oniongen.PrimePair) uint64 {
	t.Helper()
	f, err := oniongen.NewForge(pp.P, pp.Q)
	require.NoError(t, err)
	return uint64(f.Sweep(func(*oniongen.KeyMaterial) bool { return true }))
}

func dictionary(t *testing.T, words ...string) *oniongen.Dictionary {
	t.Helper()
	d := oniongen.NewDictionary()
	for _, w := range words {
		_, err := d.Insert(w)
		require.NoError(t, err)
	}
	d.Seal()
	return d
}

// everything matches every address under the prefix policy.
func everything(t *testing.T) *oniongen.Matcher {
	t.Helper()
	var words []string
	for _, r := range oniongen.Alphabet {
		words = append(words, string(r))
	}
	return oniongen.NewMatcher(dictionary(t, words...), oniongen.PolicyPrefix)
}

func preloaded(t *testing.T, pairs ...oniongen.PrimePair) *PairQueue {
	t.Helper()
	q := NewPairQueue(len(pairs))
	for _, pp := range pairs {
		require.NoError(t, q.Push(context.Background(), pp))
	}
	q.Close()
	return q
}

func TestPipeline_RunQueue_PersistsMatches(t *testing.T) {
	pairs := []oniongen.PrimePair{pair(t, 997, 1009), pair(t, 53, 61), pair(t, 101, 103)}

	var words []string
	var wantCandidates uint64
	for _, pp := range pairs {
		words = append(words, firstAddress(t, pp))
		wantCandidates += sweepSize(t, pp)
	}
	matcher := oniongen.NewMatcher(dictionary(t, words...), oniongen.PolicyFull)
	sink := store.NewMemorySink()
	m := metrics.New()

	p := New(Config{Workers: 2}, matcher, nil, sink).
		WithLogger(zaptest.NewLogger(t)).
		WithMetrics(m)

	stats, err := p.RunQueue(context.Background(), preloaded(t, pairs...))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, sink.Len(), 1)
	for _, addr := range sink.Addresses() {
		assert.True(t, matcher.Matches(addr), addr)
	}
	for _, w := range words {
		_, ok := sink.Get(w)
		assert.True(t, ok, "missing match %s", w)
	}

	assert.Equal(t, uint64(3), stats.Pairs)
	assert.Equal(t, wantCandidates, stats.Candidates)
	assert.Equal(t, wantCandidates, p.Counter().Load())
	assert.Equal(t, uint64(sink.Len()), stats.Matches)
	assert.Zero(t, stats.PersistFailures)
	assert.Equal(t, float64(wantCandidates), testutil.ToFloat64(m.Candidates))
}

func TestPipeline_ShutdownWhileQueueEmpty(t *testing.T) {
	q := NewPairQueue(4) // never fed, never closed
	p := New(Config{Workers: 4}, everything(t), nil, store.NewMemorySink())

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		stats Stats
		err   error
	}
	done := make(chan result, 1)
	go func() {
		stats, err := p.RunQueue(ctx, q)
		done <- result{stats, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case r := <-done:
		assert.NoError(t, r.err)
		assert.Zero(t, r.stats.Candidates)
		assert.Zero(t, r.stats.Pairs)
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not stop after shutdown")
	}
}

func TestPipeline_PersistFailureIsNotFatal(t *testing.T) {
	pairs := []oniongen.PrimePair{pair(t, 53, 61), pair(t, 101, 103)}
	sink := &failingSink{}
	m := metrics.New()
	p := New(Config{Workers: 1}, everything(t), nil, sink).WithMetrics(m)

	stats, err := p.RunQueue(context.Background(), preloaded(t, pairs...))
	require.NoError(t, err)

	want := sweepSize(t, pairs[0]) + sweepSize(t, pairs[1])
	assert.Equal(t, uint64(2), stats.Pairs, "worker keeps going after failed writes")
	assert.Equal(t, want, stats.Candidates)
	assert.Equal(t, want, stats.Matches)
	assert.Equal(t, want, stats.PersistFailures)
	assert.Equal(t, int64(want), sink.calls.Load())
	assert.Equal(t, float64(want), testutil.ToFloat64(m.PersistFailures))
}

func TestPipeline_DrainExponent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := store.NewMemorySink()
	p := New(Config{Workers: 1, Drain: DrainExponent}, everything(t), nil, sink).
		WithOnMatch(func(oniongen.MatchRecord) { cancel() })

	stats, err := p.RunQueue(ctx, preloaded(t, pair(t, 53, 61), pair(t, 101, 103)))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), stats.Matches, "stops at the next exponent")
	assert.Equal(t, uint64(1), stats.Candidates)
	assert.Equal(t, uint64(1), stats.Pairs)
	assert.Equal(t, 1, sink.Len(), "in-flight match is stored")
}

func TestPipeline_DrainPair(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := pair(t, 53, 61)
	sink := store.NewMemorySink()
	p := New(Config{Workers: 1, Drain: DrainPair}, everything(t), nil, sink).
		WithOnMatch(func(oniongen.MatchRecord) { cancel() })

	stats, err := p.RunQueue(ctx, preloaded(t, first, pair(t, 101, 103)))
	require.NoError(t, err)

	want := sweepSize(t, first)
	assert.Equal(t, uint64(1), stats.Pairs, "no new pair after shutdown")
	assert.Equal(t, want, stats.Candidates, "pair in flight is swept to the end")
	assert.Equal(t, want, uint64(sink.Len()))
}

func TestPipeline_Run(t *testing.T) {
	supplier := &staticSupplier{primes: []int64{53, 61, 67, 71}}
	matcher := oniongen.NewMatcher(dictionary(t, "zzzzzzzzzzzzzzzz"), oniongen.PolicyFull)

	cfg := Config{Workers: 3, PoolSize: 4, MaxPairs: 6, PrimeBits: 8, PrimeRounds: 1}
	p := New(cfg, matcher, supplier, store.NewMemorySink()).WithLogger(zaptest.NewLogger(t))

	stats, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(6), stats.Pairs)
	assert.Greater(t, stats.Candidates, uint64(0))
	assert.Zero(t, stats.Matches)
	assert.Greater(t, stats.Elapsed, time.Duration(0))
	assert.Equal(t, stats.Elapsed, p.Counter().Elapsed(), "elapsed is frozen after the run")
}

func TestPipeline_RunSupplierError(t *testing.T) {
	boom := errors.New("entropy source unavailable")
	supplier := &staticSupplier{err: boom}
	p := New(Config{Workers: 2}, everything(t), supplier, store.NewMemorySink())

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestPipeline_RunWithoutSupplier(t *testing.T) {
	p := New(Config{Workers: 1}, everything(t), nil, store.NewMemorySink())
	_, err := p.Run(context.Background())
	assert.Error(t, err)
}

func TestPipeline_RunCancelled(t *testing.T) {
	supplier := &staticSupplier{primes: []int64{53, 61, 67, 71, 73, 79}}
	matcher := oniongen.NewMatcher(dictionary(t, "zzzzzzzzzzzzzzzz"), oniongen.PolicyFull)
	p := New(Config{Workers: 2, PoolSize: 6}, matcher, supplier, store.NewMemorySink())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(ctx)
		done <- err
	}()
	select {
	case err := <-done:
		assert.NoError(t, err, "shutdown is not an error")
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop")
	}
}

func TestParseDrainMode(t *testing.T) {
	d, err := ParseDrainMode("pair")
	require.NoError(t, err)
	assert.Equal(t, DrainPair, d)

	d, err = ParseDrainMode("")
	require.NoError(t, err)
	assert.Equal(t, DrainExponent, d)

	_, err = ParseDrainMode("never")
	assert.Error(t, err)
	assert.Equal(t, "exponent", DrainExponent.String())
}

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Greater(t, cfg.workers(), 0)
	assert.Equal(t, cfg.workers(), cfg.queueSize())
	assert.Equal(t, 100, cfg.PoolSize)

	cfg.Workers, cfg.QueueSize = 3, 7
	assert.Equal(t, 3, cfg.workers())
	assert.Equal(t, 7, cfg.queueSize())
}
