package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mahdiidarabi/oniongen/pkg/oniongen"
)

// worker sweeps the exponents of one pair at a time.
type worker struct {
	id     int
	p      *Pipeline
	logger *zap.Logger
}

// run pops pairs until the queue is drained or shutdown is signalled.
func (w *worker) run(ctx context.Context, q *PairQueue) {
	for {
		pair, ok := q.Pop(ctx)
		if !ok {
			return
		}
		w.sweep(ctx, pair)
	}
}

// sweep tests every valid exponent of pair. Under DrainExponent the shutdown
// signal is checked before each exponent.
func (w *worker) sweep(ctx context.Context, pair oniongen.PrimePair) {
	forge, err := oniongen.NewForge(pair.P, pair.Q)
	if err != nil {
		w.logger.Warn("Skipping prime pair", zap.Error(err))
		return
	}

	checkStop := w.p.cfg.Drain == DrainExponent
	tested := 0
	defer func() {
		w.p.pairs.Add(1)
		w.p.metrics.ObservePair(tested)
	}()

	for e := oniongen.MinExponent; e <= oniongen.MaxExponent; e += 2 {
		if checkStop && ctx.Err() != nil {
			return
		}
		key, ok := forge.Key(e)
		if !ok {
			continue
		}
		addr := key.Address()
		tested++
		w.p.counter.Add(1)
		if !w.p.matcher.Matches(addr) {
			continue
		}
		w.persist(ctx, oniongen.MatchRecord{
			Address: addr,
			Key:     key,
			FoundAt: w.p.now(),
			Worker:  w.id,
		})
	}
}

// persist hands rec to the sink. A failure is logged and counted; the worker
// carries on with the next exponent.
func (w *worker) persist(ctx context.Context, rec oniongen.MatchRecord) {
	w.p.matches.Add(1)
	w.p.metrics.IncMatches()

	// The match is already found; store it even if shutdown started.
	if err := w.p.sink.Write(context.WithoutCancel(ctx), rec); err != nil {
		w.p.persistFailures.Add(1)
		w.p.metrics.IncPersistFailures()
		w.logger.Error("Failed to store match",
			zap.String("address", rec.Hostname()),
			zap.Error(fmt.Errorf("persist %s: %w", rec.Address, err)))
		return
	}

	w.logger.Info("Match found", zap.String("address", rec.Hostname()), zap.Int("exponent", rec.Key.E))
	if w.p.onMatch != nil {
		w.p.onMatch(rec)
	}
}
