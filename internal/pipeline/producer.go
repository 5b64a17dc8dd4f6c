package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/mahdiidarabi/oniongen/pkg/oniongen"
)

// Producer fills a PairQueue from a PrimeSupplier. It draws PoolSize primes
// at a time and enqueues every pairwise combination of the pool, so k primes
// yield k(k-1)/2 pairs.
type Producer struct {
	supplier oniongen.PrimeSupplier
	bits     int
	rounds   int
	poolSize int
	maxPairs int
	logger   *zap.Logger
}

// NewProducer creates a producer. poolSize below 2 is raised to 2; maxPairs
// 0 means no limit.
func NewProducer(supplier oniongen.PrimeSupplier, bits, rounds, poolSize, maxPairs int) *Producer {
	if poolSize < 2 {
		poolSize = 2
	}
	return &Producer{
		supplier: supplier,
		bits:     bits,
		rounds:   rounds,
		poolSize: poolSize,
		maxPairs: maxPairs,
		logger:   zap.NewNop(),
	}
}

// Run enqueues pairs until ctx ends or maxPairs pairs were enqueued, then
// closes q. Shutdown returns nil; a supplier failure is returned.
func (p *Producer) Run(ctx context.Context, q *PairQueue) error {
	defer q.Close()

	enqueued := 0
	for {
		pool, err := p.fillPool(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		for i := 0; i < len(pool); i++ {
			for j := i + 1; j < len(pool); j++ {
				pair, err := oniongen.NewPrimePair(pool[i], pool[j])
				if errors.Is(err, oniongen.ErrInvalidPrimePair) {
					continue
				}
				if err := q.Push(ctx, pair); err != nil {
					return nil
				}
				enqueued++
				if p.maxPairs > 0 && enqueued >= p.maxPairs {
					p.logger.Debug("Pair limit reached", zap.Int("pairs", enqueued))
					return nil
				}
			}
		}
	}
}

func (p *Producer) fillPool(ctx context.Context) ([]*big.Int, error) {
	p.logger.Debug("Generating primes", zap.Int("count", p.poolSize), zap.Int("bits", p.bits))
	pool := make([]*big.Int, 0, p.poolSize)
	for len(pool) < p.poolSize {
		prime, err := p.supplier.NextProbablePrime(ctx, p.bits, p.rounds)
		if err != nil {
			return nil, fmt.Errorf("prime supplier: %w", err)
		}
		pool = append(pool, prime)
	}
	p.logger.Debug("Generated primes", zap.Int("count", len(pool)))
	return pool, nil
}
