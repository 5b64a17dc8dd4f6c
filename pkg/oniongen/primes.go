package oniongen

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	// DefaultPrimeBits is the size of each prime; two of them make a 1024
	// bit modulus.
	DefaultPrimeBits = 512
	// DefaultPrimeRounds is the number of extra Miller-Rabin rounds a prime
	// must pass.
	DefaultPrimeRounds = 20
)

// PrimeSupplier yields independent probable primes.
type PrimeSupplier interface {
	// NextProbablePrime returns a prime of the given bit length that passes
	// rounds Miller-Rabin tests.
	NextProbablePrime(ctx context.Context, bits, rounds int) (*big.Int, error)
}

// RandPrimeSupplier draws primes from a cryptographically secure source.
type RandPrimeSupplier struct {
	Rand io.Reader // defaults to crypto/rand.Reader
}

// NewRandPrimeSupplier returns a supplier backed by crypto/rand.
func NewRandPrimeSupplier() *RandPrimeSupplier {
	return &RandPrimeSupplier{Rand: rand.Reader}
}

// NextProbablePrime implements PrimeSupplier.
func (s *RandPrimeSupplier) NextProbablePrime(ctx context.Context, bits, rounds int) (*big.Int, error) {
	r := s.Rand
	if r == nil {
		r = rand.Reader
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := rand.Prime(r, bits)
		if err != nil {
			return nil, fmt.Errorf("generate %d-bit prime: %w", bits, err)
		}
		if p.ProbablyPrime(rounds) {
			return p, nil
		}
	}
}

// PrimePair is an ordered pair of distinct primes, P < Q.
type PrimePair struct {
	P *big.Int
	Q *big.Int
}

// NewPrimePair orders a and b. Equal or missing primes are rejected.
func NewPrimePair(a, b *big.Int) (PrimePair, error) {
	if a == nil || b == nil {
		return PrimePair{}, ErrInvalidPrimePair
	}
	switch a.Cmp(b) {
	case -1:
		return PrimePair{P: a, Q: b}, nil
	case 1:
		return PrimePair{P: b, Q: a}, nil
	default:
		return PrimePair{}, ErrInvalidPrimePair
	}
}
