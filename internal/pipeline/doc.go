// Package pipeline runs the vanity address search: a producer turns a pool of
// probable primes into prime pairs on a bounded queue, and a fixed set of
// workers sweeps public exponents over each pair, testing every derived
// address against the dictionary and handing matches to a store.Sink.
//
// Workers share only the read-only matcher, the queue, the candidate Counter
// and the run context. Cancelling the context is the shutdown signal: the
// producer stops enqueuing and each worker stops at the next exponent (or,
// with DrainPair, at the end of its current pair).
package pipeline
