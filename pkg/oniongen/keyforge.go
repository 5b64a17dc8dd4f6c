package oniongen

import (
	"crypto/rsa"
	"errors"
	"math/big"
)

const (
	// MinExponent is the first public exponent tried for a prime pair.
	MinExponent = 3
	// MaxExponent is the last public exponent tried for a prime pair.
	MaxExponent = 65537
)

// ErrInvalidPrimePair is returned by NewForge for missing, non-positive or
// equal primes.
var ErrInvalidPrimePair = errors.New("invalid prime pair")

var bigOne = big.NewInt(1)

// KeyMaterial is one RSA key derived from a prime pair and a public exponent.
// P < Q always holds and U is the CRT coefficient P^-1 mod Q. N, P, Q and U
// are shared by every key of the same Forge and must not be modified.
type KeyMaterial struct {
	N *big.Int // modulus P*Q
	E int      // public exponent
	D *big.Int // private exponent, E^-1 mod (P-1)(Q-1)
	P *big.Int
	Q *big.Int
	U *big.Int
}

// Address returns the onion address of the key's public half.
func (k *KeyMaterial) Address() string {
	return DeriveAddress(k.N, k.E)
}

// PrivateKey converts the key material to an *rsa.PrivateKey. The primes are
// stored as (Q, P) so the PKCS#1 coefficient (prime2^-1 mod prime1) equals U.
func (k *KeyMaterial) PrivateKey() *rsa.PrivateKey {
	priv := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: new(big.Int).Set(k.N), E: k.E},
		D:         new(big.Int).Set(k.D),
		Primes:    []*big.Int{new(big.Int).Set(k.Q), new(big.Int).Set(k.P)},
	}
	priv.Precomputed.Dp = new(big.Int).Mod(k.D, new(big.Int).Sub(k.Q, bigOne))
	priv.Precomputed.Dq = new(big.Int).Mod(k.D, new(big.Int).Sub(k.P, bigOne))
	priv.Precomputed.Qinv = new(big.Int).Set(k.U)
	return priv
}

// Forge derives keys for one prime pair. The values shared by every exponent
// (modulus, totient, CRT coefficient) are computed once in NewForge.
type Forge struct {
	p, q *big.Int
	n    *big.Int
	phi  *big.Int
	u    *big.Int
}

// NewForge prepares a Forge for the unordered pair (p, q).
func NewForge(p, q *big.Int) (*Forge, error) {
	if p == nil || q == nil || p.Sign() <= 0 || q.Sign() <= 0 {
		return nil, ErrInvalidPrimePair
	}
	switch p.Cmp(q) {
	case 0:
		return nil, ErrInvalidPrimePair
	case 1:
		p, q = q, p
	}

	u := new(big.Int).ModInverse(p, q)
	if u == nil {
		return nil, ErrInvalidPrimePair
	}

	pm1 := new(big.Int).Sub(p, bigOne)
	qm1 := new(big.Int).Sub(q, bigOne)
	return &Forge{
		p:   new(big.Int).Set(p),
		q:   new(big.Int).Set(q),
		n:   new(big.Int).Mul(p, q),
		phi: pm1.Mul(pm1, qm1),
		u:   u,
	}, nil
}

// Modulus returns P*Q.
func (f *Forge) Modulus() *big.Int { return new(big.Int).Set(f.n) }

// Key returns the key for public exponent e, or false when e has no inverse
// modulo (P-1)(Q-1). A false result is expected for many exponents and is not
// an error.
func (f *Forge) Key(e int) (*KeyMaterial, bool) {
	d := new(big.Int).ModInverse(big.NewInt(int64(e)), f.phi)
	if d == nil {
		return nil, false
	}
	return &KeyMaterial{
		N: f.n,
		E: e,
		D: d,
		P: f.p,
		Q: f.q,
		U: f.u,
	}, true
}

// Sweep calls fn with the key for every valid odd exponent from MinExponent
// to MaxExponent in order. It stops early when fn returns false and reports
// the number of keys passed to fn.
func (f *Forge) Sweep(fn func(*KeyMaterial) bool) int {
	n := 0
	for e := MinExponent; e <= MaxExponent; e += 2 {
		key, ok := f.Key(e)
		if !ok {
			continue
		}
		n++
		if !fn(key) {
			break
		}
	}
	return n
}
