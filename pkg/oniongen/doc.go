// Package oniongen provides the building blocks for brute-forcing vanity
// onion addresses: a word dictionary, a word-segmentation matcher, an RSA key
// forge that sweeps public exponents over a prime pair, and the address
// derivation that maps a public key to its 16 character onion name.
//
// # Quick Start
//
//	import "github.com/mahdiidarabi/oniongen/pkg/oniongen"
//
//	dict, err := oniongen.Load("words.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	matcher := oniongen.NewMatcher(dict, oniongen.PolicyFull)
//
//	forge, err := oniongen.NewForge(p, q)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	forge.Sweep(func(key *oniongen.KeyMaterial) bool {
//	    if addr := key.Address(); matcher.Matches(addr) {
//	        fmt.Printf("%s.onion\n", addr)
//	    }
//	    return true
//	})
//
// # Matching Policies
//
// PolicyPrefix accepts an address as soon as any non-empty prefix of it is a
// dictionary word. PolicyFull only accepts addresses that split completely
// into consecutive dictionary words:
//
//	dict: {"cat", "dog"}
//	PolicyFull:   "catdog" -> true, "catdogx" -> false, "do" -> false
//	PolicyPrefix: "catastrophe" -> true
//
// # Primes
//
// Key material is derived from prime pairs supplied by a PrimeSupplier. The
// default RandPrimeSupplier draws primes from crypto/rand; callers can plug in
// their own source for testing or for precomputed prime pools.
package oniongen
