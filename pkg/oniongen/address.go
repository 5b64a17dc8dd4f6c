package oniongen

import (
	"crypto/sha1"
	"encoding/base32"
	"math/big"
	"strings"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

const (
	// addressDigestBytes is the number of SHA-1 bytes kept for an address.
	addressDigestBytes = 10
	// AddressLength is the length of an onion address without ".onion".
	AddressLength = addressDigestBytes * 8 / 5
)

var addressEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// DeriveAddress maps the public key (n, e) to its onion address: the base32
// encoding of the first 10 bytes of SHA-1 over the DER RSAPublicKey
// SEQUENCE { INTEGER n, INTEGER e }.
func DeriveAddress(n *big.Int, e int) string {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(n)
		b.AddASN1Int64(int64(e))
	})
	der := b.BytesOrPanic()

	sum := sha1.Sum(der)
	return strings.ToLower(addressEncoding.EncodeToString(sum[:addressDigestBytes]))
}
