package oniongen

import (
	"crypto/x509"
	"encoding/pem"
	"time"
)

// pemBlockType is the PEM type of a PKCS#1 private key.
const pemBlockType = "RSA PRIVATE KEY"

// MatchRecord is a key whose address matched the dictionary.
type MatchRecord struct {
	Address string
	Key     *KeyMaterial
	FoundAt time.Time
	Worker  int // id of the worker that found it
}

// Hostname returns the address with the ".onion" suffix.
func (r MatchRecord) Hostname() string {
	return r.Address + ".onion"
}

// EncodePEM returns the private key as a PKCS#1 PEM block.
func (r MatchRecord) EncodePEM() []byte {
	der := x509.MarshalPKCS1PrivateKey(r.Key.PrivateKey())
	return pem.EncodeToMemory(&pem.Block{Type: pemBlockType, Bytes: der})
}
