// Package crypto defines the cryptographic primitives needed by the module.
//
// The envelopes exchanged between the actors of the supply chain are
// authenticated with a keyed-hash message authentication code, so the package
// is centered around factories of hash functions, either plain or keyed with
// a shared secret.
package crypto

import (
	"crypto/subtle"
	"encoding/hex"
	"hash"
)

// HashFactory is an interface to produce a hash digest.
type HashFactory interface {
	New() hash.Hash
}

// KeyedHashFactory is an interface to produce a hash digest authenticated
// with a secret key.
type KeyedHashFactory interface {
	// New returns a hash keyed with the secret. Only the owners of the secret
	// can produce or check the resulting digest.
	New(secret []byte) hash.Hash
}

// Hex returns the lowercase hexadecimal rendering of the digest, which is the
// portable form used inside the envelopes.
func Hex(digest []byte) string {
	return hex.EncodeToString(digest)
}

// DigestEqual returns true if both hexadecimal digests decode to the same
// bytes. The comparison runs in constant time so that an adversary cannot
// learn a valid digest byte by byte.
func DigestEqual(a, b string) bool {
	left, err := hex.DecodeString(a)
	if err != nil {
		return false
	}

	right, err := hex.DecodeString(b)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(left, right) == 1
}
