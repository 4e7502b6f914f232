package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"hash"

	"golang.org/x/crypto/sha3"
)

// HashAlgorithm is the identifier of a supported hash algorithm.
type HashAlgorithm int

const (
	// Sha256 identifies the SHA-256 algorithm.
	Sha256 HashAlgorithm = iota

	// Sha3_224 identifies the SHA3-224 algorithm.
	Sha3_224
)

// hashFactory is a hash factory that is using SHA algorithms.
//
// - implements crypto.HashFactory
type hashFactory struct {
	algorithm HashAlgorithm
}

// NewHashFactory returns a new instance of the factory.
func NewHashFactory(a HashAlgorithm) HashFactory {
	return hashFactory{algorithm: a}
}

// NewSha256Factory returns a factory for the SHA-256 algorithm.
func NewSha256Factory() HashFactory {
	return hashFactory{algorithm: Sha256}
}

// New implements crypto.HashFactory. It returns a new hash instance.
func (f hashFactory) New() hash.Hash {
	switch f.algorithm {
	case Sha256:
		return sha256.New()
	case Sha3_224:
		return sha3.New224()
	default:
		panic("unknown hash algorithm")
	}
}

// hmacFactory is a factory of hashes keyed with a shared secret, using the
// standard HMAC construction.
//
// - implements crypto.KeyedHashFactory
type hmacFactory struct {
	inner func() hash.Hash
}

// NewHMACFactory returns a factory of HMAC-SHA256 hashes. The digest is 32
// bytes long, thus 64 characters once rendered in hexadecimal.
func NewHMACFactory() KeyedHashFactory {
	return hmacFactory{inner: sha256.New}
}

// New implements crypto.KeyedHashFactory. It returns a hash keyed with the
// secret.
func (f hmacFactory) New(secret []byte) hash.Hash {
	return hmac.New(f.inner, secret)
}
