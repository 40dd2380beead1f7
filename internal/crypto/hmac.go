package crypto

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"hash"
)

// HMAC is a keyed Hash. It follows the same single-finalize contract.
type HMAC[D SHA1Digest | SHA256Digest] struct {
	h         hash.Hash
	digest    D
	finalized bool
}

// NewHMACSHA1 returns an HMAC-SHA1 keyed with key.
func NewHMACSHA1(key []byte) *HMAC[SHA1Digest] {
	return &HMAC[SHA1Digest]{h: hmac.New(sha1.New, key)}
}

// NewHMACSHA256 returns an HMAC-SHA256 keyed with key.
func NewHMACSHA256(key []byte) *HMAC[SHA256Digest] {
	return &HMAC[SHA256Digest]{h: hmac.New(sha256.New, key)}
}

// Update feeds byte-like parts into the MAC. See Hash.Update for accepted types.
func (m *HMAC[D]) Update(parts ...any) {
	if m.finalized {
		panic("crypto: Update called on finalized HMAC")
	}
	writeParts(m.h, parts)
}

// Finalize completes the MAC and returns the digest.
func (m *HMAC[D]) Finalize() D {
	if m.finalized {
		panic("crypto: Finalize called twice")
	}
	m.finalized = true
	m.digest = hmacFromSum[D](m.h.Sum(nil))
	return m.digest
}

// Digest returns the digest computed by the last Finalize.
func (m *HMAC[D]) Digest() D {
	return m.digest
}

// Reset rearms the MAC with the same key.
func (m *HMAC[D]) Reset() {
	m.h.Reset()
	m.finalized = false
	var zero D
	m.digest = zero
}

// HMACSHA1Of computes HMAC-SHA1(key, parts...) in one shot.
func HMACSHA1Of(key []byte, parts ...any) SHA1Digest {
	m := NewHMACSHA1(key)
	m.Update(parts...)
	return m.Finalize()
}

// HMACSHA256Of computes HMAC-SHA256(key, parts...) in one shot.
func HMACSHA256Of(key []byte, parts ...any) SHA256Digest {
	m := NewHMACSHA256(key)
	m.Update(parts...)
	return m.Finalize()
}

func hmacFromSum[D SHA1Digest | SHA256Digest](sum []byte) D {
	var d D
	switch p := any(&d).(type) {
	case *SHA1Digest:
		copy(p[:], sum)
	case *SHA256Digest:
		copy(p[:], sum)
	}
	return d
}
