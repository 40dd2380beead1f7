package crypto

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"
)

// Digest lengths in bytes.
const (
	MD5Size    = md5.Size
	SHA1Size   = sha1.Size
	SHA256Size = sha256.Size
)

// MD5Digest is a finalized MD5 hash.
type MD5Digest [MD5Size]byte

// SHA1Digest is a finalized SHA-1 hash.
type SHA1Digest [SHA1Size]byte

// SHA256Digest is a finalized SHA-256 hash.
type SHA256Digest [SHA256Size]byte

func (d MD5Digest) Bytes() []byte    { return d[:] }
func (d SHA1Digest) Bytes() []byte   { return d[:] }
func (d SHA256Digest) Bytes() []byte { return d[:] }

// Xor returns d ^ o byte by byte.
func (d SHA1Digest) Xor(o SHA1Digest) SHA1Digest {
	var out SHA1Digest
	for i := range d {
		out[i] = d[i] ^ o[i]
	}
	return out
}

// Digest is the set of fixed-width hash outputs.
type Digest interface {
	MD5Digest | SHA1Digest | SHA256Digest
}

// Byteser is implemented by fixed-size protocol values (digests, keys, salts)
// that can be fed to a hash.
type Byteser interface {
	Bytes() []byte
}

// Hash is an incremental hash with a single-finalize contract:
// Update after Finalize, or a second Finalize, panics until Reset is called.
type Hash[D Digest] struct {
	h         hash.Hash
	digest    D
	finalized bool
}

func newHash[D Digest](h hash.Hash) *Hash[D] {
	return &Hash[D]{h: h}
}

// NewMD5 returns an incremental MD5 hash.
func NewMD5() *Hash[MD5Digest] { return newHash[MD5Digest](md5.New()) }

// NewSHA1 returns an incremental SHA-1 hash.
func NewSHA1() *Hash[SHA1Digest] { return newHash[SHA1Digest](sha1.New()) }

// NewSHA256 returns an incremental SHA-256 hash.
func NewSHA256() *Hash[SHA256Digest] { return newHash[SHA256Digest](sha256.New()) }

// Update feeds byte-like parts into the hash in order.
// Accepted parts: string, []byte, Byteser, [4]byte, [16]byte, [20]byte, [32]byte, [40]byte.
func (h *Hash[D]) Update(parts ...any) {
	if h.finalized {
		panic("crypto: Update called on finalized hash")
	}
	writeParts(h.h, parts)
}

// Finalize completes the hash and returns the digest.
func (h *Hash[D]) Finalize() D {
	if h.finalized {
		panic("crypto: Finalize called twice")
	}
	h.finalized = true
	h.digest = digestFromSum[D](h.h.Sum(nil))
	return h.digest
}

// Digest returns the digest computed by the last Finalize (zero before that).
func (h *Hash[D]) Digest() D {
	return h.digest
}

// Reset rearms the hash for a new computation.
func (h *Hash[D]) Reset() {
	h.h.Reset()
	h.finalized = false
	var zero D
	h.digest = zero
}

// MD5Of hashes parts in one shot.
func MD5Of(parts ...any) MD5Digest {
	h := NewMD5()
	h.Update(parts...)
	return h.Finalize()
}

// SHA1Of hashes parts in one shot.
func SHA1Of(parts ...any) SHA1Digest {
	h := NewSHA1()
	h.Update(parts...)
	return h.Finalize()
}

// SHA256Of hashes parts in one shot.
func SHA256Of(parts ...any) SHA256Digest {
	h := NewSHA256()
	h.Update(parts...)
	return h.Finalize()
}

func writeParts(w hash.Hash, parts []any) {
	for i, p := range parts {
		switch v := p.(type) {
		case string:
			w.Write([]byte(v))
		case []byte:
			w.Write(v)
		case Byteser:
			w.Write(v.Bytes())
		case [4]byte:
			w.Write(v[:])
		case [16]byte:
			w.Write(v[:])
		case [20]byte:
			w.Write(v[:])
		case [32]byte:
			w.Write(v[:])
		case [40]byte:
			w.Write(v[:])
		default:
			panic(fmt.Sprintf("crypto: unsupported hash part %d of type %T", i, p))
		}
	}
}

func digestFromSum[D Digest](sum []byte) D {
	var d D
	switch p := any(&d).(type) {
	case *MD5Digest:
		copy(p[:], sum)
	case *SHA1Digest:
		copy(p[:], sum)
	case *SHA256Digest:
		copy(p[:], sum)
	}
	return d
}
