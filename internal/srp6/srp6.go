// Package srp6 implements the client role of the SRP6 handshake spoken by the login server.
//
// All big integers travel little-endian. Hashes are SHA-1. The shared secret is turned
// into a 40-byte session key with the interleaving construction in Interleave.
package srp6

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/udisondev/realmgo/internal/bignum"
	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/crypto"
)

// ErrHandshake wraps every arithmetic failure of the exchange.
var ErrHandshake = errors.New("srp6: handshake failed")

// Salt is the per-account salt chosen by the server.
type Salt [constants.SRPSaltSize]byte

// EphemeralKey is a public ephemeral value (A or B) or an exported shared secret.
type EphemeralKey [constants.SRPEphemeralSize]byte

// SessionKey is the interleaved hash of the shared secret.
type SessionKey [constants.SessionKeySize]byte

func (s Salt) Bytes() []byte         { return s[:] }
func (e EphemeralKey) Bytes() []byte { return e[:] }
func (k SessionKey) Bytes() []byte   { return k[:] }

// Exchange holds the state of one client handshake. The private exponent a never
// leaves the struct.
type Exchange struct {
	n bignum.Int
	g bignum.Int
	k bignum.Int
	a bignum.Int

	publicA      EphemeralKey
	clientProof  crypto.SHA1Digest
	crcHash      crypto.SHA1Digest
	sessionKey   SessionKey
	serverProof  crypto.SHA1Digest
	hasGenerated bool
}

// New creates an exchange for the group (N, g) with a fresh random private exponent.
func New(n, g bignum.Int) (*Exchange, error) {
	a, err := bignum.Random(constants.SRPPrivateKeySize)
	if err != nil {
		return nil, fmt.Errorf("%w: generating private key: %w", ErrHandshake, err)
	}
	return NewWithPrivateKey(n, g, a)
}

// NewWithPrivateKey creates an exchange with a caller-supplied private exponent.
// Used for reproducible handshakes in tests.
func NewWithPrivateKey(n, g, a bignum.Int) (*Exchange, error) {
	if n.Sign() <= 0 {
		return nil, fmt.Errorf("%w: modulus must be positive", ErrHandshake)
	}
	pubA, err := g.ModExp(a, n)
	if err != nil {
		return nil, fmt.Errorf("%w: computing A: %w", ErrHandshake, err)
	}
	raw, err := pubA.ToBytesLE(constants.SRPEphemeralSize)
	if err != nil {
		return nil, fmt.Errorf("%w: exporting A: %w", ErrHandshake, err)
	}

	e := &Exchange{
		n: n,
		g: g,
		k: bignum.FromUint32(constants.SRPMultiplier),
		a: a,
	}
	copy(e.publicA[:], raw)
	return e, nil
}

// Generate runs the client side of the handshake against the server's salt and
// ephemeral key B. Identity and password are uppercased before hashing.
func (e *Exchange) Generate(salt Salt, serverB EphemeralKey, identity, password string) error {
	identity = strings.ToUpper(identity)
	password = strings.ToUpper(password)

	b := bignum.FromBytesLE(serverB[:])
	if bm, err := b.Mod(e.n); err != nil || bm.IsZero() {
		return fmt.Errorf("%w: server ephemeral key is zero mod N", ErrHandshake)
	}

	x := bignum.FromBytesLE(crypto.SHA1Of(salt, crypto.SHA1Of(identity, ":", password)).Bytes())
	v, err := e.g.ModExp(x, e.n)
	if err != nil {
		return fmt.Errorf("%w: computing verifier: %w", ErrHandshake, err)
	}
	u := bignum.FromBytesLE(crypto.SHA1Of(e.publicA, serverB).Bytes())

	base := b.Sub(e.k.Mul(v))
	exp := e.a.Add(u.Mul(x))
	s, err := base.ModExp(exp, e.n)
	if err != nil {
		return fmt.Errorf("%w: computing shared secret: %w", ErrHandshake, err)
	}
	rawS, err := s.ToBytesLE(constants.SRPEphemeralSize)
	if err != nil {
		return fmt.Errorf("%w: exporting shared secret: %w", ErrHandshake, err)
	}
	var secret EphemeralKey
	copy(secret[:], rawS)

	e.sessionKey = Interleave(secret)

	ngHash := crypto.SHA1Of(e.n.BytesLE()).Xor(crypto.SHA1Of(e.g.BytesLE()))
	identityHash := crypto.SHA1Of(identity)

	e.clientProof = crypto.SHA1Of(ngHash, identityHash, salt, e.publicA, serverB, e.sessionKey)
	e.crcHash = crypto.SHA1Of(e.publicA, e.clientProof, e.sessionKey)
	e.serverProof = e.crcHash
	e.hasGenerated = true

	return nil
}

// A returns the client public ephemeral key.
func (e *Exchange) A() EphemeralKey {
	return e.publicA
}

// ClientProof returns M, valid after Generate.
func (e *Exchange) ClientProof() crypto.SHA1Digest {
	return e.clientProof
}

// CRCHash returns the extra proof field H(A, M, K) sent with the logon proof.
func (e *Exchange) CRCHash() crypto.SHA1Digest {
	return e.crcHash
}

// SessionKey returns K, valid after Generate.
func (e *Exchange) SessionKey() SessionKey {
	return e.sessionKey
}

// Generated reports whether Generate completed successfully.
func (e *Exchange) Generated() bool {
	return e.hasGenerated
}

// ExpectedServerProof returns the proof a genuine server sends back: H(A, M, K).
func (e *Exchange) ExpectedServerProof() crypto.SHA1Digest {
	return e.serverProof
}

// VerifyServerProof compares the server's proof with the expected value in constant time.
func (e *Exchange) VerifyServerProof(proof crypto.SHA1Digest) bool {
	if !e.hasGenerated {
		return false
	}
	return subtle.ConstantTimeCompare(proof[:], e.serverProof[:]) == 1
}

// Interleave derives the session key from the exported shared secret S.
//
// S is split into its even and odd bytes. Leading zero bytes of S are skipped,
// rounded up to an even count, and the same number of half-bytes is dropped from
// each half before hashing. The two SHA-1 digests are then zipped byte by byte.
func Interleave(s EphemeralKey) SessionKey {
	const half = constants.SRPEphemeralSize / 2

	var even, odd [half]byte
	for i := range half {
		even[i] = s[2*i]
		odd[i] = s[2*i+1]
	}

	p := 0
	for p < len(s) && s[p] == 0 {
		p++
	}
	if p&1 == 1 {
		p++
	}
	p /= 2

	h0 := crypto.SHA1Of(even[p:])
	h1 := crypto.SHA1Of(odd[p:])

	var key SessionKey
	for i := range crypto.SHA1Size {
		key[2*i] = h0[i]
		key[2*i+1] = h1[i]
	}
	return key
}
