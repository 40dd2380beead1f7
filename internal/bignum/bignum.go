// Package bignum provides the arbitrary-precision integer used by the SRP6 handshake.
//
// Int is a value type: every operation returns a fresh Int and never mutates its
// receiver or arguments. Byte import/export is little-endian, the order used on the wire.
package bignum

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrDivisionByZero is returned by Div, Mod and ModExp when the divisor/modulus is zero.
	ErrDivisionByZero = errors.New("bignum: division by zero")

	// ErrDoesNotFit is returned by ToBytesLE when the value needs more bytes than requested.
	ErrDoesNotFit = errors.New("bignum: value does not fit")

	// ErrInvalidHex is returned by FromHex for malformed input.
	ErrInvalidHex = errors.New("bignum: invalid hex string")

	// ErrNegative is returned when an operation needs a non-negative operand.
	ErrNegative = errors.New("bignum: negative operand")
)

// Int is an immutable arbitrary-precision integer.
// The zero value is a valid Int equal to 0.
type Int struct {
	v *big.Int
}

func wrap(v *big.Int) Int {
	return Int{v: v}
}

func (x Int) big() *big.Int {
	if x.v == nil {
		return new(big.Int)
	}
	return x.v
}

// Zero returns 0.
func Zero() Int {
	return wrap(new(big.Int))
}

// FromUint32 returns an Int holding w.
func FromUint32(w uint32) Int {
	return wrap(new(big.Int).SetUint64(uint64(w)))
}

// FromUint64 returns an Int holding w.
func FromUint64(w uint64) Int {
	return wrap(new(big.Int).SetUint64(w))
}

// FromBytesLE interprets b as an unsigned little-endian integer.
func FromBytesLE(b []byte) Int {
	return wrap(new(big.Int).SetBytes(reversed(b)))
}

// FromBig copies v into an Int.
func FromBig(v *big.Int) Int {
	return wrap(new(big.Int).Set(v))
}

// FromHex parses a big-endian hex string (optionally prefixed with 0x).
func FromHex(s string) (Int, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return Int{}, ErrInvalidHex
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return Int{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return wrap(v), nil
}

// Random returns a uniformly random non-negative Int of n bytes taken from crypto/rand.
func Random(n int) (Int, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return Int{}, fmt.Errorf("reading random bytes: %w", err)
	}
	return FromBytesLE(buf), nil
}

// Big returns a copy of the value as *big.Int.
func (x Int) Big() *big.Int {
	return new(big.Int).Set(x.big())
}

// Add returns x + y.
func (x Int) Add(y Int) Int {
	return wrap(new(big.Int).Add(x.big(), y.big()))
}

// Sub returns x - y. The result may be negative; use Mod to bring it back into range.
func (x Int) Sub(y Int) Int {
	return wrap(new(big.Int).Sub(x.big(), y.big()))
}

// Mul returns x * y.
func (x Int) Mul(y Int) Int {
	return wrap(new(big.Int).Mul(x.big(), y.big()))
}

// Div returns x / y truncated towards zero.
func (x Int) Div(y Int) (Int, error) {
	if y.IsZero() {
		return Int{}, ErrDivisionByZero
	}
	return wrap(new(big.Int).Quo(x.big(), y.big())), nil
}

// Mod returns the Euclidean remainder x mod |m|, always in [0, |m|).
func (x Int) Mod(m Int) (Int, error) {
	if m.IsZero() {
		return Int{}, ErrDivisionByZero
	}
	return wrap(new(big.Int).Mod(x.big(), m.big())), nil
}

// Lsh returns x << n.
func (x Int) Lsh(n uint) Int {
	return wrap(new(big.Int).Lsh(x.big(), n))
}

// ModExp returns x^e mod m. A negative base is reduced into [0, m) first,
// so the result is always non-negative.
func (x Int) ModExp(e, m Int) (Int, error) {
	if m.IsZero() {
		return Int{}, ErrDivisionByZero
	}
	if m.Sign() < 0 {
		return Int{}, fmt.Errorf("modulus: %w", ErrNegative)
	}
	if e.Sign() < 0 {
		return Int{}, fmt.Errorf("exponent: %w", ErrNegative)
	}
	base := new(big.Int).Mod(x.big(), m.big())
	return wrap(new(big.Int).Exp(base, e.big(), m.big())), nil
}

// Cmp compares x and y and returns -1, 0 or +1.
func (x Int) Cmp(y Int) int {
	return x.big().Cmp(y.big())
}

// Equal reports whether x == y.
func (x Int) Equal(y Int) bool {
	return x.Cmp(y) == 0
}

// IsZero reports whether x == 0.
func (x Int) IsZero() bool {
	return x.big().Sign() == 0
}

// Sign returns -1, 0 or +1 depending on the sign of x.
func (x Int) Sign() int {
	return x.big().Sign()
}

// NumBytes returns the number of bytes needed to hold |x|.
func (x Int) NumBytes() int {
	return (x.big().BitLen() + 7) / 8
}

// ToBytesLE exports |x| as exactly size little-endian bytes, zero padded.
// Fails with ErrDoesNotFit when the value is too large and ErrNegative for negative values.
func (x Int) ToBytesLE(size int) ([]byte, error) {
	if x.Sign() < 0 {
		return nil, ErrNegative
	}
	if n := x.NumBytes(); n > size {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrDoesNotFit, n, size)
	}
	be := make([]byte, size)
	x.big().FillBytes(be)
	return reversed(be), nil
}

// BytesLE exports |x| as the minimal little-endian byte slice.
// Zero exports as an empty slice, matching the length OpenSSL reports for BN_num_bytes(0).
func (x Int) BytesLE() []byte {
	return reversed(x.big().Bytes())
}

// Hex returns the upper-case big-endian hex representation (no prefix).
func (x Int) Hex() string {
	return strings.ToUpper(x.big().Text(16))
}

// String implements fmt.Stringer.
func (x Int) String() string {
	return x.Hex()
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}
