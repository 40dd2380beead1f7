package bignum

import (
	"math/big"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBig(r *rand.Rand, nBytes int) *big.Int {
	buf := make([]byte, nBytes)
	for i := range buf {
		buf[i] = byte(r.Uint32N(256))
	}
	return new(big.Int).SetBytes(buf)
}

func TestModExp_MatchesReference(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for i := range 200 {
		base := randomBig(r, 1+r.IntN(64))
		exp := randomBig(r, 1+r.IntN(48))
		mod := randomBig(r, 1+r.IntN(64))
		if mod.Sign() == 0 {
			mod.SetInt64(7)
		}

		want := new(big.Int).Exp(base, exp, mod)
		got, err := FromBig(base).ModExp(FromBig(exp), FromBig(mod))
		require.NoError(t, err, "iteration %d", i)
		assert.Zero(t, want.Cmp(got.Big()), "iteration %d: %s^%s mod %s", i, base, exp, mod)
	}
}

func TestModExp_EdgeCases(t *testing.T) {
	base := FromUint32(12345)

	got, err := base.ModExp(Zero(), FromUint32(97))
	require.NoError(t, err)
	assert.True(t, got.Equal(FromUint32(1)), "x^0 mod m must be 1, got %s", got)

	got, err = base.ModExp(FromUint32(5), FromUint32(1))
	require.NoError(t, err)
	assert.True(t, got.IsZero(), "x^e mod 1 must be 0, got %s", got)

	_, err = base.ModExp(FromUint32(5), Zero())
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestModExp_NegativeBaseIsReduced(t *testing.T) {
	// (-3)^3 mod 7 = -27 mod 7 = 1
	neg := FromUint32(2).Sub(FromUint32(5))
	got, err := neg.ModExp(FromUint32(3), FromUint32(7))
	require.NoError(t, err)
	assert.True(t, got.Equal(FromUint32(1)), "got %s", got)
}

func TestModExp_256Bit(t *testing.T) {
	n, err := FromHex("894B645E89E1535BBDAD5B8B290650530801B18EBFBF5E8FAB3C82872A3E9BB7")
	require.NoError(t, err)
	a, err := FromHex("1234567890ABCDEF1234567890ABCDEF1234567890AB")
	require.NoError(t, err)

	got, err := FromUint32(7).ModExp(a, n)
	require.NoError(t, err)

	want := new(big.Int).Exp(big.NewInt(7), a.Big(), n.Big())
	assert.Zero(t, want.Cmp(got.Big()))
	assert.LessOrEqual(t, got.NumBytes(), 32)
}

func TestArithmetic_DoesNotMutateOperands(t *testing.T) {
	x := FromUint64(1 << 40)
	y := FromUint32(3)

	sum := x.Add(y)
	diff := x.Sub(y)
	prod := x.Mul(y)
	quo, err := x.Div(y)
	require.NoError(t, err)
	rem, err := x.Mod(y)
	require.NoError(t, err)
	shifted := y.Lsh(4)

	assert.True(t, x.Equal(FromUint64(1<<40)))
	assert.True(t, y.Equal(FromUint32(3)))
	assert.True(t, sum.Equal(FromUint64(1<<40+3)))
	assert.True(t, diff.Equal(FromUint64(1<<40-3)))
	assert.True(t, prod.Equal(FromUint64(3<<40)))
	assert.True(t, quo.Equal(FromUint64((1<<40)/3)))
	assert.True(t, rem.Equal(FromUint64((1<<40)%3)))
	assert.True(t, shifted.Equal(FromUint32(48)))
}

func TestDivMod_ByZero(t *testing.T) {
	_, err := FromUint32(1).Div(Zero())
	assert.ErrorIs(t, err, ErrDivisionByZero)
	_, err = FromUint32(1).Mod(Zero())
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestMod_Euclidean(t *testing.T) {
	got, err := FromUint32(1).Sub(FromUint32(10)).Mod(FromUint32(7))
	require.NoError(t, err)
	assert.True(t, got.Equal(FromUint32(5)), "got %s", got)
}

func TestBytesLE_RoundTrip(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03, 0x00}
	x := FromBytesLE(in)

	assert.Equal(t, "30201", x.Hex())
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, x.BytesLE())

	padded, err := x.ToBytesLE(4)
	require.NoError(t, err)
	assert.Equal(t, in, padded)

	padded, err = x.ToBytesLE(8)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0, 0, 0, 0, 0}, padded)
}

func TestToBytesLE_DoesNotFit(t *testing.T) {
	x := FromUint32(0x010000)
	_, err := x.ToBytesLE(2)
	assert.ErrorIs(t, err, ErrDoesNotFit)

	_, err = FromUint32(1).Sub(FromUint32(2)).ToBytesLE(4)
	assert.ErrorIs(t, err, ErrNegative)
}

func TestFromHex(t *testing.T) {
	x, err := FromHex("0xDEADbeef")
	require.NoError(t, err)
	assert.True(t, x.Equal(FromUint32(0xDEADBEEF)))
	assert.Equal(t, "DEADBEEF", x.Hex())

	_, err = FromHex("xyz")
	assert.ErrorIs(t, err, ErrInvalidHex)
	_, err = FromHex("")
	assert.ErrorIs(t, err, ErrInvalidHex)
}

func TestZeroValue(t *testing.T) {
	var x Int
	assert.True(t, x.IsZero())
	assert.Empty(t, x.BytesLE())
	assert.True(t, x.Add(FromUint32(2)).Equal(FromUint32(2)))
}

func TestRandom(t *testing.T) {
	x, err := Random(19)
	require.NoError(t, err)
	assert.LessOrEqual(t, x.NumBytes(), 19)
}
