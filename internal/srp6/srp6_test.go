package srp6

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/realmgo/internal/bignum"
	"github.com/udisondev/realmgo/internal/crypto"
)

// Vectors below were produced once by an independent reference implementation
// of the same construction and frozen here.

const wowModulusHex = "894B645E89E1535BBDAD5B8B290650530801B18EBFBF5E8FAB3C82872A3E9BB7"

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func mustBig(t *testing.T, s string) bignum.Int {
	t.Helper()
	v, err := bignum.FromHex(s)
	require.NoError(t, err)
	return v
}

func goldenInputs() (Salt, EphemeralKey) {
	var salt Salt
	for i := range salt {
		salt[i] = byte(i*7 + 1)
	}
	var b EphemeralKey
	for i := range 31 {
		b[i] = byte(i*13 + 5)
	}
	b[31] = 0x01
	return salt, b
}

func TestInterleave_LeadingZeros(t *testing.T) {
	var s EphemeralKey
	for i := 3; i < len(s); i++ {
		s[i] = byte(i - 2)
	}

	got := Interleave(s)

	want := mustHex(t, "6d32c89c1f54e5af2dcec0685b56e4ccc278cc01cda33596745a2aef74980445fc11eed83abbac49")
	assert.Equal(t, want, got[:])
}

func TestInterleave_NoLeadingZeros(t *testing.T) {
	var s EphemeralKey
	for i := range s {
		s[i] = byte(i + 1)
	}

	got := Interleave(s)

	want := mustHex(t, "ed2976c475109d044df3443c9cc86c31077e9c7db8e04d3d699f68bd6bcc6c6b20df81f6b7d66fa0")
	assert.Equal(t, want, got[:])
}

func TestInterleave_LengthIsTwiceDigest(t *testing.T) {
	inputs := []EphemeralKey{{}, {0: 1}, {31: 0xFF}}
	for _, s := range inputs {
		k := Interleave(s)
		assert.Len(t, k, 2*crypto.SHA1Size)
	}
}

func TestInterleave_AllZeroHashesEmptyHalves(t *testing.T) {
	k := Interleave(EphemeralKey{})
	empty := crypto.SHA1Of([]byte{})
	for i := range crypto.SHA1Size {
		assert.Equal(t, empty[i], k[2*i])
		assert.Equal(t, empty[i], k[2*i+1])
	}
}

func TestExchange_GoldenVector(t *testing.T) {
	n := mustBig(t, wowModulusHex)
	a := mustBig(t, "1234567890ABCDEF1234567890ABCDEF12345678")
	salt, b := goldenInputs()

	e, err := NewWithPrivateKey(n, bignum.FromUint32(7), a)
	require.NoError(t, err)

	pubA := e.A()
	assert.Equal(t, mustHex(t, "e6c49951ed9ff2779619d0b37231c9a697a23c7a2a873b1ec7b0c2137caa2d2b"), pubA[:])

	require.NoError(t, e.Generate(salt, b, "TEST", "TEST"))
	require.True(t, e.Generated())

	m := e.ClientProof()
	crc := e.CRCHash()
	k := e.SessionKey()
	assert.Equal(t, mustHex(t, "74943b999e03b7a24df8cdb6f9a9d5874f90db87"), m[:])
	assert.Equal(t, mustHex(t, "6ff196ef48ece1a8ed30e5de931e712e81e4b049"), crc[:])
	assert.Equal(t, mustHex(t, "099afbaebe61245934732e2f3fb172f1c269da270000769f2bff2d37944ef6a017a77c2180ebbcf6"), k[:])
}

func TestExchange_ToyGroup(t *testing.T) {
	e, err := NewWithPrivateKey(bignum.FromUint32(2), bignum.FromUint32(7), bignum.FromUint32(5))
	require.NoError(t, err)

	pubA := e.A()
	assert.Equal(t, EphemeralKey{0: 1}, pubA)

	var salt Salt
	b := EphemeralKey{0: 3}
	require.NoError(t, e.Generate(salt, b, "TEST", "TEST"))

	m := e.ClientProof()
	crc := e.CRCHash()
	k := e.SessionKey()
	assert.Equal(t, mustHex(t, "ebbb240e96f4349785a5bcac5f06edcc7e4e89ef"), m[:])
	assert.Equal(t, mustHex(t, "cf5f0ad373cf9f676a20967f0cad71d81f54e464"), crc[:])
	assert.Equal(t, mustHex(t, "dada3939a3a3eeee5e5e6b6b4b4b0d0d32325555bfbfefef9595606018189090afafd8d807070909"), k[:])
}

func TestExchange_UppercasesCredentials(t *testing.T) {
	n := mustBig(t, wowModulusHex)
	a := mustBig(t, "1234567890ABCDEF1234567890ABCDEF12345678")
	salt, b := goldenInputs()

	upper, err := NewWithPrivateKey(n, bignum.FromUint32(7), a)
	require.NoError(t, err)
	require.NoError(t, upper.Generate(salt, b, "TEST", "TEST"))

	mixed, err := NewWithPrivateKey(n, bignum.FromUint32(7), a)
	require.NoError(t, err)
	require.NoError(t, mixed.Generate(salt, b, "tEsT", "test"))

	assert.Equal(t, upper.ClientProof(), mixed.ClientProof())
	assert.Equal(t, upper.SessionKey(), mixed.SessionKey())
}

func TestExchange_VerifyServerProof(t *testing.T) {
	n := mustBig(t, wowModulusHex)
	salt, b := goldenInputs()

	e, err := New(n, bignum.FromUint32(7))
	require.NoError(t, err)
	assert.False(t, e.VerifyServerProof(crypto.SHA1Digest{}), "no proof before Generate")

	require.NoError(t, e.Generate(salt, b, "TEST", "TEST"))

	expected := crypto.SHA1Of(e.A(), e.ClientProof(), e.SessionKey())
	assert.Equal(t, expected, e.ExpectedServerProof())
	assert.True(t, e.VerifyServerProof(expected))

	expected[0] ^= 0xFF
	assert.False(t, e.VerifyServerProof(expected))
}

func TestExchange_RandomPrivateKeyChangesA(t *testing.T) {
	n := mustBig(t, wowModulusHex)

	e1, err := New(n, bignum.FromUint32(7))
	require.NoError(t, err)
	e2, err := New(n, bignum.FromUint32(7))
	require.NoError(t, err)

	assert.NotEqual(t, e1.A(), e2.A())
}

func TestExchange_InvalidGroup(t *testing.T) {
	_, err := NewWithPrivateKey(bignum.Zero(), bignum.FromUint32(7), bignum.FromUint32(5))
	assert.ErrorIs(t, err, ErrHandshake)

	// A modulus wider than 32 bytes cannot be exported into A.
	wide := bignum.FromUint32(1).Lsh(300)
	g := bignum.FromUint32(1).Lsh(280)
	_, err = NewWithPrivateKey(wide, g, bignum.FromUint32(1))
	assert.ErrorIs(t, err, ErrHandshake)
}

func TestExchange_RejectsZeroServerKey(t *testing.T) {
	n := mustBig(t, wowModulusHex)
	salt, _ := goldenInputs()

	e, err := New(n, bignum.FromUint32(7))
	require.NoError(t, err)

	err = e.Generate(salt, EphemeralKey{}, "TEST", "TEST")
	assert.ErrorIs(t, err, ErrHandshake)
	assert.False(t, e.Generated())
}
