package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestARC4_KnownVector(t *testing.T) {
	c, err := NewARC4([]byte("Key"))
	require.NoError(t, err)

	data := []byte("Plaintext")
	c.Apply(data)

	assert.Equal(t, mustHex(t, "bbf316e8d940af0ad3"), data)
}

func TestARC4_RoundTrip(t *testing.T) {
	key := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a}

	enc, err := NewARC4(key)
	require.NoError(t, err)
	dec, err := NewARC4(key)
	require.NoError(t, err)

	enc.Drop(1024)
	dec.Drop(1024)

	for _, size := range []int{1, 4, 6, 100, 1000} {
		original := make([]byte, size)
		for i := range original {
			original[i] = byte(i*31 + size)
		}
		data := bytes.Clone(original)

		enc.Apply(data)
		if size > 4 {
			assert.NotEqual(t, original, data, "size %d: ciphertext must differ", size)
		}
		dec.Apply(data)

		assert.Equal(t, original, data, "size %d", size)
	}
}

func TestARC4_DropChangesKeystream(t *testing.T) {
	key := []byte("session")

	plain, err := NewARC4(key)
	require.NoError(t, err)
	dropped, err := NewARC4(key)
	require.NoError(t, err)
	dropped.Drop(1024)

	a := make([]byte, 16)
	b := make([]byte, 16)
	plain.Apply(a)
	dropped.Apply(b)

	assert.NotEqual(t, a, b)
}

func TestARC4_EmptyKey(t *testing.T) {
	_, err := NewARC4(nil)
	assert.Error(t, err)
}

func TestRandomSeed(t *testing.T) {
	a, err := RandomSeed()
	require.NoError(t, err)
	b, err := RandomSeed()
	require.NoError(t, err)
	// 2^-32 chance of a false failure.
	assert.NotEqual(t, a, b)

	buf, err := RandomBytes(19)
	require.NoError(t, err)
	assert.Len(t, buf, 19)
}
