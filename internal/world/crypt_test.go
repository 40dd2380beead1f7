package world_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/realmgo/internal/srp6"
	"github.com/udisondev/realmgo/internal/world"
)

func testSessionKey() srp6.SessionKey {
	var k srp6.SessionKey
	for i := range k {
		k[i] = byte(i*11 + 3)
	}
	return k
}

func TestCrypt_NotInitialized(t *testing.T) {
	var c world.Crypt
	assert.False(t, c.IsInitialized())
	assert.ErrorIs(t, c.DecryptRecv([]byte{1, 2, 3, 4}), world.ErrCryptNotInitialized)
	assert.ErrorIs(t, c.EncryptSend([]byte{1, 2, 3, 4, 5, 6}), world.ErrCryptNotInitialized)
}

func TestCrypt_ClientServerRoundTrip(t *testing.T) {
	key := testSessionKey()

	var client, server world.Crypt
	require.NoError(t, client.Init(key))
	require.NoError(t, server.InitServer(key))
	assert.True(t, client.IsInitialized())

	// several headers in a row keep both keystreams in step
	for i := range 5 {
		hdr := []byte{0x00, byte(4 + i), 0x37, 0x00, 0x00, 0x00}
		orig := bytes.Clone(hdr)

		require.NoError(t, client.EncryptSend(hdr))
		assert.NotEqual(t, orig, hdr, "header %d not encrypted", i)
		require.NoError(t, server.DecryptRecv(hdr))
		assert.Equal(t, orig, hdr, "client->server header %d", i)

		resp := []byte{0x00, 0x06, 0x3B, 0x00}
		origResp := bytes.Clone(resp)
		require.NoError(t, server.EncryptSend(resp))
		require.NoError(t, client.DecryptRecv(resp))
		assert.Equal(t, origResp, resp, "server->client header %d", i)
	}
}

func TestCrypt_DirectionsUseDifferentKeys(t *testing.T) {
	key := testSessionKey()

	var a, b world.Crypt
	require.NoError(t, a.Init(key))
	require.NoError(t, b.Init(key))

	enc := []byte{0, 0, 0, 0}
	dec := []byte{0, 0, 0, 0}
	require.NoError(t, a.EncryptSend(enc))
	require.NoError(t, b.DecryptRecv(dec))
	assert.NotEqual(t, enc, dec)
}

func TestCrypt_ByteByByteMatchesBulk(t *testing.T) {
	key := testSessionKey()

	var bulk, split world.Crypt
	require.NoError(t, bulk.Init(key))
	require.NoError(t, split.Init(key))

	data := []byte{0x81, 0x23, 0x45, 0x67, 0x89}
	whole := bytes.Clone(data)
	require.NoError(t, bulk.DecryptRecv(whole))

	parts := bytes.Clone(data)
	require.NoError(t, split.DecryptRecv(parts[:1]))
	require.NoError(t, split.DecryptRecv(parts[1:4]))
	require.NoError(t, split.DecryptRecv(parts[4:]))
	assert.Equal(t, whole, parts)
}
