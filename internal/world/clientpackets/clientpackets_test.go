package clientpackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/realmgo/internal/crypto"
	"github.com/udisondev/realmgo/internal/wire"
)

func TestAuthSession_SizeMatchesHeader(t *testing.T) {
	p := AuthSession{Build: 12340, Account: "TEST", RealmID: 1}
	b := wire.NewBuffer()
	require.NoError(t, p.Encode(b))

	assert.Equal(t, 66, p.HeaderSize())
	// header size counts the 4-byte opcode
	assert.Equal(t, p.HeaderSize()-4, b.Len())
}

func TestAuthSession_Layout(t *testing.T) {
	p := AuthSession{
		Build:      12340,
		Account:    "AB",
		ClientSeed: [4]byte{1, 2, 3, 4},
		RealmID:    7,
	}
	p.Digest[0] = 0xEE

	b := wire.NewBuffer()
	require.NoError(t, p.Encode(b))
	raw := b.Bytes()

	assert.Equal(t, []byte{0x34, 0x30, 0, 0}, raw[0:4])
	assert.Equal(t, []byte{0, 0, 0, 0}, raw[4:8])
	assert.Equal(t, []byte{'A', 'B', 0}, raw[8:11])
	assert.Equal(t, []byte{1, 2, 3, 4}, raw[15:19])
	assert.Equal(t, []byte{7, 0, 0, 0}, raw[27:31])
	assert.Equal(t, byte(0xEE), raw[39])
	assert.Equal(t, byte(0), raw[len(raw)-1], "empty addon blob")
}

func TestAuthSession_RoundTrip(t *testing.T) {
	in := AuthSession{
		Build:      12340,
		Account:    "PLAYER",
		ClientSeed: [4]byte{9, 9, 9, 9},
		RealmID:    3,
		Digest:     crypto.SHA1Of("x"),
		AddonInfo:  []byte{},
	}
	b := wire.NewBuffer()
	require.NoError(t, in.Encode(b))

	var out AuthSession
	require.NoError(t, out.Parse(b))
	assert.Equal(t, in, out)
}

func TestAuthDigest(t *testing.T) {
	key := make([]byte, 40)
	key[0] = 1
	client := [4]byte{1, 2, 3, 4}
	server := [4]byte{5, 6, 7, 8}

	got := AuthDigest("TEST", client, server, key)

	want := crypto.SHA1Of([]byte("TEST"), []byte{0, 0, 0, 0}, client[:], server[:], key)
	assert.Equal(t, want, got)
}

func TestPing_RoundTrip(t *testing.T) {
	in := Ping{Seq: 42, Latency: 17}
	b := wire.NewBuffer()
	require.NoError(t, in.Encode(b))
	assert.Equal(t, 8, b.Len())

	var out Ping
	require.NoError(t, out.Parse(b))
	assert.Equal(t, in, out)
}
