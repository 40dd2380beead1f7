package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/srp6"
	"github.com/udisondev/realmgo/internal/world"
	"github.com/udisondev/realmgo/internal/world/packet"
)

func testKey() srp6.SessionKey {
	var k srp6.SessionKey
	for i := range k {
		k[i] = byte(i*7 + 1)
	}
	return k
}

// serverFrame appends one server packet, encrypting its header when c is set.
func serverFrame(t *testing.T, dst []byte, c *world.Crypt, opcode uint16, bodyLen int) []byte {
	t.Helper()
	h, err := packet.NewServerHeader(opcode, bodyLen)
	require.NoError(t, err)
	hdr := make([]byte, h.Len())
	h.Put(hdr)
	if c != nil {
		require.NoError(t, c.EncryptSend(hdr))
	}
	dst = append(dst, hdr...)
	return append(dst, make([]byte, bodyLen)...)
}

func TestDecode_ServerStream(t *testing.T) {
	key := testKey()
	var srv world.Crypt
	require.NoError(t, srv.InitServer(key))

	var data []byte
	data = serverFrame(t, data, nil, constants.SMsgAuthChallenge, 40)
	data = serverFrame(t, data, &srv, constants.SMsgAuthResponse, 11)
	data = serverFrame(t, data, &srv, constants.SMsgCharEnum, 0x9000)
	data = serverFrame(t, data, &srv, constants.SMsgPong, 4)

	frames, err := decode(data, key, true, 1)
	require.NoError(t, err)
	require.Len(t, frames, 4)

	assert.Equal(t, "SMSG_AUTH_CHALLENGE", frames[0].Name)
	assert.False(t, frames[0].Encrypted)
	assert.Equal(t, 40, frames[0].BodyLen)

	assert.Equal(t, uint32(constants.SMsgAuthResponse), frames[1].Opcode)
	assert.True(t, frames[1].Encrypted)

	assert.Equal(t, "SMSG_CHAR_ENUM", frames[2].Name)
	assert.Equal(t, 0x9000, frames[2].BodyLen)

	assert.Equal(t, "SMSG_PONG", frames[3].Name)
	assert.Equal(t, 4, frames[3].BodyLen)
}

func TestDecode_ClientStream(t *testing.T) {
	key := testKey()
	var cli world.Crypt
	require.NoError(t, cli.Init(key))

	frame := func(dst []byte, encrypt bool, opcode uint32, bodyLen int) []byte {
		h, err := packet.NewClientHeader(opcode, bodyLen)
		require.NoError(t, err)
		hdr := make([]byte, constants.ClientHeaderSize)
		h.Put(hdr)
		if encrypt {
			require.NoError(t, cli.EncryptSend(hdr))
		}
		dst = append(dst, hdr...)
		return append(dst, make([]byte, bodyLen)...)
	}

	var data []byte
	data = frame(data, false, constants.CMsgAuthSession, 70)
	data = frame(data, true, constants.CMsgCharEnum, 0)
	data = frame(data, true, constants.CMsgPing, 8)

	frames, err := decode(data, key, false, 1)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, "CMSG_AUTH_SESSION", frames[0].Name)
	assert.Equal(t, "CMSG_CHAR_ENUM", frames[1].Name)
	assert.Equal(t, 0, frames[1].BodyLen)
	assert.Equal(t, "CMSG_PING", frames[2].Name)
	assert.Equal(t, 8, frames[2].BodyLen)
}

func TestDecode_Truncated(t *testing.T) {
	key := testKey()
	var srv world.Crypt
	require.NoError(t, srv.InitServer(key))

	data := serverFrame(t, nil, nil, constants.SMsgAuthChallenge, 40)
	data = serverFrame(t, data, &srv, constants.SMsgAuthResponse, 11)

	frames, err := decode(data[:len(data)-3], key, true, 1)
	require.ErrorIs(t, err, errTruncated)
	assert.Len(t, frames, 1)
}

func TestParseKey(t *testing.T) {
	_, err := parseKey("0011")
	require.Error(t, err)

	want := testKey()
	var sb []byte
	for _, b := range want {
		sb = append(sb, "0123456789abcdef"[b>>4], "0123456789abcdef"[b&0xF], ' ')
	}
	got, err := parseKey(string(sb))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
