package serverpackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/wire"
)

func TestAuthChallenge_RoundTrip(t *testing.T) {
	in := AuthChallenge{Marker: 1, ServerSeed: [4]byte{0xDE, 0xAD, 0xBE, 0xEF}}
	in.Seeds[31] = 0x99

	b := wire.NewBuffer()
	require.NoError(t, in.Encode(b))
	assert.Equal(t, 40, b.Len())

	var out AuthChallenge
	require.NoError(t, out.Parse(b))
	assert.Equal(t, in, out)
}

func TestAuthChallenge_SeedOnly(t *testing.T) {
	var out AuthChallenge
	require.NoError(t, out.Parse(wire.FromBytes([]byte{1, 0, 0, 0, 5, 6, 7, 8})))
	assert.Equal(t, [4]byte{5, 6, 7, 8}, out.ServerSeed)
}

func TestAuthChallenge_BadMarker(t *testing.T) {
	var out AuthChallenge
	assert.Error(t, out.Parse(wire.FromBytes([]byte{2, 0, 0, 0, 5, 6, 7, 8})))
}

func TestAuthResponse_OK(t *testing.T) {
	in := AuthResponse{Status: constants.AuthResponseOK, BillingPlanFlags: 1, Expansion: 2}
	b := wire.NewBuffer()
	require.NoError(t, in.Encode(b))
	assert.Equal(t, 11, b.Len())

	var out AuthResponse
	require.NoError(t, out.Parse(b))
	assert.Equal(t, in, out)
}

func TestAuthResponse_StatusOnly(t *testing.T) {
	var out AuthResponse
	require.NoError(t, out.Parse(wire.FromBytes([]byte{constants.AuthResponseOK})))
	assert.Equal(t, uint8(constants.AuthResponseOK), out.Status)
}

func TestAuthResponse_WaitQueue(t *testing.T) {
	in := AuthResponse{Status: constants.AuthResponseWaitQueue, QueuePosition: 15}
	b := wire.NewBuffer()
	require.NoError(t, in.Encode(b))

	var out AuthResponse
	require.NoError(t, out.Parse(b))
	assert.Equal(t, uint32(15), out.QueuePosition)
}

func TestPong_RoundTrip(t *testing.T) {
	b := wire.NewBuffer()
	require.NoError(t, (&Pong{Seq: 9}).Encode(b))

	var out Pong
	require.NoError(t, out.Parse(b))
	assert.Equal(t, uint32(9), out.Seq)
}

func sampleCharacters() []Character {
	c1 := Character{
		GUID: 0x0000000000000042, Name: "Arthas", Race: 1, Class: 2, Gender: 0,
		Level: 80, Zone: 4395, Map: 571, X: 5804.1, Y: 624.7, Z: 647.8, GuildID: 3,
	}
	c1.Equipment[0] = EquipmentSlot{DisplayID: 51000, InventoryType: 1, EnchantAura: 0}
	c1.Equipment[15] = EquipmentSlot{DisplayID: 50000, InventoryType: 17, EnchantAura: 3789}

	c2 := Character{GUID: 7, Name: "Jaina", Race: 1, Class: 8, Gender: 1, Level: 1, FirstLogin: 1}
	return []Character{c1, c2}
}

func TestCharEnum_RoundTrip(t *testing.T) {
	in := CharEnum{Characters: sampleCharacters()}
	b := wire.NewBuffer()
	require.NoError(t, in.Encode(b))

	var out CharEnum
	require.NoError(t, out.Parse(b))
	assert.Equal(t, in, out)
	assert.False(t, b.CanRead())
}

func TestCharEnum_EntrySize(t *testing.T) {
	one := CharEnum{Characters: []Character{{Name: "A"}}}
	b := wire.NewBuffer()
	require.NoError(t, one.Encode(b))

	// count + guid + "A\0" + 9 bytes + zone/map + xyz + guild/flags/customize + first login + pet + equipment
	want := 1 + 8 + 2 + 9 + 8 + 12 + 12 + 1 + 12 + constants.CharEquipmentSlots*constants.CharEquipmentEntrySize
	assert.Equal(t, want, b.Len())
}

func TestCharEnum_Empty(t *testing.T) {
	var out CharEnum
	require.NoError(t, out.Parse(wire.FromBytes([]byte{0})))
	assert.Empty(t, out.Characters)
}

func TestCharEnum_TruncatedRewinds(t *testing.T) {
	in := CharEnum{Characters: sampleCharacters()}
	full := wire.NewBuffer()
	require.NoError(t, in.Encode(full))

	b := wire.FromBytes(full.Bytes()[:full.Len()-1])
	var out CharEnum
	assert.ErrorIs(t, out.Parse(b), wire.ErrShortRead)
	assert.Equal(t, 0, b.Pos())
	assert.Nil(t, out.Characters)
}
