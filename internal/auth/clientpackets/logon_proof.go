package clientpackets

import (
	"fmt"

	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/crypto"
	"github.com/udisondev/realmgo/internal/srp6"
	"github.com/udisondev/realmgo/internal/wire"
)

// LogonProof [0x01]: client SRP6 proof.
//
// Format:
//
//	[opcode 0x01]
//	[A [32]byte]
//	[M [20]byte]
//	[crc [20]byte]
//	[number_of_keys u8]  // 0
//	[security_flags u8]  // 0, no two-factor
type LogonProof struct {
	A             srp6.EphemeralKey
	M             crypto.SHA1Digest
	CRC           crypto.SHA1Digest
	NumberOfKeys  uint8
	SecurityFlags uint8
}

// LogonProofSize is the encoded packet size.
const LogonProofSize = 1 + constants.SRPEphemeralSize + 2*crypto.SHA1Size + 2

// Encode appends the packet to b.
func (p *LogonProof) Encode(b *wire.Buffer) error {
	b.PutUint8(constants.OpcodeAuthLogonProof)
	b.PutBytes(p.A[:])
	b.PutBytes(p.M[:])
	b.PutBytes(p.CRC[:])
	b.PutUint8(p.NumberOfKeys)
	b.PutUint8(p.SecurityFlags)
	return nil
}

// Parse reads the packet, opcode included.
func (p *LogonProof) Parse(b *wire.Buffer) error {
	return b.Decode(func(b *wire.Buffer) error {
		opcode, err := b.Uint8()
		if err != nil {
			return err
		}
		if opcode != constants.OpcodeAuthLogonProof {
			return fmt.Errorf("LogonProof: unexpected opcode 0x%02X", opcode)
		}
		if err := b.ReadInto(p.A[:]); err != nil {
			return err
		}
		if err := b.ReadInto(p.M[:]); err != nil {
			return err
		}
		if err := b.ReadInto(p.CRC[:]); err != nil {
			return err
		}
		if p.NumberOfKeys, err = b.Uint8(); err != nil {
			return err
		}
		p.SecurityFlags, err = b.Uint8()
		return err
	})
}
