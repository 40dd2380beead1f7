package serverpackets

import (
	"errors"
	"fmt"

	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/srp6"
	"github.com/udisondev/realmgo/internal/wire"
)

// ErrMalformed marks a complete packet whose contents contradict its own header.
// Unlike wire.ErrShortRead it is never cured by reading more bytes.
var ErrMalformed = errors.New("malformed packet")

// LogonChallenge [0x00]: server reply to the client challenge.
//
// Format:
//
//	[opcode 0x00]
//	[unknown u8]
//	[status u8]           // 0 = success; nothing follows otherwise
//	[B [32]byte]
//	[g u8-prefixed]       // little-endian
//	[N u8-prefixed]       // little-endian
//	[salt [32]byte]
//	[crc_salt [16]byte]
//	[security_flags u8]
type LogonChallenge struct {
	Unknown       uint8
	Status        uint8
	B             srp6.EphemeralKey
	G             []byte
	N             []byte
	Salt          srp6.Salt
	CRCSalt       [constants.ChallengeCRCSaltSize]byte
	SecurityFlags uint8
}

// Encode appends the packet to b. Used by test servers.
func (p *LogonChallenge) Encode(b *wire.Buffer) error {
	b.PutUint8(constants.OpcodeAuthLogonChallenge)
	b.PutUint8(p.Unknown)
	b.PutUint8(p.Status)
	if p.Status != constants.AuthStatusSuccess {
		return nil
	}
	b.PutBytes(p.B[:])
	if err := b.PutPrefixedBytes(p.G); err != nil {
		return fmt.Errorf("LogonChallenge g: %w", err)
	}
	if err := b.PutPrefixedBytes(p.N); err != nil {
		return fmt.Errorf("LogonChallenge N: %w", err)
	}
	b.PutBytes(p.Salt[:])
	b.PutBytes(p.CRCSalt[:])
	b.PutUint8(p.SecurityFlags)
	return nil
}

// Parse reads the packet, opcode included. On wire.ErrShortRead the cursor is
// left untouched so the caller can retry with more data.
func (p *LogonChallenge) Parse(b *wire.Buffer) error {
	return b.Decode(func(b *wire.Buffer) error {
		opcode, err := b.Uint8()
		if err != nil {
			return err
		}
		if opcode != constants.OpcodeAuthLogonChallenge {
			return fmt.Errorf("%w: LogonChallenge opcode 0x%02X", ErrMalformed, opcode)
		}
		if p.Unknown, err = b.Uint8(); err != nil {
			return err
		}
		if p.Status, err = b.Uint8(); err != nil {
			return err
		}
		if p.Status != constants.AuthStatusSuccess {
			return nil
		}
		if err := b.ReadInto(p.B[:]); err != nil {
			return err
		}
		if p.G, err = b.PrefixedBytes(); err != nil {
			return err
		}
		if p.N, err = b.PrefixedBytes(); err != nil {
			return err
		}
		if err := b.ReadInto(p.Salt[:]); err != nil {
			return err
		}
		if err := b.ReadInto(p.CRCSalt[:]); err != nil {
			return err
		}
		p.SecurityFlags, err = b.Uint8()
		return err
	})
}
