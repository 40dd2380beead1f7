package serverpackets

import (
	"fmt"

	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/crypto"
	"github.com/udisondev/realmgo/internal/wire"
)

// LogonProof [0x01]: server reply to the client proof.
//
// Format:
//
//	[opcode 0x01]
//	[status u8]          // 0 = success; nothing is read past it otherwise
//	[M2 [20]byte]
//	[account_flags u32]
//	[survey_id u32]
//	[unknown_flags u16]
type LogonProof struct {
	Status       uint8
	M2           crypto.SHA1Digest
	AccountFlags uint32
	SurveyID     uint32
	UnknownFlags uint16
}

// Encode appends the packet to b. Used by test servers.
func (p *LogonProof) Encode(b *wire.Buffer) error {
	b.PutUint8(constants.OpcodeAuthLogonProof)
	b.PutUint8(p.Status)
	if p.Status != constants.AuthStatusSuccess {
		return nil
	}
	b.PutBytes(p.M2[:])
	b.PutUint32(p.AccountFlags)
	b.PutUint32(p.SurveyID)
	b.PutUint16(p.UnknownFlags)
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
			return fmt.Errorf("%w: LogonProof opcode 0x%02X", ErrMalformed, opcode)
		}
		if p.Status, err = b.Uint8(); err != nil {
			return err
		}
		if p.Status != constants.AuthStatusSuccess {
			return nil
		}
		if err := b.ReadInto(p.M2[:]); err != nil {
			return err
		}
		if p.AccountFlags, err = b.Uint32(); err != nil {
			return err
		}
		if p.SurveyID, err = b.Uint32(); err != nil {
			return err
		}
		p.UnknownFlags, err = b.Uint16()
		return err
	})
}
