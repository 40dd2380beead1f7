package clientpackets

import (
	"fmt"

	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/wire"
)

// RealmList [0x10]: asks for the current realm list.
//
// Format:
//
//	[opcode 0x10]
//	[unknown u32] // 0
type RealmList struct {
	Unknown uint32
}

// RealmListSize is the encoded packet size.
const RealmListSize = 5

// Encode appends the packet to b.
func (p *RealmList) Encode(b *wire.Buffer) error {
	b.PutUint8(constants.OpcodeRealmList)
	b.PutUint32(p.Unknown)
	return nil
}

// Parse reads the packet, opcode included.
func (p *RealmList) Parse(b *wire.Buffer) error {
	return b.Decode(func(b *wire.Buffer) error {
		opcode, err := b.Uint8()
		if err != nil {
			return err
		}
		if opcode != constants.OpcodeRealmList {
			return fmt.Errorf("RealmList: unexpected opcode 0x%02X", opcode)
		}
		p.Unknown, err = b.Uint32()
		return err
	})
}
