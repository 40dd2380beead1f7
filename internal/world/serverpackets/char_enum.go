package serverpackets

import (
	"fmt"

	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/wire"
)

// EquipmentSlot is the visible item in one inventory slot.
type EquipmentSlot struct {
	DisplayID     uint32
	InventoryType uint8
	EnchantAura   uint32
}

// Character is one entry of the character list.
type Character struct {
	GUID           uint64
	Name           string
	Race           uint8
	Class          uint8
	Gender         uint8
	Skin           uint8
	Face           uint8
	HairStyle      uint8
	HairColor      uint8
	FacialHair     uint8
	Level          uint8
	Zone           uint32
	Map            uint32
	X, Y, Z        float32
	GuildID        uint32
	Flags          uint32
	CustomizeFlags uint32
	FirstLogin     uint8
	PetDisplayID   uint32
	PetLevel       uint32
	PetFamily      uint32
	Equipment      [constants.CharEquipmentSlots]EquipmentSlot
}

// CharEnum [SMSG_CHAR_ENUM 0x03B]: character list of the account on this realm.
//
// Body:
//
//	[count u8]
//	[character]*count
type CharEnum struct {
	Characters []Character
}

// Encode appends the body to b. Used by test servers.
func (p *CharEnum) Encode(b *wire.Buffer) error {
	if len(p.Characters) > 0xFF {
		return fmt.Errorf("CharEnum: too many characters: %d", len(p.Characters))
	}
	b.PutUint8(uint8(len(p.Characters)))
	for i := range p.Characters {
		c := &p.Characters[i]
		b.PutUint64(c.GUID)
		b.PutCString(c.Name)
		for _, v := range []uint8{c.Race, c.Class, c.Gender, c.Skin, c.Face, c.HairStyle, c.HairColor, c.FacialHair, c.Level} {
			b.PutUint8(v)
		}
		b.PutUint32(c.Zone)
		b.PutUint32(c.Map)
		b.PutFloat32(c.X)
		b.PutFloat32(c.Y)
		b.PutFloat32(c.Z)
		b.PutUint32(c.GuildID)
		b.PutUint32(c.Flags)
		b.PutUint32(c.CustomizeFlags)
		b.PutUint8(c.FirstLogin)
		b.PutUint32(c.PetDisplayID)
		b.PutUint32(c.PetLevel)
		b.PutUint32(c.PetFamily)
		for _, e := range c.Equipment {
			b.PutUint32(e.DisplayID)
			b.PutUint8(e.InventoryType)
			b.PutUint32(e.EnchantAura)
		}
	}
	return nil
}

// Parse reads the body.
func (p *CharEnum) Parse(b *wire.Buffer) error {
	return b.Decode(func(b *wire.Buffer) error {
		count, err := b.Uint8()
		if err != nil {
			return err
		}
		chars := make([]Character, count)
		for i := range chars {
			if err := parseCharacter(b, &chars[i]); err != nil {
				return fmt.Errorf("character %d of %d: %w", i+1, count, err)
			}
		}
		p.Characters = chars
		return nil
	})
}

func parseCharacter(b *wire.Buffer, c *Character) error {
	var err error
	if c.GUID, err = b.Uint64(); err != nil {
		return err
	}
	if c.Name, err = b.CString(); err != nil {
		return err
	}
	for _, dst := range []*uint8{&c.Race, &c.Class, &c.Gender, &c.Skin, &c.Face, &c.HairStyle, &c.HairColor, &c.FacialHair, &c.Level} {
		if *dst, err = b.Uint8(); err != nil {
			return err
		}
	}
	for _, dst := range []*uint32{&c.Zone, &c.Map} {
		if *dst, err = b.Uint32(); err != nil {
			return err
		}
	}
	for _, dst := range []*float32{&c.X, &c.Y, &c.Z} {
		if *dst, err = b.Float32(); err != nil {
			return err
		}
	}
	for _, dst := range []*uint32{&c.GuildID, &c.Flags, &c.CustomizeFlags} {
		if *dst, err = b.Uint32(); err != nil {
			return err
		}
	}
	if c.FirstLogin, err = b.Uint8(); err != nil {
		return err
	}
	for _, dst := range []*uint32{&c.PetDisplayID, &c.PetLevel, &c.PetFamily} {
		if *dst, err = b.Uint32(); err != nil {
			return err
		}
	}
	for i := range c.Equipment {
		e := &c.Equipment[i]
		if e.DisplayID, err = b.Uint32(); err != nil {
			return err
		}
		if e.InventoryType, err = b.Uint8(); err != nil {
			return err
		}
		if e.EnchantAura, err = b.Uint32(); err != nil {
			return err
		}
	}
	return nil
}
