package serverpackets

import (
	"fmt"
	"net"
	"strconv"

	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/wire"
)

// Realm flags
const (
	RealmFlagVersionMismatch uint8 = 0x01
	RealmFlagOffline         uint8 = 0x02
	RealmFlagSpecifyBuild    uint8 = 0x04 // record carries the realm's client build
	RealmFlagRecommended     uint8 = 0x20
	RealmFlagNew             uint8 = 0x40
	RealmFlagFull            uint8 = 0x80
)

// Realm is one entry of the realm list. Values are immutable once parsed.
type Realm struct {
	Type       uint8
	Locked     uint8
	Flags      uint8
	Name       string
	Address    string // "host:port"
	Population float32
	Characters uint8
	Timezone   uint8 // realm category
	ID         uint8

	// Present only when Flags has RealmFlagSpecifyBuild.
	Major uint8
	Minor uint8
	Patch uint8
	Build uint16
}

// HostPort splits Address into host and port.
func (r Realm) HostPort() (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(r.Address)
	if err != nil {
		return "", 0, fmt.Errorf("realm %d address %q: %w", r.ID, r.Address, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("realm %d port %q: %w", r.ID, portStr, err)
	}
	return host, uint16(port), nil
}

// Online reports whether the realm accepts logins.
func (r Realm) Online() bool {
	return r.Flags&RealmFlagOffline == 0
}

func (r *Realm) encode(b *wire.Buffer) {
	b.PutUint8(r.Type)
	b.PutUint8(r.Locked)
	b.PutUint8(r.Flags)
	b.PutCString(r.Name)
	b.PutCString(r.Address)
	b.PutFloat32(r.Population)
	b.PutUint8(r.Characters)
	b.PutUint8(r.Timezone)
	b.PutUint8(r.ID)
	if r.Flags&RealmFlagSpecifyBuild != 0 {
		b.PutUint8(r.Major)
		b.PutUint8(r.Minor)
		b.PutUint8(r.Patch)
		b.PutUint16(r.Build)
	}
}

func (r *Realm) parse(b *wire.Buffer) error {
	var err error
	if r.Type, err = b.Uint8(); err != nil {
		return err
	}
	if r.Locked, err = b.Uint8(); err != nil {
		return err
	}
	if r.Flags, err = b.Uint8(); err != nil {
		return err
	}
	if r.Name, err = b.CString(); err != nil {
		return err
	}
	if r.Address, err = b.CString(); err != nil {
		return err
	}
	if r.Population, err = b.Float32(); err != nil {
		return err
	}
	if r.Characters, err = b.Uint8(); err != nil {
		return err
	}
	if r.Timezone, err = b.Uint8(); err != nil {
		return err
	}
	if r.ID, err = b.Uint8(); err != nil {
		return err
	}
	if r.Flags&RealmFlagSpecifyBuild == 0 {
		return nil
	}
	if r.Major, err = b.Uint8(); err != nil {
		return err
	}
	if r.Minor, err = b.Uint8(); err != nil {
		return err
	}
	if r.Patch, err = b.Uint8(); err != nil {
		return err
	}
	r.Build, err = b.Uint16()
	return err
}

// RealmList [0x10]: realm list reply.
//
// Format:
//
//	[opcode 0x10]
//	[size u16]        // bytes after this field
//	[unknown u32]
//	[count u16]
//	[realm]*count
//	[footer u16]      // 0x0010, ignored
type RealmList struct {
	Unknown uint32
	Realms  []Realm
}

const realmListFooter = 0x0010

// Encode appends the packet to b. Used by test servers.
func (p *RealmList) Encode(b *wire.Buffer) error {
	if len(p.Realms) > 0xFFFF {
		return fmt.Errorf("RealmList: too many realms: %d", len(p.Realms))
	}
	start := b.Len()
	b.PutUint8(constants.OpcodeRealmList)
	b.PutUint16(0)
	b.PutUint32(p.Unknown)
	b.PutUint16(uint16(len(p.Realms)))
	for i := range p.Realms {
		p.Realms[i].encode(b)
	}
	b.PutUint16(realmListFooter)

	size := b.Len() - start - 3
	if size > 0xFFFF {
		return fmt.Errorf("RealmList: body too large: %d", size)
	}
	b.PutUint16At(start+1, uint16(size))
	return nil
}

// Parse reads the packet, opcode included. It waits (wire.ErrShortRead) until the
// whole declared size is buffered, then reads exactly count records from it.
// A count that does not fit the declared size fails with ErrMalformed.
func (p *RealmList) Parse(b *wire.Buffer) error {
	return b.Decode(func(b *wire.Buffer) error {
		opcode, err := b.Uint8()
		if err != nil {
			return err
		}
		if opcode != constants.OpcodeRealmList {
			return fmt.Errorf("%w: RealmList opcode 0x%02X", ErrMalformed, opcode)
		}
		size, err := b.Uint16()
		if err != nil {
			return err
		}
		raw, err := b.ReadBytes(int(size))
		if err != nil {
			return err
		}

		body := wire.FromBytes(raw)
		if p.Unknown, err = body.Uint32(); err != nil {
			return fmt.Errorf("%w: RealmList header: %v", ErrMalformed, err)
		}
		count, err := body.Uint16()
		if err != nil {
			return fmt.Errorf("%w: RealmList header: %v", ErrMalformed, err)
		}

		realms := make([]Realm, 0, min(int(count), len(raw)))
		for i := range int(count) {
			var r Realm
			if err := r.parse(body); err != nil {
				return fmt.Errorf("%w: realm %d of %d: %v", ErrMalformed, i+1, count, err)
			}
			realms = append(realms, r)
		}
		p.Realms = realms
		return nil
	})
}
