package clientpackets

import (
	"fmt"

	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/wire"
)

// LogonChallenge [0x00]: first client packet, announces the client build and account.
//
// Format:
//
//	[opcode 0x00]
//	[protocol u8]      // 8
//	[size u16]         // bytes after this field: 30 + len(username)
//	[game [4]byte]     // reversed, "WoW" -> "\x00WoW"
//	[major u8][minor u8][patch u8]
//	[build u16]
//	[platform [4]byte] // reversed
//	[os [4]byte]       // reversed
//	[locale [4]byte]   // reversed
//	[timezone u32]
//	[ip u32]           // always 0
//	[username u8-prefixed]
type LogonChallenge struct {
	Game     string
	Major    uint8
	Minor    uint8
	Patch    uint8
	Build    uint16
	Platform string
	OS       string
	Locale   string
	Timezone uint32
	IP       uint32
	Username string
}

// Encode appends the packet to b.
func (p *LogonChallenge) Encode(b *wire.Buffer) error {
	if len(p.Username) > 255 {
		return fmt.Errorf("LogonChallenge: username too long: %d", len(p.Username))
	}
	game, err := reversedTag(p.Game)
	if err != nil {
		return fmt.Errorf("LogonChallenge game: %w", err)
	}
	platform, err := reversedTag(p.Platform)
	if err != nil {
		return fmt.Errorf("LogonChallenge platform: %w", err)
	}
	os, err := reversedTag(p.OS)
	if err != nil {
		return fmt.Errorf("LogonChallenge os: %w", err)
	}
	locale, err := reversedTag(p.Locale)
	if err != nil {
		return fmt.Errorf("LogonChallenge locale: %w", err)
	}

	b.PutUint8(constants.OpcodeAuthLogonChallenge)
	b.PutUint8(constants.AuthProtocolVersion)
	b.PutUint16(uint16(constants.ChallengeFixedSize + len(p.Username)))
	b.PutBytes(game[:])
	b.PutUint8(p.Major)
	b.PutUint8(p.Minor)
	b.PutUint8(p.Patch)
	b.PutUint16(p.Build)
	b.PutBytes(platform[:])
	b.PutBytes(os[:])
	b.PutBytes(locale[:])
	b.PutUint32(p.Timezone)
	b.PutUint32(p.IP)
	return b.PutPrefixedBytes([]byte(p.Username))
}

// Parse reads the packet, opcode included. Used by test servers.
func (p *LogonChallenge) Parse(b *wire.Buffer) error {
	return b.Decode(func(b *wire.Buffer) error {
		opcode, err := b.Uint8()
		if err != nil {
			return err
		}
		if opcode != constants.OpcodeAuthLogonChallenge {
			return fmt.Errorf("LogonChallenge: unexpected opcode 0x%02X", opcode)
		}
		if _, err := b.Uint8(); err != nil {
			return err
		}
		size, err := b.Uint16()
		if err != nil {
			return err
		}
		start := b.Pos()

		var tag [4]byte
		if err := b.ReadInto(tag[:]); err != nil {
			return err
		}
		p.Game = unreversedTag(tag)
		if p.Major, err = b.Uint8(); err != nil {
			return err
		}
		if p.Minor, err = b.Uint8(); err != nil {
			return err
		}
		if p.Patch, err = b.Uint8(); err != nil {
			return err
		}
		if p.Build, err = b.Uint16(); err != nil {
			return err
		}
		for _, dst := range []*string{&p.Platform, &p.OS, &p.Locale} {
			if err := b.ReadInto(tag[:]); err != nil {
				return err
			}
			*dst = unreversedTag(tag)
		}
		if p.Timezone, err = b.Uint32(); err != nil {
			return err
		}
		if p.IP, err = b.Uint32(); err != nil {
			return err
		}
		user, err := b.PrefixedBytes()
		if err != nil {
			return err
		}
		p.Username = string(user)

		if got := b.Pos() - start; got != int(size) {
			return fmt.Errorf("LogonChallenge: size field %d, body %d", size, got)
		}
		return nil
	})
}

// reversedTag stores s byte-reversed in a zero padded 4-byte field.
func reversedTag(s string) ([4]byte, error) {
	var out [4]byte
	if len(s) > len(out) {
		return out, fmt.Errorf("tag %q longer than 4 bytes", s)
	}
	for i := range len(s) {
		out[i] = s[len(s)-1-i]
	}
	return out, nil
}

func unreversedTag(tag [4]byte) string {
	n := 0
	for n < len(tag) && tag[n] != 0 {
		n++
	}
	out := make([]byte, n)
	for i := range n {
		out[i] = tag[n-1-i]
	}
	return string(out)
}
