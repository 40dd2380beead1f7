package clientpackets

import "github.com/udisondev/realmgo/internal/wire"

// Ping [CMSG_PING 0x1DC]: keepalive; the server echoes Seq in SMSG_PONG.
//
// Body:
//
//	[seq u32]
//	[latency u32] // last measured round trip, ms
type Ping struct {
	Seq     uint32
	Latency uint32
}

// Encode appends the body to b.
func (p *Ping) Encode(b *wire.Buffer) error {
	b.PutUint32(p.Seq)
	b.PutUint32(p.Latency)
	return nil
}

// Parse reads the body.
func (p *Ping) Parse(b *wire.Buffer) error {
	return b.Decode(func(b *wire.Buffer) error {
		var err error
		if p.Seq, err = b.Uint32(); err != nil {
			return err
		}
		p.Latency, err = b.Uint32()
		return err
	})
}

// CharEnum [CMSG_CHAR_ENUM 0x037] has no body.
type CharEnum struct{}

// Encode appends nothing.
func (CharEnum) Encode(*wire.Buffer) error { return nil }
