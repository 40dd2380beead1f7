package serverpackets

import (
	"fmt"

	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/wire"
)

// AuthChallenge [SMSG_AUTH_CHALLENGE 0x1EC]: plaintext, first world packet.
//
// Body:
//
//	[marker u32]       // 1
//	[server_seed [4]byte]
//	[seeds [32]byte]   // two 16-byte seeds, unused by the client
type AuthChallenge struct {
	Marker     uint32
	ServerSeed [4]byte
	Seeds      [32]byte
}

// Encode appends the body to b. Used by test servers.
func (p *AuthChallenge) Encode(b *wire.Buffer) error {
	b.PutUint32(p.Marker)
	b.PutBytes(p.ServerSeed[:])
	b.PutBytes(p.Seeds[:])
	return nil
}

// Parse reads the marker and server seed. Trailing seeds are left for the
// caller, which skips them by the frame size.
func (p *AuthChallenge) Parse(b *wire.Buffer) error {
	return b.Decode(func(b *wire.Buffer) error {
		var err error
		if p.Marker, err = b.Uint32(); err != nil {
			return err
		}
		if p.Marker != constants.AuthChallengeMarker {
			return fmt.Errorf("AuthChallenge: unexpected marker %d", p.Marker)
		}
		if err := b.ReadInto(p.ServerSeed[:]); err != nil {
			return err
		}
		if b.Remaining() >= len(p.Seeds) {
			return b.ReadInto(p.Seeds[:])
		}
		return nil
	})
}

// AuthResponse [SMSG_AUTH_RESPONSE 0x1EE]: result of CMSG_AUTH_SESSION.
//
// Body:
//
//	[status u8]                 // 12 = AUTH_OK, 27 = AUTH_WAIT_QUEUE
//	AUTH_OK:
//	  [billing_time_remaining u32]
//	  [billing_plan_flags u8]
//	  [billing_time_rested u32]
//	  [expansion u8]
//	AUTH_WAIT_QUEUE:
//	  [queue_position u32]
//
// Fields after status are optional; short bodies leave them zero.
type AuthResponse struct {
	Status               uint8
	BillingTimeRemaining uint32
	BillingPlanFlags     uint8
	BillingTimeRested    uint32
	Expansion            uint8
	QueuePosition        uint32
}

// Encode appends the body to b. Used by test servers.
func (p *AuthResponse) Encode(b *wire.Buffer) error {
	b.PutUint8(p.Status)
	switch p.Status {
	case constants.AuthResponseOK:
		b.PutUint32(p.BillingTimeRemaining)
		b.PutUint8(p.BillingPlanFlags)
		b.PutUint32(p.BillingTimeRested)
		b.PutUint8(p.Expansion)
	case constants.AuthResponseWaitQueue:
		b.PutUint32(p.QueuePosition)
	}
	return nil
}

// Parse reads the body.
func (p *AuthResponse) Parse(b *wire.Buffer) error {
	return b.Decode(func(b *wire.Buffer) error {
		var err error
		if p.Status, err = b.Uint8(); err != nil {
			return err
		}
		switch p.Status {
		case constants.AuthResponseOK:
			if b.Remaining() < 10 {
				return nil
			}
			if p.BillingTimeRemaining, err = b.Uint32(); err != nil {
				return err
			}
			if p.BillingPlanFlags, err = b.Uint8(); err != nil {
				return err
			}
			if p.BillingTimeRested, err = b.Uint32(); err != nil {
				return err
			}
			p.Expansion, err = b.Uint8()
			return err
		case constants.AuthResponseWaitQueue:
			if b.Remaining() < 4 {
				return nil
			}
			p.QueuePosition, err = b.Uint32()
			return err
		}
		return nil
	})
}

// Pong [SMSG_PONG 0x1DD] echoes the ping sequence number.
type Pong struct {
	Seq uint32
}

// Encode appends the body to b. Used by test servers.
func (p *Pong) Encode(b *wire.Buffer) error {
	b.PutUint32(p.Seq)
	return nil
}

// Parse reads the body.
func (p *Pong) Parse(b *wire.Buffer) error {
	return b.Decode(func(b *wire.Buffer) error {
		var err error
		p.Seq, err = b.Uint32()
		return err
	})
}
