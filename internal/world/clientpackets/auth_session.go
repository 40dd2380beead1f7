package clientpackets

import (
	"fmt"

	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/crypto"
	"github.com/udisondev/realmgo/internal/wire"
)

// AuthSession [CMSG_AUTH_SESSION 0x1ED]: proves the session key to the world server.
// Sent with a plaintext header, the last packet before the stream cipher starts.
//
// Body:
//
//	[build u32]
//	[login_server_id u32]     // 0
//	[account cstring]         // uppercased
//	[login_server_type u32]   // 0
//	[client_seed [4]byte]
//	[region_id u32]           // 0
//	[battlegroup_id u32]      // 0
//	[realm_id u32]
//	[dos_response u64]        // 0
//	[digest [20]byte]         // SHA1(account, [4]0, client_seed, server_seed, K)
//	[addon_info u8-prefixed]  // empty
type AuthSession struct {
	Build           uint32
	LoginServerID   uint32
	Account         string
	LoginServerType uint32
	ClientSeed      [4]byte
	RegionID        uint32
	BattlegroupID   uint32
	RealmID         uint32
	DOSResponse     uint64
	Digest          crypto.SHA1Digest
	AddonInfo       []byte
}

// HeaderSize returns the size field of the frame header, opcode included.
func (p *AuthSession) HeaderSize() int {
	return constants.AuthSessionFixedSize + len(p.Account) + len(p.AddonInfo)
}

// Encode appends the body to b.
func (p *AuthSession) Encode(b *wire.Buffer) error {
	b.PutUint32(p.Build)
	b.PutUint32(p.LoginServerID)
	b.PutCString(p.Account)
	b.PutUint32(p.LoginServerType)
	b.PutBytes(p.ClientSeed[:])
	b.PutUint32(p.RegionID)
	b.PutUint32(p.BattlegroupID)
	b.PutUint32(p.RealmID)
	b.PutUint64(p.DOSResponse)
	b.PutBytes(p.Digest[:])
	if err := b.PutPrefixedBytes(p.AddonInfo); err != nil {
		return fmt.Errorf("AuthSession addon info: %w", err)
	}
	return nil
}

// Parse reads the body. Used by test servers.
func (p *AuthSession) Parse(b *wire.Buffer) error {
	return b.Decode(func(b *wire.Buffer) error {
		var err error
		if p.Build, err = b.Uint32(); err != nil {
			return err
		}
		if p.LoginServerID, err = b.Uint32(); err != nil {
			return err
		}
		if p.Account, err = b.CString(); err != nil {
			return err
		}
		if p.LoginServerType, err = b.Uint32(); err != nil {
			return err
		}
		if err := b.ReadInto(p.ClientSeed[:]); err != nil {
			return err
		}
		if p.RegionID, err = b.Uint32(); err != nil {
			return err
		}
		if p.BattlegroupID, err = b.Uint32(); err != nil {
			return err
		}
		if p.RealmID, err = b.Uint32(); err != nil {
			return err
		}
		if p.DOSResponse, err = b.Uint64(); err != nil {
			return err
		}
		if err := b.ReadInto(p.Digest[:]); err != nil {
			return err
		}
		p.AddonInfo, err = b.PrefixedBytes()
		return err
	})
}

// AuthDigest computes the session proof sent in AuthSession.
func AuthDigest(account string, clientSeed, serverSeed [4]byte, sessionKey []byte) crypto.SHA1Digest {
	var zero [4]byte
	return crypto.SHA1Of(account, zero, clientSeed, serverSeed, sessionKey)
}
