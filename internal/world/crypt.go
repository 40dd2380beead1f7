package world

import (
	"errors"
	"fmt"

	"github.com/udisondev/realmgo/internal/constants"
	"github.com/udisondev/realmgo/internal/crypto"
	"github.com/udisondev/realmgo/internal/srp6"
)

// ErrCryptNotInitialized is returned when a header is processed before Init.
var ErrCryptNotInitialized = errors.New("world: crypt not initialized")

// HMAC seeds deriving the two ARC4 keys from the session key. Named from the
// server's point of view: the server encrypts with the first, the client decrypts.
var (
	serverEncryptionKey = []byte{0xCC, 0x98, 0xAE, 0x04, 0xE8, 0x97, 0xEA, 0xCA, 0x12, 0xDD, 0xC0, 0x93, 0x42, 0x91, 0x53, 0x57}
	serverDecryptionKey = []byte{0xC2, 0xB3, 0x72, 0x3C, 0xC6, 0xAE, 0xD9, 0xB5, 0x34, 0x3C, 0x53, 0xEE, 0x2F, 0x43, 0x67, 0xCE}
)

// Crypt is the ARC4-drop1024 header cipher pair of a world connection.
// Only packet headers pass through it. Not safe for concurrent use.
type Crypt struct {
	decrypt *crypto.ARC4
	encrypt *crypto.ARC4
}

// Init keys the cipher pair for the client side of the link.
func (c *Crypt) Init(key srp6.SessionKey) error {
	return c.init(key, serverEncryptionKey, serverDecryptionKey)
}

// InitServer keys the cipher pair for the server side of the link:
// the directions are swapped relative to Init.
func (c *Crypt) InitServer(key srp6.SessionKey) error {
	return c.init(key, serverDecryptionKey, serverEncryptionKey)
}

func (c *Crypt) init(key srp6.SessionKey, decryptSeed, encryptSeed []byte) error {
	dec, err := crypto.NewARC4(crypto.HMACSHA1Of(decryptSeed, key).Bytes())
	if err != nil {
		return fmt.Errorf("keying decrypt cipher: %w", err)
	}
	enc, err := crypto.NewARC4(crypto.HMACSHA1Of(encryptSeed, key).Bytes())
	if err != nil {
		return fmt.Errorf("keying encrypt cipher: %w", err)
	}
	dec.Drop(constants.CipherDropBytes)
	enc.Drop(constants.CipherDropBytes)

	c.decrypt = dec
	c.encrypt = enc
	return nil
}

// IsInitialized reports whether Init (or InitServer) has run.
func (c *Crypt) IsInitialized() bool {
	return c.decrypt != nil && c.encrypt != nil
}

// DecryptRecv decrypts inbound header bytes in place.
func (c *Crypt) DecryptRecv(data []byte) error {
	if !c.IsInitialized() {
		return ErrCryptNotInitialized
	}
	c.decrypt.Apply(data)
	return nil
}

// EncryptSend encrypts outbound header bytes in place.
func (c *Crypt) EncryptSend(data []byte) error {
	if !c.IsInitialized() {
		return ErrCryptNotInitialized
	}
	c.encrypt.Apply(data)
	return nil
}
