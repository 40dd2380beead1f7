package crypto

import (
	"crypto/rc4"
	"fmt"
)

// ARC4 is a keystream cipher. Encryption and decryption are the same
// operation, so one instance serves one direction of a connection.
type ARC4 struct {
	cipher *rc4.Cipher
}

// NewARC4 keys a new ARC4 instance.
func NewARC4(key []byte) (*ARC4, error) {
	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating arc4 cipher: %w", err)
	}
	return &ARC4{cipher: c}, nil
}

// Apply XORs data in-place with the next len(data) bytes of keystream.
func (a *ARC4) Apply(data []byte) {
	a.cipher.XORKeyStream(data, data)
}

// Drop discards n bytes of keystream.
func (a *ARC4) Drop(n int) {
	a.Apply(make([]byte, n))
}
