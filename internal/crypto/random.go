package crypto

import (
	"crypto/rand"
	"fmt"
)

// RandomBytes returns n bytes from the system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("reading %d random bytes: %w", n, err)
	}
	return buf, nil
}

// RandomSeed returns a random 4-byte connection seed.
func RandomSeed() ([4]byte, error) {
	var seed [4]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return seed, fmt.Errorf("reading random seed: %w", err)
	}
	return seed, nil
}
