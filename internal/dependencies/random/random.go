package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Random provides entropy for token generation and can be mocked for testing
type Random interface {
	// Hex returns n random bytes, hex-encoded (2n characters)
	Hex(n int) (string, error)
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Hex returns n cryptographically random bytes, hex-encoded
func (r *CryptoRandom) Hex(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid byte count %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
