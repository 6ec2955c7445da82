package common

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandByteArray returns n cryptographically random bytes.
func GenerateRandByteArray(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// RandomHex returns a hex string of n random bytes (2n characters),
// suitable for opaque refresh tokens.
func RandomHex(n int) string {
	return hex.EncodeToString(GenerateRandByteArray(n))
}

// WipeByteArray overwrites the slice with zeros. Use it to remove passwords
// from memory after use.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
