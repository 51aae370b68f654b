package random

import (
	"crypto/rand"
	"encoding/base64"
)

// Random produces the unguessable identifiers the services hand out:
// transaction ids and session tokens
type Random interface {
	// Token returns prefix followed by n random bytes, base64url encoded
	Token(prefix string, n int) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

func (r *CryptoRandom) Token(prefix string, n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}
