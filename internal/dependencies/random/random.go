package random

import (
	"crypto/rand"
	"math/big"
	"time"
)

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Int63n returns a random int64 in [0, n)
	Int63n(n int64) int64
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Int63n returns a cryptographically random int64 in [0, n)
func (r *CryptoRandom) Int63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	result, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		// Fall back to 0 on error (should never happen with crypto/rand)
		return 0
	}
	return result.Int64()
}

// Jitter returns d plus a random extra of up to half of d
func Jitter(r Random, d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(r.Int63n(int64(d)/2+1))
}
