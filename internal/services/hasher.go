package services

import (
	"fmt"

	"heartgram/internal/common"

	"golang.org/x/crypto/bcrypt"
)

// maxSecretBytes is the longest input bcrypt accepts
const maxSecretBytes = 72

// Hasher hashes and verifies secrets with bcrypt. Plaintext secrets are never
// persisted or logged.
type Hasher struct {
	Cost int
	// dummy is compared against when an account does not exist so both paths cost the same
	dummy []byte
}

// NewHasher returns a Hasher with the given bcrypt cost, clamped to the valid range
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("heartgram-dummy-secret"), cost)
	return &Hasher{Cost: cost, dummy: dummy}
}

// ValidateSecretLength rejects secrets bcrypt cannot hash
func ValidateSecretLength(secret string) error {
	if len(secret) > maxSecretBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrValidation, maxSecretBytes)
	}
	return nil
}

// Hash produces a bcrypt hash of secret
func (h *Hasher) Hash(secret string) (string, error) {
	if err := ValidateSecretLength(secret); err != nil {
		return "", err
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies secret against hash in constant time. Returns nil on match.
func (h *Hasher) Compare(hash, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
}

// CompareDummy burns the same work as a real comparison
func (h *Hasher) CompareDummy(secret string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(secret))
}
