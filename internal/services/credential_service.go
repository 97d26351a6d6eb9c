package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"heartgram/internal/common"
	"heartgram/internal/models"
)

const (
	codeAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	secretAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// OperatorSecretLength is used for admin-provisioned couple accounts
	OperatorSecretLength = 10
	// MemberSecretLength is used for imported guests
	MemberSecretLength = 8

	maxCodeAttempts = 10
)

// CodeChecker reports whether an event code is already in use
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// CredentialGenerator produces event codes and provisional secrets from crypto/rand
type CredentialGenerator struct {
	codes CodeChecker
}

func NewCredentialGenerator(codes CodeChecker) *CredentialGenerator {
	return &CredentialGenerator{codes: codes}
}

// NewTenantCode returns an 8-character [A-Z0-9] code not currently in use.
// The insert's unique constraint still has the final say.
func (g *CredentialGenerator) NewTenantCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomString(codeAlphabet, models.TenantCodeLength)
		if err != nil {
			return "", err
		}
		exists, err := g.codes.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: could not allocate a unique event code after %d attempts", common.ErrInternal, maxCodeAttempts)
}

// NewSecret returns a random printable secret of length n.
// Look-alike characters (0/O, 1/l/I) are left out.
func (g *CredentialGenerator) NewSecret(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("%w: secret length must be positive", common.ErrValidation)
	}
	return randomString(secretAlphabet, n)
}

func randomString(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("%w: entropy source: %v", common.ErrInternal, err)
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}
