package comparator

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "rollcall/pkg/domain-errors"
)

// BcryptFingerprint compares fingerprint sensor tokens against stored bcrypt
// digests. A mismatch is a result, not an error; only a corrupt stored hash
// surfaces as one.
type BcryptFingerprint struct{}

// NewBcryptFingerprint constructs the fingerprint comparator.
func NewBcryptFingerprint() *BcryptFingerprint {
	return &BcryptFingerprint{}
}

func (c *BcryptFingerprint) Compare(ctx context.Context, providedToken, storedHash string) (bool, error) {
	if providedToken == "" {
		return false, dErrors.New(dErrors.CodeInvalidInput, "fingerprint token is empty")
	}

	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(providedToken))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("compare fingerprint hash: %w", err)
}

// HashFingerprintToken produces the bcrypt digest stored at enrollment time.
// Exposed for enrollment tooling and test fixtures.
func HashFingerprintToken(token string) (string, error) {
	if token == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "fingerprint token cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "fingerprint token is too long")
		}
		return "", fmt.Errorf("hash fingerprint token: %w", err)
	}
	return string(hashed), nil
}
