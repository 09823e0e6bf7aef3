// Package password wraps bcrypt hashing and verification for user
// credentials. Digests are self-describing (salt and cost are embedded), so
// verification needs nothing beyond the digest itself.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashing      = errors.New("error hashing password")
	ErrVerification = errors.New("error verifying password")
)

// Cost 10 keeps hashing slow enough to resist offline brute force without
// stalling the signin path.
const hashCost = 10

// bcrypt only consumes the first 72 bytes of input; longer passwords are
// truncated rather than rejected, since validation allows up to 100 chars.
const maxInputBytes = 72

// Hash derives a salted bcrypt digest from the plaintext. A fresh random
// salt is generated on every call, so hashing the same password twice yields
// different digests.
func Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(truncate(plaintext), hashCost)
	if err != nil {
		// Never include the plaintext in the wrapped error.
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return string(digest), nil
}

func truncate(plaintext string) []byte {
	b := []byte(plaintext)
	if len(b) > maxInputBytes {
		b = b[:maxInputBytes]
	}
	return b
}

// Verify reports whether plaintext matches the digest. A mismatch is a
// false result, not an error; only infrastructure failures (such as a
// malformed digest) produce an error. Comparison is constant-time.
func Verify(plaintext, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), truncate(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrVerification, err)
}
