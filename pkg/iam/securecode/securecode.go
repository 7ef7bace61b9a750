// Package securecode issues and checks the one-time numeric codes sent with
// user invitations. Only bcrypt hashes of codes are ever stored.
package securecode

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/karua/hostcore/pkg/errx"
	"golang.org/x/crypto/bcrypt"
)

// DefaultLength is the number of digits in an invite code.
const DefaultLength = 6

// Generate returns a cryptographically random numeric code of length digits,
// keeping leading zeros.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", errx.Wrap(err, "failed to generate secure code", errx.TypeInternal)
	}

	return fmt.Sprintf("%0*d", length, n), nil
}

// Hash returns the bcrypt hash stored in place of the code.
func Hash(code string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		return "", errx.Wrap(err, "failed to hash secure code", errx.TypeInternal)
	}
	return string(h), nil
}

// Verify compares a candidate code with a stored hash. A mismatch is
// (false, nil); an error means the stored hash itself is unusable.
func Verify(candidate, storedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, errx.Wrap(err, "stored secure code hash is malformed", errx.TypeInternal)
	}
}

// IsWellFormed reports whether code is exactly length ASCII digits.
func IsWellFormed(code string, length int) bool {
	if length <= 0 {
		length = DefaultLength
	}
	if len(code) != length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// Expired reports whether a code issued at issuedAt is past ttl. A zero ttl
// never expires; a missing issue time with a ttl counts as expired.
func Expired(issuedAt *time.Time, ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	if issuedAt == nil {
		return true
	}
	return now.After(issuedAt.Add(ttl))
}
