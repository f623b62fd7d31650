package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrOperatorLoginDisabled is returned when no operator key hash is
// configured.
var ErrOperatorLoginDisabled = errors.New("operator login disabled")

// VerifyOperatorKey checks a presented API key against the configured
// bcrypt hash.
func VerifyOperatorKey(hash, key string) error {
	if hash == "" {
		return ErrOperatorLoginDisabled
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
}

// HashOperatorKey produces a bcrypt hash suitable for the
// AUTH_OPERATOR_KEY_HASH setting.
func HashOperatorKey(key string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
