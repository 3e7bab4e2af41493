// Package auth issues and checks credentials: bcrypt password hashes, signed access tokens,
// and the revocation list that makes logout stick until a token would have expired anyway.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed login, whatever the reason.
var ErrInvalidCredentials = errors.New("invalid username or password")

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password with a stored hash.
// A mismatch is ErrInvalidCredentials; anything else means the hash itself is bad.
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}
	return err
}
