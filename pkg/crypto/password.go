// Package crypto wraps the password hashing and random token generation
// used for accounts, invitations and generated secrets.
package crypto

import (
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmptyPassword = errors.New("crypto: password is empty")

	passwordCost atomic.Int32
)

func init() {
	passwordCost.Store(int32(bcrypt.DefaultCost))
}

// SetPasswordCost changes the bcrypt cost for hashes created afterwards and
// returns a func restoring the previous cost. Test suites lower it to keep
// account setup fast; existing hashes verify regardless of cost.
func SetPasswordCost(cost int) (restore func()) {
	cost = max(bcrypt.MinCost, min(cost, bcrypt.MaxCost))
	prev := passwordCost.Swap(int32(cost))
	return func() { passwordCost.Store(prev) }
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), int(passwordCost.Load()))
	if err != nil {
		return "", fmt.Errorf("crypto: hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash. A malformed hash
// simply fails to match.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
