package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// GenerateToken returns n random bytes encoded as unpadded base64url.
func GenerateToken(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("crypto: token length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("crypto: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewInvitationToken returns a version 4 UUID string: 122 random bits in
// the canonical 36 character form that users paste into the join dialog.
func NewInvitationToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("crypto: invitation token: %w", err)
	}
	return id.String(), nil
}
