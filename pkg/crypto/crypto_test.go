package crypto

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	defer SetPasswordCost(bcrypt.MinCost)()

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	require.True(t, VerifyPassword(hash, "correct horse"))
	require.False(t, VerifyPassword(hash, "incorrect"))
	require.False(t, VerifyPassword("not-a-hash", "correct horse"))

	_, err = HashPassword("")
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestSetPasswordCost(t *testing.T) {
	restore := SetPasswordCost(1)
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, bcrypt.MinCost, cost)

	restore()
	require.EqualValues(t, bcrypt.DefaultCost, passwordCost.Load())
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(32)
	require.NoError(t, err)
	require.Len(t, token, 43)

	other, err := GenerateToken(32)
	require.NoError(t, err)
	require.NotEqual(t, token, other)

	_, err = GenerateToken(0)
	require.Error(t, err)
}

func TestNewInvitationToken(t *testing.T) {
	token, err := NewInvitationToken()
	require.NoError(t, err)

	parsed, err := uuid.Parse(token)
	require.NoError(t, err)
	require.Equal(t, uuid.Version(4), parsed.Version())
	require.Equal(t, token, parsed.String())
}
