package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studyhub/studyhub-server/internal/handlers/testutil"
	"github.com/studyhub/studyhub-server/internal/models"
)

func TestRegisterLoginAndMe(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Alice",
		"email":    "Alice@Example.com",
		"password": "Password123!",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var registered testutil.AuthResult
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &registered)
	require.Equal(t, "alice@example.com", registered.User.Email)
	require.NotContains(t, w.Body.String(), "password_hash")

	// Duplicate emails are rejected regardless of case.
	w = env.Request(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Other",
		"email":    "alice@example.com",
		"password": "Password123!",
	}, "")
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "EMAIL_TAKEN", testutil.DecodeResponse(t, w).Error.Code)

	w = env.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "INVALID_CREDENTIALS", testutil.DecodeResponse(t, w).Error.Code)

	w = env.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "Password123!",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login testutil.AuthResult
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &login)
	require.NotEmpty(t, login.AccessToken)

	w = env.Request(http.MethodGet, "/api/auth/me", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	var me testutil.UserPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &me)
	require.Equal(t, registered.User.ID, me.ID)
	require.Equal(t, "Alice", me.Name)
}

func TestRegisterValidation(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "   ",
		"email":    "not-an-email",
		"password": "short",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := testutil.DecodeResponse(t, w)
	require.Contains(t, resp.Error.Message, "email must be a valid email address")
	require.Contains(t, resp.Error.Message, "password must be at least 8 characters")
}

func TestUpdateAndDeleteAccount(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := env.Register("alice", "Password123!")
	createGroup(t, env, alice.AccessToken, "Owned by Alice")

	w := env.Request(http.MethodPatch, "/api/auth/me", map[string]string{}, alice.AccessToken)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.Request(http.MethodPatch, "/api/auth/me", map[string]string{"name": "Alice Liddell"}, alice.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated testutil.UserPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &updated)
	require.Equal(t, "Alice Liddell", updated.Name)

	w = env.Request(http.MethodDelete, "/api/auth/me", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var groups int64
	require.NoError(t, env.DB.Model(&models.StudyGroup{}).Count(&groups).Error)
	require.Zero(t, groups)

	// The token still parses but the account is gone.
	w = env.Request(http.MethodGet, "/api/auth/me", nil, alice.AccessToken)
	require.Equal(t, http.StatusNotFound, w.Code)
}
