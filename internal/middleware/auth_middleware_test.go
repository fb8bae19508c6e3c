package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/studyhub/studyhub-server/internal/auth"
)

func newAuthTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "secret",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Minute,
	})
	require.NoError(t, err)

	issued, err := jwtSvc.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: "user-123",
		Email:  "alice@example.com",
	})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/secure", Auth(jwtSvc), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(CtxUserIDKey),
			"email":   c.GetString(CtxUserEmailKey),
		})
	})
	return r, issued.Token
}

func TestAuthMiddleware(t *testing.T) {
	r, token := newAuthTestRouter(t)

	// Missing Authorization header -> 401
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	// Garbage token -> 401
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token -> downstream handler executes
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Equal(t, "user-123", payload["user_id"])
	require.Equal(t, "alice@example.com", payload["email"])
}

func TestAuthMiddlewareQueryTokenOnlyForWebSockets(t *testing.T) {
	r, token := newAuthTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure?access_token="+token, nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure?access_token="+token, nil)
	req.Header.Set("Upgrade", "websocket")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
