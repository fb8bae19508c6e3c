package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server/internal/api"
	"github.com/studyhub/studyhub-server/internal/app"
	iauth "github.com/studyhub/studyhub-server/internal/auth"
	sharedtestutil "github.com/studyhub/studyhub-server/internal/database/testutil"
	"github.com/studyhub/studyhub-server/internal/realtime"
	"github.com/studyhub/studyhub-server/pkg/crypto"
	"github.com/studyhub/studyhub-server/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	JWT      *iauth.JWTService
	Hub      *realtime.Hub
	Services *api.Services
	Config   *app.Config
}

// EnvOption customises the configuration used by NewEnv.
type EnvOption func(*app.Config)

// WithInvitationRateLimit sets the budget of the invitation validate and accept endpoints.
func WithInvitationRateLimit(requests int, window time.Duration) EnvOption {
	return func(cfg *app.Config) {
		cfg.Invitations.RateLimit = app.RateConfig{Requests: requests, Window: window}
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Cleanup(crypto.SetPasswordCost(bcrypt.MinCost))

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	cfg := &app.Config{
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: "test-suite-super-secret-key-32-bytes!!",
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
		},
		Invitations: app.InvitationConfig{TTL: 7 * 24 * time.Hour},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	hub := realtime.NewHub()
	t.Cleanup(hub.Close)

	svc, err := api.NewServices(db, hub, cfg)
	require.NoError(t, err)

	router, err := api.NewRouter(api.Dependencies{
		DB:       db,
		JWT:      jwtSvc,
		Config:   cfg,
		Services: svc,
		Hub:      hub,
	})
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		JWT:      jwtSvc,
		Hub:      hub,
		Services: svc,
		Config:   cfg,
	}
}

// UserPayload captures the user fields returned from auth endpoints.
type UserPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResult bundles the JSON response from the register and login endpoints.
type AuthResult struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        UserPayload `json:"user"`
}

// Register creates an account with a unique email derived from name and returns the issued token.
func (e *Env) Register(name, password string) AuthResult {
	e.T.Helper()

	payload := map[string]string{
		"name":     name,
		"email":    name + "-" + uuid.NewString()[:8] + "@example.com",
		"password": password,
	}

	w := e.Request(http.MethodPost, "/api/auth/register", payload, "")
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var result AuthResult
	DecodeInto(e.T, resp.Data, &result)
	require.NotEmpty(e.T, result.AccessToken)
	require.NotEmpty(e.T, result.User.ID)
	return result
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
