// Package auth issues and verifies the HS256 bearer tokens that identify
// StudyHub users on every authenticated request.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTokenTTL applies when the configuration leaves the TTL unset.
	DefaultAccessTokenTTL = 12 * time.Hour

	clockSkew = 5 * time.Second
)

var (
	errNoSecret  = errors.New("jwt: secret must be provided")
	errNoSubject = errors.New("jwt: user id is required")
)

type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
	Clock          func() time.Time
}

// Claims carries the user identity. UserID duplicates the subject so older
// clients that read "uid" keep working.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// AccessTokenInput is the identity a token is issued for.
type AccessTokenInput struct {
	UserID string
	Email  string
	Name   string
}

type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

type JWTService struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errNoSecret
	}

	s := &JWTService{
		key:    []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.AccessTokenTTL,
		now:    cfg.Clock,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultAccessTokenTTL
	}
	if s.now == nil {
		s.now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithLeeway(clockSkew),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	s.parser = jwt.NewParser(opts...)
	return s, nil
}

func (s *JWTService) TTL() time.Duration { return s.ttl }

// GenerateAccessToken signs a token for input that expires after the
// configured TTL.
func (s *JWTService) GenerateAccessToken(input AccessTokenInput) (IssuedToken, error) {
	if input.UserID == "" {
		return IssuedToken{}, errNoSubject
	}

	issuedAt := s.now()
	out := IssuedToken{ID: uuid.NewString(), ExpiresAt: issuedAt.Add(s.ttl)}

	claims := Claims{
		UserID: input.UserID,
		Email:  input.Email,
		Name:   input.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        out.ID,
			Subject:   input.UserID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(out.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("jwt: sign token: %w", err)
	}
	out.Token = signed
	return out, nil
}

// ValidateAccessToken verifies signature, algorithm, expiry and issuer. The
// returned error wraps the jwt package sentinel that failed.
func (s *JWTService) ValidateAccessToken(raw string) (*Claims, error) {
	if raw == "" {
		return nil, fmt.Errorf("jwt: %w", jwt.ErrTokenMalformed)
	}

	claims := new(Claims)
	if _, err := s.parser.ParseWithClaims(raw, claims, s.keyFunc); err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, errNoSubject
	}
	return claims, nil
}

func (s *JWTService) keyFunc(*jwt.Token) (any, error) {
	return s.key, nil
}
