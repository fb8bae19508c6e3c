package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/studyhub/studyhub-server/internal/auth"
	"github.com/studyhub/studyhub-server/internal/cache"
	"github.com/studyhub/studyhub-server/pkg/crypto"
)

const (
	generatedSecretBytes = 48
	defaultIssuer        = "studyhub"
)

// RedisClientConfig maps cache.redis onto the cache package's client options.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	r := c.Redis
	return cache.RedisConfig{
		Address:  strings.TrimSpace(r.Address),
		Username: strings.TrimSpace(r.Username),
		Password: r.Password,
		DB:       r.DB,
		TLS:      r.TLS,
		Timeout:  r.Timeout,
	}
}

// JWTServiceConfig maps auth.jwt onto the token service options.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	out := auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         strings.TrimSpace(c.JWT.Issuer),
		AccessTokenTTL: c.JWT.TTL,
	}
	if out.Issuer == "" {
		out.Issuer = defaultIssuer
	}
	if out.AccessTokenTTL <= 0 {
		out.AccessTokenTTL = auth.DefaultAccessTokenTTL
	}
	return out
}

// ApplyRuntimeDefaults fills values that cannot have a static default and
// returns the config keys it generated. A generated JWT secret only lives for
// the process, so tokens stop verifying after a restart.
func ApplyRuntimeDefaults(cfg *Config) ([]string, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	var generated []string
	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := crypto.GenerateToken(generatedSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		generated = append(generated, "auth.jwt.secret")
	}

	if cfg.Invitations.RateLimit.Requests > 0 && cfg.Invitations.RateLimit.Window <= 0 {
		return generated, errors.New("invitations.rate_limit.window must be positive when requests is set")
	}
	return generated, nil
}
