package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// minSecretLength is the shortest HMAC secret accepted, 256 bits for HS256.
const minSecretLength = 32

// JWTConfig describes how agency bearer tokens are verified. Tokens are issued by
// the identity provider with a shared HMAC secret.
type JWTConfig struct {
	Secret          string
	ExpirationHours int           // lifetime of tokens minted by the token command
	Issuer          string        // required "iss" when set
	Audience        string        // required "aud" when set
	Leeway          time.Duration // clock skew tolerated on exp/nbf/iat
}

// NewJWTConfig reads JWT settings from the environment:
//
//	JWT_SECRET (required), JWT_EXPIRATION_HOURS (default 24), JWT_ISSUER,
//	JWT_AUDIENCE, JWT_LEEWAY (duration, default 30s)
func NewJWTConfig() (*JWTConfig, error) {
	cfg := &JWTConfig{
		Secret:          os.Getenv("JWT_SECRET"),
		ExpirationHours: 24,
		Issuer:          strings.TrimSpace(os.Getenv("JWT_ISSUER")),
		Audience:        strings.TrimSpace(os.Getenv("JWT_AUDIENCE")),
		Leeway:          30 * time.Second,
	}

	if v := os.Getenv("JWT_EXPIRATION_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
		}
		cfg.ExpirationHours = hours
	}
	if v := os.Getenv("JWT_LEEWAY"); v != "" {
		leeway, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_LEEWAY: %v", err)
		}
		cfg.Leeway = leeway
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the secret strength and numeric bounds.
func (c *JWTConfig) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if len(c.Secret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes, got %d", minSecretLength, len(c.Secret))
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	if c.Leeway < 0 {
		return fmt.Errorf("JWT_LEEWAY must not be negative")
	}
	return nil
}
