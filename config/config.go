// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"

	"github.com/ggoodman/authgate-go/apierror"
)

// Config is the environment-driven configuration for an authgate-backed
// service. Slice values are semicolon separated.
type Config struct {
	// ListenAddr like ":8080". ENV: LISTEN_ADDR
	ListenAddr string `env:"LISTEN_ADDR,default=:8080"`

	// ErrorVerbosity is one of none, status, message, type, full.
	// ENV: ERROR_VERBOSITY
	ErrorVerbosity string `env:"ERROR_VERBOSITY,default=message"`

	// APIKeyHeader is the request header consulted for API keys.
	// ENV: API_KEY_HEADER
	APIKeyHeader string `env:"API_KEY_HEADER,default=x-api-key"`

	// APIKeys is the static API key allow list. ENV: API_KEYS
	APIKeys []string `env:"API_KEYS"`

	// BasicUsers holds user:password entries. ENV: BASIC_USERS
	BasicUsers []string `env:"BASIC_USERS"`

	// AllowlistFile switches the allow list to a watched JSON file when
	// set. ENV: ALLOWLIST_FILE
	AllowlistFile string `env:"ALLOWLIST_FILE"`

	// JWKSURI is the published key set endpoint. ENV: JWKS_URI
	JWKSURI string `env:"JWKS_URI"`

	// Issuer is the accepted token issuer; when JWKSURI is empty the key
	// set location is discovered from it. ENV: JWT_ISSUER
	Issuer string `env:"JWT_ISSUER"`

	// Audiences the token's aud claim must intersect. ENV: JWT_AUDIENCES
	Audiences []string `env:"JWT_AUDIENCES"`

	// KeySetTTL is the maximum key set age before a read triggers a
	// refresh. ENV: KEYSET_TTL
	KeySetTTL time.Duration `env:"KEYSET_TTL,default=2h"`

	// ValidateNotBefore enables the nbf claim check. ENV: JWT_VALIDATE_NBF
	ValidateNotBefore bool `env:"JWT_VALIDATE_NBF,default=false"`

	// Leeway is clock-skew tolerance for time-based claims. ENV: JWT_LEEWAY
	Leeway time.Duration `env:"JWT_LEEWAY,default=60s"`
}

// Load decodes and validates configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if _, err := cfg.Verbosity(); err != nil {
		return nil, err
	}
	if cfg.KeySetTTL <= 0 {
		return nil, fmt.Errorf("KEYSET_TTL must be positive, got %s", cfg.KeySetTTL)
	}
	return &cfg, nil
}

// Verbosity parses the configured error disclosure level.
func (c *Config) Verbosity() (apierror.Verbosity, error) {
	return apierror.ParseVerbosity(c.ErrorVerbosity)
}

// BasicUserMap expands the user:password entries into a map. An entry
// without a colon maps the username to an empty password.
func (c *Config) BasicUserMap() map[string]string {
	users := make(map[string]string, len(c.BasicUsers))
	for _, entry := range c.BasicUsers {
		if entry == "" {
			continue
		}
		user, pass, _ := strings.Cut(entry, ":")
		users[user] = pass
	}
	return users
}
