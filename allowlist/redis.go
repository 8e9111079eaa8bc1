package allowlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"github.com/ggoodman/authgate-go"
)

// RedisConfig configures the Redis-backed allow list. Defaults can be loaded
// via envdecode.
type RedisConfig struct {
	// Addr like "localhost:6379". ENV: REDIS_ADDR
	Addr string `env:"REDIS_ADDR,default=localhost:6379"`
	// KeyPrefix for all keys. ENV: ALLOWLIST_KEY_PREFIX
	KeyPrefix string `env:"ALLOWLIST_KEY_PREFIX,default=authgate:"`
}

// Redis is an allow list held in Redis: API keys in a set, Basic-auth users
// in a hash of username to password. Suited for deployments where keys are
// revoked centrally at runtime.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects a Redis-backed allow list and verifies connectivity.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	cl := redis.NewClient(&redis.Options{Addr: addr})
	if err := cl.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "authgate:"
	}
	return &Redis{client: cl, prefix: prefix}, nil
}

// NewRedisFromEnv builds a Redis allow list using envdecode to populate
// RedisConfig.
func NewRedisFromEnv() (*Redis, error) {
	var cfg RedisConfig
	_ = envdecode.Decode(&cfg)
	return NewRedis(cfg)
}

// NewRedisWithClient wraps an existing client. Ownership of the client stays
// with the caller.
func NewRedisWithClient(client *redis.Client, keyPrefix string) *Redis {
	if keyPrefix == "" {
		keyPrefix = "authgate:"
	}
	return &Redis{client: client, prefix: keyPrefix}
}

// Close closes the underlying client.
func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) keysKey() string  { return r.prefix + "api_keys" }
func (r *Redis) usersKey() string { return r.prefix + "basic_users" }

func (r *Redis) ValidateKey(ctx context.Context, key string) error {
	ok, err := r.client.SIsMember(ctx, r.keysKey(), key).Result()
	if err != nil {
		return fmt.Errorf("redis allowlist lookup: %w", err)
	}
	if !ok {
		return authgate.ErrCredentialRejected
	}
	return nil
}

func (r *Redis) Authenticate(ctx context.Context, username string, password *string) error {
	want, err := r.client.HGet(ctx, r.usersKey(), username).Result()
	if errors.Is(err, redis.Nil) {
		return authgate.ErrCredentialRejected
	}
	if err != nil {
		return fmt.Errorf("redis allowlist lookup: %w", err)
	}
	return comparePassword(want, password)
}

var (
	_ authgate.APIKeyProvider    = (*Redis)(nil)
	_ authgate.BasicAuthProvider = (*Redis)(nil)
)
