// Package allowlist provides allow-list oracle implementations for the
// authenticator: a static in-memory list, a file-backed list with hot
// reload, and a Redis-backed list.
package allowlist

import (
	"context"
	"crypto/subtle"

	"github.com/ggoodman/authgate-go"
)

// Static is a fixed in-memory allow list, suitable for configuration-driven
// deployments. It is immutable after construction and safe for concurrent
// use.
type Static struct {
	keys  map[string]struct{}
	users map[string]string
}

// NewStatic builds a Static allow list from API keys and username/password
// pairs. A nil request password is compared as the empty string.
func NewStatic(apiKeys []string, basicUsers map[string]string) *Static {
	s := &Static{
		keys:  make(map[string]struct{}, len(apiKeys)),
		users: make(map[string]string, len(basicUsers)),
	}
	for _, k := range apiKeys {
		s.keys[k] = struct{}{}
	}
	for u, p := range basicUsers {
		s.users[u] = p
	}
	return s
}

func (s *Static) ValidateKey(_ context.Context, key string) error {
	if _, ok := s.keys[key]; !ok {
		return authgate.ErrCredentialRejected
	}
	return nil
}

func (s *Static) Authenticate(_ context.Context, username string, password *string) error {
	want, ok := s.users[username]
	if !ok {
		return authgate.ErrCredentialRejected
	}
	return comparePassword(want, password)
}

func comparePassword(want string, got *string) error {
	var g string
	if got != nil {
		g = *got
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(g)) != 1 {
		return authgate.ErrCredentialRejected
	}
	return nil
}

var (
	_ authgate.APIKeyProvider    = (*Static)(nil)
	_ authgate.BasicAuthProvider = (*Static)(nil)
)
