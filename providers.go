package authgate

import (
	"context"
	"errors"
)

// ErrCredentialRejected is the sentinel an oracle returns when a credential
// is well-formed but not acceptable (unknown API key, wrong password). Any
// other error from an oracle is treated as an internal failure, not a
// credential failure.
var ErrCredentialRejected = errors.New("credential rejected")

// APIKeyProvider is the allow-list oracle for API keys.
type APIKeyProvider interface {
	// ValidateKey returns nil for an accepted key, ErrCredentialRejected
	// for a rejected one, and any other error for an internal failure.
	ValidateKey(ctx context.Context, key string) error
}

// BasicAuthProvider is the allow-list oracle for Basic-auth pairs.
type BasicAuthProvider interface {
	// Authenticate returns nil for an accepted pair, ErrCredentialRejected
	// for a rejected one, and any other error for an internal failure.
	// Password is nil when the credential carried none.
	Authenticate(ctx context.Context, username string, password *string) error
}
