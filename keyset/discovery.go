package keyset

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// NewFromDiscovery resolves the key set URI through OpenID Connect discovery
// on the issuer and constructs a Cache for it. Use this when only the issuer
// is configured and the jwks_uri should follow whatever the authorization
// server publishes.
func NewFromDiscovery(ctx context.Context, issuer string, opts ...Option) (*Cache, error) {
	if issuer == "" {
		return nil, fmt.Errorf("issuer is required")
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery failed: %w", err)
	}
	var meta struct {
		JwksURI string `json:"jwks_uri"`
	}
	if err := provider.Claims(&meta); err != nil {
		return nil, fmt.Errorf("invalid discovery metadata: %w", err)
	}
	if meta.JwksURI == "" {
		return nil, fmt.Errorf("discovery metadata has no jwks_uri")
	}
	return New(ctx, meta.JwksURI, opts...)
}
