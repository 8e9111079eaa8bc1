package keyset

import (
	"context"
	"crypto/rsa"
	"fmt"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
)

// AutoRefresh is the background-refreshing alternative to Cache: keys are
// kept current by keyfunc's own refresh goroutine instead of being refreshed
// on stale reads. Staleness bounds differ slightly from the read-triggered
// cache; both satisfy Source and are interchangeable in the pipeline.
type AutoRefresh struct {
	kf keyfunc.Keyfunc
}

// NewAutoRefresh constructs an AutoRefresh source for the given key set URI.
// The provided context bounds the lifetime of the refresh goroutine.
func NewAutoRefresh(ctx context.Context, jwksURI string) (*AutoRefresh, error) {
	if jwksURI == "" {
		return nil, fmt.Errorf("key set URI is required")
	}
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURI})
	if err != nil {
		return nil, fmt.Errorf("key set init failed: %w", err)
	}
	return &AutoRefresh{kf: kf}, nil
}

// Snapshot assembles a point-in-time view from keyfunc's storage.
func (a *AutoRefresh) Snapshot(ctx context.Context) (*Snapshot, error) {
	jwks, err := a.kf.Storage().KeyReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read key set storage: %w", err)
	}

	keys := make(map[string]VerificationKey, len(jwks))
	for _, jwk := range jwks {
		m := jwk.Marshal()
		if m.KID == "" {
			continue
		}
		vk := VerificationKey{
			KeyID:     m.KID,
			Family:    string(m.KTY),
			Algorithm: m.ALG.String(),
		}
		if pub, ok := jwk.Key().(*rsa.PublicKey); ok {
			vk.Public = pub
		}
		keys[vk.KeyID] = vk
	}
	return &Snapshot{fetchedAt: time.Now(), keys: keys}, nil
}

var _ Source = (*AutoRefresh)(nil)
var _ Source = (*Cache)(nil)
