// Package keyset maintains the published verification key set used to check
// bearer token signatures.
//
// The primary implementation, Cache, is a TTL-based snapshot cache with
// read-triggered refresh: a stale read attempts one fetch, and a failed
// refresh serves the previous snapshot rather than taking authentication
// down with the upstream. AutoRefresh is the background-refreshing
// alternative built on keyfunc.
package keyset

import (
	"context"
	"crypto"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/MicahParks/jwkset"
)

// VerificationKey is one entry of a Snapshot: key material plus the
// algorithm metadata needed to negotiate the concrete signing method.
type VerificationKey struct {
	KeyID string
	// Family is the key type tag from the published document ("RSA", "EC",
	// "OKP", "oct").
	Family string
	// Algorithm is the declared signing algorithm ("RS256", ...), possibly
	// empty when the publisher omitted it.
	Algorithm string
	// Public is the constructed verification key. Nil when the key family
	// is unsupported or the numeric parameters were unusable.
	Public crypto.PublicKey
}

// Snapshot is an immutable view of the key set taken at one fetch. Consumers
// hold it only for the duration of a single verification.
type Snapshot struct {
	fetchedAt time.Time
	keys      map[string]VerificationKey
}

// Key looks up a verification key by key-id.
func (s *Snapshot) Key(kid string) (VerificationKey, bool) {
	k, ok := s.keys[kid]
	return k, ok
}

// FetchedAt returns the time the snapshot was taken.
func (s *Snapshot) FetchedAt() time.Time { return s.fetchedAt }

// Len returns the number of keys in the snapshot.
func (s *Snapshot) Len() int { return len(s.keys) }

// Source yields key set snapshots. Cache and AutoRefresh both satisfy it.
type Source interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the maximum snapshot age before a read triggers a refresh.
// Defaults to 2 hours.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) { c.ttl = d }
}

// WithHTTPClient sets the client used for key set fetches.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Cache) { c.client = hc }
}

// WithLogger sets the slog logger used for refresh diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// Cache holds the current key set snapshot and refreshes it from the
// configured URI when a read finds it older than the TTL.
//
// The snapshot pointer is the only shared mutable state: readers take it
// under a read lock, the refresh path swaps it under the write lock, and the
// network fetch happens outside both so readers are never blocked on I/O.
// Refreshes are not single-flight; concurrent stale reads may race fetches,
// which is idempotent but wasteful.
type Cache struct {
	ttl    time.Duration
	uri    string
	client *http.Client
	log    *slog.Logger

	mu   sync.RWMutex
	snap *Snapshot
}

// New constructs a Cache and performs a blocking initial fetch. The initial
// fetch is fatal on failure: with no snapshot to fall back to, starting up
// without keys would make every bearer verification fail open-endedly.
func New(ctx context.Context, jwksURI string, opts ...Option) (*Cache, error) {
	if jwksURI == "" {
		return nil, fmt.Errorf("key set URI is required")
	}
	c := &Cache{
		ttl:    2 * time.Hour,
		uri:    jwksURI,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	snap, err := c.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial key set fetch: %w", err)
	}
	c.snap = snap
	return c, nil
}

// Snapshot returns the current key set, refreshing it first when stale. A
// failed refresh is logged and the stale snapshot is returned so that a
// temporary upstream outage does not reject tokens signed with cached keys.
func (c *Cache) Snapshot(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()

	if time.Since(snap.fetchedAt) <= c.ttl {
		return snap, nil
	}

	fresh, err := c.fetch(ctx)
	if err != nil {
		c.log.ErrorContext(ctx, "keyset.refresh.fail",
			slog.String("uri", c.uri),
			slog.String("err", err.Error()))
		return snap, nil
	}

	c.mu.Lock()
	c.snap = fresh
	c.mu.Unlock()

	c.log.DebugContext(ctx, "keyset.refresh.ok", slog.Int("keys", fresh.Len()))
	return fresh, nil
}

func (c *Cache) fetch(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build key set request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch key set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("key set endpoint returned status %d", resp.StatusCode)
	}
	doc, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read key set body: %w", err)
	}
	return parseSnapshot(doc, time.Now(), c.log)
}

// parseSnapshot builds an immutable snapshot from a published JWKS document.
// Keys of unsupported families are retained with nil material so that the
// verifier can distinguish "unknown kid" from "known but unusable key".
func parseSnapshot(doc []byte, now time.Time, log *slog.Logger) (*Snapshot, error) {
	var marshal jwkset.JWKSMarshal
	if err := json.Unmarshal(doc, &marshal); err != nil {
		return nil, fmt.Errorf("parse key set document: %w", err)
	}

	keys := make(map[string]VerificationKey, len(marshal.Keys))
	for _, m := range marshal.Keys {
		if m.KID == "" {
			continue
		}
		vk := VerificationKey{
			KeyID:     m.KID,
			Family:    string(m.KTY),
			Algorithm: m.ALG.String(),
		}
		if m.KTY == jwkset.KtyRSA {
			jwk, err := jwkset.NewJWKFromMarshal(m, jwkset.JWKMarshalOptions{}, jwkset.JWKValidateOptions{})
			if err != nil {
				log.Warn("keyset.key.unusable",
					slog.String("kid", m.KID),
					slog.String("err", err.Error()))
			} else if pub, ok := jwk.Key().(*rsa.PublicKey); ok {
				vk.Public = pub
			}
		}
		keys[vk.KeyID] = vk
	}

	return &Snapshot{fetchedAt: now, keys: keys}, nil
}
