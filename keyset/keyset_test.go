package keyset

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
)

func jwksJSON(t *testing.T, keys ...jose.JSONWebKey) []byte {
	t.Helper()
	set := struct {
		Keys []jose.JSONWebKey `json:"keys"`
	}{Keys: keys}
	b, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}
	return b
}

func rsaJWK(t *testing.T, kid string) jose.JSONWebKey {
	t.Helper()
	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	return jose.JSONWebKey{Key: &pk.PublicKey, KeyID: kid, Algorithm: "RS256", Use: "sig"}
}

func ecJWK(t *testing.T, kid string) jose.JSONWebKey {
	t.Helper()
	pk, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("gen ec key: %v", err)
	}
	return jose.JSONWebKey{Key: &pk.PublicKey, KeyID: kid, Algorithm: "ES256", Use: "sig"}
}

func TestNewFatalOnFirstFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := New(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected error for failing initial fetch")
	}
}

func TestSnapshotLookup(t *testing.T) {
	doc := jwksJSON(t, rsaJWK(t, "key-1"), ecJWK(t, "key-2"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	}))
	defer srv.Close()

	c, err := New(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	snap, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Len() != 2 {
		t.Fatalf("len = %d, want 2", snap.Len())
	}

	k, ok := snap.Key("key-1")
	if !ok {
		t.Fatalf("key-1 not found")
	}
	if k.Family != "RSA" || k.Algorithm != "RS256" {
		t.Errorf("key-1 metadata = %+v", k)
	}
	if _, ok := k.Public.(*rsa.PublicKey); !ok {
		t.Errorf("key-1 material not constructed: %T", k.Public)
	}

	// The EC key is retained for classification but carries no material.
	k, ok = snap.Key("key-2")
	if !ok {
		t.Fatalf("key-2 not found")
	}
	if k.Family != "EC" {
		t.Errorf("key-2 family = %q", k.Family)
	}
	if k.Public != nil {
		t.Errorf("key-2 material should not be constructed")
	}

	if _, ok := snap.Key("nope"); ok {
		t.Errorf("unexpected hit for unknown kid")
	}
}

func TestReadTriggeredRefresh(t *testing.T) {
	var serve atomic.Pointer[[]byte]
	first := jwksJSON(t, rsaJWK(t, "old"))
	serve.Store(&first)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(*serve.Load())
	}))
	defer srv.Close()

	c, err := New(context.Background(), srv.URL, WithTTL(0))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	second := jwksJSON(t, rsaJWK(t, "new"))
	serve.Store(&second)

	snap, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, ok := snap.Key("new"); !ok {
		t.Fatalf("expected refreshed snapshot with kid new")
	}
}

func TestStaleSnapshotServedWhenRefreshFails(t *testing.T) {
	var fail atomic.Bool
	doc := jwksJSON(t, rsaJWK(t, "cached"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write(doc)
	}))
	defer srv.Close()

	c, err := New(context.Background(), srv.URL, WithTTL(0), WithLogger(slog.Default()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	fail.Store(true)

	snap, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("stale read returned error: %v", err)
	}
	if _, ok := snap.Key("cached"); !ok {
		t.Fatalf("expected stale snapshot to retain cached key")
	}
}

func TestConcurrentReadsObserveWholeSnapshots(t *testing.T) {
	docA := jwksJSON(t, rsaJWK(t, "a-1"), rsaJWK(t, "a-2"))
	docB := jwksJSON(t, rsaJWK(t, "b-1"), rsaJWK(t, "b-2"))
	var flip atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if flip.Add(1)%2 == 0 {
			_, _ = w.Write(docB)
			return
		}
		_, _ = w.Write(docA)
	}))
	defer srv.Close()

	c, err := New(context.Background(), srv.URL, WithTTL(0))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				snap, err := c.Snapshot(context.Background())
				if err != nil {
					t.Errorf("snapshot: %v", err)
					return
				}
				if snap.Len() != 2 {
					t.Errorf("torn snapshot: %d keys", snap.Len())
					return
				}
				_, a := snap.Key("a-1")
				_, b := snap.Key("b-1")
				if a == b {
					t.Errorf("snapshot mixes generations: a=%v b=%v", a, b)
					return
				}
				if a {
					if _, ok := snap.Key("a-2"); !ok {
						t.Errorf("snapshot missing sibling a-2")
						return
					}
				} else if _, ok := snap.Key("b-2"); !ok {
					t.Errorf("snapshot missing sibling b-2")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestAutoRefreshSource(t *testing.T) {
	doc := jwksJSON(t, rsaJWK(t, "auto-1"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, err := NewAutoRefresh(ctx, srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	snap, err := a.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	k, ok := snap.Key("auto-1")
	if !ok {
		t.Fatalf("auto-1 not found")
	}
	if _, ok := k.Public.(*rsa.PublicKey); !ok {
		t.Fatalf("material not constructed: %T", k.Public)
	}
}

func TestNewFromDiscovery(t *testing.T) {
	doc := jwksJSON(t, rsaJWK(t, "disc-1"))
	mux := http.NewServeMux()
	var issuer string
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":   issuer,
			"jwks_uri": issuer + "/keys",
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(doc)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	issuer = srv.URL

	c, err := NewFromDiscovery(context.Background(), issuer, WithTTL(time.Minute))
	if err != nil {
		t.Fatalf("discovery: %v", err)
	}
	snap, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, ok := snap.Key("disc-1"); !ok {
		t.Fatalf("disc-1 not found")
	}
}
