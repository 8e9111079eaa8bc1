// Package jwtauth validates bearer JWTs against a key set snapshot.
//
// Validation is a strict, short-circuiting sequence: header inspection and
// key-id extraction, snapshot lookup, algorithm family and method
// negotiation, then signature and claims verification. Expiry failures are
// classified as their own kind, distinct from every other invalidity, by
// inspecting the cause of the verification failure rather than re-verifying.
package jwtauth

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ggoodman/authgate-go/apierror"
	"github.com/ggoodman/authgate-go/keyset"
)

// Config carries the claim expectations enforced on every token.
type Config struct {
	// ExpectedAudiences must intersect the token's aud claim.
	ExpectedAudiences []string
	// ExpectedIssuers must contain the token's iss claim.
	ExpectedIssuers []string
	// ValidateNotBefore enables the nbf check.
	ValidateNotBefore bool
	// Leeway is the clock-skew tolerance for time-based claims.
	Leeway time.Duration
}

// Validate verifies token against snap and deserializes its claims into C.
//
// Credential failures come back as KindTokenInvalid or KindTokenExpired;
// only a claims-decode failure after full verification is KindInternal,
// because at that point the credential itself has been accepted.
func Validate[C any](token string, snap *keyset.Snapshot, cfg *Config) (C, *apierror.Error) {
	var zero C

	key, aerr := selectKey(token, snap)
	if aerr != nil {
		return zero, aerr
	}

	method := jwt.GetSigningMethod(key.Algorithm)
	if _, ok := method.(*jwt.SigningMethodRSA); !ok {
		return zero, invalid("key algorithm " + key.Algorithm + " does not map to a known signing method")
	}

	// Signature only; claims are validated below so that the not-before
	// check can be toggled and so failures classify deterministically.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{key.Algorithm}),
		jwt.WithoutClaimsValidation(),
	)
	parsed, err := parser.Parse(token, func(t *jwt.Token) (any, error) {
		return key.Public, nil
	})
	if err != nil {
		return zero, apierror.Wrap(apierror.KindTokenInvalid, "", err).
			WithScheme(apierror.SchemeBearer)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return zero, invalid("unexpected claims representation")
	}

	if aerr := verifyClaims(claims, cfg); aerr != nil {
		return zero, aerr
	}

	// Remarshal into the caller's claims shape.
	b, err := json.Marshal(map[string]any(claims))
	if err != nil {
		return zero, apierror.Wrap(apierror.KindInternal, "claims encode failed", err)
	}
	var out C
	if err := json.Unmarshal(b, &out); err != nil {
		return zero, apierror.Wrap(apierror.KindInternal, "claims decode failed: "+err.Error(), err)
	}
	return out, nil
}

// selectKey parses the unverified token header and resolves its key-id in
// the snapshot. A token without a key-id is terminally invalid; an unknown
// key-id is invalid now but recoverable by the cache's next refresh.
func selectKey(token string, snap *keyset.Snapshot) (keyset.VerificationKey, *apierror.Error) {
	var none keyset.VerificationKey

	unverified, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return none, apierror.Wrap(apierror.KindTokenInvalid, "", err).
			WithScheme(apierror.SchemeBearer)
	}
	kid, ok := unverified.Header["kid"].(string)
	if !ok || kid == "" {
		return none, invalid("token header has no key id")
	}

	key, ok := snap.Key(kid)
	if !ok {
		return none, invalid("no key in the key set matches the token's key id")
	}
	if key.Family != "RSA" {
		return none, invalid("key family " + key.Family + " is not supported")
	}
	if _, ok := key.Public.(*rsa.PublicKey); !ok {
		return none, invalid("key material could not be constructed")
	}
	return key, nil
}

func verifyClaims(claims jwt.MapClaims, cfg *Config) *apierror.Error {
	now := time.Now()

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return invalid("malformed exp claim")
	}
	if exp == nil {
		return invalid("token has no expiry")
	}
	if now.After(exp.Add(cfg.Leeway)) {
		return apierror.Wrap(apierror.KindTokenExpired, "token expired", jwt.ErrTokenExpired).
			WithScheme(apierror.SchemeBearer)
	}

	if cfg.ValidateNotBefore {
		nbf, err := claims.GetNotBefore()
		if err != nil {
			return invalid("malformed nbf claim")
		}
		if nbf != nil && now.Add(cfg.Leeway).Before(nbf.Time) {
			return invalid("token not valid yet")
		}
	}

	if len(cfg.ExpectedAudiences) > 0 {
		aud, err := claims.GetAudience()
		if err != nil {
			return invalid("malformed aud claim")
		}
		if !intersects(aud, cfg.ExpectedAudiences) {
			return invalid("audience mismatch")
		}
	}

	if len(cfg.ExpectedIssuers) > 0 {
		iss, err := claims.GetIssuer()
		if err != nil {
			return invalid("malformed iss claim")
		}
		if !contains(cfg.ExpectedIssuers, iss) {
			return invalid("issuer mismatch")
		}
	}
	return nil
}

func invalid(detail string) *apierror.Error {
	return apierror.New(apierror.KindTokenInvalid, detail).
		WithScheme(apierror.SchemeBearer)
}

func intersects(have []string, want []string) bool {
	wantSet := make(map[string]struct{}, len(want))
	for _, w := range want {
		wantSet[w] = struct{}{}
	}
	for _, h := range have {
		if _, ok := wantSet[h]; ok {
			return true
		}
	}
	return false
}

func contains(set []string, s string) bool {
	for _, e := range set {
		if e == s {
			return true
		}
	}
	return false
}

// IsExpired reports whether aerr classifies as the distinct expiry failure.
func IsExpired(aerr *apierror.Error) bool {
	return aerr != nil && (aerr.Kind == apierror.KindTokenExpired || errors.Is(aerr, jwt.ErrTokenExpired))
}
