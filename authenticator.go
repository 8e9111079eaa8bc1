package authgate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ggoodman/authgate-go/apierror"
	"github.com/ggoodman/authgate-go/extractor"
	"github.com/ggoodman/authgate-go/internal/jwtauth"
	"github.com/ggoodman/authgate-go/keyset"
)

// DefaultAPIKeyHeader is the header consulted for API keys unless
// WithAPIKeyHeader overrides it.
const DefaultAPIKeyHeader = "x-api-key"

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithVerbosity sets the error disclosure level. Defaults to
// apierror.VerbosityMessage.
func WithVerbosity(v apierror.Verbosity) Option {
	return func(a *Authenticator) { a.verbosity = v }
}

// WithAPIKeyHeader sets the header name consulted for API keys.
func WithAPIKeyHeader(name string) Option {
	return func(a *Authenticator) { a.apiKeyHeader = name }
}

// WithAPIKeyProvider sets the allow-list oracle for API keys.
func WithAPIKeyProvider(p APIKeyProvider) Option {
	return func(a *Authenticator) { a.keys = p }
}

// WithBasicAuthProvider sets the allow-list oracle for Basic-auth pairs.
func WithBasicAuthProvider(p BasicAuthProvider) Option {
	return func(a *Authenticator) { a.basicAuth = p }
}

// WithKeySource sets the key set source used for bearer token verification.
func WithKeySource(s keyset.Source) Option {
	return func(a *Authenticator) { a.source = s }
}

// WithAudiences sets the audiences a token's aud claim must intersect.
func WithAudiences(auds ...string) Option {
	return func(a *Authenticator) { a.jwt.ExpectedAudiences = append([]string(nil), auds...) }
}

// WithIssuers sets the accepted token issuers.
func WithIssuers(issuers ...string) Option {
	return func(a *Authenticator) { a.jwt.ExpectedIssuers = append([]string(nil), issuers...) }
}

// WithNotBeforeValidation enables the nbf claim check.
func WithNotBeforeValidation() Option {
	return func(a *Authenticator) { a.jwt.ValidateNotBefore = true }
}

// WithLeeway sets clock-skew tolerance for time-based claims.
func WithLeeway(d time.Duration) Option {
	return func(a *Authenticator) { a.jwt.Leeway = d }
}

// WithLogger sets the slog logger for operational diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Authenticator) { a.log = l }
}

// Authenticator composes the credential extractors, the bearer token
// verifier and the allow-list oracles into the end-to-end decision used by
// request handlers. It sequences calls and preserves the first failure; it
// does no caching and no parsing of its own.
type Authenticator struct {
	verbosity    apierror.Verbosity
	apiKeyHeader string
	keys         APIKeyProvider
	basicAuth    BasicAuthProvider
	source       keyset.Source
	jwt          jwtauth.Config
	log          *slog.Logger
}

// New constructs an Authenticator. Every collaborator is optional; the
// corresponding Authenticate method reports an internal failure when its
// collaborator is absent.
func New(opts ...Option) *Authenticator {
	a := &Authenticator{
		verbosity:    apierror.VerbosityMessage,
		apiKeyHeader: DefaultAPIKeyHeader,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Verbosity returns the configured error disclosure level.
func (a *Authenticator) Verbosity() apierror.Verbosity { return a.verbosity }

// ExtractAPIKey parses the API key header without consulting the oracle.
func (a *Authenticator) ExtractAPIKey(h http.Header) (APIKey, *apierror.Error) {
	key, aerr := extractor.APIKey(h, a.apiKeyHeader)
	if aerr != nil {
		return "", aerr
	}
	return APIKey(key), nil
}

// AuthenticateAPIKey extracts the API key and confirms it against the
// allow-list oracle.
func (a *Authenticator) AuthenticateAPIKey(ctx context.Context, h http.Header) (ValidatedAPIKey, *apierror.Error) {
	key, aerr := a.ExtractAPIKey(h)
	if aerr != nil {
		return ValidatedAPIKey{}, aerr
	}
	if a.keys == nil {
		return ValidatedAPIKey{}, apierror.New(apierror.KindInternal, "no API key provider configured")
	}
	if err := a.keys.ValidateKey(ctx, string(key)); err != nil {
		if errors.Is(err, ErrCredentialRejected) {
			return ValidatedAPIKey{}, apierror.New(apierror.KindInvalidCredential, "API key is not in the allow list")
		}
		return ValidatedAPIKey{}, apierror.Wrap(apierror.KindInternal, "", err)
	}
	a.log.DebugContext(ctx, "auth.api_key.ok")
	return ValidatedAPIKey{Key: string(key)}, nil
}

// ExtractBasicAuth parses the Basic credential without authenticating it.
func (a *Authenticator) ExtractBasicAuth(h http.Header) (BasicAuth, *apierror.Error) {
	ba, aerr := extractor.Basic(h)
	if aerr != nil {
		return BasicAuth{}, aerr
	}
	return BasicAuth{Username: ba.Username, Password: ba.Password}, nil
}

// AuthenticateBasicAuth extracts the Basic pair and confirms it with the
// oracle.
func (a *Authenticator) AuthenticateBasicAuth(ctx context.Context, h http.Header) (ValidatedBasicAuth, *apierror.Error) {
	ba, aerr := a.ExtractBasicAuth(h)
	if aerr != nil {
		return ValidatedBasicAuth{}, aerr
	}
	if a.basicAuth == nil {
		return ValidatedBasicAuth{}, apierror.New(apierror.KindInternal, "no basic auth provider configured")
	}
	if err := a.basicAuth.Authenticate(ctx, ba.Username, ba.Password); err != nil {
		if errors.Is(err, ErrCredentialRejected) {
			return ValidatedBasicAuth{}, apierror.New(apierror.KindInvalidCredential, "basic auth credentials rejected").
				WithScheme(apierror.SchemeBasic)
		}
		return ValidatedBasicAuth{}, apierror.Wrap(apierror.KindInternal, "", err)
	}
	a.log.DebugContext(ctx, "auth.basic.ok", slog.String("user", ba.Username))
	return ValidatedBasicAuth{Username: ba.Username, Password: ba.Password}, nil
}

// ExtractBearerToken parses the bearer token without verifying it.
func (a *Authenticator) ExtractBearerToken(h http.Header) (BearerToken, *apierror.Error) {
	token, aerr := extractor.Bearer(h)
	if aerr != nil {
		return "", aerr
	}
	return BearerToken(token), nil
}

// AuthenticateJWT extracts the bearer token and fully verifies it against
// the current key set snapshot, deserializing its claims into C.
//
// A generic function rather than a method: Go methods cannot introduce type
// parameters.
func AuthenticateJWT[C any](ctx context.Context, a *Authenticator, h http.Header) (ValidatedClaims[C], *apierror.Error) {
	var zero ValidatedClaims[C]

	token, aerr := a.ExtractBearerToken(h)
	if aerr != nil {
		return zero, aerr
	}
	if a.source == nil {
		return zero, apierror.New(apierror.KindInternal, "no key set source configured")
	}
	snap, err := a.source.Snapshot(ctx)
	if err != nil {
		return zero, apierror.Wrap(apierror.KindInternal, "", err)
	}
	claims, aerr := jwtauth.Validate[C](string(token), snap, &a.jwt)
	if aerr != nil {
		return zero, aerr
	}
	a.log.DebugContext(ctx, "auth.jwt.ok")
	return ValidatedClaims[C]{Value: claims}, nil
}

// RequireRoles checks role-based authorization, deliberately kept distinct
// from token validity: it accepts when the principal's roles intersect the
// allowed set.
func RequireRoles(have []string, allowed ...string) *apierror.Error {
	for _, h := range have {
		for _, want := range allowed {
			if h == want {
				return nil
			}
		}
	}
	return apierror.New(apierror.KindInsufficientRole, "principal has none of the allowed roles")
}
