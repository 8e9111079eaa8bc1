package authgate

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ggoodman/authgate-go/apierror"
	"github.com/ggoodman/authgate-go/internal/logctx"
)

// principalContextKey keys the accepted Principal in the request context.
type principalContextKey struct{}

// PrincipalFromContext retrieves the accepted credential stored by one of
// the Require middlewares.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// ClaimsFromContext retrieves the validated claims of type C stored by
// RequireJWT.
func ClaimsFromContext[C any](ctx context.Context) (C, bool) {
	var zero C
	p, ok := ctx.Value(principalContextKey{}).(ValidatedClaims[C])
	if !ok {
		return zero, false
	}
	return p.Value, true
}

func withPrincipal(r *http.Request, p Principal, scheme, subject string) *http.Request {
	ctx := context.WithValue(r.Context(), principalContextKey{}, p)
	ctx = logctx.WithAuthData(ctx, &logctx.AuthData{Scheme: scheme, Subject: subject})
	return r.WithContext(ctx)
}

// RequireAPIKey guards next behind API key authentication.
func (a *Authenticator) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, aerr := a.AuthenticateAPIKey(r.Context(), r.Header)
		if aerr != nil {
			apierror.WriteTo(w, aerr, a.verbosity)
			return
		}
		next.ServeHTTP(w, withPrincipal(r, p, "api_key", p.Key))
	})
}

// OptionalAPIKey admits requests without the API key header as anonymous;
// a present-but-rejected key still fails.
func (a *Authenticator) OptionalAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, aerr := a.AuthenticateAPIKey(r.Context(), r.Header)
		if aerr != nil {
			if aerr.Kind == apierror.KindMissingCredential {
				next.ServeHTTP(w, r)
				return
			}
			apierror.WriteTo(w, aerr, a.verbosity)
			return
		}
		next.ServeHTTP(w, withPrincipal(r, p, "api_key", p.Key))
	})
}

// RequireBasicAuth guards next behind Basic authentication.
func (a *Authenticator) RequireBasicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, aerr := a.AuthenticateBasicAuth(r.Context(), r.Header)
		if aerr != nil {
			apierror.WriteTo(w, aerr, a.verbosity)
			return
		}
		next.ServeHTTP(w, withPrincipal(r, p, "basic", p.Username))
	})
}

// RequireJWT guards next behind bearer token verification, storing the
// validated claims of type C in the request context.
func RequireJWT[C any](a *Authenticator, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, aerr := AuthenticateJWT[C](r.Context(), a, r.Header)
		if aerr != nil {
			apierror.WriteTo(w, aerr, a.verbosity)
			return
		}
		next.ServeHTTP(w, withPrincipal(r, p, "bearer", ""))
	})
}

// TraceHeaders assigns each request an id, echoes it in the X-Request-Id
// response header, and threads request data into the logging context.
func TraceHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := logctx.WithRequestData(r.Context(), &logctx.RequestData{
			RequestID:  id,
			Method:     r.Method,
			Path:       r.URL.Path,
			UserAgent:  r.UserAgent(),
			RemoteAddr: r.RemoteAddr,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
