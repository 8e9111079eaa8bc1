// Package extractor parses raw request headers into candidate credentials.
//
// The three extractors are pure functions over http.Header: they never
// validate credential correctness, only shape. Every failure is reported as
// a typed *apierror.Error and the functions are total otherwise. They share
// no state and may run concurrently.
package extractor

import (
	"encoding/base64"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/ggoodman/authgate-go/apierror"
)

// BasicAuth is a parsed, unverified Basic-auth credential. Password is nil
// when the decoded payload carried no ':' separator.
type BasicAuth struct {
	Username string
	Password *string
}

// APIKey reads the configured API-key header and returns its value.
func APIKey(h http.Header, headerName string) (string, *apierror.Error) {
	vals, ok := h[http.CanonicalHeaderKey(headerName)]
	if !ok || len(vals) == 0 {
		return "", apierror.New(apierror.KindMissingCredential, "API key header "+headerName+" not found")
	}
	key := vals[0]
	if !printableASCII(key) {
		return "", apierror.New(apierror.KindMalformedCredential, "API key header value is not a valid ASCII string")
	}
	return key, nil
}

// Basic reads the Authorization header and decodes a Basic credential pair.
func Basic(h http.Header) (BasicAuth, *apierror.Error) {
	authorization, aerr := authorizationHeader(h, apierror.SchemeBasic)
	if aerr != nil {
		return BasicAuth{}, aerr
	}

	scheme, encoded, found := strings.Cut(authorization, " ")
	if !found || scheme != "Basic" {
		return BasicAuth{}, apierror.New(apierror.KindMalformedCredential, "Authorization header is not Basic").
			WithScheme(apierror.SchemeBasic)
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return BasicAuth{}, apierror.Wrap(apierror.KindDecodeFailure, "", err).
			WithScheme(apierror.SchemeBasic)
	}
	if !utf8.Valid(decoded) {
		return BasicAuth{}, apierror.New(apierror.KindDecodeFailure, "decoded Basic credential is not valid UTF-8").
			WithScheme(apierror.SchemeBasic)
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return BasicAuth{Username: username}, nil
	}
	return BasicAuth{Username: username, Password: &password}, nil
}

// Bearer reads the Authorization header and returns the bearer token value.
func Bearer(h http.Header) (string, *apierror.Error) {
	authorization, aerr := authorizationHeader(h, apierror.SchemeBearer)
	if aerr != nil {
		return "", aerr
	}

	scheme, token, found := strings.Cut(authorization, " ")
	if !found || scheme != "Bearer" {
		return "", apierror.New(apierror.KindMalformedCredential, "Authorization header is not Bearer").
			WithScheme(apierror.SchemeBearer)
	}
	return token, nil
}

func authorizationHeader(h http.Header, scheme string) (string, *apierror.Error) {
	vals, ok := h["Authorization"]
	if !ok || len(vals) == 0 {
		return "", apierror.New(apierror.KindMissingCredential, "Authorization header not found").
			WithScheme(scheme)
	}
	authorization := vals[0]
	if !printableASCII(authorization) {
		return "", apierror.New(apierror.KindMalformedCredential, "Authorization header contains invalid characters").
			WithScheme(scheme)
	}
	return authorization, nil
}

// printableASCII reports whether s contains only visible ASCII plus space
// and horizontal tab, the set permitted in an HTTP field value.
func printableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b != '\t' && (b < 0x20 || b > 0x7e) {
			return false
		}
	}
	return true
}
