package apierror

import (
	"log/slog"
	"net/http"
)

// Kind identifies the class of an authentication failure. The HTTP status
// code and the client-facing summary message are a pure function of the kind;
// the optional detail is the only part that varies with verbosity.
type Kind string

const (
	// KindMissingCredential: the expected credential header was absent.
	KindMissingCredential Kind = "missing_credential"
	// KindMalformedCredential: the header was present but not parseable
	// (invalid characters, wrong scheme token).
	KindMalformedCredential Kind = "malformed_credential"
	// KindDecodeFailure: the credential failed base64 or UTF-8 decoding.
	KindDecodeFailure Kind = "decode_failure"
	// KindInvalidCredential: a well-formed credential was rejected by the
	// allow-list oracle.
	KindInvalidCredential Kind = "invalid_credential"
	// KindTokenExpired: a bearer token with a valid signature whose expiry
	// has passed. Kept distinct from KindTokenInvalid so callers can react
	// differently (e.g. prompt a silent refresh).
	KindTokenExpired Kind = "token_expired"
	// KindTokenInvalid: any other bearer token verification failure.
	KindTokenInvalid Kind = "token_invalid"
	// KindInsufficientRole: the principal authenticated but lacks a required
	// role.
	KindInsufficientRole Kind = "insufficient_role"
	// KindInternal: a failure unrelated to the presented credential (key-set
	// fetch, claims deserialization).
	KindInternal Kind = "internal_server_error"
)

// Challenge schemes carried on errors that warrant a WWW-Authenticate header.
const (
	SchemeBasic  = "Basic"
	SchemeBearer = "Bearer"
)

// Error is the single typed failure produced by every extraction and
// verification step. No untyped error reaches the response layer.
type Error struct {
	// Kind classifies the failure and fixes its status code and summary.
	Kind Kind
	// Detail carries the internal reason (decode error text, underlying
	// library error, expected-schema hint). Serialized only at
	// VerbosityFull; always logged.
	Detail string
	// Scheme is the WWW-Authenticate challenge scheme to emit with the
	// response, or empty for credentials that carry no challenge.
	Scheme string

	cause error
}

// Status returns the HTTP status code fixed by the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindMissingCredential, KindMalformedCredential, KindDecodeFailure,
		KindTokenExpired, KindTokenInvalid:
		return http.StatusUnauthorized
	case KindInvalidCredential, KindInsufficientRole:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// Summary returns the fixed human-readable message for the error kind.
func (e *Error) Summary() string {
	switch e.Kind {
	case KindMissingCredential:
		return "Credential not found"
	case KindMalformedCredential:
		return "Credential is malformed"
	case KindDecodeFailure:
		return "Credential could not be decoded"
	case KindInvalidCredential:
		return "Credential is not valid"
	case KindTokenExpired:
		return "Token has expired"
	case KindTokenInvalid:
		return "Token is not valid"
	case KindInsufficientRole:
		return "Insufficient role"
	}
	return "An internal server error has occurred"
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind) + ": " + e.Summary()
	}
	return string(e.Kind) + ": " + e.Summary() + ": " + e.Detail
}

func (e *Error) Unwrap() error { return e.cause }

// WithScheme tags the error with a WWW-Authenticate challenge scheme.
func (e *Error) WithScheme(scheme string) *Error {
	e.Scheme = scheme
	return e
}

// New constructs an Error and emits its diagnostic log record. The record is
// emitted unconditionally, independent of the configured verbosity, because
// operators need visibility even when clients do not: internal failures log
// at Error level, credential rejections at Warn level.
func New(kind Kind, detail string) *Error {
	e := &Error{Kind: kind, Detail: detail}
	logRecord(e)
	return e
}

// Wrap is New with an underlying cause preserved for errors.Is/As chains.
// The cause's text becomes the detail when no explicit detail is given.
func Wrap(kind Kind, detail string, cause error) *Error {
	if detail == "" && cause != nil {
		detail = cause.Error()
	}
	e := &Error{Kind: kind, Detail: detail, cause: cause}
	logRecord(e)
	return e
}

func logRecord(e *Error) {
	attrs := []any{
		slog.String("kind", string(e.Kind)),
		slog.Int("status", e.Status()),
	}
	if e.Detail != "" {
		attrs = append(attrs, slog.String("detail", e.Detail))
	}
	if e.Kind == KindInternal {
		slog.Error("auth.error.internal", attrs...)
		return
	}
	slog.Warn("auth.credential.rejected", attrs...)
}
