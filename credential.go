package authgate

// RawCredential is a parsed, not-yet-verified credential. The three kinds
// form a closed union consumed by the authorization step.
type RawCredential interface {
	rawCredential()
}

// APIKey is an unverified API key header value.
type APIKey string

// BasicAuth is an unverified Basic-auth pair. Password is nil when the
// decoded credential carried no ':' separator.
type BasicAuth struct {
	Username string
	Password *string
}

// BearerToken is an unverified bearer token value.
type BearerToken string

func (APIKey) rawCredential()      {}
func (BasicAuth) rawCredential()   {}
func (BearerToken) rawCredential() {}

// Principal is the authenticated identity accepted for a request: one of the
// three credential kinds in validated form.
type Principal interface {
	principal()
}

// ValidatedAPIKey is an API key confirmed against the allow-list oracle.
type ValidatedAPIKey struct {
	Key string
}

// ValidatedBasicAuth is a Basic-auth pair confirmed by the oracle.
type ValidatedBasicAuth struct {
	Username string
	Password *string
}

// ValidatedClaims is the deserialized claims shape of a fully verified
// bearer token. It is only constructed after verification succeeds and is
// produced per request, never cached.
type ValidatedClaims[C any] struct {
	Value C
}

func (ValidatedAPIKey) principal()    {}
func (ValidatedBasicAuth) principal() {}
func (ValidatedClaims[C]) principal() {}
