// Package authgate is a request-time authentication and credential
// verification layer for HTTP services.
//
// It extracts API keys, HTTP Basic credentials and bearer JWTs from request
// headers, verifies them against allow-list oracles and a TTL-cached
// published key set, and converts every failure into a structured,
// severity-classified error whose wire representation is governed by a
// configurable disclosure level (see the apierror package).
//
// The Authenticator composes the pieces; it performs no parsing and no
// caching of its own, it only sequences the extractors, the verifier and the
// oracles and preserves the first failure encountered:
//
//	src, err := keyset.New(ctx, "https://issuer.example.com/keys")
//	if err != nil {
//		// the very first key set fetch is fatal: there is nothing to fall back to
//		log.Fatal(err)
//	}
//
//	a := authgate.New(
//		authgate.WithVerbosity(apierror.VerbosityMessage),
//		authgate.WithAPIKeyProvider(allowlist.NewStatic([]string{"key1"}, nil)),
//		authgate.WithKeySource(src),
//		authgate.WithAudiences("https://api.example.com"),
//		authgate.WithIssuers("https://issuer.example.com"),
//	)
//
//	mux.Handle("/protected", authgate.RequireJWT[MyClaims](a, handler))
package authgate
