// Package apierror defines the failure taxonomy shared by every credential
// extraction and verification step, and the verbosity-driven policy that
// shapes how those failures are serialized to clients.
//
// The taxonomy is deliberately small and closed: each Kind fixes an HTTP
// status code and a summary message, and only the optional detail varies
// with the configured Verbosity. Business logic never branches on
// verbosity; the policy is applied exactly once, in Render.
package apierror
