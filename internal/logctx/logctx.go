// Package logctx enriches slog records with request-scoped data carried in
// the context, so that every log line emitted during a request carries the
// same correlation attributes without threading them explicitly.
package logctx

import (
	"context"
	"log/slog"
)

// Handler wraps a slog.Handler and appends context-carried groups to every
// record.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		r.AddAttrs(slog.Group("req",
			slog.String("id", rd.RequestID),
			slog.String("method", rd.Method),
			slog.String("path", rd.Path),
			slog.String("user_agent", rd.UserAgent),
			slog.String("remote_addr", rd.RemoteAddr),
		))
	}

	if ad, ok := ctx.Value(authDataKey{}).(*AuthData); ok {
		r.AddAttrs(slog.Group("auth",
			slog.String("scheme", ad.Scheme),
			slog.String("subject", ad.Subject),
		))
	}

	return h.Handler.Handle(ctx, r)
}

type requestDataKey struct{}

// RequestData identifies one in-flight HTTP request.
type RequestData struct {
	RequestID  string
	Method     string
	Path       string
	UserAgent  string
	RemoteAddr string
}

func WithRequestData(ctx context.Context, data *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, data)
}

type authDataKey struct{}

// AuthData records the accepted credential for a request, set once
// authentication succeeds.
type AuthData struct {
	// Scheme is the credential kind: "api_key", "basic" or "bearer".
	Scheme string
	// Subject is the authenticated identity (API key owner, username, or
	// token subject).
	Subject string
}

func WithAuthData(ctx context.Context, data *AuthData) context.Context {
	return context.WithValue(ctx, authDataKey{}, data)
}
