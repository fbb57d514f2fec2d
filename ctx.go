package auth

import (
	"context"
)

var requestCtxKey = &contextKey{"request"}

type contextKey struct {
	name string
}

// RequestContext is the per-request authentication state visible to every
// operation. The zero value is the anonymous context.
type RequestContext struct {
	user *Claims
}

// NewRequestContext wraps a verification result. A nil user yields the
// anonymous context.
func NewRequestContext(user *Claims) RequestContext {
	return RequestContext{user: user}
}

// AnonymousContext returns a context without a principal.
func AnonymousContext() RequestContext {
	return RequestContext{}
}

// User returns the verified claims, if any.
func (rc RequestContext) User() (*Claims, bool) {
	return rc.user, rc.user != nil
}

// IsAnonymous reports whether no principal is attached.
func (rc RequestContext) IsAnonymous() bool {
	return rc.user == nil
}

// WithRequestContext attaches rc to ctx. A request context is set once: if
// ctx already carries one it is returned unchanged.
func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	if HasRequestContext(ctx) {
		return ctx
	}
	return context.WithValue(ctx, requestCtxKey, rc)
}

// RequestContextFrom returns the request context stored in ctx, or the
// anonymous context when none was attached.
func RequestContextFrom(ctx context.Context) RequestContext {
	if ctx == nil {
		return AnonymousContext()
	}
	rc, _ := ctx.Value(requestCtxKey).(RequestContext)
	return rc
}

// HasRequestContext reports whether ctx already carries a request context.
func HasRequestContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	_, ok := ctx.Value(requestCtxKey).(RequestContext)
	return ok
}

// ClaimsFromContext is a shortcut for RequestContextFrom(ctx).User().
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	return RequestContextFrom(ctx).User()
}

// ContextBuilder runs the credential verifier for an inbound request and
// produces its RequestContext.
type ContextBuilder struct {
	verifier *CredentialVerifier
}

// NewContextBuilder creates a builder using the given verifier.
func NewContextBuilder(verifier *CredentialVerifier) *ContextBuilder {
	return &ContextBuilder{verifier: verifier}
}

// Build verifies the raw Authorization header value and returns the
// resulting context. It never fails.
func (b *ContextBuilder) Build(ctx context.Context, header string) RequestContext {
	if b == nil {
		return AnonymousContext()
	}
	return NewRequestContext(b.verifier.Verify(ctx, header))
}

// Attach builds the request context and stores it in ctx. When ctx already
// carries a request context the verifier is not called again.
func (b *ContextBuilder) Attach(ctx context.Context, header string) context.Context {
	if HasRequestContext(ctx) {
		return ctx
	}
	return WithRequestContext(ctx, b.Build(ctx, header))
}
