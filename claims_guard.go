package auth

import (
	"context"
)

// Guard returns the principal attached to ctx or ErrUnauthenticated when the
// request is anonymous. It is the only way principal identity reaches an
// operation.
func Guard(ctx context.Context) (*Claims, error) {
	user, ok := RequestContextFrom(ctx).User()
	if !ok {
		clone := ErrUnauthenticated.Clone()
		if clone == nil {
			return nil, ErrUnauthenticated
		}
		return nil, clone
	}
	return user, nil
}

// ProtectedFunc is the body of an operation that requires a principal.
type ProtectedFunc[T any] func(ctx context.Context, claims *Claims) (T, error)

// Protected wraps fn so it only runs for authenticated requests. For
// anonymous requests the gate error is returned and fn is not invoked.
func Protected[T any](fn ProtectedFunc[T]) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		claims, err := Guard(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		return fn(ctx, claims)
	}
}

// PublicFunc is the body of an operation open to every caller.
type PublicFunc[T any] func(ctx context.Context) (T, error)

// Public marks fn as reachable anonymously. The gate is never consulted.
func Public[T any](fn PublicFunc[T]) func(ctx context.Context) (T, error) {
	return fn
}
