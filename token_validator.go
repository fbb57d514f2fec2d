package auth

import (
	"context"
)

// MultiTokenVerifier tries verifiers in order until one succeeds.
// It treats ErrTokenMalformed as "try next" and returns the last malformed
// error if all verifiers fail.
type MultiTokenVerifier struct {
	verifiers []TokenVerifier
}

// NewMultiTokenVerifier filters nil verifiers and returns a composite verifier.
func NewMultiTokenVerifier(verifiers ...TokenVerifier) *MultiTokenVerifier {
	filtered := make([]TokenVerifier, 0, len(verifiers))
	for _, v := range verifiers {
		if v != nil {
			filtered = append(filtered, v)
		}
	}
	return &MultiTokenVerifier{verifiers: filtered}
}

// Verify satisfies the TokenVerifier interface.
func (m *MultiTokenVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	var lastErr error
	for _, v := range m.verifiers {
		claims, err := v.Verify(ctx, token)
		if err == nil {
			return claims, nil
		}
		if IsMalformedError(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrTokenMalformed
}
