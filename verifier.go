package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

// BearerPrefix is the literal, case sensitive prefix the Authorization header
// must carry for a token to be verified.
const BearerPrefix = "Bearer "

// ExtractBearerToken returns the token carried by a "Bearer <token>" header.
func ExtractBearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := header[len(BearerPrefix):]
	if token == "" {
		return "", false
	}
	return token, true
}

// CredentialVerifier validates inbound Authorization headers. Verification
// failures are logged and reported as a nil result, never as an error.
type CredentialVerifier struct {
	verifier TokenVerifier
	logger   Logger
	timeout  time.Duration
}

// VerifierOption configures a CredentialVerifier.
type VerifierOption func(*CredentialVerifier)

// WithVerifierLogger overrides the logger used to report failures.
func WithVerifierLogger(logger Logger) VerifierOption {
	return func(v *CredentialVerifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithVerifyTimeout bounds the provider call. A timeout is reported like
// any other verification failure.
func WithVerifyTimeout(timeout time.Duration) VerifierOption {
	return func(v *CredentialVerifier) {
		v.timeout = timeout
	}
}

// NewCredentialVerifier creates a verifier backed by the given provider.
func NewCredentialVerifier(verifier TokenVerifier, opts ...VerifierOption) *CredentialVerifier {
	v := &CredentialVerifier{
		verifier: verifier,
		logger:   defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Verify returns the claims for a valid "Bearer <token>" header, or nil for
// any other input, including provider rejections.
func (v *CredentialVerifier) Verify(ctx context.Context, header string) *Claims {
	token, ok := ExtractBearerToken(header)
	if !ok {
		return nil
	}

	if v == nil || v.verifier == nil {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	claims, err := v.verifier.Verify(ctx, token)
	if err != nil {
		v.logger.Warn("error verifying auth token",
			"reason", failureReason(err),
			"error", err,
		)
		return nil
	}

	return claims
}

func failureReason(err error) string {
	switch {
	case IsTokenExpiredError(err):
		return "expired"
	case IsMalformedError(err):
		return "malformed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "rejected"
	}
}
