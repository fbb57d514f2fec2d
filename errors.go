package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidToken        = "INVALID_TOKEN"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeTokenMalformed      = "TOKEN_MALFORMED"
	TextCodeUnauthenticated     = "UNAUTHENTICATED"
	TextCodeVerifierUnavailable = "VERIFIER_UNAVAILABLE"
)

// UnauthenticatedMessage is the refusal returned by protected operations
// invoked with an anonymous context.
const UnauthenticatedMessage = "You must be logged in to see this!"

// ErrInvalidToken is returned when the identity provider rejects a token.
var ErrInvalidToken = goerrors.New("invalid authentication token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their expiry.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that cannot be parsed or fail
// signature, issuer or audience checks.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnauthenticated is returned by the capability gate.
var ErrUnauthenticated = goerrors.New(UnauthenticatedMessage, goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrVerifierUnavailable is returned when no token verifier is configured.
var ErrVerifierUnavailable = goerrors.New("token verifier unavailable", goerrors.CategoryInternal).
	WithTextCode(TextCodeVerifierUnavailable)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, TextCodeTokenExpired) || errors.Is(err, jwt.ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for malformed tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, TextCodeTokenMalformed) || errors.Is(err, jwt.ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed")
}

// IsUnauthenticated reports whether err is a capability gate refusal.
func IsUnauthenticated(err error) bool {
	return hasTextCode(err, TextCodeUnauthenticated)
}

// NormalizeTokenError maps a provider validation error into ErrTokenExpired
// or ErrTokenMalformed, keeping the original error as source.
func NormalizeTokenError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil &&
		(richErr.TextCode == TextCodeTokenExpired || richErr.TextCode == TextCodeTokenMalformed) {
		return err
	}

	clone := ErrTokenMalformed.Clone()
	if IsTokenExpiredError(err) {
		clone = ErrTokenExpired.Clone()
	}

	if clone == nil {
		return err
	}

	clone.Source = err
	return clone.WithMetadata(map[string]any{
		"provider": provider,
		"cause":    err.Error(),
	})
}

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil {
		return richErr.TextCode == code
	}
	return false
}
