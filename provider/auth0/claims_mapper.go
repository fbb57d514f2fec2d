package auth0

import (
	"context"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	auth "github.com/goliatone/go-auth-gate"
)

// ClaimsMapper converts validated Auth0 claims to auth.Claims.
type ClaimsMapper interface {
	Map(ctx context.Context, validated *validator.ValidatedClaims) (*auth.Claims, error)
}

// DefaultClaimsMapper maps the standard OIDC profile claims. Namespace is
// the prefix of custom claims added by Auth0 Actions, used to look up the
// sign in provider.
type DefaultClaimsMapper struct {
	Namespace string
}

// Map implements ClaimsMapper.
func (m *DefaultClaimsMapper) Map(_ context.Context, validated *validator.ValidatedClaims) (*auth.Claims, error) {
	if validated == nil {
		return nil, auth.ErrTokenMalformed
	}

	custom, ok := validated.CustomClaims.(*CustomClaims)
	if !ok || custom == nil {
		custom = &CustomClaims{}
	}

	reg := validated.RegisteredClaims
	name := custom.Name
	if name == "" {
		name = custom.Nickname
	}

	return auth.NewClaims(auth.ClaimsData{
		Subject:        reg.Subject,
		Name:           name,
		Email:          custom.Email,
		EmailVerified:  custom.EmailVerified,
		Picture:        custom.Picture,
		Issuer:         reg.Issuer,
		Audience:       reg.Audience,
		IssuedAt:       unixTime(reg.IssuedAt),
		ExpiresAt:      unixTime(reg.Expiry),
		SignInProvider: m.signInProvider(custom, reg.Subject),
		Raw:            custom.Raw,
	}), nil
}

// signInProvider prefers the namespaced claim, then the connection prefix
// of the subject ("google-oauth2|123" yields "google-oauth2").
func (m *DefaultClaimsMapper) signInProvider(custom *CustomClaims, subject string) string {
	if ns := m.namespacePrefix(); ns != "" && custom.Raw != nil {
		if v, ok := custom.Raw[ns+"sign_in_provider"].(string); ok && v != "" {
			return v
		}
	}
	if idx := strings.Index(subject, "|"); idx > 0 {
		return subject[:idx]
	}
	return ""
}

func (m *DefaultClaimsMapper) namespacePrefix() string {
	namespace := strings.TrimSpace(m.Namespace)
	if namespace == "" {
		return ""
	}
	if strings.HasSuffix(namespace, "/") || strings.HasSuffix(namespace, ":") {
		return namespace
	}
	return namespace + "/"
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
