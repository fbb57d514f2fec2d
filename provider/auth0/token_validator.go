package auth0

import (
	"context"
	"fmt"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	auth "github.com/goliatone/go-auth-gate"
	goerrors "github.com/goliatone/go-errors"
)

const providerName = "auth0"

// TokenVerifier checks Auth0 access tokens against the tenant key set and
// maps them into auth.Claims.
type TokenVerifier struct {
	validator *validator.Validator
	mapper    ClaimsMapper
}

var _ auth.TokenVerifier = (*TokenVerifier)(nil)

// NewTokenVerifier builds a verifier for the tenant in cfg. Keys are fetched
// lazily on the first verification.
func NewTokenVerifier(cfg Config) (*TokenVerifier, error) {
	issuer, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	ttl := cfg.KeyCacheTTL
	if ttl <= 0 {
		ttl = defaultKeyCacheTTL
	}
	keys := jwks.NewCachingProvider(issuer, ttl)

	opts := []validator.Option{validator.WithCustomClaims(cfg.customClaims())}
	if cfg.Leeway > 0 {
		opts = append(opts, validator.WithAllowedClockSkew(cfg.Leeway))
	}

	v, err := validator.New(keys.KeyFunc, validator.RS256, issuer.String(), cfg.Audience, opts...)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build auth0 validator")
	}

	return &TokenVerifier{
		validator: v,
		mapper:    cfg.mapper(),
	}, nil
}

// Verify implements auth.TokenVerifier.
func (v *TokenVerifier) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	out, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, auth.NormalizeTokenError(providerName, err)
	}

	validated, ok := out.(*validator.ValidatedClaims)
	if !ok || validated == nil {
		return nil, auth.NormalizeTokenError(providerName, fmt.Errorf("unexpected claims type %T", out))
	}
	return v.mapper.Map(ctx, validated)
}
