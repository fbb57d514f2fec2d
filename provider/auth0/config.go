package auth0

import (
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	goerrors "github.com/goliatone/go-errors"
)

const defaultKeyCacheTTL = 5 * time.Minute

// Config describes the Auth0 tenant whose access tokens are accepted.
type Config struct {
	// Domain is the tenant domain, e.g. "acme.eu.auth0.com".
	Domain string
	// Audience lists the accepted API identifiers.
	Audience []string
	// Issuer overrides "https://<Domain>/".
	Issuer string
	// Namespace prefixes custom claims such as "<Namespace>sign_in_provider".
	// Ignored when ClaimsMapper is set.
	Namespace string
	// KeyCacheTTL is how long tenant signing keys are cached.
	KeyCacheTTL time.Duration
	// Leeway is the clock skew allowed on exp, nbf and iat.
	Leeway time.Duration

	ClaimsMapper ClaimsMapper
	CustomClaims func() validator.CustomClaims
}

// DefaultConfig returns a Config for domain and audience.
func DefaultConfig(domain string, audience []string) Config {
	return Config{
		Domain:      domain,
		Audience:    audience,
		KeyCacheTTL: defaultKeyCacheTTL,
	}
}

func (c Config) issuerURL() string {
	if issuer := strings.TrimSpace(c.Issuer); issuer != "" {
		return withTrailingSlash(issuer)
	}

	domain := strings.TrimSpace(c.Domain)
	if domain == "" {
		return ""
	}
	if !strings.Contains(domain, "://") {
		domain = "https://" + domain
	}
	return withTrailingSlash(domain)
}

// validate returns the parsed issuer.
func (c Config) validate() (*url.URL, error) {
	issuer := c.issuerURL()
	if issuer == "" {
		return nil, configError("auth0 issuer or domain is required", nil)
	}

	u, err := url.Parse(issuer)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, configError("auth0 issuer is not a valid URL", err).
			WithMetadata(map[string]any{"issuer": issuer})
	}

	if len(c.Audience) == 0 {
		return nil, configError("auth0 audience is required", nil)
	}
	return u, nil
}

func (c Config) mapper() ClaimsMapper {
	if c.ClaimsMapper != nil {
		return c.ClaimsMapper
	}
	return &DefaultClaimsMapper{Namespace: c.Namespace}
}

func (c Config) customClaims() func() validator.CustomClaims {
	if c.CustomClaims != nil {
		return c.CustomClaims
	}
	return func() validator.CustomClaims { return &CustomClaims{} }
}

func withTrailingSlash(s string) string {
	return strings.TrimSuffix(s, "/") + "/"
}

func configError(msg string, source error) *goerrors.Error {
	err := goerrors.New(msg, goerrors.CategoryBadInput)
	if source != nil {
		err.Source = source
	}
	return err
}
