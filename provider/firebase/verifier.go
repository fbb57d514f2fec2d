package firebase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-auth-gate"
	goerrors "github.com/goliatone/go-errors"
)

const (
	providerName = "firebase"

	DefaultJWKSURL     = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
	issuerPrefix       = "https://securetoken.google.com/"
	maxSubjectLength   = 128
	defaultRefreshRate = time.Hour
)

// Config holds the settings of the ID token verifier.
type Config struct {
	// ProjectID is the Firebase project; it is the expected audience.
	ProjectID string
	// JWKSURL overrides the securetoken key set location.
	JWKSURL string
	// Issuer overrides "https://securetoken.google.com/<ProjectID>".
	Issuer string
	// RefreshInterval is how often the key set is reloaded.
	RefreshInterval time.Duration
	// Leeway is the clock skew allowed on time based claims.
	Leeway     time.Duration
	HTTPClient *http.Client
	Logger     auth.Logger
}

// DefaultConfig returns a Config for projectID.
func DefaultConfig(projectID string) Config {
	return Config{
		ProjectID:       projectID,
		JWKSURL:         DefaultJWKSURL,
		RefreshInterval: defaultRefreshRate,
	}
}

func (c Config) issuer() string {
	if c.Issuer != "" {
		return c.Issuer
	}
	return issuerPrefix + c.ProjectID
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	AuthTime      int64  `json:"auth_time"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Picture       string `json:"picture"`
	Firebase      struct {
		SignInProvider string         `json:"sign_in_provider"`
		Identities     map[string]any `json:"identities"`
	} `json:"firebase"`
}

// TokenVerifier verifies Firebase ID tokens.
type TokenVerifier struct {
	config  Config
	jwks    *keyfunc.JWKS
	keyFunc jwt.Keyfunc
	parser  *jwt.Parser
	now     func() time.Time
}

var _ auth.TokenVerifier = (*TokenVerifier)(nil)

// NewTokenVerifier fetches the key set and returns a verifier. Call Close to
// stop the background refresh.
func NewTokenVerifier(cfg Config) (*TokenVerifier, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, goerrors.New("firebase: project id is required", goerrors.CategoryBadInput).
			WithTextCode("INVALID_CONFIG").
			WithMetadata(map[string]any{"field": "project_id"})
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = DefaultJWKSURL
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = defaultRefreshRate
	}
	if cfg.Logger == nil {
		cfg.Logger = auth.DefaultLogger()
	}

	logger := cfg.Logger
	jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
		Client: cfg.HTTPClient,
		RefreshErrorHandler: func(err error) {
			logger.Error("failed to refresh firebase key set", "error", err)
		},
		RefreshInterval:   cfg.RefreshInterval,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "firebase: failed to load key set").
			WithMetadata(map[string]any{"jwks_url": cfg.JWKSURL})
	}

	v := newTokenVerifier(cfg, jwks.Keyfunc)
	v.jwks = jwks
	return v, nil
}

func newTokenVerifier(cfg Config, keyFunc jwt.Keyfunc) *TokenVerifier {
	v := &TokenVerifier{
		config:  cfg,
		keyFunc: keyFunc,
		now:     time.Now,
	}
	v.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(cfg.issuer()),
		jwt.WithAudience(cfg.ProjectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithTimeFunc(func() time.Time { return v.now() }),
	)
	return v
}

// Close stops the key set refresh goroutine.
func (v *TokenVerifier) Close() {
	if v != nil && v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// Verify implements auth.TokenVerifier.
func (v *TokenVerifier) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	claims := &idTokenClaims{}
	if _, err := v.parser.ParseWithClaims(token, claims, v.keyFunc); err != nil {
		return nil, auth.NormalizeTokenError(providerName, err)
	}

	if err := v.checkClaims(claims); err != nil {
		return nil, auth.NormalizeTokenError(providerName, err)
	}

	raw := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, raw); err != nil {
		return nil, auth.NormalizeTokenError(providerName, err)
	}

	return auth.NewClaims(auth.ClaimsData{
		Subject:        claims.Subject,
		Name:           claims.Name,
		Email:          claims.Email,
		EmailVerified:  claims.EmailVerified,
		Picture:        claims.Picture,
		Issuer:         claims.Issuer,
		Audience:       claims.Audience,
		IssuedAt:       numericTime(claims.IssuedAt),
		ExpiresAt:      numericTime(claims.ExpiresAt),
		AuthTime:       unixTime(claims.AuthTime),
		SignInProvider: claims.Firebase.SignInProvider,
		Raw:            raw,
	}), nil
}

var (
	errEmptySubject    = errors.New("firebase: token has an empty subject")
	errLongSubject     = errors.New("firebase: token subject exceeds 128 characters")
	errFutureAuthTime  = errors.New("firebase: token auth_time is in the future")
	errMissingAuthTime = errors.New("firebase: token has no auth_time")
)

func (v *TokenVerifier) checkClaims(claims *idTokenClaims) error {
	switch {
	case claims.Subject == "":
		return errEmptySubject
	case len(claims.Subject) > maxSubjectLength:
		return errLongSubject
	case claims.AuthTime == 0:
		return errMissingAuthTime
	case time.Unix(claims.AuthTime, 0).After(v.now().Add(v.config.Leeway)):
		return errFutureAuthTime
	}
	return nil
}

func numericTime(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time.UTC()
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
