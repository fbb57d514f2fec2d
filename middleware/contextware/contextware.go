// Package contextware attaches an auth.RequestContext to every inbound
// request. It never rejects a request: anonymous callers pass through and
// the capability gate decides per operation.
package contextware

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-auth-gate"
)

const (
	DefaultContextKey  = "auth_ctx"
	DefaultTokenLookup = "header:" + fiber.HeaderAuthorization
)

// ValidationListener is invoked after a principal has been verified and
// before the request proceeds. Listener errors are logged and otherwise
// ignored.
type ValidationListener func(c *fiber.Ctx, claims *auth.Claims) error

type Config struct {
	// Filter skips the middleware when it returns true.
	Filter func(*fiber.Ctx) bool
	// SuccessHandler runs after the context is attached. Defaults to c.Next.
	SuccessHandler fiber.Handler
	// Builder produces the request context. Required.
	Builder *auth.ContextBuilder
	// ContextKey is the fiber Locals key holding the RequestContext.
	ContextKey string
	// TokenLookup lists credential sources, e.g.
	// "header:Authorization,cookie:id_token,query:id_token".
	TokenLookup string
	// ValidationListeners run for authenticated requests only.
	ValidationListeners []ValidationListener
	Logger              auth.Logger
}

// New returns the fiber middleware.
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)
	extractors := cfg.getExtractors()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		ctx := c.UserContext()
		if !auth.HasRequestContext(ctx) {
			rc := cfg.Builder.Build(ctx, credentialFromFiber(c, extractors))
			ctx = auth.WithRequestContext(ctx, rc)
			c.SetUserContext(ctx)
		}

		rc := auth.RequestContextFrom(ctx)
		c.Locals(cfg.ContextKey, rc)

		if claims, ok := rc.User(); ok {
			cfg.runValidationListeners(c, claims)
		}

		return cfg.SuccessHandler(c)
	}
}

// HTTP returns the same middleware for net/http handlers. Only header
// lookups apply; Filter, listeners and ContextKey are fiber specific.
func HTTP(config ...Config) func(http.Handler) http.Handler {
	cfg := GetDefaultConfig(config...)
	headers := cfg.headerNames()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !auth.HasRequestContext(ctx) {
				ctx = auth.WithRequestContext(ctx, cfg.Builder.Build(ctx, firstHeader(r, headers)))
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// FromFiber returns the request context attached by New, or the anonymous
// context when the middleware did not run.
func FromFiber(c *fiber.Ctx, key ...string) auth.RequestContext {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	if rc, ok := c.Locals(k).(auth.RequestContext); ok {
		return rc
	}
	return auth.RequestContextFrom(c.UserContext())
}

// FromContext is a shortcut for auth.RequestContextFrom.
func FromContext(ctx context.Context) auth.RequestContext {
	return auth.RequestContextFrom(ctx)
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Builder == nil {
		panic("AUTH: context middleware configuration: Builder is required.")
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = DefaultTokenLookup
	}

	if cfg.Logger == nil {
		cfg.Logger = auth.DefaultLogger()
	}

	return cfg
}

func (cfg *Config) runValidationListeners(c *fiber.Ctx, claims *auth.Claims) {
	for _, listener := range cfg.ValidationListeners {
		if listener == nil {
			continue
		}
		if err := listener(c, claims); err != nil {
			cfg.Logger.Warn("validation listener failed",
				"uid", claims.UserID(),
				"error", err,
			)
		}
	}
}
