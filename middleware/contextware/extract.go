package contextware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-auth-gate"
)

// Extractor returns the credential in "Bearer <token>" form, or "" when the
// source is empty.
type Extractor func(c *fiber.Ctx) string

func (cfg *Config) getExtractors() []Extractor {
	return GetExtractors(cfg.TokenLookup)
}

func (cfg *Config) headerNames() []string {
	var out []string
	for _, part := range splitLookup(cfg.TokenLookup) {
		if part[0] == "header" {
			out = append(out, part[1])
		}
	}
	if len(out) == 0 {
		out = append(out, fiber.HeaderAuthorization)
	}
	return out
}

// GetExtractors parses a lookup such as "header:Authorization,query:token".
// Header values are passed through verbatim; query and cookie values carry
// the bare token and get the bearer prefix added.
func GetExtractors(tokenLookup string) []Extractor {
	extractors := make([]Extractor, 0)

	for _, part := range splitLookup(tokenLookup) {
		switch part[0] {
		case "header":
			extractors = append(extractors, fromHeader(part[1]))
		case "query":
			extractors = append(extractors, fromQuery(part[1]))
		case "cookie":
			extractors = append(extractors, fromCookie(part[1]))
		}
	}

	return extractors
}

func splitLookup(tokenLookup string) [][2]string {
	var out [][2]string
	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}
		source, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if source == "" || name == "" {
			continue
		}
		out = append(out, [2]string{source, name})
	}
	return out
}

func credentialFromFiber(c *fiber.Ctx, extractors []Extractor) string {
	for _, extractor := range extractors {
		if raw := extractor(c); raw != "" {
			return raw
		}
	}
	return ""
}

func firstHeader(r *http.Request, names []string) string {
	for _, name := range names {
		if v := r.Header.Get(name); v != "" {
			return v
		}
	}
	return ""
}

func fromHeader(header string) Extractor {
	return func(c *fiber.Ctx) string {
		return c.Get(header)
	}
}

func fromQuery(param string) Extractor {
	return func(c *fiber.Ctx) string {
		return bearer(c.Query(param))
	}
}

func fromCookie(name string) Extractor {
	return func(c *fiber.Ctx) string {
		return bearer(c.Cookies(name))
	}
}

func bearer(token string) string {
	if token == "" {
		return ""
	}
	return auth.BearerPrefix + token
}
