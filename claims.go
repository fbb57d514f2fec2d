package auth

import (
	"strings"
	"time"
)

// ClaimsData is the input used to build Claims. Provider packages fill it
// from their own token representation.
type ClaimsData struct {
	Subject        string
	Name           string
	Email          string
	EmailVerified  bool
	Picture        string
	Issuer         string
	Audience       []string
	IssuedAt       time.Time
	ExpiresAt      time.Time
	AuthTime       time.Time
	SignInProvider string
	Raw            map[string]any
}

// Claims is the verified identity record returned by a TokenVerifier.
// Values are copied on construction and on access, so a Claims never
// changes after it is produced.
type Claims struct {
	data ClaimsData
}

// NewClaims builds an immutable Claims from data.
func NewClaims(data ClaimsData) *Claims {
	data.Audience = append([]string(nil), data.Audience...)
	data.Raw = cloneMap(data.Raw)
	return &Claims{data: data}
}

// Subject returns the subject claim
func (c *Claims) Subject() string { return c.data.Subject }

// UserID returns the provider user identifier (the subject).
func (c *Claims) UserID() string { return c.data.Subject }

// Name returns the name claim
func (c *Claims) Name() string { return c.data.Name }

// Email returns the email claim
func (c *Claims) Email() string { return c.data.Email }

// EmailVerified returns the email_verified claim
func (c *Claims) EmailVerified() bool { return c.data.EmailVerified }

// Picture returns the picture claim
func (c *Claims) Picture() string { return c.data.Picture }

// Issuer returns the iss claim
func (c *Claims) Issuer() string { return c.data.Issuer }

// Audience returns a copy of the aud claim
func (c *Claims) Audience() []string {
	return append([]string(nil), c.data.Audience...)
}

// IssuedAt returns the iat claim
func (c *Claims) IssuedAt() time.Time { return c.data.IssuedAt }

// Expires returns the exp claim
func (c *Claims) Expires() time.Time { return c.data.ExpiresAt }

// AuthTime returns the time the user authenticated with the provider.
func (c *Claims) AuthTime() time.Time { return c.data.AuthTime }

// SignInProvider returns the provider used to sign in (e.g. "password",
// "google.com") when the identity provider exposes it.
func (c *Claims) SignInProvider() string { return c.data.SignInProvider }

// DisplayName returns the name to show for the principal, falling back to
// the email local part and then the subject.
func (c *Claims) DisplayName() string {
	if name := strings.TrimSpace(c.data.Name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(c.data.Email, "@"); ok && local != "" {
		return local
	}
	return c.data.Subject
}

// Get returns a raw claim by key.
func (c *Claims) Get(key string) (any, bool) {
	v, ok := c.data.Raw[key]
	return cloneValue(v), ok
}

// Raw returns a copy of every claim the provider sent.
func (c *Claims) Raw() map[string]any {
	return cloneMap(c.data.Raw)
}

// IsExpired reports whether the claims expired at the given time.
func (c *Claims) IsExpired(now time.Time) bool {
	if c.data.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.data.ExpiresAt)
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue deep copies the container types decoded claims are made of.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]string:
		if t == nil {
			return t
		}
		out := make(map[string]string, len(t))
		for k, item := range t {
			out[k] = item
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
