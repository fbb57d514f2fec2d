// Package client implements the client side of the credential flow: the
// sign-in / sign-up form state machine, local validation and the
// classification of identity provider failures into display-ready errors.
package client

import (
	"context"
	"time"

	auth "github.com/goliatone/go-auth-gate"
)

// Principal is the authenticated identity returned by a credential
// acquisition call.
type Principal struct {
	UID          string
	Email        string
	DisplayName  string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
	ProviderID   string
	IsNewUser    bool
}

// AuthorizationHeader returns the header value used to call the API on
// behalf of the principal.
func (p *Principal) AuthorizationHeader() string {
	if p == nil || p.IDToken == "" {
		return ""
	}
	return auth.BearerPrefix + p.IDToken
}

// PasswordProvider acquires credentials with email and password.
type PasswordProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Principal, error)
	SignUpWithPassword(ctx context.Context, email, password string) (*Principal, error)
}

// FederatedProvider acquires credentials through a third party identity
// provider's interactive flow.
type FederatedProvider interface {
	SignInWithFederatedProvider(ctx context.Context) (*Principal, error)
}

// ProfileWriter persists the public profile of a principal. Implementations
// must create the profile only when none exists, so calling it for a
// returning user is safe. attrs may be nil.
type ProfileWriter interface {
	CreateProfile(ctx context.Context, principal *Principal, attrs *auth.ProfileAttributes) error
}

// PrincipalListener is notified after every successful acquisition.
type PrincipalListener func(principal *Principal)
