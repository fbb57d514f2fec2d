package firebase

import (
	"context"
	"errors"

	"github.com/goliatone/go-auth-gate/client"
	"github.com/goliatone/go-auth-gate/provider/google"
	"github.com/google/uuid"
)

// CodePrompt shows authURL to the user and returns the authorization code
// and state delivered to the callback.
type CodePrompt func(ctx context.Context, authURL string) (code, state string, err error)

// FederatedSignIn implements client.FederatedProvider with Google as the
// identity provider.
type FederatedSignIn struct {
	google  *google.Provider
	toolkit *Toolkit
	prompt  CodePrompt
}

var _ client.FederatedProvider = (*FederatedSignIn)(nil)

// NewFederatedSignIn wires the Google code flow to the Toolkit.
func NewFederatedSignIn(g *google.Provider, toolkit *Toolkit, prompt CodePrompt) *FederatedSignIn {
	return &FederatedSignIn{
		google:  g,
		toolkit: toolkit,
		prompt:  prompt,
	}
}

// SignInWithFederatedProvider implements client.FederatedProvider.
func (f *FederatedSignIn) SignInWithFederatedProvider(ctx context.Context) (*client.Principal, error) {
	if f.google == nil || f.toolkit == nil || f.prompt == nil {
		return nil, toolkitError("federated", 0, client.CodeOperationNotAllow, "federated sign in is not configured", nil)
	}

	state := uuid.NewString()
	verifier := google.GenerateVerifier()

	authURL := f.google.AuthCodeURL(state,
		google.WithPKCE(verifier),
		google.WithPrompt("select_account"),
	)

	code, returnedState, err := f.prompt(ctx, authURL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, toolkitError("federated", 0, "auth/popup-closed-by-user", "sign in was cancelled", err)
		}
		return nil, err
	}
	if returnedState != state {
		return nil, toolkitError("federated", 0, client.CodeInvalidCredential, "state mismatch", nil)
	}

	token, err := f.google.Exchange(ctx, code, verifier)
	if err != nil {
		return nil, err
	}

	return f.toolkit.SignInWithIdp(ctx, google.ProviderID, token.IDToken)
}
