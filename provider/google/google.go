// Package google runs the Google OAuth authorization code flow and returns
// the Google ID token used for federated sign in.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-auth-gate/client"
	"golang.org/x/oauth2"
)

const (
	ProviderID = "google.com"

	defaultAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL = "https://oauth2.googleapis.com/token"
)

// Config holds Google OAuth configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string

	AuthURL  string
	TokenURL string

	HTTPClient *http.Client
}

// DefaultScopes returns the default Google scopes.
func DefaultScopes() []string {
	return []string{"openid", "email", "profile"}
}

// Token is the result of a successful code exchange. IDToken is the
// credential handed to the identity provider.
type Token struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scopes       []string
	ExpiresAt    time.Time
}

// Provider runs the authorization code flow against Google.
type Provider struct {
	oauth      *oauth2.Config
	httpClient *http.Client
}

// New creates a provider, filling in the Google endpoints and scopes.
func New(cfg Config) *Provider {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes()
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
	}
}

// GenerateVerifier returns a fresh PKCE code verifier.
func GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}

// WithPKCE adds the S256 challenge derived from verifier.
func WithPKCE(verifier string) oauth2.AuthCodeOption {
	return oauth2.S256ChallengeOption(verifier)
}

// WithPrompt sets prompt, e.g. "select_account".
func WithPrompt(prompt string) oauth2.AuthCodeOption {
	return oauth2.SetAuthURLParam("prompt", prompt)
}

// AuthCodeURL returns the consent page URL carrying state.
func (p *Provider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	opts = append([]oauth2.AuthCodeOption{oauth2.AccessTypeOffline}, opts...)
	return p.oauth.AuthCodeURL(state, opts...)
}

// Exchange redeems code for tokens. A response without an ID token is an
// error since the ID token is what federated sign in needs.
func (p *Provider) Exchange(ctx context.Context, code, codeVerifier string) (*Token, error) {
	var opts []oauth2.AuthCodeOption
	if codeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(codeVerifier))
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.oauth.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, exchangeError(err)
	}

	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return nil, providerError("exchange", http.StatusOK, "missing_id_token", "missing id token", nil)
	}

	scope, _ := tok.Extra("scope").(string)
	return &Token{
		IDToken:      idToken,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Scopes:       strings.Fields(scope),
		ExpiresAt:    tok.Expiry,
	}, nil
}

func exchangeError(err error) *client.ProviderError {
	var rerr *oauth2.RetrieveError
	if !errors.As(err, &rerr) {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return providerError("exchange", 0, client.CodeNetworkRequestFail, "token request failed", err)
		}
		return providerError("exchange", 0, "invalid_response", "invalid token response", err)
	}

	status := 0
	if rerr.Response != nil {
		status = rerr.Response.StatusCode
	}
	if rerr.ErrorCode != "" {
		return providerError("exchange", status, rerr.ErrorCode, rerr.ErrorDescription, nil)
	}
	code, desc := parseGoogleError(rerr.Body)
	return providerError("exchange", status, code, desc, nil)
}

// parseGoogleError reads the {"error":{...}} envelope used by Google APIs,
// falling back to the raw body.
func parseGoogleError(body []byte) (string, string) {
	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		e := envelope.Error
		if e.Status != "" || e.Message != "" {
			code := e.Status
			if code == "" && e.Code != 0 {
				code = strconv.Itoa(e.Code)
			}
			return code, e.Message
		}
	}

	if msg := strings.TrimSpace(string(body)); msg != "" {
		return "", msg
	}
	return "", "google request failed"
}

func providerError(operation string, status int, code, description string, err error) *client.ProviderError {
	return &client.ProviderError{
		Provider:    "google",
		Operation:   operation,
		Status:      status,
		Code:        code,
		Description: description,
		Err:         err,
	}
}
