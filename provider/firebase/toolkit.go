package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-auth-gate/client"
)

const defaultToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// ToolkitConfig holds the Identity Toolkit client settings.
type ToolkitConfig struct {
	APIKey string
	// BaseURL overrides the Identity Toolkit endpoint, e.g. for the emulator.
	BaseURL string
	// RequestURI is the continue URI sent with signInWithIdp.
	RequestURI string
	HTTPClient *http.Client
}

// Toolkit acquires Firebase credentials over the Identity Toolkit REST API.
type Toolkit struct {
	config     ToolkitConfig
	httpClient *http.Client
	now        func() time.Time
}

var _ client.PasswordProvider = (*Toolkit)(nil)

// NewToolkit creates a Toolkit client.
func NewToolkit(cfg ToolkitConfig) *Toolkit {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultToolkitURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.RequestURI == "" {
		cfg.RequestURI = "http://localhost"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Toolkit{
		config:     cfg,
		httpClient: httpClient,
		now:        time.Now,
	}
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type idpRequest struct {
	PostBody            string `json:"postBody"`
	RequestURI          string `json:"requestUri"`
	ReturnSecureToken   bool   `json:"returnSecureToken"`
	ReturnIdpCredential bool   `json:"returnIdpCredential"`
}

type tokenResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	ProviderID   string `json:"providerId"`
	IsNewUser    bool   `json:"isNewUser"`
	FullName     string `json:"fullName"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignInWithPassword implements client.PasswordProvider.
func (t *Toolkit) SignInWithPassword(ctx context.Context, email, password string) (*client.Principal, error) {
	out, err := t.call(ctx, "sign_in", "accounts:signInWithPassword", passwordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, err
	}
	return t.principal(out, "password"), nil
}

// SignUpWithPassword implements client.PasswordProvider.
func (t *Toolkit) SignUpWithPassword(ctx context.Context, email, password string) (*client.Principal, error) {
	out, err := t.call(ctx, "sign_up", "accounts:signUp", passwordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, err
	}
	p := t.principal(out, "password")
	p.IsNewUser = true
	return p, nil
}

// SignInWithIdp exchanges an identity provider ID token for a Firebase
// session.
func (t *Toolkit) SignInWithIdp(ctx context.Context, providerID, idToken string) (*client.Principal, error) {
	postBody := url.Values{
		"id_token":   {idToken},
		"providerId": {providerID},
	}
	out, err := t.call(ctx, "sign_in_with_idp", "accounts:signInWithIdp", idpRequest{
		PostBody:            postBody.Encode(),
		RequestURI:          t.config.RequestURI,
		ReturnSecureToken:   true,
		ReturnIdpCredential: true,
	})
	if err != nil {
		return nil, err
	}
	return t.principal(out, providerID), nil
}

func (t *Toolkit) call(ctx context.Context, operation, method string, payload any) (*tokenResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", t.config.BaseURL, method, url.QueryEscape(t.config.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, toolkitError(operation, 0, client.CodeNetworkRequestFail, "identity toolkit request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, toolkitError(operation, resp.StatusCode, client.CodeNetworkRequestFail, "failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseToolkitError(operation, resp.StatusCode, raw)
	}

	var out tokenResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, toolkitError(operation, resp.StatusCode, client.CodeInternalError, "failed to decode response", err)
	}
	if out.IDToken == "" || out.LocalID == "" {
		return nil, toolkitError(operation, resp.StatusCode, client.CodeInternalError, "response carries no credential", nil)
	}

	return &out, nil
}

func (t *Toolkit) principal(out *tokenResponse, fallbackProvider string) *client.Principal {
	p := &client.Principal{
		UID:          out.LocalID,
		Email:        out.Email,
		DisplayName:  out.DisplayName,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ProviderID:   out.ProviderID,
		IsNewUser:    out.IsNewUser,
	}
	if p.DisplayName == "" {
		p.DisplayName = out.FullName
	}
	if p.ProviderID == "" {
		p.ProviderID = fallbackProvider
	}
	if secs, err := strconv.Atoi(out.ExpiresIn); err == nil && secs > 0 {
		p.ExpiresAt = t.now().Add(time.Duration(secs) * time.Second)
	}
	return p
}

// toolkitCodes maps Identity Toolkit error messages to provider codes.
var toolkitCodes = map[string]string{
	"EMAIL_EXISTS":                client.CodeEmailAlreadyInUse,
	"WEAK_PASSWORD":               client.CodeWeakPassword,
	"INVALID_EMAIL":               client.CodeInvalidEmail,
	"MISSING_EMAIL":               client.CodeInvalidEmail,
	"EMAIL_NOT_FOUND":             client.CodeUserNotFound,
	"INVALID_PASSWORD":            client.CodeWrongPassword,
	"MISSING_PASSWORD":            client.CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   client.CodeInvalidCredential,
	"INVALID_IDP_RESPONSE":        client.CodeInvalidCredential,
	"USER_DISABLED":               client.CodeUserDisabled,
	"TOO_MANY_ATTEMPTS_TRY_LATER": client.CodeTooManyRequests,
	"OPERATION_NOT_ALLOWED":       client.CodeOperationNotAllow,
	"PASSWORD_LOGIN_DISABLED":     client.CodeOperationNotAllow,
}

// parseToolkitError reads {"error":{"message":"WEAK_PASSWORD : Password
// should be at least 6 characters"}} style bodies.
func parseToolkitError(operation string, status int, body []byte) *client.ProviderError {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error.Message == "" {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(status)
		}
		return toolkitError(operation, status, client.CodeInternalError, msg, nil)
	}

	message := parsed.Error.Message
	reason, detail, _ := strings.Cut(message, ":")
	reason = strings.TrimSpace(reason)
	detail = strings.TrimSpace(detail)
	if detail == "" {
		detail = reason
	}

	code, ok := toolkitCodes[reason]
	if !ok {
		code = client.CodeInternalError
	}

	return toolkitError(operation, status, code, detail, nil)
}

func toolkitError(operation string, status int, code, description string, err error) *client.ProviderError {
	return &client.ProviderError{
		Provider:    providerName,
		Operation:   operation,
		Status:      status,
		Code:        code,
		Description: description,
		Err:         err,
	}
}
