package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	auth "github.com/goliatone/go-auth-gate"
)

const createProfileMutation = `mutation CreateProfile($input: ProfileInput) {
  createProfile(input: $input) { uid }
}`

// GraphQLProfileWriter implements ProfileWriter against the gated
// createProfile mutation, authenticating with the principal's ID token.
type GraphQLProfileWriter struct {
	endpoint   string
	httpClient *http.Client
}

// NewGraphQLProfileWriter creates a writer posting to endpoint.
func NewGraphQLProfileWriter(endpoint string, httpClient *http.Client) *GraphQLProfileWriter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &GraphQLProfileWriter{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Errors []struct {
		Message    string         `json:"message"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

// CreateProfile implements ProfileWriter.
func (w *GraphQLProfileWriter) CreateProfile(ctx context.Context, principal *Principal, attrs *auth.ProfileAttributes) error {
	header := principal.AuthorizationHeader()
	if header == "" {
		return profileError(0, "missing_token", "principal has no id token", nil)
	}

	variables := map[string]any{}
	if attrs != nil {
		variables["input"] = map[string]any{
			"displayName": attrs.DisplayName,
			"phone":       attrs.Phone,
			"age":         int32(attrs.Age),
		}
	}

	payload, err := json.Marshal(graphqlRequest{Query: createProfileMutation, Variables: variables})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", header)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return profileError(0, CodeNetworkRequestFail, "profile request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var out graphqlResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return profileError(resp.StatusCode, "invalid_response", "failed to decode profile response", err)
	}

	if len(out.Errors) > 0 {
		first := out.Errors[0]
		code, _ := first.Extensions["code"].(string)
		return profileError(resp.StatusCode, code, first.Message, nil)
	}

	if resp.StatusCode != http.StatusOK {
		return profileError(resp.StatusCode, fmt.Sprintf("%d", resp.StatusCode), strings.TrimSpace(string(body)), nil)
	}

	return nil
}

func profileError(status int, code, description string, err error) *ProviderError {
	return &ProviderError{
		Provider:    "graphql",
		Operation:   "create_profile",
		Status:      status,
		Code:        code,
		Description: description,
		Err:         err,
	}
}
