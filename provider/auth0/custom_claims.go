package auth0

import (
	"context"
	"encoding/json"
)

// CustomClaims holds the profile claims carried by Auth0 ID tokens.
type CustomClaims struct {
	Email         string         `json:"email"`
	EmailVerified bool           `json:"email_verified"`
	Name          string         `json:"name"`
	Nickname      string         `json:"nickname"`
	Picture       string         `json:"picture"`
	Scope         string         `json:"scope"`
	Raw           map[string]any `json:"-"`
}

// Validate satisfies validator.CustomClaims.
func (c *CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// UnmarshalJSON keeps the raw claim set next to the decoded fields.
func (c *CustomClaims) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	type alias CustomClaims
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*c = CustomClaims(decoded)
	c.Raw = raw
	return nil
}
