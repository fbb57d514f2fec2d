// Package config loads binary configuration from environment variables.
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

const (
	VerifierFirebase = "firebase"
	VerifierAuth0    = "auth0"
	VerifierBoth     = "both"
)

// Server configures cmd/server.
type Server struct {
	Port            int           `env:"AUTH_GATE_PORT" envDefault:"4000"`
	CORSOrigin      string        `env:"AUTH_GATE_CORS_ORIGIN" envDefault:"http://localhost:3000"`
	Verifier        string        `env:"AUTH_GATE_VERIFIER" envDefault:"firebase"`
	VerifyTimeout   time.Duration `env:"AUTH_GATE_VERIFY_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout time.Duration `env:"AUTH_GATE_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	DatabaseDriver  string        `env:"AUTH_GATE_DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseDSN     string        `env:"AUTH_GATE_DATABASE_DSN" envDefault:"file:auth_gate.db?cache=shared"`
	LogLevel        string        `env:"AUTH_GATE_LOG_LEVEL" envDefault:"info"`

	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`

	Auth0Domain    string   `env:"AUTH0_DOMAIN"`
	Auth0Audience  []string `env:"AUTH0_AUDIENCE" envSeparator:","`
	Auth0Namespace string   `env:"AUTH0_CLAIMS_NAMESPACE"`
}

// CLI configures cmd/authcli.
type CLI struct {
	GraphQLEndpoint string `env:"AUTH_GATE_GRAPHQL_URL" envDefault:"http://localhost:4000/graphql"`
	PhoneRegion     string `env:"AUTH_GATE_PHONE_REGION" envDefault:"US"`
	LogLevel        string `env:"AUTH_GATE_LOG_LEVEL" envDefault:"warn"`

	FirebaseAPIKey     string `env:"FIREBASE_API_KEY"`
	FirebaseToolkitURL string `env:"FIREBASE_TOOLKIT_URL"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL" envDefault:"http://localhost:8085/callback"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "parse env")
	}
	return nil
}

// LoadServer parses and validates the server configuration.
func LoadServer() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.Verifier = strings.ToLower(strings.TrimSpace(cfg.Verifier))
	return cfg, cfg.Validate()
}

// LoadCLI parses and validates the client configuration.
func LoadCLI() (CLI, error) {
	var cfg CLI
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	err := validation.ValidateStruct(&cfg,
		validation.Field(&cfg.GraphQLEndpoint, validation.Required),
		validation.Field(&cfg.FirebaseAPIKey, validation.Required),
	)
	return cfg, validationError(err)
}

// Validate checks that the selected verifier has the settings it needs.
func (c Server) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Verifier, validation.Required, validation.In(VerifierFirebase, VerifierAuth0, VerifierBoth)),
		validation.Field(&c.DatabaseDriver, validation.In("sqlite", "postgres")),
		validation.Field(&c.DatabaseDSN, validation.Required),
	)
	if err != nil {
		return validationError(err)
	}

	if c.UsesFirebase() {
		if err := validation.Validate(c.FirebaseProjectID, validation.Required); err != nil {
			return validationError(validation.Errors{"FirebaseProjectID": err})
		}
	}
	if c.UsesAuth0() {
		err := validation.Errors{
			"Auth0Domain":   validation.Validate(c.Auth0Domain, validation.Required),
			"Auth0Audience": validation.Validate(c.Auth0Audience, validation.Required),
		}.Filter()
		if err != nil {
			return validationError(err)
		}
	}
	return nil
}

// UsesFirebase reports whether Firebase ID tokens are accepted.
func (c Server) UsesFirebase() bool {
	return c.Verifier == VerifierFirebase || c.Verifier == VerifierBoth
}

// UsesAuth0 reports whether Auth0 access tokens are accepted.
func (c Server) UsesAuth0() bool {
	return c.Verifier == VerifierAuth0 || c.Verifier == VerifierBoth
}

// Redacted returns the settings safe to print at startup.
func (c CLI) Redacted() map[string]any {
	return map[string]any{
		"graphql_endpoint":  c.GraphQLEndpoint,
		"phone_region":      c.PhoneRegion,
		"firebase_api_key":  mask(c.FirebaseAPIKey),
		"google_client_id":  c.GoogleClientID,
		"google_configured": c.GoogleClientID != "" && c.GoogleClientSecret != "",
	}
}

// SlogLevel parses a level name, defaulting to info.
func SlogLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	fields := map[string]any{}
	if errs, ok := err.(validation.Errors); ok {
		for field, fieldErr := range errs {
			fields[field] = fieldErr.Error()
		}
	}
	return goerrors.New("invalid configuration", goerrors.CategoryValidation).
		WithTextCode("INVALID_CONFIG").
		WithMetadata(fields)
}
