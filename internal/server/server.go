// Package server assembles the HTTP application served by cmd/server.
package server

import (
	"context"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	auth "github.com/goliatone/go-auth-gate"
	"github.com/goliatone/go-auth-gate/graph"
	"github.com/goliatone/go-auth-gate/middleware/contextware"
	goerrors "github.com/goliatone/go-errors"
)

// Options configures New.
type Options struct {
	CORSOrigin    string
	Verifier      auth.TokenVerifier
	VerifyTimeout time.Duration
	Profiles      graph.ProfileStore
	Logger        auth.Logger
	// Health reports storage availability for /health. Optional.
	Health func(ctx context.Context) error
	// AccessLog receives one line per request. Nil disables access logs.
	AccessLog io.Writer
}

// New builds the fiber application exposing /graphql and /health.
func New(opts Options) (*fiber.App, error) {
	if opts.Verifier == nil {
		return nil, goerrors.New("token verifier is required", goerrors.CategoryBadInput)
	}
	if opts.Logger == nil {
		opts.Logger = auth.DefaultLogger()
	}
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "http://localhost:3000"
	}

	schema, err := graph.NewSchema(graph.NewResolver(opts.Profiles, opts.Logger))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse graphql schema")
	}

	verifier := auth.NewCredentialVerifier(opts.Verifier,
		auth.WithVerifierLogger(opts.Logger),
		auth.WithVerifyTimeout(opts.VerifyTimeout),
	)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(opts.Logger),
	})

	app.Use(recover.New())
	if opts.AccessLog != nil {
		app.Use(fiberlogger.New(fiberlogger.Config{Output: opts.AccessLog}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigin,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	app.Get("/health", healthHandler(opts.Health))

	app.Use(contextware.New(contextware.Config{
		Builder: auth.NewContextBuilder(verifier),
		Logger:  opts.Logger,
		Filter: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))

	handler := graph.Handler(schema, opts.Logger)
	app.Get("/graphql", handler)
	app.Post("/graphql", handler)

	return app, nil
}

func healthHandler(check func(context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if check != nil {
			if err := check(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

func errorHandler(logger auth.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fiberErr *fiber.Error
		if goerrors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		} else {
			logger.Error("request failed", "path", c.Path(), "error", err)
		}

		return c.Status(code).JSON(fiber.Map{
			"errors": []fiber.Map{{"message": message}},
		})
	}
}
