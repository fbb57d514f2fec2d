package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-auth-gate/client"
	"github.com/goliatone/go-auth-gate/internal/cli"
	"github.com/goliatone/go-auth-gate/internal/config"
	"github.com/goliatone/go-auth-gate/provider/firebase"
	"github.com/goliatone/go-auth-gate/provider/google"
	"github.com/goliatone/go-print"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "authcli:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadCLI()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.SlogLevel(cfg.LogLevel),
	}))
	logger.Debug("configuration loaded", "config", print.MaybePrettyJSON(cfg.Redacted()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := cli.New(os.Stdin, os.Stdout)

	toolkit := firebase.NewToolkit(firebase.ToolkitConfig{
		APIKey:  cfg.FirebaseAPIKey,
		BaseURL: cfg.FirebaseToolkitURL,
	})

	var federated client.FederatedProvider
	if cfg.GoogleClientID != "" {
		g := google.New(google.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			CallbackURL:  cfg.GoogleCallbackURL,
		})
		federated = firebase.NewFederatedSignIn(g, toolkit, driver.Prompt)
	}

	session := client.NewSession()
	session.OnChange(func(p *client.Principal) {
		if p == nil {
			logger.Info("session cleared")
			return
		}
		logger.Info("session updated", "uid", p.UID, "provider", p.ProviderID)
	})

	form := client.NewForm(client.Dependencies{
		Passwords: toolkit,
		Federated: federated,
		Profiles:  client.NewGraphQLProfileWriter(cfg.GraphQLEndpoint, nil),
	},
		client.WithLogger(logger),
		client.WithSession(session),
		client.WithPhoneRegion(cfg.PhoneRegion),
	)

	return driver.Run(ctx, form, session)
}
