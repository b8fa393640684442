// Package main is the entry point for the taskvault server.
//
// main() stays minimal: read configuration from env vars, create the logger,
// hand everything to internal/server. All actual logic lives in the imported
// packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sakif/taskvault/internal/server"
	"github.com/sakif/taskvault/internal/service"
)

const (
	defaultCheckoutBaseURL = "https://checkout.dodopayments.com/pay"
	defaultPortalBaseURL   = "https://portal.dodopayments.com/session"
)

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/taskvault.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}

	// Create the parent directory so the SQLite driver can create the file.
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// WEBHOOK_SECRET is the shared secret for verifying provider event
	// signatures. If unset, webhook signature verification is disabled —
	// fine for local development, not for production.
	webhookSecret := os.Getenv("WEBHOOK_SECRET")
	if webhookSecret == "" {
		logger.Warn("WEBHOOK_SECRET not set — webhook signatures will not be verified")
	}

	checkoutBaseURL := os.Getenv("CHECKOUT_BASE_URL")
	if checkoutBaseURL == "" {
		checkoutBaseURL = defaultCheckoutBaseURL
	}
	portalBaseURL := os.Getenv("PORTAL_BASE_URL")
	if portalBaseURL == "" {
		portalBaseURL = defaultPortalBaseURL
	}

	cfg := server.Config{
		Port:          port,
		DBPath:        dbPath,
		WebhookSecret: webhookSecret,
		Payment: service.PaymentConfig{
			CheckoutBaseURL: checkoutBaseURL,
			PortalBaseURL:   portalBaseURL,
		},
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until shutdown (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
