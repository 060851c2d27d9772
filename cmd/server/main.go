// Package main initializes and starts the card vault HTTP server,
// setting up configuration, logging, database and vault connections,
// repositories, services, and handlers.
package main

import (
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"cardvault/internal/config"
	"cardvault/internal/db"
	"cardvault/internal/logger"
	"cardvault/internal/repository"
	"cardvault/internal/server/handler/http"
	"cardvault/internal/service"
	"cardvault/internal/vault"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// or returns a if it is non-empty, otherwise b. It mirrors cmp.Or for
// strings, which is unavailable in the local Go 1.21 toolchain.
func or(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func main() {
	// Parse command-line and environment configuration. The resulting
	// options are the only configuration source; nothing is re-fetched
	// per call.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", or(version, "N/A"))
	fmt.Printf("Build date: %s\n", or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Periodically report partial-failure states left by interrupted
	// card protocols; an external sweep reconciles them.
	db.StartOrphanReporter(context.Background(), postgresDB, time.Hour, zapLogger)

	// Initialize the Key Vault client for card payloads.
	keyVault, err := vault.NewKeyVaultClient(options.VaultURL)
	if err != nil {
		zapLogger.Fatal("cannot init key vault client", zap.Error(err))
	}

	// Initialize repositories for card metadata and users.
	cardRepo := repository.NewPostgresCardRepository(postgresDB)
	userRepo := repository.NewPostgresUserRepository(postgresDB)

	// Initialize business-logic services.
	allocator := vault.NewNameAllocator(options.SecretNamePrefix)
	cardService := service.NewCardService(cardRepo, keyVault, allocator)
	userService := service.NewUserService(userRepo)

	// Create HTTP handlers for card and user endpoints.
	cardHandler := &http.CardHandler{CardService: cardService}
	userHandler := &http.UserHandler{UserService: userService}

	// Build the router with middleware and routes.
	router := http.NewRouter(cardHandler, userHandler, zapLogger)

	// Create and start the HTTP server.
	server := &nethttp.Server{
		Addr:    options.Address,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
