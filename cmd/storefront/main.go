package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	internalcli "github.com/moldova-direct/storefront/internal/cli"
	"github.com/moldova-direct/storefront/internal/address"
	"github.com/moldova-direct/storefront/internal/config"
	"github.com/moldova-direct/storefront/internal/database"
	"github.com/moldova-direct/storefront/internal/handlers"
	"github.com/moldova-direct/storefront/internal/idempotency"
	"github.com/moldova-direct/storefront/internal/repository"
	"github.com/moldova-direct/storefront/internal/services"
)

var version = "0.1.0"

// reservationTTL bounds how long an order-creation reservation can outlive a
// crashed server before the shopper can retry.
const reservationTTL = time.Hour

// buildServerDependencies creates all dependencies needed for the server
func buildServerDependencies(logger *zap.Logger) (internalcli.ServerDependencies, error) {
	var deps internalcli.ServerDependencies
	deps.Logger = logger

	// Load server configuration
	deps.ServerConfig = config.LoadServerConfig()

	// Load Stripe configuration
	stripeConfig, err := config.LoadStripeConfig()
	if err != nil {
		return deps, fmt.Errorf("missing required Stripe configuration: %w", err)
	}

	// Redis backs the order idempotency store
	redisConfig := config.LoadRedisConfig(os.Getenv)
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisConfig.Addr,
		Password: redisConfig.Password,
	})
	reservations := idempotency.NewStore(rdb, reservationTTL)

	// Create repositories
	orderRepo := repository.NewOrderRepository()
	addressRepo := repository.NewAddressRepository()

	// Create service layer
	clk := clock.New()
	stripeClient := services.NewStripeClient(stripeConfig, logger)
	paymentService := services.NewPaymentService(stripeClient, logger)
	shippingService := services.NewShippingService()
	orderService := services.NewOrderService(orderRepo, paymentService, reservations, clk, logger)

	resolver := address.NewResolver(addressRepo, orderRepo, logger)

	// Create handlers
	deps.ProductHandler = handlers.NewProductHandler(logger)
	deps.CartRoutes = handlers.NewCartHandler(clk, logger).Routes()
	deps.CheckoutRoutes = handlers.NewCheckoutHandler(resolver, shippingService, orderService, clk, logger).Routes()
	deps.ConfirmationHandler = handlers.NewConfirmationHandler(orderService, logger)

	return deps, nil
}

// ServeCommand returns the serve command
func ServeCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the storefront web server",
		Action: func(c *cli.Context) error {
			// Connect to database
			if err := database.Connect(); err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.Close()
			logger.Info("connected to database")

			// Run database migrations
			if err := database.RunMigrations(); err != nil {
				return fmt.Errorf("failed to run database migrations: %w", err)
			}

			// Build all server dependencies
			deps, err := buildServerDependencies(logger)
			if err != nil {
				return err
			}

			return internalcli.RunServe(deps)
		},
	}
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	app := &cli.App{
		Name:    "storefront",
		Usage:   "Moldova Direct storefront management tool",
		Version: version,
		Commands: []*cli.Command{
			ServeCommand(logger),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Fatal("command failed", zap.Error(err))
	}
}
