package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"linkedcrm/config"
	"linkedcrm/middleware"
	"linkedcrm/routes"
	"linkedcrm/utils"
	"linkedcrm/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "LINKEDCRM: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Sentry if configured
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background pipeline: substantive flags, warmth, segments, hooks
	if config.AppConfig.ScanEnabled {
		scanWorker := worker.NewScanWorker(
			config.DB,
			utils.NewWarmthScorer(config.DB, log.New(os.Stdout, "WARMTH: ", log.LstdFlags)),
			utils.NewSegmenter(config.DB, log.New(os.Stdout, "SEGMENT: ", log.LstdFlags)),
			utils.NewResurrectionScanner(config.DB, log.New(os.Stdout, "RESURRECT: ", log.LstdFlags)),
			config.AppConfig.ScanInterval,
			log.New(os.Stdout, "SCAN: ", log.LstdFlags),
		)
		go scanWorker.Start(ctx)
	}

	// Daily email digest of top outreach picks
	if config.AppConfig.DigestEnabled && config.AppConfig.DigestRecipient != "" {
		digestWorker := worker.NewDigestWorker(
			config.DB,
			utils.NewRanker(config.DB, log.New(os.Stdout, "RANK: ", log.LstdFlags)),
			config.AppConfig.DigestRecipient,
			log.New(os.Stdout, "DIGEST: ", log.LstdFlags),
		)
		go digestWorker.Start(ctx)
	}

	// Setup routes
	routes.SetupRoutes(app, config.DB)

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
