package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	"linkedcrm/config"
	controller "linkedcrm/controllers"
	"linkedcrm/middleware"
	"linkedcrm/utils"
)

func SetupAuthRoutes(app *fiber.App) {
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Get("/me", controller.GetCurrentOperator)
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB) {
	// Shared domain services
	scorer := utils.NewWarmthScorer(db, log.New(os.Stdout, "WARMTH: ", log.LstdFlags))
	segmenter := utils.NewSegmenter(db, log.New(os.Stdout, "SEGMENT: ", log.LstdFlags))
	scanner := utils.NewResurrectionScanner(db, log.New(os.Stdout, "RESURRECT: ", log.LstdFlags))
	ranker := utils.NewRanker(db, log.New(os.Stdout, "RANK: ", log.LstdFlags))
	parser := utils.NewExportParser(db, scorer, config.AppConfig.MyLinkedInURL, log.New(os.Stdout, "IMPORT: ", log.LstdFlags))
	queue := utils.NewQueueService(db, scanner, log.New(os.Stdout, "QUEUE: ", log.LstdFlags))
	generator := utils.NewMessageGenerator(db, config.AppConfig.AnthropicAPIKey, config.AppConfig.AnthropicModel)

	contactController := controller.NewContactController(db, scorer, segmenter, log.New(os.Stdout, "CONTACT: ", log.LstdFlags))
	importController := controller.NewImportController(db, parser, log.New(os.Stdout, "IMPORT: ", log.LstdFlags))
	targetCompanyController := controller.NewTargetCompanyController(db, segmenter, log.New(os.Stdout, "TARGET: ", log.LstdFlags))
	resurrectionController := controller.NewResurrectionController(db, scanner, log.New(os.Stdout, "RESURRECT: ", log.LstdFlags))
	rankingController := controller.NewRankingController(db, ranker, log.New(os.Stdout, "RANK: ", log.LstdFlags))
	queueController := controller.NewQueueController(db, queue, log.New(os.Stdout, "QUEUE: ", log.LstdFlags))
	generateController := controller.NewGenerateController(db, generator, log.New(os.Stdout, "GENERATE: ", log.LstdFlags))
	analyticsController := controller.NewAnalyticsController(db, log.New(os.Stdout, "ANALYTICS: ", log.LstdFlags))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Contact routes
	contact := api.Group("/contacts")
	contact.Get("/", contactController.ListContacts)
	contact.Get("/top-warmth", contactController.TopWarmth)
	contact.Get("/stats", contactController.ContactStats)
	contact.Post("/recalculate-warmth", contactController.RecalculateWarmth)
	contact.Post("/segment", contactController.RunSegmentation)
	contact.Get("/:id", contactController.GetContact)
	contact.Patch("/:id/tags", contactController.UpdateTags)
	contact.Get("/:id/priority", rankingController.ContactPriority)
	contact.Post("/:id/dismiss-hooks", resurrectionController.DismissForContact)

	// Import routes
	importGroup := api.Group("/import")
	importGroup.Post("/connections", importController.UploadConnections)
	importGroup.Post("/messages", importController.UploadMessages)
	importGroup.Get("/history", importController.UploadHistory)

	// Target company routes
	target := api.Group("/target-companies")
	target.Get("/", targetCompanyController.ListTargetCompanies)
	target.Post("/", targetCompanyController.CreateTargetCompany)
	target.Put("/:id", targetCompanyController.UpdateTargetCompany)
	target.Delete("/:id", targetCompanyController.DeleteTargetCompany)

	// Resurrection routes
	resurrection := api.Group("/resurrection")
	resurrection.Post("/scan", resurrectionController.Scan)
	resurrection.Get("/opportunities", resurrectionController.ListOpportunities)
	resurrection.Post("/opportunities/:id/dismiss", resurrectionController.Dismiss)

	// Ranking routes
	api.Get("/recommendations/daily", rankingController.DailyRecommendations)

	// Queue routes
	queueGroup := api.Group("/queue")
	queueGroup.Post("/", queueController.AddToQueue)
	queueGroup.Get("/", queueController.ListQueue)
	queueGroup.Get("/stats", queueController.QueueStats)
	queueGroup.Patch("/:id/status", queueController.UpdateStatus)
	queueGroup.Patch("/:id/message", queueController.UpdateMessage)
	queueGroup.Delete("/:id", queueController.DeleteQueueItem)

	// Message generation, rate limited per IP
	api.Post("/generate", middleware.GenerateRateLimiter(), generateController.GenerateMessage)

	// Analytics routes
	api.Get("/analytics/overview", analyticsController.NetworkOverview)

	// WebSocket route for full-pipeline rescan progress
	pipeline := &controller.ScanPipeline{
		Scorer:    scorer,
		Segmenter: segmenter,
		Scanner:   scanner,
	}
	app.Get("/api/v1/rescan/progress", websocket.New(controller.HandleRescanWS(pipeline)))

	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Setup auth routes
	SetupAuthRoutes(app)

	// Setup API routes
	SetupAPIRoutes(app, db)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
