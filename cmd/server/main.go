package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/manpuku-dev/gift-catalog/internal/config"
	"github.com/manpuku-dev/gift-catalog/internal/database"
	"github.com/manpuku-dev/gift-catalog/internal/handlers"
	"github.com/manpuku-dev/gift-catalog/internal/middleware"
	"github.com/manpuku-dev/gift-catalog/internal/services"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	// Load configuration
	cfg := config.Load()

	slogger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create admin user if it doesn't exist
	if err := database.EnsureAdminUser(db, cfg); err != nil {
		log.Printf("Warning: Could not ensure admin user: %v", err)
	}

	// Initialize the recommendation service. Without an API key the service
	// still runs and answers with the built-in fallback recommendations.
	var llmClient services.Client
	if cfg.OpenAIAPIKey != "" {
		llmClient, err = services.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			log.Printf("Warning: Failed to initialize OpenAI client: %v", err)
		}
	} else {
		log.Println("OPENAI_API_KEY not set, recommendations use fallback mode")
	}
	recommender := services.NewRecommender(llmClient, cfg.RecommendTimeout, slogger)

	ingester := services.NewIngester(db, slogger)

	// Initialize storage for bucket-based CSV imports. Optional: without
	// credentials the import-from-storage endpoint reports unavailable.
	var storage *services.StorageService
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		storage, err = services.NewStorageService(
			cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL,
		)
		if err != nil {
			log.Printf("Warning: Failed to initialize storage service: %v", err)
			storage = nil
		} else if err := storage.EnsureBucket(context.Background()); err != nil {
			log.Printf("Warning: Failed to ensure S3 bucket exists: %v", err)
		}
	} else {
		log.Println("S3 credentials not configured, storage import disabled")
	}

	// Create handler with dependencies
	h := handlers.New(db, cfg, ingester, recommender, storage)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    50 * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API routes
	api := app.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/login", h.Login)

	// Recommendation route (public)
	api.Post("/recommend", h.Recommend)

	// Catalog routes (public read)
	gifts := api.Group("/gifts")
	gifts.Get("/", h.ListGifts)
	gifts.Get("/stats", h.GetGiftStats)
	gifts.Get("/:giftId", h.GetGift)

	// Admin routes (admin only)
	admin := api.Group("/admin", middleware.AuthRequired(cfg), middleware.AdminRequired())
	admin.Post("/upload-csv", h.UploadCSV)
	admin.Post("/import-from-storage", h.ImportFromStorage)
	admin.Get("/uploads", h.ListUploadHistory)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
