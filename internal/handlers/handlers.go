package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/manpuku-dev/gift-catalog/internal/config"
	"github.com/manpuku-dev/gift-catalog/internal/database"
	"github.com/manpuku-dev/gift-catalog/internal/services"
)

// Handler holds all handler dependencies
type Handler struct {
	db          *database.DB
	cfg         *config.Config
	validate    *validator.Validate
	ingester    *services.Ingester
	recommender *services.Recommender
	storage     *services.StorageService
}

// New creates a new Handler instance. The storage service may be nil when no
// bucket is configured; the storage-import endpoint then reports it as
// unavailable.
func New(db *database.DB, cfg *config.Config, ingester *services.Ingester, recommender *services.Recommender, storage *services.StorageService) *Handler {
	return &Handler{
		db:          db,
		cfg:         cfg,
		validate:    validator.New(),
		ingester:    ingester,
		recommender: recommender,
		storage:     storage,
	}
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Default to 500
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// APIResponse is a standard API response structure. Every endpoint answers
// with a success flag and a human-readable message, never a raw error.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}
