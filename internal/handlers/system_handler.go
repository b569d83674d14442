package handlers

import (
	"time"

	"stardewshop/internal/database"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const apiVersion = "1.0"

// SystemHandler serves the status and health probes.
type SystemHandler struct {
	db *gorm.DB
}

// NewSystemHandler creates a new SystemHandler. db may be nil when the app
// runs on the in-memory repositories.
func NewSystemHandler(db *gorm.DB) *SystemHandler {
	return &SystemHandler{
		db: db,
	}
}

// RegisterAPIRoutes registers the status probe under the API prefix.
func (h *SystemHandler) RegisterAPIRoutes(router fiber.Router) {
	router.Get("/status", h.HandleStatus)
}

// RegisterRoutes registers the health probe at the root.
func (h *SystemHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleStatus reports that the API is up.
func (h *SystemHandler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": apiVersion,
	})
}

// HandleHealth pings the store; a failing store yields 500 with the error
// text.
func (h *SystemHandler) HandleHealth(c *fiber.Ctx) error {
	if h.db == nil {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"store":  "memory",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
	if err := database.Ping(h.db); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
