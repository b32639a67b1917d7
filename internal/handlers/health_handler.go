package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"userhook/internal/database"
)

const timeFormat = time.RFC3339

// HealthHandler reports liveness and store connectivity.
type HealthHandler struct {
	db     *gorm.DB
	driver string
}

// NewHealthHandler creates a new HealthHandler for the given store.
func NewHealthHandler(db *gorm.DB, driver string) *HealthHandler {
	return &HealthHandler{
		db:     db,
		driver: driver,
	}
}

// RegisterRoutes registers the liveness and health routes.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleRoot)
	router.Get("/health", h.HandleHealth)
}

// HandleRoot returns the liveness message.
func (h *HealthHandler) HandleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "User Webhook API (" + database.Provider(h.driver) + ")",
	})
}

// HandleHealth probes the store and reports connectivity plus the
// store's version. The probe result goes in the body; the HTTP call
// itself always succeeds with 200.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	dbStatus := "connected"
	dbVersion, err := database.Version(h.db, h.driver)
	if err != nil {
		dbStatus = fmt.Sprintf("error: %v", err)
		dbVersion = "unknown"
	}

	return c.JSON(fiber.Map{
		"status": "healthy",
		"database": fiber.Map{
			"status":   dbStatus,
			"version":  dbVersion,
			"provider": database.Provider(h.driver),
		},
		"timestamp": time.Now().Format(timeFormat),
	})
}
