package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"userhook/internal/config"
	"userhook/internal/database"
	"userhook/internal/handlers"
	"userhook/internal/repositories"
	"userhook/internal/services"
	"userhook/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()

	// --- Database ---
	// The store handle is constructed here and passed down explicitly;
	// nothing below holds process-wide connection state.
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := database.Migrate(db, cfg.DBDriver); err != nil {
		// Startup aborts if table or index creation fails.
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Printf("Database ready (%s)", database.Provider(cfg.DBDriver))

	// --- Event publisher (optional) ---
	// The webhook API must come up without the broker: a connect
	// failure downgrades to no publishing instead of aborting.
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQEnabled {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Printf("RabbitMQ unavailable, continuing without event publishing: %v", err)
		} else {
			publisher = mqClient
			defer mqClient.Close()
		}
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)

	// --- Services ---
	userService := services.NewUserService(userRepo, publisher)

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService)
	healthHandler := handlers.NewHealthHandler(db, cfg.DBDriver)

	// --- Fiber App ---
	app := fiber.New()
	app.Use(logger.New())

	healthHandler.RegisterRoutes(app)
	userHandler.RegisterRoutes(app)

	// --- Start HTTP Server ---
	log.Printf("Starting server on %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
