package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bizdir/internal/handlers"
	"bizdir/internal/middleware"
	"bizdir/internal/models"
	"bizdir/internal/repositories"
	"bizdir/internal/services"
	"bizdir/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_DSN", "") // empty: embedded SQLite file
	viper.SetDefault("SQLITE_PATH", "bizdir.db")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("RABBITMQ_URL", "") // empty: moderation events disabled
	viper.SetDefault("ENABLE_DEBUG_ROUTES", false)
	viper.AutomaticEnv() // Load environment variables

	appPort := viper.GetString("APP_PORT")
	jwtSecret := viper.GetString("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// --- Initialize Database (GORM) ---
	db, err := openDatabase()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Business{}); err != nil {
		log.Fatalf("Failed to auto-migrate database: %v", err)
	}

	// --- Initialize RabbitMQ Client (optional) ---
	var mqClient *rabbitmq.Client
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: mqURL})
		if err != nil {
			// Moderation events are a side channel; the API keeps serving.
			log.Printf("Warning: RabbitMQ unavailable, moderation events disabled: %v", err)
		} else {
			defer mqClient.Close()
		}
	}

	// --- Initialize Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	businessRepo := repositories.NewGORMBusinessRepository(db)

	// --- Initialize Services ---
	authService := services.NewAuthService(userRepo, jwtSecret)
	var publisher services.EventPublisher
	if mqClient != nil {
		publisher = mqClient
	}
	businessService := services.NewBusinessService(businessRepo, publisher)

	// Optional admin bootstrap from configuration.
	seedAdmin(authService)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService, viper.GetBool("ENABLE_DEBUG_ROUTES"))
	businessHandler := handlers.NewBusinessHandler(businessService)
	adminHandler := handlers.NewAdminHandler(businessService)

	// --- Initialize Fiber App ---
	app := fiber.New()

	// --- Middleware ---
	app.Use(logger.New()) // Request logger

	// --- API Routes ---
	api := app.Group("/api")

	// Authentication routes (public)
	authHandler.RegisterRoutes(api)

	// Mutations require a valid, non-expired token; public reads resolve a
	// viewer identity when a token happens to be sent.
	authRequired := middleware.AuthRequired(authService)
	optionalAuth := middleware.OptionalAuth(authService)

	// Listing routes: public reads and protected mutations
	businessHandler.RegisterRoutes(api, authRequired, optionalAuth)
	// Moderation and reporting routes
	adminHandler.RegisterRoutes(api, authRequired)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start Moderation Event Consumer in a Goroutine ---
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for moderation events...")
			messageHandler := func(msg amqp.Delivery) error {
				// Notification hook: downstream delivery (owner email etc.)
				// plugs in here.
				log.Printf("Received moderation event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}
			if consumerErr := mqClient.ConsumeModerationEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// openDatabase connects to PostgreSQL when DATABASE_DSN is set and falls back
// to the embedded SQLite file otherwise.
func openDatabase() (*gorm.DB, error) {
	if dsn := viper.GetString("DATABASE_DSN"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(viper.GetString("SQLITE_PATH")), &gorm.Config{})
}

// seedAdmin creates the configured administrator account if ADMIN_EMAIL and
// ADMIN_PASSWORD are set and the account does not exist yet.
func seedAdmin(authService *services.AuthService) {
	email := viper.GetString("ADMIN_EMAIL")
	password := viper.GetString("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}

	err := authService.CreateAdmin(&models.User{
		Name:     "Administrator",
		Email:    email,
		Password: password,
	})
	if err != nil {
		if errors.Is(err, models.ErrEmailRegistered) {
			return
		}
		log.Printf("Error seeding admin account: %v", err)
		return
	}
	log.Printf("Seeded admin account: %s", email)
}
