package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bazaar/internal/config"
	"bazaar/internal/handlers"
	"bazaar/internal/middleware"
	"bazaar/internal/models"
	"bazaar/internal/repositories"
	"bazaar/internal/scheduler"
	"bazaar/internal/services"
	"bazaar/pkg/delhivery"
	"bazaar/pkg/rabbitmq"
	"bazaar/pkg/razorpay"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	cfg := config.Load()

	// --- Database ---
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.Warehouse{}); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	// --- RabbitMQ (best-effort: the service runs without a broker) ---
	var events services.EventPublisher
	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		log.WithError(err).Warn("RabbitMQ unavailable, lifecycle events disabled")
	} else {
		defer mqClient.Close()
		events = mqClient
	}

	// --- External adapters ---
	gateway := razorpay.NewClient(razorpay.Config{
		BaseURL:   cfg.GatewayBaseURL,
		KeyID:     cfg.GatewayKeyID,
		KeySecret: cfg.GatewayKeySecret,
		Timeout:   cfg.HTTPTimeout,
	})
	carrier := delhivery.NewClient(delhivery.Config{
		BaseURL: cfg.CarrierBaseURL,
		Token:   cfg.CarrierToken,
		Timeout: cfg.HTTPTimeout,
	})

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	warehouseRepo := repositories.NewGORMWarehouseRepository(db)

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.JWTSecret)
	productService := services.NewProductService(productRepo)
	checkoutService := services.NewCheckoutService(orderRepo, userRepo, gateway, events, cfg.Currency)
	orderService := services.NewOrderService(orderRepo, carrier, events)

	// --- Background scheduler ---
	sched := scheduler.New(orderRepo, productRepo, warehouseRepo, carrier, events, scheduler.Config{
		FulfillmentInterval: cfg.FulfillmentInterval,
		TrackingInterval:    cfg.TrackingInterval,
	})
	sched.Start(context.Background())
	defer sched.Stop()

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(checkoutService, orderService)
	warehouseHandler := handlers.NewWarehouseHandler(warehouseRepo)

	// --- Fiber App ---
	app := fiber.New()
	app.Use(fiberlogger.New())

	auth := middleware.AuthRequired(authService)
	adminOnly := middleware.AdminOnly()

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1, auth, adminOnly)
	orderHandler.RegisterRoutes(apiV1, auth)
	warehouseHandler.RegisterRoutes(apiV1, auth, adminOnly)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start HTTP Server ---
	log.WithField("port", cfg.AppPort).Info("Starting server")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Info("Shutting down server")

	if err := app.Shutdown(); err != nil {
		log.WithError(err).Error("Error during Fiber shutdown")
	}
	log.Info("Server gracefully stopped")
}

// openDatabase connects to postgres when a DSN is configured, falling back
// to an on-disk sqlite database for local development.
func openDatabase(dsn string) (*gorm.DB, error) {
	if dsn != "" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open("bazaar.db"), &gorm.Config{})
}
