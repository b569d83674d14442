package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"stardewshop/internal/database"
	"stardewshop/internal/handlers"
	"stardewshop/internal/middleware"
	"stardewshop/internal/models"
	"stardewshop/internal/repositories"
	"stardewshop/internal/services"
	"stardewshop/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_DSN", "database.db")
	viper.SetDefault("JWT_SECRET", "stardew_valley_secret_key_change_me")
	viper.SetDefault("ADMIN_PASSWORD", "admin123")
	viper.SetDefault("ADMIN_PASSCODE", "")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")
	jwtSecret := viper.GetString("JWT_SECRET")

	// --- Storage ---
	// DB_DRIVER=memory runs the whole app on the in-memory repositories with
	// a seeded demo catalog and no database; anything else opens a GORM
	// store.
	var (
		db           *gorm.DB
		productRepo  repositories.ProductRepository
		userRepo     repositories.UserRepository
		orderRepo    repositories.OrderRepository
		feedbackRepo repositories.FeedbackRepository
	)
	if driver := viper.GetString("DB_DRIVER"); driver == "memory" {
		log.Println("Running on in-memory repositories, nothing will be persisted")
		productRepo = repositories.NewMockProductRepository()
		userRepo = repositories.NewMockUserRepository()
		orderRepo = repositories.NewMockOrderRepository()
		feedbackRepo = repositories.NewMockFeedbackRepository()
		if err := seedMemory(userRepo, productRepo, viper.GetString("ADMIN_PASSWORD")); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	} else {
		var err error
		db, err = database.Open(driver, viper.GetString("DB_DSN"))
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		if err := database.SeedAdmin(db, viper.GetString("ADMIN_PASSWORD")); err != nil {
			log.Fatalf("Failed to seed admin user: %v", err)
		}
		productRepo = repositories.NewGORMProductRepository(db)
		userRepo = repositories.NewGORMUserRepository(db)
		orderRepo = repositories.NewGORMOrderRepository(db)
		feedbackRepo = repositories.NewGORMFeedbackRepository(db)
	}

	// --- RabbitMQ (optional) ---
	// Order events are published only when a broker URL is configured.
	var mqClient *rabbitmq.Client
	if url := viper.GetString("RABBITMQ_URL"); url != "" {
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: url})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer client.Close()
		mqClient = client
	}

	// --- Services ---
	authService := services.NewAuthService(userRepo, jwtSecret)
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, userRepo, mqClient)
	feedbackService := services.NewFeedbackService(feedbackRepo)

	// --- Session store ---
	store := session.New(session.Config{
		CookieHTTPOnly: true,
	})

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, store)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService, orderService, store)
	orderHandler := handlers.NewOrderHandler(orderService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, authService, store)
	adminHandler := handlers.NewAdminHandler(productService, orderService, feedbackService, store, viper.GetString("ADMIN_PASSCODE"), productHandler, feedbackHandler)
	systemHandler := handlers.NewSystemHandler(db)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(logger.New())

	// Session-cookie surface, mirroring the page routes.
	authHandler.RegisterRoutes(app)
	productHandler.RegisterShopRoutes(app)
	cartHandler.RegisterRoutes(app)
	feedbackHandler.RegisterRoutes(app)
	adminHandler.RegisterRoutes(app)
	systemHandler.RegisterRoutes(app)

	// JSON API mirror. Product and feedback mutations and order reads take
	// the JWT admin gate; guest order creation is deliberately open.
	apiV1 := app.Group("/api/v1")
	systemHandler.RegisterAPIRoutes(apiV1)
	authHandler.RegisterAPIRoutes(apiV1)
	apiAdmin := []fiber.Handler{
		middleware.APIAuthRequired(authService),
		middleware.APIAdminRequired(),
	}
	productHandler.RegisterAPIRoutes(apiV1, apiAdmin...)
	orderHandler.RegisterAPIRoutes(apiV1, apiAdmin...)
	feedbackHandler.RegisterAPIRoutes(apiV1, apiAdmin...)

	// --- Order event consumer ---
	if mqClient != nil {
		log.Println("Starting order event consumer...")
		messageHandler := func(msg amqp.Delivery) error {
			log.Printf("Received order event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
			return nil
		}
		if consumerErr := mqClient.ConsumeOrderEvents(messageHandler); consumerErr != nil {
			log.Printf("Failed to start order event consumer: %v", consumerErr)
		}
	}

	// --- Start HTTP server ---
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
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

// seedMemory fills the in-memory repositories with the initial admin account
// and the demo catalog.
func seedMemory(userRepo repositories.UserRepository, productRepo repositories.ProductRepository, adminPassword string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	if err := userRepo.Create(&models.User{
		Username: "admin",
		Email:    "admin@stardew.com",
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	products := []models.Product{
		{Name: "Parsnip Seeds", Price: 20.0, Category: "Seeds", Image: "/static/img/parsnip_seeds.png"},
		{Name: "Cauliflower Seeds", Price: 80.0, Category: "Seeds", Image: "/static/img/cauliflower_seeds.png"},
		{Name: "Salmonberry", Price: 5.0, Category: "Forage", Image: "/static/img/salmonberry.png"},
		{Name: "Pale Ale", Price: 300.0, Category: "Artisan Goods", Image: "/static/img/pale_ale.png"},
	}
	for i := range products {
		if err := productRepo.Create(&products[i]); err != nil {
			return fmt.Errorf("failed to seed product %q: %w", products[i].Name, err)
		}
	}
	return nil
}
