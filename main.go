package main

import (
	"log"

	"github.com/Zephyr-r/Zephyrus/config"
	"github.com/Zephyr-r/Zephyrus/handlers"
	"github.com/Zephyr-r/Zephyrus/internal/messaging"
	"github.com/Zephyr-r/Zephyrus/internal/order"
	"github.com/Zephyr-r/Zephyrus/middleware"
	"github.com/Zephyr-r/Zephyrus/utils"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer logger.Sync()

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := config.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "Zephyrus Backend",
		ServerHeader: "Zephyrus Backend Server/1.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Default 500 statuscode
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			// Retrieve the custom statuscode if it's a *fiber.Error
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			}

			return c.Status(code).JSON(fiber.Map{
				"error": msg,
			})
		},
	})

	middleware.SetupMiddleware(app)

	// Engines
	orderEngine := order.NewEngine(db, logger)
	messagingEngine := messaging.NewEngine(db, logger, cfg.AllowSelfMessaging)

	// Handlers
	authHandler := handlers.NewAuthHandler(db)
	userHandler := handlers.NewUserHandler(db)
	productHandler := handlers.NewProductHandler(db, logger)
	favoriteHandler := handlers.NewFavoriteHandler(db, logger)
	orderHandler := handlers.NewOrderHandler(orderEngine, logger)
	messageHandler := handlers.NewMessageHandler(messagingEngine, logger)
	categoryHandler := handlers.NewCategoryHandler(db)
	uploadHandler := handlers.NewUploadHandler(cfg.UploadDir)

	// Health Check Endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "success",
			"message": "API is healthy",
		})
	})

	app.Static("/uploads", "./uploads")

	api := app.Group("/api")

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Users
	users := api.Group("/users")
	users.Get("/search", utils.AuthMiddleware, userHandler.SearchUsers)
	users.Get("/:id", userHandler.GetUser)

	// Products
	products := api.Group("/products")
	products.Get("/", productHandler.GetAllProducts)
	products.Get("/search", productHandler.SearchProducts)
	products.Get("/:id", productHandler.GetProduct)
	products.Post("/", utils.AuthMiddleware, productHandler.CreateProduct)
	products.Put("/:id", utils.AuthMiddleware, productHandler.UpdateProduct)
	products.Delete("/:id", utils.AuthMiddleware, productHandler.DeleteProduct)
	products.Post("/:id/favorite", utils.AuthMiddleware, favoriteHandler.ToggleFavorite)
	api.Get("/my-products", utils.AuthMiddleware, productHandler.GetMyProducts)
	api.Get("/favorites", utils.AuthMiddleware, favoriteHandler.GetFavorites)

	// Orders
	orders := api.Group("/orders", utils.AuthMiddleware)
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Put("/:id/status", orderHandler.UpdateOrderStatus)

	// Messages
	messages := api.Group("/messages", utils.AuthMiddleware)
	messages.Get("/chats", messageHandler.GetChats)
	messages.Get("/history/:userId", messageHandler.GetHistory)
	messages.Post("/send", messageHandler.SendMessage)
	messages.Put("/read/:senderId", messageHandler.MarkRead)

	// Misc
	api.Get("/categories", categoryHandler.GetCategories)
	api.Post("/upload", utils.AuthMiddleware, uploadHandler.UploadImage)

	middleware.SetupNotFoundHandler(app)

	log.Printf("Server starting on host %s in port %s mode", cfg.HOST, cfg.AppPort)

	if err := app.Listen(cfg.HOST + ":" + cfg.AppPort); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
