package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-fulfillment-ws/internal/handler"
	"go-fulfillment-ws/internal/middleware"
	"go-fulfillment-ws/internal/model"
	"go-fulfillment-ws/internal/repository"
	"go-fulfillment-ws/internal/service"
	"go-fulfillment-ws/internal/ws"
	"go-fulfillment-ws/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	// Auto Migrate (use a dedicated migration tool in production)
	db.AutoMigrate(
		&model.Product{},
		&model.StockLot{},
		&model.LotConsumption{},
		&model.Order{},
		&model.OrderLineItem{},
		&model.Shipment{},
		&model.ShipmentLineItem{},
	)

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 4. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	lotRepo := repository.NewLotRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	shipmentRepo := repository.NewShipmentRepo(db)

	stockService := service.NewStockService(productRepo, lotRepo, orderRepo, db, wsHub)
	orderService := service.NewOrderService(orderRepo, productRepo, wsHub)
	shipmentService := service.NewShipmentService(orderRepo, shipmentRepo, db, wsHub)
	dashService := service.NewDashboardService(lotRepo)

	stockHandler := handler.NewStockHandler(stockService)
	orderHandler := handler.NewOrderHandler(orderService)
	shipmentHandler := handler.NewShipmentHandler(shipmentService)
	dashHandler := handler.NewDashboardHandler(dashService)

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Fulfillment & Costing Engine v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Request logging
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 6. Routes — every mutation is attributed to an operator
	api := app.Group("/api/v1", middleware.RequireOperator())

	// Dashboard
	api.Get("/dashboard/stats", dashHandler.GetDashboardStats)
	api.Get("/dashboard/stock-movement", dashHandler.GetStockMovement)

	// Products & stock ledger
	api.Get("/products", stockHandler.GetProducts)
	api.Post("/products", stockHandler.CreateProduct)
	api.Put("/products/:id", stockHandler.UpdateProduct)
	api.Get("/products/:id/lots", stockHandler.GetProductLots)
	api.Get("/products/:id/consumptions", stockHandler.GetProductConsumptions)
	api.Post("/lots", stockHandler.ReceiveStock)
	api.Post("/consumptions", stockHandler.ConsumeStock)

	// Orders & fulfillment
	api.Post("/orders", orderHandler.CreateOrder)
	api.Get("/orders", orderHandler.GetOrders)
	api.Get("/orders/:id", orderHandler.GetOrder)
	api.Get("/orders/:id/fulfillment", shipmentHandler.GetFulfillment)
	api.Get("/orders/:id/shipment-proposal", shipmentHandler.ProposeDraft)
	api.Get("/orders/:id/shipments", shipmentHandler.GetOrderShipments)
	api.Post("/orders/:id/shipments", shipmentHandler.CreateShipment)
	api.Delete("/shipments/:id", shipmentHandler.VoidShipment)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 7. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
