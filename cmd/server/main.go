package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/sreerambrahmagnani/self-order-backend/internal/assets"
	"github.com/sreerambrahmagnani/self-order-backend/internal/config"
	"github.com/sreerambrahmagnani/self-order-backend/internal/handlers"
	"github.com/sreerambrahmagnani/self-order-backend/internal/middleware"
	"github.com/sreerambrahmagnani/self-order-backend/internal/models"
	"github.com/sreerambrahmagnani/self-order-backend/internal/realtime"
	"github.com/sreerambrahmagnani/self-order-backend/internal/service"
	"github.com/sreerambrahmagnani/self-order-backend/internal/storage"
	"github.com/sreerambrahmagnani/self-order-backend/pkg/logger"
)

func main() {
	// Optional .env file for local development
	_ = godotenv.Load()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting self-order api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"data_dir", cfg.Data.Dir,
		"log_level", cfg.LogLevel,
	)

	// Initialize persisted state: the two collection files and the
	// image directory are created when missing.
	products := storage.NewCollection[models.Product](cfg.Data.ProductsFile())
	orders := storage.NewCollection[models.Order](cfg.Data.OrdersFile())
	if err := products.Init(); err != nil {
		log.Error("failed to initialize products collection", "error", err)
		os.Exit(1)
	}
	if err := orders.Init(); err != nil {
		log.Error("failed to initialize orders collection", "error", err)
		os.Exit(1)
	}

	assetStore := assets.NewStore(cfg.Data.ImagesDir())
	if err := assetStore.Init(); err != nil {
		log.Error("failed to initialize asset store", "error", err)
		os.Exit(1)
	}

	// Realtime change notification hub
	hub := realtime.NewHub(log)
	defer hub.Close()

	// Initialize services
	productService := service.NewProductService(products, assetStore, hub, log)
	orderService := service.NewOrderService(orders, hub, log)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(log)
	productHandler := handlers.NewProductHandler(productService, assetStore, log)
	orderHandler := handlers.NewOrderHandler(orderService, log)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)

	// CORS configuration: the kiosk frontend is served from arbitrary
	// origins, so the API is open.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Register health check endpoint
	r.Get("/health", healthHandler.ServeHTTP)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		// Product endpoints
		r.Get("/products", productHandler.ListProducts)
		r.Post("/products", productHandler.CreateProduct)
		r.Put("/products/{id}", productHandler.UpdateProduct)
		r.Patch("/products/{id}", productHandler.ToggleProduct)
		r.Delete("/products/{id}", productHandler.DeleteProduct)

		// Order endpoints
		r.Get("/orders", orderHandler.ListOrders)
		r.Post("/orders", orderHandler.CreateOrder)
		r.Put("/orders/{id}", orderHandler.UpdateOrder)
		r.Delete("/orders/{id}", orderHandler.DeleteOrder)
	})

	// Realtime push channel (no timeout middleware: long-lived)
	r.Get("/ws", hub.ServeWS)

	// Uploaded images are served statically by their stored filename
	imageServer := http.StripPrefix(assets.URLPrefix, http.FileServer(http.Dir(assetStore.Dir())))
	r.Get(assets.URLPrefix+"*", imageServer.ServeHTTP)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
