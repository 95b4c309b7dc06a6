package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"github.com/google/uuid"

	"localmart/internal/caching"
	"localmart/internal/handlers"
	"localmart/internal/jobs"
	"localmart/internal/middleware"
	"localmart/internal/repositories"
	"localmart/internal/services"
	"localmart/pkg/database"
)

const version = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret; sessions will not survive a restart")
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379" // Default Redis address
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDBStr := os.Getenv("REDIS_DB")
	redisDB := 0 // Default DB
	if redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000" // Default MinIO endpoint
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin" // Default for development
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin" // Default for development
	}
	minioBucket := os.Getenv("MINIO_BUCKET")
	if minioBucket == "" {
		minioBucket = "localmart-images"
	}
	minioPublicURL := os.Getenv("MINIO_PUBLIC_URL")
	if minioPublicURL == "" {
		minioPublicURL = "http://" + minioEndpoint
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	// Category subtree whose products carry per-size quantities
	var sizedRootID uuid.UUID
	if raw := os.Getenv("SIZED_ROOT_CATEGORY_ID"); raw != "" {
		sizedRootID, err = uuid.Parse(raw)
		if err != nil {
			log.Fatalf("Invalid SIZED_ROOT_CATEGORY_ID: %v", err)
		}
	}

	// Initialize image storage
	imageSvc, err := services.NewMinioImageService(minioEndpoint, minioAccessKey, minioSecretKey, minioBucket, minioPublicURL, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize image storage: %v", err)
	}
	if err := imageSvc.EnsureBucketExists(context.Background()); err != nil {
		log.Fatalf("Failed to prepare image bucket: %v", err)
	}

	// Create repositories
	userRepo := repositories.NewUserRepo(pool)
	storeRepo := repositories.NewStoreRepo(pool)
	categoryRepo := repositories.NewCategoryRepo(pool)
	productRepo := repositories.NewProductRepo(pool)
	sizeRepo := repositories.NewProductSizeRepo(pool)
	orderRepo := repositories.NewOrderRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	authSvc := services.NewAuthService(cacheSvc, jwtSecret, 15*time.Minute, 7*24*time.Hour)
	categorySvc := services.NewCategoryService(categoryRepo, sizedRootID)
	catalogSvc := services.NewCatalogService(productRepo, sizeRepo, categoryRepo, storeRepo)
	orderSvc := services.NewOrderService(orderRepo, productRepo, cacheSvc)

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, userRepo, storeRepo, cacheSvc)
	productHandlers := handlers.NewProductHandlers(catalogSvc, categorySvc, imageSvc)
	categoryHandlers := handlers.NewCategoryHandlers(categorySvc)
	orderHandlers := handlers.NewOrderHandlers(orderSvc)
	healthHandlers := handlers.NewHealthHandlers(pool)

	// Background maintenance
	scheduler := jobs.NewJobScheduler(sizeRepo)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	v1 := e.Group("/v1")

	// Authentication routes
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.Signup)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/store/signup", authHandlers.StoreSignup)
	auth.POST("/store/login", authHandlers.StoreLogin)
	auth.POST("/refresh", authHandlers.Refresh)
	auth.POST("/logout", authHandlers.Logout)

	// Public catalog routes
	v1.GET("/stores", productHandlers.ListStores)
	v1.GET("/categories", categoryHandlers.ListCategories)
	v1.GET("/products/by-category", productHandlers.ListProductsByCategory)
	v1.GET("/products/top/:categoryId", productHandlers.TopProducts)
	v1.GET("/products/:id", productHandlers.GetProduct)
	v1.GET("/products/:id/sizes", productHandlers.ListProductSizes)

	// Shopper routes
	shopper := v1.Group("", middleware.Principal(authSvc), middleware.RequireUser())
	shopper.POST("/orders", orderHandlers.SubmitOrder)

	// Store routes
	store := v1.Group("/store", middleware.Principal(authSvc), middleware.RequireStore())
	store.GET("/products", productHandlers.ListMyProducts)
	store.POST("/products", productHandlers.CreateProduct)
	store.PUT("/products/:id", productHandlers.UpdateProduct)
	store.DELETE("/products/:id", productHandlers.DeleteProduct)
	store.PUT("/products/:id/sizes", productHandlers.UpsertProductSizes)
	store.POST("/products/:id/image", productHandlers.UploadProductImage)
	store.POST("/categories", categoryHandlers.CreateCategory)
	store.PUT("/categories/:id", categoryHandlers.UpdateCategory)
	store.DELETE("/categories/:id", categoryHandlers.DeleteCategory)
	store.GET("/orders", orderHandlers.ListReservedOrders)
	store.GET("/orders/:orderId/lines", orderHandlers.GetOrderLines)
	store.PUT("/orders/:orderId/lines/:productId/status", orderHandlers.UpdateLineStatus)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("Localmart server v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
