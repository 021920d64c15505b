package main

import (
	"fmt"
	"net/http"
	"os"

	"brickvest/internal/config"
	"brickvest/internal/database"
	"brickvest/internal/handlers"
	"brickvest/internal/ledger"
	"brickvest/internal/logger"
	"brickvest/internal/middleware"
	"brickvest/internal/services"
	"brickvest/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "brickvest/internal/docs" // Import swagger docs
)

// @title           Brickvest API
// @version         1.0
// @description     Brickvest lets users invest in tokenized real-world assets. Asset records and share ownership live on an on-chain ledger contract; this API reads the ledger, submits purchases, and keeps an off-chain purchase history.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey AdminKeyAuth
// @in header
// @name X-Admin-Key
// @description Static admin API key for ledger administration endpoints.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Ledger client. The RPC connection and signer are established lazily on
	// first use and cached; a missing RPC configuration only surfaces when a
	// ledger operation is attempted.
	ledgerClient := ledger.NewClient(ledger.Config{
		RPCURL:          appConfig.RPCURL,
		ChainID:         appConfig.ChainID,
		ContractAddress: appConfig.ContractAddress,
		PrivateKey:      appConfig.WalletPrivateKey,
		ConfirmTimeout:  appConfig.LedgerConfirmTimeout,
		ReadConcurrency: appConfig.LedgerReadConcurrency,
	})

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	investmentService := services.NewInvestmentService(db)
	assetService := services.NewAssetService(ledgerClient, investmentService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	assetHandler := handlers.NewAssetHandler(assetService, auditService)
	adminHandler := handlers.NewAdminHandler(assetService, auditService)
	investmentHandler := handlers.NewInvestmentHandler(investmentService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Asset reads are public; the ledger is world-readable anyway.
	assets := v1.Group("/assets")
	assets.GET("", assetHandler.ListAssets)
	assets.GET("/:id", assetHandler.GetAsset)
	assets.GET("/:id/contributors", assetHandler.GetContributors)
	assets.GET("/:id/shares", assetHandler.GetBuyerShares)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile and wallets
	protected.GET("/profile", authHandler.GetProfile)
	protected.POST("/profile/wallets", authHandler.LinkWallet)
	protected.GET("/profile/wallets", authHandler.GetWallets)

	// Purchases and history
	protected.POST("/assets/:id/purchase", assetHandler.Purchase)
	protected.GET("/investments", investmentHandler.GetUserInvestments)
	protected.GET("/investments/by-wallet", investmentHandler.GetInvestmentsByWallet)

	// Admin routes: ledger writes from the service wallet
	admin := v1.Group("/admin")
	admin.Use(middleware.AdminAuthMiddleware(appConfig.AdminAPIKey))
	admin.POST("/assets", adminHandler.CreateAsset)
	admin.PATCH("/assets/:id/active", adminHandler.SetAssetActive)
	admin.POST("/assets/:id/withdraw", adminHandler.Withdraw)
	admin.GET("/owner", adminHandler.CheckOwner)
	admin.POST("/session/reset", adminHandler.ResetSession)

	log.Infof("Starting Brickvest backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
