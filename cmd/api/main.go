package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"reckon/internal/categorize"
	"reckon/internal/config"
	"reckon/internal/database"
	"reckon/internal/handlers"
	"reckon/internal/importer"
	"reckon/internal/llm"
	"reckon/internal/logger"
	"reckon/internal/middleware"
	"reckon/internal/services"
	"reckon/internal/validator"
)

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

	// Register custom request validators
	validator.Register()

	// The LLM is optional: without an API key the categorizer chain
	// skips inference, PDF imports are rejected, and suggestions are
	// unavailable. Everything else works.
	var strategy llm.Strategy
	var extractor importer.TransactionExtractor
	if appConfig.GeminiAPIKey != "" {
		gemini, err := llm.NewGemini(context.Background(), appConfig.GeminiAPIKey, appConfig.GeminiModel)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		strategy = gemini
		extractor = gemini
		log.Infof("LLM categorization enabled (model %s)", appConfig.GeminiModel)
	} else {
		log.Info("LLM categorization disabled: GEMINI_API_KEY not set")
	}

	// Initialize services
	db := dbManager.DB()
	chain := categorize.NewChain(db, strategy)
	userService := services.NewUserService(db)
	accountService := services.NewAccountService(db)
	categoryService := services.NewCategoryService(db)
	ruleService := services.NewRuleService(db)
	transactionService := services.NewTransactionService(db, chain)
	importService := services.NewImportService(db, chain, extractor)
	suggestionService := services.NewSuggestionService(db, chain, strategy, transactionService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	accountHandler := handlers.NewAccountHandler(accountService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	ruleHandler := handlers.NewRuleHandler(ruleService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	importHandler := handlers.NewImportHandler(importService)
	suggestionHandler := handlers.NewSuggestionHandler(suggestionService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.MaxMultipartMemory = services.MaxUploadBytes

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

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

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Account routes
	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Merchant rule routes
	rules := protected.Group("/rules")
	rules.POST("", ruleHandler.CreateRule)
	rules.GET("", ruleHandler.GetRules)
	rules.DELETE("/:id", ruleHandler.DeleteRule)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.POST("/auto-categorize", transactionHandler.AutoCategorize)

	// Import pipeline routes
	imports := protected.Group("/import")
	imports.POST("", importHandler.Import)
	imports.GET("/sessions/:id", importHandler.GetSession)
	imports.PATCH("/sessions/:id/transactions/:txnId", importHandler.UpdateStagingTransaction)
	imports.DELETE("/sessions/:id", importHandler.DeleteSession)
	imports.POST("/sessions/:id/auto-categorize", importHandler.RecategorizeSession)
	imports.POST("/sessions/:id/commit", importHandler.Commit)

	// Suggestion routes
	suggestions := protected.Group("/suggestions")
	suggestions.POST("/generate", suggestionHandler.Suggest)
	suggestions.POST("/apply", suggestionHandler.Apply)

	log.Infof("Starting Reckon backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
