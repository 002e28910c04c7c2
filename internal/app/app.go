package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"masterplace_backend/database"
	"masterplace_backend/internal/auth"
	"masterplace_backend/internal/config"
	"masterplace_backend/internal/handlers"
	"masterplace_backend/internal/logger"
	"masterplace_backend/internal/middleware"
	"masterplace_backend/internal/models"
	"masterplace_backend/internal/payments"
	"masterplace_backend/internal/repositories"
	"masterplace_backend/internal/routes"
	"masterplace_backend/internal/services"
	"masterplace_backend/internal/validator"
	"masterplace_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)
	serviceContainer := initializeServices(cfg, gormDB, tokens)

	// Фоновая активация запланированных тарифов
	worker := workers.NewSubscriptionWorker(
		serviceContainer.Subscription,
		time.Duration(cfg.Workers.SubscriptionIntervalMin)*time.Minute,
	)
	worker.Start(context.Background())

	ginRouter := SetupRouter(serviceContainer, tokens)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("🚀 Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func SetupRouter(serviceContainer *services.ServiceContainer, tokens *auth.TokenManager) *gin.Engine {
	customValidator := validator.New()
	appHandlers := handlers.NewHandlerContainer(serviceContainer, customValidator)

	ginRouter := initializeGinRouter()
	routes.RegisterRoutes(ginRouter, appHandlers, tokens)
	return ginRouter
}

func initializeServices(cfg *config.Config, gormDB *gorm.DB, tokens *auth.TokenManager) *services.ServiceContainer {
	var paymentProvider payments.Provider
	if cfg.Payments.Provider == "mock" {
		logger.Warn("--- Платёжный шлюз отключен. Используется MOCK. ---")
		paymentProvider = &MockPaymentProvider{}
	} else {
		paymentProvider = payments.NewHTTPProvider(
			cfg.Payments.Endpoint, cfg.Payments.MerchantID, cfg.Payments.SecretKey)
	}

	userRepo := repositories.NewUserRepository(gormDB)
	orderRepo := repositories.NewOrderRepository(gormDB)
	responseRepo := repositories.NewResponseRepository(gormDB)
	mediatorRepo := repositories.NewMediatorRepository(gormDB)
	subscriptionRepo := repositories.NewSubscriptionRepository(gormDB)
	settlementRepo := repositories.NewSettlementRepository(gormDB)
	reviewRepo := repositories.NewReviewRepository(gormDB)
	auditRepo := repositories.NewAuditRepository(gormDB)
	notificationRepo := repositories.NewNotificationRepository(gormDB)

	authService := services.NewAuthService(userRepo, tokens)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, userRepo)
	orderService := services.NewOrderService(orderRepo, userRepo, auditRepo, notificationRepo)
	responseService := services.NewResponseService(
		responseRepo, orderRepo, userRepo, subscriptionService, auditRepo, notificationRepo)
	mediatorService := services.NewMediatorService(
		mediatorRepo, orderRepo, userRepo, settlementRepo, auditRepo, notificationRepo)
	settlementService := services.NewSettlementService(
		settlementRepo, userRepo, auditRepo, notificationRepo, paymentProvider)
	reviewService := services.NewReviewService(reviewRepo, userRepo, orderRepo)

	return &services.ServiceContainer{
		Auth:         authService,
		Order:        orderService,
		Response:     responseService,
		Mediator:     mediatorService,
		Subscription: subscriptionService,
		Settlement:   settlementService,
		Review:       reviewService,
	}
}

func initializeGinRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	return router
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	var adminUser models.User
	result := db.Where("email = ?", adminEmail).First(&adminUser)
	if result.Error == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	logger.Warn("No admin user found with specified email. Creating first admin...", "email", adminEmail)

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		Email:        adminEmail,
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
	}
	if err := db.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user in database: %w", err)
	}

	logger.Info("First admin user created", "email", adminEmail)
	return nil
}
