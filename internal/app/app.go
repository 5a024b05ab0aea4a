package app

import (
	"context"
	"errors"
	"fmt"

	"kidsbook_backend/internal/config"
	"kidsbook_backend/internal/database"
	"kidsbook_backend/internal/handlers"
	"kidsbook_backend/internal/logger"
	"kidsbook_backend/internal/middleware"
	"kidsbook_backend/internal/models"
	"kidsbook_backend/internal/repositories"
	"kidsbook_backend/internal/routes"
	"kidsbook_backend/internal/services"
	"kidsbook_backend/internal/services/billing"
	"kidsbook_backend/internal/validator"
	"kidsbook_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

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

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	if err := seedPlans(gormDB); err != nil {
		logger.Fatal("Failed to seed plans", "error", err)
	}
	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ginRouter := SetupRouter(cfg, gormDB)

	// Фоновый присмотр за подписками
	worker := workers.NewSubscriptionWorker(gormDB, repositories.NewSubscriptionRepository())
	worker.Start(context.Background())

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter собирает полностью сконфигурированный gin.Engine.
// extraMiddleware вставляется перед DBMiddleware: интеграционные тесты
// подкладывают сюда подстановку транзакции вместо пула.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB, extraMiddleware ...gin.HandlerFunc) *gin.Engine {
	serviceContainer := initializeServices(cfg)
	appHandlers := initializeHandlers(serviceContainer)

	ginRouter := initializeGinRouter(gormDB, extraMiddleware...)
	routes.RegisterRoutes(ginRouter, appHandlers)

	return ginRouter
}

func initializeServices(cfg *config.Config) *services.ServiceContainer {
	userRepo := repositories.NewUserRepository()
	childRepo := repositories.NewChildRepository()
	catalogRepo := repositories.NewCatalogRepository()
	sessionRepo := repositories.NewSessionRepository()
	bookingRepo := repositories.NewBookingRepository()
	subscriptionRepo := repositories.NewSubscriptionRepository()

	authService := services.NewAuthService(userRepo, childRepo, subscriptionRepo, nil)
	childService := services.NewChildService(childRepo)
	catalogService := services.NewCatalogService(catalogRepo, sessionRepo, childRepo, nil)
	bookingService := services.NewBookingService(childRepo, sessionRepo, bookingRepo, subscriptionRepo, nil)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo)
	stripeService := billing.NewStripeFromConfig(cfg, subscriptionRepo, userRepo)
	if stripeService == nil {
		logger.Warn("Stripe is not configured, billing endpoints disabled")
	}

	return &services.ServiceContainer{
		AuthService:         authService,
		ChildService:        childService,
		CatalogService:      catalogService,
		BookingService:      bookingService,
		SubscriptionService: subscriptionService,
		StripeService:       stripeService,
	}
}

func initializeHandlers(sc *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, sc.AuthService),
		ChildHandler:        handlers.NewChildHandler(baseHandler, sc.ChildService),
		ActivityHandler:     handlers.NewActivityHandler(baseHandler, sc.CatalogService),
		BookingHandler:      handlers.NewBookingHandler(baseHandler, sc.BookingService),
		SubscriptionHandler: handlers.NewSubscriptionHandler(baseHandler, sc.SubscriptionService, sc.StripeService),
		AdminHandler:        handlers.NewAdminHandler(baseHandler, sc.CatalogService, sc.BookingService),
	}
}

func initializeGinRouter(db *gorm.DB, extraMiddleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	for _, m := range extraMiddleware {
		router.Use(m)
	}
	router.Use(middleware.DBMiddleware(db))
	return router
}

// seedPlans создает стартовые тарифы, если их еще нет.
// Код плана стабилен, поэтому существующие записи не трогаем.
func seedPlans(db *gorm.DB) error {
	plans := []models.Plan{
		{
			Code:             "LITTLE_EXPLORER",
			Name:             "Little Explorer",
			Description:      "Perfect for trying out new activities! 4 adventures per month.",
			PriceCents:       1900,
			Currency:         "EUR",
			CreditsPerPeriod: 4,
			Period:           models.PlanPeriodMonthly,
			IsActive:         true,
		},
		{
			Code:             "SUPER_STAR",
			Name:             "Super Star",
			Description:      "For curious kids who want more! 8 adventures per month.",
			PriceCents:       2900,
			Currency:         "EUR",
			CreditsPerPeriod: 8,
			Period:           models.PlanPeriodMonthly,
			IsActive:         true,
		},
		{
			Code:             "UNLIMITED_FUN",
			Name:             "Unlimited Fun",
			Description:      "The sky's the limit! Unlimited adventures every month.",
			PriceCents:       4900,
			Currency:         "EUR",
			CreditsPerPeriod: models.UnlimitedCredits,
			Period:           models.PlanPeriodMonthly,
			IsActive:         true,
		},
	}

	for i := range plans {
		var existing models.Plan
		err := db.Where("code = ?", plans[i].Code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check plan %s: %w", plans[i].Code, err)
		}
		if err := db.Create(&plans[i]).Error; err != nil {
			return fmt.Errorf("failed to create plan %s: %w", plans[i].Code, err)
		}
		logger.Info("Created plan", "code", plans[i].Code)
	}

	return nil
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

	logger.Warn("No admin user found. Creating first admin...", "email", adminEmail)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		Email:        adminEmail,
		PasswordHash: string(hashedPassword),
		Name:         "Admin",
		Role:         models.UserRoleAdmin,
	}

	if err := db.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	return nil
}
