package main

import (
	_ "adminhub/api/swagger" // swagger docs
	"adminhub/internal/config"
	"adminhub/internal/database"
	"adminhub/internal/handler"
	"adminhub/internal/middleware"
	"adminhub/internal/obs"
	"adminhub/internal/realtime"
	"adminhub/internal/repository"
	"adminhub/internal/service"
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Admin Hub API
// @version         1.0
// @description     Admin dashboard backend with role-based permissions and a real-time activity event stream.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	db, err := database.NewConnection(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	obs.Init()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	activityService := service.NewActivityService(activityRepo)
	authService := service.NewAuthService(userRepo, roleRepo, tokenRepo, activityService,
		cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	userService := service.NewUserService(userRepo, roleRepo, txManager, tokenRepo, activityService)
	roleService := service.NewRoleService(roleRepo, activityService)
	categoryService := service.NewCategoryService(categoryRepo, activityService)
	settingsService := service.NewSettingsService(settingRepo, activityService)

	ctx := context.Background()

	// Seed built-in roles and the bootstrap admin account.
	if err := roleService.SeedDefaultRoles(ctx); err != nil {
		log.Fatalf("Role seeding failed: %v", err)
	}
	if err := userService.SeedBootstrapAdmin(ctx, cfg.Auth.BootstrapEmail, cfg.Auth.BootstrapPassword); err != nil {
		log.Fatalf("Admin seeding failed: %v", err)
	}

	// Set up the event pipeline: activity changes -> feed -> broadcaster.
	broadcaster := realtime.NewBroadcaster(cfg.Stream.HeartbeatInterval)
	feed := realtime.NewFeed(activityService, broadcaster, cfg.Stream.SubscribeRetry)
	broadcaster.AttachSource(feed)
	go broadcaster.Run(ctx)

	// Sweep expired refresh tokens so the table does not grow unbounded.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := tokenRepo.DeleteExpired(ctx); err != nil {
					log.Printf("Refresh token sweep failed: %v", err)
				}
			}
		}
	}()

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	activityHandler := handler.NewActivityHandler(activityService)
	eventsHandler := handler.NewEventsHandler(broadcaster)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.Use(obs.Instrument())
	router.Use(middleware.Authenticate(authService))
	router.Use(middleware.Maintenance(settingsService))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Metrics
	router.GET("/metrics", gin.WrapH(obs.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	categoryHandler.RegisterRoutes(router.Group(""))
	settingsHandler.RegisterRoutes(router.Group(""))
	activityHandler.RegisterRoutes(router.Group(""))
	eventsHandler.RegisterRoutes(router.Group(""))

	log.Printf("Server listening on :%s", cfg.HTTP.Port)
	if err := router.Run(":" + cfg.HTTP.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
