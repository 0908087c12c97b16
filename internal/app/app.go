package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "stivoting/docs"
	"stivoting/internal/cache"
	"stivoting/internal/config"
	"stivoting/internal/handlers"
	"stivoting/internal/repositories"
	"stivoting/internal/routes"
	"stivoting/internal/services"
)

const sweepInterval = time.Hour

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	// === Redis (profile cache) ===
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	placeholderRepo := repositories.NewPlaceholderRepository(db)
	verificationRepo := repositories.NewEmailVerificationRepository(db)
	passwordCodeRepo := repositories.NewPasswordCodeRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)

	// === Services ===
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Client.BaseURL,
	)
	otpService := services.NewOTPService(verificationRepo, passwordCodeRepo, emailService)
	registrationService := services.NewRegistrationService(
		placeholderRepo,
		otpService,
		cfg.Client.BaseURL,
		cfg.Registration.PendingTTL.Std(),
	)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, []byte(cfg.JWT.Secret))
	profileCache := cache.NewProfileCache(rdb, userRepo, cfg.Cache.ProfileTTL.Std())
	resetService := services.NewPasswordResetService(userRepo, passwordCodeRepo, otpService, profileCache)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(registrationService, authService, resetService, profileCache)

	// background sweep for abandoned registrations
	if cfg.Registration.PendingTTL.Std() > 0 {
		go func() {
			ticker := time.NewTicker(sweepInterval)
			defer ticker.Stop()
			for range ticker.C {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if _, err := registrationService.SweepExpired(ctx); err != nil {
					log.Printf("placeholder sweep failed: %v", err)
				}
				cancel()
			}
		}()
	}

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, authHandler, []byte(cfg.JWT.Secret))

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("failed to start server: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
