package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/copper-mobile/app-api/internal/config"
	"github.com/copper-mobile/app-api/internal/handlers"
	"github.com/copper-mobile/app-api/internal/logging"
	"github.com/copper-mobile/app-api/internal/middleware"
	"github.com/copper-mobile/app-api/internal/observability"
	"github.com/copper-mobile/app-api/internal/services"
	"github.com/copper-mobile/app-api/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	_ "github.com/copper-mobile/app-api/docs"
)

// @title           Copper Mobile API
// @version         1.0
// @description     Carrier account backend. Phone numbers are verified with a one time SMS code before an account can be registered for them.

// @contact.name   Copper Mobile Engineering
// @contact.email  dev@coppermobile.mx

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name auth
// @tag.description Phone verification and login

// @tag.name users
// @tag.description Account registration and lookup

// @tag.name validation
// @tag.description Phone number checks

// @tag.name health
// @tag.description Health check operations

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	// Initialize logger first
	if err := logging.InitLogger(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = logging.Logger.Sync() }()

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logging.Logger.Fatal("failed to load config", zap.Error(err))
	}
	cfg := config.AppConfig

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize observability
	observability.InitTracer(ctx)
	defer observability.ShutdownTracer()

	// Initialize database connections
	if err := config.InitMongoDB(ctx); err != nil {
		logging.Logger.Fatal("failed to initialize MongoDB", zap.Error(err))
	}
	config.InitRedis(ctx)

	rules := utils.PhoneRules{Prefixes: cfg.OTPCountryPrefixes, MinDigits: cfg.OTPMinDigits}

	otpStore := services.NewMongoOTPStore(config.MongoDB.Collection(cfg.OTPCollection), cfg.MongoOperationTimeout)
	accountStore := services.NewMongoAccountStore(config.MongoDB.Collection(cfg.UsersCollection), cfg.MongoOperationTimeout)

	var dispatcher services.SMSDispatcher
	if cfg.SMSEnabled {
		dispatcher = services.NewSMSGatewayDispatcher(services.SMSGatewayConfig{
			BaseURL:         cfg.SMSBaseURL,
			Username:        cfg.SMSUsername,
			Password:        cfg.SMSPassword,
			Sender:          cfg.SMSSender,
			MessageTemplate: cfg.SMSMessageTemplate,
		}, config.Redis, logging.Logger)
	} else {
		logging.Logger.Warn("SMS delivery disabled, verification codes are only logged")
		dispatcher = services.NewLogDispatcher(logging.Logger)
	}

	otpService := services.NewOTPService(
		otpStore,
		accountStore,
		dispatcher,
		services.NewPerMinuteRateLimiter(cfg.SMSRateLimitPerMinute, logging.Logger),
		services.OTPConfig{
			Rules:       rules,
			CodeLength:  cfg.OTPCodeLength,
			CodeTTL:     cfg.OTPCodeTTL,
			VerifiedTTL: cfg.OTPVerifiedTTL,
		},
		logging.Logger,
	)
	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	userService := services.NewUserService(accountStore, otpService, tokenService, rules, cfg.BcryptCost, logging.Logger)

	sweeper := services.NewOTPSweeper(otpService, cfg.OTPSweepInterval, logging.Logger)
	sweeper.Start(ctx)

	var audit handlers.AuditLogger
	var auditWorker *services.AuditWorker
	if cfg.AuditLogsEnabled {
		auditWorker = services.NewAuditWorker(
			services.NewMongoAuditSink(config.MongoDB.Collection(cfg.AuditLogsCollection)),
			cfg.AuditWorkerCount,
			cfg.AuditBufferSize,
			logging.Logger,
		)
		audit = auditWorker
	}

	otpHandlers := handlers.NewOTPHandlers(otpService, audit)
	userHandlers := handlers.NewUserHandlers(userService, audit)
	phoneHandlers := handlers.NewPhoneHandlers(rules)
	healthHandlers := handlers.NewHealthHandlers(map[string]handlers.HealthCheck{
		"mongodb": func(ctx context.Context) error {
			return config.MongoDB.Client().Ping(ctx, readpref.Primary())
		},
		"redis": func(ctx context.Context) error {
			return config.Redis.Ping(ctx).Err()
		},
	}, config.Redis).ReportWorker("audit", auditWorker)

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router with middleware
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestTiming(),
		middleware.RequestLogger(),
		middleware.RequestTracker(),
		cors.Default(),
	)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/ping", healthHandlers.Ping)
		api.GET("/health", healthHandlers.Health)

		auth := api.Group("/auth")
		{
			auth.POST("/send-otp", otpHandlers.SendOTP)
			auth.POST("/validate-otp", otpHandlers.ValidateOTP)
			auth.POST("/login", userHandlers.Login)
		}

		users := api.Group("/users")
		{
			users.POST("/", userHandlers.CreateUser)
			users.GET("/existe", userHandlers.Exists)
			users.GET("/:phone",
				middleware.AuthMiddleware(tokenService),
				middleware.RequireOwnPhone(),
				userHandlers.GetUser,
			)
		}

		api.POST("/validate/phone", phoneHandlers.ValidatePhoneNumber)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Create server with timeouts
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logging.Logger.Info("starting server",
			zap.Int("port", cfg.Port),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logging.Logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Error("server forced to shutdown", zap.Error(err))
	}

	sweeper.Stop()
	stop()
	if auditWorker != nil {
		auditWorker.Stop()
	}

	if err := config.CloseMongoDB(shutdownCtx); err != nil {
		logging.Logger.Error("failed to disconnect MongoDB", zap.Error(err))
	}

	logging.Logger.Info("server exited gracefully")
}
