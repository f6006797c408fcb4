// @title Quiz Engine API
// @version 1.0
// @description Attempt lifecycle and answer evaluation API for timed quizzes.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"quiz-engine/internal/adapter"
	"quiz-engine/internal/cache"
	"quiz-engine/internal/config"
	"quiz-engine/internal/database"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/handler"
	"quiz-engine/internal/logger"
	"quiz-engine/internal/middleware"
	"quiz-engine/internal/monitoring"
	"quiz-engine/internal/repository"
	"quiz-engine/internal/service"

	_ "quiz-engine/cmd/api/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()
		if err != nil {
			status = middleware.HTTPStatusFor(err)
		}

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	monitoring.Init()

	// Connect to database
	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Initialize Redis client and cache adapter
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	appLogger.Info("Successfully connected to Redis")
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)

	// Initialize repositories
	txManager := repository.NewTransactionManagerAdapter(db)
	quizRepository := repository.NewSQLXQuizRepository(db)
	attemptRepository := repository.NewSQLXAttemptRepository(db)

	// Initialize services
	snapshotService := service.NewSnapshotService(quizRepository, cacheAdapter, cfg.Engine.SnapshotTTL)
	appLogger.Info("SnapshotService initialized")

	sweeperService := service.NewSweeperService(txManager, attemptRepository, cacheAdapter, cfg.Engine)
	appLogger.Info("SweeperService initialized")

	// Eligibility rules live in the surrounding platform. Without a
	// checker every authenticated learner may start attempts.
	var eligibility domain.EligibilityChecker

	attemptService := service.NewAttemptService(
		txManager,
		quizRepository,
		attemptRepository,
		snapshotService,
		eligibility,
		sweeperService,
		cfg.Engine,
	)
	appLogger.Info("AttemptService initialized")

	// Initialize handlers
	attemptHandler := handler.NewAttemptHandler(attemptService)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())
	app.Use(monitoring.MetricsMiddleware())

	// Swagger handler
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API group, all attempt routes require an access token
	apiGroup := app.Group("/api", middleware.Protected(cfg.Auth.JWTSecret))
	vm := middleware.NewValidationMiddleware()

	apiGroup.Post("/attempts", attemptHandler.StartAttempt)
	apiGroup.Post("/attempts/:id/answers", vm.ValidateAttemptID(), attemptHandler.SubmitAnswer)
	apiGroup.Post("/attempts/:id/complete", vm.ValidateAttemptID(), attemptHandler.CompleteAttempt)
	apiGroup.Get("/attempts/:id/remaining-time", vm.ValidateAttemptID(), attemptHandler.GetRemainingTime)
	apiGroup.Post("/attempts/:id/focus", vm.ValidateAttemptID(), attemptHandler.RecordFocus)
	apiGroup.Post("/attempts/:id/blur", vm.ValidateAttemptID(), attemptHandler.RecordBlur)
	apiGroup.Get("/attempts/:id", vm.ValidateAttemptID(), attemptHandler.GetAttemptResult)
	apiGroup.Get("/quizzes/:quizId/attempts", vm.ValidateQuizID(), attemptHandler.ListAttempts)

	// Prometheus scrapes bypass the API and its auth
	metricsSrv := monitoring.NewMetricsServer(cfg.Metrics.Port)
	go func() {
		appLogger.Info("Starting metrics server", zap.Int("port", cfg.Metrics.Port))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Metrics server stopped", zap.Error(err))
		}
	}()

	// Start server
	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", os.Getenv("ENV")))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(ctx); err != nil {
		appLogger.Error("Metrics server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
