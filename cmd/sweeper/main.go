package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-engine/internal/adapter"
	"quiz-engine/internal/cache"
	"quiz-engine/internal/config"
	"quiz-engine/internal/database"
	"quiz-engine/internal/logger"
	"quiz-engine/internal/monitoring"
	"quiz-engine/internal/repository"
	"quiz-engine/internal/service"

	"go.uber.org/zap"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		// Logger might not be initialized yet, so use fmt for this critical error
		fmt.Printf("Failed to load configuration: %v\n", err)
		return
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Sweeper starting up...")

	// Establish DB connection
	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to Oracle database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Successfully connected to Oracle database.")

	// The sweep lease lives in Redis, so the sweeper cannot run without it.
	if cfg.Redis.Address == "" {
		appLogger.Fatal("Redis is required for the sweep lease. Check REDIS_ADDRESS.")
	}
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis client", zap.Error(err))
	}
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
	appLogger.Info("Redis cache initialized successfully.")

	txManager := repository.NewTransactionManagerAdapter(db)
	attemptRepository := repository.NewSQLXAttemptRepository(db)
	sweeper := service.NewSweeperService(txManager, attemptRepository, cacheAdapter, cfg.Engine)

	if *once {
		runSweep(sweeper, cfg.Engine.SweepInterval)
		return
	}

	monitoring.Init()
	metricsSrv := monitoring.NewMetricsServer(cfg.Metrics.Port)
	go func() {
		appLogger.Info("Starting metrics server", zap.Int("port", cfg.Metrics.Port))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Metrics server stopped", zap.Error(err))
		}
	}()

	appLogger.Info("Sweeping on an interval", zap.Duration("interval", cfg.Engine.SweepInterval))
	ticker := time.NewTicker(cfg.Engine.SweepInterval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	runSweep(sweeper, cfg.Engine.SweepInterval)
	for {
		select {
		case <-ticker.C:
			runSweep(sweeper, cfg.Engine.SweepInterval)
		case sig := <-quit:
			appLogger.Info("Sweeper shutting down", zap.String("signal", sig.String()))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
			return
		}
	}
}

// runSweep bounds one pass by the tick interval so passes never overlap.
func runSweep(sweeper service.SweeperService, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if _, err := sweeper.Sweep(ctx); err != nil {
		logger.Get().Error("Sweep failed", zap.Error(err))
	}
}
