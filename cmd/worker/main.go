package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/calbright/flowday/internal/config"
	"github.com/calbright/flowday/internal/database"
	"github.com/calbright/flowday/internal/logger"
	"github.com/calbright/flowday/internal/queue"
	"github.com/calbright/flowday/internal/services/coach"
	"github.com/calbright/flowday/internal/workers"
	"go.uber.org/zap"
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.WorkerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			// Ignore sync errors in production
			_ = syncErr
		}
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_model", cfg.AIModel),
	)

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_database")

	// Initialize repositories
	taskRepo := database.NewTaskRepository(db)
	projectRepo := database.NewProjectRepository(db)
	feedbackRepo := database.NewFeedbackRepository(db)
	planRepo := database.NewDailyPlanRepository(db)
	calibrationRepo := database.NewCalibrationRepository(db)

	// Initialize RabbitMQ queue
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_rabbitmq",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// AI coach is required for goal decomposition
	if cfg.OpenAIKey == "" {
		zapLogger.Fatal("openai_key_not_configured")
	}
	coachProvider := coach.NewOpenAICoach(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)

	zapLogger.Info("initialized_ai_coach",
		zap.String("model", cfg.AIModel),
	)

	calibrator := workers.NewCalibrator(feedbackRepo, planRepo, calibrationRepo, zapLogger)
	decomposer := workers.NewGoalDecomposer(
		coachProvider,
		projectRepo,
		taskRepo,
		calibrationRepo,
		jobQueue,
		calibrator,
		zapLogger,
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		zapLogger.Info("shutdown_signal_received")
		cancel()
	}()

	zapLogger.Info("worker_started")

	if err := decomposer.Run(ctx, jobQueue, cfg.RabbitMQPrefetch); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Fatal("worker_stopped_with_error", zap.Error(err))
	}

	zapLogger.Info("worker_stopped")
}
