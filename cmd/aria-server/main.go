package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/ariahq/aria/adapters/devices"
	"github.com/ariahq/aria/adapters/rules"
	"github.com/ariahq/aria/adapters/speech"
	"github.com/ariahq/aria/adapters/storage/file"
	"github.com/ariahq/aria/adapters/storage/sqlite"
	"github.com/ariahq/aria/adapters/system"
	"github.com/ariahq/aria/domain/repositories"
	"github.com/ariahq/aria/internal/api"
	"github.com/ariahq/aria/internal/auth"
	"github.com/ariahq/aria/internal/config"
	"github.com/ariahq/aria/internal/websocket"
	"github.com/ariahq/aria/usecase"
)

func main() {
	// .env is optional, real environments set variables directly
	_ = godotenv.Load()

	cfg := config.FromEnv()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize persistence
	var store repositories.StateStore
	switch cfg.StorageBackend {
	case config.StorageSQLite:
		sqliteStore, err := sqlite.NewStore(cfg.StatePath, logger)
		if err != nil {
			logger.Fatal("Failed to open sqlite state store", zap.Error(err))
		}
		defer sqliteStore.Close()
		store = sqliteStore
	default:
		store = file.NewStore(cfg.StatePath, logger)
	}

	// Initialize adapters
	recognizer, synthesizer := speech.Detect(cfg.SpeechAvailable, cfg.CaptureDelay, logger)
	voice := speech.NewVoiceIO(recognizer, synthesizer, repositories.DefaultVoiceConfig(), logger)
	sampler := system.NewSampler()
	deviceRepo := devices.NewMockRepository(logger)
	responder := rules.NewEngine(sampler, rules.LatencyPolicy{
		Base:   cfg.ResponseDelayBase,
		Jitter: cfg.ResponseDelayJitter,
	}, logger)

	// Initialize usecase services
	assistant := usecase.NewAssistant(responder, voice, store, cfg.OriginDevice, logger)
	assistant.Restore(context.Background())

	// Initialize WebSocket hub and route assistant events through it
	hub := websocket.NewHub(assistant, logger)
	assistant.SetEvents(hub)
	go hub.Run()

	// Initialize API routes
	authManager := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	api.InitRoutes(e, assistant, deviceRepo, sampler, hub, authManager, cfg.SpeechAvailable, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.StorageBackend))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
