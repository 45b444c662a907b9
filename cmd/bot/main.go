package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cvlens/internal/bot"
	"cvlens/internal/config"
	"cvlens/internal/llm"
	"cvlens/internal/logging"
	"cvlens/internal/storage"
	"cvlens/pkg/utils"
)

func main() {
	// Load configuration
	configPath := utils.GetStringOrDefault(os.Getenv("CONFIG_PATH"), "configs/config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting chat bot")

	// Initialize LLM manager
	llmManager := llm.NewManager(cfg)
	if err := llmManager.Start(); err != nil {
		logger.Fatal("Failed to start LLM manager", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Initialize storage backend
	store, err := storage.NewStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer store.Close()

	// Initialize bot
	b, err := bot.New(cfg, store, llmManager)
	if err != nil {
		logger.Fatal("Failed to initialize bot", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Cancel the polling loop on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Bot stopped with error", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := llmManager.Stop(); err != nil {
		logger.Error("Error stopping LLM manager", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Info("Bot shutdown complete")
}
