package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"user-service/internal/app"
	"user-service/internal/config"
	"user-service/pkg/logger"
)

const envFilePath = ".env"

func main() {
	if err := godotenv.Load(envFilePath); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	log.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	service, err := app.NewService(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize service", zap.Error(err))
	}

	if err := service.Run(context.Background()); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}
