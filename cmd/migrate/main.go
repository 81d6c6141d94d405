package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/maskapp/mask/internal/config"
	"github.com/maskapp/mask/internal/database"
	"github.com/maskapp/mask/internal/logger"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	if command != "up" {
		fmt.Println("Usage: migrate [up]")
		fmt.Println("  up - create or update every table and index")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.LogLevel, ""); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	if err := database.Initialize(cfg.DB); err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	logger.Log.Info("Running migrations...")
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Migration failed", zap.Error(err))
	}
	logger.Log.Info("All migrations completed successfully")
}
