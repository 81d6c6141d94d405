package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/maskapp/mask/internal/config"
	"github.com/maskapp/mask/internal/database"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/seed"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	users := flag.Int("users", seed.DefaultCounts.Users, "users to create (dev)")
	posts := flag.Int("posts", seed.DefaultCounts.Posts, "posts to create (dev)")
	randSeed := flag.Int64("seed", time.Now().UnixNano(), "random seed for reproducible data")
	flag.Usage = func() {
		fmt.Println("Usage: seed [flags] [dev|test|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  test  - Seed a minimal set of well-known accounts")
		fmt.Println("  clean - Remove all data (use with caution)")
		flag.PrintDefaults()
	}
	flag.Parse()

	command := "dev"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}
	if command != "dev" && command != "test" && command != "clean" {
		flag.Usage()
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
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Migration failed", zap.Error(err))
	}

	ctx := context.Background()
	seeder := seed.NewSeeder(database.DB, *randSeed)

	switch command {
	case "dev":
		counts := seed.DefaultCounts
		counts.Users = *users
		counts.Posts = *posts
		err = seeder.SeedDev(ctx, counts)
	case "test":
		err = seeder.SeedTest(ctx)
	case "clean":
		err = seeder.Clean(ctx)
	}
	if err != nil {
		logger.Log.Fatal("Seeding failed", zap.String("command", command), zap.Error(err))
	}
	logger.Log.Info("Seeding completed", zap.String("command", command), zap.Int64("seed", *randSeed))
	if command != "clean" {
		fmt.Printf("All seeded accounts use the password %q\n", seed.DevPassword)
	}
}
