package main

import (
	"context"
	"log"
	"strings"
	"time"

	"route-plan-service/internal/adapters/cache"
	"route-plan-service/internal/config"
	"route-plan-service/internal/platform/db"

	"github.com/joho/godotenv"
)

// dbtool prepares the Postgres driving-time cache schema ahead of deployment.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sqlDB, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer sqlDB.Close()

	log.Println("Initializing driving time cache schema...")
	if err := cache.InitSchema(ctx, sqlDB); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")
}
