package main

import (
	"context"
	"log"
	"os"

	"stallpick-be/internal/repository/unitofwork"
	"stallpick-be/internal/seed"
	"stallpick-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	path := "fixtures/markets.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	fixture, err := seed.Load(path)
	if err != nil {
		log.Fatalf("Error: Failed to load fixture %s: %v", path, err)
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	res, err := seed.Apply(context.Background(), unitofwork.NewRepositoryFactory(db), fixture)
	if err != nil {
		log.Fatalf("Error: Seeding failed: %v", err)
	}

	for _, s := range res.Sessions {
		log.Printf("Created session %s (code %s)", s.Id, s.Code)
	}
	log.Printf("✅ Seeded %d markets, %d stalls, %d sessions", len(res.Markets), len(res.Stalls), len(res.Sessions))
}
