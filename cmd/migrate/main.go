package main

import (
	"context"
	"flag"
	"log"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/johnquangdev/sales-assistant/internal/infrastructure/database"
	"github.com/johnquangdev/sales-assistant/pkg/config"
)

func main() {
	down := flag.Bool("down", false, "roll back instead of applying")
	steps := flag.Int("steps", 0, "maximum number of migrations to run (0 = all)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.Host == "" {
		log.Fatalf("DB_HOST is required to run migrations")
	}

	db, err := database.NewPostgresDB(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	dir := migrate.Up
	if *down {
		dir = migrate.Down
		if *steps == 0 {
			// never drop the whole schema by accident
			*steps = 1
		}
	}

	log.Printf("🔄 Running migrations (down=%t, steps=%d)...", *down, *steps)
	n, err := database.Migrate(db, dir, *steps)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Printf("✅ Successfully applied %d migration(s)!", n)
}
