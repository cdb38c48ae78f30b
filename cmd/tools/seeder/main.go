// Seeder loads a menu CSV into the database. The menu relation is only
// populated when empty, so re-running the seeder is safe.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/annapurna-pos/backend-billing/internal/db"
	"github.com/annapurna-pos/backend-billing/internal/menu"
	"github.com/annapurna-pos/backend-billing/internal/store"
)

func main() {
	csvPath := flag.String("menu", "data/menu.csv", "path to the menu CSV file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("Failed to open menu CSV: %v", err)
	}
	defer f.Close()

	catalog, err := menu.LoadCSV(f)
	if err != nil {
		log.Fatalf("Failed to parse menu CSV: %v", err)
	}
	if catalog.Len() == 0 {
		log.Fatal("Menu CSV contained no valid rows")
	}

	if err := db.Migrate(dbURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, dbURL, "billing-seeder")
	if err != nil {
		log.Fatalf("Failed to connect DB: %v", err)
	}
	defer pool.Close()

	written, err := store.New(pool).BootstrapMenu(ctx, catalog.Items())
	if err != nil {
		log.Fatalf("Failed to bootstrap menu: %v", err)
	}
	if written == 0 {
		log.Println("Menu already seeded, nothing to do")
		return
	}
	log.Printf("Seeded %d menu items", written)
}
