package main

import (
	"context"
	"fmt"
	"os"

	"storefront/internal/config"
	"storefront/internal/database"

	"github.com/jackc/pgx/v5"
)

// Applies migrations to the configured database and loads a small demo
// catalogue with shipping rates. Existing rows are left untouched.
func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Logger)

	connString := cfg.Database.ConnectionString()
	if err := database.Migrate(connString, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	var dbName string
	if err := conn.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Seeding database: %s\n", dbName)

	batch := &pgx.Batch{}
	products := []struct {
		id, name, price, category string
		stock                     int
	}{
		{"plush-bunny", "Bunny Plush", "24.99", "plush", 20},
		{"plush-panda", "Panda Plush", "29.99", "plush", 12},
		{"key-cat", "Cat Keychain", "8.50", "accessories", 50},
		{"mug-frog", "Frog Mug", "16.00", "kitchen", 30},
	}
	for _, p := range products {
		batch.Queue(`INSERT INTO products (id, name, price, category, stock)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
			p.id, p.name, p.price, p.category, p.stock)
	}

	rates := []struct{ name, country, price string }{
		{"Canada Post", "CA", "9.99"},
		{"USPS via Canada Post", "US", "14.99"},
		{"International", "*", "24.99"},
	}
	for _, r := range rates {
		batch.Queue(`INSERT INTO shipping_rates (id, name, country_code, price)
			VALUES (gen_random_uuid(), $1, $2, $3) ON CONFLICT (country_code) DO NOTHING`,
			r.name, r.country, r.price)
	}

	if err := conn.SendBatch(ctx, batch).Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Seeding failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded %d products and %d shipping rates\n", len(products), len(rates))
}
