package main

import (
	"compress/gzip"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"storefront/internal/coupon"
)

// Writes sample gzipped promo catalogs for local development. Each line is
// CODE,kind,value where kind is percent or fixed. A code listed in more than
// one catalog takes its entry from the last file loaded.
func main() {
	dataDir := flag.String("dir", "data/promos", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	catalogs := map[string][]string{
		"seasonal.gz": {
			"# seasonal campaigns",
			"SPRING10,percent,10",
			"SUMMER15,percent,15",
			"WINTER5,fixed,5.00",
		},
		"partners.gz": {
			"KAWAII20,percent,20",
			"FRIEND10,fixed,10.00",
			"WELCOME,percent,5",
		},
	}

	for filename, lines := range catalogs {
		filePath := filepath.Join(*dataDir, filename)

		if err := createCatalog(filePath, lines); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d lines\n", filePath, len(lines))
	}

	fmt.Println("\nSet PROMO_FILES to load them, e.g.")
	fmt.Printf("  PROMO_FILES=%s,%s\n",
		filepath.Join(*dataDir, "seasonal.gz"), filepath.Join(*dataDir, "partners.gz"))
}

func createCatalog(filePath string, lines []string) error {
	for _, line := range lines {
		if line == "" || line[0] == '#' {
			continue
		}
		if _, err := coupon.ParsePromo(line); err != nil {
			return fmt.Errorf("invalid promo line %q: %w", line, err)
		}
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	for _, line := range lines {
		if _, err := fmt.Fprintf(gzipWriter, "%s\n", line); err != nil {
			return fmt.Errorf("failed to write promo: %w", err)
		}
	}

	return nil
}
