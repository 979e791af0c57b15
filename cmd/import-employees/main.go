package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/models"
)

// Imports employees from an XLSX file: full name, division, position,
// category, rate, allowance amount, allowance reason. Header row expected.
func main() {
	path := flag.String("file", "", "path to the XLSX file (required)")
	flag.Parse()

	if *path == "" {
		log.Fatal("--file is required")
	}

	file, err := os.Open(*path)
	if err != nil {
		log.Fatalf("open %s: %v", *path, err)
	}
	defer file.Close()

	_ = godotenv.Load()
	config.ConnectDatabaseWithRetry()
	if err := models.Migrate(config.GetDB()); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	result, err := models.ImportEmployeesFromExcel(context.Background(), file)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	log.Printf("created %d, updated %d, skipped %d", result.Created, result.Updated, result.Skipped)
	for _, message := range result.Errors {
		log.Printf("error: %s", message)
	}
}
