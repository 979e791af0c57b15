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

// Provisions the default groups and a staff account. Intended for first-run
// setup and CI fixtures.
func main() {
	username := flag.String("username", "admin", "admin username")
	password := flag.String("password", "", "admin password (required)")
	fullName := flag.String("full-name", "Administrator", "display name")
	flag.Parse()

	if *password == "" {
		log.Fatal("--password is required")
	}

	_ = godotenv.Load()
	config.ConnectDatabaseWithRetry()
	if err := models.Migrate(config.GetDB()); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	if _, err := models.EnsureGroups(ctx, models.DefaultGroups); err != nil {
		log.Fatalf("ensure groups: %v", err)
	}

	if _, err := models.GetUserByUsername(ctx, *username); err == nil {
		log.Printf("user %q already exists; nothing to do", *username)
		os.Exit(0)
	}

	user, err := models.CreateUser(ctx, &models.NewUser{
		Username: *username,
		Password: *password,
		FullName: *fullName,
		IsStaff:  true,
	})
	if err != nil {
		log.Fatalf("create user: %v", err)
	}
	log.Printf("created staff user %q (id %d)", user.Username, user.ID)
}
