package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/workflow"
)

// One-shot sweep for cron: closes every open campaign past its deadline.
func main() {
	dryRun := flag.Bool("dry-run", false, "report what would be closed without closing")
	flag.Parse()

	_ = godotenv.Load()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedis()

	worker := workflow.NewCampaignAutoCloser(time.Hour)
	worker.DryRun = *dryRun

	closed, err := worker.Sweep(context.Background(), time.Now().UTC())
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}
	if *dryRun {
		log.Printf("dry run: %d campaign(s) would be closed", closed)
		return
	}
	log.Printf("closed %d campaign(s)", closed)
}
