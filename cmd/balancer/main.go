package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ileka2468/JuicerScribe/internal/app/bootstrap"
)

// Balancer process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (postgres, youtube search, balancer module).
// 3) Run the reconciliation loop until SIGINT/SIGTERM.
func main() {
	log.Println("juicerscribe balancer starting")
	app, err := bootstrap.BuildBalancer()
	if err != nil {
		log.Fatalf("bootstrap balancer failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("balancer shutdown close failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("juicerscribe balancer stopped with error: %v", err)
	}
}
