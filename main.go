package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"users-service/confs"
	"users-service/db"
	"users-service/logger"
	"users-service/server"
)

func main() {
	// load config
	cfg, err := confs.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logFile, err := logger.Setup(cfg.LogDir, "users")
	if err != nil {
		log.Fatalf("Error setting up logging: %v", err)
	}
	defer logFile.Close()

	// connect to database Postgres
	database, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(ctx, database); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	// run server
	log.Printf("Starting users service (%s profile)", cfg.Profile)
	if err := server.NewServer(database, cfg).Run(ctx); err != nil {
		log.Printf("Server stopped with error: %v", err)
		os.Exit(1)
	}
	log.Println("Server stopped")
}
