package db

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"users-service/confs"
	"users-service/logger"
)

func Connect(cfg confs.Config) (Database, error) {
	dsn := cfg.DatabaseURL

	// Hosted databases are reached over TLS unless the URL says otherwise.
	if cfg.Profile == confs.Production && isURL(dsn) && !strings.Contains(dsn, "sslmode=") {
		if strings.Contains(dsn, "?") {
			dsn += "&sslmode=require"
		} else {
			dsn += "?sslmode=require"
		}
	}

	log.Printf("Connecting to %s database...", cfg.Profile)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:      logger.GormLogger(cfg.Debug),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(0)

	log.Println("Database connection established successfully!")

	return &GormDatabase{DB: db}, nil
}

func isURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
