package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/pressly/goose/v3"

	"users-service/db/migrations"
)

// newProvider is replaced in tests.
var newProvider = func(sqlDB *sql.DB) (migrator, error) {
	return goose.NewProvider(goose.DialectPostgres, sqlDB, migrations.FS)
}

type migrator interface {
	Up(ctx context.Context) ([]*goose.MigrationResult, error)
	DownTo(ctx context.Context, version int64) ([]*goose.MigrationResult, error)
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, database Database) error {
	p, err := providerFor(database)
	if err != nil {
		return err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logResults("applied", results)
	return nil
}

// Recreate rolls every migration back and applies them again, leaving an
// empty schema.
func Recreate(ctx context.Context, database Database) error {
	p, err := providerFor(database)
	if err != nil {
		return err
	}
	results, err := p.DownTo(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	logResults("rolled back", results)

	results, err = p.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	logResults("applied", results)
	return nil
}

func providerFor(database Database) (migrator, error) {
	sqlDB, err := database.GetDB().DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	p, err := newProvider(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	return p, nil
}

func logResults(action string, results []*goose.MigrationResult) {
	if len(results) == 0 {
		log.Printf("No migrations %s", action)
		return
	}
	for _, r := range results {
		log.Printf("Migration %d %s in %s", r.Source.Version, action, r.Duration)
	}
}
