package store

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

func Migrate(ctx context.Context, db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, migrationsDir)
}

// MigrateTo applies migrations up to and including version.
func MigrateTo(ctx context.Context, db *sql.DB, version int64) error {
	if err := setupGoose(); err != nil {
		return err
	}
	return goose.UpToContext(ctx, db, migrationsDir, version)
}

func setupGoose() error {
	goose.SetBaseFS(migrationsFS)
	goose.SetTableName("schema_migrations")
	return goose.SetDialect("postgres")
}
