package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"

	_ "github.com/lib/pq"

	"birthfire/internal/constants"
	"birthfire/internal/lock"
)

const schema = "birthfire_schema"

//go:embed migrations/*.sql
var migrationFS embed.FS

// Init verifies the connection, creates the schema and applies the embedded
// migration scripts in name order. A distributed lock keeps concurrent
// instances from racing the migration.
func Init(ctx context.Context, sqlDB *sql.DB, distributedLock lock.DistributedLockManager) error {
	if err := distributedLock.Acquire(ctx, constants.MigrationLock); err != nil {
		return err
	}
	defer distributedLock.Release(ctx, constants.MigrationLock)

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if _, err := sqlDB.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	scripts, err := readMigrationScripts()
	if err != nil {
		return err
	}
	for _, script := range scripts {
		if _, err := sqlDB.ExecContext(ctx, script); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return nil
}

func readMigrationScripts() ([]string, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var scripts []string
	for _, name := range names {
		content, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, string(content))
	}

	return scripts, nil
}
