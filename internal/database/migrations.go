package database

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"restaurant-pos/internal/models"
)

const (
	createLedgerSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			migration_name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`

	selectAppliedSQL = `SELECT migration_name FROM schema_migrations`

	recordAppliedSQL = `INSERT INTO schema_migrations (migration_name) VALUES ($1)`
)

// RunMigrations applies every pending .sql file under migrationsPath in
// lexicographic order, one transaction per file. Applied files are
// tracked in the schema_migrations ledger and never re-run.
func (db *DB) RunMigrations(ctx context.Context, migrationsPath string) error {
	if err := db.Exec(ctx, createLedgerSQL); err != nil {
		return models.WrapError(models.KindStorage, "failed to create migrations ledger", err)
	}

	pending, err := listMigrationFiles(migrationsPath)
	if err != nil {
		return err
	}

	applied, err := db.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, name := range pending {
		if applied[name] {
			continue
		}

		if err := db.applyMigration(ctx, migrationsPath, name); err != nil {
			return models.WrapError(models.KindStorage, "failed to apply migration "+name, err)
		}
		if err := db.Exec(ctx, recordAppliedSQL, name); err != nil {
			return models.WrapError(models.KindStorage, "failed to record migration "+name, err)
		}

		db.logger.Info("migration_applied", "Applied migration "+name, "startup", nil)
	}

	return nil
}

func listMigrationFiles(migrationsPath string) ([]string, error) {
	entries, err := os.ReadDir(migrationsPath)
	if err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to read migrations directory", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func (db *DB) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := db.Query(ctx, selectAppliedSQL)
	if err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to read migrations ledger", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, models.WrapError(models.KindStorage, "failed to scan migrations ledger", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, models.WrapError(models.KindStorage, "failed to read migrations ledger", err)
	}
	return applied, nil
}

// applyMigration runs one migration file inside its own transaction so
// a failing file leaves no partial schema behind.
func (db *DB) applyMigration(ctx context.Context, migrationsPath, name string) error {
	content, err := os.ReadFile(filepath.Join(migrationsPath, name))
	if err != nil {
		return err
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(content)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
