package tables

import (
	"context"
	"strings"

	"restaurant-pos/internal/config"
	"restaurant-pos/internal/database"
	"restaurant-pos/internal/models"
)

// Execer is the write surface needed for provisioning
type Execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) error
}

// Provision upserts the configured table roster. Missing tables are
// inserted, display names refreshed; occupancy columns are never touched
// here. Tables are configuration data and are not created by order flow.
func Provision(ctx context.Context, db Execer, roster []config.TableConfig) error {
	for _, tbl := range roster {
		number := strings.TrimSpace(tbl.Number)
		if number == "" {
			continue
		}
		name := strings.TrimSpace(tbl.DisplayName)
		if name == "" {
			name = number
		}
		if err := db.Exec(ctx, database.UpsertTableSQL, number, name); err != nil {
			return models.WrapError(models.KindStorage, "failed to provision table "+number, err)
		}
	}
	return nil
}
