package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/models"
)

func TestListMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_seed_catalog.sql", "0001_create_tables.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.sql"), 0o755))

	files, err := listMigrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_create_tables.sql", "0002_seed_catalog.sql"}, files)
}

func TestListMigrationFiles_MissingDirectory(t *testing.T) {
	_, err := listMigrationFiles(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindStorage))
}
