package catalog

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/playscribe/internal/config"
	"github.com/hpungsan/playscribe/internal/errors"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInit_CreatesSchemaAndFile(t *testing.T) {
	baseDir := t.TempDir()
	db, err := Init(baseDir)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Join(baseDir, "playscribe.db"))
	require.NoError(t, err)

	version, err := getUserVersion(db)
	require.NoError(t, err)
	require.Equal(t, CurrentSchemaVersion, version)
}

func TestInit_IsIdempotent(t *testing.T) {
	baseDir := t.TempDir()
	db, err := Init(baseDir)
	require.NoError(t, err)
	require.NoError(t, Record(db, "heist", "1.0", "/ws/scripts/heist-1.0.json"))
	db.Close()

	// Reopening must keep existing rows and not re-run migrations.
	db, err = Init(baseDir)
	require.NoError(t, err)
	defer db.Close()

	entries, err := List(db)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRecord_UpsertsByPath(t *testing.T) {
	db := testDB(t)
	path := "/ws/scripts/heist-1.0.json"

	require.NoError(t, Record(db, "heist", "1.0", path))
	require.NoError(t, Record(db, "heist renamed", "1.0", path))

	entries, err := List(db)
	require.NoError(t, err)
	require.Len(t, entries, 1, "same path must update in place")
	require.Equal(t, "heist renamed", entries[0].Name)
}

func TestLatest_EmptyCatalogIsNotFound(t *testing.T) {
	db := testDB(t)
	_, err := Latest(db)
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestLatest_ReturnsMostRecentlySaved(t *testing.T) {
	db := testDB(t)

	require.NoError(t, Record(db, "old", "1.0", "/ws/scripts/old-1.0.json"))
	time.Sleep(1100 * time.Millisecond) // updated_at has second resolution
	require.NoError(t, Record(db, "new", "1.0", "/ws/scripts/new-1.0.json"))

	e, err := Latest(db)
	require.NoError(t, err)
	require.Equal(t, "new", e.Name)
	require.Equal(t, "/ws/scripts/new-1.0.json", e.Path)
}

func TestForget(t *testing.T) {
	db := testDB(t)
	path := "/ws/scripts/heist-1.0.json"
	require.NoError(t, Record(db, "heist", "1.0", path))

	require.NoError(t, Forget(db, path))
	entries, err := List(db)
	require.NoError(t, err)
	require.Empty(t, entries)

	// Unknown paths are a no-op.
	require.NoError(t, Forget(db, "/nowhere.json"))
}

func TestConfigurePool(t *testing.T) {
	db := testDB(t)

	ConfigurePool(db, nil)
	ConfigurePool(db, &config.Config{})
	ConfigurePool(db, &config.Config{DBMaxOpenConns: 1, DBMaxIdleConns: 1})

	require.NoError(t, Record(db, "heist", "1.0", "/ws/scripts/heist-1.0.json"))
}
