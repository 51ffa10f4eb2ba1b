// Package catalog keeps a small sqlite index of every project the
// coordinator has saved: name, version, and canonical path, most recent
// first. It backs the "last-opened project" lookup and the projects listing;
// losing it never loses project data.
package catalog

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/hpungsan/playscribe/internal/config"
	"github.com/hpungsan/playscribe/internal/errors"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Entry is one catalog row.
type Entry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Path      string `json:"path"`
	UpdatedAt int64  `json:"updated_at"`
}

// Init initializes the sqlite catalog at baseDir/playscribe.db.
// The baseDir parameter allows tests to use t.TempDir() instead of
// ~/.playscribe.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	dbPath := filepath.Join(baseDir, "playscribe.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := getUserVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS projects (
		  id         TEXT PRIMARY KEY,
		  name       TEXT NOT NULL,
		  version    TEXT NOT NULL,
		  path       TEXT NOT NULL UNIQUE,
		  updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(updated_at DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

func getUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read user_version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

// Record upserts the catalog row for path. Called by the coordinator after
// every successful save or create.
func Record(db *sql.DB, name, version, path string) error {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return errors.NewInternal(err)
	}
	now := time.Now().Unix()
	_, err = db.Exec(`
		INSERT INTO projects (id, name, version, path, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
		  name = excluded.name,
		  version = excluded.version,
		  updated_at = excluded.updated_at`,
		id.String(), name, version, path, now)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Latest returns the most recently saved project, the natural candidate for
// reopening on startup.
func Latest(db *sql.DB) (*Entry, error) {
	row := db.QueryRow(`
		SELECT id, name, version, path, updated_at
		FROM projects
		ORDER BY updated_at DESC, id DESC
		LIMIT 1`)
	e := &Entry{}
	err := row.Scan(&e.ID, &e.Name, &e.Version, &e.Path, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("no projects in catalog")
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// List returns all catalog rows, most recently saved first.
func List(db *sql.DB) ([]Entry, error) {
	rows, err := db.Query(`
		SELECT id, name, version, path, updated_at
		FROM projects
		ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Version, &e.Path, &e.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return entries, nil
}

// Forget removes the catalog row for path. Unknown paths are a no-op.
func Forget(db *sql.DB, path string) error {
	if _, err := db.Exec(`DELETE FROM projects WHERE path = ?`, path); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
