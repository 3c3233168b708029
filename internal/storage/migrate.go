package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migration is one numbered schema step, e.g. 0002_settings.up.sql.
type migration struct {
	version int
	name    string
}

const versionTable = `CREATE TABLE IF NOT EXISTS remindd_schema (version INTEGER PRIMARY KEY)`

// MigrateUp applies every migration newer than the recorded version.
func MigrateUp(db *sql.DB) error {
	steps, err := listMigrations(".up.sql")
	if err != nil {
		return err
	}
	if _, err := db.Exec(versionTable); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	current, err := schemaVersion(db)
	if err != nil {
		return err
	}
	for _, m := range steps {
		if m.version <= current {
			continue
		}
		if err := runMigration(db, m, `INSERT INTO remindd_schema (version) VALUES (?)`); err != nil {
			return err
		}
	}
	return nil
}

// MigrateDown reverts applied migrations, newest first.
func MigrateDown(db *sql.DB) error {
	steps, err := listMigrations(".down.sql")
	if err != nil {
		return err
	}
	if _, err := db.Exec(versionTable); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	current, err := schemaVersion(db)
	if err != nil {
		return err
	}
	for i := len(steps) - 1; i >= 0; i-- {
		m := steps[i]
		if m.version > current {
			continue
		}
		if err := runMigration(db, m, `DELETE FROM remindd_schema WHERE version = ?`); err != nil {
			return err
		}
	}
	return nil
}

func runMigration(db *sql.DB, m migration, record string) error {
	body, err := migrationFiles.ReadFile(m.name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", m.name, err)
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(string(body)); err != nil {
		return fmt.Errorf("apply migration %s: %w", m.name, err)
	}
	if _, err := tx.Exec(record, m.version); err != nil {
		return fmt.Errorf("record migration %s: %w", m.name, err)
	}
	return tx.Commit()
}

func schemaVersion(db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM remindd_schema`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

func listMigrations(suffix string) ([]migration, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}
	out := make([]migration, 0, len(names))
	for _, name := range names {
		prefix, _, ok := strings.Cut(path.Base(name), "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: missing version prefix", name)
		}
		v, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", name, err)
		}
		out = append(out, migration{version: v, name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}
