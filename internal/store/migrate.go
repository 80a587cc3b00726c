package store

import (
	"database/sql"
	"fmt"
	"time"
)

const schemaVersion = 2

// CurrentSchemaVersion is the user_version a fully migrated catalog reports.
func CurrentSchemaVersion() int {
	return schemaVersion
}

func migrate(db *sql.DB) error {
	version, err := getUserVersion(db)
	if err != nil {
		return err
	}

	if err := ensureMetaTable(db); err != nil {
		return err
	}
	if err := ensureWorkspacesTable(db); err != nil {
		return err
	}
	if err := ensureWorkspaceProjectsTable(db); err != nil {
		return err
	}
	if err := ensureBuildsTable(db); err != nil {
		return err
	}
	if err := ensureBuildIndexes(db); err != nil {
		return err
	}

	if version < 2 {
		if err := backfillWorkspacesFromBuilds(db); err != nil {
			return err
		}
	}
	if version < schemaVersion {
		if err := setUserVersion(db, schemaVersion); err != nil {
			return err
		}
		if err := setLastMigrationAt(db); err != nil {
			return err
		}
	}
	return ensureMetaKey(db, "last_migration_at", time.Now().UTC().Format(time.RFC3339Nano))
}

func getUserVersion(db *sql.DB) (int, error) {
	row := db.QueryRow("PRAGMA user_version;")
	var version int
	if err := row.Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d;", version))
	return err
}

func setLastMigrationAt(db *sql.DB) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := db.Exec(`
		INSERT INTO meta (key, value)
		VALUES ('last_migration_at', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, now)
	return err
}

func ensureMetaKey(db *sql.DB, key, value string) error {
	_, err := db.Exec(`
		INSERT INTO meta (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO NOTHING
	`, key, value)
	return err
}

func ensureMetaTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	return err
}

func ensureWorkspacesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS workspaces (
			name TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	return err
}

// An empty application marks a project attached to a workspace with no
// application yet.
func ensureWorkspaceProjectsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS workspace_projects (
			workspace TEXT NOT NULL REFERENCES workspaces(name) ON DELETE CASCADE,
			project TEXT NOT NULL,
			application TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			PRIMARY KEY (workspace, project, application)
		)
	`)
	return err
}

func ensureBuildsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS builds (
			build_id TEXT PRIMARY KEY,
			workspace TEXT NOT NULL,
			project TEXT NOT NULL,
			application TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)
	`)
	return err
}

func ensureBuildIndexes(db *sql.DB) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_builds_app_sequence ON builds (project, application, sequence)`,
		`CREATE INDEX IF NOT EXISTS idx_builds_workspace ON builds (workspace, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Catalogs written before workspace rows existed only recorded workspaces
// implicitly through builds.
func backfillWorkspacesFromBuilds(db *sql.DB) error {
	now := nowString()
	if _, err := db.Exec(`
		INSERT OR IGNORE INTO workspaces (name, created_at, updated_at)
		SELECT workspace, MIN(created_at), ? FROM builds GROUP BY workspace
	`, now); err != nil {
		return err
	}
	_, err := db.Exec(`
		INSERT OR IGNORE INTO workspace_projects (workspace, project, application, created_at)
		SELECT workspace, project, application, MIN(created_at) FROM builds
		GROUP BY workspace, project, application
	`)
	return err
}
