package migration

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrator applies schema migrations to an open database
type Migrator interface {
	Run(ctx context.Context, db *sql.DB) ([]string, error)
}

// Migration is one named schema change
type Migration struct {
	Name string
	Up   string
}

// Migrations creates the replay report schema, in order
var Migrations = []Migration{
	{
		Name: "2024_05_01_000001_create_replay_runs_table",
		Up: `CREATE TABLE IF NOT EXISTS replay_runs (
	id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	meta JSON NOT NULL,
	warnings JSON NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	},
	{
		Name: "2024_05_01_000002_create_test_reports_table",
		Up: `CREATE TABLE IF NOT EXISTS test_reports (
	id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	run_id BIGINT UNSIGNED NOT NULL,
	log_path VARCHAR(1024) NOT NULL,
	title VARCHAR(1024) NOT NULL,
	suite VARCHAR(1024) NOT NULL DEFAULT '',
	external_id VARCHAR(255) NOT NULL DEFAULT '',
	outcome VARCHAR(16) NOT NULL DEFAULT '',
	test JSON NOT NULL,
	autotest JSON NULL,
	result JSON NULL,
	INDEX test_reports_run_id (run_id),
	CONSTRAINT test_reports_run_fk FOREIGN KEY (run_id) REFERENCES replay_runs (id) ON DELETE CASCADE
)`,
	},
	{
		Name: "2024_05_02_000001_create_autotests_table",
		Up: `CREATE TABLE IF NOT EXISTS autotests (
	external_id VARCHAR(255) PRIMARY KEY,
	registered_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	},
}

// SchemaMigrator tracks applied migrations in a schema_migrations table
type SchemaMigrator struct {
	migrations []Migration
}

// NewSchemaMigrator creates a SchemaMigrator for the given migrations
func NewSchemaMigrator(migrations []Migration) *SchemaMigrator {
	return &SchemaMigrator{migrations: migrations}
}

// Run applies every migration not yet recorded and returns their names
func (m *SchemaMigrator) Run(ctx context.Context, db *sql.DB) ([]string, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
	name VARCHAR(255) PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`); err != nil {
		return nil, fmt.Errorf("create migrations table: %w", err)
	}

	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, mig := range pending(m.migrations, applied) {
		if _, err := db.ExecContext(ctx, mig.Up); err != nil {
			return ran, fmt.Errorf("migration %s: %w", mig.Name, err)
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_migrations (name) VALUES (?)", mig.Name); err != nil {
			return ran, fmt.Errorf("record migration %s: %w", mig.Name, err)
		}
		ran = append(ran, mig.Name)
	}
	return ran, nil
}

func appliedMigrations(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan migration: %w", err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

// pending keeps the order of migrations
func pending(migrations []Migration, applied map[string]bool) []Migration {
	var out []Migration
	for _, mig := range migrations {
		if !applied[mig.Name] {
			out = append(out, mig)
		}
	}
	return out
}
