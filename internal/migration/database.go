package migration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"stepagg/internal/config"
)

// DatabaseManager prepares the report database
type DatabaseManager struct {
	config   *config.Config
	migrator Migrator
}

// NewDatabaseManager creates a new DatabaseManager
func NewDatabaseManager(cfg *config.Config, migrator Migrator) *DatabaseManager {
	return &DatabaseManager{config: cfg, migrator: migrator}
}

// Ensure creates the report database when it is missing and applies pending
// schema migrations. It returns the names of the migrations it applied.
func (dm *DatabaseManager) Ensure(ctx context.Context) ([]string, error) {
	dbName := dm.config.Database.Name
	if !isValidDatabaseName(dbName) {
		return nil, fmt.Errorf("invalid database name: %s", dbName)
	}

	// Connect to MySQL server (without specifying database)
	server, err := sql.Open("mysql", dm.config.DSN(false))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database server: %w", err)
	}
	defer server.Close()

	if err := server.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database server: %w", err)
	}

	exists, err := databaseExists(ctx, server, dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to check database %s: %w", dbName, err)
	}
	if !exists {
		if _, err := server.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", dbName)); err != nil {
			return nil, fmt.Errorf("failed to create database %s: %w", dbName, err)
		}
	}

	db, err := sql.Open("mysql", dm.config.DSN(true))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s: %w", dbName, err)
	}
	defer db.Close()

	return dm.migrator.Run(ctx, db)
}

func databaseExists(ctx context.Context, db *sql.DB, dbName string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := db.QueryRowContext(ctx, query, dbName).Scan(&exists)
	return exists, err
}

// isValidDatabaseName rejects names that cannot be safely quoted into DDL
func isValidDatabaseName(name string) bool {
	if len(name) == 0 || len(name) > 64 {
		return false
	}
	for _, r := range name {
		ok := r == '_' || r == '$' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return false
		}
	}
	upper := strings.ToUpper(name)
	for _, keyword := range []string{"DROP", "DELETE", "TRUNCATE"} {
		if strings.Contains(upper, keyword) {
			return false
		}
	}
	return true
}
