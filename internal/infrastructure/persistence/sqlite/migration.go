// Package sqlite is the Session Store backing implementation: a single
// SQLite file holding the sessions and checkpoints tables described in
// spec.md §6, grounded on internal/infrastructure/persistence/sqlite/migration.go's
// embedded-schema migrator.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// Migrator applies the embedded schema to a freshly opened database.
type Migrator struct {
	db *sql.DB
}

// NewMigrator creates a migrator bound to db.
func NewMigrator(db *sql.DB) *Migrator { return &Migrator{db: db} }

// Migrate applies all pending migrations, currently just the initial schema.
func (m *Migrator) Migrate() error {
	if err := m.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("create migrations table failed: %w", err)
	}

	applied, err := m.isInitialSchemaApplied()
	if err != nil {
		return fmt.Errorf("check schema version failed: %w", err)
	}
	if !applied {
		if err := m.applyInitialSchema(); err != nil {
			return fmt.Errorf("apply initial schema failed: %w", err)
		}
	}
	return nil
}

func (m *Migrator) ensureMigrationsTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			description TEXT
		);
	`)
	return err
}

func (m *Migrator) isInitialSchemaApplied() (bool, error) {
	var count int
	err := m.db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", 1).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (m *Migrator) applyInitialSchema() error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction failed: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range splitSQLStatements(schemaSQL) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || strings.Contains(stmt, "schema_migrations") {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("execute statement %d failed: %w\nstatement: %s", i, err, stmt)
		}
	}

	if _, err := tx.Exec(`INSERT INTO schema_migrations (version, description) VALUES (1, 'initial schema')`); err != nil {
		return fmt.Errorf("record migration failed: %w", err)
	}

	return tx.Commit()
}

func splitSQLStatements(schema string) []string {
	return strings.Split(schema, ";")
}
