package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all database migrations for the given driver
func GetMigrations(dbType string) []Migration {
	if dbType == "postgres" {
		return postgresMigrations()
	}
	return sqliteMigrations()
}

func postgresMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY,
				username VARCHAR(50) NOT NULL,
				email VARCHAR(255) UNIQUE NOT NULL,
				password_hash VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`,
		},
		{
			Version:     2,
			Description: "Create auth_attempts table",
			SQL: `CREATE TABLE IF NOT EXISTS auth_attempts (
				id BIGSERIAL PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				kind VARCHAR(20) NOT NULL,
				attempted_at TIMESTAMP WITH TIME ZONE NOT NULL
			)`,
		},
		{
			Version:     3,
			Description: "Index auth_attempts by user, kind and time",
			SQL: `CREATE INDEX IF NOT EXISTS idx_auth_attempts_user_kind_time
				ON auth_attempts (user_id, kind, attempted_at)`,
		},
		{
			Version:     4,
			Description: "Create password_resets table",
			SQL: `CREATE TABLE IF NOT EXISTS password_resets (
				id BIGSERIAL PRIMARY KEY,
				user_id UUID UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				otp_code VARCHAR(6) NOT NULL,
				requested_at TIMESTAMP WITH TIME ZONE NOT NULL,
				expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
				used BOOLEAN NOT NULL DEFAULT FALSE
			)`,
		},
	}
}

func sqliteMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL,
				email TEXT UNIQUE NOT NULL,
				password_hash TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		},
		{
			Version:     2,
			Description: "Create auth_attempts table",
			SQL: `CREATE TABLE IF NOT EXISTS auth_attempts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				kind TEXT NOT NULL,
				attempted_at TIMESTAMP NOT NULL
			)`,
		},
		{
			Version:     3,
			Description: "Index auth_attempts by user, kind and time",
			SQL: `CREATE INDEX IF NOT EXISTS idx_auth_attempts_user_kind_time
				ON auth_attempts (user_id, kind, attempted_at)`,
		},
		{
			Version:     4,
			Description: "Create password_resets table",
			SQL: `CREATE TABLE IF NOT EXISTS password_resets (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id TEXT UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				otp_code TEXT NOT NULL,
				requested_at TIMESTAMP NOT NULL,
				expires_at TIMESTAMP NOT NULL,
				used BOOLEAN NOT NULL DEFAULT FALSE
			)`,
		},
	}
}

// RunMigrations applies all pending migrations in order.
func RunMigrations(db *sql.DB, dbType string) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range GetMigrations(dbType) {
		if m.Version <= current {
			continue
		}
		if _, err := db.Exec(m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		log.Printf("Applied migration %d: %s", m.Version, m.Description)
	}

	return nil
}
