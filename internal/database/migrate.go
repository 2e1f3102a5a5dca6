package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order on every start.  Statements must stay
// idempotent.  The UNIQUE key on email is what makes concurrent
// registrations for the same address resolve to a single row.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name          VARCHAR(120)    NOT NULL,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_login    DATETIME        NULL,
		is_active     TINYINT(1)      NOT NULL DEFAULT 1,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token_hash CHAR(64)        NOT NULL,
		account_id VARCHAR(32)     NOT NULL,
		payload    BLOB            NOT NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		PRIMARY KEY (token_hash),
		KEY idx_sessions_account (account_id),
		KEY idx_sessions_expires (expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the application needs.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

// Ping reports whether the database answers within ctx.
func Ping(ctx context.Context, db *sql.DB) bool {
	if db == nil {
		return false
	}
	return db.PingContext(ctx) == nil
}
