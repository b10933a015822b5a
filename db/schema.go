// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported SQL dialects
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Open connects to the database for the given dialect and verifies the connection.
func Open(dialect, dsn string) (*sql.DB, error) {
	if dialect != DialectSQLite && dialect != DialectPostgres {
		return nil, fmt.Errorf("unsupported database type %q", dialect)
	}

	conn, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY under load
	// and keeps ":memory:" databases alive across queries.
	if dialect == DialectSQLite {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Rebind rewrites ? placeholders into $1, $2, ... for postgres.
func Rebind(dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// The full session document lives in doc. The other columns are copies kept
// for indexing and operator queries.
const schema = `
CREATE TABLE IF NOT EXISTS gathering_session (
    id TEXT PRIMARY KEY,
    host_id TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'recruiting' CHECK (status IN ('recruiting', 'swiping', 'tiebreak', 'finished')),
    version BIGINT NOT NULL DEFAULT 1,
    doc TEXT NOT NULL,
    wait_deadline TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_gathering_session_status ON gathering_session(status);
CREATE INDEX IF NOT EXISTS idx_gathering_session_deadline ON gathering_session(wait_deadline)
`
