// Package sqlite opens the pure-Go SQLite registry that backs document
// metadata and conversation history.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure Go sqlite driver
)

// MemoryPath selects a process-local in-memory database.
const MemoryPath = ":memory:"

// DB wraps *sql.DB for the registry.
type DB struct {
	*sql.DB
}

// Open opens or creates the registry database at path and applies the schema.
// An empty path or MemoryPath keeps everything in memory on a single connection.
func Open(ctx context.Context, path string) (*DB, error) {
	memory := path == "" || path == MemoryPath

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	if memory {
		dsn = "file::memory:?_pragma=busy_timeout(5000)"
	}

	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if memory {
		// every pooled connection would get its own empty database
		sqldb.SetMaxOpenConns(1)
	} else {
		for _, p := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA synchronous=NORMAL;"} {
			if _, err := sqldb.ExecContext(ctx, p); err != nil {
				_ = sqldb.Close()
				return nil, fmt.Errorf("apply %q: %w", p, err)
			}
		}
	}

	d := &DB{DB: sqldb}
	if err := d.EnsureSchema(ctx); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return d, nil
}

// EnsureSchema creates the registry tables if missing.
func (d *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
            scope       TEXT    NOT NULL,
            id          TEXT    NOT NULL,
            source_name TEXT    NOT NULL,
            byte_size   INTEGER NOT NULL,
            uploaded_at INTEGER NOT NULL,
            chunk_count INTEGER NOT NULL,
            PRIMARY KEY (scope, id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_documents_uploaded ON documents(scope, uploaded_at);`,
		`CREATE TABLE IF NOT EXISTS turns (
            seq        INTEGER PRIMARY KEY AUTOINCREMENT,
            session    TEXT    NOT NULL,
            role       TEXT    NOT NULL,
            content    TEXT    NOT NULL,
            created_at INTEGER NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session, seq);`,
	}

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return tx.Commit()
}
