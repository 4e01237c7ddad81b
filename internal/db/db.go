package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with propgate-specific helpers.
type DB struct {
	*sql.DB
	mu   sync.RWMutex
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS proposals (
    id TEXT PRIMARY KEY,
    agent_type TEXT NOT NULL CHECK(agent_type IN ('imperium','guardian','sandbox','conquest')),
    file_path TEXT NOT NULL,
    code_before TEXT NOT NULL DEFAULT '',
    code_after TEXT NOT NULL DEFAULT '',
    improvement_type TEXT NOT NULL DEFAULT '',
    reasoning TEXT NOT NULL DEFAULT '',
    confidence REAL NOT NULL DEFAULT 0.5 CHECK(confidence >= 0.0 AND confidence <= 1.0),
    status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','testing','test-passed','test-failed','in-review','accepted','applied','apply-failed','rejected','expired')),
    code_hash TEXT NOT NULL,
    semantic_hash TEXT NOT NULL,
    quality_score REAL NOT NULL DEFAULT 0.5,
    approval_probability REAL NOT NULL DEFAULT 0.5,
    recommendation TEXT NOT NULL DEFAULT 'review',
    test_output TEXT NOT NULL DEFAULT '',
    test_results TEXT NOT NULL DEFAULT '[]',
    parent_id TEXT,
    generation INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_proposals_status ON proposals(status);
CREATE INDEX IF NOT EXISTS idx_proposals_agent ON proposals(agent_type, status);
CREATE INDEX IF NOT EXISTS idx_proposals_code_hash ON proposals(code_hash);
CREATE INDEX IF NOT EXISTS idx_proposals_semantic_hash ON proposals(semantic_hash);
CREATE INDEX IF NOT EXISTS idx_proposals_created ON proposals(created_at);

CREATE TABLE IF NOT EXISTS learning_events (
    id TEXT PRIMARY KEY,
    proposal_id TEXT NOT NULL,
    agent_type TEXT NOT NULL,
    topic TEXT NOT NULL DEFAULT 'test_failure',
    summary TEXT NOT NULL,
    context TEXT NOT NULL DEFAULT '{}',
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_learning_proposal ON learning_events(proposal_id);
CREATE INDEX IF NOT EXISTS idx_learning_agent ON learning_events(agent_type);
CREATE INDEX IF NOT EXISTS idx_learning_created ON learning_events(created_at);
`
