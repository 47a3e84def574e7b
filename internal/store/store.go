package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/cnl/internal/queryir"
	"github.com/roach88/cnl/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// pragmas configure every connection: WAL so readers do not block the
// writer, a busy timeout for lock contention, and enforced foreign keys
// between chunks and documents.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// migration upgrades a database from version-1 to version.
type migration struct {
	version int
	stmt    string
}

// migrations run in order against databases whose user_version is below
// theirs. schema.sql already holds the latest tables, so migrations only
// add what older files lack.
var migrations = []migration{
	{1, `CREATE INDEX IF NOT EXISTS idx_chunks_tactic ON chunks(tactic_id)`},
	{2, `CREATE INDEX IF NOT EXISTS idx_chunks_kind ON chunks(document_id, kind)`},
}

// currentSchemaVersion is the user_version of a fully migrated database.
var currentSchemaVersion = migrations[len(migrations)-1].version

// Store is the transcript of checked documents, backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, configures it and brings
// its schema up to date. Opening an existing transcript is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := setup(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func setup(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("apply %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return migrate(db)
}

// migrate applies pending migrations and records the new version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Select runs a validated query against the transcript tables.
// Callers are responsible for closing the returned rows.
func (s *Store) Select(ctx context.Context, q queryir.Query) (*sql.Rows, error) {
	query, args, err := querysql.Compile(q)
	if err != nil {
		return nil, err
	}
	return s.db.QueryContext(ctx, query, args...)
}

// pragma returns the current value of a pragma.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("query %s: %w", name, err)
	}
	return value, nil
}
