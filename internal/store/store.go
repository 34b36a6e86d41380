package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/sentdict/internal/dict"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (sentences + meta)
const currentSchemaVersion = 1

// Meta keys persisted in the meta table.
const (
	metaDictionaryID = "dictionary_id"
	metaEncodeMode   = "encode_mode"
	metaNormalizeEOL = "normalize_eol"
)

// Store provides durable storage for the sentence dictionary.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db   *sql.DB
	hash dict.HashFunc
}

// Option configures a Store at Open time.
type Option func(*Store)

// WithHashFunc overrides the content hash function. Tests use this to
// force collisions; changing the hash on an existing dictionary is
// safe for correctness (equality is decided on bytes) but degrades
// lookups to full scans of mismatched buckets, so don't.
func WithHashFunc(h dict.HashFunc) Option {
	return func(s *Store) { s.hash = h }
}

// Open creates or opens a dictionary database at the given path.
// Applies required pragmas and migrations automatically, and mints
// the dictionary's identity on first creation.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1) // Single writer to avoid SQLITE_BUSY errors
	db.SetMaxIdleConns(1) // Keep one connection ready

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if err := ensureDictionaryID(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize dictionary identity: %w", err)
	}

	s := &Store{db: db, hash: dict.HashContent}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d: %w",
			version, currentSchemaVersion, dict.ErrCorrupt)
	}

	// No incremental migrations yet; schema.sql covers version 1.

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// ensureDictionaryID mints the dictionary's UUID on first creation.
// INSERT OR IGNORE makes reopening a no-op, so the identity is stable
// for the lifetime of the database file.
func ensureDictionaryID(db *sql.DB) error {
	id := uuid.Must(uuid.NewV7()).String()
	_, err := db.Exec(`
		INSERT OR IGNORE INTO meta (key, value) VALUES (?, ?)
	`, metaDictionaryID, id)
	if err != nil {
		return fmt.Errorf("write dictionary id: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
