package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migrations upgrade a manifest from version i to i+1. They also run on
// freshly created databases and must be idempotent.
var migrations = []func(*sql.Tx) error{
	// v1: index used to find earlier runs of the same descriptor
	func(tx *sql.Tx) error {
		_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_module_hash ON runs(module, descriptor_hash)`)
		return err
	},
}

// currentSchemaVersion is the user_version of a fully migrated manifest.
var currentSchemaVersion = len(migrations)

// DefaultBusyTimeout is how long a writer waits for a locked manifest
// unless WithBusyTimeout says otherwise.
const DefaultBusyTimeout = 5 * time.Second

// Store is a manifest database of generation runs.
type Store struct {
	db  *sql.DB
	ids IDGenerator
}

// Option configures a Store opened with Open.
type Option func(*options)

type options struct {
	ids         IDGenerator
	busyTimeout time.Duration
}

// WithIDGenerator sets the generator of run IDs. The default produces
// UUIDv7 strings.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithBusyTimeout sets how long a writer waits for a locked manifest.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.busyTimeout = d }
}

// Open opens the manifest at path, creating it if needed, and brings its
// schema up to date. Opening the same file repeatedly is safe.
//
// Connections run in WAL mode with synchronous=NORMAL and foreign keys
// enforced.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{ids: UUIDv7Generator{}, busyTimeout: DefaultBusyTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	// One connection: sqlite serializes writers anyway and the pragmas
	// below are per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := setup(db, o); err != nil {
		db.Close()
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	return &Store{db: db, ids: o.ids}, nil
}

func setup(db *sql.DB, o options) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", o.busyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return migrate(db)
}

// migrate runs the migrations above the stored user_version in a single
// transaction.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer tx.Rollback()

	for v := version; v < currentSchemaVersion; v++ {
		if err := migrations[v](tx); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return tx.Commit()
}

// Close closes the database. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// pragma returns the current value of a connection pragma.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("query %s: %w", name, err)
	}
	return value, nil
}
