package sqlite

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/fieldops/walkabout/pkg/types"
)

// dbFileName is the durable container inside the data directory.
const dbFileName = "walkabout.db"

// Compile-time interface check: Store must implement types.Store.
var _ types.Store = (*Store)(nil)

// Store implements the session store on SQLite. The database handle is a
// single shared resource: lazily opened by Attach, reused by every
// operation, and re-acquired by the schema-drift recovery path.
type Store struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	dbPath   string
	log      *slog.Logger
}

// NewStore creates a detached Store. Call Attach with a Config before use.
func NewStore() *Store {
	return &Store{
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger replaces the store's logger. A nil logger silences it.
func (s *Store) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.mu.Lock()
	s.log = l
	s.mu.Unlock()
}

// Attach opens the database under config.DataDir, creating the directory
// and schema as needed. Returns ErrAlreadyAttached when called twice.
func (s *Store) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)
	db, err := openAtPath(dbPath, schemaVersion)
	if err != nil {
		return err
	}

	s.db = db
	s.dbPath = dbPath
	s.config = config
	s.attached = true
	return nil
}

// Detach closes the database handle. Idempotent: repeated calls succeed.
// After Detach, operations return ErrStoreDetached.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return err
		}
		s.db = nil
	}
	s.attached = false
	return nil
}

// openAtPath opens the database file and ensures schema and indexes exist.
// The stored user_version is only ever raised, never lowered.
func openAtPath(path string, minVersion int) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("create indexes: %w", err)
		}
	}

	var current int
	if err := db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		db.Close()
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	if current < minVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", minVersion)); err != nil {
			db.Close()
			return nil, fmt.Errorf("write schema version: %w", err)
		}
	}
	return db, nil
}

// isSchemaDrift reports whether err indicates the expected table is missing
// from the opened database, the condition the recovery path repairs.
func isSchemaDrift(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "no such table")
}

// recoverSchema handles schema drift: it opens a fresh handle at a strictly
// higher user_version, recreates the missing table and its indexes, and
// only then swaps out and closes the stale handle. The new handle is opened
// first so a failed recovery never leaves the store half-closed; in that
// case the stale handle stays in place and the caller surfaces the
// original error.
// The caller must hold s.mu.
func (s *Store) recoverSchema() error {
	var current int
	if s.db != nil {
		// Best effort: the stale handle may be unable to answer.
		_ = s.db.QueryRow("PRAGMA user_version").Scan(&current)
	}
	next := current + 1
	if next < schemaVersion {
		next = schemaVersion
	}

	fresh, err := openAtPath(s.dbPath, next)
	if err != nil {
		return fmt.Errorf("schema drift recovery: %w", err)
	}

	stale := s.db
	s.db = fresh
	if stale != nil {
		_ = stale.Close()
	}
	s.log.Info("recovered session store schema", "path", s.dbPath, "version", next)
	return nil
}

// withRecovery runs op, and on a schema-drift error runs the
// reopen-and-recreate cycle and retries op exactly once. Any second failure
// propagates.
func (s *Store) withRecovery(op func(db *sql.DB) error) error {
	s.mu.RLock()
	if !s.attached {
		s.mu.RUnlock()
		return types.ErrStoreDetached
	}
	db := s.db
	s.mu.RUnlock()

	err := op(db)
	if !isSchemaDrift(err) {
		return err
	}

	s.mu.Lock()
	if !s.attached {
		s.mu.Unlock()
		return types.ErrStoreDetached
	}
	// Another operation may have recovered already while we waited for
	// the lock; retry against whatever handle is current either way.
	if s.db == db {
		if rerr := s.recoverSchema(); rerr != nil {
			s.mu.Unlock()
			s.log.Warn("schema drift recovery failed", "error", rerr)
			return err
		}
	}
	db = s.db
	s.mu.Unlock()

	return op(db)
}
