package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // remote libSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/jywlabs/skillhub/internal/config"
	"github.com/jywlabs/skillhub/internal/logging"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store is the durable Skill Registry.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS skills (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		name_key TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		source_type TEXT NOT NULL,
		source_ref TEXT NOT NULL,
		source_subpath TEXT NOT NULL DEFAULT '',
		source_branch TEXT NOT NULL DEFAULT '',
		central_path TEXT NOT NULL UNIQUE,
		content_hash TEXT NOT NULL DEFAULT '',
		sort_order INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sync_targets (
		skill_id TEXT NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
		tool_id TEXT NOT NULL,
		mode TEXT NOT NULL,
		target_path TEXT NOT NULL,
		synced_at INTEGER NOT NULL,
		PRIMARY KEY (skill_id, tool_id)
	)`,
	`CREATE TABLE IF NOT EXISTS repo_bookmarks (
		owner TEXT NOT NULL COLLATE NOCASE,
		name TEXT NOT NULL COLLATE NOCASE,
		branch TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (owner, name)
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS custom_tools (
		key TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		skills_dir TEXT NOT NULL,
		detect_dir TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_skills_sort ON skills(sort_order)`,
}

// Open connects to the registry database and creates missing tables.
// dsn is a file path (SQLite) or a libsql:// / https:// URL (libSQL).
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	logger = logging.OrNop(logger)

	var (
		db  *sql.DB
		err error
	)
	if config.IsRemoteDatabase(dsn) {
		db, err = sql.Open("libsql", dsn)
	} else {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		db, err = sql.Open("sqlite", "file:"+dsn+
			"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	}
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	// One connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping registry: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("registry opened", zap.Bool("remote", config.IsRemoteDatabase(dsn)))
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	for _, ddl := range schema {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
