// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Versions are per-key integer counters enforced inside a transaction

package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "state")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite state store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS kv_state (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			version    INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite state store")
	return s.db.Close()
}

// Get returns the value and version for key, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	var value []byte
	var version int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value, version FROM kv_state WHERE key = ?`, key,
	).Scan(&value, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("querying key %q: %w", key, err)
	}
	return value, strconv.FormatInt(version, 10), nil
}

// Put writes value under key, enforcing the optional expected version.
// The read-check-write happens inside a single transaction.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte, expectedVersion string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)

	var current int64
	err = tx.QueryRowContext(ctx,
		`SELECT version FROM kv_state WHERE key = ?`, key,
	).Scan(&current)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if expectedVersion != "" {
			return "", ErrConflict
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv_state (key, value, version, updated_at) VALUES (?, ?, 1, ?)`,
			key, value, now,
		); err != nil {
			return "", fmt.Errorf("inserting key %q: %w", key, err)
		}
		current = 1

	case err != nil:
		return "", fmt.Errorf("querying key %q: %w", key, err)

	default:
		if expectedVersion != "" && expectedVersion != strconv.FormatInt(current, 10) {
			return "", ErrConflict
		}
		current++
		if _, err := tx.ExecContext(ctx,
			`UPDATE kv_state SET value = ?, version = ?, updated_at = ? WHERE key = ?`,
			value, current, now, key,
		); err != nil {
			return "", fmt.Errorf("updating key %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing write for key %q: %w", key, err)
	}

	s.logger.Debug("state written", "key", key, "version", current)
	return strconv.FormatInt(current, 10), nil
}

// Delete removes key. Missing keys are ignored.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting key %q: %w", key, err)
	}
	return nil
}
