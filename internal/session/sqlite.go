// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/Elambeth/mm-archive/pkg/types"
)

// SQLiteStore keeps the session in a device-local SQLite key-value table.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

// NewSQLiteStore opens or creates the database at path and ensures the
// key-value table exists.
func NewSQLiteStore(path string, log *zap.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db, log: log}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save writes the query and the answer as two separate upserts.
func (s *SQLiteStore) Save(ctx context.Context, query string, result types.AnswerResult) error {
	answer, err := encodeResult(result)
	if err != nil {
		return err
	}
	if err := s.put(ctx, KeyQuery, query); err != nil {
		return err
	}
	return s.put(ctx, KeyAnswer, answer)
}

// Load reads both keys. Any read error is logged and reported as absent.
func (s *SQLiteStore) Load(ctx context.Context) (Entry, bool) {
	query, haveQuery, err := s.get(ctx, KeyQuery)
	if err != nil {
		s.log.Debug("reading stored query", zap.Error(err))
		return Entry{}, false
	}
	answer, haveAnswer, err := s.get(ctx, KeyAnswer)
	if err != nil {
		s.log.Debug("reading stored answer", zap.Error(err))
		return Entry{}, false
	}
	return decodeEntry(s.log, query, answer, haveQuery, haveAnswer)
}

// Clear deletes both keys.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key IN (?, ?)`, KeyQuery, KeyAnswer); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}
