// Package audit records classification decisions in a SQLite database.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("audit store is closed")

// Record is one decision. ArmIndex is -1 when no arm matched.
type Record struct {
	ID        string
	RuleSet   string
	Input     string
	Matched   bool
	ArmIndex  int
	Result    string
	CreatedAt time.Time
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS decisions (
		id         TEXT PRIMARY KEY,
		rule_set   TEXT NOT NULL,
		input      TEXT NOT NULL,
		matched    INTEGER NOT NULL,
		arm_index  INTEGER NOT NULL,
		result     TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS decisions_rule_set_created
		ON decisions (rule_set, created_at DESC)`,
}

// Store is an append-only decision log.
//
// Thread Safety: safe for concurrent use; database/sql pools connections
// and SQLite serialises writers.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the database at path and migrates its schema.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit db %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases alive and avoids SQLITE_BUSY
	// between pooled writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating audit db %s: %w", path, err)
		}
	}
	logger.Debug("Audit store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Append stores r, assigning an ID and timestamp when they are empty, and
// returns the stored record.
func (s *Store) Append(ctx context.Context, r Record) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Record{}, ErrClosed
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if !r.Matched {
		r.ArmIndex = -1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (id, rule_set, input, matched, arm_index, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RuleSet, r.Input, r.Matched, r.ArmIndex, r.Result, r.CreatedAt.UnixNano())
	if err != nil {
		return Record{}, fmt.Errorf("appending decision: %w", err)
	}
	return r, nil
}

// Recent returns up to limit records for ruleSet, newest first. An empty
// ruleSet returns records for every rule set.
func (s *Store) Recent(ctx context.Context, ruleSet string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		return nil, nil
	}

	query := `SELECT id, rule_set, input, matched, arm_index, result, created_at
		FROM decisions`
	args := []interface{}{}
	if ruleSet != "" {
		query += ` WHERE rule_set = ?`
		args = append(args, ruleSet)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var created int64
		if err := rows.Scan(&r.ID, &r.RuleSet, &r.Input, &r.Matched, &r.ArmIndex, &r.Result, &created); err != nil {
			return nil, fmt.Errorf("scanning decision: %w", err)
		}
		r.CreatedAt = time.Unix(0, created)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading decisions: %w", err)
	}
	return out, nil
}

// Close closes the database. Safe to call multiple times.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
