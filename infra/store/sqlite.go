package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	corestore "github.com/kilianp07/rehearsal/core/store"
)

// SQLiteStore persists solutions in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS solutions (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT NOT NULL UNIQUE,
        created_at INTEGER,
        energy REAL,
        satisfied INTEGER,
        record TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Save inserts the solution, replacing an earlier one with the same id.
func (s *SQLiteStore) Save(ctx context.Context, sol corestore.Solution) error {
	b, err := json.Marshal(sol)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO solutions (id, created_at, energy, satisfied, record)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            created_at = excluded.created_at,
            energy = excluded.energy,
            satisfied = excluded.satisfied,
            record = excluded.record`,
		sol.ID, sol.CreatedAt.UnixNano(), sol.Energy, sol.Satisfied, string(b))
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (corestore.Solution, error) {
	return s.one(ctx, `SELECT record FROM solutions WHERE id = ?`, id)
}

func (s *SQLiteStore) Latest(ctx context.Context) (corestore.Solution, error) {
	return s.one(ctx, `SELECT record FROM solutions ORDER BY seq DESC LIMIT 1`)
}

func (s *SQLiteStore) one(ctx context.Context, query string, args ...any) (corestore.Solution, error) {
	var data string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return corestore.Solution{}, corestore.ErrNotFound
		}
		return corestore.Solution{}, err
	}
	var sol corestore.Solution
	if err := json.Unmarshal([]byte(data), &sol); err != nil {
		return corestore.Solution{}, fmt.Errorf("decode solution: %w", err)
	}
	return sol, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
