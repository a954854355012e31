// Package sqlite provides a SQLite-backed StateStore: single-file, durable,
// and dependency-free at runtime (pure Go driver).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/parleykit/parley/pkg/domain"
)

// Store implements ports.StateStore on a SQLite database. One row per
// principal; the bag travels as a JSON column.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and initializes the schema.
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS state_bags (
			principal   TEXT PRIMARY KEY,
			bag         TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_state_bags_updated ON state_bags(updated_at);
	`)
	return err
}

// Save upserts the principal's bag.
func (s *Store) Save(ctx context.Context, principal domain.Principal, bag domain.StateBag) error {
	data, err := json.Marshal(bag)
	if err != nil {
		return fmt.Errorf("marshal state bag: %w", err)
	}

	now := time.Now().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO state_bags (principal, bag, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(principal) DO UPDATE SET
			bag=excluded.bag, updated_at=excluded.updated_at
	`, string(principal), string(data), now)
	if err != nil {
		return fmt.Errorf("save state bag: %w", err)
	}
	return nil
}

// Load retrieves the principal's bag.
func (s *Store) Load(ctx context.Context, principal domain.Principal) (domain.StateBag, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT bag FROM state_bags WHERE principal = ?
	`, string(principal))

	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("load state bag: %w", err)
	}

	var bag domain.StateBag
	if err := json.Unmarshal([]byte(data), &bag); err != nil {
		return nil, fmt.Errorf("unmarshal state bag: %w", err)
	}
	return bag, nil
}

// Delete removes the principal's row. Deleting an absent principal is not an
// error.
func (s *Store) Delete(ctx context.Context, principal domain.Principal) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM state_bags WHERE principal = ?
	`, string(principal))
	if err != nil {
		return fmt.Errorf("delete state bag: %w", err)
	}
	return nil
}

// List returns every principal that owns a row.
func (s *Store) List(ctx context.Context) ([]domain.Principal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT principal FROM state_bags ORDER BY principal
	`)
	if err != nil {
		return nil, fmt.Errorf("list principals: %w", err)
	}
	defer rows.Close()

	var principals []domain.Principal
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		principals = append(principals, domain.Principal(p))
	}
	return principals, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
