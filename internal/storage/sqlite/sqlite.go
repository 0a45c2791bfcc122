// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"budgetbot/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time; with multiple pooled connections a
	// concurrent write transaction fails with SQLITE_BUSY instead of waiting.
	// Serializing the pool makes racing transactions queue, so the loser of an
	// invite redemption race observes the code already used rather than an
	// error.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// now returns the current UTC Unix timestamp. All rows are stamped with it.
func now() int64 {
	return time.Now().UTC().Unix()
}

// createBudget inserts a budget owned by ownerID and returns its ID.
// Runs inside the caller's transaction so budget allocation commits or rolls
// back together with the pointer updates that reference it.
func createBudget(ctx context.Context, tx *sql.Tx, ownerID int64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO budgets (owner_id, created_at) VALUES (?, ?)",
		ownerID, now(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read budget id: %w", err)
	}
	return id, nil
}

// BudgetOwner returns the recorded owner of a budget.
func (s *SQLiteStore) BudgetOwner(ctx context.Context, budgetID int64) (int64, bool, error) {
	var owner sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT owner_id FROM budgets WHERE id = ?", budgetID,
	).Scan(&owner)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get budget owner: %w", err)
	}
	if !owner.Valid {
		return 0, false, nil
	}
	return owner.Int64, true, nil
}
