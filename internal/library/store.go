package library

import (
	"database/sql"
	"fmt"
	"strings"
)

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// Store provides access to library data.
type Store struct {
	db *sql.DB
}

// NewStore creates a new library store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Begin starts a transaction.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps a database transaction with the same methods as Store.
type Tx struct {
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// mapSQLiteError converts SQLite errors to custom error types.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	// modernc.org/sqlite wraps errors; check error message for constraint violations
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "PRIMARY KEY constraint failed") {
		return ErrDuplicate
	}
	if strings.Contains(errStr, "FOREIGN KEY constraint failed") ||
		strings.Contains(errStr, "CHECK constraint failed") {
		return ErrConstraint
	}
	return err
}

// pageClause renders LIMIT/OFFSET for list queries.
func pageClause(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}
