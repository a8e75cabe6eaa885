// ABOUTME: Database connection management and initialization
// ABOUTME: Opens SQLite with WAL and foreign keys, and bundles repositories into a transactional Store
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a guarded write lost a race with another writer.
	ErrConflict = errors.New("record was modified concurrently")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func OpenDatabase(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// Single writer; every statement, including those inside a transaction, shares this connection.
	db.SetMaxOpenConns(1)

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Store groups the per-collection repositories over one connection or transaction.
type Store struct {
	db   *sql.DB
	inTx bool

	Contacts     *ContactsRepository
	Interactions *InteractionsRepository
	Drafts       *DraftsRepository
	Groups       *GroupsRepository
	Events       *EventsRepository
	Settings     *SettingsRepository
	SyncState    *SyncStateRepository
}

func NewStore(db *sql.DB) *Store {
	s := newStore(db)
	s.db = db
	return s
}

func newStore(conn DBTX) *Store {
	return &Store{
		Contacts:     &ContactsRepository{db: conn},
		Interactions: &InteractionsRepository{db: conn},
		Drafts:       &DraftsRepository{db: conn},
		Groups:       &GroupsRepository{db: conn},
		Events:       &EventsRepository{db: conn},
		Settings:     &SettingsRepository{db: conn},
		SyncState:    &SyncStateRepository{db: conn},
	}
}

// DB returns the underlying handle; nil for a transaction-scoped store.
func (s *Store) DB() *sql.DB {
	return s.db
}

// InTx runs fn against a transaction-scoped store, committing when fn returns nil.
// Calls on a store that is already transactional run fn directly.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := newStore(tx)
	txStore.inTx = true

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func affected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}
