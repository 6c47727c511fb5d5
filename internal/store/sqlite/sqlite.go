// Package sqlite provides a SQLite-backed implementation of the store.Store
// interface using the pure Go driver (no CGO).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/snapsplit/snapsplit/internal/common"
	"github.com/snapsplit/snapsplit/internal/receipt"
	"github.com/snapsplit/snapsplit/internal/split"
	"github.com/snapsplit/snapsplit/internal/store"
)

var _ store.Store = (*SQLiteStore)(nil)

// SQLiteStore implements store.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS shares (
	code       TEXT PRIMARY KEY,
	receipt    TEXT NOT NULL,
	people     TEXT NOT NULL,
	payer_id   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// New opens (or creates) the database at dbPath and runs migrations.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, common.WrapError(err, "failed to create database directory")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, common.WrapError(err, "failed to open database")
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, common.WrapError(err, "failed to set journal mode")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, common.WrapError(err, "failed to run migrations")
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveShare persists a share, assigning a code and timestamp when missing.
func (s *SQLiteStore) SaveShare(ctx context.Context, sh *store.Share) error {
	if sh.Code == "" {
		sh.Code = store.NewShareCode()
	}
	if sh.CreatedAt.IsZero() {
		sh.CreatedAt = time.Now().UTC()
	}

	receiptJSON, err := json.Marshal(sh.Receipt)
	if err != nil {
		return common.WrapError(err, "failed to marshal receipt")
	}
	peopleJSON, err := json.Marshal(sh.People)
	if err != nil {
		return common.WrapError(err, "failed to marshal people")
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO shares (code, receipt, people, payer_id, created_at) VALUES (?, ?, ?, ?, ?)",
		sh.Code, string(receiptJSON), string(peopleJSON), sh.PayerID, sh.CreatedAt.Unix(),
	)
	if err != nil {
		return common.WrapError(err, "failed to insert share")
	}
	return nil
}

// GetShare retrieves a share by its code.
func (s *SQLiteStore) GetShare(ctx context.Context, code string) (*store.Share, error) {
	var (
		receiptJSON string
		peopleJSON  string
		createdAt   int64
	)
	sh := &store.Share{}
	err := s.db.QueryRowContext(ctx,
		"SELECT code, receipt, people, payer_id, created_at FROM shares WHERE code = ?",
		code,
	).Scan(&sh.Code, &receiptJSON, &peopleJSON, &sh.PayerID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundError("share not found: " + code)
	}
	if err != nil {
		return nil, common.WrapError(err, "failed to get share")
	}

	var r receipt.Receipt
	if err := json.Unmarshal([]byte(receiptJSON), &r); err != nil {
		return nil, common.WrapError(err, "failed to unmarshal receipt")
	}
	var people []split.Person
	if err := json.Unmarshal([]byte(peopleJSON), &people); err != nil {
		return nil, common.WrapError(err, "failed to unmarshal people")
	}

	sh.Receipt = r
	sh.People = people
	sh.CreatedAt = time.Unix(createdAt, 0).UTC()
	return sh, nil
}
