// Package postgres provides a PostgreSQL-backed implementation of the
// store.Store interface on a pgx pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snapsplit/snapsplit/internal/common"
	"github.com/snapsplit/snapsplit/internal/receipt"
	"github.com/snapsplit/snapsplit/internal/split"
	"github.com/snapsplit/snapsplit/internal/store"
)

var _ store.Store = (*PostgresStore)(nil)

// PostgresStore implements store.Store using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS shares (
	code       TEXT PRIMARY KEY,
	receipt    JSONB NOT NULL,
	people     JSONB NOT NULL,
	payer_id   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// Open connects a pgx pool with the configured limits and ensures the
// shares table exists.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database", "driver", "postgres")

	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, common.WrapError(err, "parse postgres config")
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "snapsplit"

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, common.WrapError(err, "connect postgres")
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, common.WrapError(err, "migrate shares table")
	}

	logger.Info("successfully connected to database")
	return &PostgresStore{pool: pool, log: logger}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks connectivity, for health endpoints.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// SaveShare persists a share, assigning a code and timestamp when missing.
func (s *PostgresStore) SaveShare(ctx context.Context, sh *store.Share) error {
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

	_, err = s.pool.Exec(ctx,
		"INSERT INTO shares (code, receipt, people, payer_id, created_at) VALUES ($1, $2, $3, $4, $5)",
		sh.Code, receiptJSON, peopleJSON, sh.PayerID, sh.CreatedAt,
	)
	if err != nil {
		return common.WrapError(err, "failed to insert share")
	}
	return nil
}

// GetShare retrieves a share by its code.
func (s *PostgresStore) GetShare(ctx context.Context, code string) (*store.Share, error) {
	var (
		receiptJSON []byte
		peopleJSON  []byte
	)
	sh := &store.Share{}
	err := s.pool.QueryRow(ctx,
		"SELECT code, receipt, people, payer_id, created_at FROM shares WHERE code = $1",
		code,
	).Scan(&sh.Code, &receiptJSON, &peopleJSON, &sh.PayerID, &sh.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NotFoundError("share not found: " + code)
	}
	if err != nil {
		return nil, common.WrapError(err, "failed to get share")
	}

	var r receipt.Receipt
	if err := json.Unmarshal(receiptJSON, &r); err != nil {
		return nil, common.WrapError(err, "failed to unmarshal receipt")
	}
	var people []split.Person
	if err := json.Unmarshal(peopleJSON, &people); err != nil {
		return nil, common.WrapError(err, "failed to unmarshal people")
	}

	sh.Receipt = r
	sh.People = people
	sh.CreatedAt = sh.CreatedAt.UTC()
	return sh, nil
}
