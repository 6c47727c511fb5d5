// Package store persists shared splits so a settlement can be fetched by a
// short code from another device.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/snapsplit/snapsplit/internal/receipt"
	"github.com/snapsplit/snapsplit/internal/split"
)

// Share is one saved split: the canonical receipt with its allocations,
// the people involved, and who paid.
type Share struct {
	Code      string          `json:"code"`
	Receipt   receipt.Receipt `json:"receipt"`
	People    []split.Person  `json:"people"`
	PayerID   string          `json:"payerId"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Store defines the share storage operations. The abstraction allows
// swapping backends (SQLite, PostgreSQL) without changing the server layer.
type Store interface {
	// SaveShare persists a share. Code and CreatedAt are populated when
	// empty.
	SaveShare(ctx context.Context, s *Share) error

	// GetShare retrieves a share by its code.
	GetShare(ctx context.Context, code string) (*Share, error)

	// Close releases any resources held by the store.
	Close() error
}

// NewShareCode returns a short code fit for a chat message: the first 8 hex
// characters of a UUID.
func NewShareCode() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
