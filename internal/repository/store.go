// Package store defines the exchange journal interface and its SQLite
// implementation.
package store

import (
	"context"

	"github.com/xiaot623/chatbridge/internal/domain"
)

// Store records how chat exchanges ended. It holds no conversation content.
type Store interface {
	CreateExchange(ctx context.Context, exchange *domain.Exchange) error
	ListExchanges(ctx context.Context, threadID string, limit int) ([]domain.Exchange, error)
	Close() error
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
