package storage

import (
	"context"

	"github.com/AlexZinkM/launchpad-bot/internal/model"
)

// DocumentStore is a durable key-value store of whole documents.
// Put is a full replace and must be durable before it returns.
type DocumentStore interface {
	// Get returns ErrNotFound if key was never written.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, doc []byte) error
}

// TokenStore persists launched token records.
type TokenStore interface {
	// SaveToken inserts or replaces the record with the same ID.
	SaveToken(ctx context.Context, record *model.TokenRecord) error
	// GetToken returns ErrNotFound if id does not exist.
	GetToken(ctx context.Context, id string) (*model.TokenRecord, error)
	// ListTokens returns the newest records first. An empty network lists all.
	ListTokens(ctx context.Context, network model.Network, limit int) ([]*model.TokenRecord, error)
}

// Backend is a store implementation serving both documents and tokens.
type Backend interface {
	DocumentStore
	TokenStore
	Close() error
}

// DefaultListLimit is used when ListTokens is called with limit <= 0.
const DefaultListLimit = 20
