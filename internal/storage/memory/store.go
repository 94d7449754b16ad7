package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/storage"
)

// Store is an in-memory implementation of storage.Backend.
type Store struct {
	mu     sync.RWMutex
	docs   map[string][]byte
	tokens map[string]*model.TokenRecord
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		docs:   make(map[string][]byte),
		tokens: make(map[string]*model.TokenRecord),
	}
}

// Get returns a copy of the document stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), doc...), nil
}

// Put replaces the document stored under key.
func (s *Store) Put(_ context.Context, key string, doc []byte) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[key] = append([]byte(nil), doc...)
	return nil
}

// SaveToken inserts or replaces a token record.
func (s *Store) SaveToken(_ context.Context, record *model.TokenRecord) error {
	if record == nil || record.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *record
	s.tokens[record.ID] = &recordCopy
	return nil
}

// GetToken retrieves a token record by id.
func (s *Store) GetToken(_ context.Context, id string) (*model.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.tokens[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	recordCopy := *record
	return &recordCopy, nil
}

// ListTokens returns records newest first, optionally filtered by network.
func (s *Store) ListTokens(_ context.Context, network model.Network, limit int) ([]*model.TokenRecord, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	s.mu.RLock()
	out := make([]*model.TokenRecord, 0, len(s.tokens))
	for _, record := range s.tokens {
		if network != "" && record.Network != network {
			continue
		}
		recordCopy := *record
		out = append(out, &recordCopy)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

var _ storage.Backend = (*Store)(nil)
