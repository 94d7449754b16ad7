package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/AlexZinkM/launchpad-bot/internal/crypto"
	"github.com/AlexZinkM/launchpad-bot/internal/model"
)

// WalletStore persists per-network wallet mappings as sealed documents.
type WalletStore struct {
	docs   DocumentStore
	sealer *crypto.Sealer
}

// NewWalletStore creates a WalletStore over docs.
func NewWalletStore(docs DocumentStore, sealer *crypto.Sealer) *WalletStore {
	return &WalletStore{docs: docs, sealer: sealer}
}

func walletKey(network model.Network) string {
	return "wallets/" + string(network)
}

// Load returns the stored mapping for network.
// Returns ErrNotFound when nothing was ever saved, ErrCorrupt when the
// document is unreadable and crypto.ErrInvalidPassword on a wrong passphrase.
func (s *WalletStore) Load(ctx context.Context, network model.Network) (model.WalletMapping, error) {
	doc, err := s.loadDocument(ctx, network)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.sealer.Open(doc)
	if err != nil {
		if errors.Is(err, crypto.ErrInvalidPassword) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer clear(plaintext)

	var mapping model.WalletMapping
	if err := json.Unmarshal(plaintext, &mapping); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal wallet mapping: %v", ErrCorrupt, err)
	}
	return mapping, nil
}

// Save replaces the whole mapping for network.
func (s *WalletStore) Save(ctx context.Context, network model.Network, mapping model.WalletMapping) error {
	if len(mapping) == 0 {
		return fmt.Errorf("%w: empty wallet mapping", ErrInvalidInput)
	}
	return s.save(ctx, network, mapping, s.sealer)
}

// Addresses reads the clear-text address list without the passphrase.
func (s *WalletStore) Addresses(ctx context.Context, network model.Network) ([]string, error) {
	doc, err := s.loadDocument(ctx, network)
	if err != nil {
		return nil, err
	}
	return doc.Addresses, nil
}

// Rekey re-seals the network's mapping under next.
func (s *WalletStore) Rekey(ctx context.Context, network model.Network, next *crypto.Sealer) error {
	mapping, err := s.Load(ctx, network)
	if err != nil {
		return err
	}
	return s.save(ctx, network, mapping, next)
}

func (s *WalletStore) save(ctx context.Context, network model.Network, mapping model.WalletMapping, sealer *crypto.Sealer) error {
	plaintext, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet mapping: %w", err)
	}
	defer clear(plaintext)

	doc, err := sealer.Seal(network, sortedAddresses(mapping), plaintext)
	if err != nil {
		return fmt.Errorf("failed to seal wallet mapping: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sealed document: %w", err)
	}

	if err := s.docs.Put(ctx, walletKey(network), data); err != nil {
		return fmt.Errorf("failed to save %s wallets: %w", network, err)
	}
	return nil
}

func (s *WalletStore) loadDocument(ctx context.Context, network model.Network) (*model.SealedDocument, error) {
	data, err := s.docs.Get(ctx, walletKey(network))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load %s wallets: %w", network, err)
	}

	var doc model.SealedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal sealed document: %v", ErrCorrupt, err)
	}
	return &doc, nil
}

func sortedAddresses(mapping model.WalletMapping) []string {
	ids := make([]int, 0, len(mapping))
	for id := range mapping {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, mapping[id].Address)
	}
	return out
}
