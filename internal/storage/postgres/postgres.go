package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/storage"
	"github.com/AlexZinkM/launchpad-bot/internal/storage/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements storage.Backend on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, verifies the connection and applies migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := migrations.RunPostgres(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Get returns the document stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM documents WHERE key = $1`, key).Scan(&payload)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return payload, nil
}

// Put replaces the document stored under key.
func (s *Store) Put(ctx context.Context, key string, doc []byte) error {
	if key == "" {
		return storage.ErrInvalidInput
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (key, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`, key, doc)
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

// SaveToken inserts or replaces a token record.
func (s *Store) SaveToken(ctx context.Context, record *model.TokenRecord) error {
	if record == nil || record.ID == "" {
		return storage.ErrInvalidInput
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO tokens (id, mint, network, symbol, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			mint = EXCLUDED.mint,
			network = EXCLUDED.network,
			symbol = EXCLUDED.symbol,
			payload = EXCLUDED.payload
	`, record.ID, record.Mint, string(record.Network), record.Symbol, record.CreatedAt, payload)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// GetToken retrieves a token record by id.
func (s *Store) GetToken(ctx context.Context, id string) (*model.TokenRecord, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM tokens WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	var record model.TokenRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decode token payload: %w", err)
	}
	return &record, nil
}

// ListTokens returns records newest first, optionally filtered by network.
func (s *Store) ListTokens(ctx context.Context, network model.Network, limit int) ([]*model.TokenRecord, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT payload FROM tokens
		WHERE $1 = '' OR network = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, string(network), limit)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	records := make([]*model.TokenRecord, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan token row: %w", err)
		}
		var record model.TokenRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("decode token row: %w", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token rows: %w", err)
	}
	return records, nil
}

// isNotFoundError checks if error indicates no rows found.
func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

var _ storage.Backend = (*Store)(nil)
