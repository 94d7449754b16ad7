package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/storage"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

const lockTimeout = 5 * time.Second

// Store is a sqlite implementation of storage.Backend. Writes are serialized
// across processes with a file lock next to the database.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
}

// Open creates the database and lock file under path if needed.
func Open(path string) (*Store, error) {
	return OpenWithLock(path, path+".lock")
}

// OpenWithLock is Open with an explicit lock file path.
func OpenWithLock(path, lockPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	queries := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		`CREATE TABLE IF NOT EXISTS documents (
			key TEXT PRIMARY KEY,
			updated_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tokens (
			id TEXT PRIMARY KEY,
			mint TEXT NOT NULL,
			network TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_tokens_network_created ON tokens(network, created_at DESC);",
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite schema: %w", err)
		}
	}
	return &Store{db: db, lock: flock.New(lockPath)}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the document stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM documents WHERE key = ?", key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	return payload, nil
}

// Put replaces the document stored under key.
func (s *Store) Put(ctx context.Context, key string, doc []byte) error {
	if key == "" {
		return storage.ErrInvalidInput
	}
	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (key, updated_at, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			updated_at=excluded.updated_at,
			payload=excluded.payload
	`, key, time.Now().UTC().Unix(), doc)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
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

	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tokens (id, mint, network, created_at, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mint=excluded.mint,
			network=excluded.network,
			payload=excluded.payload
	`, record.ID, record.Mint, string(record.Network), record.CreatedAt.UTC().UnixNano(), payload)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// GetToken retrieves a token record by id.
func (s *Store) GetToken(ctx context.Context, id string) (*model.TokenRecord, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM tokens WHERE id = ?", id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read token: %w", err)
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
	var (
		rows *sql.Rows
		err  error
	)
	if network == "" {
		rows, err = s.db.QueryContext(ctx, "SELECT payload FROM tokens ORDER BY created_at DESC LIMIT ?", limit)
	} else {
		rows, err = s.db.QueryContext(ctx, "SELECT payload FROM tokens WHERE network = ? ORDER BY created_at DESC LIMIT ?", string(network), limit)
	}
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

func (s *Store) acquire(ctx context.Context) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := s.lock.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock store: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock store: timeout acquiring lock")
	}
	return func() { _ = s.lock.Unlock() }, nil
}

var _ storage.Backend = (*Store)(nil)
