package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AlexZinkM/launchpad-bot/internal/crypto"
	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/storage"
	"github.com/AlexZinkM/launchpad-bot/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = crypto.Params{N: 1 << 4, R: 8, P: 1}

func newSealer(t *testing.T, pw string) *crypto.Sealer {
	t.Helper()
	s, err := crypto.NewSealer([]byte(pw), testParams)
	require.NoError(t, err)
	return s
}

func sampleMapping() model.WalletMapping {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := model.WalletMapping{}
	for id := 1; id <= model.WalletCount; id++ {
		m[id] = model.WalletRecord{
			ID:        id,
			Mnemonic:  "phrase " + string(rune('a'+id)),
			Address:   "addr" + string(rune('0'+id)),
			CreatedAt: created,
		}
	}
	return m
}

func TestWalletStore_LoadAbsent(t *testing.T) {
	ws := storage.NewWalletStore(memory.NewStore(), newSealer(t, "pw"))

	_, err := ws.Load(context.Background(), model.NetworkMainnet)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestWalletStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	docs := memory.NewStore()
	ws := storage.NewWalletStore(docs, newSealer(t, "pw"))

	require.NoError(t, ws.Save(ctx, model.NetworkDevnet, sampleMapping()))
	// idempotent overwrite
	require.NoError(t, ws.Save(ctx, model.NetworkDevnet, sampleMapping()))

	got, err := ws.Load(ctx, model.NetworkDevnet)
	require.NoError(t, err)
	assert.True(t, got.Complete())
	assert.Equal(t, sampleMapping(), got)

	raw, err := docs.Get(ctx, "wallets/devnet")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "phrase")

	addrs, err := ws.Addresses(ctx, model.NetworkDevnet)
	require.NoError(t, err)
	assert.Equal(t, []string{"addr1", "addr2", "addr3", "addr4", "addr5"}, addrs)

	_, err = ws.Load(ctx, model.NetworkMainnet)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestWalletStore_WrongPassphrase(t *testing.T) {
	ctx := context.Background()
	docs := memory.NewStore()
	require.NoError(t, storage.NewWalletStore(docs, newSealer(t, "pw")).Save(ctx, model.NetworkDevnet, sampleMapping()))

	_, err := storage.NewWalletStore(docs, newSealer(t, "other")).Load(ctx, model.NetworkDevnet)
	assert.ErrorIs(t, err, crypto.ErrInvalidPassword)
}

func TestWalletStore_CorruptDocument(t *testing.T) {
	ctx := context.Background()
	docs := memory.NewStore()
	require.NoError(t, docs.Put(ctx, "wallets/devnet", []byte("{not json")))

	_, err := storage.NewWalletStore(docs, newSealer(t, "pw")).Load(ctx, model.NetworkDevnet)
	assert.ErrorIs(t, err, storage.ErrCorrupt)
}

func TestWalletStore_Rekey(t *testing.T) {
	ctx := context.Background()
	docs := memory.NewStore()
	ws := storage.NewWalletStore(docs, newSealer(t, "old"))
	require.NoError(t, ws.Save(ctx, model.NetworkDevnet, sampleMapping()))

	require.NoError(t, ws.Rekey(ctx, model.NetworkDevnet, newSealer(t, "new")))

	_, err := ws.Load(ctx, model.NetworkDevnet)
	assert.ErrorIs(t, err, crypto.ErrInvalidPassword)

	got, err := storage.NewWalletStore(docs, newSealer(t, "new")).Load(ctx, model.NetworkDevnet)
	require.NoError(t, err)
	assert.Equal(t, sampleMapping(), got)
}

type failingDocs struct{ storage.DocumentStore }

func (failingDocs) Put(context.Context, string, []byte) error { return errors.New("disk full") }

func TestWalletStore_SaveFailurePropagates(t *testing.T) {
	ws := storage.NewWalletStore(failingDocs{memory.NewStore()}, newSealer(t, "pw"))

	err := ws.Save(context.Background(), model.NetworkDevnet, sampleMapping())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assert.ErrorIs(t, ws.Save(context.Background(), model.NetworkDevnet, nil), storage.ErrInvalidInput)
}
