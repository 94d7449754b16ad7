package fleet_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AlexZinkM/launchpad-bot/fleet"
	"github.com/AlexZinkM/launchpad-bot/internal/client"
	"github.com/AlexZinkM/launchpad-bot/internal/common"
	"github.com/AlexZinkM/launchpad-bot/internal/crypto"
	"github.com/AlexZinkM/launchpad-bot/internal/ledgerstub"
	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/storage"
	"github.com/AlexZinkM/launchpad-bot/internal/storage/memory"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testParams = crypto.Params{N: 1 << 4, R: 8, P: 1}

// countingStore wraps a WalletStore, counting saves and optionally failing them.
type countingStore struct {
	inner   fleet.WalletStore
	saves   atomic.Int32
	saveErr error
}

func (s *countingStore) Load(ctx context.Context, n model.Network) (model.WalletMapping, error) {
	return s.inner.Load(ctx, n)
}

func (s *countingStore) Save(ctx context.Context, n model.Network, m model.WalletMapping) error {
	s.saves.Add(1)
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.inner.Save(ctx, n, m)
}

func newWalletStore(t *testing.T, docs storage.DocumentStore) *storage.WalletStore {
	t.Helper()
	sealer, err := crypto.NewSealer([]byte("test-passphrase"), testParams)
	require.NoError(t, err)
	return storage.NewWalletStore(docs, sealer)
}

func newDerivation(t *testing.T) *crypto.Derivation {
	t.Helper()
	d, err := crypto.NewDerivation(crypto.DefaultDerivationPath)
	require.NoError(t, err)
	return d
}

func testConfig() fleet.Config {
	return fleet.Config{
		ReserveLamports:       common.MustSOLToLamports("0.05"),
		DustThresholdLamports: common.MustSOLToLamports("0.001"),
		FeeLamports:           0,
		AirdropLamports:       common.MustSOLToLamports("1"),
	}
}

type fixture struct {
	fleet  *fleet.Fleet
	store  *countingStore
	ledger *ledgerstub.Ledger
}

func newFixture(t *testing.T, cfg fleet.Config, opts ...fleet.Option) *fixture {
	t.Helper()
	store := &countingStore{inner: newWalletStore(t, memory.NewStore())}
	ledger := ledgerstub.New(cfg.FeeLamports)
	opts = append([]fleet.Option{fleet.WithLogger(zaptest.NewLogger(t))}, opts...)
	f := fleet.New(store, newDerivation(t), map[model.Network]fleet.Ledger{
		model.NetworkDevnet:  ledger,
		model.NetworkMainnet: ledger,
	}, cfg, opts...)
	t.Cleanup(f.Close)
	return &fixture{fleet: f, store: store, ledger: ledger}
}

func generatePhrases(t *testing.T, n int) []string {
	t.Helper()
	d := newDerivation(t)
	out := make([]string, n)
	for i := range out {
		phrase, kp, err := d.Generate()
		require.NoError(t, err)
		kp.Wipe()
		out[i] = phrase
	}
	return out
}

func addresses(wallets []model.Wallet) []string {
	out := make([]string, len(wallets))
	for i, w := range wallets {
		out[i] = w.Address
	}
	return out
}

func pubkey(t *testing.T, f *fleet.Fleet, n model.Network, id int) solana.PublicKey {
	t.Helper()
	s, err := f.Signer(n, id)
	require.NoError(t, err)
	return s.PublicKey()
}

func TestBootstrap_DevnetGeneratesAndPersists(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, testConfig())

	require.NoError(t, fx.fleet.Bootstrap(ctx, model.NetworkDevnet))

	wallets := fx.fleet.List(model.NetworkDevnet)
	require.Len(t, wallets, model.WalletCount)
	for i, w := range wallets {
		assert.Equal(t, i+1, w.ID)
		assert.Equal(t, model.NetworkDevnet, w.Network)
		assert.NotEmpty(t, w.Address)
	}
	assert.Equal(t, int32(1), fx.store.saves.Load())

	mapping, err := fx.store.Load(ctx, model.NetworkDevnet)
	require.NoError(t, err)
	require.True(t, mapping.Complete())
	for _, w := range wallets {
		assert.Equal(t, w.Address, mapping[w.ID].Address)
	}

	// A second process over the same store sees the same wallets.
	again := fleet.New(fx.store, newDerivation(t), nil, testConfig())
	require.NoError(t, again.Bootstrap(ctx, model.NetworkDevnet))
	assert.Equal(t, addresses(wallets), addresses(again.List(model.NetworkDevnet)))
	assert.Equal(t, int32(1), fx.store.saves.Load(), "complete mapping must not be re-saved")
}

func TestBootstrap_MainnetNeverGenerates(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, testConfig())

	require.NoError(t, fx.fleet.Bootstrap(ctx, model.NetworkMainnet))

	assert.Empty(t, fx.fleet.List(model.NetworkMainnet))
	assert.False(t, fx.fleet.Configured(model.NetworkMainnet))
	assert.Zero(t, fx.store.saves.Load())

	_, err := fx.fleet.Get(model.NetworkMainnet, 1)
	assert.ErrorIs(t, err, fleet.ErrNotConfigured)

	_, err = fx.fleet.RefreshBalances(ctx, model.NetworkMainnet)
	assert.ErrorIs(t, err, fleet.ErrNotConfigured)
}

func TestBootstrap_MainnetPartialStaysUnconfigured(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, testConfig())

	d := newDerivation(t)
	partial := model.WalletMapping{}
	for i, phrase := range generatePhrases(t, 3) {
		kp, err := d.Derive(phrase)
		require.NoError(t, err)
		partial[i+1] = model.WalletRecord{ID: i + 1, Mnemonic: phrase, Address: kp.Address()}
	}
	require.NoError(t, fx.store.inner.Save(ctx, model.NetworkMainnet, partial))

	require.NoError(t, fx.fleet.Bootstrap(ctx, model.NetworkMainnet))
	assert.Empty(t, fx.fleet.List(model.NetworkMainnet))
	assert.Zero(t, fx.store.saves.Load())
}

func TestBootstrap_DevnetSaveFailureLeavesFleetEmpty(t *testing.T) {
	fx := newFixture(t, testConfig())
	fx.store.saveErr = errors.New("disk full")

	err := fx.fleet.Bootstrap(context.Background(), model.NetworkDevnet)
	require.ErrorIs(t, err, fleet.ErrStorageFailure)

	assert.Empty(t, fx.fleet.List(model.NetworkDevnet))
	assert.False(t, fx.fleet.Configured(model.NetworkDevnet))
	_, err = fx.fleet.Signer(model.NetworkDevnet, 1)
	assert.ErrorIs(t, err, fleet.ErrNotConfigured)
}

func TestBootstrap_DevnetPartialFillsOnlyMissing(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, testConfig())

	d := newDerivation(t)
	partial := model.WalletMapping{}
	kept := map[int]string{}
	for i, phrase := range generatePhrases(t, 2) {
		kp, err := d.Derive(phrase)
		require.NoError(t, err)
		partial[i+1] = model.WalletRecord{ID: i + 1, Mnemonic: phrase, Address: kp.Address()}
		kept[i+1] = kp.Address()
	}
	require.NoError(t, fx.store.inner.Save(ctx, model.NetworkDevnet, partial))

	require.NoError(t, fx.fleet.Bootstrap(ctx, model.NetworkDevnet))

	wallets := fx.fleet.List(model.NetworkDevnet)
	require.Len(t, wallets, model.WalletCount)
	assert.Equal(t, kept[1], wallets[0].Address)
	assert.Equal(t, kept[2], wallets[1].Address)

	mapping, err := fx.store.Load(ctx, model.NetworkDevnet)
	require.NoError(t, err)
	assert.True(t, mapping.Complete())
}

func TestBootstrap_WrongPassphraseIsFatal(t *testing.T) {
	ctx := context.Background()
	docs := memory.NewStore()
	require.NoError(t, newWalletStore(t, docs).Save(ctx, model.NetworkDevnet, model.WalletMapping{
		1: {ID: 1, Mnemonic: generatePhrases(t, 1)[0]},
	}))

	other, err := crypto.NewSealer([]byte("another-passphrase"), testParams)
	require.NoError(t, err)
	store := &countingStore{inner: storage.NewWalletStore(docs, other)}
	f := fleet.New(store, newDerivation(t), nil, testConfig())

	err = f.Bootstrap(ctx, model.NetworkDevnet)
	assert.ErrorIs(t, err, crypto.ErrInvalidPassword)
	assert.Zero(t, store.saves.Load(), "existing wallets must not be overwritten")
}

func TestBootstrap_DevnetUsesConfiguredMnemonics(t *testing.T) {
	phrases := generatePhrases(t, model.WalletCount)
	fx := newFixture(t, testConfig(), fleet.WithImportedMnemonics(model.NetworkDevnet, phrases))

	require.NoError(t, fx.fleet.Bootstrap(context.Background(), model.NetworkDevnet))

	d := newDerivation(t)
	for i, w := range fx.fleet.List(model.NetworkDevnet) {
		kp, err := d.Derive(phrases[i])
		require.NoError(t, err)
		assert.Equal(t, kp.Address(), w.Address)
	}
}

func TestBootstrap_InvalidConfiguredMnemonicsFallBackToGeneration(t *testing.T) {
	phrases := append(generatePhrases(t, 4), "not a real phrase")
	fx := newFixture(t, testConfig(), fleet.WithImportedMnemonics(model.NetworkDevnet, phrases))

	require.NoError(t, fx.fleet.Bootstrap(context.Background(), model.NetworkDevnet))
	assert.Len(t, fx.fleet.List(model.NetworkDevnet), model.WalletCount)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, testConfig())

	err := fx.fleet.Import(ctx, model.NetworkMainnet, generatePhrases(t, 4))
	assert.ErrorIs(t, err, fleet.ErrInvalidImport)

	dup := generatePhrases(t, 4)
	err = fx.fleet.Import(ctx, model.NetworkMainnet, append(dup, dup[0]))
	assert.ErrorIs(t, err, fleet.ErrInvalidImport)

	require.NoError(t, fx.fleet.Import(ctx, model.NetworkMainnet, generatePhrases(t, model.WalletCount)))
	assert.True(t, fx.fleet.Configured(model.NetworkMainnet))
	assert.Equal(t, []model.Network{model.NetworkMainnet}, fx.fleet.ConfiguredNetworks())

	err = fx.fleet.Import(ctx, model.NetworkMainnet, generatePhrases(t, model.WalletCount))
	assert.ErrorIs(t, err, fleet.ErrAlreadyConfigured)

	// Survives a restart.
	again := fleet.New(fx.store, newDerivation(t), nil, testConfig())
	require.NoError(t, again.Bootstrap(ctx, model.NetworkMainnet))
	assert.Equal(t, addresses(fx.fleet.List(model.NetworkMainnet)), addresses(again.List(model.NetworkMainnet)))
}

func TestBackup(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, testConfig())

	_, err := fx.fleet.Backup(ctx, model.NetworkMainnet)
	assert.ErrorIs(t, err, fleet.ErrNotConfigured)

	require.NoError(t, fx.fleet.Bootstrap(ctx, model.NetworkDevnet))
	backups, err := fx.fleet.Backup(ctx, model.NetworkDevnet)
	require.NoError(t, err)
	require.Len(t, backups, model.WalletCount)

	d := newDerivation(t)
	for i, b := range backups {
		assert.Equal(t, i+1, b.ID)
		kp, err := d.Derive(b.Mnemonic)
		require.NoError(t, err)
		assert.Equal(t, kp.Address(), b.Address)
		assert.Equal(t, kp.SecretKeyBase58(), b.SecretKeyBase58)
	}
}

func TestRefreshBalances_IsolatesFailures(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, testConfig(), fleet.WithClock(func() time.Time {
		return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, fx.fleet.Bootstrap(ctx, model.NetworkDevnet))

	for id := 1; id <= model.WalletCount; id++ {
		fx.ledger.SetBalance(pubkey(t, fx.fleet, model.NetworkDevnet, id), uint64(id)*1_000_000)
	}
	fx.ledger.FailBalance(pubkey(t, fx.fleet, model.NetworkDevnet, 2), errors.New("rpc timeout"))

	wallets, err := fx.fleet.RefreshBalances(ctx, model.NetworkDevnet)
	require.NoError(t, err)
	require.Len(t, wallets, model.WalletCount)

	for _, w := range wallets {
		assert.Equal(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), w.RefreshedAt)
		if w.ID == 2 {
			assert.False(t, w.BalanceKnown)
			assert.Zero(t, w.BalanceLamports)
			assert.Contains(t, w.RefreshError, "rpc timeout")
			continue
		}
		assert.True(t, w.BalanceKnown)
		assert.Equal(t, uint64(w.ID)*1_000_000, w.BalanceLamports)
	}

	got, err := fx.fleet.Get(model.NetworkDevnet, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3_000_000), got.BalanceLamports)

	_, err = fx.fleet.Get(model.NetworkDevnet, 6)
	assert.ErrorIs(t, err, fleet.ErrWalletNotFound)
}

func TestTransfer_ProtectsReserve(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.FeeLamports = 5000
	fx := newFixture(t, cfg)
	require.NoError(t, fx.fleet.Bootstrap(ctx, model.NetworkDevnet))

	primary := pubkey(t, fx.fleet, model.NetworkDevnet, 1)
	fx.ledger.SetBalance(primary, common.MustSOLToLamports("0.1"))

	tests := []struct {
		name     string
		lamports uint64
		wantErr  error
	}{
		{name: "would cross reserve", lamports: common.MustSOLToLamports("0.05"), wantErr: fleet.ErrReserveViolation},
		{name: "exactly to reserve", lamports: common.MustSOLToLamports("0.05") - 5000},
		{name: "nothing left above reserve", lamports: 1, wantErr: fleet.ErrReserveViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.fleet.Transfer(ctx, model.NetworkDevnet, 1, 2, tt.lamports)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}

	bal, err := fx.fleet.Balance(ctx, model.NetworkDevnet, 1)
	require.NoError(t, err)
	assert.Equal(t, cfg.ReserveLamports, bal)

	_, err = fx.fleet.Transfer(ctx, model.NetworkDevnet, 3, 3, 1)
	assert.ErrorIs(t, err, fleet.ErrInvalidTransfer)

	_, err = fx.fleet.Transfer(ctx, model.NetworkDevnet, 3, 4, 1)
	assert.ErrorIs(t, err, fleet.ErrInsufficientFunds)
}

func TestTransfer_LedgerFailureIsTransferError(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, testConfig())
	require.NoError(t, fx.fleet.Bootstrap(ctx, model.NetworkDevnet))

	fx.ledger.SetBalance(pubkey(t, fx.fleet, model.NetworkDevnet, 1), common.MustSOLToLamports("1"))
	fx.ledger.FailTransfersTo(pubkey(t, fx.fleet, model.NetworkDevnet, 2), errors.New("blockhash not found"))

	_, err := fx.fleet.Transfer(ctx, model.NetworkDevnet, 1, 2, 1000)
	require.ErrorIs(t, err, fleet.ErrTransferFailed)
	assert.ErrorIs(t, err, fleet.ErrLedgerUnavailable)

	var terr *fleet.TransferError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 2, terr.WalletID)
	assert.False(t, terr.Unconfirmed())
}

func TestTransfer_UnconfirmedKeepsSignature(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, testConfig())
	require.NoError(t, fx.fleet.Bootstrap(ctx, model.NetworkDevnet))

	fx.ledger.SetBalance(pubkey(t, fx.fleet, model.NetworkDevnet, 1), common.MustSOLToLamports("1"))
	fx.ledger.UnconfirmTransfersTo(pubkey(t, fx.fleet, model.NetworkDevnet, 2), client.ErrConfirmationTimeout)

	sig, err := fx.fleet.Transfer(ctx, model.NetworkDevnet, 1, 2, 1000)
	require.ErrorIs(t, err, fleet.ErrTransferFailed)
	assert.ErrorIs(t, err, fleet.ErrLedgerUnavailable)
	assert.NotEqual(t, solana.Signature{}, sig)

	var terr *fleet.TransferError
	require.ErrorAs(t, err, &terr)
	assert.True(t, terr.Unconfirmed())
	assert.Equal(t, sig, terr.Signature)
}

func TestRequestAirdrop(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	fx := newFixture(t, cfg)
	require.NoError(t, fx.fleet.Bootstrap(ctx, model.NetworkDevnet))

	_, err := fx.fleet.RequestAirdrop(ctx, model.NetworkDevnet, 2)
	require.NoError(t, err)

	bal, err := fx.fleet.Balance(ctx, model.NetworkDevnet, 2)
	require.NoError(t, err)
	assert.Equal(t, cfg.AirdropLamports, bal)

	_, err = fx.fleet.RequestAirdrop(ctx, model.NetworkMainnet, 1)
	assert.ErrorIs(t, err, fleet.ErrAirdropUnavailable)
}
