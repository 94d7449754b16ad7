// Package fleet manages the fixed set of custodial wallets per network and
// the reserve-protected distribution of SOL between them.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlexZinkM/launchpad-bot/internal/crypto"
	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/observability"
	"github.com/AlexZinkM/launchpad-bot/internal/storage"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=../internal/mocks/ledger_mock.go -package=mocks github.com/AlexZinkM/launchpad-bot/fleet Ledger

// Ledger is the remote chain as seen by the fleet. Transfer returns only
// after the transaction is confirmed. A non-zero signature returned with an
// error means the transaction was sent but its confirmation was not seen.
type Ledger interface {
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)
	Transfer(ctx context.Context, from crypto.Signer, to solana.PublicKey, lamports uint64) (solana.Signature, error)
	RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error)
}

// WalletStore persists whole per-network wallet mappings.
// Load returns storage.ErrNotFound when nothing was saved.
type WalletStore interface {
	Load(ctx context.Context, network model.Network) (model.WalletMapping, error)
	Save(ctx context.Context, network model.Network, mapping model.WalletMapping) error
}

// Config holds the amounts the fleet and distributor enforce, in lamports.
type Config struct {
	ReserveLamports       uint64
	DustThresholdLamports uint64
	FeeLamports           uint64
	AirdropLamports       uint64
}

type slot struct {
	wallet  model.Wallet
	keypair *crypto.Keypair
}

type networkState struct {
	mu    sync.RWMutex
	slots map[int]*slot
}

// Fleet is the live registry of wallets for every network.
// Ledger I/O is never performed while holding a lock.
type Fleet struct {
	store      WalletStore
	derivation *crypto.Derivation
	ledgers    map[model.Network]Ledger
	cfg        Config

	log      *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
	imported map[model.Network][]string

	networks map[model.Network]*networkState
}

// Option configures a Fleet.
type Option func(*Fleet)

// WithLogger sets the fleet logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fleet) { f.log = l }
}

// WithMetrics publishes balances and transfer outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(f *Fleet) { f.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Fleet) { f.now = now }
}

// WithImportedMnemonics seeds an absent network from operator-provided
// phrases instead of generating new ones. Mainnet is never seeded this way.
func WithImportedMnemonics(network model.Network, mnemonics []string) Option {
	return func(f *Fleet) {
		if len(mnemonics) > 0 {
			f.imported[network] = mnemonics
		}
	}
}

// New creates an empty fleet. Call Bootstrap for each network before use.
func New(store WalletStore, derivation *crypto.Derivation, ledgers map[model.Network]Ledger, cfg Config, opts ...Option) *Fleet {
	f := &Fleet{
		store:      store,
		derivation: derivation,
		ledgers:    ledgers,
		cfg:        cfg,
		log:        zap.NewNop(),
		now:        time.Now,
		imported:   make(map[model.Network][]string),
		networks:   make(map[model.Network]*networkState),
	}
	for _, n := range model.Networks() {
		f.networks[n] = &networkState{slots: make(map[int]*slot)}
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Config returns the enforced amounts.
func (f *Fleet) Config() Config {
	return f.cfg
}

// Bootstrap loads the network's wallets from the store.
//
// A complete stored mapping is always re-derived, never regenerated. An
// absent mainnet mapping leaves mainnet unconfigured. On devnet missing
// wallets are generated (or imported) and persisted before they become
// visible; a failed save leaves the network empty and returns ErrStorageFailure.
func (f *Fleet) Bootstrap(ctx context.Context, network model.Network) error {
	state, err := f.state(network)
	if err != nil {
		return err
	}
	log := f.log.With(zap.String("network", network.String()))

	mapping, err := f.store.Load(ctx, network)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		mapping = nil
	case errors.Is(err, crypto.ErrInvalidPassword):
		return fmt.Errorf("failed to open %s wallets: %w", network, err)
	default:
		log.Warn("failed to load wallet mapping, treating as absent", zap.Error(err))
		mapping = nil
	}

	if network == model.NetworkMainnet {
		slots, err := f.deriveMapping(network, mapping)
		if err != nil || len(slots) != model.WalletCount {
			wipeSlots(slots)
			if len(mapping) > 0 {
				log.Error("stored mainnet wallets are incomplete or invalid, leaving mainnet unconfigured",
					zap.Int("stored", len(mapping)), zap.Error(err))
			} else {
				log.Warn("mainnet wallets not configured, manual configuration required")
			}
			f.install(state, nil)
			return nil
		}
		f.install(state, slots)
		log.Info("wallets loaded", zap.Int("count", len(slots)))
		return nil
	}

	slots, err := f.deriveMapping(network, mapping)
	if err != nil {
		return err
	}
	if len(slots) == model.WalletCount {
		f.install(state, slots)
		log.Info("wallets loaded", zap.Int("count", len(slots)))
		return nil
	}

	next := make(model.WalletMapping, model.WalletCount)
	for id, rec := range mapping {
		next[id] = rec
	}
	created, err := f.fillMissing(network, next, slots)
	if err != nil {
		wipeSlots(slots)
		return err
	}

	if err := f.store.Save(ctx, network, next); err != nil {
		wipeSlots(slots)
		f.install(state, nil)
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	f.install(state, slots)
	log.Info("wallets created and persisted", zap.Int("created", created), zap.Int("count", len(slots)))
	return nil
}

// deriveMapping derives a keypair for every record and checks it against the
// stored address.
func (f *Fleet) deriveMapping(network model.Network, mapping model.WalletMapping) (map[int]*slot, error) {
	slots := make(map[int]*slot, model.WalletCount)
	for id, rec := range mapping {
		if id < 1 || id > model.WalletCount {
			wipeSlots(slots)
			return nil, fmt.Errorf("stored %s wallet has invalid id %d", network, id)
		}
		kp, err := f.derivation.Derive(rec.Mnemonic)
		if err != nil {
			wipeSlots(slots)
			return nil, fmt.Errorf("failed to derive %s wallet %d: %w", network, id, err)
		}
		if rec.Address != "" && rec.Address != kp.Address() {
			kp.Wipe()
			wipeSlots(slots)
			return nil, fmt.Errorf("stored %s wallet %d address %s does not match derivation path %s",
				network, id, rec.Address, f.derivation.Path())
		}
		slots[id] = &slot{
			wallet:  model.Wallet{ID: id, Network: network, Address: kp.Address()},
			keypair: kp,
		}
	}
	return slots, nil
}

// fillMissing adds records and slots for every absent id. Imported phrases
// are used only when the whole mapping is absent.
func (f *Fleet) fillMissing(network model.Network, mapping model.WalletMapping, slots map[int]*slot) (int, error) {
	imported := f.importedKeys(network, len(mapping) == 0)
	created := 0
	for id := 1; id <= model.WalletCount; id++ {
		if _, ok := slots[id]; ok {
			continue
		}

		var (
			phrase string
			kp     *crypto.Keypair
			err    error
		)
		if imported != nil {
			phrase, kp = imported[id-1].phrase, imported[id-1].keypair
		} else {
			phrase, kp, err = f.derivation.Generate()
			if err != nil {
				return created, fmt.Errorf("failed to generate %s wallet %d: %w", network, id, err)
			}
		}

		mapping[id] = model.WalletRecord{ID: id, Mnemonic: phrase, Address: kp.Address(), CreatedAt: f.now().UTC()}
		slots[id] = &slot{
			wallet:  model.Wallet{ID: id, Network: network, Address: kp.Address()},
			keypair: kp,
		}
		created++
	}
	return created, nil
}

type derivedKey struct {
	phrase  string
	keypair *crypto.Keypair
}

func (f *Fleet) importedKeys(network model.Network, absent bool) []derivedKey {
	phrases := f.imported[network]
	if !absent || len(phrases) == 0 || network == model.NetworkMainnet {
		return nil
	}
	keys, err := f.deriveAll(phrases)
	if err != nil {
		f.log.Warn("ignoring configured mnemonics, generating new wallets",
			zap.String("network", network.String()), zap.Error(err))
		return nil
	}
	return keys
}

func (f *Fleet) deriveAll(phrases []string) ([]derivedKey, error) {
	if len(phrases) != model.WalletCount {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidImport, len(phrases))
	}
	keys := make([]derivedKey, 0, len(phrases))
	seen := make(map[string]bool, len(phrases))
	for i, p := range phrases {
		kp, err := f.derivation.Derive(p)
		if err != nil {
			return nil, fmt.Errorf("%w: phrase %d: %v", ErrInvalidImport, i+1, err)
		}
		if seen[kp.Address()] {
			return nil, fmt.Errorf("%w: phrase %d duplicates another wallet", ErrInvalidImport, i+1)
		}
		seen[kp.Address()] = true
		keys = append(keys, derivedKey{phrase: crypto.NormalizeMnemonic(p), keypair: kp})
	}
	return keys, nil
}

// Import configures a network from exactly five operator-supplied mnemonics.
// It refuses to replace wallets that are already stored.
func (f *Fleet) Import(ctx context.Context, network model.Network, mnemonics []string) error {
	state, err := f.state(network)
	if err != nil {
		return err
	}

	existing, err := f.store.Load(ctx, network)
	switch {
	case err == nil && len(existing) > 0:
		return fmt.Errorf("%w: %s", ErrAlreadyConfigured, network)
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("failed to check existing %s wallets: %w", network, err)
	}

	keys, err := f.deriveAll(mnemonics)
	if err != nil {
		return err
	}

	mapping := make(model.WalletMapping, model.WalletCount)
	slots := make(map[int]*slot, model.WalletCount)
	for i, k := range keys {
		id := i + 1
		mapping[id] = model.WalletRecord{ID: id, Mnemonic: k.phrase, Address: k.keypair.Address(), CreatedAt: f.now().UTC()}
		slots[id] = &slot{
			wallet:  model.Wallet{ID: id, Network: network, Address: k.keypair.Address()},
			keypair: k.keypair,
		}
	}

	if err := f.store.Save(ctx, network, mapping); err != nil {
		wipeSlots(slots)
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	f.install(state, slots)
	f.log.Info("wallets imported", zap.String("network", network.String()))
	return nil
}

// Backup returns the stored credentials of every wallet on network.
func (f *Fleet) Backup(ctx context.Context, network model.Network) ([]model.WalletBackup, error) {
	if _, err := f.state(network); err != nil {
		return nil, err
	}
	mapping, err := f.store.Load(ctx, network)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotConfigured, network)
		}
		return nil, fmt.Errorf("failed to load %s wallets: %w", network, err)
	}

	out := make([]model.WalletBackup, 0, len(mapping))
	for id := 1; id <= model.WalletCount; id++ {
		rec, ok := mapping[id]
		if !ok {
			continue
		}
		kp, err := f.derivation.Derive(rec.Mnemonic)
		if err != nil {
			return nil, fmt.Errorf("failed to derive %s wallet %d: %w", network, id, err)
		}
		out = append(out, model.WalletBackup{
			ID:              id,
			Address:         kp.Address(),
			Mnemonic:        rec.Mnemonic,
			SecretKeyBase58: kp.SecretKeyBase58(),
		})
		kp.Wipe()
	}
	return out, nil
}

func wipeSlots(slots map[int]*slot) {
	for _, s := range slots {
		s.keypair.Wipe()
	}
}

func (f *Fleet) install(state *networkState, slots map[int]*slot) {
	if slots == nil {
		slots = make(map[int]*slot)
	}
	state.mu.Lock()
	state.slots = slots
	state.mu.Unlock()
}

func (f *Fleet) state(network model.Network) (*networkState, error) {
	state, ok := f.networks[network]
	if !ok {
		return nil, fmt.Errorf("unknown network %q", network)
	}
	return state, nil
}

// Configured reports whether network has its wallets loaded.
func (f *Fleet) Configured(network model.Network) bool {
	state, err := f.state(network)
	if err != nil {
		return false
	}
	state.mu.RLock()
	defer state.mu.RUnlock()
	return len(state.slots) == model.WalletCount
}

// ConfiguredNetworks lists networks with loaded wallets.
func (f *Fleet) ConfiguredNetworks() []model.Network {
	var out []model.Network
	for _, n := range model.Networks() {
		if f.Configured(n) {
			out = append(out, n)
		}
	}
	return out
}

// List returns the network's wallets ordered by id. It is empty when the
// network is not configured.
func (f *Fleet) List(network model.Network) []model.Wallet {
	state, err := f.state(network)
	if err != nil {
		return nil
	}
	state.mu.RLock()
	defer state.mu.RUnlock()

	out := make([]model.Wallet, 0, len(state.slots))
	for id := 1; id <= model.WalletCount; id++ {
		if s, ok := state.slots[id]; ok {
			out = append(out, s.wallet)
		}
	}
	return out
}

// Get returns one wallet.
func (f *Fleet) Get(network model.Network, id int) (model.Wallet, error) {
	s, err := f.slot(network, id)
	if err != nil {
		return model.Wallet{}, err
	}
	return s.wallet, nil
}

// Signer returns the signing capability of one wallet.
func (f *Fleet) Signer(network model.Network, id int) (crypto.Signer, error) {
	s, err := f.slot(network, id)
	if err != nil {
		return nil, err
	}
	return s.keypair, nil
}

// slot returns a copy of the slot so the caller can use it without the lock.
func (f *Fleet) slot(network model.Network, id int) (slot, error) {
	state, err := f.state(network)
	if err != nil {
		return slot{}, err
	}
	state.mu.RLock()
	defer state.mu.RUnlock()

	if len(state.slots) == 0 {
		return slot{}, fmt.Errorf("%w: %s", ErrNotConfigured, network)
	}
	s, ok := state.slots[id]
	if !ok {
		return slot{}, fmt.Errorf("%w: %s wallet %d", ErrWalletNotFound, network, id)
	}
	return *s, nil
}

func (f *Fleet) ledger(network model.Network) (Ledger, error) {
	l, ok := f.ledgers[network]
	if !ok || l == nil {
		return nil, fmt.Errorf("%w: no RPC client for %s", ErrLedgerUnavailable, network)
	}
	return l, nil
}

type balanceResult struct {
	id       int
	lamports uint64
	err      error
}

// RefreshBalances queries every wallet's balance concurrently and updates
// the cache. A wallet whose query fails is marked unknown with a zero
// balance; the others are still updated.
func (f *Fleet) RefreshBalances(ctx context.Context, network model.Network) ([]model.Wallet, error) {
	state, err := f.state(network)
	if err != nil {
		return nil, err
	}
	ledger, err := f.ledger(network)
	if err != nil {
		return nil, err
	}

	state.mu.RLock()
	targets := make(map[int]solana.PublicKey, len(state.slots))
	for id, s := range state.slots {
		targets[id] = s.keypair.PublicKey()
	}
	state.mu.RUnlock()

	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, network)
	}

	results := make(chan balanceResult, len(targets))
	var wg sync.WaitGroup
	for id, pk := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lamports, err := ledger.Balance(ctx, pk)
			results <- balanceResult{id: id, lamports: lamports, err: err}
		}()
	}
	wg.Wait()
	close(results)

	now := f.now().UTC()
	state.mu.Lock()
	for r := range results {
		s, ok := state.slots[r.id]
		if !ok || !s.keypair.PublicKey().Equals(targets[r.id]) {
			// replaced by a concurrent Bootstrap
			continue
		}
		s.wallet.RefreshedAt = now
		if r.err != nil {
			s.wallet.BalanceLamports = 0
			s.wallet.BalanceKnown = false
			s.wallet.RefreshError = fmt.Errorf("%w: %v", ErrLedgerUnavailable, r.err).Error()
			f.log.Warn("failed to refresh wallet balance",
				zap.String("network", network.String()),
				zap.Int("wallet_id", r.id),
				zap.Error(r.err))
		} else {
			s.wallet.BalanceLamports = r.lamports
			s.wallet.BalanceKnown = true
			s.wallet.RefreshError = ""
		}
		f.metrics.ObserveBalance(network.String(), r.id, r.lamports, r.err == nil)
	}
	state.mu.Unlock()

	return f.List(network), nil
}

// Balance reads one wallet's balance straight from the ledger.
func (f *Fleet) Balance(ctx context.Context, network model.Network, id int) (uint64, error) {
	s, err := f.slot(network, id)
	if err != nil {
		return 0, err
	}
	ledger, err := f.ledger(network)
	if err != nil {
		return 0, err
	}
	lamports, err := ledger.Balance(ctx, s.keypair.PublicKey())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return lamports, nil
}

// Transfer moves lamports between two fleet wallets after re-reading the
// source balance. A transfer out of the primary wallet is refused if it
// would leave less than the reserve once the fee is paid. Ledger failures
// are returned as *TransferError, together with the signature when the
// transaction was already sent.
func (f *Fleet) Transfer(ctx context.Context, network model.Network, from, to int, lamports uint64) (solana.Signature, error) {
	if from == to {
		return solana.Signature{}, fmt.Errorf("%w: source and destination are both wallet %d", ErrInvalidTransfer, from)
	}
	if lamports == 0 {
		return solana.Signature{}, fmt.Errorf("%w: amount must be positive", ErrInvalidTransfer)
	}

	src, err := f.slot(network, from)
	if err != nil {
		return solana.Signature{}, err
	}
	dst, err := f.slot(network, to)
	if err != nil {
		return solana.Signature{}, err
	}
	ledger, err := f.ledger(network)
	if err != nil {
		return solana.Signature{}, err
	}

	balance, err := ledger.Balance(ctx, src.keypair.PublicKey())
	if err != nil {
		return solana.Signature{}, &TransferError{WalletID: to, Err: fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)}
	}

	need := lamports + f.cfg.FeeLamports
	switch {
	case from == model.PrimaryWalletID && (balance < need || balance-need < f.cfg.ReserveLamports):
		return solana.Signature{}, fmt.Errorf("%w: balance %d, sending %d + fee %d, reserve %d",
			ErrReserveViolation, balance, lamports, f.cfg.FeeLamports, f.cfg.ReserveLamports)
	case balance < need:
		return solana.Signature{}, fmt.Errorf("%w: wallet %d has %d, needs %d", ErrInsufficientFunds, from, balance, need)
	}

	sig, err := ledger.Transfer(ctx, src.keypair, dst.keypair.PublicKey(), lamports)
	f.metrics.ObserveTransfer(network.String(), err == nil)
	if err != nil {
		terr := &TransferError{WalletID: to, Signature: sig, Err: fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)}
		if terr.Unconfirmed() {
			f.log.Warn("transfer sent but not confirmed",
				zap.String("network", network.String()),
				zap.Int("to", to),
				zap.String("signature", sig.String()),
				zap.Error(err))
		}
		return sig, terr
	}

	f.log.Info("transfer sent",
		zap.String("network", network.String()),
		zap.Int("from", from),
		zap.Int("to", to),
		zap.Uint64("lamports", lamports),
		zap.String("signature", sig.String()))
	return sig, nil
}

// RequestAirdrop asks the devnet faucet to fund one wallet.
func (f *Fleet) RequestAirdrop(ctx context.Context, network model.Network, id int) (solana.Signature, error) {
	if network != model.NetworkDevnet {
		return solana.Signature{}, ErrAirdropUnavailable
	}
	s, err := f.slot(network, id)
	if err != nil {
		return solana.Signature{}, err
	}
	ledger, err := f.ledger(network)
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := ledger.RequestAirdrop(ctx, s.keypair.PublicKey(), f.cfg.AirdropLamports)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: airdrop: %v", ErrLedgerUnavailable, err)
	}
	f.log.Info("airdrop confirmed",
		zap.Int("wallet_id", id),
		zap.Uint64("lamports", f.cfg.AirdropLamports),
		zap.String("signature", sig.String()))
	return sig, nil
}

// Close wipes every loaded private key.
func (f *Fleet) Close() {
	for _, state := range f.networks {
		state.mu.Lock()
		wipeSlots(state.slots)
		state.slots = make(map[int]*slot)
		state.mu.Unlock()
	}
}
