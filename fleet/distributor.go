package fleet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlexZinkM/launchpad-bot/internal/common"
	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/observability"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Wallets is the part of the fleet the distributor drives.
type Wallets interface {
	RefreshBalances(ctx context.Context, network model.Network) ([]model.Wallet, error)
	Transfer(ctx context.Context, network model.Network, from, to int, lamports uint64) (solana.Signature, error)
}

// Distributor splits the primary wallet's balance above the reserve equally
// between the other four wallets.
type Distributor struct {
	wallets Wallets
	cfg     Config
	log     *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time

	mu      sync.Mutex
	running map[model.Network]bool
}

// NewDistributor creates a Distributor. log and metrics may be nil.
func NewDistributor(wallets Wallets, cfg Config, log *zap.Logger, metrics *observability.Metrics) *Distributor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Distributor{
		wallets: wallets,
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		now:     time.Now,
		running: make(map[model.Network]bool),
	}
}

// Plan returns the amount each recipient would get from a primary balance.
// The reserve plus one fee per transfer is held back.
func (d *Distributor) Plan(primaryLamports uint64) (uint64, error) {
	recipients := uint64(model.WalletCount - 1)
	held := d.cfg.ReserveLamports + recipients*d.cfg.FeeLamports
	if primaryLamports <= held {
		return 0, fmt.Errorf("%w: balance %s SOL, reserve %s SOL",
			ErrInsufficientReserve, common.FormatSOL(primaryLamports), common.FormatSOL(d.cfg.ReserveLamports))
	}

	per := (primaryLamports - held) / recipients
	if per < d.cfg.DustThresholdLamports {
		return 0, fmt.Errorf("%w: %s SOL per wallet, minimum %s SOL",
			ErrAmountTooSmall, common.FormatSOL(per), common.FormatSOL(d.cfg.DustThresholdLamports))
	}
	return per, nil
}

// Run refreshes balances, sends the planned amount to wallets 2 to 5 one at
// a time and refreshes again. A failed transfer is recorded against its
// wallet and the remaining transfers still run. A transfer that was sent
// but not confirmed is marked Unconfirmed until the final refresh shows
// the funds arrived. Precondition failures
// return an error before any transfer is attempted.
//
// Run does not serialize callers; use TryRun to keep one run per network.
func (d *Distributor) Run(ctx context.Context, network model.Network) (*model.DistributionResult, error) {
	log := d.log.With(zap.String("network", network.String()))
	startedAt := d.now().UTC()

	wallets, err := d.wallets.RefreshBalances(ctx, network)
	if err != nil {
		d.metrics.ObserveDistribution(network.String(), "rejected")
		return nil, err
	}
	primary, ok := findWallet(wallets, model.PrimaryWalletID)
	if !ok {
		d.metrics.ObserveDistribution(network.String(), "rejected")
		return nil, fmt.Errorf("%w: %s wallet %d", ErrWalletNotFound, network, model.PrimaryWalletID)
	}
	if !primary.BalanceKnown {
		d.metrics.ObserveDistribution(network.String(), "rejected")
		return nil, fmt.Errorf("%w: primary wallet balance unknown: %s", ErrLedgerUnavailable, primary.RefreshError)
	}

	per, err := d.Plan(primary.BalanceLamports)
	if err != nil {
		d.metrics.ObserveDistribution(network.String(), "rejected")
		return nil, err
	}

	log.Info("starting distribution",
		zap.Uint64("primary_lamports", primary.BalanceLamports),
		zap.Uint64("reserve_lamports", d.cfg.ReserveLamports),
		zap.Uint64("per_wallet_lamports", per))

	res := &model.DistributionResult{
		Network:                 network,
		ReserveLamports:         d.cfg.ReserveLamports,
		AmountPerWalletLamports: per,
		Results:                 make([]model.TransferResult, 0, model.WalletCount-1),
		StartedAt:               startedAt,
	}

	for id := model.PrimaryWalletID + 1; id <= model.WalletCount; id++ {
		entry := model.TransferResult{WalletID: id, AmountLamports: per}
		if w, ok := findWallet(wallets, id); ok {
			entry.Address = w.Address
		}

		sig, err := d.wallets.Transfer(ctx, network, model.PrimaryWalletID, id, per)
		if err != nil {
			var terr *TransferError
			if !errors.As(err, &terr) {
				terr = &TransferError{WalletID: id, Err: err}
			}
			entry.Error = terr.Error()
			if terr.Unconfirmed() {
				entry.Unconfirmed = true
				entry.Signature = terr.Signature.String()
			}
			log.Warn("distribution transfer failed",
				zap.Int("wallet_id", id),
				zap.Bool("unconfirmed", entry.Unconfirmed),
				zap.Error(err))
		} else {
			entry.Success = true
			entry.Signature = sig.String()
			res.SuccessfulTransfers++
			res.TotalDistributedLamports += per
		}
		res.Results = append(res.Results, entry)
	}

	final, err := d.wallets.RefreshBalances(ctx, network)
	if err != nil {
		log.Warn("failed to refresh balances after distribution", zap.Error(err))
	} else {
		if w, ok := findWallet(final, model.PrimaryWalletID); ok {
			res.FinalWallet1Lamports = w.BalanceLamports
		}
		for i := range res.Results {
			r := &res.Results[i]
			w, ok := findWallet(final, r.WalletID)
			if !ok {
				continue
			}
			r.NewBalanceLamports = w.BalanceLamports
			if r.Unconfirmed && landed(wallets, w, per) {
				log.Info("unconfirmed transfer landed", zap.Int("wallet_id", r.WalletID), zap.String("signature", r.Signature))
				r.Success = true
				r.Unconfirmed = false
				r.Error = ""
				res.SuccessfulTransfers++
				res.TotalDistributedLamports += per
			}
		}
	}
	res.FinishedAt = d.now().UTC()

	outcome := "success"
	switch res.SuccessfulTransfers {
	case 0:
		outcome = "failed"
	case model.WalletCount - 1:
	default:
		outcome = "partial"
	}
	d.metrics.ObserveDistribution(network.String(), outcome)

	log.Info("distribution finished",
		zap.Int("successful", res.SuccessfulTransfers),
		zap.Uint64("distributed_lamports", res.TotalDistributedLamports),
		zap.Uint64("final_primary_lamports", res.FinalWallet1Lamports))
	return res, nil
}

// TryRun is Run guarded so that only one distribution per network is in
// flight. A concurrent call for the same network returns ErrDistributionInProgress.
func (d *Distributor) TryRun(ctx context.Context, network model.Network) (*model.DistributionResult, error) {
	d.mu.Lock()
	if d.running[network] {
		d.mu.Unlock()
		return nil, ErrDistributionInProgress
	}
	d.running[network] = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.running, network)
		d.mu.Unlock()
	}()

	return d.Run(ctx, network)
}

// landed reports whether after grew by at least amount over its balance in before.
func landed(before []model.Wallet, after model.Wallet, amount uint64) bool {
	prev, ok := findWallet(before, after.ID)
	if !ok || !prev.BalanceKnown || !after.BalanceKnown {
		return false
	}
	return after.BalanceLamports >= prev.BalanceLamports+amount
}

func findWallet(wallets []model.Wallet, id int) (model.Wallet, bool) {
	for _, w := range wallets {
		if w.ID == id {
			return w, true
		}
	}
	return model.Wallet{}, false
}
