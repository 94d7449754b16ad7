// Package launch creates SPL tokens for finished wizard requests. Wallet 1
// of the chosen network pays for and receives the minted supply.
package launch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/launchpad-bot/internal/common"
	"github.com/AlexZinkM/launchpad-bot/internal/crypto"
	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/observability"
	"github.com/AlexZinkM/launchpad-bot/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxDecimals is used whenever the raw supply fits in a uint64.
const MaxDecimals = 9

var (
	ErrNoMinter       = errors.New("token creation is not available on this network")
	ErrLowBalance     = errors.New("wallet 1 balance is too low to create a token")
	ErrSupplyTooLarge = errors.New("supply does not fit the token program")
)

// Minter creates an SPL mint and mints the full supply to the payer.
type Minter interface {
	CreateMint(ctx context.Context, payer crypto.Signer, spec model.MintSpec) (*model.MintResult, error)
}

// Wallets exposes the paying wallet.
type Wallets interface {
	Signer(network model.Network, id int) (crypto.Signer, error)
	Balance(ctx context.Context, network model.Network, id int) (uint64, error)
}

type Config struct {
	MinBalanceLamports uint64
	LockDuration       time.Duration
}

// Launcher implements wizard.TokenCreator.
type Launcher struct {
	wallets Wallets
	minters map[model.Network]Minter
	tokens  storage.TokenStore
	cfg     Config
	log     *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
	newID   func() string
}

// Option configures a Launcher.
type Option func(*Launcher)

func WithLogger(l *zap.Logger) Option {
	return func(ln *Launcher) { ln.log = l }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(ln *Launcher) { ln.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(ln *Launcher) { ln.now = now }
}

// New creates a Launcher.
func New(wallets Wallets, minters map[model.Network]Minter, tokens storage.TokenStore, cfg Config, opts ...Option) *Launcher {
	l := &Launcher{
		wallets: wallets,
		minters: minters,
		tokens:  tokens,
		cfg:     cfg,
		log:     zap.NewNop(),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateToken mints the requested supply and records the launch.
// Once the mint exists on-chain the record is returned even if saving it fails.
func (l *Launcher) CreateToken(ctx context.Context, req model.TokenCreationRequest) (*model.TokenRecord, error) {
	minter, ok := l.minters[req.Network]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoMinter, req.Network)
	}

	decimals, amount, err := RawSupply(req.Supply)
	if err != nil {
		return nil, err
	}

	payer, err := l.wallets.Signer(req.Network, model.PrimaryWalletID)
	if err != nil {
		return nil, fmt.Errorf("failed to get paying wallet: %w", err)
	}
	balance, err := l.wallets.Balance(ctx, req.Network, model.PrimaryWalletID)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet 1 balance: %w", err)
	}
	if balance < l.cfg.MinBalanceLamports {
		return nil, fmt.Errorf("%w: have %s SOL, need %s SOL", ErrLowBalance,
			common.FormatSOL(balance), common.FormatSOL(l.cfg.MinBalanceLamports))
	}

	l.log.Info("creating token",
		zap.String("network", req.Network.String()),
		zap.String("symbol", req.Symbol),
		zap.Int64("supply", req.Supply),
		zap.Uint8("decimals", decimals),
		zap.Int64("user_id", req.UserID))

	res, err := minter.CreateMint(ctx, payer, model.MintSpec{
		Decimals:            decimals,
		Amount:              amount,
		RevokeMintAuthority: req.RevokeMintAuthority,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mint: %w", err)
	}

	now := l.now().UTC()
	record := &model.TokenRecord{
		ID:                   l.newID(),
		Mint:                 res.Mint,
		Network:              req.Network,
		Name:                 req.Name,
		Symbol:               req.Symbol,
		Description:          req.Description,
		Supply:               req.Supply,
		Decimals:             decimals,
		Owner:                payer.PublicKey().String(),
		TokenAccount:         res.TokenAccount,
		Signature:            res.Signature,
		ImageURL:             req.ImageURL,
		LockLiquidity:        req.LockLiquidity,
		MintAuthorityRevoked: req.RevokeMintAuthority,
		Status:               model.TokenStatusCreated,
		CreatedBy:            req.UserID,
		CreatedAt:            now,
	}
	if req.LockLiquidity {
		until := now.Add(l.cfg.LockDuration)
		record.LockUntil = &until
	}
	if req.Network == model.NetworkMainnet {
		record.Status = model.TokenStatusPoolPending
		if req.Liquidity != nil {
			plan := *req.Liquidity
			record.Liquidity = &plan
		}
	}

	if err := l.tokens.SaveToken(ctx, record); err != nil {
		l.log.Error("failed to save token record",
			zap.String("mint", record.Mint),
			zap.String("network", record.Network.String()),
			zap.Error(err))
	}
	l.metrics.ObserveTokenCreated(req.Network.String())
	l.log.Info("token created",
		zap.String("id", record.ID),
		zap.String("mint", record.Mint),
		zap.String("signature", record.Signature))
	return record, nil
}

// RawSupply converts a whole-token supply into base units, using the most
// decimals (up to MaxDecimals) that keep the amount within a uint64.
func RawSupply(supply int64) (uint8, uint64, error) {
	if supply <= 0 {
		return 0, 0, fmt.Errorf("%w: %d", ErrSupplyTooLarge, supply)
	}
	s := uint64(supply)
	for d := MaxDecimals; d >= 0; d-- {
		scale, ok := common.Pow10(d)
		if !ok {
			continue
		}
		if s <= ^uint64(0)/scale {
			return uint8(d), s * scale, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %d", ErrSupplyTooLarge, supply)
}
