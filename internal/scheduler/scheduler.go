// Package scheduler runs periodic wallet balance refreshes.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexZinkM/launchpad-bot/internal/model"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher is the slice of the wallet fleet the scheduler drives.
type Refresher interface {
	ConfiguredNetworks() []model.Network
	RefreshBalances(ctx context.Context, network model.Network) ([]model.Wallet, error)
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron    *cron.Cron
	wallets Refresher
	timeout time.Duration
	log     *zap.Logger
	ctx     context.Context
}

// New creates a Scheduler. Jobs stop issuing RPC calls once ctx is done.
func New(ctx context.Context, wallets Refresher, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		wallets: wallets,
		timeout: time.Minute,
		log:     log,
		ctx:     ctx,
	}
}

// RegisterRefresh schedules a balance refresh of every configured network.
// spec uses the six-field format with seconds, e.g. "0 */10 * * * *".
func (s *Scheduler) RegisterRefresh(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RefreshNow); err != nil {
		return fmt.Errorf("register balance refresh: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RefreshNow refreshes every configured network once.
func (s *Scheduler) RefreshNow() {
	for _, network := range s.wallets.ConfiguredNetworks() {
		if s.ctx.Err() != nil {
			return
		}
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		wallets, err := s.wallets.RefreshBalances(ctx, network)
		cancel()
		if err != nil {
			s.log.Error("scheduled balance refresh failed", zap.String("network", network.String()), zap.Error(err))
			continue
		}

		unknown := 0
		for _, w := range wallets {
			if !w.BalanceKnown {
				unknown++
			}
		}
		s.log.Debug("balances refreshed",
			zap.String("network", network.String()),
			zap.Int("wallets", len(wallets)),
			zap.Int("unknown", unknown))
	}
}
