package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeRefresher struct {
	mu       sync.Mutex
	networks []model.Network
	calls    map[model.Network]int
	fail     model.Network
}

func newRefresher(networks ...model.Network) *fakeRefresher {
	return &fakeRefresher{networks: networks, calls: make(map[model.Network]int)}
}

func (f *fakeRefresher) ConfiguredNetworks() []model.Network {
	return f.networks
}

func (f *fakeRefresher) RefreshBalances(_ context.Context, network model.Network) ([]model.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[network]++
	if network == f.fail {
		return nil, errors.New("rpc down")
	}
	return []model.Wallet{{ID: 1, Network: network, BalanceKnown: true}, {ID: 2, Network: network}}, nil
}

func (f *fakeRefresher) count(network model.Network) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[network]
}

func TestRefreshNow_AllConfiguredNetworks(t *testing.T) {
	r := newRefresher(model.NetworkDevnet, model.NetworkMainnet)
	r.fail = model.NetworkDevnet
	s := scheduler.New(context.Background(), r, zaptest.NewLogger(t))

	s.RefreshNow()
	assert.Equal(t, 1, r.count(model.NetworkDevnet))
	assert.Equal(t, 1, r.count(model.NetworkMainnet), "a failing network does not block the next one")
}

func TestRefreshNow_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newRefresher(model.NetworkDevnet)

	scheduler.New(ctx, r, nil).RefreshNow()
	assert.Zero(t, r.count(model.NetworkDevnet))
}

func TestRegisterRefresh(t *testing.T) {
	r := newRefresher(model.NetworkDevnet)
	s := scheduler.New(context.Background(), r, zaptest.NewLogger(t))

	assert.Error(t, s.RegisterRefresh("every ten minutes"))
	require.NoError(t, s.RegisterRefresh("@every 1s"))

	s.Start()
	defer s.Stop()
	assert.Eventually(t, func() bool { return r.count(model.NetworkDevnet) > 0 }, 5*time.Second, 50*time.Millisecond)
}
