package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AlexZinkM/launchpad-bot/fleet"
	"github.com/AlexZinkM/launchpad-bot/internal/api"
	"github.com/AlexZinkM/launchpad-bot/internal/common"
	"github.com/AlexZinkM/launchpad-bot/internal/handler"
	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/observability"
	"github.com/AlexZinkM/launchpad-bot/internal/storage/memory"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeWallets struct {
	wallets    []model.Wallet
	refreshed  int
	refreshErr error
	airdropErr error
}

func (w *fakeWallets) Configured(network model.Network) bool {
	return network == model.NetworkDevnet
}

func (w *fakeWallets) List(network model.Network) []model.Wallet {
	if network != model.NetworkDevnet {
		return nil
	}
	return w.wallets
}

func (w *fakeWallets) RefreshBalances(context.Context, model.Network) ([]model.Wallet, error) {
	w.refreshed++
	if w.refreshErr != nil {
		return nil, w.refreshErr
	}
	return w.wallets, nil
}

func (w *fakeWallets) RequestAirdrop(_ context.Context, network model.Network, _ int) (solana.Signature, error) {
	if network != model.NetworkDevnet {
		return solana.Signature{}, fleet.ErrAirdropUnavailable
	}
	if w.airdropErr != nil {
		return solana.Signature{}, w.airdropErr
	}
	return solana.Signature{7}, nil
}

type fakeDistributor struct {
	res *model.DistributionResult
	err error
}

func (d *fakeDistributor) TryRun(context.Context, model.Network) (*model.DistributionResult, error) {
	return d.res, d.err
}

func devnetWallets() []model.Wallet {
	out := make([]model.Wallet, 0, model.WalletCount)
	for id := 1; id <= model.WalletCount; id++ {
		out = append(out, model.Wallet{
			ID:              id,
			Network:         model.NetworkDevnet,
			Address:         fmt.Sprintf("Addr%d", id),
			BalanceLamports: common.MustSOLToLamports("0.5"),
			BalanceKnown:    id != 3,
		})
	}
	out[2].BalanceLamports = 0
	out[2].RefreshError = "ledger unavailable"
	return out
}

type fixture struct {
	wallets     *fakeWallets
	distributor *fakeDistributor
	tokens      *memory.Store
	server      http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithToken(t, "")
}

func newFixtureWithToken(t *testing.T, operatorToken string) *fixture {
	t.Helper()
	fx := &fixture{
		wallets:     &fakeWallets{wallets: devnetWallets()},
		distributor: &fakeDistributor{},
		tokens:      memory.NewStore(),
	}
	h := handler.NewWalletHandler(fx.wallets, fx.distributor, fx.tokens, zaptest.NewLogger(t))
	fx.server = api.SetupRouter(h, observability.NewMetrics("test"), operatorToken)
	return fx
}

func (fx *fixture) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	fx.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&v), rec.Body.String())
	return v
}

func TestListWallets(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, http.MethodGet, "/wallets/devnet")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decode[model.WalletsResponse](t, rec)
	assert.True(t, resp.Configured)
	require.Len(t, resp.Wallets, model.WalletCount)
	assert.Equal(t, "2", resp.TotalSOL)
	assert.False(t, resp.Wallets[2].BalanceKnown)
	assert.Equal(t, "ledger unavailable", resp.Wallets[2].RefreshError)
	assert.Equal(t, "https://explorer.solana.com/address/Addr1?cluster=devnet", resp.Wallets[0].Explorer)
	assert.Zero(t, fx.wallets.refreshed)
}

func TestListWallets_Refresh(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, http.MethodGet, "/wallets/devnet?refresh=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fx.wallets.refreshed)

	fx.wallets.refreshErr = fleet.ErrLedgerUnavailable
	rec = fx.do(t, http.MethodGet, "/wallets/devnet?refresh=1")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "ledger_unavailable", decode[model.ErrorResponse](t, rec).Code)
}

func TestListWallets_MainnetUnconfigured(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, http.MethodGet, "/wallets/mainnet")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[model.WalletsResponse](t, rec)
	assert.False(t, resp.Configured)
	assert.Empty(t, resp.Wallets)
	assert.Equal(t, "0", resp.TotalSOL)
}

func TestListWallets_BadNetwork(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, http.MethodGet, "/wallets/testnet")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_network", decode[model.ErrorResponse](t, rec).Code)
}

func TestDistribute(t *testing.T) {
	fx := newFixture(t)
	each := common.MustSOLToLamports("0.2375")
	fx.distributor.res = &model.DistributionResult{
		Network:                  model.NetworkDevnet,
		ReserveLamports:          common.MustSOLToLamports("0.05"),
		AmountPerWalletLamports:  each,
		TotalDistributedLamports: 3 * each,
		SuccessfulTransfers:      3,
		FinalWallet1Lamports:     common.MustSOLToLamports("0.2875"),
		Results: []model.TransferResult{
			{WalletID: 2, Success: true, AmountLamports: each, NewBalanceLamports: each, Signature: "sig2"},
			{WalletID: 3, Success: false, AmountLamports: each, Error: "transfer failed"},
			{WalletID: 4, Success: true, AmountLamports: each, NewBalanceLamports: each, Signature: "sig4"},
			{WalletID: 5, Success: true, AmountLamports: each, NewBalanceLamports: each, Signature: "sig5"},
		},
	}

	rec := fx.do(t, http.MethodPost, "/wallets/devnet/distribute")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[model.DistributionResponse](t, rec)
	assert.Equal(t, "0.2375", resp.AmountPerWalletSOL)
	assert.Equal(t, 3, resp.SuccessfulTransfers)
	require.Len(t, resp.Results, 4)
	assert.False(t, resp.Results[1].Success)
	assert.Equal(t, "transfer failed", resp.Results[1].Error)
}

func TestDistribute_Errors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{err: fleet.ErrInsufficientReserve, status: http.StatusUnprocessableEntity, code: "insufficient_reserve"},
		{err: fleet.ErrAmountTooSmall, status: http.StatusUnprocessableEntity, code: "amount_too_small"},
		{err: fleet.ErrDistributionInProgress, status: http.StatusConflict, code: "in_progress"},
		{err: fleet.ErrNotConfigured, status: http.StatusNotFound, code: "not_configured"},
		{err: fmt.Errorf("read balance: %w", fleet.ErrLedgerUnavailable), status: http.StatusBadGateway, code: "ledger_unavailable"},
		{err: context.DeadlineExceeded, status: http.StatusGatewayTimeout, code: "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			fx := newFixture(t)
			fx.distributor.err = tt.err

			rec := fx.do(t, http.MethodPost, "/wallets/devnet/distribute")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[model.ErrorResponse](t, rec).Code)
		})
	}
}

func TestDistribute_MethodNotAllowed(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(t, http.MethodGet, "/wallets/devnet/distribute")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAirdrop(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, http.MethodPost, "/wallets/devnet/2/airdrop")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, solana.Signature{7}.String(), decode[model.AirdropResponse](t, rec).TxID)

	rec = fx.do(t, http.MethodPost, "/wallets/mainnet/2/airdrop")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "airdrop_unavailable", decode[model.ErrorResponse](t, rec).Code)

	rec = fx.do(t, http.MethodPost, "/wallets/devnet/6/airdrop")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_wallet", decode[model.ErrorResponse](t, rec).Code)
}

func TestOperatorToken(t *testing.T) {
	fx := newFixtureWithToken(t, "s3cret")
	fx.distributor.res = &model.DistributionResult{Network: model.NetworkDevnet}

	send := func(method, target, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		fx.server.ServeHTTP(rec, req)
		return rec
	}

	for _, target := range []string{"/wallets/devnet/distribute", "/wallets/devnet/1/airdrop"} {
		rec := send(http.MethodPost, target, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code, target)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		assert.Equal(t, "unauthorized", decode[model.ErrorResponse](t, rec).Code)

		rec = send(http.MethodPost, target, "Bearer wrong")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)

		rec = send(http.MethodPost, target, "s3cret")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)

		rec = send(http.MethodPost, target, "Bearer s3cret")
		assert.Equal(t, http.StatusOK, rec.Code, target)
	}

	// Read-only endpoints stay open.
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/wallets/devnet", "").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/healthz", "").Code)
}

func TestQRCode(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, http.MethodGet, "/wallets/devnet/1/qr")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = fx.do(t, http.MethodGet, "/wallets/mainnet/1/qr")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTokens(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, n := range []model.Network{model.NetworkDevnet, model.NetworkMainnet, model.NetworkDevnet} {
		require.NoError(t, fx.tokens.SaveToken(ctx, &model.TokenRecord{
			ID:        fmt.Sprintf("t%d", i),
			Network:   n,
			Symbol:    fmt.Sprintf("SYM%d", i),
			Status:    model.TokenStatusCreated,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	rec := fx.do(t, http.MethodGet, "/tokens?network=devnet")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[model.TokensResponse](t, rec)
	require.Len(t, resp.Tokens, 2)
	assert.Equal(t, "t2", resp.Tokens[0].ID)

	rec = fx.do(t, http.MethodGet, "/tokens?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[model.TokensResponse](t, rec).Tokens, 1)

	rec = fx.do(t, http.MethodGet, "/tokens?limit=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(t, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSwaggerDoc(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(t, http.MethodGet, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/wallets/{network}/distribute")
}
