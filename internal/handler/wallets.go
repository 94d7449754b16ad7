package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/AlexZinkM/launchpad-bot/fleet"
	"github.com/AlexZinkM/launchpad-bot/internal/common"
	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/storage"

	"github.com/gagliardetto/solana-go"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// Wallets is the wallet fleet as seen by the HTTP API.
type Wallets interface {
	Configured(network model.Network) bool
	List(network model.Network) []model.Wallet
	RefreshBalances(ctx context.Context, network model.Network) ([]model.Wallet, error)
	RequestAirdrop(ctx context.Context, network model.Network, id int) (solana.Signature, error)
}

// Distributor seeds wallets 2 to 5 from wallet 1.
type Distributor interface {
	TryRun(ctx context.Context, network model.Network) (*model.DistributionResult, error)
}

// WalletHandler serves the operator wallet and token endpoints.
type WalletHandler struct {
	wallets     Wallets
	distributor Distributor
	tokens      storage.TokenStore
	log         *zap.Logger
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(wallets Wallets, distributor Distributor, tokens storage.TokenStore, log *zap.Logger) *WalletHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WalletHandler{wallets: wallets, distributor: distributor, tokens: tokens, log: log}
}

// ListWallets handles GET /wallets/{network}
// @Summary      List managed wallets
// @Description  Lists the five wallets of a network with their last known balances
// @Tags         wallets
// @Produce      json
// @Param        network  path      string  true   "devnet or mainnet"
// @Param        refresh  query     bool    false  "Query the ledger before answering"
// @Success      200      {object}  model.WalletsResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /wallets/{network} [get]
func (h *WalletHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	network, ok := pathNetwork(w, r)
	if !ok {
		return
	}

	resp := model.WalletsResponse{Network: network, Configured: h.wallets.Configured(network), Wallets: []model.WalletResponse{}}
	if !resp.Configured {
		resp.TotalSOL = common.FormatSOL(0)
		writeJSON(w, http.StatusOK, resp)
		return
	}

	wallets := h.wallets.List(network)
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		refreshed, err := h.wallets.RefreshBalances(r.Context(), network)
		if err != nil {
			h.writeError(w, err)
			return
		}
		wallets = refreshed
	}

	var total uint64
	for _, wl := range wallets {
		if wl.BalanceKnown {
			total += wl.BalanceLamports
		}
		resp.Wallets = append(resp.Wallets, model.WalletResponse{
			ID:           wl.ID,
			Address:      wl.Address,
			SOL:          common.FormatSOL(wl.BalanceLamports),
			BalanceKnown: wl.BalanceKnown,
			RefreshError: wl.RefreshError,
			Explorer:     model.ExplorerURL(network, wl.Address),
		})
	}
	resp.TotalSOL = common.FormatSOL(total)
	writeJSON(w, http.StatusOK, resp)
}

// Distribute handles POST /wallets/{network}/distribute
// @Summary      Seed wallets 2-5
// @Description  Splits wallet 1 balance above the reserve equally across wallets 2-5
// @Tags         wallets
// @Produce      json
// @Param        network  path      string  true  "devnet or mainnet"
// @Success      200      {object}  model.DistributionResponse
// @Failure      409      {object}  model.ErrorResponse
// @Failure      422      {object}  model.ErrorResponse
// @Router       /wallets/{network}/distribute [post]
func (h *WalletHandler) Distribute(w http.ResponseWriter, r *http.Request) {
	network, ok := pathNetwork(w, r)
	if !ok {
		return
	}

	res, err := h.distributor.TryRun(r.Context(), network)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := model.DistributionResponse{
		Network:             res.Network,
		ReserveSOL:          common.FormatSOL(res.ReserveLamports),
		AmountPerWalletSOL:  common.FormatSOL(res.AmountPerWalletLamports),
		TotalDistributedSOL: common.FormatSOL(res.TotalDistributedLamports),
		SuccessfulTransfers: res.SuccessfulTransfers,
		FinalWallet1SOL:     common.FormatSOL(res.FinalWallet1Lamports),
	}
	for _, t := range res.Results {
		resp.Results = append(resp.Results, model.TransferResultEntry{
			WalletID:      t.WalletID,
			Success:       t.Success,
			Unconfirmed:   t.Unconfirmed,
			AmountSOL:     common.FormatSOL(t.AmountLamports),
			NewBalanceSOL: common.FormatSOL(t.NewBalanceLamports),
			Signature:     t.Signature,
			Error:         t.Error,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Airdrop handles POST /wallets/{network}/{id}/airdrop
// @Summary      Request devnet SOL
// @Description  Asks the devnet faucet to fund one wallet
// @Tags         wallets
// @Produce      json
// @Param        network  path      string  true  "devnet"
// @Param        id       path      int     true  "Wallet id (1-5)"
// @Success      200      {object}  model.AirdropResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /wallets/{network}/{id}/airdrop [post]
func (h *WalletHandler) Airdrop(w http.ResponseWriter, r *http.Request) {
	network, ok := pathNetwork(w, r)
	if !ok {
		return
	}
	id, ok := pathWalletID(w, r)
	if !ok {
		return
	}

	sig, err := h.wallets.RequestAirdrop(r.Context(), network, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.AirdropResponse{TxID: sig.String()})
}

// QRCode handles GET /wallets/{network}/{id}/qr
// @Summary      Wallet address QR code
// @Tags         wallets
// @Produce      png
// @Param        network  path  string  true  "devnet or mainnet"
// @Param        id       path  int     true  "Wallet id (1-5)"
// @Success      200
// @Failure      404  {object}  model.ErrorResponse
// @Router       /wallets/{network}/{id}/qr [get]
func (h *WalletHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	network, ok := pathNetwork(w, r)
	if !ok {
		return
	}
	id, ok := pathWalletID(w, r)
	if !ok {
		return
	}

	var address string
	for _, wl := range h.wallets.List(network) {
		if wl.ID == id {
			address = wl.Address
		}
	}
	if address == "" {
		h.writeError(w, fleet.ErrNotConfigured)
		return
	}

	png, err := qrcode.Encode(address, qrcode.Medium, 256)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// ListTokens handles GET /tokens
// @Summary      Recent token launches
// @Tags         tokens
// @Produce      json
// @Param        network  query     string  false  "devnet or mainnet"
// @Param        limit    query     int     false  "Maximum records (default 20)"
// @Success      200      {object}  model.TokensResponse
// @Router       /tokens [get]
func (h *WalletHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	var network model.Network
	if raw := r.URL.Query().Get("network"); raw != "" {
		n, err := model.ParseNetwork(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error(), Code: "invalid_network"})
			return
		}
		network = n
	}
	limit := storage.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "limit must be 1 to 100", Code: "invalid_limit"})
			return
		}
		limit = n
	}

	tokens, err := h.tokens.ListTokens(r.Context(), network, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if tokens == nil {
		tokens = []*model.TokenRecord{}
	}
	writeJSON(w, http.StatusOK, model.TokensResponse{Tokens: tokens})
}

func pathNetwork(w http.ResponseWriter, r *http.Request) (model.Network, bool) {
	network, err := model.ParseNetwork(r.PathValue("network"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error(), Code: "invalid_network"})
		return "", false
	}
	return network, true
}

func pathWalletID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 || id > model.WalletCount {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "wallet id must be 1 to 5", Code: "invalid_wallet"})
		return 0, false
	}
	return id, true
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, fleet.ErrNotConfigured), errors.Is(err, fleet.ErrWalletNotFound):
		return http.StatusNotFound, "not_configured"
	case errors.Is(err, fleet.ErrDistributionInProgress):
		return http.StatusConflict, "in_progress"
	case errors.Is(err, fleet.ErrInsufficientReserve):
		return http.StatusUnprocessableEntity, "insufficient_reserve"
	case errors.Is(err, fleet.ErrAmountTooSmall):
		return http.StatusUnprocessableEntity, "amount_too_small"
	case errors.Is(err, fleet.ErrAirdropUnavailable):
		return http.StatusBadRequest, "airdrop_unavailable"
	case errors.Is(err, fleet.ErrLedgerUnavailable):
		return http.StatusBadGateway, "ledger_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *WalletHandler) writeError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("code", code), zap.Error(err))
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
