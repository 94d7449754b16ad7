package model

// ErrorResponse is the body of every API error. Code is a stable machine
// readable reason, e.g. "insufficient_reserve".
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WalletResponse is one wallet in GET /wallets/{network}
type WalletResponse struct {
	ID           int    `json:"id"`
	Address      string `json:"address"`
	SOL          string `json:"sol"`
	BalanceKnown bool   `json:"balanceKnown"`
	RefreshError string `json:"refreshError,omitempty"`
	Explorer     string `json:"explorer"`
}

// WalletsResponse represents response for GET /wallets/{network}
type WalletsResponse struct {
	Network    Network          `json:"network"`
	Configured bool             `json:"configured"`
	TotalSOL   string           `json:"totalSol"`
	Wallets    []WalletResponse `json:"wallets"`
}

// DistributionResponse represents response for POST /wallets/{network}/distribute
type DistributionResponse struct {
	Network             Network               `json:"network"`
	ReserveSOL          string                `json:"reserveSol"`
	AmountPerWalletSOL  string                `json:"amountPerWalletSol"`
	TotalDistributedSOL string                `json:"totalDistributedSol"`
	SuccessfulTransfers int                   `json:"successfulTransfers"`
	FinalWallet1SOL     string                `json:"finalWallet1Sol"`
	Results             []TransferResultEntry `json:"results"`
}

// TransferResultEntry is one per-wallet line in DistributionResponse
type TransferResultEntry struct {
	WalletID      int    `json:"walletId"`
	Success       bool   `json:"success"`
	Unconfirmed   bool   `json:"unconfirmed,omitempty"`
	AmountSOL     string `json:"amountSol"`
	NewBalanceSOL string `json:"newBalanceSol"`
	Signature     string `json:"signature,omitempty"`
	Error         string `json:"error,omitempty"`
}

// AirdropResponse represents response for POST /wallets/{network}/{id}/airdrop
type AirdropResponse struct {
	TxID string `json:"txId"`
}

// TokensResponse represents response for GET /tokens
type TokensResponse struct {
	Tokens []*TokenRecord `json:"tokens"`
}
