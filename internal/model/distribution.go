package model

import "time"

// TransferResult is the outcome of one transfer in a distribution batch.
type TransferResult struct {
	WalletID           int    `json:"walletId"`
	Address            string `json:"address"`
	AmountLamports     uint64 `json:"amountLamports"`
	Success            bool   `json:"success"`
	Unconfirmed        bool   `json:"unconfirmed,omitempty"`
	Signature          string `json:"signature,omitempty"`
	NewBalanceLamports uint64 `json:"newBalanceLamports"`
	Error              string `json:"error,omitempty"`
}

// DistributionResult aggregates a reserve distribution run.
type DistributionResult struct {
	Network                  Network          `json:"network"`
	ReserveLamports          uint64           `json:"reserveLamports"`
	AmountPerWalletLamports  uint64           `json:"amountPerWalletLamports"`
	TotalDistributedLamports uint64           `json:"totalDistributedLamports"`
	SuccessfulTransfers      int              `json:"successfulTransfers"`
	Results                  []TransferResult `json:"results"`
	FinalWallet1Lamports     uint64           `json:"finalWallet1Lamports"`
	StartedAt                time.Time        `json:"startedAt"`
	FinishedAt               time.Time        `json:"finishedAt"`
}

// Failed returns the results that did not succeed.
func (r *DistributionResult) Failed() []TransferResult {
	var out []TransferResult
	for _, res := range r.Results {
		if !res.Success {
			out = append(out, res)
		}
	}
	return out
}
