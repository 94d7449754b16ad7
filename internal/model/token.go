package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LiquidityPlan holds the mainnet liquidity answers and derived market caps.
// Displayed figures are user-chosen and are not reconciled with real ones.
type LiquidityPlan struct {
	RealSOL               decimal.Decimal `json:"realSol"`
	DisplayedLiquidityUSD int64           `json:"displayedLiquidityUsd"`
	SOLPriceUSD           decimal.Decimal `json:"solPriceUsd"`
	RealMarketCapUSD      decimal.Decimal `json:"realMarketCapUsd"`
	DisplayedMarketCapUSD decimal.Decimal `json:"displayedMarketCapUsd"`
}

// TokenCreationRequest is the assembled wizard result handed to the token creator.
type TokenCreationRequest struct {
	UserID              int64          `json:"userId"`
	Kind                SessionKind    `json:"kind"`
	Network             Network        `json:"network"`
	Name                string         `json:"name"`
	Symbol              string         `json:"symbol"`
	Description         string         `json:"description"`
	Supply              int64          `json:"supply"`
	Liquidity           *LiquidityPlan `json:"liquidity,omitempty"`
	LockLiquidity       bool           `json:"lockLiquidity"`
	RevokeMintAuthority bool           `json:"revokeMintAuthority"`
	ImageURL            string         `json:"imageUrl,omitempty"`
}

// TokenStatus tracks what has happened to a launched token.
type TokenStatus string

const (
	TokenStatusCreated     TokenStatus = "created"
	TokenStatusPoolPending TokenStatus = "pool_pending"
)

// TokenRecord is the persisted outcome of a token launch.
type TokenRecord struct {
	ID                   string         `json:"id"`
	Mint                 string         `json:"mint"`
	Network              Network        `json:"network"`
	Name                 string         `json:"name"`
	Symbol               string         `json:"symbol"`
	Description          string         `json:"description"`
	Supply               int64          `json:"supply"`
	Decimals             uint8          `json:"decimals"`
	Owner                string         `json:"owner"`
	TokenAccount         string         `json:"tokenAccount"`
	Signature            string         `json:"signature"`
	ImageURL             string         `json:"imageUrl,omitempty"`
	LockLiquidity        bool           `json:"lockLiquidity"`
	LockUntil            *time.Time     `json:"lockUntil,omitempty"`
	MintAuthorityRevoked bool           `json:"mintAuthorityRevoked"`
	Liquidity            *LiquidityPlan `json:"liquidity,omitempty"`
	Status               TokenStatus    `json:"status"`
	CreatedBy            int64          `json:"createdBy"`
	CreatedAt            time.Time      `json:"createdAt"`
}

// MintSpec describes an SPL mint to create.
type MintSpec struct {
	Decimals            uint8
	Amount              uint64
	RevokeMintAuthority bool
}

// MintResult is returned by the ledger after a mint is created.
type MintResult struct {
	Mint         string
	TokenAccount string
	Signature    string
}

// BrandingStyle selects how a branding provider picks a token identity.
type BrandingStyle string

const (
	BrandingAI    BrandingStyle = "ai"
	BrandingTrend BrandingStyle = "trend"
)

// Branding is a generated token identity.
type Branding struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Source      string `json:"source"`
}

// ExplorerURL links an address on the Solana explorer for the given network.
func ExplorerURL(network Network, address string) string {
	if network == NetworkMainnet {
		return fmt.Sprintf("https://explorer.solana.com/address/%s", address)
	}
	return fmt.Sprintf("https://explorer.solana.com/address/%s?cluster=%s", address, network)
}

// ExplorerTxURL links a transaction signature on the Solana explorer.
func ExplorerTxURL(network Network, signature string) string {
	if network == NetworkMainnet {
		return fmt.Sprintf("https://explorer.solana.com/tx/%s", signature)
	}
	return fmt.Sprintf("https://explorer.solana.com/tx/%s?cluster=%s", signature, network)
}
