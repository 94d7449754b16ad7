package model

import (
	"fmt"
	"strings"
	"time"
)

// WalletCount is the fixed number of managed wallets per network.
// Wallet ids run from 1 to WalletCount and are never reused.
const WalletCount = 5

// PrimaryWalletID is the funding wallet that holds the reserve.
const PrimaryWalletID = 1

// Network identifies a Solana cluster.
type Network string

const (
	NetworkDevnet  Network = "devnet"
	NetworkMainnet Network = "mainnet"
)

// Networks returns all supported networks in display order.
func Networks() []Network {
	return []Network{NetworkDevnet, NetworkMainnet}
}

// ParseNetwork converts user input to a Network
func ParseNetwork(s string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "devnet":
		return NetworkDevnet, nil
	case "mainnet", "mainnet-beta":
		return NetworkMainnet, nil
	default:
		return "", fmt.Errorf("unknown network %q", s)
	}
}

func (n Network) String() string {
	return string(n)
}

// Label is the upper-case form used in chat messages.
func (n Network) Label() string {
	return strings.ToUpper(string(n))
}

// WalletRecord is the durable form of one wallet slot.
type WalletRecord struct {
	ID        int       `json:"id"`
	Mnemonic  string    `json:"mnemonic"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

// WalletMapping maps wallet id to its durable record for one network.
type WalletMapping map[int]WalletRecord

// Complete reports whether every id from 1 to WalletCount is present.
func (m WalletMapping) Complete() bool {
	for id := 1; id <= WalletCount; id++ {
		if _, ok := m[id]; !ok {
			return false
		}
	}
	return true
}

// Wallet is the live view of one fleet slot. Balance is a snapshot of the
// ledger taken at RefreshedAt.
type Wallet struct {
	ID              int       `json:"id"`
	Network         Network   `json:"network"`
	Address         string    `json:"address"`
	BalanceLamports uint64    `json:"balanceLamports"`
	BalanceKnown    bool      `json:"balanceKnown"`
	RefreshedAt     time.Time `json:"refreshedAt,omitzero"`
	RefreshError    string    `json:"refreshError,omitempty"`
}

// WalletBackup is an operator export of one wallet's credentials.
type WalletBackup struct {
	ID              int    `json:"id"`
	Address         string `json:"address"`
	Mnemonic        string `json:"mnemonic"`
	SecretKeyBase58 string `json:"secretKey"`
}

// SealedDocument is the at-rest form of a wallet mapping. Addresses are kept
// in clear so they can be listed without the passphrase.
type SealedDocument struct {
	Version    int      `json:"version"`
	Network    Network  `json:"network"`
	Addresses  []string `json:"addresses"`
	KDF        string   `json:"kdf"`
	N          int      `json:"n"`
	R          int      `json:"r"`
	P          int      `json:"p"`
	Salt       string   `json:"salt"`
	Nonce      string   `json:"nonce"`
	CipherText string   `json:"cipherText"`
}
