// Package ledgerstub is an in-memory ledger that tracks balances and
// charges a flat fee per transfer.
package ledgerstub

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/AlexZinkM/launchpad-bot/internal/crypto"
	"github.com/AlexZinkM/launchpad-bot/internal/model"

	"github.com/gagliardetto/solana-go"
)

// ErrInsufficientFunds is returned when a transfer exceeds the sender's balance.
var ErrInsufficientFunds = errors.New("insufficient lamports")

// Ledger keeps balances per address and charges a flat fee per transfer.
type Ledger struct {
	mu        sync.Mutex
	balances  map[solana.PublicKey]uint64
	fee       uint64
	seq       uint64
	failTo    map[solana.PublicKey]error
	unconfirm map[solana.PublicKey]error
	failRead  map[solana.PublicKey]error
	transfers []Transfer
	mintCost  uint64
	mints     []Mint
}

// Mint is one recorded mint creation.
type Mint struct {
	Payer solana.PublicKey
	Mint  solana.PublicKey
	Spec  model.MintSpec
}

// Transfer is one recorded ledger transfer.
type Transfer struct {
	From     solana.PublicKey
	To       solana.PublicKey
	Lamports uint64
}

// New creates a ledger charging fee lamports per transfer.
func New(fee uint64) *Ledger {
	return &Ledger{
		balances:  make(map[solana.PublicKey]uint64),
		fee:       fee,
		failTo:    make(map[solana.PublicKey]error),
		unconfirm: make(map[solana.PublicKey]error),
		failRead:  make(map[solana.PublicKey]error),
	}
}

// SetBalance sets an account balance.
func (l *Ledger) SetBalance(account solana.PublicKey, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] = lamports
}

// FailTransfersTo makes every transfer to account fail with err.
func (l *Ledger) FailTransfersTo(account solana.PublicKey, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failTo[account] = err
}

// UnconfirmTransfersTo makes transfers to account move the funds and then
// return their signature together with err, as a confirmation timeout does.
func (l *Ledger) UnconfirmTransfersTo(account solana.PublicKey, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unconfirm[account] = err
}

// FailBalance makes balance queries for account fail with err.
func (l *Ledger) FailBalance(account solana.PublicKey, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failRead[account] = err
}

// SetMintCost sets the lamports CreateMint charges the payer.
func (l *Ledger) SetMintCost(lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mintCost = lamports
}

// Mints returns the created mints in order.
func (l *Ledger) Mints() []Mint {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Mint(nil), l.mints...)
}

// Transfers returns the successful transfers in order.
func (l *Ledger) Transfers() []Transfer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Transfer(nil), l.transfers...)
}

func (l *Ledger) Balance(_ context.Context, account solana.PublicKey) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.failRead[account]; err != nil {
		return 0, err
	}
	return l.balances[account], nil
}

func (l *Ledger) Transfer(ctx context.Context, from crypto.Signer, to solana.PublicKey, lamports uint64) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.failTo[to]; err != nil {
		return solana.Signature{}, err
	}
	src := from.PublicKey()
	if l.balances[src] < lamports+l.fee {
		return solana.Signature{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, l.balances[src], lamports+l.fee)
	}
	l.balances[src] -= lamports + l.fee
	l.balances[to] += lamports
	l.transfers = append(l.transfers, Transfer{From: src, To: to, Lamports: lamports})
	return l.nextSignature(), l.unconfirm[to]
}

func (l *Ledger) RequestAirdrop(_ context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += lamports
	return l.nextSignature(), nil
}

func (l *Ledger) CreateMint(ctx context.Context, payer crypto.Signer, spec model.MintSpec) (*model.MintResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	src := payer.PublicKey()
	if l.balances[src] < l.mintCost {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, l.balances[src], l.mintCost)
	}
	l.balances[src] -= l.mintCost

	sig := l.nextSignature()
	mint := solana.PublicKeyFromBytes(sig[:32])
	account := sha256.Sum256(append(mint.Bytes(), src.Bytes()...))
	l.mints = append(l.mints, Mint{Payer: src, Mint: mint, Spec: spec})
	return &model.MintResult{
		Mint:         mint.String(),
		TokenAccount: solana.PublicKeyFromBytes(account[:]).String(),
		Signature:    sig.String(),
	}, nil
}

// nextSignature returns a unique fake signature. Caller holds l.mu.
func (l *Ledger) nextSignature() solana.Signature {
	l.seq++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], l.seq)
	h := sha256.Sum256(buf[:])

	var sig solana.Signature
	copy(sig[:32], h[:])
	copy(sig[32:], h[:])
	return sig
}
