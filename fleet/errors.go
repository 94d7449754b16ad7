package fleet

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrNotConfigured          = errors.New("wallets not configured for network")
	ErrAlreadyConfigured      = errors.New("wallets already configured for network")
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrInvalidImport          = errors.New("exactly 5 valid mnemonics are required")
	ErrInvalidTransfer        = errors.New("invalid transfer")
	ErrInsufficientReserve    = errors.New("primary wallet balance does not exceed the reserve")
	ErrAmountTooSmall         = errors.New("amount per wallet is below the dust threshold")
	ErrReserveViolation       = errors.New("transfer would take the primary wallet below the reserve")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrTransferFailed         = errors.New("transfer failed")
	ErrLedgerUnavailable      = errors.New("ledger unavailable")
	ErrStorageFailure         = errors.New("wallet storage failure")
	ErrAirdropUnavailable     = errors.New("airdrop is only available on devnet")
	ErrDistributionInProgress = errors.New("a distribution is already running for this network")
)

// TransferError records why the transfer to one wallet failed. Signature is
// set when the transaction was sent but its confirmation was not observed.
type TransferError struct {
	WalletID  int
	Signature solana.Signature
	Err       error
}

// Unconfirmed reports whether the transaction may still land.
func (e *TransferError) Unconfirmed() bool {
	return e.Signature != (solana.Signature{})
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer to wallet %d failed: %v", e.WalletID, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Is makes every TransferError match ErrTransferFailed.
func (e *TransferError) Is(target error) bool {
	return target == ErrTransferFailed
}
