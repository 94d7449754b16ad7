package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/launchpad-bot/internal/crypto"
	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/observability"

	"github.com/cenkalti/backoff/v4"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

const (
	mintAccountSize       = 82 // SPL token mint account size in bytes
	defaultMaxRetries     = 3
	defaultPollInterval   = 500 * time.Millisecond
	defaultConfirmTimeout = 60 * time.Second
)

var (
	// ErrTransactionFailed means the transaction landed but the runtime rejected it.
	ErrTransactionFailed = errors.New("transaction failed on chain")
	// ErrConfirmationTimeout means the signature never reached confirmed status in time.
	ErrConfirmationTimeout = errors.New("transaction confirmation timed out")

	errPending = errors.New("transaction not yet confirmed")
)

// SolanaClient is a client for working with Solana RPC on one cluster.
type SolanaClient struct {
	network        model.Network
	rpcClient      *rpc.Client
	rpcURL         string
	maxRetries     uint64
	pollInterval   time.Duration
	confirmTimeout time.Duration
	metrics        *observability.Metrics
	log            *zap.Logger
}

// Option configures a SolanaClient.
type Option func(*SolanaClient)

// WithMaxRetries sets how many times read-only calls are retried.
func WithMaxRetries(n uint64) Option {
	return func(c *SolanaClient) { c.maxRetries = n }
}

// WithConfirmation sets the signature status poll interval and overall timeout.
func WithConfirmation(poll, timeout time.Duration) Option {
	return func(c *SolanaClient) {
		c.pollInterval = poll
		c.confirmTimeout = timeout
	}
}

// WithMetrics records RPC latency.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *SolanaClient) { c.metrics = m }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *SolanaClient) { c.log = l }
}

// NewSolanaClient creates a new Solana client for network at rpcURL.
func NewSolanaClient(network model.Network, rpcURL string, opts ...Option) *SolanaClient {
	c := &SolanaClient{
		network:        network,
		rpcClient:      rpc.New(rpcURL),
		rpcURL:         rpcURL,
		maxRetries:     defaultMaxRetries,
		pollInterval:   defaultPollInterval,
		confirmTimeout: defaultConfirmTimeout,
		log:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(zap.String("network", network.String()))
	return c
}

// Network returns the cluster this client talks to.
func (c *SolanaClient) Network() model.Network {
	return c.network
}

// Balance returns the SOL balance of account in lamports.
// Transient RPC failures are retried with exponential backoff.
func (c *SolanaClient) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	defer c.metrics.ObserveLedgerCall(c.network.String(), "getBalance", time.Now())

	var lamports uint64
	err := backoff.Retry(func() error {
		out, err := c.rpcClient.GetBalance(ctx, account, rpc.CommitmentConfirmed)
		if err != nil {
			return err
		}
		lamports = out.Value
		return nil
	}, c.readBackoff(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to get SOL balance: %w", err)
	}
	return lamports, nil
}

// Transfer sends lamports from the signer to the recipient and waits for
// confirmation. The transaction is submitted exactly once.
func (c *SolanaClient) Transfer(ctx context.Context, from crypto.Signer, to solana.PublicKey, lamports uint64) (solana.Signature, error) {
	defer c.metrics.ObserveLedgerCall(c.network.String(), "transfer", time.Now())

	payer := from.PublicKey()
	transferInstruction := system.NewTransferInstruction(
		lamports,
		payer,
		to,
	).Build()

	sig, err := c.submit(ctx, []solana.Instruction{transferInstruction}, payer, from.SignTransaction)
	if err != nil {
		return solana.Signature{}, err
	}

	c.log.Debug("transfer confirmed",
		zap.String("from", payer.String()),
		zap.String("to", to.String()),
		zap.Uint64("lamports", lamports),
		zap.String("signature", sig.String()))
	return sig, nil
}

// RequestAirdrop asks the cluster faucet for lamports and waits for confirmation.
func (c *SolanaClient) RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error) {
	defer c.metrics.ObserveLedgerCall(c.network.String(), "requestAirdrop", time.Now())

	sig, err := c.rpcClient.RequestAirdrop(ctx, account, lamports, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to request airdrop: %w", err)
	}
	if err := c.awaitConfirmation(ctx, sig); err != nil {
		if errors.Is(err, ErrTransactionFailed) {
			return solana.Signature{}, err
		}
		// Sent but unconfirmed; callers settle it from balances.
		return sig, err
	}
	return sig, nil
}

// CreateMint creates a new SPL mint with payer as mint authority, mints
// spec.Amount base units to the payer's associated token account and, when
// requested, revokes the mint authority in the same transaction.
func (c *SolanaClient) CreateMint(ctx context.Context, payer crypto.Signer, spec model.MintSpec) (*model.MintResult, error) {
	defer c.metrics.ObserveLedgerCall(c.network.String(), "createMint", time.Now())

	mintKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate mint keypair: %w", err)
	}
	defer clear(mintKey)
	mint := mintKey.PublicKey()
	owner := payer.PublicKey()

	var rent uint64
	err = backoff.Retry(func() error {
		rent, err = c.rpcClient.GetMinimumBalanceForRentExemption(ctx, mintAccountSize, rpc.CommitmentFinalized)
		return err
	}, c.readBackoff(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get mint rent exemption: %w", err)
	}

	tokenAccount, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to find associated token account address: %w", err)
	}

	instructions := []solana.Instruction{
		system.NewCreateAccountInstruction(
			rent,
			mintAccountSize,
			solana.TokenProgramID,
			owner,
			mint,
		).Build(),
		token.NewInitializeMintInstructionBuilder().
			SetDecimals(spec.Decimals).
			SetMintAuthority(owner).
			SetMintAccount(mint).
			SetSysVarRentPubkeyAccount(solana.SysVarRentPubkey).
			Build(),
		associatedtokenaccount.NewCreateInstruction(
			owner, // payer
			owner, // wallet
			mint,
		).Build(),
		token.NewMintToInstruction(
			spec.Amount,
			mint,
			tokenAccount,
			owner,
			[]solana.PublicKey{},
		).Build(),
	}
	if spec.RevokeMintAuthority {
		instructions = append(instructions, token.NewSetAuthorityInstructionBuilder().
			SetAuthorityType(token.AuthorityMintTokens).
			SetSubjectAccount(mint).
			SetAuthorityAccount(owner).
			Build())
	}

	sign := func(tx *solana.Transaction) error {
		if _, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
			if key.Equals(mint) {
				return &mintKey
			}
			return nil
		}); err != nil {
			return fmt.Errorf("failed to sign with mint key: %w", err)
		}
		return payer.SignTransaction(tx)
	}

	sig, err := c.submit(ctx, instructions, owner, sign)
	if err != nil {
		return nil, err
	}

	c.log.Info("mint created",
		zap.String("mint", mint.String()),
		zap.Uint8("decimals", spec.Decimals),
		zap.Bool("mint_authority_revoked", spec.RevokeMintAuthority),
		zap.String("signature", sig.String()))

	return &model.MintResult{
		Mint:         mint.String(),
		TokenAccount: tokenAccount.String(),
		Signature:    sig.String(),
	}, nil
}

// submit builds, signs, sends once and confirms a transaction.
func (c *SolanaClient) submit(ctx context.Context, instructions []solana.Instruction, payer solana.PublicKey, sign func(*solana.Transaction) error) (solana.Signature, error) {
	var recent *rpc.GetLatestBlockhashResult
	err := backoff.Retry(func() error {
		var err error
		recent, err = c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		return err
	}, c.readBackoff(ctx))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	if err := sign(tx); err != nil {
		return solana.Signature{}, err
	}

	sig, err := c.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentFinalized,
		},
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	if err := c.awaitConfirmation(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// awaitConfirmation polls the signature status until it is confirmed,
// fails on chain, or the confirmation timeout elapses.
func (c *SolanaClient) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	err := backoff.Retry(func() error {
		out, err := c.rpcClient.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			return err
		}
		if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
			return errPending
		}
		status := out.Value[0]
		if status.Err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %s: %v", ErrTransactionFailed, sig, status.Err))
		}
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return nil
		}
		return errPending
	}, backoff.WithContext(backoff.NewConstantBackOff(c.pollInterval), ctx))

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTransactionFailed):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, errPending):
		return fmt.Errorf("%w: %s", ErrConfirmationTimeout, sig)
	default:
		return fmt.Errorf("failed to confirm transaction %s: %w", sig, err)
	}
}

func (c *SolanaClient) readBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)
}
