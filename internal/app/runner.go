// Package app wires the launchpad services together behind a cobra CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/AlexZinkM/launchpad-bot/fleet"
	"github.com/AlexZinkM/launchpad-bot/internal/client"
	"github.com/AlexZinkM/launchpad-bot/internal/config"
	"github.com/AlexZinkM/launchpad-bot/internal/crypto"
	"github.com/AlexZinkM/launchpad-bot/internal/logger"
	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/observability"
	"github.com/AlexZinkM/launchpad-bot/internal/storage"
	"github.com/AlexZinkM/launchpad-bot/internal/storage/memory"
	"github.com/AlexZinkM/launchpad-bot/internal/storage/postgres"
	"github.com/AlexZinkM/launchpad-bot/internal/storage/sqlite"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const cliName = "launchpad"

// Runner executes one CLI invocation.
type Runner struct {
	stdout io.Writer
	stderr io.Writer
}

func NewRunner() *Runner {
	return NewRunnerWithWriters(os.Stdout, os.Stderr)
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{stdout: stdout, stderr: stderr}
}

// runtimeState holds what the persistent pre-run builds for subcommands.
type runtimeState struct {
	runner  *Runner
	cfg     *config.Config
	log     *zap.Logger
	metrics *observability.Metrics

	backend storage.Backend
	sealer  *crypto.Sealer
	wallets *storage.WalletStore
	fleet   *fleet.Fleet
	ledgers map[model.Network]*client.SolanaClient

	jsonOutput bool
}

// Run executes args and returns the process exit code.
func (r *Runner) Run(args []string) int {
	state := &runtimeState{runner: r}
	root := state.newRootCommand()
	root.SetArgs(args)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.Execute()
	state.close()
	if err == nil {
		return 0
	}
	fmt.Fprintf(r.stderr, "error: %v\n", err)
	if errors.Is(err, crypto.ErrInvalidPassword) {
		return 3
	}
	return 1
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   cliName,
		Short: "Meme token launchpad bot and wallet fleet operator CLI",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			if err := config.Init(); err != nil {
				return err
			}
			s.cfg = config.Get()
			if err := logger.InitLogger(s.cfg.AppEnv); err != nil {
				return fmt.Errorf("failed to init logger: %w", err)
			}
			s.log = logger.Log
			s.metrics = observability.NewMetrics(cliName)
			return nil
		},
	}
	cmd.PersistentFlags().BoolVar(&s.jsonOutput, "json", false, "Print machine-readable JSON")

	cmd.AddCommand(s.newServeCommand())
	cmd.AddCommand(s.newWalletsCommand())
	cmd.AddCommand(s.newTokensCommand())
	return cmd
}

// openBackend opens the configured store once per invocation.
func (s *runtimeState) openBackend(ctx context.Context) (storage.Backend, error) {
	if s.backend != nil {
		return s.backend, nil
	}

	var (
		backend storage.Backend
		err     error
	)
	switch s.cfg.StoreDriver {
	case "memory":
		backend = memory.NewStore()
	case "postgres":
		backend, err = postgres.Open(ctx, s.cfg.PostgresDSN)
	default:
		backend, err = sqlite.Open(s.cfg.SQLitePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", s.cfg.StoreDriver, err)
	}
	s.log.Info("store opened", zap.String("driver", s.cfg.StoreDriver))
	s.backend = backend
	return backend, nil
}

// openWallets opens the encrypted wallet store, prompting for the passphrase
// when it is not in the environment.
func (s *runtimeState) openWallets(ctx context.Context) (*storage.WalletStore, error) {
	if s.wallets != nil {
		return s.wallets, nil
	}
	backend, err := s.openBackend(ctx)
	if err != nil {
		return nil, err
	}

	pass, err := s.cfg.Passphrase()
	if err != nil {
		return nil, err
	}
	sealer, err := crypto.NewSealer(pass, crypto.DefaultParams)
	clear(pass)
	if err != nil {
		return nil, err
	}
	s.sealer = sealer
	s.wallets = storage.NewWalletStore(backend, sealer)
	return s.wallets, nil
}

// openFleet builds the fleet and bootstraps the given networks.
func (s *runtimeState) openFleet(ctx context.Context, networks ...model.Network) (*fleet.Fleet, error) {
	if s.fleet != nil {
		return s.fleet, nil
	}
	store, err := s.openWallets(ctx)
	if err != nil {
		return nil, err
	}
	derivation, err := crypto.NewDerivation(s.cfg.DerivationPath)
	if err != nil {
		return nil, fmt.Errorf("invalid DERIVATION_PATH: %w", err)
	}

	s.ledgers = make(map[model.Network]*client.SolanaClient)
	ledgers := make(map[model.Network]fleet.Ledger)
	for _, n := range model.Networks() {
		c := client.NewSolanaClient(n, s.cfg.RPCURL(n),
			client.WithLogger(s.log),
			client.WithMetrics(s.metrics))
		s.ledgers[n] = c
		ledgers[n] = c
	}

	f := fleet.New(store, derivation, ledgers, fleet.Config{
		ReserveLamports:       s.cfg.ReserveLamports(),
		DustThresholdLamports: s.cfg.DustThresholdLamports(),
		FeeLamports:           s.cfg.TransferFeeLamports,
		AirdropLamports:       s.cfg.AirdropLamports(),
	},
		fleet.WithLogger(s.log),
		fleet.WithMetrics(s.metrics),
		fleet.WithImportedMnemonics(model.NetworkDevnet, s.cfg.DevnetMnemonics()))
	s.fleet = f

	if len(networks) == 0 {
		networks = model.Networks()
	}
	for _, n := range networks {
		start := time.Now()
		if err := f.Bootstrap(ctx, n); err != nil {
			return nil, fmt.Errorf("failed to load %s wallets: %w", n, err)
		}
		s.log.Info("wallets loaded",
			zap.String("network", n.String()),
			zap.Bool("configured", f.Configured(n)),
			zap.Duration("took", time.Since(start)))
	}
	return f, nil
}

func (s *runtimeState) newDistributor(f *fleet.Fleet) *fleet.Distributor {
	return fleet.NewDistributor(f, f.Config(), s.log, s.metrics)
}

func (s *runtimeState) close() {
	if s.fleet != nil {
		s.fleet.Close()
	}
	if s.sealer != nil {
		s.sealer.Wipe()
	}
	if s.backend != nil {
		if err := s.backend.Close(); err != nil && s.log != nil {
			s.log.Warn("failed to close store", zap.Error(err))
		}
	}
	if s.log != nil {
		_ = s.log.Sync()
	}
}

func networkFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "network", "n", string(model.NetworkDevnet), "devnet or mainnet")
}
