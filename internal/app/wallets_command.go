package app

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/AlexZinkM/launchpad-bot/internal/config"
	"github.com/AlexZinkM/launchpad-bot/internal/crypto"
	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/telegram"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newPassphraseEnv holds the target passphrase for rekey when set.
const newPassphraseEnv = "NEW_WALLET_PASSPHRASE"

func (s *runtimeState) newWalletsCommand() *cobra.Command {
	root := &cobra.Command{Use: "wallets", Short: "Inspect and operate the wallet fleet"}
	root.AddCommand(s.newWalletsListCommand(false))
	root.AddCommand(s.newWalletsListCommand(true))
	root.AddCommand(s.newWalletsDistributeCommand())
	root.AddCommand(s.newWalletsAirdropCommand())
	root.AddCommand(s.newWalletsImportCommand())
	root.AddCommand(s.newWalletsBackupCommand())
	root.AddCommand(s.newWalletsRekeyCommand())
	return root
}

func (s *runtimeState) newWalletsListCommand(refresh bool) *cobra.Command {
	var rawNetwork string
	use, short := "list", "List wallets with their last known balances"
	if refresh {
		use, short = "refresh", "Query the ledger for every wallet balance"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			network, err := model.ParseNetwork(rawNetwork)
			if err != nil {
				return err
			}
			f, err := s.openFleet(cmd.Context(), network)
			if err != nil {
				return err
			}
			if !f.Configured(network) {
				return fmt.Errorf("%s wallets are not configured; run wallets import", network)
			}

			wallets := f.List(network)
			if refresh {
				if wallets, err = f.RefreshBalances(cmd.Context(), network); err != nil {
					return err
				}
			}
			if s.jsonOutput {
				return s.printJSON(wallets)
			}
			fmt.Fprint(cmd.OutOrStdout(), telegram.WalletsText(network, wallets))
			return nil
		},
	}
	networkFlag(cmd, &rawNetwork)
	return cmd
}

func (s *runtimeState) newWalletsDistributeCommand() *cobra.Command {
	var rawNetwork string
	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Split wallet 1 balance above the reserve across wallets 2-5",
		RunE: func(cmd *cobra.Command, _ []string) error {
			network, err := model.ParseNetwork(rawNetwork)
			if err != nil {
				return err
			}
			f, err := s.openFleet(cmd.Context(), network)
			if err != nil {
				return err
			}
			res, err := s.newDistributor(f).TryRun(cmd.Context(), network)
			if err != nil {
				return err
			}
			if s.jsonOutput {
				return s.printJSON(res)
			}
			fmt.Fprint(cmd.OutOrStdout(), telegram.DistributionText(res))
			return nil
		},
	}
	networkFlag(cmd, &rawNetwork)
	return cmd
}

func (s *runtimeState) newWalletsAirdropCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "airdrop <wallet-id>",
		Short: "Request devnet SOL for one wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id < 1 || id > model.WalletCount {
				return fmt.Errorf("wallet id must be 1 to %d", model.WalletCount)
			}
			f, err := s.openFleet(cmd.Context(), model.NetworkDevnet)
			if err != nil {
				return err
			}
			sig, err := f.RequestAirdrop(cmd.Context(), model.NetworkDevnet, id)
			if err != nil {
				return err
			}
			if s.jsonOutput {
				return s.printJSON(model.AirdropResponse{TxID: sig.String()})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Airdrop requested for wallet %d\n%s\n", id, model.ExplorerTxURL(model.NetworkDevnet, sig.String()))
			return nil
		},
	}
	return cmd
}

func (s *runtimeState) newWalletsImportCommand() *cobra.Command {
	var (
		rawNetwork string
		file       string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Configure a network from five mnemonics, one per line",
		Long:  "Reads five BIP-39 phrases from --file, or stdin when --file is '-'. Existing wallets are never replaced.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			network, err := model.ParseNetwork(rawNetwork)
			if err != nil {
				return err
			}
			var in io.Reader = cmd.InOrStdin()
			if file != "-" {
				fh, err := os.Open(file)
				if err != nil {
					return err
				}
				defer fh.Close()
				in = fh
			}
			mnemonics, err := readLines(in)
			if err != nil {
				return err
			}

			f, err := s.openFleet(cmd.Context(), network)
			if err != nil {
				return err
			}
			if err := f.Import(cmd.Context(), network, mnemonics); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), telegram.WalletsText(network, f.List(network)))
			return nil
		},
	}
	networkFlag(cmd, &rawNetwork)
	cmd.Flags().StringVarP(&file, "file", "f", "-", "File with one mnemonic per line")
	return cmd
}

func (s *runtimeState) newWalletsBackupCommand() *cobra.Command {
	var rawNetwork string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Print mnemonics and secret keys of every wallet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			network, err := model.ParseNetwork(rawNetwork)
			if err != nil {
				return err
			}
			f, err := s.openFleet(cmd.Context(), network)
			if err != nil {
				return err
			}
			backups, err := f.Backup(cmd.Context(), network)
			if err != nil {
				return err
			}
			s.log.Warn("wallet backup exported", zap.String("network", network.String()))
			if s.jsonOutput {
				return s.printJSON(backups)
			}
			out := cmd.OutOrStdout()
			for _, b := range backups {
				fmt.Fprintf(out, "Wallet %d: %s\n  mnemonic: %s\n  secret:   %s\n", b.ID, b.Address, b.Mnemonic, b.SecretKeyBase58)
			}
			return nil
		},
	}
	networkFlag(cmd, &rawNetwork)
	return cmd
}

func (s *runtimeState) newWalletsRekeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rekey",
		Short: "Re-encrypt every stored network under a new passphrase",
		Long:  "The new passphrase comes from " + newPassphraseEnv + " or is prompted for.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := s.openWallets(cmd.Context())
			if err != nil {
				return err
			}

			next := []byte(os.Getenv(newPassphraseEnv))
			if len(next) == 0 {
				if next, err = config.PromptForPassphrase(); err != nil {
					return err
				}
			}
			sealer, err := crypto.NewSealer(next, crypto.DefaultParams)
			clear(next)
			if err != nil {
				return err
			}
			defer sealer.Wipe()

			for _, n := range model.Networks() {
				if _, err := store.Addresses(cmd.Context(), n); err != nil {
					s.log.Info("nothing to rekey", zap.String("network", n.String()))
					continue
				}
				if err := store.Rekey(cmd.Context(), n, sealer); err != nil {
					return fmt.Errorf("failed to rekey %s: %w", n, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s wallets re-encrypted\n", n.Label())
			}
			return nil
		},
	}
	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
			out = append(out, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no mnemonics given")
	}
	return out, nil
}

func (s *runtimeState) printJSON(v any) error {
	enc := json.NewEncoder(s.runner.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
