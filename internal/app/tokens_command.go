package app

import (
	"fmt"

	"github.com/AlexZinkM/launchpad-bot/internal/model"
	"github.com/AlexZinkM/launchpad-bot/internal/storage"
	"github.com/AlexZinkM/launchpad-bot/internal/telegram"

	"github.com/spf13/cobra"
)

func (s *runtimeState) newTokensCommand() *cobra.Command {
	var (
		rawNetwork string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "List recent token launches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var network model.Network
			if rawNetwork != "" {
				n, err := model.ParseNetwork(rawNetwork)
				if err != nil {
					return err
				}
				network = n
			}
			backend, err := s.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			tokens, err := backend.ListTokens(cmd.Context(), network, limit)
			if err != nil {
				return err
			}
			if s.jsonOutput {
				return s.printJSON(tokens)
			}
			if len(tokens) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tokens launched yet.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), telegram.TokensText(tokens))
			return nil
		},
	}
	cmd.Flags().StringVarP(&rawNetwork, "network", "n", "", "devnet or mainnet (default all)")
	cmd.Flags().IntVar(&limit, "limit", storage.DefaultListLimit, "Maximum records")
	return cmd
}
