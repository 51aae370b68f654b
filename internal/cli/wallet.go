package cli

import (
	"github.com/spf13/cobra"
)

func newWalletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Host wallet commands",
	}

	cmd.AddCommand(newWalletBalanceCmd())
	cmd.AddCommand(newWalletFaucetCmd())

	return cmd
}

func newWalletBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Show a wallet balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Balance

			if err := client.Get("/api/v1/wallets/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newWalletFaucetCmd() *cobra.Command {
	var amount string

	cmd := &cobra.Command{
		Use:   "faucet <address>",
		Short: "Mint value into a wallet (development servers only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Receipt

			if err := client.Post("/api/v1/wallets/"+args[0]+"/faucet", map[string]string{"amount": amount}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "1ether", "Amount to mint")

	return cmd
}
