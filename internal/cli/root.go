package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "CLI tool for the player account ledger API",
		Long: `ledgerctl is a CLI tool for interacting with the player account ledger JSON API.

It covers sessions, player accounts, staking and weekly reward claims,
the contract's owner operations, wallet balances, receipts, and
real-time streaming of BalanceChanged events.

Every state-changing command sends an Idempotency-Key. Pass the same
--idempotency-key to retry a call safely; by default a fresh UUID is used.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load token from file if not provided via flag/env
			if err := cfg.LoadToken(); err != nil {
				return err
			}

			// Create HTTP client
			client = NewClient(cfg.ServerURL, cfg.Token)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: LEDGERCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Session token (env: LEDGERCTL_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: LEDGERCTL_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVar(&cfg.IdempotencyKey, "idempotency-key", "", "Transaction id for state-changing calls (default: random UUID)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newAccountCmd())
	rootCmd.AddCommand(newContractCmd())
	rootCmd.AddCommand(newWalletCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newReceiptCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
