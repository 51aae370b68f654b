package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Player account commands (acting as the session address)",
	}

	cmd.AddCommand(newAccountCreateCmd())
	cmd.AddCommand(newAccountShowCmd())
	cmd.AddCommand(newAccountListCmd())
	cmd.AddCommand(newAccountBalanceCmd())
	cmd.AddCommand(newAccountNextClaimCmd())
	cmd.AddCommand(newAccountParticipateCmd())
	cmd.AddCommand(newAccountClaimCmd())

	return cmd
}

func newAccountCreateCmd() *cobra.Command {
	var nickname string
	var rating int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a player account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if nickname == "" {
				return fmt.Errorf("--nickname is required")
			}

			req := map[string]any{
				"nickname": nickname,
				"rating":   rating,
			}
			var result Receipt

			if err := client.Call("/api/v1/account", cfg.TxID(), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&nickname, "nickname", "", "Nickname (required)")
	cmd.Flags().Int64Var(&rating, "rating", 0, "Starting rating")
	_ = cmd.MarkFlagRequired("nickname")

	return cmd
}

func newAccountShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the player account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Account

			if err := client.Get("/api/v1/account", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAccountListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every player account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Account

			if err := client.Get("/api/v1/accounts", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAccountBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the cumulative claimed rewards",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Balance

			if err := client.Get("/api/v1/account/balance", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAccountNextClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-claim",
		Short: "Show how long until the next claim is accepted",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result NextClaim

			if err := client.Get("/api/v1/account/next-claim", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAccountParticipateCmd() *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "participate",
		Short: "Stake and start the weekly claim clock",
		Long: `Stake the configured amount (see "contract show") and start the claim clock.

Values accept wei ("3750000000000000") or ether ("0.00375ether").`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Receipt

			if err := client.Call("/api/v1/account/participate", cfg.TxID(), map[string]string{"value": value}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&value, "value", "0.00375ether", "Value to attach")

	return cmd
}

func newAccountClaimCmd() *cobra.Command {
	var rating int64

	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim the weekly reward for a rating gain",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Receipt

			if err := client.Call("/api/v1/account/claim", cfg.TxID(), map[string]int64{"new_rating": rating}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&rating, "rating", 0, "New rating (required)")
	_ = cmd.MarkFlagRequired("rating")

	return cmd
}
