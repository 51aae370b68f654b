package cli

import (
	"github.com/spf13/cobra"
)

func newContractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Contract and owner commands",
	}

	cmd.AddCommand(newContractShowCmd())
	cmd.AddCommand(newContractOwnerCmd())
	cmd.AddCommand(newContractBalanceCmd())
	cmd.AddCommand(newContractFundCmd())
	cmd.AddCommand(newContractWithdrawCmd())
	cmd.AddCommand(newContractCorrectClaimTimeCmd())

	return cmd
}

func newContractShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the deployment and its rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Contract

			if err := client.Get("/api/v1/contract", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newContractOwnerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "owner",
		Short: "Show the owner address",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Owner

			if err := client.Get("/api/v1/contract/owner", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newContractBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the value held by the contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Balance

			if err := client.Get("/api/v1/contract/balance", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newContractFundCmd() *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Send value to the contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Receipt

			if err := client.Call("/api/v1/contract/fund", cfg.TxID(), map[string]string{"value": value}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "Value to send, e.g. 0.5ether (required)")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func newContractWithdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw",
		Short: "Pay the whole contract balance to the owner (owner only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Receipt

			if err := client.Call("/api/v1/contract/withdraw", cfg.TxID(), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newContractCorrectClaimTimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "correct-claim-time <address>",
		Short: "Let an account claim now (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Receipt

			path := "/api/v1/contract/accounts/" + args[0] + "/correct-claim-time"
			if err := client.Call(path, cfg.TxID(), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
