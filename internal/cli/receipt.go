package cli

import (
	"net/url"

	"github.com/spf13/cobra"
)

func newReceiptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "receipt <tx-id>",
		Short: "Look up the receipt of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Receipt

			if err := client.Get("/api/v1/receipts/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
