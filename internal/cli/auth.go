package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Session commands",
	}

	cmd.AddCommand(newAuthSessionCmd("register", "Bind a passphrase to an address and log in", "/api/v1/auth/register"))
	cmd.AddCommand(newAuthSessionCmd("login", "Log in as an address", "/api/v1/auth/login"))
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

// newAuthSessionCmd builds register and login, which differ only in
// the endpoint they call
func newAuthSessionCmd(use, short, path string) *cobra.Command {
	var address, passphrase string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if address == "" || passphrase == "" {
				return fmt.Errorf("--address and --passphrase are required")
			}

			req := map[string]string{
				"address":    address,
				"passphrase": passphrase,
			}
			var result AuthResult

			if err := client.Post(path, req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Account address, 0x-prefixed (required)")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "Passphrase (required)")
	_ = cmd.MarkFlagRequired("address")
	_ = cmd.MarkFlagRequired("passphrase")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/auth/logout", nil, nil); err != nil {
				return err
			}

			if err := cfg.SaveToken(""); err != nil {
				return fmt.Errorf("failed to clear token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Logged out")
			return nil
		},
	}
}
