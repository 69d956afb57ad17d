package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/techtribe/techtribe/internal/config"
	"github.com/techtribe/techtribe/internal/notify"
)

func newGmailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gmail",
		Short: "Set up Gmail delivery of contact notifications",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "auth",
		Short: "Authorize the sender account and save its token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if cfg.Contact.GmailCredentialsFile == "" {
				return fmt.Errorf("contact.gmailCredentialsFile is not set")
			}
			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			tokenFile := gmailTokenFile(cfg.Contact)
			if err := notify.AuthorizeGmail(cmd.Context(), cfg.Contact.GmailCredentialsFile, tokenFile,
				cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", tokenFile)
			return nil
		},
	})
	return cmd
}
