package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/techtribe/techtribe/internal/config"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage operator accounts",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminTokenCmd())
	return cmd
}

func newAdminCreateCmd() *cobra.Command {
	var (
		name     string
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an operator account",
		Long:  "Create an operator account without the admin secret. Reads the password from stdin when --password is omitted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := newAuthService(cfg, db)
			if err != nil {
				return err
			}

			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), shortTimeout)
			defer cancel()
			user, err := svc.CreateAdmin(ctx, name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created operator %s <%s> (id %s)\n", user.Name, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login e-mail")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newAdminTokenCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a fresh API token for an operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := newAuthService(cfg, db)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), shortTimeout)
			defer cancel()
			token, err := svc.Token(ctx, email)
			if err != nil {
				return fmt.Errorf("operator %q: %w", email, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "operator e-mail")
	cmd.MarkFlagRequired("email")
	return cmd
}

