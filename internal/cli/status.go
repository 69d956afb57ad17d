package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/techtribe/techtribe/internal/config"
	"github.com/techtribe/techtribe/internal/store"
	"github.com/techtribe/techtribe/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show TechTribe status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "TechTribe %s (commit %s)\n\n", version.Version, version.Commit)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:   error loading: %v\n", err)
				return nil
			}
			dbPath := paths.DatabasePath(cfg.Database)

			fmt.Fprintf(out, "Config:   %s\n", paths.Config)
			fmt.Fprintf(out, "Database: %s\n", dbPath)
			fmt.Fprintf(out, "Logs:     %s\n", paths.Logs)
			fmt.Fprintln(out)

			fmt.Fprintf(out, "Server:   port=%d bind=%s tls=%v\n", cfg.Server.Port, cfg.Server.Bind, cfg.Server.TLS.Enabled)

			provider := cfg.Chat.Provider
			if provider == "" {
				provider = "none"
			}
			fmt.Fprintf(out, "Chat:     provider=%s model=%s timeout=%s\n", provider, cfg.Chat.Model, cfg.Chat.ResponderTimeout())

			if cfg.Contact.NotifyEmail != "" {
				fmt.Fprintf(out, "E-mail:   to=%s via Gmail\n", cfg.Contact.NotifyEmail)
			} else {
				fmt.Fprintln(out, "E-mail:   (not configured)")
			}
			if irc := cfg.Notify.IRC; irc != nil {
				fmt.Fprintf(out, "IRC:      server=%s nick=%s channel=%s tls=%v\n", irc.Server, irc.Nick, irc.Channel, irc.UseTLS)
			} else {
				fmt.Fprintln(out, "IRC:      (not configured)")
			}

			if _, err := os.Stat(dbPath); err == nil {
				db, err := store.Open(dbPath, log)
				if err != nil {
					fmt.Fprintf(out, "\nDatabase error: %v\n", err)
				} else {
					defer db.Close()
					ctx, cancel := context.WithTimeout(cmd.Context(), shortTimeout)
					defer cancel()
					if st, err := db.Stats(ctx); err == nil {
						fmt.Fprintf(out, "\nProducts: %d  Messages: %d (%d unread)  Chats: %d  Operators: %d\n",
							st.TotalProducts, st.TotalMessages, st.UnreadMessages, st.TotalChats, st.TotalUsers)
					}
				}
			} else {
				fmt.Fprintln(out, "\nDatabase: not created yet")
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
			}

			return nil
		},
	}

	return cmd
}
