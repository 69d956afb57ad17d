// Package cli implements the techtribe command line.
package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/techtribe/techtribe/internal/auth"
	"github.com/techtribe/techtribe/internal/config"
	"github.com/techtribe/techtribe/internal/logging"
	"github.com/techtribe/techtribe/internal/store"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "techtribe",
		Short: "TechTribe website backend",
		Long:  "TechTribe serves the website API: support chat with an AI assistant, the package catalogue, the contact inbox and the operator dashboard.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			level := logLevel
			if level == "" {
				level = "info"
			}
			log = logging.New(nil, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.techtribe/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newGmailCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// openDB opens the configured database, creating the data directory for
// the default location.
func openDB(cfg config.Config) (*store.DB, error) {
	dbPath := paths.DatabasePath(cfg.Database)
	if dbPath != ":memory:" {
		if err := paths.EnsureDirs(); err != nil {
			return nil, fmt.Errorf("creating directories: %w", err)
		}
	}
	db, err := store.Open(dbPath, log)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}
	return db, nil
}

// newAuthService builds the operator auth service. A missing JWT secret is
// reported here so commands that only read data can still run.
func newAuthService(cfg config.Config, db *store.DB) (*auth.Service, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwtSecret is not set (config or TECHTRIBE_JWT_SECRET)")
	}
	return auth.NewService(
		store.NewAdminStore(db),
		auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret)),
		cfg.Auth.TokenTTL(),
		cfg.Auth.AdminSecret,
		log,
	), nil
}

// gmailTokenFile returns the configured token path or the default under the
// credentials directory.
func gmailTokenFile(cfg config.ContactConfig) string {
	if cfg.GmailTokenFile != "" {
		return cfg.GmailTokenFile
	}
	return filepath.Join(paths.Credentials, "gmail-token.json")
}

// shortTimeout is used by one-shot commands.
const shortTimeout = 30 * time.Second
