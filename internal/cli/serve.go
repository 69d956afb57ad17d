package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/techtribe/techtribe/internal/chat"
	"github.com/techtribe/techtribe/internal/config"
	"github.com/techtribe/techtribe/internal/gateway"
	"github.com/techtribe/techtribe/internal/hooks"
	"github.com/techtribe/techtribe/internal/llm"
	"github.com/techtribe/techtribe/internal/logging"
	"github.com/techtribe/techtribe/internal/notify"
	"github.com/techtribe/techtribe/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}

			// The config file decides log output unless --log-level was given.
			if logLevel == "" {
				if log, err = logging.NewFromConfig(cfg.Logging); err != nil {
					return err
				}
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hookMgr := hooks.NewManager(log)
			defer hookMgr.Wait()

			catalogue := store.NewCatalogueStore(db)
			if inserted, _, err := catalogue.SeedIfEmpty(ctx, store.DemoCatalogue()); err != nil {
				log.Warn().Err(err).Msg("seeding catalogue")
			} else if inserted > 0 {
				log.Info().Int("count", inserted).Msg("empty catalogue seeded with demo packages")
			}

			chatSvc, err := newChatService(ctx, cfg, store.NewConversationStore(db), hookMgr)
			if err != nil {
				return err
			}
			authSvc, err := newAuthService(cfg, db)
			if err != nil {
				return err
			}

			opts := []gateway.ServerOption{
				gateway.WithHooks(hookMgr),
				gateway.WithHealthCheck(db.Ping),
				gateway.WithSeedData(store.DemoCatalogue()),
			}
			if n := newContactNotifier(ctx, cfg.Contact); n != nil {
				opts = append(opts, gateway.WithContactNotifier(n))
			}

			if cfg.Notify.IRC != nil {
				announcer := notify.NewIRCAnnouncer(*cfg.Notify.IRC, log)
				announcer.Subscribe(hookMgr)
				go func() {
					if err := announcer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
						log.Error().Err(err).Msg("IRC announcer stopped")
					}
				}()
				defer announcer.Stop()
			}

			srv := gateway.New(cfg, log, gateway.Deps{
				Chat:      chatSvc,
				Auth:      authSvc,
				Catalogue: catalogue,
				Contacts:  store.NewContactStore(db),
				Stats:     db,
			}, opts...)

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")

	return cmd
}

// newChatService wires the chat core to the configured AI provider. With
// provider "none" every reply is the fallback text.
func newChatService(ctx context.Context, cfg config.Config, convs *store.ConversationStore, events hooks.Emitter) (*chat.Service, error) {
	client, err := llm.FromConfig(ctx, cfg.Chat)
	if err != nil {
		return nil, err
	}

	opts := []chat.GatewayOption{
		chat.WithTimeout(cfg.Chat.ResponderTimeout()),
		chat.WithHistoryLimit(cfg.Chat.HistoryLimit),
	}
	if client != nil {
		persona := chat.PersonaFromConfig(cfg.Chat.Persona)
		opts = append(opts, chat.WithPrimary(chat.NewLLMResponder(client, persona)))
		log.Info().Str("provider", client.Name()).Str("model", cfg.Chat.Model).Msg("AI responder enabled")
	} else {
		log.Warn().Msg("no AI provider configured, chat replies use the fallback text")
	}

	responder := chat.NewGateway(convs, chat.NewFallbackResponder(cfg.Chat.FallbackReply), log, opts...)
	return chat.NewService(convs, responder, events, log, chat.Limits{
		Transcript: cfg.Chat.TranscriptLimit,
		Directory:  cfg.Chat.DirectoryLimit,
	}), nil
}

// newContactNotifier returns the Gmail notifier when contact e-mail is
// configured, or nil. Setup failures are logged; the server runs without
// e-mail rather than refusing to start.
func newContactNotifier(ctx context.Context, cfg config.ContactConfig) gateway.ContactNotifier {
	if cfg.NotifyEmail == "" || cfg.GmailCredentialsFile == "" {
		log.Info().Msg("contact e-mail not configured")
		return nil
	}
	mailer, err := notify.NewGmailMailer(ctx, cfg.GmailCredentialsFile, gmailTokenFile(cfg), cfg.SenderEmail)
	if err != nil {
		log.Warn().Err(err).Msg("contact e-mail disabled")
		return nil
	}
	return notify.NewContactNotifier(mailer, cfg.NotifyEmail, log)
}
