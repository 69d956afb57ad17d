package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/lrstanley/girc"
	"github.com/techtribe/techtribe/internal/config"
	"github.com/techtribe/techtribe/internal/domain"
	"github.com/techtribe/techtribe/internal/hooks"
	"github.com/techtribe/techtribe/internal/logging"
	"github.com/techtribe/techtribe/internal/version"
)

// ErrNotConnected is returned by Announce before the IRC connection is up.
var ErrNotConnected = errors.New("irc: not connected")

// maxLineBytes keeps each PRIVMSG well under the 512 byte IRC line limit.
const maxLineBytes = 400

// IRCAnnouncer posts one-line notices to an operator IRC channel.
type IRCAnnouncer struct {
	cfg    config.IRCConfig
	client *girc.Client
	log    *logging.Logger

	mu      sync.RWMutex
	running bool
}

// NewIRCAnnouncer creates an announcer. Call Start to connect.
func NewIRCAnnouncer(cfg config.IRCConfig, log *logging.Logger) *IRCAnnouncer {
	port := cfg.Port
	if port == 0 {
		if cfg.UseTLS {
			port = 6697
		} else {
			port = 6667
		}
	}

	gircCfg := girc.Config{
		Server:     cfg.Server,
		Port:       port,
		Nick:       cfg.Nick,
		User:       cfg.Nick,
		Name:       "TechTribe notifier",
		SSL:        cfg.UseTLS,
		Version:    version.Product(),
		ServerPass: cfg.Password,
	}
	if cfg.UseTLS {
		gircCfg.TLSConfig = &tls.Config{ServerName: cfg.Server}
	}

	a := &IRCAnnouncer{cfg: cfg, client: girc.New(gircCfg), log: log.Sub("notify.irc")}
	a.client.Handlers.Add(girc.CONNECTED, func(c *girc.Client, _ girc.Event) {
		a.log.Info().Str("nick", c.GetNick()).Str("channel", cfg.Channel).Msg("connected to IRC")
		c.Cmd.Join(cfg.Channel)
	})
	a.client.Handlers.Add(girc.DISCONNECTED, func(*girc.Client, girc.Event) {
		a.log.Warn().Msg("disconnected from IRC")
	})
	return a
}

// Start connects and blocks until the connection ends or ctx is done.
func (a *IRCAnnouncer) Start(ctx context.Context) error {
	a.mu.Lock()
	a.running = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	a.log.Info().
		Str("server", a.cfg.Server).
		Str("nick", a.cfg.Nick).
		Bool("tls", a.cfg.UseTLS).
		Msg("connecting to IRC")

	errCh := make(chan error, 1)
	go func() { errCh <- a.client.Connect() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("irc connect: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.client.Close()
		return ctx.Err()
	}
}

// Stop quits the IRC session.
func (a *IRCAnnouncer) Stop() {
	if a.client.IsConnected() {
		a.client.Quit("TechTribe shutting down")
	}
}

// Running reports whether Start is in progress.
func (a *IRCAnnouncer) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// Announce sends text to the configured channel.
func (a *IRCAnnouncer) Announce(text string) error {
	if !a.client.IsConnected() {
		return ErrNotConnected
	}
	for _, line := range splitMessage(text, maxLineBytes) {
		a.client.Cmd.Message(a.cfg.Channel, line)
	}
	return nil
}

// Subscribe registers the announcer for new conversations and contact
// messages.
func (a *IRCAnnouncer) Subscribe(m *hooks.Manager) {
	m.On(hooks.EventConversationStarted, "irc", func(_ context.Context, p hooks.Payload) error {
		conv, ok := p.Data[hooks.KeyConversation].(domain.Conversation)
		if !ok {
			return nil
		}
		return a.Announce(formatConversation(conv))
	})
	m.On(hooks.EventContactReceived, "irc", func(_ context.Context, p hooks.Payload) error {
		c, ok := p.Data[hooks.KeyContact].(domain.ContactMessage)
		if !ok {
			return nil
		}
		return a.Announce(formatContact(c))
	})
}

func formatConversation(c domain.Conversation) string {
	return fmt.Sprintf("[chat] yeni söhbət: %s (%s)", oneLine(c.DisplayName), c.ID)
}

func formatContact(c domain.ContactMessage) string {
	return fmt.Sprintf("[contact] %s <%s>: %s", oneLine(c.Name), oneLine(c.Email), oneLine(c.Subject))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// splitMessage breaks text into lines of at most maxLen bytes without
// cutting a UTF-8 sequence. Blank lines are dropped.
func splitMessage(text string, maxLen int) []string {
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		for len(line) > maxLen {
			cut := maxLen
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = maxLen
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if strings.TrimSpace(line) != "" {
			chunks = append(chunks, line)
		}
	}
	return chunks
}
