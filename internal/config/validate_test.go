package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Auth.JWTSecret = "0123456789abcdef0123"
	cfg.Chat.APIKey = "test-key"
	return cfg
}

func issuePaths(issues []ValidationIssue) []string {
	var out []string
	for _, i := range issues {
		out = append(out, i.Path)
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_DefaultsNeedSecrets(t *testing.T) {
	cfg := Defaults()
	paths := issuePaths(Validate(&cfg))
	assert.Contains(t, paths, "auth.jwtSecret")
	assert.Contains(t, paths, "chat.apiKey")
}

func TestValidate_ProviderNoneNeedsNoKey(t *testing.T) {
	cfg := validConfig()
	cfg.Chat.Provider = "none"
	cfg.Chat.APIKey = ""
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_Issues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"negative port", func(c *Config) { c.Server.Port = -1 }, "server.port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad bind", func(c *Config) { c.Server.Bind = "tailnet" }, "server.bind"},
		{"custom bind without host", func(c *Config) { c.Server.Bind = "custom" }, "server.customBindHost"},
		{"tls without cert", func(c *Config) { c.Server.TLS.Enabled = true }, "server.tls"},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "auth.jwtSecret"},
		{"negative ttl", func(c *Config) { c.Auth.TokenTTLHours = -1 }, "auth.tokenTTLHours"},
		{"bad provider", func(c *Config) { c.Chat.Provider = "claude" }, "chat.provider"},
		{"negative timeout", func(c *Config) { c.Chat.ResponderTimeoutSeconds = -5 }, "chat.responderTimeoutSeconds"},
		{"negative history", func(c *Config) { c.Chat.HistoryLimit = -1 }, "chat.historyLimit"},
		{"email without credentials", func(c *Config) { c.Contact.NotifyEmail = "ops@techtribe.az" }, "contact.gmailCredentialsFile"},
		{"irc without server", func(c *Config) { c.Notify.IRC = &IRCConfig{Nick: "n", Channel: "#c"} }, "notify.irc.server"},
		{"irc without channel", func(c *Config) { c.Notify.IRC = &IRCConfig{Server: "s", Nick: "n"} }, "notify.irc.channel"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad console style", func(c *Config) { c.Logging.ConsoleStyle = "compact" }, "logging.consoleStyle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Contains(t, issuePaths(Validate(&cfg)), tt.path)
		})
	}
}

func TestValidationIssue_String(t *testing.T) {
	i := ValidationIssue{Path: "server.port", Message: "bad"}
	assert.Equal(t, "server.port: bad", i.String())
}
