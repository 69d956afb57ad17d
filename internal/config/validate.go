package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// minSecretLen is the shortest accepted HS256 signing secret.
const minSecretLen = 16

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	// Server
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		add("server.port", "port must be 0-65535, got %d", cfg.Server.Port)
	}
	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		add("server.bind", "must be one of %v, got %q", validBinds, cfg.Server.Bind)
	}
	if cfg.Server.Bind == "custom" && cfg.Server.CustomBindHost == "" {
		add("server.customBindHost", "required when bind: custom")
	}
	if cfg.Server.TLS.Enabled && (cfg.Server.TLS.CertPath == "" || cfg.Server.TLS.KeyPath == "") {
		add("server.tls", "certPath and keyPath are required when TLS is enabled")
	}

	// Auth
	if cfg.Auth.JWTSecret == "" {
		add("auth.jwtSecret", "required")
	} else if len(cfg.Auth.JWTSecret) < minSecretLen {
		add("auth.jwtSecret", "must be at least %d characters", minSecretLen)
	}
	if cfg.Auth.TokenTTLHours < 0 {
		add("auth.tokenTTLHours", "must not be negative, got %d", cfg.Auth.TokenTTLHours)
	}

	// Chat
	validProviders := []string{"gemini", "none"}
	if cfg.Chat.Provider != "" && !slices.Contains(validProviders, cfg.Chat.Provider) {
		add("chat.provider", "must be one of %v, got %q", validProviders, cfg.Chat.Provider)
	}
	if cfg.Chat.Provider == "gemini" && cfg.Chat.APIKey == "" {
		add("chat.apiKey", "required when provider: gemini")
	}
	if cfg.Chat.ResponderTimeoutSeconds < 0 {
		add("chat.responderTimeoutSeconds", "must not be negative, got %d", cfg.Chat.ResponderTimeoutSeconds)
	}
	for _, lim := range []struct {
		path string
		v    int
	}{
		{"chat.historyLimit", cfg.Chat.HistoryLimit},
		{"chat.transcriptLimit", cfg.Chat.TranscriptLimit},
		{"chat.directoryLimit", cfg.Chat.DirectoryLimit},
	} {
		if lim.v < 0 {
			add(lim.path, "must not be negative, got %d", lim.v)
		}
	}

	// Contact
	if cfg.Contact.NotifyEmail != "" && cfg.Contact.GmailCredentialsFile == "" {
		add("contact.gmailCredentialsFile", "required when notifyEmail is set")
	}

	// IRC (only if configured)
	if irc := cfg.Notify.IRC; irc != nil {
		if irc.Server == "" {
			add("notify.irc.server", "server is required")
		}
		if irc.Nick == "" {
			add("notify.irc.nick", "nick is required")
		}
		if irc.Channel == "" {
			add("notify.irc.channel", "channel is required")
		}
		if irc.Port < 0 || irc.Port > 65535 {
			add("notify.irc.port", "port must be 0-65535, got %d", irc.Port)
		}
	}

	// Logging
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}
	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		add("logging.consoleStyle", "must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle)
	}

	return issues
}
