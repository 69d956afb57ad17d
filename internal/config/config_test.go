package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 8001, cfg.Server.Port)
	assert.Equal(t, "loopback", cfg.Server.Bind)
	assert.Equal(t, 24, cfg.Auth.TokenTTLHours)
	assert.Equal(t, "gemini", cfg.Chat.Provider)
	assert.Equal(t, 30, cfg.Chat.ResponderTimeoutSeconds)
	assert.Equal(t, 20, cfg.Chat.HistoryLimit)
	assert.Equal(t, 200, cfg.Chat.TranscriptLimit)
	assert.Equal(t, 100, cfg.Chat.DirectoryLimit)
	assert.Equal(t, DefaultFallbackReply, cfg.Chat.FallbackReply)
	assert.Len(t, cfg.Chat.Persona.Prices, 6)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "pretty", cfg.Logging.ConsoleStyle)
}

func TestDurations(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 30*time.Second, cfg.Chat.ResponderTimeout())
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("TECHTRIBE_PORT", "")
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	// Should return defaults
	assert.Equal(t, 8001, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadValidYAML(t *testing.T) {
	t.Setenv("TECHTRIBE_PORT", "")
	t.Setenv("TECHTRIBE_LOG_LEVEL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
server:
  port: 9999
  bind: lan
  allowedOrigins:
    - "https://techtribe.az"
auth:
  jwtSecret: a-very-long-signing-secret
  adminSecret: let-me-in
chat:
  apiKey: key-123
  historyLimit: 10
  persona:
    businessName: Acme
    prices:
      - name: Basic
        price: 100
notify:
  irc:
    server: irc.libera.chat
    nick: techtribe
    channel: "#ops"
    useTLS: true
logging:
  level: debug
  consoleStyle: json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "lan", cfg.Server.Bind)
	assert.Equal(t, []string{"https://techtribe.az"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "a-very-long-signing-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "let-me-in", cfg.Auth.AdminSecret)
	assert.Equal(t, 24, cfg.Auth.TokenTTLHours)
	assert.Equal(t, "key-123", cfg.Chat.APIKey)
	assert.Equal(t, 10, cfg.Chat.HistoryLimit)
	assert.Equal(t, 200, cfg.Chat.TranscriptLimit)
	assert.Equal(t, "Acme", cfg.Chat.Persona.BusinessName)
	require.Len(t, cfg.Chat.Persona.Prices, 1)
	assert.Equal(t, "AZN", cfg.Chat.Persona.Prices[0].Currency)
	assert.Equal(t, 3, cfg.Chat.Persona.MaxSentences)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.ConsoleStyle)

	require.NotNil(t, cfg.Notify.IRC)
	assert.Equal(t, 6697, cfg.Notify.IRC.Port)
	assert.Equal(t, "#ops", cfg.Notify.IRC.Channel)

	assert.Empty(t, Validate(&cfg))
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600))

	t.Setenv("TECHTRIBE_PORT", "7000")
	t.Setenv("TECHTRIBE_BIND", "lan")
	t.Setenv("TECHTRIBE_LOG_LEVEL", "DEBUG")
	t.Setenv("TECHTRIBE_JWT_SECRET", "from-env-secret-value")
	t.Setenv("TECHTRIBE_LLM_API_KEY", "env-key")
	t.Setenv("TECHTRIBE_DB_PATH", "/tmp/tt.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "lan", cfg.Server.Bind)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "from-env-secret-value", cfg.Auth.JWTSecret)
	assert.Equal(t, "env-key", cfg.Chat.APIKey)
	assert.Equal(t, "/tmp/tt.db", cfg.Database.Path)
}

func TestLoadEnvOverrideInvalidPort(t *testing.T) {
	t.Setenv("TECHTRIBE_PORT", "not-a-number")
	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 8001, cfg.Server.Port)
}

func TestLoadExpandsSecrets(t *testing.T) {
	t.Setenv("TECHTRIBE_JWT_SECRET", "")
	t.Setenv("TECHTRIBE_LLM_API_KEY", "")
	t.Setenv("TT_TEST_JWT", "expanded-jwt-secret-value")
	t.Setenv("TT_TEST_IRC", "irc-pass")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
auth:
  jwtSecret: ${TT_TEST_JWT}
chat:
  apiKey: ${TT_TEST_UNSET_VAR}
notify:
  irc:
    server: irc.example.com
    nick: bot
    channel: "#x"
    password: ${TT_TEST_IRC}
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded-jwt-secret-value", cfg.Auth.JWTSecret)
	assert.Equal(t, "${TT_TEST_UNSET_VAR}", cfg.Chat.APIKey)
	assert.Equal(t, "irc-pass", cfg.Notify.IRC.Password)
	assert.Equal(t, 6667, cfg.Notify.IRC.Port)
}

func TestLoadRawAndSaveRaw(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	raw, err := LoadRaw(path)
	require.NoError(t, err)
	assert.Empty(t, raw)

	SetValueAtPath(raw, []string{"server", "port"}, 8080)
	require.NoError(t, SaveRaw(path, raw))

	again, err := LoadRaw(path)
	require.NoError(t, err)
	v, ok := GetValueAtPath(again, []string{"server", "port"})
	require.True(t, ok)
	assert.Equal(t, 8080, v)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Message: "boom"}
	assert.Equal(t, "config: boom", err.Error())
}
