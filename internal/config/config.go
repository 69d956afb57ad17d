package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// DefaultFallbackReply is sent by the assistant whenever the AI provider
// cannot produce an answer.
const DefaultFallbackReply = "Salam! TechTribe-a xoş gəlmisiniz. Sizə necə kömək edə bilərəm? " +
	"Veb-sayt paketlərimiz haqqında məlumat almaq və ya sifariş vermək üçün buradayam."

// DefaultPrices is the package price list from the public site.
func DefaultPrices() []PriceEntry {
	return []PriceEntry{
		{Name: "Biznes Sayt", Price: 499, Currency: "AZN"},
		{Name: "E-Ticarət", Price: 999, Currency: "AZN"},
		{Name: "Landing Səhifə", Price: 299, Currency: "AZN"},
		{Name: "Portfolio", Price: 399, Currency: "AZN"},
		{Name: "Korporativ", Price: 799, Currency: "AZN"},
		{Name: "Startup", Price: 599, Currency: "AZN"},
	}
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8001,
			Bind: "loopback",
		},
		Auth: AuthConfig{
			TokenTTLHours: 24,
		},
		Chat: ChatConfig{
			Provider:                "gemini",
			Model:                   "gemini-2.0-flash",
			ResponderTimeoutSeconds: 30,
			HistoryLimit:            20,
			TranscriptLimit:         200,
			DirectoryLimit:          100,
			Persona: PersonaConfig{
				BusinessName: "TechTribe",
				Language:     "Azərbaycan dili",
				Tone:         "dostcasına və peşəkar",
				MaxSentences: 3,
				Prices:       DefaultPrices(),
			},
			FallbackReply: DefaultFallbackReply,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}

// ResponderTimeout returns the configured AI call timeout.
func (c ChatConfig) ResponderTimeout() time.Duration {
	return time.Duration(c.ResponderTimeoutSeconds) * time.Second
}

// TokenTTL returns the lifetime of issued operator tokens.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}
