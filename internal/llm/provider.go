package llm

import (
	"context"
	"fmt"

	"github.com/techtribe/techtribe/internal/config"
)

// FromConfig builds the client selected by chat.provider. Provider "none"
// yields a nil Client, which leaves the assistant on its fallback reply.
func FromConfig(ctx context.Context, cfg config.ChatConfig) (Client, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm: gemini provider requires chat.apiKey")
		}
		c, err := NewGeminiClient(ctx, cfg.APIKey, WithGeminiModel(cfg.Model))
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
