package chat

import (
	"fmt"
	"strings"

	"github.com/techtribe/techtribe/internal/config"
)

// Price is one entry of the price list the assistant may quote.
type Price struct {
	Name     string
	Amount   int
	Currency string
}

// Persona is the assistant's fixed identity. It is built once at startup and
// never mutated, so concurrent requests share it freely.
type Persona struct {
	businessName string
	language     string
	tone         string
	maxSentences int
	prices       []Price
	prompt       string
}

// NewPersona builds a persona and renders its system prompt.
func NewPersona(businessName, language, tone string, maxSentences int, prices []Price) Persona {
	p := Persona{
		businessName: businessName,
		language:     language,
		tone:         tone,
		maxSentences: maxSentences,
		prices:       append([]Price(nil), prices...),
	}
	p.prompt = buildSystemPrompt(p)
	return p
}

// PersonaFromConfig builds the persona described by chat.persona.
func PersonaFromConfig(cfg config.PersonaConfig) Persona {
	prices := make([]Price, 0, len(cfg.Prices))
	for _, e := range cfg.Prices {
		prices = append(prices, Price{Name: e.Name, Amount: e.Price, Currency: e.Currency})
	}
	return NewPersona(cfg.BusinessName, cfg.Language, cfg.Tone, cfg.MaxSentences, prices)
}

// SystemPrompt returns the rendered system instruction.
func (p Persona) SystemPrompt() string { return p.prompt }

// BusinessName returns the name the assistant speaks for.
func (p Persona) BusinessName() string { return p.businessName }

// Prices returns a copy of the price list.
func (p Persona) Prices() []Price { return append([]Price(nil), p.prices...) }

func buildSystemPrompt(p Persona) string {
	var b strings.Builder

	// Identity
	fmt.Fprintf(&b, "Sən %s-ın süni intellekt köməkçisisən. ", p.businessName)
	fmt.Fprintf(&b, "%s professional veb-saytlar hazırlayır və hazır veb-sayt paketləri satır. ", p.businessName)
	b.WriteString("Müştərilərə kömək et, suallarına cavab ver.\n\n")

	// Guidelines
	b.WriteString("Qaydalar:\n")
	if p.language != "" {
		fmt.Fprintf(&b, "- Hər zaman %s cavab ver.\n", languageInstruction(p.language))
	}
	if p.tone != "" {
		fmt.Fprintf(&b, "- Tonun: %s.\n", p.tone)
	}
	if p.maxSentences > 0 {
		fmt.Fprintf(&b, "- Cavablarını qısa və aydın tut (ən çox %d cümlə).\n", p.maxSentences)
	}

	// Price list
	if len(p.prices) > 0 {
		fmt.Fprintf(&b, "\n%s paketləri:\n", p.businessName)
		for _, pr := range p.prices {
			fmt.Fprintf(&b, "- %s: %d %s\n", pr.Name, pr.Amount, pr.Currency)
		}
	}

	return b.String()
}

// languageInstruction turns "Azərbaycan dili" into "Azərbaycan dilində".
func languageInstruction(lang string) string {
	if strings.HasSuffix(lang, " dili") {
		return strings.TrimSuffix(lang, " dili") + " dilində"
	}
	return lang + " dilində"
}
