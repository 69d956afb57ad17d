package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/techtribe/techtribe/internal/config"
	"github.com/techtribe/techtribe/internal/domain"
	"github.com/techtribe/techtribe/internal/llm"
	"github.com/techtribe/techtribe/internal/logging"
)

// ErrUpstreamUnavailable covers every way the automated responder can fail:
// transport errors, timeouts, empty answers and panics.
var ErrUpstreamUnavailable = errors.New("chat: responder unavailable")

// Turn is the input to a Responder.
type Turn struct {
	ConversationID string
	// History holds prior messages, oldest first, not including Message.
	History []domain.Message
	Message string
}

// Responder produces the assistant's side of one exchange.
type Responder interface {
	Respond(ctx context.Context, turn Turn) (string, error)
}

// LLMResponder answers through a language model using the business persona.
type LLMResponder struct {
	client  llm.Client
	persona Persona
}

// NewLLMResponder creates a responder backed by client.
func NewLLMResponder(client llm.Client, persona Persona) *LLMResponder {
	return &LLMResponder{client: client, persona: persona}
}

// Respond sends the persona prompt, the recent history and the new message.
func (r *LLMResponder) Respond(ctx context.Context, turn Turn) (string, error) {
	msgs := make([]llm.Message, 0, len(turn.History)+1)
	for _, m := range turn.History {
		msgs = append(msgs, llm.Message{Role: roleFor(m.Sender), Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: turn.Message})

	resp, err := r.client.Complete(ctx, llm.CompletionRequest{
		System:   r.persona.SystemPrompt(),
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", r.client.Name(), err)
	}
	return resp.Content, nil
}

// Operator replies are shown to the model as its own earlier turns.
func roleFor(s domain.Sender) string {
	if s == domain.SenderVisitor {
		return llm.RoleUser
	}
	return llm.RoleAssistant
}

// FallbackResponder always answers with the same text.
type FallbackResponder struct {
	text string
}

// NewFallbackResponder returns a responder that never fails. Empty text
// selects the default greeting.
func NewFallbackResponder(text string) FallbackResponder {
	if strings.TrimSpace(text) == "" {
		text = config.DefaultFallbackReply
	}
	return FallbackResponder{text: text}
}

// Respond returns the fixed text.
func (f FallbackResponder) Respond(context.Context, Turn) (string, error) { return f.text, nil }

// Text returns the fixed reply.
func (f FallbackResponder) Text() string { return f.text }

// HistoryReader loads the messages stored before a given ledger position.
type HistoryReader interface {
	HistoryBefore(ctx context.Context, conversationID string, seq int64, limit int) ([]domain.Message, error)
}

// Gateway calls the primary responder and substitutes the fallback text on
// any failure. Reply never returns an error.
type Gateway struct {
	primary      Responder
	fallback     FallbackResponder
	history      HistoryReader
	timeout      time.Duration
	historyLimit int
	log          *logging.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithPrimary sets the responder tried first. Without one every reply is
// the fallback text.
func WithPrimary(r Responder) GatewayOption {
	return func(g *Gateway) { g.primary = r }
}

// WithTimeout bounds each primary call.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithHistoryLimit sets how many prior messages the primary sees.
func WithHistoryLimit(n int) GatewayOption {
	return func(g *Gateway) {
		if n >= 0 {
			g.historyLimit = n
		}
	}
}

// NewGateway creates a responder gateway.
func NewGateway(history HistoryReader, fallback FallbackResponder, log *logging.Logger, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		fallback:     fallback,
		history:      history,
		timeout:      30 * time.Second,
		historyLimit: 20,
		log:          log.Sub("chat.responder"),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Reply answers the stored visitor message. It returns the primary
// responder's text verbatim, or the fallback text if the primary is missing
// or fails in any way.
func (g *Gateway) Reply(ctx context.Context, visitor domain.Message) string {
	if g.primary == nil {
		return g.fallback.Text()
	}

	start := time.Now()
	text, err := g.tryPrimary(ctx, visitor)
	if err != nil {
		g.log.Warn().
			Str("conversation", visitor.ConversationID).
			Dur("elapsed", time.Since(start)).
			Err(err).
			Msg("responder failed, using fallback reply")
		return g.fallback.Text()
	}

	g.log.Debug().
		Str("conversation", visitor.ConversationID).
		Dur("elapsed", time.Since(start)).
		Int("chars", len(text)).
		Msg("responder answered")
	return text
}

func (g *Gateway) tryPrimary(ctx context.Context, visitor domain.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()

		history, err := g.recentHistory(ctx, visitor)
		if err != nil {
			done <- result{err: fmt.Errorf("loading history: %w", err)}
			return
		}
		text, err := g.primary.Respond(ctx, Turn{
			ConversationID: visitor.ConversationID,
			History:        history,
			Message:        visitor.Content,
		})
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, r.err)
		}
		if strings.TrimSpace(r.text) == "" {
			return "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, llm.ErrEmptyResponse)
		}
		return r.text, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, ctx.Err())
	}
}

// recentHistory returns the messages stored before the visitor's. Anything
// appended after it, such as an operator reply, belongs to a later turn.
func (g *Gateway) recentHistory(ctx context.Context, visitor domain.Message) ([]domain.Message, error) {
	if g.history == nil || g.historyLimit == 0 {
		return nil, nil
	}
	return g.history.HistoryBefore(ctx, visitor.ConversationID, visitor.Seq, g.historyLimit)
}
