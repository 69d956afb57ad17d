package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techtribe/techtribe/internal/config"
	"github.com/techtribe/techtribe/internal/domain"
	"github.com/techtribe/techtribe/internal/llm"
)

func TestGatewayNoPrimary(t *testing.T) {
	gw := NewGateway(nil, NewFallbackResponder(fallbackText), testLogger())
	assert.Equal(t, fallbackText, gw.Reply(context.Background(), visitorTurn("hi")))
}

func TestGatewayReturnsPrimaryVerbatim(t *testing.T) {
	reply := "  **Salam!**\n"
	gw := NewGateway(nil, NewFallbackResponder(fallbackText), testLogger(),
		WithPrimary(responderFunc(func(context.Context, Turn) (string, error) { return reply, nil })))
	assert.Equal(t, reply, gw.Reply(context.Background(), visitorTurn("hi")))
}

func TestGatewayFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		primary Responder
	}{
		{"error", responderFunc(func(context.Context, Turn) (string, error) {
			return "", errors.New("network down")
		})},
		{"empty reply", responderFunc(func(context.Context, Turn) (string, error) {
			return " \n", nil
		})},
		{"panic", responderFunc(func(context.Context, Turn) (string, error) {
			panic("boom")
		})},
		{"blocks until cancelled", responderFunc(func(ctx context.Context, _ Turn) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})},
		{"ignores cancellation", responderFunc(func(context.Context, Turn) (string, error) {
			time.Sleep(200 * time.Millisecond)
			return "too late", nil
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := NewGateway(nil, NewFallbackResponder(fallbackText), testLogger(),
				WithPrimary(tt.primary), WithTimeout(20*time.Millisecond))

			start := time.Now()
			assert.Equal(t, fallbackText, gw.Reply(context.Background(), visitorTurn("hi")))
			assert.Less(t, time.Since(start), 150*time.Millisecond)
		})
	}
}

func TestTryPrimaryWrapsUpstreamError(t *testing.T) {
	gw := NewGateway(nil, NewFallbackResponder(fallbackText), testLogger(),
		WithPrimary(responderFunc(func(context.Context, Turn) (string, error) {
			return "", errors.New("quota")
		})))

	_, err := gw.tryPrimary(context.Background(), visitorTurn("hi"))
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "quota")
}

func TestFallbackResponderDefault(t *testing.T) {
	f := NewFallbackResponder("")
	assert.Equal(t, config.DefaultFallbackReply, f.Text())

	text, err := f.Respond(context.Background(), Turn{})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultFallbackReply, text)
}

func TestGatewayPassesRecentHistory(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	conv, _, err := NewResolver(st, nil, testLogger()).Resolve(ctx, "s1", "Ali")
	require.NoError(t, err)

	var last domain.Message
	for _, m := range []struct {
		sender  domain.Sender
		content string
	}{
		{domain.SenderVisitor, "a"},
		{domain.SenderBot, "b"},
		{domain.SenderAdmin, "c"},
		{domain.SenderVisitor, "d"},
	} {
		last, err = st.Append(ctx, conv.ID, m.sender, m.content)
		require.NoError(t, err)
	}

	persona := NewPersona("TechTribe", "Azərbaycan dili", "", 3, nil)
	var got llm.CompletionRequest
	mock := &llm.MockClient{
		ProviderName: "mock",
		CompleteFunc: func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			got = req
			return &llm.CompletionResponse{Content: "ok"}, nil
		},
	}

	tests := []struct {
		name  string
		limit int
		want  []llm.Message
	}{
		{"all", 20, []llm.Message{
			{Role: llm.RoleUser, Content: "a"},
			{Role: llm.RoleAssistant, Content: "b"},
			{Role: llm.RoleAssistant, Content: "c"},
			{Role: llm.RoleUser, Content: "d"},
		}},
		{"bounded", 2, []llm.Message{
			{Role: llm.RoleAssistant, Content: "b"},
			{Role: llm.RoleAssistant, Content: "c"},
			{Role: llm.RoleUser, Content: "d"},
		}},
		{"none", 0, []llm.Message{
			{Role: llm.RoleUser, Content: "d"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := NewGateway(st, NewFallbackResponder(fallbackText), testLogger(),
				WithPrimary(NewLLMResponder(mock, persona)), WithHistoryLimit(tt.limit))

			assert.Equal(t, "ok", gw.Reply(ctx, last))
			assert.Equal(t, persona.SystemPrompt(), got.System)
			assert.Equal(t, tt.want, got.Messages)
		})
	}
}

func TestGatewayHistoryStopsAtVisitorMessage(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	conv, _, err := NewResolver(st, nil, testLogger()).Resolve(ctx, "s1", "Ali")
	require.NoError(t, err)

	_, err = st.Append(ctx, conv.ID, domain.SenderBot, "welcome")
	require.NoError(t, err)
	visitor, err := st.Append(ctx, conv.ID, domain.SenderVisitor, "price?")
	require.NoError(t, err)
	// An operator answers before the responder has loaded history.
	_, err = st.Append(ctx, conv.ID, domain.SenderAdmin, "one moment")
	require.NoError(t, err)

	var got Turn
	gw := NewGateway(st, NewFallbackResponder(fallbackText), testLogger(),
		WithPrimary(responderFunc(func(_ context.Context, turn Turn) (string, error) {
			got = turn
			return "ok", nil
		})))

	assert.Equal(t, "ok", gw.Reply(ctx, visitor))
	assert.Equal(t, conv.ID, got.ConversationID)
	assert.Equal(t, "price?", got.Message)
	assert.Equal(t, []string{"welcome"}, contents(got.History))
}

func TestLLMResponderError(t *testing.T) {
	mock := &llm.MockClient{
		ProviderName: "mock",
		CompleteFunc: func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, llm.ErrEmptyResponse
		},
	}
	_, err := NewLLMResponder(mock, NewPersona("X", "", "", 0, nil)).Respond(context.Background(), Turn{Message: "hi"})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
	assert.True(t, strings.HasPrefix(err.Error(), "mock: "))
}

func TestPersonaFromConfig(t *testing.T) {
	p := PersonaFromConfig(config.Defaults().Chat.Persona)
	prompt := p.SystemPrompt()

	assert.Equal(t, "TechTribe", p.BusinessName())
	assert.Contains(t, prompt, "TechTribe")
	assert.Contains(t, prompt, "Azərbaycan dilində")
	assert.Contains(t, prompt, "ən çox 3 cümlə")
	assert.Contains(t, prompt, "- Biznes Sayt: 499 AZN")
	assert.Contains(t, prompt, "- E-Ticarət: 999 AZN")
	assert.Len(t, p.Prices(), 6)
}

func TestPersonaIsImmutable(t *testing.T) {
	prices := []Price{{Name: "A", Amount: 1, Currency: "AZN"}}
	p := NewPersona("X", "", "", 0, prices)
	prompt := p.SystemPrompt()

	prices[0].Name = "changed"
	got := p.Prices()
	got[0].Name = "changed again"

	assert.Equal(t, "A", p.Prices()[0].Name)
	assert.Equal(t, prompt, p.SystemPrompt())
}

func TestLanguageInstruction(t *testing.T) {
	assert.Equal(t, "Azərbaycan dilində", languageInstruction("Azərbaycan dili"))
	assert.Equal(t, "English dilində", languageInstruction("English"))
}

func visitorTurn(content string) domain.Message {
	return domain.Message{ID: "m1", ConversationID: "c1", Sender: domain.SenderVisitor, Content: content, Seq: 1}
}
