package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techtribe/techtribe/internal/config"
	"google.golang.org/genai"
)

// --- Mock tests ---

func TestMockClientDefault(t *testing.T) {
	m := &MockClient{ProviderName: "mock"}
	assert.Equal(t, "mock", m.Name())

	resp, err := m.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "mock response", resp.Content)
}

func TestMockClientCustom(t *testing.T) {
	boom := errors.New("boom")
	m := &MockClient{CompleteFunc: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
		return nil, boom
	}}
	_, err := m.Complete(context.Background(), CompletionRequest{})
	assert.ErrorIs(t, err, boom)
}

// --- Gemini conversion tests ---

func TestToGeminiContents(t *testing.T) {
	contents := toGeminiContents([]Message{
		{Role: RoleUser, Content: "Salam"},
		{Role: RoleAssistant, Content: "Xoş gəlmisiniz"},
		{Role: RoleAssistant, Content: "Necə kömək edə bilərəm?"},
		{Role: RoleUser, Content: "   "},
		{Role: RoleUser, Content: "Qiymətlər?"},
	})

	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	assert.Equal(t, "Necə kömək edə bilərəm?", contents[1].Parts[1].Text)
	assert.Equal(t, "user", contents[2].Role)
	assert.Equal(t, "Qiymətlər?", contents[2].Parts[0].Text)
}

func TestFromGeminiResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "Biznes Sayt "},
				{Text: "499 AZN-dir."},
			}},
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     12,
			CandidatesTokenCount: 7,
		},
	}

	out, err := fromGeminiResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "Biznes Sayt 499 AZN-dir.", out.Content)
	assert.Equal(t, string(genai.FinishReasonStop), out.StopReason)
	assert.Equal(t, 12, out.Usage.InputTokens)
	assert.Equal(t, 7, out.Usage.OutputTokens)
}

func TestFromGeminiResponseEmpty(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"nil", nil},
		{"no candidates", &genai.GenerateContentResponse{}},
		{"nil content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}},
		{"blank text", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "  "}}},
		}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fromGeminiResponse(tt.resp)
			assert.ErrorIs(t, err, ErrEmptyResponse)
		})
	}
}

func TestGeminiBuildConfig(t *testing.T) {
	g := &GeminiClient{model: defaultGeminiModel, maxTokens: 256}
	temp := 0.4
	cfg := g.buildConfig(CompletionRequest{System: "persona", Temperature: &temp})

	assert.Equal(t, int32(256), cfg.MaxOutputTokens)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "persona", cfg.SystemInstruction.Parts[0].Text)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.4, float64(*cfg.Temperature), 0.0001)

	cfg = g.buildConfig(CompletionRequest{MaxTokens: 64})
	assert.Equal(t, int32(64), cfg.MaxOutputTokens)
	assert.Nil(t, cfg.SystemInstruction)
}

// --- Provider selection ---

func TestFromConfig(t *testing.T) {
	ctx := context.Background()

	c, err := FromConfig(ctx, config.ChatConfig{Provider: "none"})
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = FromConfig(ctx, config.ChatConfig{Provider: "gemini"})
	assert.Error(t, err)

	_, err = FromConfig(ctx, config.ChatConfig{Provider: "openai"})
	assert.Error(t, err)

	c, err = FromConfig(ctx, config.ChatConfig{Provider: "gemini", APIKey: "test-key", Model: "gemini-test"})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "gemini", c.Name())
	assert.Equal(t, "gemini-test", c.(*GeminiClient).model)
}
