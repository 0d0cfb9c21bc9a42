package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/edgard/sketchbot/internal/config"
)

type fakeGenerator struct {
	calls  []string
	resp   *genai.GenerateContentResponse
	err    error
	config *genai.GenerateContentConfig
	prompt string

	hasDeadline bool
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, model)
	_, f.hasDeadline = ctx.Deadline()
	f.config = cfg
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}, Role: genai.RoleModel},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{resp: textResponse("  a portrait  ")}
	c := newClient(gen, nil, time.Minute, quietLogger())

	resp, err := c.Generate(context.Background(), "describe", ModelConfig{
		Models:      []string{"gemini-2.5-flash"},
		MaxTokens:   512,
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "a portrait", resp.Text)
	assert.Equal(t, "gemini-2.5-flash", resp.Model)
	assert.Equal(t, "describe", gen.prompt)
	require.NotNil(t, gen.config)
	assert.Equal(t, int32(512), gen.config.MaxOutputTokens)
	require.NotNil(t, gen.config.Temperature)
	assert.InDelta(t, 0.3, *gen.config.Temperature, 1e-6)
	assert.Len(t, gen.config.SafetySettings, 4)
}

func TestGenerateDeadline(t *testing.T) {
	t.Parallel()

	mc := ModelConfig{Models: []string{"gemini-2.5-flash"}}

	unbounded := &fakeGenerator{resp: textResponse("ok")}
	_, err := newClient(unbounded, nil, 0, quietLogger()).Generate(context.Background(), "p", mc)
	require.NoError(t, err)
	assert.False(t, unbounded.hasDeadline, "zero timeout leaves the call without a deadline")

	bounded := &fakeGenerator{resp: textResponse("ok")}
	_, err = newClient(bounded, nil, time.Minute, quietLogger()).Generate(context.Background(), "p", mc)
	require.NoError(t, err)
	assert.True(t, bounded.hasDeadline)
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		gen  *fakeGenerator
		mc   ModelConfig
	}{
		{
			name: "no models",
			gen:  &fakeGenerator{resp: textResponse("x")},
			mc:   ModelConfig{},
		},
		{
			name: "api error",
			gen:  &fakeGenerator{err: errors.New("boom")},
			mc:   ModelConfig{Models: []string{"m"}},
		},
		{
			name: "nil response",
			gen:  &fakeGenerator{},
			mc:   ModelConfig{Models: []string{"m"}},
		},
		{
			name: "no candidates",
			gen:  &fakeGenerator{resp: &genai.GenerateContentResponse{}},
			mc:   ModelConfig{Models: []string{"m"}},
		},
		{
			name: "blocked",
			gen: &fakeGenerator{resp: &genai.GenerateContentResponse{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
			}},
			mc: ModelConfig{Models: []string{"m"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newClient(tt.gen, nil, 0, quietLogger())
			_, err := c.Generate(context.Background(), "prompt", tt.mc)
			assert.Error(t, err)
		})
	}
}

func TestGenerateCallsOnce(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{err: errors.New("unavailable")}
	c := newClient(gen, nil, 0, quietLogger())
	_, err := c.Generate(context.Background(), "prompt", ModelConfig{Models: []string{"a", "b"}})
	require.Error(t, err)
	assert.Len(t, gen.calls, 1)
}

func TestModelGroup(t *testing.T) {
	t.Parallel()

	llm := config.LLMConfig{
		Groups: map[string]config.ModelGroupConfig{
			"Utils": {Models: []string{"gemini-2.5-flash"}, MaxTokens: 100},
			"empty": {},
		},
	}
	c := newClient(&fakeGenerator{}, GroupsFromConfig(llm), 0, quietLogger())

	mc, ok := c.ModelGroup("utils")
	require.True(t, ok)
	assert.Equal(t, []string{"gemini-2.5-flash"}, mc.Models)
	assert.Equal(t, int32(100), mc.MaxTokens)

	_, ok = c.ModelGroup("empty")
	assert.False(t, ok)
	_, ok = c.ModelGroup("missing")
	assert.False(t, ok)
}

func TestExplicitModelConfig(t *testing.T) {
	t.Parallel()

	_, ok := ExplicitModelConfig(config.LLMConfig{Group: "utils"})
	assert.False(t, ok)

	mc, ok := ExplicitModelConfig(config.LLMConfig{Models: []string{"a"}, MaxTokens: 42, SelectionStrategy: StrategyRandom})
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, mc.Models)
	assert.Equal(t, int32(42), mc.MaxTokens)
	assert.Equal(t, StrategyRandom, mc.SelectionStrategy)
}
