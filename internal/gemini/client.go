// Package gemini implements LLM invocation through Google's genai SDK:
// model groups, per-call model selection and slow-call reporting.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/sketchbot/internal/config"
)

// ModelConfig describes which models may serve a request and how.
type ModelConfig struct {
	Models            []string
	MaxTokens         int32
	Temperature       float32
	SlowThreshold     time.Duration
	SelectionStrategy string
}

// Response is a successful generation.
type Response struct {
	Text     string
	Model    string
	Duration time.Duration
}

// Client generates text from a single prompt.
type Client interface {
	// Generate sends prompt to one model chosen from mc. It never retries.
	Generate(ctx context.Context, prompt string, mc ModelConfig) (Response, error)
	// ModelGroup returns the configured model group called name.
	ModelGroup(name string) (ModelConfig, bool)
}

// ErrEmptyResponse is returned when the model produced no usable text.
var ErrEmptyResponse = errors.New("empty response")

// contentGenerator is the part of *genai.Models the client needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type sdkClient struct {
	models   contentGenerator
	log      *slog.Logger
	groups   map[string]ModelConfig
	selector *selector
	timeout  time.Duration
	safety   []*genai.SafetySetting
}

// NewClient creates a Gemini client for every configured model group.
func NewClient(ctx context.Context, cfg config.GeminiConfig, llm config.LLMConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	c := newClient(gi.Models, GroupsFromConfig(llm), cfg.Timeout, log)
	c.log.Info("Gemini client initialized", "groups", len(c.groups))
	return c, nil
}

func newClient(models contentGenerator, groups map[string]ModelConfig, timeout time.Duration, log *slog.Logger) *sdkClient {
	if log == nil {
		log = slog.Default()
	}
	return &sdkClient{
		models:   models,
		log:      log.With("component", "gemini_client"),
		groups:   groups,
		selector: newSelector(),
		timeout:  timeout,
		// Portrayals roast people on purpose; the default filters reject too much of it.
		safety: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}
}

// GroupsFromConfig converts the configured model groups. Group names are
// case-insensitive.
func GroupsFromConfig(llm config.LLMConfig) map[string]ModelConfig {
	groups := make(map[string]ModelConfig, len(llm.Groups))
	for name, g := range llm.Groups {
		groups[strings.ToLower(name)] = ModelConfig{
			Models:            append([]string(nil), g.Models...),
			MaxTokens:         g.MaxTokens,
			Temperature:       g.Temperature,
			SlowThreshold:     g.SlowThreshold,
			SelectionStrategy: g.SelectionStrategy,
		}
	}
	return groups
}

// ExplicitModelConfig returns the model list configured directly under llm,
// or false when none is set and a group must be used instead.
func ExplicitModelConfig(llm config.LLMConfig) (ModelConfig, bool) {
	if len(llm.Models) == 0 {
		return ModelConfig{}, false
	}
	return ModelConfig{
		Models:            append([]string(nil), llm.Models...),
		MaxTokens:         llm.MaxTokens,
		Temperature:       llm.Temperature,
		SlowThreshold:     llm.SlowThreshold,
		SelectionStrategy: llm.SelectionStrategy,
	}, true
}

func (c *sdkClient) ModelGroup(name string) (ModelConfig, bool) {
	mc, ok := c.groups[strings.ToLower(strings.TrimSpace(name))]
	if !ok || len(mc.Models) == 0 {
		return ModelConfig{}, false
	}
	return mc, true
}

func (c *sdkClient) Generate(ctx context.Context, prompt string, mc ModelConfig) (Response, error) {
	if len(mc.Models) == 0 {
		return Response{}, errors.New("no models configured")
	}
	if strings.TrimSpace(prompt) == "" {
		return Response{}, errors.New("prompt is empty")
	}

	model := c.selector.pick(mc.Models, mc.SelectionStrategy)
	log := c.log.With("model", model)

	temperature := mc.Temperature
	genCfg := &genai.GenerateContentConfig{
		Temperature:    &temperature,
		SafetySettings: c.safety,
	}
	if mc.MaxTokens > 0 {
		genCfg.MaxOutputTokens = mc.MaxTokens
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log.DebugContext(ctx, "Generating content", "prompt_chars", len(prompt), "max_tokens", mc.MaxTokens)
	start := time.Now()
	resp, err := c.models.GenerateContent(callCtx, model, genai.Text(prompt), genCfg)
	elapsed := time.Since(start)

	if mc.SlowThreshold > 0 && elapsed > mc.SlowThreshold {
		log.WarnContext(ctx, "Slow LLM call", "duration", elapsed, "threshold", mc.SlowThreshold)
	}

	if err != nil {
		c.selector.record(model, err)
		log.ErrorContext(ctx, "Gemini API call failed", "error", err, "duration", elapsed)
		return Response{}, fmt.Errorf("gemini API call failed (model %s): %w", model, err)
	}

	text, err := c.extractText(ctx, resp)
	c.selector.record(model, err)
	if err != nil {
		return Response{}, fmt.Errorf("model %s: %w", model, err)
	}

	log.InfoContext(ctx, "Generated content", "duration", elapsed, "chars", len(text))
	return Response{Text: text, Model: model, Duration: elapsed}, nil
}

func (c *sdkClient) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified && resp.PromptFeedback.BlockReason != "" {
		reason := string(resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reason)
		return "", fmt.Errorf("blocked by safety filter: %s", reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = string(resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "finish_reason", finishReason)
		return "", fmt.Errorf("%w: finish reason %s", ErrEmptyResponse, finishReason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
