package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go_imagegen/core"
	"go_imagegen/sdruntime"

	openai "github.com/sashabaranov/go-openai"
)

// Enhancer rewrites a user prompt into a richer prompt for the model.
// Enhancement is quality-aware: higher tiers get stronger style suffixes.
type Enhancer interface {
	Enhance(ctx context.Context, prompt string, quality Quality) (string, error)
}

// NewEnhancer builds an enhancer from configuration. The heuristic backend is
// the default and has no external dependencies; the openai backend rewrites
// prompts through a chat completion before applying the quality suffix.
func NewEnhancer(cfg *core.Config) (Enhancer, error) {
	switch strings.ToLower(cfg.EnhancerBackend) {
	case "", "heuristic":
		return HeuristicEnhancer{}, nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("enhancer backend %q requires an API key", cfg.EnhancerBackend)
		}
		clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			clientCfg.BaseURL = cfg.OpenAIBaseURL
		}
		return &OpenAIEnhancer{
			client: openai.NewClientWithConfig(clientCfg),
			model:  cfg.OpenAIModel,
		}, nil
	default:
		return nil, fmt.Errorf("unknown enhancer backend: %q", cfg.EnhancerBackend)
	}
}

// HeuristicEnhancer appends a fixed quality suffix to the prompt.
// This is a pure function with no side effects.
type HeuristicEnhancer struct{}

func (HeuristicEnhancer) Enhance(_ context.Context, prompt string, quality Quality) (string, error) {
	return sdruntime.EnhancePrompt(prompt, quality.String()), nil
}

// OpenAIEnhancer asks a chat model to rewrite the prompt, then applies the
// same quality suffix the heuristic enhancer uses so tier behavior stays
// consistent across backends.
type OpenAIEnhancer struct {
	client *openai.Client
	model  string
}

const enhancerSystemPrompt = "You rewrite text-to-image prompts. Expand the user's prompt with " +
	"concrete visual detail (subject, style, lighting, composition). Reply with the rewritten " +
	"prompt only, no commentary."

func (e *OpenAIEnhancer) Enhance(ctx context.Context, prompt string, quality Quality) (string, error) {
	model := e.model
	if model == "" {
		model = openai.GPT4oMini
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: enhancerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   200,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("prompt enhancement request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("prompt enhancement returned no choices")
	}

	rewritten := strings.TrimSpace(resp.Choices[0].Message.Content)
	if rewritten == "" {
		rewritten = prompt
	}
	return sdruntime.EnhancePrompt(rewritten, quality.String()), nil
}
