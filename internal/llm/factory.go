package llm

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/bazaarlens/bazaarlens/internal/common"
)

// NewFromConfig picks a provider from the resolved credential. Tokens with
// the "hf_" prefix route to the Hugging Face Inference API, anything else is
// treated as a Mistral key. GEMINI_API_KEY in the environment wins over both.
func NewFromConfig(cfg common.LLMConfig, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		logger.Info("llm.provider.selected", "provider", "gemini", "model", cfg.GeminiModel)
		return NewGemini(GeminiConfig{
			APIKey:      key,
			Model:       cfg.GeminiModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, logger), nil
	}

	if cfg.APIKey == "" {
		return nil, common.ErrNoCredentials
	}

	if strings.HasPrefix(cfg.APIKey, "hf_") {
		logger.Info("llm.provider.selected", "provider", "huggingface", "model", cfg.HFModel)
		return NewHuggingFace(HFConfig{
			Token:       cfg.APIKey,
			Model:       cfg.HFModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
			MaxRetries:  cfg.MaxRetries,
		}, logger), nil
	}

	logger.Info("llm.provider.selected", "provider", "mistral", "model", cfg.MistralModel)
	return NewMistral(MistralConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.MistralModel,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		MaxRetries:  cfg.MaxRetries,
	}, logger), nil
}

type disabled struct{}

// Disabled returns a client that fails every completion with
// ErrNoCredentials. The daemon runs with it when no credential resolves,
// keeping the HTTP surface up while each extraction degrades to an error
// result.
func Disabled() Client { return disabled{} }

func (disabled) Name() string { return "none" }

func (disabled) Complete(ctx context.Context, prompt string) (string, error) {
	return "", common.ErrNoCredentials
}
