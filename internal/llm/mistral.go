package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// MistralConfig for the Mistral chat completions client.
type MistralConfig struct {
	APIKey      string
	BaseURL     string // default https://api.mistral.ai/v1
	Model       string // e.g. "mistral-medium"
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

// Mistral calls the Mistral chat completions API.
type Mistral struct {
	cfg     MistralConfig
	http    *http.Client
	retrier retrier
	logger  *slog.Logger
}

func NewMistral(cfg MistralConfig, logger *slog.Logger) *Mistral {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mistral.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "mistral-medium"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mistral{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		retrier: newRetrier(cfg.MaxRetries, logger),
		logger:  logger,
	}
}

func (m *Mistral) Name() string { return "mistral" }

func (m *Mistral) Complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":       m.cfg.Model,
		"temperature": m.cfg.Temperature,
		"max_tokens":  m.cfg.MaxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	endpoint := strings.TrimRight(m.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + m.cfg.APIKey}

	var content string
	err := m.retrier.do(ctx, func() (int, string, error) {
		raw, status, retryAfter, err := SendJSON(ctx, m.http, endpoint, body, headers, m.logger)
		if err != nil {
			return status, retryAfter, err
		}

		var cc struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(raw, &cc); err != nil {
			return status, "", fmt.Errorf("decode mistral response: %w", err)
		}
		if len(cc.Choices) == 0 {
			return status, "", fmt.Errorf("no choices in mistral response")
		}
		content = strings.TrimSpace(cc.Choices[0].Message.Content)
		return status, "", nil
	})
	if err != nil {
		return "", err
	}

	m.logger.Info("llm.complete.ok", "provider", m.Name(), "model", m.cfg.Model, "chars", len(content))
	return content, nil
}
