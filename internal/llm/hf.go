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

// HFConfig for the Hugging Face Inference API client.
type HFConfig struct {
	Token       string
	BaseURL     string // default https://api-inference.huggingface.co/models
	Model       string // e.g. "mistralai/Mistral-7B-Instruct-v0.2"
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

// HuggingFace calls the serverless Inference API for instruct models.
type HuggingFace struct {
	cfg     HFConfig
	http    *http.Client
	retrier retrier
	logger  *slog.Logger
}

func NewHuggingFace(cfg HFConfig, logger *slog.Logger) *HuggingFace {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-inference.huggingface.co/models"
	}
	if cfg.Model == "" {
		cfg.Model = "mistralai/Mistral-7B-Instruct-v0.2"
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
	return &HuggingFace{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		retrier: newRetrier(cfg.MaxRetries, logger),
		logger:  logger,
	}
}

func (h *HuggingFace) Name() string { return "huggingface" }

func (h *HuggingFace) Complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"inputs": prompt,
		"parameters": map[string]any{
			"temperature":      h.cfg.Temperature,
			"max_new_tokens":   h.cfg.MaxTokens,
			"return_full_text": false,
		},
	}
	endpoint := strings.TrimRight(h.cfg.BaseURL, "/") + "/" + h.cfg.Model
	headers := map[string]string{"Authorization": "Bearer " + h.cfg.Token}

	var content string
	err := h.retrier.do(ctx, func() (int, string, error) {
		raw, status, retryAfter, err := SendJSON(ctx, h.http, endpoint, body, headers, h.logger)
		if err != nil {
			return status, retryAfter, err
		}

		// The serverless API answers with a list of generations.
		var gens []struct {
			GeneratedText string `json:"generated_text"`
		}
		if err := json.Unmarshal(raw, &gens); err != nil {
			return status, "", fmt.Errorf("decode huggingface response: %w", err)
		}
		if len(gens) == 0 {
			return status, "", fmt.Errorf("empty huggingface response")
		}
		content = strings.TrimSpace(gens[0].GeneratedText)
		return status, "", nil
	})
	if err != nil {
		return "", err
	}

	h.logger.Info("llm.complete.ok", "provider", h.Name(), "model", h.cfg.Model, "chars", len(content))
	return content, nil
}
